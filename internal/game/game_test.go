package game

import (
	"math"
	"testing"

	"airops-sim/internal/config"
	"airops-sim/internal/engagement"
	"airops-sim/internal/geo"
	"airops-sim/internal/scenario"
)

type fixedRoller float64

func (f fixedRoller) Float64() float64 { return float64(f) }

func newTestGame(t *testing.T, opts ...Option) *Game {
	t.Helper()
	s := scenario.New("s", "test", scenario.NewSide("BLUE", "blue"), scenario.NewSide("RED", "red"))
	cfg := config.Default()
	cfg.Seed = 1
	return New(s, cfg, opts...)
}

func TestAddRequiresActiveSide(t *testing.T) {
	g := New(scenario.New("s", "empty"), config.Default())
	if g.AddAircraft("a", "F", 0, 0) != nil || g.AddFacility("f", "SAM", 0, 0) != nil {
		t.Fatalf("unit created without active side")
	}
	if g.RequireSide() != ErrNoActiveSide {
		t.Fatalf("expected ErrNoActiveSide")
	}
}

func TestAddAircraftDefaults(t *testing.T) {
	g := newTestGame(t)
	a := g.AddAircraft("Viper", "F-16", 1, 2)
	if a == nil {
		t.Fatalf("expected aircraft")
	}
	if a.SideName != "BLUE" || a.SideColor != "blue" || a.Speed != 300 || a.Altitude != 10000 || a.Range != 100 {
		t.Fatalf("unexpected aircraft: %+v", a)
	}
	if len(a.Weapons) != 1 || a.Weapons[0].CurrentQuantity != 10 || a.Weapons[0].Lethality != 0.25 {
		t.Fatalf("unexpected loadout: %+v", a.Weapons)
	}
	if g.Scenario().GetAircraft(a.ID) != a {
		t.Fatalf("aircraft not in scenario")
	}
}

func TestCarrierAircraftLifecycle(t *testing.T) {
	g := newTestGame(t)
	ab := g.AddAirbase("Base", "Field", 10, 20)
	first := g.AddAircraftToAirbase("one", "F", ab.ID)
	second := g.AddAircraftToAirbase("two", "F", ab.ID)
	if first == nil || second == nil {
		t.Fatalf("aircraft not parked")
	}
	if first.Latitude != 9.5 || first.Longitude != 19.5 {
		t.Fatalf("parked aircraft at %.1f,%.1f", first.Latitude, first.Longitude)
	}
	if g.Scenario().GetAircraft(first.ID) != nil {
		t.Fatalf("parked aircraft visible")
	}
	if got := g.LaunchAircraftFromAirbase(ab.ID); got != second {
		t.Fatalf("expected LIFO launch")
	}
	if g.AddAircraftToShip("x", "F", "missing") != nil {
		t.Fatalf("aircraft added to unknown ship")
	}
	sh := g.AddShip("Carrier", "CVN", 0, 0)
	a := g.AddAircraftToShip("deck", "F", sh.ID)
	if g.LaunchAircraftFromShip(sh.ID) != a || g.LaunchAircraftFromShip(sh.ID) != nil {
		t.Fatalf("unexpected ship launch sequence")
	}
}

func TestMoveSetsRouteAndHeading(t *testing.T) {
	g := newTestGame(t)
	a := g.AddAircraft("a", "F", 0, 0)
	g.MoveAircraft(a.ID, 1, 0)
	if len(a.Route) != 1 || a.Route[0] != (scenario.Waypoint{1, 0}) {
		t.Fatalf("unexpected route %v", a.Route)
	}
	if math.Abs(a.Heading) > 1e-9 {
		t.Fatalf("heading %.3f, want 0", a.Heading)
	}
	if g.MoveShip(a.ID, 1, 1) != nil {
		t.Fatalf("aircraft id moved as ship")
	}
}

func TestUnitReachesDestinationAndStops(t *testing.T) {
	g := newTestGame(t)
	a := g.AddAircraft("a", "F", 0, 0)
	g.MoveAircraft(a.ID, 0, 0.1)
	for i := 0; i < 200 && len(a.Route) > 0; i++ {
		g.UpdateGameState()
		if len(a.Route) > 0 && math.Abs(a.Heading-geo.Bearing(a.Latitude, a.Longitude, 0, 0.1)) > 1e-6 {
			t.Fatalf("heading does not point at destination")
		}
	}
	if len(a.Route) != 0 {
		t.Fatalf("aircraft did not arrive")
	}
	if a.Latitude != 0 || a.Longitude != 0.1 {
		t.Fatalf("aircraft not snapped: %.6f,%.6f", a.Latitude, a.Longitude)
	}
	fuel := a.CurrentFuel
	g.UpdateGameState()
	if a.CurrentFuel != fuel || a.Longitude != 0.1 {
		t.Fatalf("idle aircraft moved or burned fuel")
	}
}

func TestFuelExhaustionRemovesUnit(t *testing.T) {
	g := newTestGame(t)
	a := g.AddAircraft("a", "F", 0, 0)
	burn := a.FuelRate / 3600
	a.CurrentFuel = burn * 2.5
	g.MoveAircraft(a.ID, 10, 10)
	for tick := 1; tick <= 2; tick++ {
		before := a.CurrentFuel
		g.UpdateGameState()
		if g.Scenario().GetAircraft(a.ID) == nil {
			t.Fatalf("removed early on tick %d", tick)
		}
		if math.Abs(before-a.CurrentFuel-burn) > 1e-9 {
			t.Fatalf("tick %d burned %.6f", tick, before-a.CurrentFuel)
		}
	}
	g.UpdateGameState()
	if g.Scenario().GetAircraft(a.ID) != nil {
		t.Fatalf("aircraft not removed when fuel ran out")
	}
}

func TestAttackRules(t *testing.T) {
	g := newTestGame(t)
	blue := g.AddAircraft("blue", "F", 0, 0)
	friend := g.AddAircraft("friend", "F", 0, 0.5)
	g.SwitchCurrentSide()
	red := g.AddFacility("red", "SAM", 0, 1)

	if g.HandleAircraftAttack(blue.ID, friend.ID) != nil {
		t.Fatalf("attacked own side")
	}
	if g.HandleAircraftAttack(blue.ID, blue.ID) != nil {
		t.Fatalf("attacked itself")
	}
	if g.HandleAircraftAttack(blue.ID, "missing") != nil {
		t.Fatalf("attacked missing target")
	}
	w := g.HandleAircraftAttack(blue.ID, red.ID)
	if w == nil || w.TargetID != red.ID || blue.Weapons[0].CurrentQuantity != 9 {
		t.Fatalf("attack did not launch: %+v", w)
	}
	g.UpdateGameState()
	if evs := g.Events(); len(evs) == 0 || evs[0].Outcome != engagement.Launched || evs[0].WeaponID != w.ID {
		t.Fatalf("manual launch not reported: %+v", evs)
	}
}

func TestFacilityEngagesAircraftEndToEnd(t *testing.T) {
	g := newTestGame(t, WithRoller(fixedRoller(0.5)))
	f := g.AddFacility("sam", "SAM", 0, 0)
	g.SwitchCurrentSide()
	a := g.AddAircraft("bandit", "F", 0, 1)
	if f.Range != 250 {
		t.Fatalf("facility range %.0f", f.Range)
	}

	g.Step()
	s := g.Scenario()
	if len(s.Weapons) != 1 || s.Weapons[0].TargetID != a.ID {
		t.Fatalf("expected one weapon on the aircraft, got %+v", s.Weapons)
	}

	for i := 0; i < 2000 && engagement.CheckTargetTrackedByCount(s, a) > 0; i++ {
		f.Weapons = nil
		obs, reward, terminated, truncated, info := g.Step()
		if obs != s || reward != 0 || terminated || truncated || info != nil {
			t.Fatalf("unexpected step result")
		}
	}
	if engagement.CheckTargetTrackedByCount(s, a) != 0 {
		t.Fatalf("weapon never resolved")
	}
	if s.GetAircraft(a.ID) == nil {
		t.Fatalf("aircraft removed on a roll above lethality")
	}
}

func TestFacilityTrackCap(t *testing.T) {
	g := newTestGame(t)
	for i := 0; i < 12; i++ {
		g.AddFacility("sam", "SAM", 0, 0)
	}
	g.SwitchCurrentSide()
	a := g.AddAircraft("bandit", "F", 0, 1)
	for i := 0; i < 3; i++ {
		g.FacilityAutoDefense()
		if n := engagement.CheckTargetTrackedByCount(g.Scenario(), a); n != 10 {
			t.Fatalf("tracked by %d, want 10", n)
		}
	}
}

func TestShipTrackCapAgainstWeapons(t *testing.T) {
	g := newTestGame(t)
	sh := g.AddShip("ddg", "DDG", 0, 0)
	sh.Weapons[0].CurrentQuantity = 50
	g.SwitchCurrentSide()
	red := g.AddAircraft("red", "F", 0, 1)
	for i := 0; i < 3; i++ {
		g.HandleAircraftAttack(red.ID, sh.ID)
	}
	g.ShipAutoDefense()
	for _, w := range g.Scenario().Weapons {
		if w.SideName != "RED" {
			continue
		}
		if n := engagement.CheckTargetTrackedByCount(g.Scenario(), w); n != 1 {
			t.Fatalf("red weapon tracked by %d after one pass", n)
		}
	}
	for i := 0; i < 15; i++ {
		g.ShipAutoDefense()
	}
	for _, w := range g.Scenario().Weapons {
		if w.SideName == "RED" && engagement.CheckTargetTrackedByCount(g.Scenario(), w) > g.caps.ShipVsWeapon {
			t.Fatalf("ship exceeded weapon cap")
		}
	}
	if n := engagement.CheckTargetTrackedByCount(g.Scenario(), red); n != g.caps.ShipVsAircraft {
		t.Fatalf("aircraft tracked by %d, want %d", n, g.caps.ShipVsAircraft)
	}
}

func TestWeaponLaunchedThisTickDoesNotMove(t *testing.T) {
	g := newTestGame(t)
	f := g.AddFacility("sam", "SAM", 0, 0)
	g.SwitchCurrentSide()
	g.AddAircraft("bandit", "F", 0, 1)
	g.UpdateGameState()
	w := g.Scenario().Weapons[0]
	if w.Latitude != f.Latitude || w.Longitude != f.Longitude {
		t.Fatalf("weapon moved on its launch tick")
	}
}

func TestSwitchSideAndTimeCompression(t *testing.T) {
	g := newTestGame(t)
	g.SwitchCurrentSide()
	if g.CurrentSideName != "RED" {
		t.Fatalf("side %s", g.CurrentSideName)
	}
	g.SwitchCurrentSide()
	if g.CurrentSideName != "BLUE" {
		t.Fatalf("side did not wrap: %s", g.CurrentSideName)
	}
	want := []int{2, 4, 8, 16, 1}
	for _, w := range want {
		g.SwitchScenarioTimeCompression()
		if got := g.Scenario().TimeCompression; got != w {
			t.Fatalf("compression %d, want %d", got, w)
		}
	}
}

func TestExportLoadRoundTrip(t *testing.T) {
	g := newTestGame(t)
	a := g.AddAircraft("a", "F", 1, 2)
	g.MoveAircraft(a.ID, 3, 4)
	g.SelectedUnitID = a.ID
	g.MapView.CurrentCameraZoom = 7
	g.UpdateGameState()

	data, err := g.ExportCurrentScenario()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	other := newTestGame(t)
	if err := other.LoadScenario(data); err != nil {
		t.Fatalf("load: %v", err)
	}
	got := other.Scenario().GetAircraft(a.ID)
	if got == nil || got.Latitude != a.Latitude || got.CurrentFuel != a.CurrentFuel || len(got.Route) != 1 {
		t.Fatalf("aircraft not restored: %+v", got)
	}
	if other.SelectedUnitID != a.ID || other.MapView.CurrentCameraZoom != 7 || other.CurrentSideName != "BLUE" {
		t.Fatalf("game fields not restored")
	}
	if other.Scenario().CurrentTime != 1 {
		t.Fatalf("current time %d", other.Scenario().CurrentTime)
	}
}

func TestLoadScenarioFailureKeepsState(t *testing.T) {
	g := newTestGame(t)
	before := g.Scenario()
	for _, doc := range []string{"{broken", `{"currentSideName": "BLUE"}`, `{"currentScenario": {"aircraft": [{"id": "x"}, {"id": "x"}]}}`} {
		if err := g.LoadScenario([]byte(doc)); err == nil {
			t.Fatalf("expected error for %s", doc)
		}
		if g.Scenario() != before {
			t.Fatalf("scenario replaced after failed load")
		}
	}
}

func TestResetRestoresLoadedScenario(t *testing.T) {
	g := newTestGame(t)
	g.LoadDefaultScenario()
	n := g.Scenario().UnitCount()
	g.AddFacility("extra", "SAM", 0, 0)
	g.UpdateGameState()
	if err := g.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if g.Scenario().UnitCount() != n || g.Scenario().CurrentTime != 0 {
		t.Fatalf("reset did not restore scenario")
	}
}

func TestAutoDefenseHoldsFireBeyondWeaponReach(t *testing.T) {
	g := newTestGame(t)
	f := g.AddFacility("sam", "SAM", 0, 0)
	g.SwitchCurrentSide()
	a := g.AddAircraft("bandit", "F", 0, 3)
	if !engagement.CheckIfThreatIsWithinRange(a, f) {
		t.Fatalf("bandit should be inside facility range")
	}
	for i := 0; i < 40; i++ {
		g.Step()
	}
	if len(g.Scenario().Weapons) != 0 || len(f.Weapons) != 1 || f.Weapons[0].CurrentQuantity != 30 {
		t.Fatalf("facility fired beyond weapon reach: %d in flight, stock %+v", len(g.Scenario().Weapons), f.Weapons)
	}

	f.Weapons[0].Range = 250
	g.Step()
	if n := engagement.CheckTargetTrackedByCount(g.Scenario(), a); n != 1 {
		t.Fatalf("expected one launch once the weapon reaches, got %d", n)
	}
}
