package game

import (
	"slices"

	"airops-sim/internal/engagement"
	"airops-sim/internal/geo"
	"airops-sim/internal/scenario"
)

// ArrivalTolerance is the distance in nautical miles at which a mobile unit
// snaps to its waypoint.
const ArrivalTolerance = 0.5

// UpdateGameState runs one tick: clock, facility and ship auto-defense,
// weapon resolution, then aircraft and ship movement.
func (g *Game) UpdateGameState() {
	g.events = g.pending
	g.pending = nil
	g.inTick = true
	defer func() { g.inTick = false }()

	g.current.CurrentTime++
	// weapons launched by auto-defense this tick first resolve on the next one
	inFlight := slices.Clone(g.current.Weapons)
	g.FacilityAutoDefense()
	g.ShipAutoDefense()

	for _, w := range inFlight {
		if g.current.GetWeapon(w.ID) != w {
			continue
		}
		ev := engagement.WeaponEngagement(g.current, w, g.rng)
		if ev.Outcome.Terminal() {
			g.record(ev)
		}
	}

	g.updateAllAircraftPosition()
	g.updateAllShipPosition()
}

// autoDefend launches from defender at every opposing aircraft and weapon in
// range whose track count is below the cap for its class. Threats inside the
// defender's range but beyond its loaded weapon's reach are held.
func (g *Game) autoDefend(defender scenario.Combatant, aircraftCap, weaponCap int) {
	side := defender.Base().SideName
	for _, a := range slices.Clone(g.current.Aircraft) {
		g.defendAgainst(defender, side, a, aircraftCap)
	}
	for _, w := range slices.Clone(g.current.Weapons) {
		g.defendAgainst(defender, side, w, weaponCap)
	}
}

func (g *Game) defendAgainst(defender scenario.Combatant, side string, threat scenario.Unit, limit int) {
	if threat.Base().SideName == side || g.current.GetUnit(threat.Base().ID) == nil {
		return
	}
	if !engagement.CheckIfThreatIsWithinRange(threat, defender) {
		return
	}
	if engagement.CheckTargetTrackedByCount(g.current, threat) >= limit {
		return
	}
	if !engagement.WeaponCanReach(defender, threat) {
		return
	}
	g.launch(defender, threat)
}

func (g *Game) launch(shooter scenario.Combatant, target scenario.Unit) {
	w := engagement.LaunchWeapon(g.current, shooter, target)
	if w == nil {
		return
	}
	g.record(engagement.Event{
		Outcome:   engagement.Launched,
		WeaponID:  w.ID,
		ShooterID: shooter.Base().ID,
		TargetID:  target.Base().ID,
		SideName:  w.SideName,
		Latitude:  w.Latitude,
		Longitude: w.Longitude,
	})
}

// FacilityAutoDefense lets every facility engage opposing aircraft and weapons.
func (g *Game) FacilityAutoDefense() {
	for _, f := range g.current.Facilities {
		g.autoDefend(f, g.caps.FacilityVsAircraft, g.caps.FacilityVsWeapon)
	}
}

// ShipAutoDefense lets every ship engage opposing aircraft and weapons.
func (g *Game) ShipAutoDefense() {
	for _, sh := range g.current.Ships {
		g.autoDefend(sh, g.caps.ShipVsAircraft, g.caps.ShipVsWeapon)
	}
}

// advance moves a unit one tick along its route and burns fuel. It reports
// whether the unit ran dry.
func advance(m *scenario.Movement, b *scenario.UnitBase) bool {
	n := len(m.Route)
	if n == 0 {
		return false
	}
	dest := m.Route[n-1]
	if geo.Distance(b.Latitude, b.Longitude, dest.Lat(), dest.Lon()) < ArrivalTolerance {
		b.Latitude, b.Longitude = dest.Lat(), dest.Lon()
		m.Route = m.Route[:n-1]
	} else {
		b.Latitude, b.Longitude = geo.NextPosition(b.Latitude, b.Longitude, dest.Lat(), dest.Lon(), m.Speed)
		m.Heading = geo.Bearing(b.Latitude, b.Longitude, dest.Lat(), dest.Lon())
	}
	m.CurrentFuel -= m.FuelRate / 3600
	return m.CurrentFuel <= 0
}

func (g *Game) updateAllAircraftPosition() {
	for _, a := range slices.Clone(g.current.Aircraft) {
		if advance(&a.Movement, &a.UnitBase) {
			g.log.Debug("aircraft out of fuel", "id", a.ID)
			g.current.RemoveAircraft(a.ID)
		}
	}
}

func (g *Game) updateAllShipPosition() {
	for _, sh := range slices.Clone(g.current.Ships) {
		if advance(&sh.Movement, &sh.UnitBase) {
			g.log.Debug("ship out of fuel", "id", sh.ID)
			g.current.RemoveShip(sh.ID)
		}
	}
}

// Step runs one tick and returns the scenario as the observation. Reward is
// always zero and terminated always false; truncated is CheckGameEnded.
func (g *Game) Step() (observation *scenario.Scenario, reward float64, terminated, truncated bool, info map[string]any) {
	g.UpdateGameState()
	return g.current, 0, false, g.CheckGameEnded(), nil
}

// CheckGameEnded reports whether the scenario is over. Scenarios never end.
func (g *Game) CheckGameEnded() bool {
	return false
}
