// Package engagement implements targeting checks, weapon launches and the
// per-tick resolution of in-flight weapons.
package engagement

import (
	"slices"

	"github.com/google/uuid"

	"airops-sim/internal/geo"
	"airops-sim/internal/scenario"
)

// EngagementDistance is the closing distance in nautical miles at which an
// in-flight weapon rolls against its lethality.
const EngagementDistance = 0.5

// Roller draws uniform values in [0,1). *rand.Rand satisfies it.
type Roller interface {
	Float64() float64
}

// Outcome classifies an engagement event.
type Outcome string

const (
	Launched   Outcome = "launched"
	Tracking   Outcome = "tracking"
	Hit        Outcome = "hit"
	Missed     Outcome = "missed"
	OutOfFuel  Outcome = "out_of_fuel"
	OutOfRange Outcome = "out_of_range"
	TargetLost Outcome = "target_lost"
)

// Terminal reports whether the weapon was removed by this outcome.
func (o Outcome) Terminal() bool {
	return o != Launched && o != Tracking
}

// Event describes one launch or resolution.
type Event struct {
	Outcome   Outcome `json:"outcome"`
	WeaponID  string  `json:"weapon_id"`
	ShooterID string  `json:"shooter_id,omitempty"`
	TargetID  string  `json:"target_id"`
	SideName  string  `json:"side_name"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Roll      float64 `json:"roll,omitempty"`
}

// rangeOf returns the employment range of a defender, zero for units without one.
func rangeOf(u scenario.Unit) float64 {
	switch v := u.(type) {
	case *scenario.Facility:
		return v.Range
	case scenario.Mobile:
		return v.Mobility().Range
	}
	return 0
}

// CheckIfThreatIsWithinRange reports whether threat is within the defender's range.
func CheckIfThreatIsWithinRange(threat, defender scenario.Unit) bool {
	t, d := threat.Base(), defender.Base()
	return geo.Distance(d.Latitude, d.Longitude, t.Latitude, t.Longitude) <= rangeOf(defender)
}

// CheckTargetTrackedByCount counts in-flight weapons homing on target.
func CheckTargetTrackedByCount(s *scenario.Scenario, target scenario.Unit) int {
	id := target.Base().ID
	n := 0
	for _, w := range s.Weapons {
		if w.TargetID == id {
			n++
		}
	}
	return n
}

// loaded returns the index of the first stockpile entry with ammunition, or -1.
func loaded(shooter scenario.Combatant) int {
	return slices.IndexFunc(*shooter.Stockpiles(), func(w *scenario.WeaponStockpile) bool { return w.CurrentQuantity > 0 })
}

// WeaponCanReach reports whether the entry LaunchWeapon would fire next has
// the range to reach target from the shooter's position.
func WeaponCanReach(shooter scenario.Combatant, target scenario.Unit) bool {
	i := loaded(shooter)
	if i < 0 {
		return false
	}
	from, to := shooter.Base(), target.Base()
	return geo.Distance(from.Latitude, from.Longitude, to.Latitude, to.Longitude) <= (*shooter.Stockpiles())[i].Range
}

// LaunchWeapon fires one round from the shooter's first stockpile entry that
// still has ammunition. The entry is dropped once empty. It returns nil and
// changes nothing when the shooter has no ammunition.
func LaunchWeapon(s *scenario.Scenario, shooter scenario.Combatant, target scenario.Unit) *scenario.Weapon {
	stock := shooter.Stockpiles()
	i := loaded(shooter)
	if i < 0 {
		return nil
	}
	entry := (*stock)[i]

	from, to := shooter.Base(), target.Base()
	w := &scenario.Weapon{
		UnitBase: entry.UnitBase,
		Movement: entry.Movement,
		Munition: scenario.Munition{
			Lethality:       entry.Lethality,
			MaxQuantity:     1,
			CurrentQuantity: 1,
		},
		TargetID: to.ID,
	}
	w.ID = uuid.New().String()
	w.SideName = from.SideName
	w.SideColor = from.SideColor
	w.Latitude = from.Latitude
	w.Longitude = from.Longitude
	w.CurrentFuel = w.MaxFuel
	w.Heading = geo.Bearing(from.Latitude, from.Longitude, to.Latitude, to.Longitude)
	w.Route = []scenario.Waypoint{{to.Latitude, to.Longitude}}
	if err := s.AddWeapon(w); err != nil {
		return nil
	}

	entry.CurrentQuantity--
	if entry.CurrentQuantity <= 0 {
		*stock = slices.Delete(*stock, i, i+1)
	}
	return w
}

// WeaponEngagement advances one in-flight weapon by a tick and resolves it.
// Every outcome other than Tracking removes the weapon from the scenario; a
// Hit also removes the target.
func WeaponEngagement(s *scenario.Scenario, w *scenario.Weapon, r Roller) Event {
	ev := Event{Outcome: Tracking, WeaponID: w.ID, TargetID: w.TargetID, SideName: w.SideName}
	target := s.GetUnit(w.TargetID)
	if target == nil {
		ev.Outcome = TargetLost
		return finish(s, w, ev)
	}
	t := target.Base()
	if geo.Distance(w.Latitude, w.Longitude, t.Latitude, t.Longitude) > w.Range {
		ev.Outcome = OutOfRange
		return finish(s, w, ev)
	}

	w.Route = []scenario.Waypoint{{t.Latitude, t.Longitude}}
	w.Heading = geo.Bearing(w.Latitude, w.Longitude, t.Latitude, t.Longitude)
	w.Latitude, w.Longitude = geo.NextPosition(w.Latitude, w.Longitude, t.Latitude, t.Longitude, w.Speed)
	w.CurrentFuel -= w.FuelRate / 3600
	if w.CurrentFuel <= 0 {
		ev.Outcome = OutOfFuel
		return finish(s, w, ev)
	}

	if geo.Distance(w.Latitude, w.Longitude, t.Latitude, t.Longitude) > EngagementDistance {
		ev.Latitude, ev.Longitude = w.Latitude, w.Longitude
		return ev
	}
	ev.Roll = r.Float64()
	if ev.Roll < w.Lethality {
		ev.Outcome = Hit
		s.RemoveUnit(t.ID)
	} else {
		ev.Outcome = Missed
	}
	return finish(s, w, ev)
}

func finish(s *scenario.Scenario, w *scenario.Weapon, ev Event) Event {
	ev.Latitude, ev.Longitude = w.Latitude, w.Longitude
	s.RemoveWeapon(w.ID)
	return ev
}
