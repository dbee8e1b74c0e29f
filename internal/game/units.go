package game

import (
	"airops-sim/internal/engagement"
	"airops-sim/internal/geo"
	"airops-sim/internal/scenario"
)

// carrierOffset places aircraft spawned on a carrier south-west of it.
const carrierOffset = 0.5

func (g *Game) sideColor() string {
	return g.current.GetSideColor(g.CurrentSideName)
}

// AddAircraft creates an aircraft for the active side. It returns nil when no
// side is active.
func (g *Game) AddAircraft(name, className string, lat, lon float64) *scenario.Aircraft {
	if g.CurrentSideName == "" {
		return nil
	}
	a := scenario.NewAircraft(name, className, g.CurrentSideName, g.sideColor(), lat, lon, g.loadouts.Aircraft)
	if err := g.current.AddAircraft(a); err != nil {
		return nil
	}
	return a
}

// AddShip creates a ship for the active side.
func (g *Game) AddShip(name, className string, lat, lon float64) *scenario.Ship {
	if g.CurrentSideName == "" {
		return nil
	}
	sh := scenario.NewShip(name, className, g.CurrentSideName, g.sideColor(), lat, lon, g.loadouts.Ship)
	if err := g.current.AddShip(sh); err != nil {
		return nil
	}
	return sh
}

// AddFacility creates a facility for the active side.
func (g *Game) AddFacility(name, className string, lat, lon float64) *scenario.Facility {
	if g.CurrentSideName == "" {
		return nil
	}
	f := scenario.NewFacility(name, className, g.CurrentSideName, g.sideColor(), lat, lon, g.loadouts.Facility)
	if err := g.current.AddFacility(f); err != nil {
		return nil
	}
	return f
}

// AddAirbase creates an airbase for the active side.
func (g *Game) AddAirbase(name, className string, lat, lon float64) *scenario.Airbase {
	if g.CurrentSideName == "" {
		return nil
	}
	ab := scenario.NewAirbase(name, className, g.CurrentSideName, g.sideColor(), lat, lon)
	if err := g.current.AddAirbase(ab); err != nil {
		return nil
	}
	return ab
}

func (g *Game) addAircraftToCarrier(name, className string, c scenario.Carrier) *scenario.Aircraft {
	if g.CurrentSideName == "" || c == nil {
		return nil
	}
	b := c.Base()
	a := scenario.NewAircraft(name, className, g.CurrentSideName, g.sideColor(),
		b.Latitude-carrierOffset, b.Longitude-carrierOffset, g.loadouts.Aircraft)
	if err := g.current.Embark(b.ID, a); err != nil {
		return nil
	}
	return a
}

// AddAircraftToAirbase parks a new aircraft on an airbase.
func (g *Game) AddAircraftToAirbase(name, className, airbaseID string) *scenario.Aircraft {
	ab := g.current.GetAirbase(airbaseID)
	if ab == nil {
		return nil
	}
	return g.addAircraftToCarrier(name, className, ab)
}

// AddAircraftToShip embarks a new aircraft on a ship.
func (g *Game) AddAircraftToShip(name, className, shipID string) *scenario.Aircraft {
	sh := g.current.GetShip(shipID)
	if sh == nil {
		return nil
	}
	return g.addAircraftToCarrier(name, className, sh)
}

// LaunchAircraftFromAirbase moves the most recently parked aircraft into the
// open scenario.
func (g *Game) LaunchAircraftFromAirbase(airbaseID string) *scenario.Aircraft {
	if g.CurrentSideName == "" || g.current.GetAirbase(airbaseID) == nil {
		return nil
	}
	return g.current.Launch(airbaseID)
}

// LaunchAircraftFromShip moves the most recently embarked aircraft into the
// open scenario.
func (g *Game) LaunchAircraftFromShip(shipID string) *scenario.Aircraft {
	if g.CurrentSideName == "" || g.current.GetShip(shipID) == nil {
		return nil
	}
	return g.current.Launch(shipID)
}

// RemoveAircraft removes a top-level aircraft.
func (g *Game) RemoveAircraft(id string) { g.current.RemoveAircraft(id) }

// RemoveShip removes a ship and everything embarked on it.
func (g *Game) RemoveShip(id string) { g.current.RemoveShip(id) }

// RemoveFacility removes a facility.
func (g *Game) RemoveFacility(id string) { g.current.RemoveFacility(id) }

// RemoveAirbase removes an airbase and its parked aircraft.
func (g *Game) RemoveAirbase(id string) { g.current.RemoveAirbase(id) }

// RemoveWeapon removes an in-flight weapon.
func (g *Game) RemoveWeapon(id string) { g.current.RemoveWeapon(id) }

func setCourse(m *scenario.Movement, b *scenario.UnitBase, lat, lon float64) {
	m.Route = []scenario.Waypoint{{lat, lon}}
	m.Heading = geo.Bearing(b.Latitude, b.Longitude, lat, lon)
}

// MoveAircraft routes an aircraft to a single destination.
func (g *Game) MoveAircraft(id string, lat, lon float64) *scenario.Aircraft {
	a := g.current.GetAircraft(id)
	if a == nil {
		return nil
	}
	setCourse(&a.Movement, &a.UnitBase, lat, lon)
	return a
}

// MoveShip routes a ship to a single destination.
func (g *Game) MoveShip(id string, lat, lon float64) *scenario.Ship {
	sh := g.current.GetShip(id)
	if sh == nil {
		return nil
	}
	setCourse(&sh.Movement, &sh.UnitBase, lat, lon)
	return sh
}

func (g *Game) attack(attacker scenario.Combatant, targetID string) *scenario.Weapon {
	target := g.current.GetUnit(targetID)
	if target == nil {
		return nil
	}
	a, t := attacker.Base(), target.Base()
	if a.SideName == t.SideName || a.ID == t.ID {
		return nil
	}
	w := engagement.LaunchWeapon(g.current, attacker, target)
	if w != nil {
		g.record(engagement.Event{
			Outcome:   engagement.Launched,
			WeaponID:  w.ID,
			ShooterID: a.ID,
			TargetID:  t.ID,
			SideName:  a.SideName,
			Latitude:  w.Latitude,
			Longitude: w.Longitude,
		})
	}
	return w
}

// HandleAircraftAttack fires one weapon from an aircraft at an opposing unit.
func (g *Game) HandleAircraftAttack(aircraftID, targetID string) *scenario.Weapon {
	a := g.current.GetAircraft(aircraftID)
	if a == nil {
		return nil
	}
	return g.attack(a, targetID)
}

// HandleShipAttack fires one weapon from a ship at an opposing unit.
func (g *Game) HandleShipAttack(shipID, targetID string) *scenario.Weapon {
	sh := g.current.GetShip(shipID)
	if sh == nil {
		return nil
	}
	return g.attack(sh, targetID)
}
