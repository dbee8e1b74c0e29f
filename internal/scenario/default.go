package scenario

import "github.com/google/uuid"

// Default sides of the built-in scenario.
const (
	BlueSide = "BLUE"
	RedSide  = "RED"
)

// NewAircraft builds an aircraft with stock kinematics and the given loadout.
func NewAircraft(name, className, sideName, sideColor string, lat, lon float64, l Loadout) *Aircraft {
	return &Aircraft{
		UnitBase: UnitBase{
			ID:        uuid.New().String(),
			Name:      name,
			SideName:  sideName,
			ClassName: className,
			Latitude:  lat,
			Longitude: lon,
			Altitude:  10000,
			SideColor: sideColor,
		},
		Movement: Movement{
			Heading:     90,
			Speed:       300,
			CurrentFuel: 10000,
			MaxFuel:     10000,
			FuelRate:    5000,
			Range:       100,
			Route:       []Waypoint{},
		},
		Weapons: []*WeaponStockpile{NewSampleWeapon(sideName, sideColor, l)},
	}
}

// NewShip builds a ship with stock kinematics and the given loadout.
func NewShip(name, className, sideName, sideColor string, lat, lon float64, l Loadout) *Ship {
	return &Ship{
		UnitBase: UnitBase{
			ID:        uuid.New().String(),
			Name:      name,
			SideName:  sideName,
			ClassName: className,
			Latitude:  lat,
			Longitude: lon,
			SideColor: sideColor,
		},
		Movement: Movement{
			Speed:       30,
			CurrentFuel: 32000000,
			MaxFuel:     32000000,
			FuelRate:    7000,
			Range:       250,
			Route:       []Waypoint{},
		},
		Weapons:  []*WeaponStockpile{NewSampleWeapon(sideName, sideColor, l)},
		Aircraft: []*Aircraft{},
	}
}

// NewFacility builds a facility with the stock range and the given loadout.
func NewFacility(name, className, sideName, sideColor string, lat, lon float64, l Loadout) *Facility {
	return &Facility{
		UnitBase: UnitBase{
			ID:        uuid.New().String(),
			Name:      name,
			SideName:  sideName,
			ClassName: className,
			Latitude:  lat,
			Longitude: lon,
			SideColor: sideColor,
		},
		Range:   250,
		Weapons: []*WeaponStockpile{NewSampleWeapon(sideName, sideColor, l)},
	}
}

// NewAirbase builds an empty airbase.
func NewAirbase(name, className, sideName, sideColor string, lat, lon float64) *Airbase {
	return &Airbase{
		UnitBase: UnitBase{
			ID:        uuid.New().String(),
			Name:      name,
			SideName:  sideName,
			ClassName: className,
			Latitude:  lat,
			Longitude: lon,
			SideColor: sideColor,
		},
		Aircraft: []*Aircraft{},
	}
}

// NewDefault returns the built-in demo scenario: a blue airbase with two
// parked fighters and a destroyer facing a red SAM site and a patrolling
// bomber.
func NewDefault(loadouts Loadouts) *Scenario {
	blue := NewSide(BlueSide, "blue")
	red := NewSide(RedSide, "red")
	s := New(uuid.New().String(), "Default Scenario", blue, red)
	s.Duration = 4 * 3600

	base := NewAirbase("Blue Airbase", "Airfield", BlueSide, blue.SideColor, 24.0, 54.0)
	for _, name := range []string{"Viper 1", "Viper 2"} {
		a := NewAircraft(name, "F-16C", BlueSide, blue.SideColor, base.Latitude-0.5, base.Longitude-0.5, loadouts.Aircraft)
		base.Aircraft = append(base.Aircraft, a)
	}
	_ = s.AddAirbase(base)
	_ = s.AddShip(NewShip("Blue Destroyer", "DDG-51", BlueSide, blue.SideColor, 25.5, 56.5, loadouts.Ship))

	_ = s.AddFacility(NewFacility("Red SAM", "SA-10", RedSide, red.SideColor, 27.0, 56.0, loadouts.Facility))
	bomber := NewAircraft("Bear 1", "Tu-95", RedSide, red.SideColor, 28.0, 55.0, loadouts.Aircraft)
	bomber.Route = []Waypoint{{26.0, 54.5}}
	_ = s.AddAircraft(bomber)
	return s
}
