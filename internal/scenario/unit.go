package scenario

import "github.com/google/uuid"

// Kind names the top-level collection a unit lives in.
type Kind string

const (
	KindAircraft Kind = "aircraft"
	KindShip     Kind = "ship"
	KindFacility Kind = "facility"
	KindAirbase  Kind = "airbase"
	KindWeapon   Kind = "weapon"
)

// Unit is implemented by every simulated entity.
type Unit interface {
	Base() *UnitBase
	Kind() Kind
}

// Mobile units follow a route and burn fuel while moving.
type Mobile interface {
	Unit
	Mobility() *Movement
}

// Combatant units carry weapon stockpiles and can launch at targets.
type Combatant interface {
	Unit
	Stockpiles() *[]*WeaponStockpile
}

// Carrier units own parked aircraft until they are launched.
type Carrier interface {
	Unit
	Embarked() *[]*Aircraft
}

// UnitBase holds the fields every unit shares.
type UnitBase struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	SideName  string  `json:"sideName"`
	ClassName string  `json:"className"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
	SideColor string  `json:"sideColor"`
}

// Base returns the shared fields.
func (b *UnitBase) Base() *UnitBase { return b }

// Waypoint is a [lat, lon] pair.
type Waypoint [2]float64

// Lat returns the waypoint latitude.
func (w Waypoint) Lat() float64 { return w[0] }

// Lon returns the waypoint longitude.
func (w Waypoint) Lon() float64 { return w[1] }

// Movement holds kinematics and fuel for mobile units.
// Speed is knots, FuelRate is fuel per hour and Range is nautical miles.
type Movement struct {
	Heading     float64    `json:"heading"`
	Speed       float64    `json:"speed"`
	CurrentFuel float64    `json:"currentFuel"`
	MaxFuel     float64    `json:"maxFuel"`
	FuelRate    float64    `json:"fuelRate"`
	Range       float64    `json:"range"`
	Route       []Waypoint `json:"route"`
	Selected    bool       `json:"selected"`
}

// Munition holds the lethality and ammunition counts of a weapon record.
type Munition struct {
	Lethality       float64 `json:"lethality"`
	MaxQuantity     int     `json:"maxQuantity"`
	CurrentQuantity int     `json:"currentQuantity"`
}

// Aircraft is a mobile combatant.
type Aircraft struct {
	UnitBase
	Movement
	Weapons []*WeaponStockpile `json:"weapons"`
}

func (a *Aircraft) Kind() Kind { return KindAircraft }
func (a *Aircraft) Mobility() *Movement { return &a.Movement }
func (a *Aircraft) Stockpiles() *[]*WeaponStockpile { return &a.Weapons }

// Ship is a mobile combatant that also carries aircraft.
type Ship struct {
	UnitBase
	Movement
	Weapons  []*WeaponStockpile `json:"weapons"`
	Aircraft []*Aircraft        `json:"aircraft"`
}

func (s *Ship) Kind() Kind { return KindShip }
func (s *Ship) Mobility() *Movement { return &s.Movement }
func (s *Ship) Stockpiles() *[]*WeaponStockpile { return &s.Weapons }
func (s *Ship) Embarked() *[]*Aircraft { return &s.Aircraft }

// Facility is a stationary combatant, for example a SAM site.
type Facility struct {
	UnitBase
	Range   float64            `json:"range"`
	Weapons []*WeaponStockpile `json:"weapons"`
}

func (f *Facility) Kind() Kind { return KindFacility }
func (f *Facility) Stockpiles() *[]*WeaponStockpile { return &f.Weapons }

// Airbase is a stationary carrier without weapons of its own.
type Airbase struct {
	UnitBase
	Aircraft []*Aircraft `json:"aircraft"`
}

func (a *Airbase) Kind() Kind { return KindAirbase }
func (a *Airbase) Embarked() *[]*Aircraft { return &a.Aircraft }

// WeaponStockpile is an ammunition record on a combatant's weapons list. The
// kinematic fields describe the munition a launch spawns.
type WeaponStockpile struct {
	UnitBase
	Movement
	Munition
}

// Weapon is an in-flight munition homing on TargetID.
type Weapon struct {
	UnitBase
	Movement
	Munition
	TargetID string `json:"targetId"`
}

func (w *Weapon) Kind() Kind { return KindWeapon }
func (w *Weapon) Mobility() *Movement { return &w.Movement }

// Loadout parameterizes a sample weapon stockpile.
type Loadout struct {
	Quantity  int
	Lethality float64
}

// Loadouts are the starter stockpiles per combatant kind.
type Loadouts struct {
	Aircraft Loadout
	Facility Loadout
	Ship     Loadout
}

// DefaultLoadouts returns the stock quantities and lethalities.
func DefaultLoadouts() Loadouts {
	return Loadouts{
		Aircraft: Loadout{Quantity: 10, Lethality: 0.25},
		Facility: Loadout{Quantity: 30, Lethality: 0.1},
		Ship:     Loadout{Quantity: 300, Lethality: 0.15},
	}
}

// For returns the loadout used for the given kind.
func (l Loadouts) For(k Kind) Loadout {
	switch k {
	case KindFacility:
		return l.Facility
	case KindShip:
		return l.Ship
	default:
		return l.Aircraft
	}
}

// NewSampleWeapon builds the generic stockpile entry handed to new units.
func NewSampleWeapon(sideName, sideColor string, l Loadout) *WeaponStockpile {
	return &WeaponStockpile{
		UnitBase: UnitBase{
			ID:        uuid.New().String(),
			Name:      "Sample Weapon",
			SideName:  sideName,
			ClassName: "Sample Weapon",
			Altitude:  10000,
			SideColor: sideColor,
		},
		Movement: Movement{
			Heading:     90,
			Speed:       1000,
			CurrentFuel: 5000,
			MaxFuel:     5000,
			FuelRate:    5000,
			Range:       100,
			Route:       []Waypoint{},
		},
		Munition: Munition{
			Lethality:       l.Lethality,
			MaxQuantity:     l.Quantity,
			CurrentQuantity: l.Quantity,
		},
	}
}
