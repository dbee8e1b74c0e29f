// Package scenario holds the authoritative state of one simulated scenario.
package scenario

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrDuplicateID is returned when a unit id is already used anywhere in
	// the scenario, including aircraft parked on carriers.
	ErrDuplicateID = errors.New("duplicate unit id")
	// ErrUnknownCarrier is returned when an airbase or ship id does not resolve.
	ErrUnknownCarrier = errors.New("unknown carrier")
)

// Scenario aggregates sides and every live unit. CurrentTime counts ticks
// (simulated seconds). The exported collections are ordered and are what the
// JSON export contains; mutate them through the Scenario methods so the id
// index stays consistent.
type Scenario struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	StartTime       int64       `json:"startTime"`
	CurrentTime     int64       `json:"currentTime"`
	Duration        int64       `json:"duration"`
	Sides           []*Side     `json:"sides"`
	Aircraft        []*Aircraft `json:"aircraft"`
	Ships           []*Ship     `json:"ships"`
	Facilities      []*Facility `json:"facilities"`
	Airbases        []*Airbase  `json:"airbases"`
	Weapons         []*Weapon   `json:"weapons"`
	TimeCompression int         `json:"timeCompression"`

	index map[string]location
}

// location records which collection a unit id belongs to. carrierID is set for
// aircraft parked on an airbase or ship.
type location struct {
	unit      Unit
	carrierID string
}

// New creates an empty scenario with the given sides.
func New(id, name string, sides ...*Side) *Scenario {
	return &Scenario{
		ID:              id,
		Name:            name,
		Sides:           append([]*Side{}, sides...),
		Aircraft:        []*Aircraft{},
		Ships:           []*Ship{},
		Facilities:      []*Facility{},
		Airbases:        []*Airbase{},
		Weapons:         []*Weapon{},
		TimeCompression: 1,
		index:           make(map[string]location),
	}
}

// Reindex rebuilds the id index from the collections and reports the first
// id that appears more than once.
func (s *Scenario) Reindex() error {
	idx := make(map[string]location)
	add := func(u Unit, carrierID string) error {
		id := u.Base().ID
		if _, ok := idx[id]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
		idx[id] = location{unit: u, carrierID: carrierID}
		return nil
	}
	for _, a := range s.Aircraft {
		if err := add(a, ""); err != nil {
			return err
		}
	}
	for _, sh := range s.Ships {
		if err := add(sh, ""); err != nil {
			return err
		}
		for _, a := range sh.Aircraft {
			if err := add(a, sh.ID); err != nil {
				return err
			}
		}
	}
	for _, f := range s.Facilities {
		if err := add(f, ""); err != nil {
			return err
		}
	}
	for _, ab := range s.Airbases {
		if err := add(ab, ""); err != nil {
			return err
		}
		for _, a := range ab.Aircraft {
			if err := add(a, ab.ID); err != nil {
				return err
			}
		}
	}
	for _, w := range s.Weapons {
		if err := add(w, ""); err != nil {
			return err
		}
	}
	s.index = idx
	return nil
}

func (s *Scenario) ensureIndex() {
	if s.index == nil {
		// a duplicate leaves the first occurrence indexed
		_ = s.Reindex()
		if s.index == nil {
			s.index = make(map[string]location)
		}
	}
}

func (s *Scenario) lookup(id string, kind Kind) Unit {
	s.ensureIndex()
	loc, ok := s.index[id]
	if !ok || loc.carrierID != "" || loc.unit.Kind() != kind {
		return nil
	}
	return loc.unit
}

// Contains reports whether id is used by any unit, parked aircraft included.
func (s *Scenario) Contains(id string) bool {
	s.ensureIndex()
	_, ok := s.index[id]
	return ok
}

// GetAircraft returns a top-level aircraft. Parked aircraft are not found.
func (s *Scenario) GetAircraft(id string) *Aircraft {
	if u, ok := s.lookup(id, KindAircraft).(*Aircraft); ok {
		return u
	}
	return nil
}

// GetShip returns a ship by id.
func (s *Scenario) GetShip(id string) *Ship {
	if u, ok := s.lookup(id, KindShip).(*Ship); ok {
		return u
	}
	return nil
}

// GetFacility returns a facility by id.
func (s *Scenario) GetFacility(id string) *Facility {
	if u, ok := s.lookup(id, KindFacility).(*Facility); ok {
		return u
	}
	return nil
}

// GetAirbase returns an airbase by id.
func (s *Scenario) GetAirbase(id string) *Airbase {
	if u, ok := s.lookup(id, KindAirbase).(*Airbase); ok {
		return u
	}
	return nil
}

// GetWeapon returns an in-flight weapon by id.
func (s *Scenario) GetWeapon(id string) *Weapon {
	if u, ok := s.lookup(id, KindWeapon).(*Weapon); ok {
		return u
	}
	return nil
}

// GetUnit resolves id across every top-level collection.
func (s *Scenario) GetUnit(id string) Unit {
	s.ensureIndex()
	loc, ok := s.index[id]
	if !ok || loc.carrierID != "" {
		return nil
	}
	return loc.unit
}

// GetCarrier resolves an airbase or ship id.
func (s *Scenario) GetCarrier(id string) Carrier {
	if ab := s.GetAirbase(id); ab != nil {
		return ab
	}
	if sh := s.GetShip(id); sh != nil {
		return sh
	}
	return nil
}

// GetSide returns the side with the given name.
func (s *Scenario) GetSide(name string) *Side {
	for _, side := range s.Sides {
		if side.Name == name {
			return side
		}
	}
	return nil
}

// GetSideColor returns the side colour, or DefaultSideColor for unknown sides.
func (s *Scenario) GetSideColor(name string) string {
	if side := s.GetSide(name); side != nil && side.SideColor != "" {
		return side.SideColor
	}
	return DefaultSideColor
}

func (s *Scenario) register(u Unit, carrierID string) error {
	s.ensureIndex()
	id := u.Base().ID
	if _, ok := s.index[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	if c, ok := u.(Carrier); ok {
		for _, a := range *c.Embarked() {
			if _, dup := s.index[a.ID]; dup || a.ID == id {
				return fmt.Errorf("%w: %s", ErrDuplicateID, a.ID)
			}
		}
		for _, a := range *c.Embarked() {
			s.index[a.ID] = location{unit: a, carrierID: id}
		}
	}
	s.index[id] = location{unit: u, carrierID: carrierID}
	return nil
}

// AddAircraft appends a top-level aircraft.
func (s *Scenario) AddAircraft(a *Aircraft) error {
	if err := s.register(a, ""); err != nil {
		return err
	}
	s.Aircraft = append(s.Aircraft, a)
	return nil
}

// AddShip appends a ship together with any aircraft it already carries.
func (s *Scenario) AddShip(sh *Ship) error {
	if err := s.register(sh, ""); err != nil {
		return err
	}
	s.Ships = append(s.Ships, sh)
	return nil
}

// AddFacility appends a facility.
func (s *Scenario) AddFacility(f *Facility) error {
	if err := s.register(f, ""); err != nil {
		return err
	}
	s.Facilities = append(s.Facilities, f)
	return nil
}

// AddAirbase appends an airbase together with its parked aircraft.
func (s *Scenario) AddAirbase(ab *Airbase) error {
	if err := s.register(ab, ""); err != nil {
		return err
	}
	s.Airbases = append(s.Airbases, ab)
	return nil
}

// AddWeapon appends an in-flight weapon.
func (s *Scenario) AddWeapon(w *Weapon) error {
	if err := s.register(w, ""); err != nil {
		return err
	}
	s.Weapons = append(s.Weapons, w)
	return nil
}

// Embark parks an aircraft on the carrier with the given id.
func (s *Scenario) Embark(carrierID string, a *Aircraft) error {
	c := s.GetCarrier(carrierID)
	if c == nil {
		return fmt.Errorf("%w: %s", ErrUnknownCarrier, carrierID)
	}
	if err := s.register(a, carrierID); err != nil {
		return err
	}
	list := c.Embarked()
	*list = append(*list, a)
	return nil
}

// Launch moves the most recently parked aircraft of a carrier to the top-level
// aircraft collection. It returns nil when the carrier is unknown or empty.
func (s *Scenario) Launch(carrierID string) *Aircraft {
	c := s.GetCarrier(carrierID)
	if c == nil {
		return nil
	}
	list := c.Embarked()
	n := len(*list)
	if n == 0 {
		return nil
	}
	a := (*list)[n-1]
	*list = (*list)[:n-1]
	s.index[a.ID] = location{unit: a}
	s.Aircraft = append(s.Aircraft, a)
	return a
}

func removeByID[T Unit](list []T, id string) ([]T, bool) {
	i := slices.IndexFunc(list, func(u T) bool { return u.Base().ID == id })
	if i < 0 {
		return list, false
	}
	return slices.Delete(list, i, i+1), true
}

func (s *Scenario) forget(u Unit) {
	delete(s.index, u.Base().ID)
	if c, ok := u.(Carrier); ok {
		for _, a := range *c.Embarked() {
			delete(s.index, a.ID)
		}
	}
}

// RemoveAircraft removes a top-level aircraft. Parked aircraft are untouched.
func (s *Scenario) RemoveAircraft(id string) bool {
	a := s.GetAircraft(id)
	if a == nil {
		return false
	}
	s.Aircraft, _ = removeByID(s.Aircraft, id)
	s.forget(a)
	return true
}

// RemoveShip removes a ship and the aircraft it carries.
func (s *Scenario) RemoveShip(id string) bool {
	sh := s.GetShip(id)
	if sh == nil {
		return false
	}
	s.Ships, _ = removeByID(s.Ships, id)
	s.forget(sh)
	return true
}

// RemoveFacility removes a facility.
func (s *Scenario) RemoveFacility(id string) bool {
	f := s.GetFacility(id)
	if f == nil {
		return false
	}
	s.Facilities, _ = removeByID(s.Facilities, id)
	s.forget(f)
	return true
}

// RemoveAirbase removes an airbase and the aircraft parked on it.
func (s *Scenario) RemoveAirbase(id string) bool {
	ab := s.GetAirbase(id)
	if ab == nil {
		return false
	}
	s.Airbases, _ = removeByID(s.Airbases, id)
	s.forget(ab)
	return true
}

// RemoveWeapon removes an in-flight weapon.
func (s *Scenario) RemoveWeapon(id string) bool {
	w := s.GetWeapon(id)
	if w == nil {
		return false
	}
	s.Weapons, _ = removeByID(s.Weapons, id)
	s.forget(w)
	return true
}

// RemoveUnit removes a top-level unit of any kind.
func (s *Scenario) RemoveUnit(id string) bool {
	u := s.GetUnit(id)
	if u == nil {
		return false
	}
	switch u.Kind() {
	case KindAircraft:
		return s.RemoveAircraft(id)
	case KindShip:
		return s.RemoveShip(id)
	case KindFacility:
		return s.RemoveFacility(id)
	case KindAirbase:
		return s.RemoveAirbase(id)
	case KindWeapon:
		return s.RemoveWeapon(id)
	}
	return false
}

// UpdateAircraft edits the card fields of an aircraft.
func (s *Scenario) UpdateAircraft(id, name, className string, weaponQuantity int) bool {
	a := s.GetAircraft(id)
	if a == nil {
		return false
	}
	a.Name = name
	a.ClassName = className
	setQuantity(a.Weapons, weaponQuantity)
	return true
}

// UpdateFacility edits the card fields of a facility.
func (s *Scenario) UpdateFacility(id, name, className string, rng float64, weaponQuantity int) bool {
	f := s.GetFacility(id)
	if f == nil {
		return false
	}
	f.Name = name
	f.ClassName = className
	f.Range = rng
	setQuantity(f.Weapons, weaponQuantity)
	return true
}

// setQuantity sets the first stockpile's count, raising the maximum with it.
func setQuantity(weapons []*WeaponStockpile, qty int) {
	if len(weapons) == 0 || qty < 0 {
		return
	}
	w := weapons[0]
	w.CurrentQuantity = qty
	if qty > w.MaxQuantity {
		w.MaxQuantity = qty
	}
}

// UnitCount returns the number of top-level units.
func (s *Scenario) UnitCount() int {
	return len(s.Aircraft) + len(s.Ships) + len(s.Facilities) + len(s.Airbases) + len(s.Weapons)
}
