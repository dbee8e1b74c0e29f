package scenario

import (
	"encoding/json"
	"fmt"
)

// Decode parses a scenario document. Combatants saved without a weapons list
// receive the starter stockpile from loadouts, and missing route or aircraft
// lists become empty. Nothing is returned on a parse failure or a duplicate id.
func Decode(data []byte, loadouts Loadouts) (*Scenario, error) {
	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	s.Normalize(loadouts)
	if err := s.Reindex(); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	return &s, nil
}

// Encode renders the scenario as JSON.
func Encode(s *Scenario) ([]byte, error) {
	return json.Marshal(s)
}

// Normalize fills the defaults a saved scenario may omit.
func (s *Scenario) Normalize(loadouts Loadouts) {
	if s.Sides == nil {
		s.Sides = []*Side{}
	}
	if s.TimeCompression <= 0 {
		s.TimeCompression = 1
	}
	s.Aircraft = nonNil(s.Aircraft)
	s.Ships = nonNil(s.Ships)
	s.Facilities = nonNil(s.Facilities)
	s.Airbases = nonNil(s.Airbases)
	s.Weapons = nonNil(s.Weapons)

	for _, a := range s.Aircraft {
		s.normalizeAircraft(a, loadouts)
	}
	for _, sh := range s.Ships {
		sh.Route = nonNil(sh.Route)
		if sh.Weapons == nil {
			sh.Weapons = []*WeaponStockpile{NewSampleWeapon(sh.SideName, s.GetSideColor(sh.SideName), loadouts.Ship)}
		}
		sh.Aircraft = nonNil(sh.Aircraft)
		for _, a := range sh.Aircraft {
			s.normalizeAircraft(a, loadouts)
		}
	}
	for _, f := range s.Facilities {
		if f.Weapons == nil {
			f.Weapons = []*WeaponStockpile{NewSampleWeapon(f.SideName, s.GetSideColor(f.SideName), loadouts.Facility)}
		}
	}
	for _, ab := range s.Airbases {
		ab.Aircraft = nonNil(ab.Aircraft)
		for _, a := range ab.Aircraft {
			s.normalizeAircraft(a, loadouts)
		}
	}
	for _, w := range s.Weapons {
		w.Route = nonNil(w.Route)
	}
}

func (s *Scenario) normalizeAircraft(a *Aircraft, loadouts Loadouts) {
	a.Route = nonNil(a.Route)
	if a.Weapons == nil {
		a.Weapons = []*WeaponStockpile{NewSampleWeapon(a.SideName, s.GetSideColor(a.SideName), loadouts.Aircraft)}
	}
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
