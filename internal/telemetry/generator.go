package telemetry

import (
	"time"

	"airops-sim/internal/engagement"
	"airops-sim/internal/scenario"
)

// Generator turns scenario snapshots into rows stamped with simulated time.
type Generator struct {
	epoch time.Time
}

// NewGenerator creates a generator. Scenarios without a start time are
// anchored at epoch.
func NewGenerator(epoch time.Time) *Generator {
	return &Generator{epoch: epoch.UTC()}
}

// Timestamp maps the scenario clock to wall time.
func (g *Generator) Timestamp(s *scenario.Scenario) time.Time {
	base := g.epoch
	if s.StartTime > 0 {
		base = time.Unix(s.StartTime, 0).UTC()
	}
	return base.Add(time.Duration(s.CurrentTime) * time.Second)
}

func ammunition(weapons []*scenario.WeaponStockpile) int {
	n := 0
	for _, w := range weapons {
		n += w.CurrentQuantity
	}
	return n
}

func (g *Generator) unitRow(s *scenario.Scenario, u scenario.Unit, ts time.Time) UnitRow {
	b := u.Base()
	row := UnitRow{
		ScenarioID: s.ID,
		UnitID:     b.ID,
		Kind:       string(u.Kind()),
		SideName:   b.SideName,
		Name:       b.Name,
		ClassName:  b.ClassName,
		Lat:        b.Latitude,
		Lon:        b.Longitude,
		Alt:        b.Altitude,
		SimTime:    s.CurrentTime,
		Timestamp:  ts,
	}
	if m, ok := u.(scenario.Mobile); ok {
		mv := m.Mobility()
		row.Heading = mv.Heading
		row.Speed = mv.Speed
		row.Fuel = mv.CurrentFuel
	}
	switch v := u.(type) {
	case scenario.Combatant:
		row.Ammunition = ammunition(*v.Stockpiles())
	case *scenario.Weapon:
		row.Ammunition = v.CurrentQuantity
		row.TargetID = v.TargetID
	}
	return row
}

// UnitRows returns one row per top-level unit in collection order.
func (g *Generator) UnitRows(s *scenario.Scenario) []UnitRow {
	ts := g.Timestamp(s)
	rows := make([]UnitRow, 0, s.UnitCount())
	for _, a := range s.Aircraft {
		rows = append(rows, g.unitRow(s, a, ts))
	}
	for _, sh := range s.Ships {
		rows = append(rows, g.unitRow(s, sh, ts))
	}
	for _, f := range s.Facilities {
		rows = append(rows, g.unitRow(s, f, ts))
	}
	for _, ab := range s.Airbases {
		rows = append(rows, g.unitRow(s, ab, ts))
	}
	for _, w := range s.Weapons {
		rows = append(rows, g.unitRow(s, w, ts))
	}
	return rows
}

// EngagementRows converts the events of a tick.
func (g *Generator) EngagementRows(s *scenario.Scenario, events []engagement.Event) []EngagementRow {
	ts := g.Timestamp(s)
	rows := make([]EngagementRow, 0, len(events))
	for _, ev := range events {
		rows = append(rows, EngagementRow{
			ScenarioID: s.ID,
			WeaponID:   ev.WeaponID,
			Outcome:    string(ev.Outcome),
			ShooterID:  ev.ShooterID,
			TargetID:   ev.TargetID,
			SideName:   ev.SideName,
			Lat:        ev.Latitude,
			Lon:        ev.Longitude,
			Roll:       ev.Roll,
			SimTime:    s.CurrentTime,
			Timestamp:  ts,
		})
	}
	return rows
}

// StateRow summarizes the scenario after a tick.
func (g *Generator) StateRow(s *scenario.Scenario, currentSide string, paused bool, events []engagement.Event) TickStateRow {
	row := TickStateRow{
		ScenarioID:      s.ID,
		CurrentSide:     currentSide,
		SimTime:         s.CurrentTime,
		TimeCompression: s.TimeCompression,
		Aircraft:        len(s.Aircraft),
		Ships:           len(s.Ships),
		Facilities:      len(s.Facilities),
		Airbases:        len(s.Airbases),
		Weapons:         len(s.Weapons),
		Paused:          paused,
		Timestamp:       g.Timestamp(s),
	}
	for _, ev := range events {
		switch ev.Outcome {
		case engagement.Launched:
			row.Launches++
		case engagement.Hit:
			row.Hits++
		}
	}
	return row
}
