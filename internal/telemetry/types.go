// Telemetry rows with greptime tags
package telemetry

import (
	"os"
	"time"
)

// UnitRow is the state of one top-level unit after a tick.
type UnitRow struct {
	ScenarioID string    `json:"scenario_id"`         // TAG
	UnitID     string    `json:"unit_id"`             // TAG
	Kind       string    `json:"kind"`                // TAG
	SideName   string    `json:"side_name"`           // FIELD
	Name       string    `json:"name"`                // FIELD
	ClassName  string    `json:"class_name"`          // FIELD
	Lat        float64   `json:"lat"`                 // FIELD
	Lon        float64   `json:"lon"`                 // FIELD
	Alt        float64   `json:"alt"`                 // FIELD
	Heading    float64   `json:"heading"`             // FIELD
	Speed      float64   `json:"speed"`               // FIELD
	Fuel       float64   `json:"fuel"`                // FIELD
	Ammunition int       `json:"ammunition"`          // FIELD
	TargetID   string    `json:"target_id,omitempty"` // FIELD
	SimTime    int64     `json:"sim_time"`            // FIELD
	Timestamp  time.Time `json:"ts"`                  // TIME INDEX
}

// EngagementRow is one weapon launch or resolution.
type EngagementRow struct {
	ScenarioID string    `json:"scenario_id"` // TAG
	WeaponID   string    `json:"weapon_id"`   // TAG
	Outcome    string    `json:"outcome"`     // FIELD
	ShooterID  string    `json:"shooter_id"`  // FIELD
	TargetID   string    `json:"target_id"`   // FIELD
	SideName   string    `json:"side_name"`   // FIELD
	Lat        float64   `json:"lat"`         // FIELD
	Lon        float64   `json:"lon"`         // FIELD
	Roll       float64   `json:"roll"`        // FIELD
	SimTime    int64     `json:"sim_time"`    // FIELD
	Timestamp  time.Time `json:"ts"`          // TIME INDEX
}

// TickStateRow captures per-tick scenario totals.
type TickStateRow struct {
	ScenarioID      string    `json:"scenario_id"` // TAG
	CurrentSide     string    `json:"current_side"`
	SimTime         int64     `json:"sim_time"`
	TimeCompression int       `json:"time_compression"`
	Aircraft        int       `json:"aircraft"`
	Ships           int       `json:"ships"`
	Facilities      int       `json:"facilities"`
	Airbases        int       `json:"airbases"`
	Weapons         int       `json:"weapons"`
	Launches        int       `json:"launches"`
	Hits            int       `json:"hits"`
	Paused          bool      `json:"paused"`
	Timestamp       time.Time `json:"ts"`
}

func envOr(key, def string) string {
	if env := os.Getenv(key); env != "" {
		return env
	}
	return def
}

// Table names default to unit_state, engagement_events and tick_state and can
// be overridden via GREPTIMEDB_UNIT_TABLE, GREPTIMEDB_ENGAGEMENT_TABLE and
// GREPTIMEDB_STATE_TABLE.
var (
	UnitTableName       = envOr("GREPTIMEDB_UNIT_TABLE", "unit_state")
	EngagementTableName = envOr("GREPTIMEDB_ENGAGEMENT_TABLE", "engagement_events")
	StateTableName      = envOr("GREPTIMEDB_STATE_TABLE", "tick_state")
)

func (UnitRow) TableName() string { return UnitTableName }

func (EngagementRow) TableName() string { return EngagementTableName }

func (TickStateRow) TableName() string { return StateTableName }
