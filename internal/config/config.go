// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Loadout defines the starter weapon stockpile for one unit class.
type Loadout struct {
	Quantity  int     `yaml:"quantity"`
	Lethality float64 `yaml:"lethality"`
}

// Loadouts holds starter stockpiles per combatant kind.
type Loadouts struct {
	Aircraft Loadout `yaml:"aircraft"`
	Facility Loadout `yaml:"facility"`
	Ship     Loadout `yaml:"ship"`
}

// AutoDefense holds the track-count caps enforced before a defender launches
// another weapon at the same threat.
type AutoDefense struct {
	FacilityVsAircraft int `yaml:"facility_vs_aircraft"`
	FacilityVsWeapon   int `yaml:"facility_vs_weapon"`
	ShipVsAircraft     int `yaml:"ship_vs_aircraft"`
	ShipVsWeapon       int `yaml:"ship_vs_weapon"`
}

// SimulationConfig is the root configuration for the engine and its driver.
type SimulationConfig struct {
	ScenarioFile     string        `yaml:"scenario_file"`
	Side             string        `yaml:"side"`
	Seed             int64         `yaml:"seed"`
	LogLevel         string        `yaml:"log_level"`
	TickInterval     time.Duration `yaml:"tick_interval"`
	TimeCompressions []int         `yaml:"time_compressions"`
	AutoDefense      AutoDefense   `yaml:"auto_defense"`
	Loadouts         Loadouts      `yaml:"loadouts"`
}

// Default returns the configuration used when no file is given.
func Default() *SimulationConfig {
	cfg := &SimulationConfig{}
	cfg.applyDefaults()
	return cfg
}

func (c *SimulationConfig) applyDefaults() {
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	if len(c.TimeCompressions) == 0 {
		c.TimeCompressions = []int{1, 2, 4, 8, 16}
	}
	if c.AutoDefense == (AutoDefense{}) {
		c.AutoDefense = AutoDefense{
			FacilityVsAircraft: 10,
			FacilityVsWeapon:   5,
			ShipVsAircraft:     10,
			ShipVsWeapon:       10,
		}
	}
	if c.Loadouts.Aircraft == (Loadout{}) {
		c.Loadouts.Aircraft = Loadout{Quantity: 10, Lethality: 0.25}
	}
	if c.Loadouts.Facility == (Loadout{}) {
		c.Loadouts.Facility = Loadout{Quantity: 30, Lethality: 0.1}
	}
	if c.Loadouts.Ship == (Loadout{}) {
		c.Loadouts.Ship = Loadout{Quantity: 300, Lethality: 0.15}
	}
}

// Load loads YAML config and validates it against a CUE schema.
// An empty cueSchemaPath skips validation.
func Load(configPath, cueSchemaPath string) (*SimulationConfig, error) {
	if cueSchemaPath != "" {
		if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes and fills unset fields with defaults.
func Parse(data []byte) (*SimulationConfig, error) {
	var cfg SimulationConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}
