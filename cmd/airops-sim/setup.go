package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"airops-sim/internal/config"
	"airops-sim/internal/game"
	"airops-sim/internal/logging"
	"airops-sim/internal/scenario"
)

// commonFlags are shared by the commands that build a game.
type commonFlags struct {
	configPath string
	schemaPath string
	scenario   string
	logFormat  string
}

func (f *commonFlags) loadConfig() (*config.SimulationConfig, error) {
	cfg := config.Default()
	if f.configPath != "" {
		if _, err := os.Stat(f.configPath); err == nil {
			cfg, err = config.Load(f.configPath, f.schemaPath)
			if err != nil {
				return nil, fmt.Errorf("config load failed: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}
	if f.scenario != "" {
		cfg.ScenarioFile = f.scenario
	}
	return cfg, nil
}

func (f *commonFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", "config/simulation.yaml", "Path to simulation configuration YAML")
	cmd.Flags().StringVar(&f.schemaPath, "schema", "schemas/simulation.cue", "Path to CUE schema file")
	cmd.Flags().StringVar(&f.scenario, "scenario", "", "Scenario export to load instead of the built-in default")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "text", "Log format: text or json")
}

func newLogger(cfg *config.SimulationConfig, w io.Writer, format string) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.NewWriter(w, level, format), nil
}

// newGame builds a game from the configured scenario file or the built-in default.
func newGame(cfg *config.SimulationConfig, log *slog.Logger) (*game.Game, error) {
	sc := scenario.NewDefault(game.LoadoutsFromConfig(cfg.Loadouts))
	g := game.New(sc, cfg, game.WithLogger(log))
	if cfg.ScenarioFile == "" {
		return g, nil
	}
	data, err := os.ReadFile(cfg.ScenarioFile)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	if err := g.LoadScenario(data); err != nil {
		return nil, err
	}
	if cfg.Side != "" {
		g.CurrentSideName = cfg.Side
	}
	return g, nil
}

// tickInterval applies the TICK_INTERVAL override to the configured interval.
func tickInterval(cfg *config.SimulationConfig, flagValue time.Duration) (time.Duration, error) {
	d := cfg.TickInterval
	if flagValue > 0 {
		d = flagValue
	}
	if envTick := os.Getenv("TICK_INTERVAL"); envTick != "" {
		parsed, err := time.ParseDuration(envTick)
		if err != nil {
			return 0, fmt.Errorf("invalid TICK_INTERVAL: %w", err)
		}
		d = parsed
	}
	return d, nil
}
