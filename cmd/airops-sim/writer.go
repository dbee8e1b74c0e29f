package main

import (
	"log/slog"
	"os"

	"airops-sim/internal/config"
	"airops-sim/internal/sim"
)

// writerOptions selects the outputs of a run.
type writerOptions struct {
	printOnly bool
	tui       bool
	headless  bool
	logFile   string
}

// output is a unit writer that may also take engagement and state rows.
type output interface {
	sim.TelemetryWriter
	sim.EngagementWriter
	sim.StateWriter
}

// newWriters sets up the writers based on flags and env vars. The returned
// MultiWriter must be closed by the caller.
func newWriters(cfg *config.SimulationConfig, opts writerOptions, log *slog.Logger) (*sim.MultiWriter, error) {
	base, err := baseWriter(cfg, opts, log)
	if err != nil {
		return nil, err
	}
	var outs []output
	if base != nil {
		outs = append(outs, base)
	}
	if opts.logFile != "" {
		fw, err := sim.NewFileWriter(opts.logFile, opts.logFile+".engagements", opts.logFile+".state")
		if err != nil {
			if c, ok := base.(interface{ Close() error }); ok {
				_ = c.Close()
			}
			return nil, err
		}
		outs = append(outs, fw)
	}
	var (
		tws []sim.TelemetryWriter
		ews []sim.EngagementWriter
		sws []sim.StateWriter
	)
	for _, o := range outs {
		tws = append(tws, o)
		ews = append(ews, o)
		sws = append(sws, o)
	}
	return sim.NewMultiWriter(tws, ews, sws), nil
}

// baseWriter chooses the primary writer: the TUI, STDOUT or GreptimeDB.
// Headless runs without a GreptimeDB endpoint get no primary writer.
func baseWriter(cfg *config.SimulationConfig, opts writerOptions, log *slog.Logger) (output, error) {
	if opts.tui {
		return sim.NewTUIWriter(cfg), nil
	}
	endpoint := os.Getenv("GREPTIMEDB_ENDPOINT")
	if opts.printOnly || endpoint == "" {
		if opts.headless {
			return nil, nil
		}
		return sim.NewStdoutWriter(cfg), nil
	}
	database := os.Getenv("GREPTIMEDB_DATABASE")
	if database == "" {
		database = "public"
	}
	w, err := sim.NewGreptimeDBWriter(endpoint, database, log)
	if err != nil {
		return nil, err
	}
	return w, nil
}
