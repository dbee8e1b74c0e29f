package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"airops-sim/internal/config"
	"airops-sim/internal/sim"
)

var (
	replayInput     string
	replaySpeed     float64
	replayPrintOnly bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a unit telemetry log file",
	Long:  "replay feeds unit rows from a JSONL log back into GreptimeDB or STDOUT.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		cfg := config.Default()
		log, err := newLogger(cfg, os.Stderr, "text")
		if err != nil {
			return err
		}
		mw, err := newWriters(cfg, writerOptions{printOnly: replayPrintOnly}, log)
		if err != nil {
			return err
		}
		defer mw.Close()
		return sim.ReplayLogFile(replayInput, mw, replaySpeed)
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to unit telemetry log file")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Print telemetry to STDOUT instead of writing to DB")
	_ = replayCmd.MarkFlagRequired("input")
}
