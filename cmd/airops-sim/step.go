package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"airops-sim/internal/logging"
	"airops-sim/internal/sim"
)

var (
	stepFlags   commonFlags
	stepCount   int
	stepLogFile string
	stepOutput  string
)

var stepCmd = &cobra.Command{
	Use:   "step",
	Short: "Advance the scenario a number of ticks and export it",
	Long:  "step runs N ticks without waiting and writes the resulting export document.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if stepCount < 0 {
			return fmt.Errorf("ticks must be non-negative")
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cfg, err := stepFlags.loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg, os.Stderr, stepFlags.logFormat)
		if err != nil {
			return err
		}
		g, err := newGame(cfg, log)
		if err != nil {
			return err
		}
		mw, err := newWriters(cfg, writerOptions{headless: true, logFile: stepLogFile}, log)
		if err != nil {
			return err
		}
		defer mw.Close()

		ctx = logging.NewContext(ctx, log)
		simulator := sim.NewSimulator(g, mw, mw, mw, cfg.TickInterval)
		for i := 0; i < stepCount; i++ {
			if err := simulator.Step(ctx); err != nil {
				return err
			}
		}
		data, err := simulator.Export(ctx)
		if err != nil {
			return err
		}
		if stepOutput == "" || stepOutput == "-" {
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		}
		return os.WriteFile(stepOutput, data, 0o644)
	},
}

func init() {
	stepFlags.register(stepCmd)
	stepCmd.Flags().IntVarP(&stepCount, "ticks", "n", 1, "Number of ticks to run")
	stepCmd.Flags().StringVar(&stepLogFile, "log-file", "", "Path to export unit/engagement/state logs (JSONL)")
	stepCmd.Flags().StringVarP(&stepOutput, "output", "o", "", "Write the export document to this file instead of STDOUT")
}
