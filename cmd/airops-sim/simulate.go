package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"airops-sim/internal/admin"
	"airops-sim/internal/logging"
	"airops-sim/internal/sim"
)

var (
	simFlags     commonFlags
	simPrintOnly bool
	simTUI       bool
	simTick      time.Duration
	simLogFile   string
	simAdminAddr string
	simPlay      bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the scenario in real time",
	Long:  "simulate ticks the scenario on a timer, writes telemetry and serves the admin API.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSimulation(cmd.Context(), writerOptions{printOnly: simPrintOnly, tui: simTUI, logFile: simLogFile}, simAdminAddr, simPlay)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the admin API without printing telemetry",
	Long:  "serve runs a paused scenario driven only through the admin API and websocket.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSimulation(cmd.Context(), writerOptions{headless: true, logFile: simLogFile}, simAdminAddr, false)
	},
}

func init() {
	for _, c := range []*cobra.Command{simulateCmd, serveCmd} {
		simFlags.register(c)
		c.Flags().DurationVar(&simTick, "tick", 0, "Tick interval at time compression 1 (e.g. 500ms, 2s)")
		c.Flags().StringVar(&simLogFile, "log-file", "", "Path to export unit/engagement/state logs (JSONL)")
		c.Flags().StringVar(&simAdminAddr, "admin-addr", ":8080", "Admin API listen address; empty disables it")
	}
	simulateCmd.Flags().BoolVar(&simPrintOnly, "print-only", false, "Print telemetry to STDOUT instead of writing to DB")
	simulateCmd.Flags().BoolVar(&simTUI, "tui", false, "Render telemetry in an interactive terminal UI")
	simulateCmd.Flags().BoolVar(&simPlay, "play", false, "Start ticking immediately instead of paused")
}

func runSimulation(parent context.Context, opts writerOptions, adminAddr string, play bool) error {
	cfg, err := simFlags.loadConfig()
	if err != nil {
		return err
	}
	var logOut io.Writer = os.Stdout
	if opts.tui {
		logOut = io.Discard
	}
	log, err := newLogger(cfg, logOut, simFlags.logFormat)
	if err != nil {
		return err
	}
	tick, err := tickInterval(cfg, simTick)
	if err != nil {
		return err
	}
	g, err := newGame(cfg, log)
	if err != nil {
		return err
	}
	g.ScenarioPaused = !play

	mw, err := newWriters(cfg, opts, log)
	if err != nil {
		return err
	}
	defer mw.Close()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logging.NewContext(ctx, log)

	simulator := sim.NewSimulator(g, mw, mw, mw, tick)
	mw.SetCommander(func(line string) error { return simulator.RunCommand(ctx, line) })

	if adminAddr != "" {
		srv := admin.NewServer(simulator, log)
		go func() {
			if err := srv.Start(ctx, adminAddr, mw); err != nil {
				log.Error("admin server failed", "err", err)
				stop()
			}
		}()
	}

	simulator.Run(ctx)
	log.Info("simulation stopped")
	return nil
}
