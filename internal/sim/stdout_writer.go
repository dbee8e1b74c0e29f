// Writer implementation printing unit and engagement rows to STDOUT
package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"airops-sim/internal/config"
	"airops-sim/internal/engagement"
	"airops-sim/internal/telemetry"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorWhite   = "\x1b[37m"
	colorGray    = "\x1b[90m"
)

// StdoutWriter prints rows as JSON lines, or as colorized text when
// stdout is a terminal.
type StdoutWriter struct {
	cfg      *config.SimulationConfig
	out      io.Writer
	colorize bool
	once     sync.Once
	mu       sync.Mutex
}

// NewStdoutWriter creates a StdoutWriter writing to os.Stdout.
func NewStdoutWriter(cfg *config.SimulationConfig) *StdoutWriter {
	return &StdoutWriter{
		cfg:      cfg,
		out:      os.Stdout,
		colorize: term.IsTerminal(int(os.Stdout.Fd())),
	}
}

// sideColor maps a side name such as BLUE or red to an ANSI code.
func sideColor(name string) string {
	switch strings.ToLower(name) {
	case "blue":
		return colorBlue
	case "red":
		return colorRed
	case "green":
		return colorGreen
	case "yellow":
		return colorYellow
	}
	return colorWhite
}

func outcomeColor(outcome string) string {
	switch engagement.Outcome(outcome) {
	case engagement.Hit:
		return colorRed
	case engagement.Launched:
		return colorYellow
	case engagement.Tracking:
		return colorCyan
	}
	return colorGray
}

func (w *StdoutWriter) printOverview() {
	if w.cfg == nil {
		return
	}
	fmt.Fprintln(w.out, "Simulation Configuration:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Tick Interval:\t%s\n", w.cfg.TickInterval)
	fmt.Fprintf(tw, "Time Compressions:\t%v\n", w.cfg.TimeCompressions)
	fmt.Fprintf(tw, "Seed:\t%d\n", w.cfg.Seed)
	fmt.Fprintf(tw, "Facility Track Caps:\t%d aircraft / %d weapons\n", w.cfg.AutoDefense.FacilityVsAircraft, w.cfg.AutoDefense.FacilityVsWeapon)
	fmt.Fprintf(tw, "Ship Track Caps:\t%d aircraft / %d weapons\n", w.cfg.AutoDefense.ShipVsAircraft, w.cfg.AutoDefense.ShipVsWeapon)
	tw.Flush()

	fmt.Fprintln(w.out, "\nLoadouts:")
	tw = tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Kind\tQuantity\tLethality\n")
	fmt.Fprintf(tw, "aircraft\t%d\t%.2f\n", w.cfg.Loadouts.Aircraft.Quantity, w.cfg.Loadouts.Aircraft.Lethality)
	fmt.Fprintf(tw, "facility\t%d\t%.2f\n", w.cfg.Loadouts.Facility.Quantity, w.cfg.Loadouts.Facility.Lethality)
	fmt.Fprintf(tw, "ship\t%d\t%.2f\n", w.cfg.Loadouts.Ship.Quantity, w.cfg.Loadouts.Ship.Lethality)
	tw.Flush()
	fmt.Fprintln(w.out)
}

func (w *StdoutWriter) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

// formatUnit renders a unit row as a colorized line.
func formatUnit(row telemetry.UnitRow, color string) string {
	line := fmt.Sprintf("%s[%s]%s %st=%d%s %s%s=%s%s %sname=%s%s %slat=%.4f%s %slon=%.4f%s %shdg=%.1f%s %sspd=%.0f%s %sfuel=%.0f%s %sammo=%d%s",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		colorGray, row.SimTime, colorReset,
		color, row.Kind, row.UnitID, colorReset,
		colorWhite, row.Name, colorReset,
		colorGreen, row.Lat, colorReset,
		colorYellow, row.Lon, colorReset,
		colorCyan, row.Heading, colorReset,
		colorYellow, row.Speed, colorReset,
		colorMagenta, row.Fuel, colorReset,
		colorBlue, row.Ammunition, colorReset,
	)
	if row.TargetID != "" {
		line += fmt.Sprintf(" %starget=%s%s", colorRed, row.TargetID, colorReset)
	}
	return line
}

// formatEngagement renders an engagement row as a colorized line.
func formatEngagement(row telemetry.EngagementRow) string {
	return fmt.Sprintf("%s[%s]%s %s%s%s weapon=%s shooter=%s target=%s side=%s lat=%.4f lon=%.4f roll=%.3f",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		outcomeColor(row.Outcome), row.Outcome, colorReset,
		row.WeaponID, row.ShooterID, row.TargetID, row.SideName,
		row.Lat, row.Lon, row.Roll)
}

// formatState renders a state row as a colorized line.
func formatState(row telemetry.TickStateRow) string {
	return fmt.Sprintf("%sSTATE%s %st=%d%s %sside=%s%s %sx%d%s %saircraft=%d%s %sships=%d%s %sfacilities=%d%s %sweapons=%d%s %slaunches=%d%s %shits=%d%s",
		colorBlue, colorReset,
		colorGray, row.SimTime, colorReset,
		colorWhite, row.CurrentSide, colorReset,
		colorYellow, row.TimeCompression, colorReset,
		colorGreen, row.Aircraft, colorReset,
		colorCyan, row.Ships, colorReset,
		colorMagenta, row.Facilities, colorReset,
		colorYellow, row.Weapons, colorReset,
		colorYellow, row.Launches, colorReset,
		colorRed, row.Hits, colorReset)
}

// Write outputs a single unit row.
func (w *StdoutWriter) Write(row telemetry.UnitRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.colorize {
		return w.writeJSON(row)
	}
	w.once.Do(w.printOverview)
	_, err := fmt.Fprintln(w.out, formatUnit(row, sideColor(row.SideName)))
	return err
}

// WriteBatch outputs multiple unit rows.
func (w *StdoutWriter) WriteBatch(rows []telemetry.UnitRow) error {
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteEngagement prints a launch or resolution event.
func (w *StdoutWriter) WriteEngagement(row telemetry.EngagementRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.colorize {
		return w.writeJSON(row)
	}
	w.once.Do(w.printOverview)
	_, err := fmt.Fprintln(w.out, formatEngagement(row))
	return err
}

// WriteState prints the per-tick totals.
func (w *StdoutWriter) WriteState(row telemetry.TickStateRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.colorize {
		return w.writeJSON(row)
	}
	w.once.Do(w.printOverview)
	_, err := fmt.Fprintln(w.out, formatState(row))
	return err
}
