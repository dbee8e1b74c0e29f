package sim

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"time"

	"airops-sim/internal/geo"
	"airops-sim/internal/telemetry"
)

const tickDuration = time.Duration(geo.TickSeconds * float64(time.Second))

// ReplayLog replays unit rows from r to writer. Rows of one tick are written
// back to back; the wait between ticks is the simulated time they span
// divided by speed. If speed <= 0, no artificial delay is inserted.
func ReplayLog(r io.Reader, writer TelemetryWriter, speed float64) error {
	return replay(r, writer, speed, time.Sleep)
}

func replay(r io.Reader, writer TelemetryWriter, speed float64, sleep func(time.Duration)) error {
	dec := json.NewDecoder(r)
	var (
		tick    int64
		started bool
	)
	for {
		var row telemetry.UnitRow
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		// a clock that runs backwards means a reset or a new scenario
		if started && speed > 0 && row.SimTime > tick {
			sleep(time.Duration(float64(row.SimTime-tick) * float64(tickDuration) / speed))
		}
		tick, started = row.SimTime, true
		if err := writer.Write(row); err != nil {
			return err
		}
	}
}

// ReplayLogFile opens a file and replays its unit rows.
func ReplayLogFile(path string, writer TelemetryWriter, speed float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ReplayLog(f, writer, speed)
}
