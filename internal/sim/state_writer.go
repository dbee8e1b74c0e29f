package sim

import "airops-sim/internal/telemetry"

// StateWriter handles per-tick state rows.
type StateWriter interface {
	WriteState(telemetry.TickStateRow) error
}

// Optional: writers may support batch mode for state rows.
type batchStateWriter interface {
	WriteStates([]telemetry.TickStateRow) error
}

func writeStates(w StateWriter, rows []telemetry.TickStateRow) error {
	if bw, ok := w.(batchStateWriter); ok {
		return bw.WriteStates(rows)
	}
	for _, r := range rows {
		if err := w.WriteState(r); err != nil {
			return err
		}
	}
	return nil
}
