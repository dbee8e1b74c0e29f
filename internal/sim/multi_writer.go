package sim

import (
	"airops-sim/internal/telemetry"
)

// MultiWriter fan-outs unit, engagement and state rows to multiple writers.
type MultiWriter struct {
	unitWriters  []TelemetryWriter
	engWriters   []EngagementWriter
	stateWriters []StateWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(tws []TelemetryWriter, ews []EngagementWriter, sws []StateWriter) *MultiWriter {
	return &MultiWriter{unitWriters: tws, engWriters: ews, stateWriters: sws}
}

// Write sends a unit row to all writers.
func (mw *MultiWriter) Write(row telemetry.UnitRow) error {
	for _, w := range mw.unitWriters {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteBatch sends multiple unit rows to all writers, using batch if supported.
func (mw *MultiWriter) WriteBatch(rows []telemetry.UnitRow) error {
	for _, w := range mw.unitWriters {
		if bw, ok := w.(batchWriter); ok {
			if err := bw.WriteBatch(rows); err != nil {
				return err
			}
			continue
		}
		for _, r := range rows {
			if err := w.Write(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteEngagement sends an engagement row to all engagement writers.
func (mw *MultiWriter) WriteEngagement(row telemetry.EngagementRow) error {
	for _, w := range mw.engWriters {
		if err := w.WriteEngagement(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteEngagements sends multiple engagement rows, using batch if supported.
func (mw *MultiWriter) WriteEngagements(rows []telemetry.EngagementRow) error {
	for _, w := range mw.engWriters {
		if bw, ok := w.(batchEngagementWriter); ok {
			if err := bw.WriteEngagements(rows); err != nil {
				return err
			}
			continue
		}
		for _, r := range rows {
			if err := w.WriteEngagement(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteState sends a state row to all state writers.
func (mw *MultiWriter) WriteState(row telemetry.TickStateRow) error {
	return mw.WriteStates([]telemetry.TickStateRow{row})
}

// WriteStates sends multiple state rows, using batch if supported.
func (mw *MultiWriter) WriteStates(rows []telemetry.TickStateRow) error {
	for _, w := range mw.stateWriters {
		if err := writeStates(w, rows); err != nil {
			return err
		}
	}
	return nil
}

// SetCommander forwards the command callback to writers that accept one.
func (mw *MultiWriter) SetCommander(fn func(string) error) {
	for _, w := range mw.unitWriters {
		if c, ok := w.(Commander); ok {
			c.SetCommander(fn)
		}
	}
}

// SetAdminStatus forwards admin UI status to writers that display it.
func (mw *MultiWriter) SetAdminStatus(listening bool) {
	for _, w := range mw.unitWriters {
		if a, ok := w.(AdminStatusWriter); ok {
			a.SetAdminStatus(listening)
		}
	}
}

// Close closes writers that hold resources.
func (mw *MultiWriter) Close() error {
	var first error
	seen := make(map[any]bool)
	closeOne := func(w any) {
		c, ok := w.(interface{ Close() error })
		if !ok || seen[w] {
			return
		}
		seen[w] = true
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	for _, w := range mw.unitWriters {
		closeOne(w)
	}
	for _, w := range mw.engWriters {
		closeOne(w)
	}
	for _, w := range mw.stateWriters {
		closeOne(w)
	}
	return first
}
