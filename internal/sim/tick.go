package sim

import (
	"context"
	"time"

	"airops-sim/internal/logging"
	"airops-sim/internal/telemetry"
)

// Run starts the simulation loop and stops when the context is done.
func (s *Simulator) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	stopped := make(chan struct{})
	s.ctl.Lock()
	s.stopped = stopped
	s.ctl.Unlock()
	defer func() {
		s.ctl.Lock()
		s.stopped = nil
		s.ctl.Unlock()
		close(stopped)
	}()
	s.mu.Lock()
	delay := s.delay()
	s.mu.Unlock()

	log.Info("starting simulator", "tick_interval", s.tickInterval)
	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case req := <-s.cmds:
			s.mu.Lock()
			req.fn(s.game)
			s.mu.Unlock()
			close(req.done)
		case <-timer.C:
			s.tick(ctx)
			s.mu.Lock()
			delay = s.delay()
			s.mu.Unlock()
			timer.Reset(delay)
		case <-ctx.Done():
			log.Info("stopping simulator")
			return
		}
	}
}

// tick advances the game unless it is paused.
func (s *Simulator) tick(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game.ScenarioPaused {
		return
	}
	s.step(ctx)
}

// step runs one game tick and writes its rows. The caller holds s.mu.
func (s *Simulator) step(ctx context.Context) {
	log := logging.FromContext(ctx)
	s.game.UpdateGameState()
	sc := s.game.Scenario()
	events := s.game.Events()

	if s.writer != nil {
		rows := s.gen.UnitRows(sc)
		if bw, ok := s.writer.(batchWriter); ok {
			if err := bw.WriteBatch(rows); err != nil {
				log.Error("batch write failed", "err", err)
			}
		} else {
			for _, row := range rows {
				if err := s.writer.Write(row); err != nil {
					log.Error("write failed", "unit_id", row.UnitID, "err", err)
				}
			}
		}
	}

	if len(events) > 0 && s.engWriter != nil {
		rows := s.gen.EngagementRows(sc, events)
		if bw, ok := s.engWriter.(batchEngagementWriter); ok {
			if err := bw.WriteEngagements(rows); err != nil {
				log.Error("engagement batch write failed", "err", err)
			}
		} else {
			for _, r := range rows {
				if err := s.engWriter.WriteEngagement(r); err != nil {
					log.Error("engagement write failed", "err", err)
				}
			}
		}
	}

	if s.stateWriter != nil {
		st := s.gen.StateRow(sc, s.game.CurrentSideName, s.game.ScenarioPaused, events)
		if err := writeStates(s.stateWriter, []telemetry.TickStateRow{st}); err != nil {
			log.Error("state write failed", "err", err)
		}
	}

	s.publish(log)
}
