package sim

import (
	"log/slog"
)

// Subscribe returns a channel that receives the export document after every
// tick. Slow subscribers miss observations rather than block the loop. The
// returned function unsubscribes and closes the channel.
func (s *Simulator) Subscribe(buffer int) (<-chan []byte, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan []byte, buffer)
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = ch
	s.subMu.Unlock()

	var once bool
	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if once {
			return
		}
		once = true
		delete(s.subscribers, id)
		close(ch)
	}
}

// publish sends the current observation to subscribers. The caller holds s.mu.
func (s *Simulator) publish(log *slog.Logger) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if len(s.subscribers) == 0 {
		return
	}
	data, err := s.game.ExportCurrentScenario()
	if err != nil {
		log.Error("observation export failed", "err", err)
		return
	}
	for id, ch := range s.subscribers {
		select {
		case ch <- data:
		default:
			log.Debug("observation dropped", "subscriber", id)
		}
	}
}
