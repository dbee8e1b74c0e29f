// Simulator driving the game in real time and fanning out telemetry
package sim

import (
	"context"
	"sync"
	"time"

	"airops-sim/internal/game"
	"airops-sim/internal/telemetry"
)

// TelemetryWriter is an interface to support different output writers.
type TelemetryWriter interface {
	Write(telemetry.UnitRow) error
}

// Optional: Writers can also support batch mode
type batchWriter interface {
	WriteBatch([]telemetry.UnitRow) error
}

// EngagementWriter handles weapon launch and resolution events.
type EngagementWriter interface {
	WriteEngagement(telemetry.EngagementRow) error
}

// Optional: Engagement writers may support batch mode
type batchEngagementWriter interface {
	WriteEngagements([]telemetry.EngagementRow) error
}

type request struct {
	fn   func(*game.Game)
	done chan struct{}
}

// Simulator runs ticks of one game on a timer. All access to the game goes
// through Exec so that commands land between ticks.
//
// Lock order is ctl, mu, subMu. ctl guards stopped; mu guards the game;
// subMu guards the subscribers.
type Simulator struct {
	game         *game.Game
	gen          *telemetry.Generator
	writer       TelemetryWriter
	engWriter    EngagementWriter
	stateWriter  StateWriter
	tickInterval time.Duration
	cmds         chan request
	stopped      chan struct{}
	subscribers  map[int]chan []byte
	nextSub      int
	ctl          sync.Mutex
	mu           sync.Mutex
	subMu        sync.Mutex
}

// NewSimulator wraps g. Any of the writers may be nil.
func NewSimulator(g *game.Game, writer TelemetryWriter, eWriter EngagementWriter, sWriter StateWriter, tickInterval time.Duration) *Simulator {
	if tickInterval <= 0 {
		tickInterval = time.Second
	}
	return &Simulator{
		game:         g,
		gen:          telemetry.NewGenerator(time.Now()),
		writer:       writer,
		engWriter:    eWriter,
		stateWriter:  sWriter,
		tickInterval: tickInterval,
		cmds:         make(chan request),
		subscribers:  make(map[int]chan []byte),
	}
}

// Exec runs fn against the game. While Run is active fn is handed to the
// loop and runs between two ticks; otherwise it runs on the caller's goroutine.
// When ctx ends first Exec returns ctx.Err(); fn may still run later, so
// results must travel through Query rather than captured variables.
func (s *Simulator) Exec(ctx context.Context, fn func(*game.Game)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.ctl.Lock()
	stopped := s.stopped
	if stopped == nil {
		defer s.ctl.Unlock()
		s.mu.Lock()
		defer s.mu.Unlock()
		fn(s.game)
		return nil
	}
	s.ctl.Unlock()

	req := request{fn: fn, done: make(chan struct{})}
	select {
	case s.cmds <- req:
	case <-stopped:
		return s.Exec(ctx, fn)
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Query runs fn through Exec and returns its result.
func Query[T any](ctx context.Context, s *Simulator, fn func(*game.Game) T) (T, error) {
	out := make(chan T, 1)
	if err := s.Exec(ctx, func(g *game.Game) { out <- fn(g) }); err != nil {
		var zero T
		return zero, err
	}
	return <-out, nil
}

// StepQuery runs one tick and then fn in the same turn of the loop, so no
// timer tick lands between them.
func StepQuery[T any](ctx context.Context, s *Simulator, fn func(*game.Game) T) (T, error) {
	return Query(ctx, s, func(g *game.Game) T {
		s.step(ctx)
		return fn(g)
	})
}

// Step runs one tick immediately and emits its rows.
func (s *Simulator) Step(ctx context.Context) error {
	return s.Exec(ctx, func(*game.Game) { s.step(ctx) })
}

// Play resumes ticking.
func (s *Simulator) Play(ctx context.Context) error {
	return s.Exec(ctx, func(g *game.Game) { g.ScenarioPaused = false })
}

// Pause stops ticking until Play.
func (s *Simulator) Pause(ctx context.Context) error {
	return s.Exec(ctx, func(g *game.Game) { g.ScenarioPaused = true })
}

// Export returns the current export document.
func (s *Simulator) Export(ctx context.Context) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	r, err := Query(ctx, s, func(g *game.Game) result {
		data, err := g.ExportCurrentScenario()
		return result{data, err}
	})
	if err != nil {
		return nil, err
	}
	return r.data, r.err
}

// Status summarizes the running scenario.
type Status struct {
	ScenarioID      string `json:"scenario_id"`
	Name            string `json:"name"`
	CurrentTime     int64  `json:"current_time"`
	CurrentSide     string `json:"current_side"`
	TimeCompression int    `json:"time_compression"`
	Paused          bool   `json:"paused"`
	Units           int    `json:"units"`
	Weapons         int    `json:"weapons"`
}

// Status returns a summary of the game.
func (s *Simulator) Status(ctx context.Context) (Status, error) {
	return Query(ctx, s, func(g *game.Game) Status {
		sc := g.Scenario()
		return Status{
			ScenarioID:      sc.ID,
			Name:            sc.Name,
			CurrentTime:     sc.CurrentTime,
			CurrentSide:     g.CurrentSideName,
			TimeCompression: sc.TimeCompression,
			Paused:          g.ScenarioPaused,
			Units:           sc.UnitCount(),
			Weapons:         len(sc.Weapons),
		}
	})
}

// delay is the wall-clock wait between ticks at the current compression.
func (s *Simulator) delay() time.Duration {
	tc := s.game.Scenario().TimeCompression
	if tc < 1 {
		tc = 1
	}
	return s.tickInterval / time.Duration(tc)
}
