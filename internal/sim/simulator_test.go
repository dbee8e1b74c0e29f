package sim

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"airops-sim/internal/config"
	"airops-sim/internal/engagement"
	"airops-sim/internal/game"
	"airops-sim/internal/logging"
	"airops-sim/internal/scenario"
	"airops-sim/internal/telemetry"
)

// MockWriter collects unit rows for validation
type MockWriter struct {
	Rows []telemetry.UnitRow
}

func (w *MockWriter) Write(row telemetry.UnitRow) error {
	w.Rows = append(w.Rows, row)
	return nil
}

type MockEngagementWriter struct {
	Rows []telemetry.EngagementRow
}

func (w *MockEngagementWriter) WriteEngagement(r telemetry.EngagementRow) error {
	w.Rows = append(w.Rows, r)
	return nil
}

type MockStateWriter struct {
	Rows []telemetry.TickStateRow
}

func (w *MockStateWriter) WriteState(r telemetry.TickStateRow) error {
	w.Rows = append(w.Rows, r)
	return nil
}

type fixedRoller float64

func (r fixedRoller) Float64() float64 { return float64(r) }

func newTestSimulator(t *testing.T, roll float64) (*Simulator, *MockWriter, *MockEngagementWriter, *MockStateWriter) {
	t.Helper()
	s := scenario.New("scn", "test", scenario.NewSide("BLUE", "blue"), scenario.NewSide("RED", "red"))
	l := scenario.DefaultLoadouts()
	f := scenario.NewFacility("sam", "SAM", "BLUE", "blue", 0, 0, l.Facility)
	f.ID = "f1"
	a := scenario.NewAircraft("bandit", "Tu-22", "RED", "red", 0, 1, l.Aircraft)
	a.ID = "a1"
	if err := s.AddFacility(f); err != nil {
		t.Fatal(err)
	}
	if err := s.AddAircraft(a); err != nil {
		t.Fatal(err)
	}
	g := game.New(s, config.Default(), game.WithRoller(fixedRoller(roll)), game.WithLogger(logging.Discard()))
	w, ew, sw := &MockWriter{}, &MockEngagementWriter{}, &MockStateWriter{}
	return NewSimulator(g, w, ew, sw, time.Millisecond), w, ew, sw
}

func TestSimulator_StepGeneratesRows(t *testing.T) {
	sim, w, ew, sw := newTestSimulator(t, 0.99)
	if err := sim.Step(context.Background()); err != nil {
		t.Fatalf("step: %v", err)
	}
	// facility, aircraft and one launched weapon
	if len(w.Rows) != 3 {
		t.Fatalf("expected 3 unit rows, got %d", len(w.Rows))
	}
	for _, row := range w.Rows {
		if row.UnitID == "" || row.ScenarioID != "scn" || row.SimTime != 1 {
			t.Errorf("unexpected row: %+v", row)
		}
	}
	if len(ew.Rows) != 1 || ew.Rows[0].Outcome != string(engagement.Launched) || ew.Rows[0].ShooterID != "f1" {
		t.Fatalf("expected one launch row, got %+v", ew.Rows)
	}
	if len(sw.Rows) != 1 || sw.Rows[0].Launches != 1 || sw.Rows[0].Weapons != 1 {
		t.Fatalf("unexpected state rows %+v", sw.Rows)
	}
}

func TestSimulator_RunRespectsPause(t *testing.T) {
	sim, w, _, _ := newTestSimulator(t, 0.99)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sim.Run(ctx)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	st, err := sim.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.CurrentTime != 0 || !st.Paused {
		t.Fatalf("paused game advanced: %+v", st)
	}
	if err := sim.Play(ctx); err != nil {
		t.Fatalf("play: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		st, _ = sim.Status(ctx)
		if st.CurrentTime >= 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("game did not advance: %+v", st)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := sim.Pause(ctx); err != nil {
		t.Fatalf("pause: %v", err)
	}
	cancel()
	<-done
	if len(w.Rows) == 0 {
		t.Fatalf("expected unit rows while running")
	}
	// after Run returns Exec runs inline
	if _, err := sim.Export(context.Background()); err != nil {
		t.Fatalf("export after stop: %v", err)
	}
}

func TestSimulator_ExecCanceled(t *testing.T) {
	sim, _, _, _ := newTestSimulator(t, 0.99)
	runCtx, stop := context.WithCancel(context.Background())
	defer stop()
	block := make(chan struct{})
	go sim.Run(runCtx)
	time.Sleep(10 * time.Millisecond)
	go func() {
		_ = sim.Exec(context.Background(), func(*game.Game) { <-block })
	}()
	time.Sleep(10 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := sim.Exec(ctx, func(*game.Game) {}); err == nil {
		t.Fatalf("expected context error while loop is busy")
	}
	close(block)
}

func TestSimulator_Subscribe(t *testing.T) {
	sim, _, _, _ := newTestSimulator(t, 0.99)
	ch, unsubscribe := sim.Subscribe(1)
	if err := sim.Step(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := sim.Step(context.Background()); err != nil {
		t.Fatal(err)
	}
	data := <-ch
	var doc struct {
		CurrentScenario struct {
			CurrentTime int64 `json:"currentTime"`
		} `json:"currentScenario"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode observation: %v", err)
	}
	// buffer of one keeps the first tick, the second is dropped
	if doc.CurrentScenario.CurrentTime != 1 {
		t.Fatalf("expected first observation, got time %d", doc.CurrentScenario.CurrentTime)
	}
	unsubscribe()
	unsubscribe()
	if _, ok := <-ch; ok {
		t.Fatalf("channel should be closed")
	}
}

func TestSimulatorRunCommand(t *testing.T) {
	sim, _, _, _ := newTestSimulator(t, 0.99)
	ctx := context.Background()
	if err := sim.RunCommand(ctx, "move a1 1 1"); err != nil {
		t.Fatalf("move: %v", err)
	}
	if err := sim.RunCommand(ctx, "move nope 1 1"); err == nil {
		t.Fatalf("expected rejection for unknown unit")
	}
	if err := sim.RunCommand(ctx, "speed"); err != nil {
		t.Fatal(err)
	}
	st, _ := sim.Status(ctx)
	if st.TimeCompression != 2 {
		t.Fatalf("expected compression 2, got %d", st.TimeCompression)
	}
}

func TestSimulator_QueriesHonorContextWhileBusy(t *testing.T) {
	sim, _, _, _ := newTestSimulator(t, 0.99)
	runCtx, stop := context.WithCancel(context.Background())
	defer stop()
	go sim.Run(runCtx)
	time.Sleep(10 * time.Millisecond)

	block := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = sim.Exec(context.Background(), func(*game.Game) {
			close(started)
			<-block
		})
	}()
	<-started

	calls := map[string]func(ctx context.Context) error{
		"status": func(ctx context.Context) error { _, err := sim.Status(ctx); return err },
		"export": func(ctx context.Context) error { _, err := sim.Export(ctx); return err },
		"step":   sim.Step,
		"command": func(ctx context.Context) error {
			return sim.RunCommand(ctx, "speed")
		},
	}
	for name, call := range calls {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		errc := make(chan error, 1)
		go func() { errc <- call(ctx) }()
		select {
		case err := <-errc:
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("%s: expected deadline error, got %v", name, err)
			}
		case <-time.After(time.Second):
			t.Fatalf("%s blocked past its context", name)
		}
		cancel()
	}
	close(block)

	st, err := sim.Status(context.Background())
	if err != nil {
		t.Fatalf("status after unblock: %v", err)
	}
	if st.CurrentTime != 0 {
		t.Fatalf("cancelled step ran: %+v", st)
	}
}

func TestStepQueryReturnsPostTickState(t *testing.T) {
	sim, _, _, sw := newTestSimulator(t, 0.99)
	runCtx, stop := context.WithCancel(context.Background())
	defer stop()
	go sim.Run(runCtx)
	ctx := context.Background()
	for want := int64(1); want <= 3; want++ {
		got, err := StepQuery(ctx, sim, func(g *game.Game) int64 { return g.Scenario().CurrentTime })
		if err != nil {
			t.Fatalf("step query: %v", err)
		}
		if got != want {
			t.Fatalf("expected time %d, got %d", want, got)
		}
	}
	n, err := Query(ctx, sim, func(*game.Game) int { return len(sw.Rows) })
	if err != nil || n != 3 {
		t.Fatalf("expected 3 state rows, got %d (%v)", n, err)
	}
}

func TestSubscribeWhileBusy(t *testing.T) {
	sim, _, _, _ := newTestSimulator(t, 0.99)
	runCtx, stop := context.WithCancel(context.Background())
	defer stop()
	go sim.Run(runCtx)
	time.Sleep(10 * time.Millisecond)
	block := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = sim.Exec(context.Background(), func(*game.Game) {
			close(started)
			<-block
		})
	}()
	<-started
	done := make(chan struct{})
	go func() {
		_, unsubscribe := sim.Subscribe(1)
		unsubscribe()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("subscribe blocked behind a running command")
	}
	close(block)
}
