package sim

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"airops-sim/internal/config"
	"airops-sim/internal/telemetry"
)

type fakeProgram struct{ msgs []tea.Msg }

func (f *fakeProgram) Send(msg tea.Msg) { f.msgs = append(f.msgs, msg) }

func update(t *testing.T, m tuiModel, msg tea.Msg) (tuiModel, tea.Cmd) {
	t.Helper()
	mi, cmd := m.Update(msg)
	return mi.(tuiModel), cmd
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTUIWriterMessages(t *testing.T) {
	p := &fakeProgram{}
	w := &TUIWriter{program: p}
	row := telemetry.UnitRow{UnitID: "a1", SideName: "BLUE", Speed: 300, Heading: 90, Timestamp: time.Unix(0, 0).UTC()}
	if err := w.Write(row); err != nil {
		t.Fatalf("write: %v", err)
	}
	lm, ok := p.msgs[0].(logMsg)
	if !ok {
		t.Fatalf("expected logMsg, got %T", p.msgs[0])
	}
	if !strings.HasPrefix(lm.line, ">") {
		t.Fatalf("expected heading icon, got %q", lm.line)
	}
	if _, ok := p.msgs[1].(unitMsg); !ok {
		t.Fatalf("expected unitMsg, got %T", p.msgs[1])
	}
	if err := w.WriteState(telemetry.TickStateRow{SimTime: 1}); err != nil {
		t.Fatalf("state: %v", err)
	}
	if _, ok := p.msgs[2].(stateMsg); !ok {
		t.Fatalf("expected stateMsg, got %T", p.msgs[2])
	}
	w.SetAdminStatus(true)
	if _, ok := p.msgs[3].(adminMsg); !ok {
		t.Fatalf("expected adminMsg, got %T", p.msgs[3])
	}
	if err := w.WriteEngagement(telemetry.EngagementRow{WeaponID: "w", Outcome: "hit"}); err != nil {
		t.Fatalf("engagement: %v", err)
	}
	if _, ok := p.msgs[4].(engagementMsg); !ok {
		t.Fatalf("expected engagementMsg, got %T", p.msgs[4])
	}
	w.SetCommander(func(string) error { return nil })
	if _, ok := p.msgs[5].(setCommanderMsg); !ok {
		t.Fatalf("expected setCommanderMsg, got %T", p.msgs[5])
	}
}

func TestWrapToggle(t *testing.T) {
	m := newTUIModel(config.Default())
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 20, Height: 40})
	m, _ = update(t, m, logMsg{line: "one two three four five six"})
	lines := strings.Split(m.vp.View(), "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[1]) != "" {
		t.Fatalf("expected single line before wrap")
	}
	m, _ = update(t, m, keys("w"))
	if !m.wrap {
		t.Fatalf("wrap not toggled")
	}
	lines = strings.Split(m.vp.View(), "\n")
	if strings.TrimSpace(lines[1]) == "" {
		t.Fatalf("expected wrapped content on second line")
	}
}

func TestScrollToggle(t *testing.T) {
	m := newTUIModel(nil)
	m.vp.Height = 1
	m.vp.Width = 20
	m, _ = update(t, m, logMsg{line: "l1"})
	m, _ = update(t, m, logMsg{line: "l2"})
	if m.vp.YOffset != 1 {
		t.Fatalf("expected YOffset 1, got %d", m.vp.YOffset)
	}
	m, _ = update(t, m, keys("s"))
	if m.autoscroll {
		t.Fatalf("autoscroll should be off")
	}
	m, _ = update(t, m, logMsg{line: "l3"})
	if m.vp.YOffset != 1 {
		t.Fatalf("expected YOffset unchanged, got %d", m.vp.YOffset)
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if m.vp.YOffset != 0 {
		t.Fatalf("expected YOffset 0 after scrolling up, got %d", m.vp.YOffset)
	}
	m, _ = update(t, m, keys("s"))
	if !m.autoscroll {
		t.Fatalf("autoscroll should be on")
	}
	if expected := len(m.logs) - m.vp.Height; m.vp.YOffset != expected {
		t.Fatalf("expected YOffset %d, got %d", expected, m.vp.YOffset)
	}
}

func TestCommandDialog(t *testing.T) {
	var got string
	m := newTUIModel(nil)
	m, _ = update(t, m, setCommanderMsg{fn: func(line string) error {
		got = line
		return errors.New("no unit x")
	}})
	m, _ = update(t, m, keys(":"))
	if !m.cmdDialog {
		t.Fatalf("dialog not opened")
	}
	m, _ = update(t, m, keys("remove x"))
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.cmdDialog {
		t.Fatalf("dialog should close on enter")
	}
	if cmd == nil {
		t.Fatalf("expected command to run")
	}
	res := cmd()
	if got != "remove x" {
		t.Fatalf("commander got %q", got)
	}
	m, _ = update(t, m, res)
	if !strings.Contains(m.lastResult, "no unit x") {
		t.Fatalf("expected error in result line, got %q", m.lastResult)
	}
	if !strings.Contains(m.renderBottom(), "no unit x") {
		t.Fatalf("result not shown in footer")
	}
}

func TestCommandDialogEscape(t *testing.T) {
	m := newTUIModel(nil)
	m, _ = update(t, m, keys("c"))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.cmdDialog {
		t.Fatalf("dialog should close on esc")
	}
	m, _ = update(t, m, keys(":"))
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || m.lastResult != "" {
		t.Fatalf("empty input should be ignored")
	}
}

func TestSummaryCountsUnits(t *testing.T) {
	m := newTUIModel(nil)
	m, _ = update(t, m, unitMsg{telemetry.UnitRow{UnitID: "a1", Kind: "aircraft", SideName: "BLUE", SimTime: 1}})
	m, _ = update(t, m, unitMsg{telemetry.UnitRow{UnitID: "f1", Kind: "facility", SideName: "RED", SimTime: 1}})
	m, _ = update(t, m, stateMsg{telemetry.TickStateRow{SimTime: 1}})
	m, _ = update(t, m, engagementMsg{row: telemetry.EngagementRow{Outcome: "launched"}})
	m, _ = update(t, m, engagementMsg{row: telemetry.EngagementRow{Outcome: "hit"}})
	s := m.renderSummary()
	if !strings.Contains(s, "launches=1") || !strings.Contains(s, "hits=1") || !strings.Contains(s, "aircraft=1") {
		t.Fatalf("unexpected summary %q", s)
	}
	// a1 not reported on tick 2
	m, _ = update(t, m, unitMsg{telemetry.UnitRow{UnitID: "f1", Kind: "facility", SideName: "RED", SimTime: 2}})
	m, _ = update(t, m, stateMsg{telemetry.TickStateRow{SimTime: 2}})
	if _, ok := m.units["a1"]; ok {
		t.Fatalf("stale unit should be pruned")
	}
}

func TestHelpListsCommands(t *testing.T) {
	m := newTUIModel(nil)
	m, _ = update(t, m, keys("?"))
	if !strings.Contains(m.View(), commandUsage["attack"]) {
		t.Fatalf("help should list commands")
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.help {
		t.Fatalf("esc should close help")
	}
}
