package sim

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"airops-sim/internal/config"
	"airops-sim/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// logMsg carries a unit log line for the viewport.
type logMsg struct{ line string }

// unitMsg carries the latest row of one unit.
type unitMsg struct{ telemetry.UnitRow }

// engagementMsg carries an engagement log line and row data.
type engagementMsg struct {
	line string
	row  telemetry.EngagementRow
}

// stateMsg carries a tick state update.
type stateMsg struct{ telemetry.TickStateRow }

// adminMsg reports admin UI status.
type adminMsg struct{ active bool }

type setCommanderMsg struct{ fn func(string) error }

// commandResultMsg reports the outcome of an operator command.
type commandResultMsg struct {
	line string
	err  error
}

const (
	maxLogLines         = 1000
	maxSectionHeightPct = 0.25
)

// TUIWriter renders unit and engagement rows using a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter.
func NewTUIWriter(cfg *config.SimulationConfig) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(cfg), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

func headingIcon(h float64) string {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	switch {
	case h >= 45 && h < 135:
		return ">"
	case h >= 135 && h < 225:
		return "v"
	case h >= 225 && h < 315:
		return "<"
	default:
		return "^"
	}
}

// Write implements TelemetryWriter.
func (w *TUIWriter) Write(row telemetry.UnitRow) error {
	line := formatUnit(row, sideColor(row.SideName))
	if row.Speed > 0 {
		line = headingIcon(row.Heading) + " " + line
	} else {
		line = "· " + line
	}
	w.program.Send(logMsg{line: line})
	w.program.Send(unitMsg{row})
	return nil
}

// WriteBatch outputs multiple unit rows.
func (w *TUIWriter) WriteBatch(rows []telemetry.UnitRow) error {
	for _, r := range rows {
		_ = w.Write(r)
	}
	return nil
}

// WriteEngagement implements EngagementWriter.
func (w *TUIWriter) WriteEngagement(row telemetry.EngagementRow) error {
	w.program.Send(engagementMsg{line: formatEngagement(row), row: row})
	return nil
}

// WriteState implements StateWriter.
func (w *TUIWriter) WriteState(row telemetry.TickStateRow) error {
	w.program.Send(stateMsg{TickStateRow: row})
	return nil
}

// SetAdminStatus updates the admin UI indicator.
func (w *TUIWriter) SetAdminStatus(active bool) {
	w.program.Send(adminMsg{active: active})
}

// SetCommander registers the callback executing command dialog input.
func (w *TUIWriter) SetCommander(fn func(string) error) {
	w.program.Send(setCommanderMsg{fn: fn})
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	cfg          *config.SimulationConfig
	table        table.Model
	vp           viewport.Model
	engVP        viewport.Model
	logs         []string
	engLogs      []string
	state        telemetry.TickStateRow
	units        map[string]telemetry.UnitRow
	hits         int
	launches     int
	admin        bool
	wrap         bool
	autoscroll   bool
	summary      bool
	help         bool
	header       string
	headerHeight int
	height       int
	commander    func(string) error
	cmdInput     textinput.Model
	cmdDialog    bool
	lastResult   string
}

func newTUIModel(cfg *config.SimulationConfig) tuiModel {
	if cfg == nil {
		cfg = config.Default()
	}
	cols := []table.Column{
		{Title: "Config", Width: 20},
		{Title: "Value", Width: 14},
		{Title: "Config", Width: 20},
		{Title: "Value", Width: 14},
	}
	ad, lo := cfg.AutoDefense, cfg.Loadouts
	rows := []table.Row{
		{"Tick Interval", cfg.TickInterval.String(), "Compressions", fmt.Sprint(cfg.TimeCompressions)},
		{"Facility Caps", fmt.Sprintf("%d/%d", ad.FacilityVsAircraft, ad.FacilityVsWeapon), "Ship Caps", fmt.Sprintf("%d/%d", ad.ShipVsAircraft, ad.ShipVsWeapon)},
		{"Aircraft Loadout", fmt.Sprintf("%d@%.2f", lo.Aircraft.Quantity, lo.Aircraft.Lethality), "Facility Loadout", fmt.Sprintf("%d@%.2f", lo.Facility.Quantity, lo.Facility.Lethality)},
		{"Ship Loadout", fmt.Sprintf("%d@%.2f", lo.Ship.Quantity, lo.Ship.Lethality), "Seed", fmt.Sprint(cfg.Seed)},
	}
	t := table.New(table.WithColumns(cols), table.WithRows(rows), table.WithHeight(len(rows)+1))
	return tuiModel{
		cfg:        cfg,
		table:      t,
		vp:         viewport.New(0, 0),
		engVP:      viewport.New(0, 0),
		units:      make(map[string]telemetry.UnitRow),
		autoscroll: true,
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func runCommand(fn func(string) error, line string) tea.Cmd {
	return func() tea.Msg {
		return commandResultMsg{line: line, err: fn(line)}
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width)
		m.vp.Width = msg.Width
		m.engVP.Width = msg.Width
		m.height = msg.Height
		m.header = m.renderHeader()
		m.headerHeight = lipgloss.Height(m.header)
		m.updateViewportHeight()
		m.refreshViewport()
		m.refreshEngagements()
	case tea.KeyMsg:
		if m.cmdDialog {
			switch msg.Type {
			case tea.KeyEnter:
				line := strings.TrimSpace(m.cmdInput.Value())
				m.cmdDialog = false
				m.updateViewportHeight()
				if line == "" {
					return m, nil
				}
				if m.commander == nil {
					m.lastResult = "commands unavailable"
					return m, nil
				}
				return m, runCommand(m.commander, line)
			case tea.KeyEsc:
				m.cmdDialog = false
				m.updateViewportHeight()
			default:
				var cmd tea.Cmd
				m.cmdInput, cmd = m.cmdInput.Update(msg)
				return m, cmd
			}
			return m, nil
		}
		if m.help {
			switch msg.String() {
			case "?", "h", "esc":
				m.help = false
				m.updateViewportHeight()
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
			m.refreshEngagements()
			return m, nil
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
				m.engVP.GotoBottom()
			}
			return m, nil
		case ":", "c":
			m.cmdInput = textinput.New()
			m.cmdInput.Placeholder = "move <id> <lat> <lon> | attack <id> <target> | launch <id> | side | speed | pause | play"
			m.cmdInput.Focus()
			m.cmdDialog = true
			m.updateViewportHeight()
			return m, nil
		case "t":
			m.summary = !m.summary
			m.updateViewportHeight()
			return m, nil
		case "h", "?":
			m.help = !m.help
			m.updateViewportHeight()
			return m, nil
		}
		if !m.autoscroll {
			switch msg.String() {
			case "j", "down":
				m.vp.LineDown(1)
				m.engVP.LineDown(1)
			case "k", "up":
				m.vp.LineUp(1)
				m.engVP.LineUp(1)
			case "pgdown", "ctrl+n":
				m.vp.LineDown(10)
				m.engVP.LineDown(10)
			case "pgup", "ctrl+p":
				m.vp.LineUp(10)
				m.engVP.LineUp(10)
			default:
				var cmd tea.Cmd
				m.vp, cmd = m.vp.Update(msg)
				m.engVP, _ = m.engVP.Update(msg)
				return m, cmd
			}
		}
		return m, nil
	case logMsg:
		m.logs = appendCapped(m.logs, msg.line)
		m.refreshViewport()
	case unitMsg:
		if m.units == nil {
			m.units = make(map[string]telemetry.UnitRow)
		}
		m.units[msg.UnitID] = msg.UnitRow
	case engagementMsg:
		m.engLogs = appendCapped(m.engLogs, msg.line)
		switch msg.row.Outcome {
		case "launched":
			m.launches++
		case "hit":
			m.hits++
		}
		m.updateViewportHeight()
		m.refreshEngagements()
		m.refreshViewport()
	case stateMsg:
		// the state row follows the unit rows of its tick
		m.state = msg.TickStateRow
		m.pruneUnits(m.state.SimTime)
	case adminMsg:
		m.admin = msg.active
	case setCommanderMsg:
		m.commander = msg.fn
	case commandResultMsg:
		if msg.err != nil {
			m.lastResult = fmt.Sprintf("%s%s: %v%s", colorRed, msg.line, msg.err, colorReset)
		} else {
			m.lastResult = fmt.Sprintf("%s%s: ok%s", colorGreen, msg.line, colorReset)
		}
		m.updateViewportHeight()
	}
	return m, nil
}

func appendCapped(lines []string, line string) []string {
	lines = append(lines, line)
	if len(lines) > maxLogLines {
		lines = lines[len(lines)-maxLogLines:]
	}
	return lines
}

// pruneUnits drops units whose last row is older than simTime.
func (m *tuiModel) pruneUnits(simTime int64) {
	for id, r := range m.units {
		if r.SimTime < simTime {
			delete(m.units, id)
		}
	}
}

func (m *tuiModel) updateViewportHeight() {
	bottomHeight := lipgloss.Height(m.renderBottom())
	maxLines := int(float64(m.height) * maxSectionHeightPct)
	if maxLines < 1 {
		maxLines = 1
	}
	engLines := len(m.engLogs)
	if engLines == 0 {
		engLines = 1
	}
	if engLines > maxLines {
		engLines = maxLines
	}
	m.engVP.Height = engLines
	dialogHeight := 0
	if m.cmdDialog {
		dialogHeight = 2
	}
	h := m.height - m.headerHeight - bottomHeight - (1 + m.engVP.Height) - dialogHeight - 4
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
	if m.autoscroll {
		m.engVP.GotoBottom()
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) wrapLines(lines []string, width int) string {
	if !m.wrap {
		return strings.Join(lines, "\n")
	}
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, wordwrap.String(l, width))
	}
	return strings.Join(out, "\n")
}

func (m *tuiModel) refreshViewport() {
	m.vp.SetContent(m.wrapLines(m.logs, m.vp.Width))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshEngagements() {
	content := "none"
	if len(m.engLogs) > 0 {
		content = m.wrapLines(m.engLogs, m.engVP.Width)
	}
	m.engVP.SetContent(content)
	if m.autoscroll {
		m.engVP.GotoBottom()
	}
}

func (m tuiModel) View() string {
	if m.help {
		return m.renderHelp()
	}
	divider := strings.Repeat("─", m.vp.Width)
	sections := []string{
		m.header,
		divider,
		m.vp.View(),
		divider,
		"Engagements:",
		m.engVP.View(),
	}
	if m.cmdDialog {
		sections = append(sections, divider, "Command: "+m.cmdInput.View())
	}
	sections = append(sections, divider, m.renderBottom())
	return strings.Join(sections, "\n")
}

func (m tuiModel) renderHeader() string {
	return m.table.View()
}

func (m tuiModel) renderSummary() string {
	perSide := make(map[string]map[string]int)
	for _, u := range m.units {
		if perSide[u.SideName] == nil {
			perSide[u.SideName] = make(map[string]int)
		}
		perSide[u.SideName][u.Kind]++
	}
	sides := make([]string, 0, len(perSide))
	for s := range perSide {
		sides = append(sides, s)
	}
	sort.Strings(sides)
	var parts []string
	for _, s := range sides {
		k := perSide[s]
		parts = append(parts, fmt.Sprintf("%s%s%s aircraft=%d ships=%d facilities=%d airbases=%d weapons=%d",
			sideColor(s), s, colorReset, k["aircraft"], k["ship"], k["facility"], k["airbase"], k["weapon"]))
	}
	summary := fmt.Sprintf("%sSUMMARY%s %slaunches=%d%s %shits=%d%s", colorBlue, colorReset, colorYellow, m.launches, colorReset, colorRed, m.hits, colorReset)
	if len(parts) > 0 {
		summary += " " + strings.Join(parts, " | ")
	}
	return summary
}

func indicator(on bool) string {
	c := lipgloss.Color("9")
	if on {
		c = lipgloss.Color("10")
	}
	return lipgloss.NewStyle().Foreground(c).Render("●")
}

func (m tuiModel) renderBottom() string {
	line := fmt.Sprintf("%s | Admin UI %s | Wrap %s | Scroll %s | Summary %s | Running %s",
		formatState(m.state), indicator(m.admin), indicator(m.wrap), indicator(m.autoscroll),
		indicator(m.summary), indicator(!m.state.Paused))
	if m.lastResult != "" {
		line = m.lastResult + "\n" + line
	}
	if m.summary {
		return fmt.Sprintf("%s\n%s", m.renderSummary(), line)
	}
	return line
}

func (m tuiModel) renderHelp() string {
	lines := []string{
		"Key Bindings:",
		" q    quit",
		" w    toggle wrap",
		" s    toggle auto-scroll",
		" :/c  open command dialog",
		" t    toggle summary footer",
		" h/?  toggle this help view",
		"",
		"Commands:",
	}
	names := make([]string, 0, len(commandUsage))
	for n := range commandUsage {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		lines = append(lines, " "+commandUsage[n])
	}
	lines = append(lines,
		"",
		"When auto-scroll is disabled:",
		" j/k or up/down    scroll one line",
		" pgdown/pgup       scroll a page",
	)
	return strings.Join(lines, "\n")
}
