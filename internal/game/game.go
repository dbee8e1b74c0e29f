// Package game owns the current scenario and drives the simulation tick.
//
// A Game is not safe for concurrent use. Callers that share one across
// goroutines serialize access, as sim.Simulator does.
package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"slices"
	"time"

	"airops-sim/internal/config"
	"airops-sim/internal/engagement"
	"airops-sim/internal/logging"
	"airops-sim/internal/scenario"
)

// ErrNoActiveSide is reported by callers when an operation needs a side.
var ErrNoActiveSide = errors.New("no active side selected")

// MapView is the camera state carried through export and import.
type MapView struct {
	DefaultCenter       []float64 `json:"defaultCenter"`
	CurrentCameraCenter []float64 `json:"currentCameraCenter"`
	DefaultZoom         float64   `json:"defaultZoom"`
	CurrentCameraZoom   float64   `json:"currentCameraZoom"`
}

// Game holds the current scenario, the active side and the UI mode flags.
type Game struct {
	CurrentSideName   string
	ScenarioPaused    bool
	AddingAircraft    bool
	AddingAirbase     bool
	AddingFacility    bool
	AddingShip        bool
	SelectingTarget   bool
	CurrentAttackerID string
	SelectedUnitID    string
	MapView           MapView

	current      *scenario.Scenario
	snapshot     []byte
	caps         config.AutoDefense
	loadouts     scenario.Loadouts
	compressions []int
	rng          engagement.Roller
	log          *slog.Logger
	events       []engagement.Event
	pending      []engagement.Event
	inTick       bool
}

// Option customizes a Game.
type Option func(*Game)

// WithLogger sets the logger used for launch and resolution messages.
func WithLogger(l *slog.Logger) Option {
	return func(g *Game) { g.log = l }
}

// WithRoller replaces the random source for lethality rolls.
func WithRoller(r engagement.Roller) Option {
	return func(g *Game) { g.rng = r }
}

// New creates a game around s. A nil cfg uses config.Default().
func New(s *scenario.Scenario, cfg *config.SimulationConfig, opts ...Option) *Game {
	if cfg == nil {
		cfg = config.Default()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	g := &Game{
		ScenarioPaused: true,
		MapView:        newMapView(),
		current:        s,
		caps:           cfg.AutoDefense,
		loadouts:       LoadoutsFromConfig(cfg.Loadouts),
		compressions:   slices.Clone(cfg.TimeCompressions),
		rng:            rand.New(rand.NewSource(seed)),
		log:            logging.Discard(),
	}
	for _, o := range opts {
		o(g)
	}
	g.CurrentSideName = cfg.Side
	if g.CurrentSideName == "" && len(s.Sides) > 0 {
		g.CurrentSideName = s.Sides[0].Name
	}
	g.snapshot, _ = g.ExportCurrentScenario()
	return g
}

func newMapView() MapView {
	return MapView{DefaultCenter: []float64{0, 0}, CurrentCameraCenter: []float64{0, 0}}
}

// LoadoutsFromConfig converts configured loadouts to scenario loadouts.
func LoadoutsFromConfig(c config.Loadouts) scenario.Loadouts {
	conv := func(l config.Loadout) scenario.Loadout {
		return scenario.Loadout{Quantity: l.Quantity, Lethality: l.Lethality}
	}
	return scenario.Loadouts{
		Aircraft: conv(c.Aircraft),
		Facility: conv(c.Facility),
		Ship:     conv(c.Ship),
	}
}

// Scenario returns the current scenario.
func (g *Game) Scenario() *scenario.Scenario { return g.current }

// Loadouts returns the starter stockpiles used for new units.
func (g *Game) Loadouts() scenario.Loadouts { return g.loadouts }

// Events returns the launches and resolutions of the last tick, including
// manual launches made since the tick before it.
func (g *Game) Events() []engagement.Event { return g.events }

func (g *Game) record(ev engagement.Event) {
	if g.inTick {
		g.events = append(g.events, ev)
	} else {
		g.pending = append(g.pending, ev)
	}
	switch ev.Outcome {
	case engagement.Launched:
		g.log.Debug("weapon launched", "weapon", ev.WeaponID, "shooter", ev.ShooterID, "target", ev.TargetID)
	case engagement.Tracking:
	default:
		g.log.Debug("weapon resolved", "weapon", ev.WeaponID, "target", ev.TargetID, "outcome", ev.Outcome)
	}
}

// RequireSide returns ErrNoActiveSide when no side is active.
func (g *Game) RequireSide() error {
	if g.CurrentSideName == "" {
		return ErrNoActiveSide
	}
	return nil
}

// SwitchCurrentSide makes the next side in scenario order active.
func (g *Game) SwitchCurrentSide() {
	sides := g.current.Sides
	for i, side := range sides {
		if side.Name == g.CurrentSideName {
			g.CurrentSideName = sides[(i+1)%len(sides)].Name
			return
		}
	}
}

// SwitchScenarioTimeCompression advances to the next configured compression.
// An unknown current value is left unchanged.
func (g *Game) SwitchScenarioTimeCompression() {
	i := slices.Index(g.compressions, g.current.TimeCompression)
	if i < 0 {
		return
	}
	g.current.TimeCompression = g.compressions[(i+1)%len(g.compressions)]
}

type exportDocument struct {
	CurrentScenario json.RawMessage `json:"currentScenario"`
	CurrentSideName string          `json:"currentSideName"`
	SelectedUnitID  string          `json:"selectedUnitId"`
	MapView         *MapView        `json:"mapView"`
}

// ExportCurrentScenario renders the scenario with side, selection and camera.
func (g *Game) ExportCurrentScenario() ([]byte, error) {
	data, err := scenario.Encode(g.current)
	if err != nil {
		return nil, fmt.Errorf("export scenario: %w", err)
	}
	mv := g.MapView
	return json.Marshal(exportDocument{
		CurrentScenario: data,
		CurrentSideName: g.CurrentSideName,
		SelectedUnitID:  g.SelectedUnitID,
		MapView:         &mv,
	})
}

// LoadScenario replaces the current scenario with an exported document. On
// error the game is unchanged.
func (g *Game) LoadScenario(data []byte) error {
	var doc exportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	if len(doc.CurrentScenario) == 0 {
		return fmt.Errorf("load scenario: missing currentScenario")
	}
	s, err := scenario.Decode(doc.CurrentScenario, g.loadouts)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	g.install(s)
	g.CurrentSideName = doc.CurrentSideName
	g.SelectedUnitID = doc.SelectedUnitID
	if doc.MapView != nil {
		g.MapView = *doc.MapView
	}
	g.snapshot = slices.Clone(data)
	g.log.Info("scenario loaded", "id", s.ID, "name", s.Name, "units", s.UnitCount())
	return nil
}

// LoadDefaultScenario installs the built-in scenario with its first side active.
func (g *Game) LoadDefaultScenario() {
	s := scenario.NewDefault(g.loadouts)
	g.install(s)
	g.CurrentSideName = s.Sides[0].Name
	g.SelectedUnitID = ""
	g.MapView = newMapView()
	g.snapshot, _ = g.ExportCurrentScenario()
	g.log.Info("default scenario loaded", "id", s.ID)
}

func (g *Game) install(s *scenario.Scenario) {
	g.current = s
	g.events = nil
	g.pending = nil
	g.ScenarioPaused = true
	g.SelectingTarget = false
	g.CurrentAttackerID = ""
}

// Reset restores the scenario last loaded or passed to New.
func (g *Game) Reset() error {
	if g.snapshot == nil {
		return nil
	}
	return g.LoadScenario(g.snapshot)
}
