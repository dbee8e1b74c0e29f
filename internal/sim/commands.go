package sim

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"airops-sim/internal/game"
	"airops-sim/internal/scenario"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("usage")
	ErrRejected       = errors.New("command rejected")
)

// Command mutates a game and reports whether it took effect.
type Command func(*game.Game) error

var commandUsage = map[string]string{
	"add":    "add aircraft|ship|facility|airbase <name> <class> <lat> <lon>",
	"embark": "embark <carrier-id> <name> <class>",
	"launch": "launch <carrier-id>",
	"move":   "move <unit-id> <lat> <lon>",
	"attack": "attack <attacker-id> <target-id>",
	"remove": "remove <unit-id>",
	"update": "update <unit-id> <name> <class> <quantity> [range]",
	"side":   "side",
	"speed":  "speed",
	"pause":  "pause",
	"play":   "play",
	"reset":  "reset",
}

func usage(cmd string) error {
	return fmt.Errorf("%w: %s", ErrUsage, commandUsage[cmd])
}

func rejected(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRejected, fmt.Sprintf(format, args...))
}

func parseCoords(lat, lon string) (float64, float64, error) {
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude %q", lat)
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude %q", lon)
	}
	return la, lo, nil
}

// ParseCommand turns one operator line into a Command. Parsing happens on
// the caller's goroutine; the returned Command runs inside Exec.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrUnknownCommand)
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	switch name {
	case "add":
		if len(args) != 5 {
			return nil, usage(name)
		}
		lat, lon, err := parseCoords(args[3], args[4])
		if err != nil {
			return nil, err
		}
		return addCommand(scenario.Kind(strings.ToLower(args[0])), args[1], args[2], lat, lon)
	case "embark":
		if len(args) != 3 {
			return nil, usage(name)
		}
		id, unitName, class := args[0], args[1], args[2]
		return func(g *game.Game) error {
			if err := g.RequireSide(); err != nil {
				return err
			}
			if g.AddAircraftToAirbase(unitName, class, id) == nil && g.AddAircraftToShip(unitName, class, id) == nil {
				return rejected("no airbase or ship %s", id)
			}
			return nil
		}, nil
	case "launch":
		if len(args) != 1 {
			return nil, usage(name)
		}
		id := args[0]
		return func(g *game.Game) error {
			if err := g.RequireSide(); err != nil {
				return err
			}
			if g.LaunchAircraftFromAirbase(id) == nil && g.LaunchAircraftFromShip(id) == nil {
				return rejected("nothing to launch from %s", id)
			}
			return nil
		}, nil
	case "move":
		if len(args) != 3 {
			return nil, usage(name)
		}
		lat, lon, err := parseCoords(args[1], args[2])
		if err != nil {
			return nil, err
		}
		id := args[0]
		return func(g *game.Game) error {
			if g.MoveAircraft(id, lat, lon) == nil && g.MoveShip(id, lat, lon) == nil {
				return rejected("no aircraft or ship %s", id)
			}
			return nil
		}, nil
	case "attack":
		if len(args) != 2 {
			return nil, usage(name)
		}
		attacker, target := args[0], args[1]
		return func(g *game.Game) error {
			if g.HandleAircraftAttack(attacker, target) == nil && g.HandleShipAttack(attacker, target) == nil {
				return rejected("%s cannot engage %s", attacker, target)
			}
			return nil
		}, nil
	case "remove":
		if len(args) != 1 {
			return nil, usage(name)
		}
		id := args[0]
		return func(g *game.Game) error {
			if !g.Scenario().RemoveUnit(id) {
				return rejected("no unit %s", id)
			}
			return nil
		}, nil
	case "update":
		if len(args) != 4 && len(args) != 5 {
			return nil, usage(name)
		}
		id, unitName, class := args[0], args[1], args[2]
		qty, err := strconv.Atoi(args[3])
		if err != nil || qty < 0 {
			return nil, fmt.Errorf("invalid quantity %q", args[3])
		}
		rng := -1.0
		if len(args) == 5 {
			if rng, err = strconv.ParseFloat(args[4], 64); err != nil || rng < 0 {
				return nil, fmt.Errorf("invalid range %q", args[4])
			}
		}
		return func(g *game.Game) error {
			sc := g.Scenario()
			if f := sc.GetFacility(id); f != nil {
				if rng < 0 {
					rng = f.Range
				}
				sc.UpdateFacility(id, unitName, class, rng, qty)
				return nil
			}
			if rng >= 0 {
				return rejected("range applies to facilities only")
			}
			if !sc.UpdateAircraft(id, unitName, class, qty) {
				return rejected("no aircraft or facility %s", id)
			}
			return nil
		}, nil
	case "side":
		return noArgs(name, args, func(g *game.Game) error { g.SwitchCurrentSide(); return nil })
	case "speed":
		return noArgs(name, args, func(g *game.Game) error { g.SwitchScenarioTimeCompression(); return nil })
	case "pause":
		return noArgs(name, args, func(g *game.Game) error { g.ScenarioPaused = true; return nil })
	case "play":
		return noArgs(name, args, func(g *game.Game) error { g.ScenarioPaused = false; return nil })
	case "reset":
		return noArgs(name, args, func(g *game.Game) error { return g.Reset() })
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
}

func noArgs(name string, args []string, c Command) (Command, error) {
	if len(args) != 0 {
		return nil, usage(name)
	}
	return c, nil
}

func addCommand(kind scenario.Kind, name, class string, lat, lon float64) (Command, error) {
	var add func(*game.Game) bool
	switch kind {
	case scenario.KindAircraft:
		add = func(g *game.Game) bool { return g.AddAircraft(name, class, lat, lon) != nil }
	case scenario.KindShip:
		add = func(g *game.Game) bool { return g.AddShip(name, class, lat, lon) != nil }
	case scenario.KindFacility:
		add = func(g *game.Game) bool { return g.AddFacility(name, class, lat, lon) != nil }
	case scenario.KindAirbase:
		add = func(g *game.Game) bool { return g.AddAirbase(name, class, lat, lon) != nil }
	default:
		return nil, usage("add")
	}
	return func(g *game.Game) error {
		if err := g.RequireSide(); err != nil {
			return err
		}
		if !add(g) {
			return rejected("could not add %s", kind)
		}
		return nil
	}, nil
}

// RunCommand parses line and executes it against the simulator's game.
func (s *Simulator) RunCommand(ctx context.Context, line string) error {
	cmd, err := ParseCommand(line)
	if err != nil {
		return err
	}
	cmdErr, err := Query(ctx, s, func(g *game.Game) error { return cmd(g) })
	if err != nil {
		return err
	}
	return cmdErr
}
