// Package admin exposes the running simulation over HTTP and a websocket.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"airops-sim/internal/game"
	"airops-sim/internal/logging"
	"airops-sim/internal/scenario"
	"airops-sim/internal/sim"
)

const maxBodyBytes = 8 << 20

type Server struct {
	Sim *sim.Simulator
	log *slog.Logger
	mux *http.ServeMux
}

func NewServer(s *sim.Simulator, log *slog.Logger) *Server {
	if log == nil {
		log = logging.Discard()
	}
	srv := &Server{Sim: s, log: log.With("component", "admin"), mux: http.NewServeMux()}
	srv.routes()
	return srv
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /status", s.handleStatus)
	s.mux.HandleFunc("GET /scenario", s.handleExport)
	s.mux.HandleFunc("POST /scenario", s.handleImport)
	s.mux.HandleFunc("POST /scenario/default", s.handleLoadDefault)
	s.mux.HandleFunc("POST /scenario/reset", s.handleReset)
	s.mux.HandleFunc("POST /step", s.handleStep)
	s.mux.HandleFunc("POST /play", s.handlePlay)
	s.mux.HandleFunc("POST /pause", s.handlePause)
	s.mux.HandleFunc("POST /side/switch", s.handleSwitchSide)
	s.mux.HandleFunc("POST /time-compression/switch", s.handleSwitchCompression)
	s.mux.HandleFunc("POST /command", s.handleCommand)
	s.mux.HandleFunc("POST /units/{kind}", s.handleAddUnit)
	s.mux.HandleFunc("DELETE /units/{kind}/{id}", s.handleRemoveUnit)
	s.mux.HandleFunc("PATCH /units/{kind}/{id}", s.handleUpdateUnit)
	s.mux.HandleFunc("POST /units/{kind}/{id}/move", s.handleMove)
	s.mux.HandleFunc("POST /units/{kind}/{id}/attack", s.handleAttack)
	s.mux.HandleFunc("POST /carriers/{kind}/{id}/aircraft", s.handleEmbark)
	s.mux.HandleFunc("POST /carriers/{kind}/{id}/launch", s.handleLaunch)
	s.mux.HandleFunc("GET /ws", s.handleWebsocket)
}

// Handler returns the HTTP handler serving all admin routes.
func (s *Server) Handler() http.Handler { return s.mux }

// Start serves on addr until ctx is done. status, if set, is told when the
// listener is up and when it stops.
func (s *Server) Start(ctx context.Context, addr string, status sim.AdminStatusWriter) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: s.mux, ReadHeaderTimeout: 5 * time.Second}
	if status != nil {
		status.SetAdminStatus(true)
		defer status.SetAdminStatus(false)
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.log.Info("admin server listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if raw, ok := v.(json.RawMessage); ok {
		_, _ = w.Write(raw)
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, errorResponse{Error: err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.Sim.Status(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.Sim.Export(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, json.RawMessage(data))
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var doc json.RawMessage
	if err := decodeBody(w, r, &doc); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	loadErr, err := sim.Query(r.Context(), s.Sim, func(g *game.Game) error { return g.LoadScenario(doc) })
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if loadErr != nil {
		writeError(w, http.StatusBadRequest, loadErr)
		return
	}
	s.handleStatus(w, r)
}

// control runs fn and replies with the resulting status.
func (s *Server) control(w http.ResponseWriter, r *http.Request, fn func(*game.Game) error) {
	fnErr, err := sim.Query(r.Context(), s.Sim, fn)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if fnErr != nil {
		writeError(w, http.StatusConflict, fnErr)
		return
	}
	s.handleStatus(w, r)
}

func (s *Server) handleLoadDefault(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, func(g *game.Game) error { g.LoadDefaultScenario(); return nil })
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, func(g *game.Game) error { return g.Reset() })
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	if err := s.Sim.Step(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	s.handleStatus(w, r)
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, func(g *game.Game) error { g.ScenarioPaused = false; return nil })
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, func(g *game.Game) error { g.ScenarioPaused = true; return nil })
}

func (s *Server) handleSwitchSide(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, func(g *game.Game) error { g.SwitchCurrentSide(); return nil })
}

func (s *Server) handleSwitchCompression(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, func(g *game.Game) error { g.SwitchScenarioTimeCompression(); return nil })
}

type commandRequest struct {
	Line string `json:"line"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	err := s.Sim.RunCommand(r.Context(), req.Line)
	switch {
	case errors.Is(err, sim.ErrUnknownCommand), errors.Is(err, sim.ErrUsage):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, sim.ErrRejected), errors.Is(err, game.ErrNoActiveSide):
		writeError(w, http.StatusUnprocessableEntity, err)
	case err != nil:
		writeError(w, http.StatusBadRequest, err)
	default:
		s.handleStatus(w, r)
	}
}

// mutate runs fn inside the simulation loop and writes its result encoded
// while the loop still owns the game. A nil result means the operation did
// not apply.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, okCode int, fn func(*game.Game) (any, error)) {
	type result struct {
		data []byte
		err  error
	}
	res, execErr := sim.Query(r.Context(), s.Sim, func(g *game.Game) result {
		v, err := fn(g)
		if err != nil || v == nil {
			return result{err: err}
		}
		data, err := json.Marshal(v)
		return result{data, err}
	})
	data, fnErr := res.data, res.err
	switch {
	case execErr != nil:
		writeError(w, http.StatusServiceUnavailable, execErr)
	case errors.Is(fnErr, game.ErrNoActiveSide):
		writeError(w, http.StatusConflict, fnErr)
	case errors.Is(fnErr, errNotFound):
		writeError(w, http.StatusNotFound, fnErr)
	case fnErr != nil:
		writeError(w, http.StatusUnprocessableEntity, fnErr)
	case data == nil:
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, okCode, json.RawMessage(data))
	}
}

var (
	errNotFound    = errors.New("unit not found")
	errUnsupported = errors.New("operation not supported for unit kind")
	errNotApplied  = errors.New("operation not applied")
)

type addUnitRequest struct {
	Name      string  `json:"name"`
	ClassName string  `json:"className"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (s *Server) handleAddUnit(w http.ResponseWriter, r *http.Request) {
	var req addUnitRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	kind := scenario.Kind(r.PathValue("kind"))
	s.mutate(w, r, http.StatusCreated, func(g *game.Game) (any, error) {
		if err := g.RequireSide(); err != nil {
			return nil, err
		}
		var u scenario.Unit
		switch kind {
		case scenario.KindAircraft:
			u = nilIfAbsent(g.AddAircraft(req.Name, req.ClassName, req.Latitude, req.Longitude))
		case scenario.KindShip:
			u = nilIfAbsent(g.AddShip(req.Name, req.ClassName, req.Latitude, req.Longitude))
		case scenario.KindFacility:
			u = nilIfAbsent(g.AddFacility(req.Name, req.ClassName, req.Latitude, req.Longitude))
		case scenario.KindAirbase:
			u = nilIfAbsent(g.AddAirbase(req.Name, req.ClassName, req.Latitude, req.Longitude))
		default:
			return nil, errUnsupported
		}
		if u == nil {
			return nil, errNotApplied
		}
		return u, nil
	})
}

// nilIfAbsent converts a typed nil pointer into a nil interface.
func nilIfAbsent[T any, P interface {
	*T
	scenario.Unit
}](p P) scenario.Unit {
	if p == nil {
		return nil
	}
	return p
}

func (s *Server) handleRemoveUnit(w http.ResponseWriter, r *http.Request) {
	kind, id := scenario.Kind(r.PathValue("kind")), r.PathValue("id")
	s.mutate(w, r, http.StatusOK, func(g *game.Game) (any, error) {
		sc := g.Scenario()
		var removed bool
		switch kind {
		case scenario.KindAircraft:
			removed = sc.RemoveAircraft(id)
		case scenario.KindShip:
			removed = sc.RemoveShip(id)
		case scenario.KindFacility:
			removed = sc.RemoveFacility(id)
		case scenario.KindAirbase:
			removed = sc.RemoveAirbase(id)
		case scenario.KindWeapon:
			removed = sc.RemoveWeapon(id)
		default:
			return nil, errUnsupported
		}
		if !removed {
			return nil, errNotFound
		}
		return nil, nil
	})
}

// updateUnitRequest edits unit card fields. Omitted fields keep their value.
type updateUnitRequest struct {
	Name           *string  `json:"name"`
	ClassName      *string  `json:"className"`
	WeaponQuantity *int     `json:"weaponQuantity"`
	Range          *float64 `json:"range"`
}

func (req updateUnitRequest) fields(name, className string, rng float64) (string, string, float64, int) {
	qty := -1
	if req.Name != nil {
		name = *req.Name
	}
	if req.ClassName != nil {
		className = *req.ClassName
	}
	if req.Range != nil {
		rng = *req.Range
	}
	if req.WeaponQuantity != nil {
		qty = *req.WeaponQuantity
	}
	return name, className, rng, qty
}

func (s *Server) handleUpdateUnit(w http.ResponseWriter, r *http.Request) {
	var req updateUnitRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.WeaponQuantity != nil && *req.WeaponQuantity < 0 {
		writeError(w, http.StatusBadRequest, errors.New("weaponQuantity must be non-negative"))
		return
	}
	kind, id := scenario.Kind(r.PathValue("kind")), r.PathValue("id")
	s.mutate(w, r, http.StatusOK, func(g *game.Game) (any, error) {
		sc := g.Scenario()
		switch kind {
		case scenario.KindAircraft:
			a := sc.GetAircraft(id)
			if a == nil {
				return nil, errNotFound
			}
			if req.Range != nil {
				return nil, errUnsupported
			}
			name, class, _, qty := req.fields(a.Name, a.ClassName, 0)
			sc.UpdateAircraft(id, name, class, qty)
			return a, nil
		case scenario.KindFacility:
			f := sc.GetFacility(id)
			if f == nil {
				return nil, errNotFound
			}
			name, class, rng, qty := req.fields(f.Name, f.ClassName, f.Range)
			sc.UpdateFacility(id, name, class, rng, qty)
			return f, nil
		}
		return nil, errUnsupported
	})
}

type moveRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	kind, id := scenario.Kind(r.PathValue("kind")), r.PathValue("id")
	s.mutate(w, r, http.StatusOK, func(g *game.Game) (any, error) {
		var u scenario.Unit
		switch kind {
		case scenario.KindAircraft:
			u = nilIfAbsent(g.MoveAircraft(id, req.Latitude, req.Longitude))
		case scenario.KindShip:
			u = nilIfAbsent(g.MoveShip(id, req.Latitude, req.Longitude))
		default:
			return nil, errUnsupported
		}
		if u == nil {
			return nil, errNotFound
		}
		return u, nil
	})
}

type attackRequest struct {
	TargetID string `json:"targetId"`
}

func (s *Server) handleAttack(w http.ResponseWriter, r *http.Request) {
	var req attackRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	kind, id := scenario.Kind(r.PathValue("kind")), r.PathValue("id")
	s.mutate(w, r, http.StatusCreated, func(g *game.Game) (any, error) {
		var wpn *scenario.Weapon
		switch kind {
		case scenario.KindAircraft:
			wpn = g.HandleAircraftAttack(id, req.TargetID)
		case scenario.KindShip:
			wpn = g.HandleShipAttack(id, req.TargetID)
		default:
			return nil, errUnsupported
		}
		if wpn == nil {
			return nil, errNotApplied
		}
		return wpn, nil
	})
}

type embarkRequest struct {
	Name      string `json:"name"`
	ClassName string `json:"className"`
}

func (s *Server) handleEmbark(w http.ResponseWriter, r *http.Request) {
	var req embarkRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	kind, id := scenario.Kind(r.PathValue("kind")), r.PathValue("id")
	s.mutate(w, r, http.StatusCreated, func(g *game.Game) (any, error) {
		if err := g.RequireSide(); err != nil {
			return nil, err
		}
		var a *scenario.Aircraft
		switch kind {
		case scenario.KindAirbase:
			a = g.AddAircraftToAirbase(req.Name, req.ClassName, id)
		case scenario.KindShip:
			a = g.AddAircraftToShip(req.Name, req.ClassName, id)
		default:
			return nil, errUnsupported
		}
		if a == nil {
			return nil, errNotFound
		}
		return a, nil
	})
}

func (s *Server) handleLaunch(w http.ResponseWriter, r *http.Request) {
	kind, id := scenario.Kind(r.PathValue("kind")), r.PathValue("id")
	s.mutate(w, r, http.StatusOK, func(g *game.Game) (any, error) {
		if err := g.RequireSide(); err != nil {
			return nil, err
		}
		var a *scenario.Aircraft
		switch kind {
		case scenario.KindAirbase:
			a = g.LaunchAircraftFromAirbase(id)
		case scenario.KindShip:
			a = g.LaunchAircraftFromShip(id)
		default:
			return nil, errUnsupported
		}
		if a == nil {
			return nil, errNotApplied
		}
		return a, nil
	})
}
