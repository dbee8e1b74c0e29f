package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"airops-sim/internal/game"
	"airops-sim/internal/protocol"
	"airops-sim/internal/scenario"
	"airops-sim/internal/sim"
)

// Observation frames pushed to clients that connect with ?watch=1.
const ObservationMessage = "OBSERVATION"

const (
	writeWait  = 10 * time.Second
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	conn.SetReadLimit(maxBodyBytes)
	ctx, cancel := context.WithCancel(context.Background())
	send := make(chan []byte, sendBuffer)
	done := make(chan struct{})
	go func() {
		s.writePump(conn, send)
		close(done)
	}()

	forwarded := make(chan struct{})
	if r.URL.Query().Get("watch") == "1" {
		obs, unsubscribe := s.Sim.Subscribe(sendBuffer)
		defer unsubscribe()
		go func() {
			s.forwardObservations(ctx, obs, send)
			close(forwarded)
		}()
	} else {
		close(forwarded)
	}

	s.readPump(ctx, conn, send)
	cancel()
	<-forwarded
	close(send)
	<-done
}

// readPump handles inbound frames until the client goes away.
func (s *Server) readPump(ctx context.Context, conn *websocket.Conn, send chan<- []byte) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("websocket read failed", "err", err)
			}
			return
		}
		reply, err := s.HandleMessage(ctx, raw)
		if err != nil {
			s.log.Warn("websocket message rejected", "err", err)
			continue
		}
		select {
		case send <- reply:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) writePump(conn *websocket.Conn, send <-chan []byte) {
	defer conn.Close()
	for msg := range send {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			s.log.Debug("websocket write failed", "err", err)
			conn.Close()
			// keep draining until the reader closes send
			for range send {
			}
			return
		}
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (s *Server) forwardObservations(ctx context.Context, obs <-chan []byte, send chan<- []byte) {
	for {
		select {
		case data, ok := <-obs:
			if !ok {
				return
			}
			var doc struct {
				CurrentScenario json.RawMessage `json:"currentScenario"`
			}
			if err := json.Unmarshal(data, &doc); err != nil {
				continue
			}
			frame, err := protocol.CreateMessage(ObservationMessage, doc.CurrentScenario)
			if err != nil {
				continue
			}
			select {
			case send <- frame:
			case <-ctx.Done():
				return
			default:
			}
		case <-ctx.Done():
			return
		}
	}
}

// HandleMessage applies one protocol frame and returns the reply frame.
// LOAD_DEFAULT_SCENARIO loads the export document in content, or the
// built-in scenario when content is empty. STEP_SCENARIO runs one tick.
// Both reply with the observation; other types reply unknown with empty content.
func (s *Server) HandleMessage(ctx context.Context, raw []byte) ([]byte, error) {
	msg, err := protocol.ProcessMessage(raw)
	if err != nil {
		return nil, err
	}
	if msg.Type == protocol.Unknown {
		return protocol.CreateMessage(protocol.Unknown, msg.Content)
	}
	type result struct {
		obs []byte
		err error
	}
	observe := func(g *game.Game) result {
		if msg.Type == protocol.LoadDefaultScenario {
			if err := loadContent(g, msg); err != nil {
				return result{err: err}
			}
		}
		obs, err := scenario.Encode(g.Scenario())
		return result{obs, err}
	}
	var res result
	if msg.Type == protocol.StepScenario {
		res, err = sim.StepQuery(ctx, s.Sim, observe)
	} else {
		res, err = sim.Query(ctx, s.Sim, observe)
	}
	if err != nil {
		return nil, err
	}
	if res.err != nil {
		return nil, res.err
	}
	return protocol.CreateMessage(msg.Type, json.RawMessage(res.obs))
}

// loadContent accepts the export document inline or as a JSON string.
func loadContent(g *game.Game, msg protocol.Message) error {
	if !msg.HasContent() {
		g.LoadDefaultScenario()
		return nil
	}
	data := []byte(msg.Content)
	var str string
	if err := json.Unmarshal(msg.Content, &str); err == nil {
		data = []byte(str)
	}
	return g.LoadScenario(data)
}
