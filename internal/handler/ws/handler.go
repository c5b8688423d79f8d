// Package ws carries the live connection for a session participant:
// voice turn frames in, broadcast events out. Frames from different
// players that land inside a short window are treated as simultaneous
// input and resolved to a single canonical turn.
package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/service/broadcast"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/service/coordinator"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/service/orchestrator"
)

// conflictWindow is how long the first frame of a burst waits for
// overlapping speech from other players before being handled.
const conflictWindow = 250 * time.Millisecond

// writeTimeout bounds one outbound frame.
const writeTimeout = 5 * time.Second

// Handler upgrades connections and shuttles frames.
type Handler struct {
	orch     *orchestrator.Service
	hub      *broadcast.Hub
	upgrader websocket.Upgrader
	log      zerolog.Logger

	mu      sync.Mutex
	pending map[string]*pendingBatch
}

type pendingBatch struct {
	inputs []coordinator.VoiceInput
	conns  map[string]*conn
}

type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteJSON(v)
}

// New creates the websocket handler.
func New(orch *orchestrator.Service, hub *broadcast.Hub, log zerolog.Logger) *Handler {
	return &Handler{
		orch: orch,
		hub:  hub,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log:     log.With().Str("component", "ws-handler").Logger(),
		pending: make(map[string]*pendingBatch),
	}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundFrame struct {
	Type       string  `json:"type"`
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
	Clarity    float64 `json:"clarity"`
}

type outboundFrame struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	playerID := r.URL.Query().Get("player")
	if sessionID == "" || playerID == "" {
		http.Error(w, "sessionID and player are required", http.StatusBadRequest)
		return
	}
	if _, _, err := h.orch.Snapshot(r.Context(), sessionID); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &conn{ws: socket}
	defer socket.Close()

	events, cancel := h.hub.Subscribe(sessionID, playerID)
	defer cancel()

	done := make(chan struct{})
	go h.writeLoop(c, events, done)
	defer close(done)

	h.log.Debug().Str("session", sessionID).Str("player", playerID).Msg("participant connected")

	for {
		var frame inboundFrame
		if err := socket.ReadJSON(&frame); err != nil {
			h.log.Debug().Str("session", sessionID).Str("player", playerID).
				Err(err).Msg("participant disconnected")
			return
		}
		if frame.Type != "voice" || frame.Transcript == "" {
			continue
		}
		if frame.Clarity <= 0 {
			frame.Clarity = 1
		}
		h.enqueue(sessionID, playerID, frame, c)
	}
}

// writeLoop pumps hub events to the socket until the reader exits.
func (h *Handler) writeLoop(c *conn, events <-chan broadcast.Event, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			frame := outboundFrame{
				Type:      ev.Type,
				Data:      ev.Data,
				Timestamp: ev.Timestamp.UnixMilli(),
			}
			if err := c.writeJSON(frame); err != nil {
				return
			}
		}
	}
}

// enqueue buffers the frame; the first frame of a burst schedules the
// flush that resolves whatever has accumulated by then.
func (h *Handler) enqueue(sessionID, playerID string, frame inboundFrame, c *conn) {
	h.mu.Lock()
	batch, ok := h.pending[sessionID]
	if !ok {
		batch = &pendingBatch{conns: make(map[string]*conn)}
		h.pending[sessionID] = batch
		time.AfterFunc(conflictWindow, func() { h.flush(sessionID) })
	}
	batch.inputs = append(batch.inputs, coordinator.VoiceInput{
		PlayerID:   playerID,
		Transcript: frame.Transcript,
		Confidence: frame.Confidence,
		Clarity:    frame.Clarity,
	})
	batch.conns[playerID] = c
	h.mu.Unlock()
}

// flush hands the batch to the orchestrator: one input goes straight
// through, several become a conflict resolution.
func (h *Handler) flush(sessionID string) {
	h.mu.Lock()
	batch := h.pending[sessionID]
	delete(h.pending, sessionID)
	h.mu.Unlock()
	if batch == nil || len(batch.inputs) == 0 {
		return
	}

	ctx, cancelCtx := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelCtx()

	resp, err := h.orch.HandleConflict(ctx, sessionID, batch.inputs)
	selected, _ := coordinator.ResolveConflict(batch.inputs)
	target := batch.conns[selected.PlayerID]
	if err != nil {
		h.log.Debug().Str("session", sessionID).Err(err).Msg("voice turn failed")
		if target != nil {
			_ = target.writeJSON(outboundFrame{
				Type:      "error",
				Data:      map[string]any{"message": err.Error()},
				Timestamp: time.Now().UnixMilli(),
			})
		}
		return
	}
	if target != nil {
		_ = target.writeJSON(outboundFrame{
			Type:      "response",
			Data:      resp,
			Timestamp: time.Now().UnixMilli(),
		})
	}
}
