// Package stream serves session events over SSE for clients that cannot
// hold a websocket, with periodic heartbeats to keep proxies from
// closing the stream.
package stream

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/service/broadcast"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/service/orchestrator"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/pkg/utils"
)

const heartbeatInterval = 8 * time.Second

// Handler streams broadcast events as Server-Sent Events.
type Handler struct {
	orch *orchestrator.Service
	hub  *broadcast.Hub
	log  zerolog.Logger
}

// New creates the stream handler.
func New(orch *orchestrator.Service, hub *broadcast.Hub, log zerolog.Logger) *Handler {
	return &Handler{
		orch: orch,
		hub:  hub,
		log:  log.With().Str("component", "stream-handler").Logger(),
	}
}

// RegisterRoutes mounts the SSE endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/events", h.handleEvents)
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	playerID := r.URL.Query().Get("player")
	if playerID == "" {
		utils.RespondError(w, http.StatusBadRequest, "player query parameter is required")
		return
	}
	if _, _, err := h.orch.Snapshot(r.Context(), sessionID); err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	utils.SetupSSEHeaders(w)

	events, cancel := h.hub.Subscribe(sessionID, playerID)
	defer cancel()

	h.log.Debug().Str("session", sessionID).Str("player", playerID).Msg("opening event stream")

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	utils.SendSSEEvent(w, flusher, "status", map[string]any{"message": "stream established"})

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			h.log.Debug().Str("session", sessionID).Str("player", playerID).Msg("closing event stream")
			return
		case ev, open := <-events:
			if !open {
				return
			}
			utils.SendSSEEvent(w, flusher, ev.Type, ev)
		case t := <-ticker.C:
			utils.SendSSEEvent(w, flusher, "heartbeat", map[string]any{
				"time": t.UTC().Format(time.RFC3339),
			})
		}
	}
}
