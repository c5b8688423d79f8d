// Package game exposes the session surface consumed by the mobile
// layer: start, join, submit voice turns, hints, pause/resume and
// snapshots.
package game

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	gamemodel "github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/model/game"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/service/orchestrator"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/pkg/utils"
)

// Handler serves the HTTP game surface.
type Handler struct {
	orch *orchestrator.Service
}

// New creates the handler.
func New(orch *orchestrator.Service) *Handler {
	return &Handler{orch: orch}
}

// RegisterRoutes mounts the session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.handleStart)
	r.Get("/sessions/{sessionID}", h.handleSnapshot)
	r.Post("/sessions/{sessionID}/join", h.handleJoin)
	r.Post("/sessions/{sessionID}/voice", h.handleVoice)
	r.Post("/sessions/{sessionID}/hint", h.handleHint)
	r.Post("/sessions/{sessionID}/pause", h.handlePause)
	r.Post("/sessions/{sessionID}/resume", h.handleResume)
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Kind    string   `json:"kind"`
		Players []string `json:"players"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	kind, ok := gamemodel.ParseKind(payload.Kind)
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "unknown game kind")
		return
	}
	if len(payload.Players) == 0 {
		utils.RespondError(w, http.StatusBadRequest, "at least one player is required")
		return
	}

	sess, err := h.orch.StartSession(r.Context(), kind, payload.Players)
	if err != nil {
		respondGameError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, sess)
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	sess, ranks, err := h.orch.Snapshot(r.Context(), sessionID)
	if err != nil {
		respondGameError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"session": sess,
		"ranks":   ranks,
	})
}

func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	var payload struct {
		PlayerID string `json:"playerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.PlayerID == "" {
		utils.RespondError(w, http.StatusBadRequest, "playerId is required")
		return
	}

	sess, err := h.orch.Join(r.Context(), sessionID, payload.PlayerID)
	if err != nil {
		respondGameError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleVoice(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	var payload struct {
		PlayerID   string  `json:"playerId"`
		Transcript string  `json:"transcript"`
		Confidence float64 `json:"confidence"`
		Clarity    float64 `json:"clarity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.PlayerID == "" || payload.Transcript == "" {
		utils.RespondError(w, http.StatusBadRequest, "playerId and transcript are required")
		return
	}
	if payload.Clarity <= 0 {
		payload.Clarity = 1
	}

	resp, err := h.orch.Handle(r.Context(), orchestrator.Request{
		SessionID:  sessionID,
		PlayerID:   payload.PlayerID,
		Transcript: payload.Transcript,
		Confidence: payload.Confidence,
		Clarity:    payload.Clarity,
	})
	if err != nil {
		respondGameError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleHint(w http.ResponseWriter, r *http.Request) {
	h.voiceShortcut(w, r, "give me a hint")
}

func (h *Handler) handlePause(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	playerID := playerFrom(r)
	sess, err := h.orch.Pause(r.Context(), sessionID, playerID)
	if err != nil {
		respondGameError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	playerID := playerFrom(r)
	sess, err := h.orch.Resume(r.Context(), sessionID, playerID)
	if err != nil {
		respondGameError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, sess)
}

// voiceShortcut runs a fixed transcript through the normal voice path so
// button presses and voice commands behave identically.
func (h *Handler) voiceShortcut(w http.ResponseWriter, r *http.Request, transcript string) {
	sessionID := chi.URLParam(r, "sessionID")
	resp, err := h.orch.Handle(r.Context(), orchestrator.Request{
		SessionID:  sessionID,
		PlayerID:   playerFrom(r),
		Transcript: transcript,
		Confidence: 1,
		Clarity:    1,
	})
	if err != nil {
		respondGameError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}

func playerFrom(r *http.Request) string {
	var payload struct {
		PlayerID string `json:"playerId"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)
	return payload.PlayerID
}

// respondGameError maps the error taxonomy to game-relevant responses
// rather than generic failures.
func respondGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gamemodel.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, "that game has ended or never started")
	case errors.Is(err, gamemodel.ErrNotPlayerTurn):
		utils.RespondError(w, http.StatusConflict, "hold on, it's not your turn yet")
	case errors.Is(err, gamemodel.ErrSessionFinished):
		utils.RespondError(w, http.StatusConflict, "that game is already over")
	case errors.Is(err, gamemodel.ErrConflictingUpdate):
		utils.RespondError(w, http.StatusConflict, "that round just moved on, listen for the next question")
	case errors.Is(err, gamemodel.ErrStoreUnavailable):
		utils.RespondError(w, http.StatusServiceUnavailable, "game state is briefly unavailable, try again")
	case errors.Is(err, gamemodel.ErrAmbiguousInput):
		utils.RespondError(w, http.StatusUnprocessableEntity, "couldn't make sense of that, try rephrasing")
	default:
		utils.RespondError(w, http.StatusInternalServerError, "something went wrong")
	}
}
