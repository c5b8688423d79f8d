package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	gamehandler "github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/handler/game"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/handler/stream"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/handler/ws"
	middlewarePkg "github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/middleware"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/service/broadcast"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/service/orchestrator"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(orch *orchestrator.Service, hub *broadcast.Hub, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	gameHandler := gamehandler.New(orch)
	wsHandler := ws.New(orch, hub, log)
	streamHandler := stream.New(orch, hub, log)

	r.Route("/api", func(api chi.Router) {
		gameHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
		streamHandler.RegisterRoutes(api)
	})

	return r
}
