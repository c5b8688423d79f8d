package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/config"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/handler"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/service/broadcast"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/service/coordinator"
	intentsvc "github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/service/intent"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/service/orchestrator"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/service/question"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("no .env file, continuing with system environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Chat model backs both the intent fallback classifier and the
	// question generator; both degrade gracefully without it.
	var chatModel model.ChatModel
	if cfg.AI.Enabled() {
		chatModel, err = cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("chat model unavailable, running rules-only")
			chatModel = nil
		} else {
			log.Info().Str("model", cfg.AI.Model).Msg("chat model initialized")
		}
	} else {
		log.Info().Msg("ark credentials not configured, running rules-only")
	}

	hub := broadcast.NewHub(log)

	var (
		store session.Store
		pub   broadcast.Publisher = hub
	)
	if cfg.Redis.Enabled() {
		client := cfg.Redis.NewClient()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable")
		}
		store = session.NewRedisStore(client)
		pub = broadcast.Fanout{hub, broadcast.NewRedisPublisher(client)}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("using redis session store")
	} else {
		memStore := session.NewMemoryStore(log)
		store = memStore
		log.Info().Msg("using in-memory session store")
	}

	coord := coordinator.New(store, pub, coordinator.Config{TurnDuration: cfg.Game.TurnTimeout}, log)

	// Reaped sessions must not leave timers or subscribers behind.
	if memStore, ok := store.(*session.MemoryStore); ok {
		memStore.SetExpiryHook(func(sessionID string) {
			coord.HandleExpiry(sessionID)
			hub.DropSession(sessionID)
			_ = pub.Publish(context.Background(), sessionID, broadcast.New(broadcast.EventSessionEnded, sessionID, map[string]any{
				"reason": "expired",
			}))
		})
		go memStore.Run(ctx)
	}

	intents, err := intentsvc.NewService(ctx, chatModel, intentsvc.Config{Enabled: chatModel != nil}, log)
	if err != nil {
		log.Warn().Err(err).Msg("intent classifier unavailable, running rules-only")
		intents, _ = intentsvc.NewService(ctx, nil, intentsvc.Config{}, log)
	}

	questions, err := question.NewProvider(ctx, chatModel, question.Config{Enabled: chatModel != nil}, log)
	if err != nil {
		log.Warn().Err(err).Msg("question generator unavailable, serving bank questions")
		questions, _ = question.NewProvider(ctx, nil, question.Config{}, log)
	}

	orch := orchestrator.New(store, coord, intents, questions, pub, orchestrator.Config{
		ClarifyThreshold: cfg.Game.ClarifyThreshold,
		BoardSize:        cfg.Game.BoardSize,
	}, log)

	router := handler.NewRouter(orch, hub, log)

	startServer(ctx, cfg.Server, router, log)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, log zerolog.Logger) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", serverCfg.Addr).Msg("game orchestration backend listening")
	if err := runServer(ctx, srv); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
