// Package coordinator enforces turn order, schedules cancellable turn
// timers and resolves simultaneous voice input across the participants
// of a session. All session state goes through the store; the
// coordinator holds only timer handles keyed by session id.
package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/model/game"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/service/broadcast"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/service/session"
)

// DefaultTurnDuration is the window a player has to act before the turn
// auto-advances.
const DefaultTurnDuration = 30 * time.Second

// timeoutOpTimeout bounds the store work done from a fired timer.
const timeoutOpTimeout = 5 * time.Second

// Config tunes the coordinator.
type Config struct {
	TurnDuration time.Duration
}

// Coordinator manages per-session turn progression. At most one live
// timer exists per session; starting a new turn always cancels the prior
// timer first so duplicate timeout events cannot fire.
type Coordinator struct {
	store        session.Store
	pub          broadcast.Publisher
	turnDuration time.Duration
	log          zerolog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New wires a coordinator over the store and broadcast channel.
func New(store session.Store, pub broadcast.Publisher, cfg Config, log zerolog.Logger) *Coordinator {
	duration := cfg.TurnDuration
	if duration <= 0 {
		duration = DefaultTurnDuration
	}
	return &Coordinator{
		store:        store,
		pub:          pub,
		turnDuration: duration,
		log:          log.With().Str("component", "coordinator").Logger(),
		timers:       make(map[string]*time.Timer),
	}
}

// IsPlayerTurn is true when the player is next in the turn order, or
// unconditionally in free-play mode (no explicit turn order).
func (c *Coordinator) IsPlayerTurn(s *game.Session, playerID string) bool {
	if len(s.TurnOrder) == 0 {
		return true
	}
	return s.CurrentTurnPlayer() == playerID
}

// AdvanceTurn moves to the next player and restarts the turn timer.
func (c *Coordinator) AdvanceTurn(ctx context.Context, sessionID string) (*game.Session, error) {
	sess, err := c.store.Update(ctx, sessionID, func(s *game.Session) error {
		if s.Status.Terminal() {
			return game.ErrSessionFinished
		}
		s.CurrentTurnIdx++
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !sess.IsPaused && len(sess.TurnOrder) > 0 {
		c.StartTurnTimer(sessionID)
	}
	c.publish(ctx, sessionID, broadcast.EventTurnAdvanced, map[string]any{
		"currentPlayer": sess.CurrentTurnPlayer(),
		"turnIndex":     sess.CurrentTurnIdx,
	})
	return sess, nil
}

// StartTurnTimer (re)schedules the session's timer. Cancelling the prior
// timer before scheduling is mandatory, not incidental.
func (c *Coordinator) StartTurnTimer(sessionID string) {
	c.mu.Lock()
	if prior, ok := c.timers[sessionID]; ok {
		prior.Stop()
	}
	c.timers[sessionID] = time.AfterFunc(c.turnDuration, func() {
		c.onTurnTimeout(sessionID)
	})
	c.mu.Unlock()
}

// CancelTurnTimer stops any pending timer for the session. Used when a
// session pauses, finishes or expires.
func (c *Coordinator) CancelTurnTimer(sessionID string) {
	c.mu.Lock()
	if timer, ok := c.timers[sessionID]; ok {
		timer.Stop()
		delete(c.timers, sessionID)
	}
	c.mu.Unlock()
}

// onTurnTimeout auto-advances the turn and broadcasts the timeout. A
// paused or finished session swallows the event.
func (c *Coordinator) onTurnTimeout(sessionID string) {
	c.mu.Lock()
	delete(c.timers, sessionID)
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeoutOpTimeout)
	defer cancel()

	var timedOut string
	sess, err := c.store.Update(ctx, sessionID, func(s *game.Session) error {
		if s.Status != game.StatusActive || s.IsPaused {
			return game.ErrSessionFinished
		}
		timedOut = s.CurrentTurnPlayer()
		s.CurrentTurnIdx++
		return nil
	})
	if err != nil {
		c.log.Debug().Str("session", sessionID).Err(err).Msg("turn timeout dropped")
		return
	}

	c.publish(ctx, sessionID, broadcast.EventTurnTimeout, map[string]any{
		"timedOutPlayer": timedOut,
		"currentPlayer":  sess.CurrentTurnPlayer(),
		"turnIndex":      sess.CurrentTurnIdx,
	})
	if len(sess.TurnOrder) > 0 {
		c.StartTurnTimer(sessionID)
	}
}

// HandleExpiry is the store's expiry hook target: a reaped session must
// not leave a live timer behind.
func (c *Coordinator) HandleExpiry(sessionID string) {
	c.CancelTurnTimer(sessionID)
}

// publish fires an event without waiting on delivery.
func (c *Coordinator) publish(ctx context.Context, sessionID, eventType string, data map[string]any) {
	if err := c.pub.Publish(ctx, sessionID, broadcast.New(eventType, sessionID, data)); err != nil {
		c.log.Warn().Str("session", sessionID).Str("event", eventType).Err(err).Msg("broadcast failed")
	}
}
