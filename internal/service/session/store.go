// Package session owns the only mutable shared state in the system:
// per-session game state with a 1-hour inactivity TTL. Updates are
// linearizable per session id; different sessions never block each other.
package session

import (
	"context"
	"time"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/model/game"
)

// TTL is the inactivity window after which a session expires. Expiry is
// advisory: reads after expiry return not-found and trigger cleanup.
const TTL = time.Hour

// maxConflictRetries bounds internal retries on conflicting concurrent
// writes before surfacing ErrStoreUnavailable.
const maxConflictRetries = 3

// Mutator applies an atomic read-modify-write to a session. Returning an
// error aborts the update without persisting anything.
type Mutator func(*game.Session) error

// Store is the narrow contract every component loads session state
// through. No component holds session data outside the store.
type Store interface {
	Create(ctx context.Context, id string, kind game.Kind, players []string) (*game.Session, error)
	Get(ctx context.Context, id string) (*game.Session, error)
	Update(ctx context.Context, id string, mutate Mutator) (*game.Session, error)
	Delete(ctx context.Context, id string) error
}

// ExpiryHook is invoked with the session id when a session is reaped, so
// the coordinator can cancel any timers bound to it.
type ExpiryHook func(sessionID string)

// newSession builds the initial record shared by both store backends.
func newSession(id string, kind game.Kind, players []string, now time.Time) *game.Session {
	s := &game.Session{
		ID:         id,
		Kind:       kind,
		Status:     game.StatusIdle,
		Round:      0,
		CreatedAt:  now,
		LastUpdate: now,
	}
	for _, playerID := range players {
		s.Participants = append(s.Participants, game.PlayerState{
			PlayerID:     playerID,
			LastActionAt: now,
		})
	}
	if len(players) > 1 {
		s.TurnOrder = append([]string(nil), players...)
	}
	return s
}
