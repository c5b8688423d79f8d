package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/model/game"
)

// sweepInterval is how often the background reaper scans for expired
// sessions.
const sweepInterval = time.Minute

type entry struct {
	mu      sync.Mutex
	session *game.Session
}

// MemoryStore keeps sessions in process memory with a per-session lock,
// so updates to one session serialize while other sessions proceed in
// parallel. Suitable for single-node deployments and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*entry
	hook    ExpiryHook
	now     func() time.Time
	log     zerolog.Logger
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(log zerolog.Logger) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*entry),
		now:     time.Now,
		log:     log.With().Str("component", "session-store").Logger(),
	}
}

// SetExpiryHook registers the cleanup callback fired when a session is
// reaped or found expired on read.
func (s *MemoryStore) SetExpiryHook(hook ExpiryHook) {
	s.mu.Lock()
	s.hook = hook
	s.mu.Unlock()
}

// Create provisions a new session. An empty id is replaced with a fresh
// uuid; creating over an existing id conflicts.
func (s *MemoryStore) Create(_ context.Context, id string, kind game.Kind, players []string) (*game.Session, error) {
	if id == "" {
		id = uuid.NewString()
	}
	now := s.now()
	created := newSession(id, kind, players, now)

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.entries[id]; ok && !s.expiredLocked(existing) {
		return nil, game.ErrConflictingUpdate
	}
	s.entries[id] = &entry{session: created}
	return created.Clone(), nil
}

// Get returns a copy of the session, treating expired records as absent.
func (s *MemoryStore) Get(_ context.Context, id string) (*game.Session, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, game.ErrSessionNotFound
	}

	e.mu.Lock()
	expired := s.isExpired(e.session)
	var clone *game.Session
	if !expired {
		clone = e.session.Clone()
	}
	e.mu.Unlock()

	if expired {
		s.reap(id)
		return nil, game.ErrSessionNotFound
	}
	return clone, nil
}

// Update applies the mutator under the session's own lock, so two
// concurrent updates to the same session never interleave partial
// writes.
func (s *MemoryStore) Update(_ context.Context, id string, mutate Mutator) (*game.Session, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, game.ErrSessionNotFound
	}

	e.mu.Lock()
	if s.isExpired(e.session) {
		e.mu.Unlock()
		s.reap(id)
		return nil, game.ErrSessionNotFound
	}

	working := e.session.Clone()
	if err := mutate(working); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	working.Version++
	working.Touch(s.now())
	e.session = working
	clone := working.Clone()
	e.mu.Unlock()
	return clone, nil
}

// Delete removes the session without firing the expiry hook.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return game.ErrSessionNotFound
	}
	delete(s.entries, id)
	return nil
}

// Run sweeps expired sessions until the context is cancelled.
func (s *MemoryStore) Run(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep reaps every expired session in one pass. Entry locks are taken
// after the map lock everywhere, never the other way around.
func (s *MemoryStore) sweep() {
	s.mu.Lock()
	var expired []string
	for id, e := range s.entries {
		if s.expiredLocked(e) {
			expired = append(expired, id)
			delete(s.entries, id)
		}
	}
	hook := s.hook
	s.mu.Unlock()

	for _, id := range expired {
		s.log.Debug().Str("session", id).Msg("session expired, reaping")
		if hook != nil {
			hook(id)
		}
	}
}

func (s *MemoryStore) isExpired(sess *game.Session) bool {
	return s.now().Sub(sess.LastUpdate) > TTL
}

func (s *MemoryStore) expiredLocked(e *entry) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return s.isExpired(e.session)
}

// reap removes a session discovered expired during a read and fires the
// cleanup hook.
func (s *MemoryStore) reap(id string) {
	s.mu.Lock()
	delete(s.entries, id)
	hook := s.hook
	s.mu.Unlock()
	if hook != nil {
		hook(id)
	}
}
