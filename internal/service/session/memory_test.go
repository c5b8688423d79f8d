package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/model/game"
)

func newTestStore() *MemoryStore {
	return NewMemoryStore(zerolog.Nop())
}

func TestMemoryStoreCreateAndGet(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	created, err := store.Create(ctx, "", game.KindTrivia, []string{"alice", "bob"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, game.StatusIdle, created.Status)
	assert.Equal(t, []string{"alice", "bob"}, created.TurnOrder)

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Len(t, got.Participants, 2)
}

func TestMemoryStoreSinglePlayerHasNoTurnOrder(t *testing.T) {
	store := newTestStore()

	created, err := store.Create(context.Background(), "", game.KindTrivia, []string{"solo"})
	require.NoError(t, err)
	assert.Empty(t, created.TurnOrder)
}

func TestMemoryStoreCreateConflict(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	_, err := store.Create(ctx, "fixed", game.KindTrivia, []string{"alice"})
	require.NoError(t, err)

	_, err = store.Create(ctx, "fixed", game.KindTrivia, []string{"bob"})
	assert.ErrorIs(t, err, game.ErrConflictingUpdate)
}

func TestMemoryStoreGetMissing(t *testing.T) {
	store := newTestStore()

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, game.ErrSessionNotFound)
}

func TestMemoryStoreUpdateBumpsVersion(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	created, err := store.Create(ctx, "", game.KindTrivia, []string{"alice"})
	require.NoError(t, err)

	updated, err := store.Update(ctx, created.ID, func(s *game.Session) error {
		s.Status = game.StatusActive
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, game.StatusActive, updated.Status)
	assert.Equal(t, created.Version+1, updated.Version)
}

func TestMemoryStoreUpdateErrorDiscardsChanges(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	created, err := store.Create(ctx, "", game.KindTrivia, []string{"alice"})
	require.NoError(t, err)

	_, err = store.Update(ctx, created.ID, func(s *game.Session) error {
		s.Status = game.StatusActive
		return game.ErrNotPlayerTurn
	})
	assert.ErrorIs(t, err, game.ErrNotPlayerTurn)

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, game.StatusIdle, got.Status, "failed mutators must not persist")
	assert.Equal(t, created.Version, got.Version)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	created, err := store.Create(ctx, "", game.KindTrivia, []string{"alice"})
	require.NoError(t, err)

	created.Participants[0].Score = 999

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Participants[0].Score, "caller mutations must not reach the store")
}

func TestMemoryStoreConcurrentScoring(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	created, err := store.Create(ctx, "", game.KindTrivia, []string{"alice"})
	require.NoError(t, err)

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := store.Update(ctx, created.ID, func(s *game.Session) error {
				s.ApplyScore("alice", 1, true, time.Now())
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	player, ok := got.Player("alice")
	require.True(t, ok)
	assert.Equal(t, workers, player.Score, "every increment must be applied exactly once")
	assert.Equal(t, created.Version+workers, got.Version)
}

func TestMemoryStoreScoreAndRank(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	created, err := store.Create(ctx, "", game.KindTrivia, []string{"a", "b", "c"})
	require.NoError(t, err)

	got, err := store.Update(ctx, created.ID, func(s *game.Session) error {
		now := time.Now()
		s.ApplyScore("a", 10, true, now)
		s.ApplyScore("b", 10, true, now)
		s.ApplyScore("c", 5, true, now)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 1, got.Rank("a"))
	assert.Equal(t, 1, got.Rank("b"))
	assert.Equal(t, 3, got.Rank("c"))
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	current := time.Now()
	store.now = func() time.Time { return current }

	created, err := store.Create(ctx, "", game.KindTrivia, []string{"alice"})
	require.NoError(t, err)

	var expired []string
	store.SetExpiryHook(func(sessionID string) {
		expired = append(expired, sessionID)
	})

	current = current.Add(TTL + time.Minute)

	_, err = store.Get(ctx, created.ID)
	assert.ErrorIs(t, err, game.ErrSessionNotFound, "expired sessions read as absent")
	assert.Equal(t, []string{created.ID}, expired, "expiry hook fires on reap")

	_, err = store.Get(ctx, created.ID)
	assert.ErrorIs(t, err, game.ErrSessionNotFound)
	assert.Len(t, expired, 1, "a reaped session fires the hook once")
}

func TestMemoryStoreUpdateRefreshesTTL(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	current := time.Now()
	store.now = func() time.Time { return current }

	created, err := store.Create(ctx, "", game.KindTrivia, []string{"alice"})
	require.NoError(t, err)

	current = current.Add(TTL - time.Minute)
	_, err = store.Update(ctx, created.ID, func(s *game.Session) error { return nil })
	require.NoError(t, err)

	current = current.Add(TTL - time.Minute)
	_, err = store.Get(ctx, created.ID)
	assert.NoError(t, err, "activity extends the session lifetime")
}

func TestMemoryStoreSweep(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	current := time.Now()
	store.now = func() time.Time { return current }

	stale, err := store.Create(ctx, "", game.KindTrivia, []string{"alice"})
	require.NoError(t, err)

	current = current.Add(30 * time.Minute)
	fresh, err := store.Create(ctx, "", game.KindBingo, []string{"bob"})
	require.NoError(t, err)

	var expired []string
	store.SetExpiryHook(func(sessionID string) {
		expired = append(expired, sessionID)
	})

	current = current.Add(TTL - 10*time.Minute)
	store.sweep()

	assert.Equal(t, []string{stale.ID}, expired)
	_, err = store.Get(ctx, fresh.ID)
	assert.NoError(t, err, "unexpired sessions survive the sweep")
}

func TestMemoryStoreDelete(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	created, err := store.Create(ctx, "", game.KindTrivia, []string{"alice"})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, created.ID))
	_, err = store.Get(ctx, created.ID)
	assert.ErrorIs(t, err, game.ErrSessionNotFound)
	assert.ErrorIs(t, store.Delete(ctx, created.ID), game.ErrSessionNotFound)
}
