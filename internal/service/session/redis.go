package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/model/game"
)

const sessionKeyPrefix = "game:session:"

// RedisStore persists sessions in Redis with the store TTL and resolves
// concurrent writes optimistically: updates run under WATCH so a
// conflicting write fails the transaction and is retried a bounded
// number of times before surfacing as store-unavailable.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// Create provisions a new session record. An existing live id conflicts.
func (s *RedisStore) Create(ctx context.Context, id string, kind game.Kind, players []string) (*game.Session, error) {
	if id == "" {
		id = uuid.NewString()
	}
	created := newSession(id, kind, players, s.now())
	payload, err := json.Marshal(created)
	if err != nil {
		return nil, errors.Wrap(err, "marshal session")
	}

	ok, err := s.client.SetNX(ctx, sessionKey(id), payload, TTL).Result()
	if err != nil {
		return nil, errors.Wrap(game.ErrStoreUnavailable, err.Error())
	}
	if !ok {
		return nil, game.ErrConflictingUpdate
	}
	return created, nil
}

// Get loads a session; a missing or TTL-expired key is not found.
func (s *RedisStore) Get(ctx context.Context, id string) (*game.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, game.ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.Wrap(game.ErrStoreUnavailable, err.Error())
	}

	var sess game.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, errors.Wrap(err, "unmarshal session")
	}
	return &sess, nil
}

// Update applies the mutator under an optimistic transaction. The WATCH
// fails when another writer touches the key mid-flight, which retries
// the whole read-modify-write.
func (s *RedisStore) Update(ctx context.Context, id string, mutate Mutator) (*game.Session, error) {
	key := sessionKey(id)
	var updated *game.Session
	var mutateErr error

	attempt := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return game.ErrSessionNotFound
		}
		if err != nil {
			return err
		}

		var sess game.Session
		if err := json.Unmarshal(data, &sess); err != nil {
			return errors.Wrap(err, "unmarshal session")
		}
		if err := mutate(&sess); err != nil {
			mutateErr = err
			return err
		}
		sess.Version++
		sess.Touch(s.now())

		payload, err := json.Marshal(&sess)
		if err != nil {
			return errors.Wrap(err, "marshal session")
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, TTL)
			return nil
		})
		if err != nil {
			return err
		}
		updated = &sess
		return nil
	}

	for i := 0; i < maxConflictRetries; i++ {
		mutateErr = nil
		err := s.client.Watch(ctx, attempt, key)
		switch {
		case err == nil:
			return updated, nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case mutateErr != nil:
			return nil, mutateErr
		case errors.Is(err, game.ErrSessionNotFound):
			return nil, err
		default:
			return nil, errors.Wrap(game.ErrStoreUnavailable, err.Error())
		}
	}
	return nil, errors.Wrap(game.ErrStoreUnavailable, game.ErrConflictingUpdate.Error())
}

// Delete removes the session record.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	deleted, err := s.client.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		return errors.Wrap(game.ErrStoreUnavailable, err.Error())
	}
	if deleted == 0 {
		return game.ErrSessionNotFound
	}
	return nil
}
