package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voyago/travel-concierge/pkg/logging"
)

// RedisStore persists sessions as JSON values. The version check rides on
// WATCH: a concurrent write between read and commit fails the transaction.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

func NewRedisStore(client *redis.Client, ttl time.Duration, logger *logging.Logger) *RedisStore {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisStore{client: client, ttl: ttl, logger: logger}
}

var _ Store = (*RedisStore)(nil)

func redisSessionKey(id string) string {
	return "session:" + id
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := s.client.Get(ctx, redisSessionKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: failed to load %s: %w", id, err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("session: failed to unmarshal %s: %w", id, err)
	}
	return &sess, nil
}

func (s *RedisStore) Put(ctx context.Context, sess *Session, expectedVersion int64) error {
	if sess == nil {
		return errors.New("session: session cannot be nil")
	}
	key := redisSessionKey(sess.ID)

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Result()
		switch {
		case errors.Is(err, redis.Nil):
			if expectedVersion != 0 {
				return ErrVersionConflict
			}
		case err != nil:
			return fmt.Errorf("session: failed to read current version of %s: %w", sess.ID, err)
		default:
			var current Session
			if err := json.Unmarshal([]byte(raw), &current); err != nil {
				return fmt.Errorf("session: failed to unmarshal %s: %w", sess.ID, err)
			}
			if current.Version != expectedVersion {
				return ErrVersionConflict
			}
		}

		sess.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
		sess.Version = expectedVersion + 1

		payload, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("session: failed to marshal %s: %w", sess.ID, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		sess.Version = expectedVersion
		return ErrVersionConflict
	}
	if errors.Is(err, ErrVersionConflict) {
		sess.Version = expectedVersion
		return ErrVersionConflict
	}
	if err != nil {
		return fmt.Errorf("session: failed to persist %s: %w", sess.ID, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, redisSessionKey(id)).Err(); err != nil {
		return fmt.Errorf("session: failed to delete %s: %w", id, err)
	}
	return nil
}
