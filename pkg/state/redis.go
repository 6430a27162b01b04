package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps state in a single Redis string, so several workers
// scheduling the same tap share bookmarks.
type RedisStore struct {
	redis *redis.Client
	key   Key
	ttl   time.Duration
}

// NewRedisStore creates a Redis-backed store. ttl 0 keeps state forever.
func NewRedisStore(redisClient *redis.Client, key Key, ttl time.Duration) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{
		redis: redisClient,
		key:   key,
		ttl:   ttl,
	}
}

// Key returns the Redis key holding the state.
func (r *RedisStore) Key() string {
	return r.key.String()
}

// Load retrieves the state. A missing key yields an empty state.
func (r *RedisStore) Load(ctx context.Context) (*State, error) {
	data, err := r.redis.Get(ctx, r.key.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return New(), nil
		}
		stateErrors.WithLabelValues("redis", "load").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	s, err := Decode(data)
	if err != nil {
		stateErrors.WithLabelValues("redis", "load").Inc()
		return nil, err
	}
	return s, nil
}

// Save stores the state.
func (r *RedisStore) Save(ctx context.Context, s *State) error {
	if s == nil {
		return fmt.Errorf("state cannot be nil")
	}

	data, err := json.Marshal(s)
	if err != nil {
		stateErrors.WithLabelValues("redis", "save").Inc()
		return fmt.Errorf("marshal state: %w", err)
	}

	if err := r.redis.Set(ctx, r.key.String(), data, r.ttl).Err(); err != nil {
		stateErrors.WithLabelValues("redis", "save").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	stateSaves.WithLabelValues("redis").Inc()
	stateSize.WithLabelValues("redis").Set(float64(len(data)))
	return nil
}
