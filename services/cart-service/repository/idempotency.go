package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyPrefix = "idem:cart:"

// IdempotencyStore remembers batch results by client key. A nil client disables it.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl}
}

func (s *IdempotencyStore) key(scope, key string) string {
	return idempotencyPrefix + scope + ":" + key
}

// Get returns the stored value, or "" when the key is unknown.
func (s *IdempotencyStore) Get(ctx context.Context, scope, key string) (string, error) {
	if s == nil || s.client == nil {
		return "", nil
	}
	val, err := s.client.Get(ctx, s.key(scope, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (s *IdempotencyStore) Set(ctx context.Context, scope, key, value string) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Set(ctx, s.key(scope, key), value, s.ttl).Err()
}
