package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ClaimStore implements ports.IdempotencyClaimStore using Redis SET NX.
// A claim marks an idempotency key as in flight; the TTL guards against a
// crashed holder pinning the key forever.
type ClaimStore struct {
	client *goredis.Client
	prefix string
}

// NewClaimStore creates a new Redis-backed claim store.
func NewClaimStore(client *goredis.Client) *ClaimStore {
	return &ClaimStore{
		client: client,
		prefix: "claim:",
	}
}

// Acquire atomically claims the key. Returns false if another caller already
// holds it.
func (s *ClaimStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	result, err := s.client.SetArgs(ctx, s.prefix+key, 1, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if err == goredis.Nil {
			// Key already exists, claim is held
			return false, nil
		}
		return false, fmt.Errorf("redis claim acquire: %w", err)
	}
	return result == "OK", nil
}

// Release frees the claim.
func (s *ClaimStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis claim release: %w", err)
	}
	return nil
}

// Exists reports whether the claim is currently held.
func (s *ClaimStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("redis claim exists: %w", err)
	}
	return n > 0, nil
}
