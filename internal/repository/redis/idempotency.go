package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const eventPrefix = "storefront:event:"

// IdempotencyStore implements kafka.IdempotencyStore with Redis keys that
// expire after ttl, so every consumer instance shares one view of handled
// events.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore creates a Redis-backed idempotency store.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl}
}

func (s *IdempotencyStore) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, eventPrefix+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists event: %w", err)
	}
	return n > 0, nil
}

func (s *IdempotencyStore) MarkSeen(ctx context.Context, eventID string) error {
	if err := s.client.Set(ctx, eventPrefix+eventID, 1, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set event: %w", err)
	}
	return nil
}
