package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// BackOffStore remembers, per EWS endpoint, until when the server asked
// clients to hold off. Entries expire on their own once the delay elapses.
type BackOffStore struct {
	client *redis.Client
	prefix string
}

func NewBackOffStore(client *redis.Client, prefix string) *BackOffStore {
	return &BackOffStore{client: client, prefix: prefix}
}

func (s *BackOffStore) key(endpoint string) string {
	return s.prefix + endpoint
}

// Record stores a back-off of d for endpoint, replacing any earlier one.
// Non-positive delays are ignored.
func (s *BackOffStore) Record(ctx context.Context, endpoint string, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	value := strconv.FormatInt(d.Milliseconds(), 10)
	if err := s.client.Set(ctx, s.key(endpoint), value, d).Err(); err != nil {
		return fmt.Errorf("failed to record back-off for %s: %w", endpoint, err)
	}
	return nil
}

// Remaining returns how long requests to endpoint should still be held back.
// Zero means no back-off is active.
func (s *BackOffStore) Remaining(ctx context.Context, endpoint string) (time.Duration, error) {
	ttl, err := s.client.PTTL(ctx, s.key(endpoint)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read back-off for %s: %w", endpoint, err)
	}
	// -2 for a missing key, -1 for a key without expiry.
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

func (s *BackOffStore) Clear(ctx context.Context, endpoint string) error {
	if err := s.client.Del(ctx, s.key(endpoint)).Err(); err != nil {
		return fmt.Errorf("failed to clear back-off for %s: %w", endpoint, err)
	}
	return nil
}
