package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultStateTTL = 10 * time.Minute

// StateStore holds single-use login state values backed by Redis.
// Key format: oauth_state:<state>
type StateStore struct {
	client redis.Cmdable
}

// NewStateStore creates a StateStore wrapping the given Redis client.
func NewStateStore(client redis.Cmdable) *StateStore {
	return &StateStore{client: client}
}

// Put records state until ttl elapses (defaultStateTTL when ttl <= 0).
func (s *StateStore) Put(ctx context.Context, state string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	if err := s.client.Set(ctx, s.key(state), "1", ttl).Err(); err != nil {
		return fmt.Errorf("store state: %w", err)
	}
	return nil
}

// Consume reports whether state was stored and removes it atomically, so a
// state value is accepted at most once.
func (s *StateStore) Consume(ctx context.Context, state string) (bool, error) {
	if state == "" {
		return false, nil
	}
	_, err := s.client.GetDel(ctx, s.key(state)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("consume state: %w", err)
	}
	return true, nil
}

func (s *StateStore) key(state string) string {
	return fmt.Sprintf("oauth_state:%s", state)
}
