package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iare/sceh-portal/internal/core/domain"
)

// SessionStore keeps session records as JSON values with a TTL.
// Key format: session:<sid>
type SessionStore struct {
	client redis.Cmdable
}

// NewSessionStore creates a SessionStore wrapping the given Redis client.
func NewSessionStore(client redis.Cmdable) *SessionStore {
	return &SessionStore{client: client}
}

func (s *SessionStore) Save(ctx context.Context, sid string, sess domain.UserSession, ttl time.Duration) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sid), b, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Get loads a session. Records that do not decode into a valid session are
// reported as domain.ErrSessionNotFound.
func (s *SessionStore) Get(ctx context.Context, sid string) (domain.UserSession, error) {
	b, err := s.client.Get(ctx, s.key(sid)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.UserSession{}, domain.ErrSessionNotFound
		}
		return domain.UserSession{}, fmt.Errorf("load session: %w", err)
	}

	var sess domain.UserSession
	if err := json.Unmarshal(b, &sess); err != nil || sess.Email == "" || !sess.Role.Valid() {
		return domain.UserSession{}, fmt.Errorf("%w: malformed record", domain.ErrSessionNotFound)
	}
	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, sid string) error {
	if err := s.client.Del(ctx, s.key(sid)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) key(sid string) string {
	return "session:" + sid
}
