package ports

import (
	"context"
	"time"

	"github.com/iare/sceh-portal/internal/core/domain"
)

// SessionStore keeps session records keyed by an opaque session id.
// Get returns domain.ErrSessionNotFound for absent or unreadable records.
// Delete of an absent key is not an error.
type SessionStore interface {
	Save(ctx context.Context, sid string, s domain.UserSession, ttl time.Duration) error
	Get(ctx context.Context, sid string) (domain.UserSession, error)
	Delete(ctx context.Context, sid string) error
}

// StateStore holds single-use values such as OAuth state parameters.
type StateStore interface {
	Put(ctx context.Context, state string, ttl time.Duration) error
	Consume(ctx context.Context, state string) (bool, error)
}
