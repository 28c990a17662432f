package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iare/sceh-portal/internal/core/domain"
	"github.com/iare/sceh-portal/internal/core/ports"
)

const defaultSessionTTL = 24 * time.Hour

var errIncompleteSession = errors.New("session needs an email and a known role")

// SessionManager issues signed session tokens and keeps the matching record
// in a SessionStore. The token only carries the session id and role; the
// store is the source of truth.
type SessionManager struct {
	store  ports.SessionStore
	secret []byte
	ttl    time.Duration
	log    zerolog.Logger
}

func NewSessionManager(store ports.SessionStore, secret string, ttl time.Duration, log zerolog.Logger) *SessionManager {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionManager{store: store, secret: []byte(secret), ttl: ttl, log: log}
}

// TTL is the lifetime of new sessions.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Login persists s under a fresh session id and returns its token. Sessions
// that Current could not read back are refused.
func (m *SessionManager) Login(ctx context.Context, s domain.UserSession) (string, error) {
	if s.Email == "" || !s.Role.Valid() {
		return "", errIncompleteSession
	}

	sid := uuid.NewString()
	if err := m.store.Save(ctx, sid, s, m.ttl); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}

	claims := jwt.MapClaims{
		"sid":  sid,
		"role": string(s.Role),
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(m.ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		_ = m.store.Delete(ctx, sid)
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

// Current returns the session behind token, or nil. It never fails: bad
// signatures, expired tokens and missing or corrupt records all mean "no
// session".
func (m *SessionManager) Current(ctx context.Context, token string) *domain.UserSession {
	sid, ok := m.sessionID(token)
	if !ok {
		return nil
	}

	s, err := m.store.Get(ctx, sid)
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			m.log.Warn().Err(err).Msg("session lookup failed")
		}
		return nil
	}
	return &s
}

// Logout removes the session behind token. Unknown, expired or malformed
// tokens are ignored so repeated calls are harmless.
func (m *SessionManager) Logout(ctx context.Context, token string) error {
	sid, ok := m.sessionID(token)
	if !ok {
		return nil
	}
	if err := m.store.Delete(ctx, sid); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (m *SessionManager) sessionID(token string) (string, bool) {
	if token == "" {
		return "", false
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil || !tkn.Valid {
		return "", false
	}

	sid, _ := claims["sid"].(string)
	return sid, sid != ""
}
