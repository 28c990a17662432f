package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iare/sceh-portal/internal/api/metrics"
	"github.com/iare/sceh-portal/internal/core/domain"
)

const (
	ctxSessionKey = "session"
	ctxTokenKey   = "session_token"
)

// SessionReader resolves a token to a session, returning nil when there is none.
type SessionReader interface {
	Current(ctx context.Context, token string) *domain.UserSession
}

// Session loads the caller's session from the Authorization bearer token or
// the session cookie and stores it in the context. It never rejects a
// request: an invalid or stale token simply means an anonymous caller.
func Session(reader SessionReader, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := requestToken(c, cookieName)
			if token == "" {
				metrics.SessionLookupsTotal.WithLabelValues("miss").Inc()
				return next(c)
			}

			c.Set(ctxTokenKey, token)
			if s := reader.Current(c.Request().Context(), token); s != nil {
				c.Set(ctxSessionKey, s)
				metrics.SessionLookupsTotal.WithLabelValues("hit").Inc()
			} else {
				metrics.SessionLookupsTotal.WithLabelValues("miss").Inc()
			}
			return next(c)
		}
	}
}

// RequireSession rejects anonymous callers with 401.
func RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if SessionFrom(c) == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			return next(c)
		}
	}
}

// SessionFrom returns the session stored by Session, or nil.
func SessionFrom(c echo.Context) *domain.UserSession {
	s, _ := c.Get(ctxSessionKey).(*domain.UserSession)
	return s
}

// TokenFrom returns the raw session token presented by the caller, even when
// it no longer maps to a session.
func TokenFrom(c echo.Context) string {
	t, _ := c.Get(ctxTokenKey).(string)
	return t
}

func requestToken(c echo.Context, cookieName string) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie.Value
	}
	return ""
}
