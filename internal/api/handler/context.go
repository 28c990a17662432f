package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/iare/sceh-portal/internal/api/middleware"
	"github.com/iare/sceh-portal/internal/core/domain"
)

// currentSession returns the session loaded by the Session middleware, or nil
// for anonymous callers.
func currentSession(c echo.Context) *domain.UserSession {
	return middleware.SessionFrom(c)
}
