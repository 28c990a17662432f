package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iare/sceh-portal/internal/api/metrics"
	"github.com/iare/sceh-portal/internal/core/domain"
)

// PageHandler renders the guarded portal pages as JSON view models.
type PageHandler struct {
	strict bool
	now    func() time.Time
}

// NewPageHandler builds a PageHandler. In strict mode role dashboards reject
// signed-in users that do not hold the page's role.
func NewPageHandler(strict bool) *PageHandler {
	return &PageHandler{strict: strict, now: time.Now}
}

type pageResponse struct {
	Page     string              `json:"page"`
	Path     string              `json:"path"`
	Decision domain.Decision     `json:"decision"`
	User     *domain.UserSession `json:"user"`
	Nav      []domain.NavItem    `json:"nav"`
	Welcome  string              `json:"welcome,omitempty"`
}

// Page returns the handler for one route of the table. Redirect decisions
// answer 302, forbidden ones 403, everything else 200.
func (h *PageHandler) Page(route domain.Route) echo.HandlerFunc {
	return func(c echo.Context) error {
		s := currentSession(c)
		d := route.Guard(s, h.strict)
		metrics.GuardDecisionsTotal.WithLabelValues(route.Name, string(d.Kind)).Inc()

		if d.Kind == domain.DecisionRedirect {
			return c.Redirect(http.StatusFound, d.Location)
		}

		resp := pageResponse{
			Page:     route.Name,
			Path:     c.Request().URL.Path,
			Decision: d,
			User:     s,
			Nav:      domain.BuildNav(s),
		}
		if route.Path == "/" {
			resp.Welcome = domain.WelcomeMessage(s, h.now())
		}

		status := http.StatusOK
		if d.Kind == domain.DecisionForbidden {
			status = http.StatusForbidden
		}
		return c.JSON(status, resp)
	}
}

// Nav returns the navigation bar for the caller.
//
// @Summary      Navigation items
// @Tags         portal
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /api/nav [get]
func (h *PageHandler) Nav(c echo.Context) error {
	return c.JSON(http.StatusOK, newSessionResponse(currentSession(c)))
}
