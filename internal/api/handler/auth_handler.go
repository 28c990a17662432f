package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iare/sceh-portal/internal/api/metrics"
	"github.com/iare/sceh-portal/internal/api/middleware"
	"github.com/iare/sceh-portal/internal/core/domain"
	"github.com/iare/sceh-portal/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	cookie      SessionCookie
	log         zerolog.Logger
}

func NewAuthHandler(authService ports.AuthService, cookie SessionCookie, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, cookie: cookie, log: log}
}

type registerRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Name       string `json:"name,omitempty"`
	Password   string `json:"password" validate:"required,min=8"`
	Role       string `json:"role" validate:"required,oneof=student faculty coordinator hod admin"`
	Department string `json:"department,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type quickLoginRequest struct {
	Email string `json:"email"`
}

type userResponse struct {
	User *domain.User `json:"user"`
}

type loginResponse struct {
	Token    string             `json:"token"`
	User     domain.UserSession `json:"user"`
	Redirect string             `json:"redirect"`
	Nav      []domain.NavItem   `json:"nav"`
}

type sessionResponse struct {
	User      *domain.UserSession `json:"user"`
	RoleIcon  string              `json:"role_icon,omitempty"`
	RoleLabel string              `json:"role_label,omitempty"`
	Nav       []domain.NavItem    `json:"nav"`
}

type roleResponse struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
	Label string      `json:"label"`
	Icon  string      `json:"icon"`
	Name  string      `json:"name"`
}

type demoUser struct {
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  domain.Role `json:"role"`
	Icon  string      `json:"icon"`
}

// Register creates a local account. Admin only.
//
// @Summary      Register a local account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:      req.Email,
		Name:       req.Name,
		Password:   req.Password,
		Role:       req.Role,
		Department: req.Department,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, userResponse{User: user})
}

// Login starts a session from email and password.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	return h.finish(c, "password", res, err)
}

// QuickLogin starts a session for one of the demo roster users.
//
// @Summary      Demo quick login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      quickLoginRequest  true  "Demo user email"
// @Success      200   {object}  loginResponse
// @Failure      404   {object}  map[string]string
// @Router       /auth/quick-login [post]
func (h *AuthHandler) QuickLogin(c echo.Context) error {
	var req quickLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	res, err := h.authService.QuickLogin(c.Request().Context(), req.Email)
	return h.finish(c, "quick", res, err)
}

// Logout ends the caller's session. Repeating it is harmless.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.authService.Logout(c.Request().Context(), middleware.TokenFrom(c)); err != nil {
		return err
	}
	c.SetCookie(h.cookie.clear())
	metrics.LogoutsTotal.Inc()

	return c.JSON(http.StatusOK, map[string]string{"redirect": "/"})
}

// Session returns the current session with its navigation, or a null user.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	return c.JSON(http.StatusOK, newSessionResponse(currentSession(c)))
}

// DetectRole previews the role and name a demo login would produce.
//
// @Summary      Detect role from email
// @Tags         auth
// @Produce      json
// @Param        email  query     string  true  "Email or username"
// @Success      200    {object}  roleResponse
// @Failure      400    {object}  map[string]string
// @Router       /auth/role [get]
func (h *AuthHandler) DetectRole(c echo.Context) error {
	email := strings.TrimSpace(c.QueryParam("email"))
	if email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}

	role := domain.ResolveRole(email)
	return c.JSON(http.StatusOK, roleResponse{
		Email: email,
		Role:  role,
		Label: role.Label(),
		Icon:  role.Icon(),
		Name:  domain.ResolveDisplayName(email, h.authService.Roster()),
	})
}

// DemoUsers lists the quick-login roster.
//
// @Summary      Demo users
// @Tags         auth
// @Produce      json
// @Success      200  {array}  demoUser
// @Router       /auth/demo-users [get]
func (h *AuthHandler) DemoUsers(c echo.Context) error {
	roster := h.authService.Roster()
	out := make([]demoUser, 0, len(roster))
	for _, e := range roster {
		out = append(out, demoUser{Email: e.Email, Name: e.Name, Role: e.Role, Icon: e.Role.Icon()})
	}
	return c.JSON(http.StatusOK, out)
}

// finish answers a login attempt with JSON.
func (h *AuthHandler) finish(c echo.Context, method string, res *ports.LoginResult, err error) error {
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(method, failureReason(err)).Inc()
		return err
	}
	h.establish(c, method, res)

	return c.JSON(http.StatusOK, loginResponse{
		Token:    res.Token,
		User:     res.Session,
		Redirect: res.Redirect,
		Nav:      domain.BuildNav(&res.Session),
	})
}

// finishRedirect answers a browser callback by sending it to the role home.
func (h *AuthHandler) finishRedirect(c echo.Context, method string, res *ports.LoginResult, err error) error {
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(method, failureReason(err)).Inc()
		return err
	}
	h.establish(c, method, res)

	return c.Redirect(http.StatusFound, res.Redirect)
}

// establish replaces any session the caller already held with the new one.
func (h *AuthHandler) establish(c echo.Context, method string, res *ports.LoginResult) {
	if prev := middleware.TokenFrom(c); prev != "" && prev != res.Token {
		if err := h.authService.Logout(c.Request().Context(), prev); err != nil {
			h.log.Warn().Err(err).Msg("failed to drop previous session")
		}
	}
	c.SetCookie(h.cookie.issue(res.Token))
	metrics.LoginsTotal.WithLabelValues(method, "success").Inc()
}

func newSessionResponse(s *domain.UserSession) sessionResponse {
	resp := sessionResponse{User: s, Nav: domain.BuildNav(s)}
	if s != nil {
		resp.RoleIcon = s.Role.Icon()
		resp.RoleLabel = s.Role.Label()
	}
	return resp
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingCredentials):
		return "missing_credentials"
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUserNotFound):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrIdentityProvider):
		return "provider_rejected"
	case errors.Is(err, domain.ErrUnknownRole):
		return "unknown_role"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, domain.ErrDemoDisabled), errors.Is(err, domain.ErrProviderNotConfigured):
		return "disabled"
	default:
		return "error"
	}
}
