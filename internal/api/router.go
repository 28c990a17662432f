package api

import (
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/iare/sceh-portal/docs"
	"github.com/iare/sceh-portal/internal/api/handler"
	"github.com/iare/sceh-portal/internal/api/middleware"
	"github.com/iare/sceh-portal/internal/core/domain"
	"github.com/iare/sceh-portal/internal/core/ports"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Auth             ports.AuthService
	Auditor          ports.Auditor
	Cookie           handler.SessionCookie
	StrictDashboards bool
	HealthChecks     map[string]handler.Checker
	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	Log        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	if d.Registerer == nil {
		d.Registerer = prometheus.DefaultRegisterer
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "portal",
		Subsystem:  "http",
		Registerer: d.Registerer,
		Skipper:    skipProbes,
	}))
	e.Use(middleware.Session(d.Auth, d.Cookie.Name))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Cookie, d.Log)
	pageHandler := handler.NewPageHandler(d.StrictDashboards)
	registrationHandler := handler.NewRegistrationHandler(d.Auditor)

	// --- Auth routes ---
	auth := e.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/quick-login", authHandler.QuickLogin)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/session", authHandler.Session)
	auth.GET("/role", authHandler.DetectRole)
	auth.GET("/demo-users", authHandler.DemoUsers)
	auth.POST("/register", authHandler.Register, middleware.RequireSession(), middleware.RBAC(domain.RoleAdmin))

	// --- External identity providers ---
	auth.POST("/college-login", authHandler.CollegeLogin)
	auth.POST("/ldap", authHandler.LDAPLogin)
	auth.GET("/oauth/login", authHandler.OAuthBegin)
	auth.GET("/oauth/callback", authHandler.OAuthCallback)
	auth.GET("/saml/login", authHandler.SAMLBegin)
	auth.POST("/saml/callback", authHandler.SAMLCallback)

	// --- Portal pages, one per guarded route ---
	for _, r := range domain.Routes() {
		e.GET(r.Path, pageHandler.Page(r))
	}
	e.GET("/api/nav", pageHandler.Nav)
	e.POST("/event-registration/:id", registrationHandler.Submit)

	// --- Health probes and tooling (no session required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.HealthChecks, d.Log)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func skipProbes(c echo.Context) bool {
	p := c.Path()
	return p == "/metrics" || strings.HasPrefix(p, "/health") || strings.HasPrefix(p, "/swagger")
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
