package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const readinessTimeout = 3 * time.Second

// Checker reports whether one dependency is reachable.
type Checker func(ctx context.Context) error

// MongoCheck pings the database the session audit and accounts live in.
func MongoCheck(db *mongo.Database) Checker {
	return func(ctx context.Context) error {
		return db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
	}
}

// RedisCheck pings the session store.
func RedisCheck(rdb redis.Cmdable) Checker {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}

// HealthHandler handles GET /health, the liveness probe.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// HealthDependenciesHandler handles GET /health/ready, the readiness probe.
// Failure causes are logged, never returned to the caller.
type HealthDependenciesHandler struct {
	checks map[string]Checker
	log    zerolog.Logger
}

func NewHealthDependenciesHandler(checks map[string]Checker, log zerolog.Logger) *HealthDependenciesHandler {
	return &HealthDependenciesHandler{checks: checks, log: log}
}

type dependencyStatus struct {
	Status string `json:"status"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

func (h *HealthDependenciesHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	deps := make(map[string]dependencyStatus, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.log.Warn().Err(err).Str("dependency", name).Msg("readiness check failed")
			deps[name] = dependencyStatus{Status: "unhealthy"}
			healthy = false
			continue
		}
		deps[name] = dependencyStatus{Status: "ok"}
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, readinessResponse{
		Status:       status,
		Dependencies: deps,
	})
}
