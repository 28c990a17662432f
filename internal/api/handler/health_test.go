package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func TestHealthHandler_Liveness(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)

	if err := NewHealthHandler().Liveness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealthDependencies_Readiness(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	h := NewHealthDependenciesHandler(map[string]Checker{
		"redis":   RedisCheck(rdb),
		"mongodb": func(context.Context) error { return nil },
	}, zerolog.Nop())

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)
	if err := h.Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHealthDependencies_Degraded(t *testing.T) {
	h := NewHealthDependenciesHandler(map[string]Checker{
		"redis":   func(context.Context) error { return nil },
		"mongodb": func(context.Context) error { return errors.New("dial tcp 10.0.0.5:27017: connection refused") },
	}, zerolog.Nop())

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)
	_ = h.Readiness(c)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	var resp readinessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Status != "degraded" || resp.Dependencies["mongodb"].Status != "unhealthy" {
		t.Fatalf("unexpected readiness payload: %+v", resp)
	}
	if strings.Contains(rec.Body.String(), "10.0.0.5") {
		t.Fatalf("readiness body leaks dependency error: %s", rec.Body.String())
	}
	if resp.Dependencies["redis"].Status != "ok" {
		t.Fatalf("redis should be ok: %+v", resp.Dependencies["redis"])
	}
}
