package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iare/sceh-portal/internal/api/handler"
	"github.com/iare/sceh-portal/internal/core/domain"
	"github.com/iare/sceh-portal/internal/core/service"
	redisstore "github.com/iare/sceh-portal/internal/infrastructure/db/redis"
)

type emptyRepo struct{}

func (emptyRepo) FindByEmail(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (emptyRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	return u, nil
}

type discardAuditor struct{}

func (discardAuditor) Enqueue(domain.SessionEvent) {}

const cookieName = "sceh_session"

func newTestServer(t *testing.T, strict bool) *httptest.Server {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := zerolog.New(io.Discard)
	sessions := service.NewSessionManager(redisstore.NewSessionStore(rdb), "test-secret", time.Hour, log)
	auth := service.NewAuthService(emptyRepo{}, sessions, service.AuthOptions{DemoMode: true}, log)

	reg := prometheus.NewRegistry()
	e := NewRouter(Deps{
		Auth:             auth,
		Auditor:          discardAuditor{},
		Cookie:           handler.SessionCookie{Name: cookieName, TTL: time.Hour},
		StrictDashboards: strict,
		HealthChecks:     map[string]handler.Checker{"redis": handler.RedisCheck(rdb)},
		Registerer:       reg,
		Gatherer:         reg,
		Log:              log,
	})

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

// noRedirect keeps 3xx responses visible to the test.
func noRedirect(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

func do(t *testing.T, srv *httptest.Server, method, path, body, token string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: token})
	}

	client := &http.Client{CheckRedirect: noRedirect}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func login(t *testing.T, srv *httptest.Server, email string) string {
	t.Helper()
	resp := do(t, srv, http.MethodPost, "/auth/login", `{"email":"`+email+`","password":"demo123"}`, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d", email, resp.StatusCode)
	}
	for _, c := range resp.Cookies() {
		if c.Name == cookieName {
			return c.Value
		}
	}
	t.Fatalf("login %s: no session cookie", email)
	return ""
}

func TestRouter_SessionLifecycle(t *testing.T) {
	srv := newTestServer(t, true)

	if resp := do(t, srv, http.MethodGet, "/admin", "", ""); resp.StatusCode != http.StatusFound {
		t.Fatalf("anonymous /admin: expected 302, got %d", resp.StatusCode)
	}

	token := login(t, srv, "admin@iare.ac.in")

	if resp := do(t, srv, http.MethodGet, "/admin", "", token); resp.StatusCode != http.StatusOK {
		t.Fatalf("admin /admin: expected 200, got %d", resp.StatusCode)
	}

	resp := do(t, srv, http.MethodGet, "/auth/session", "", token)
	var sess struct {
		User *domain.UserSession `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if sess.User == nil || sess.User.Name != "Admin User" || sess.User.Role != domain.RoleAdmin {
		t.Fatalf("unexpected session: %+v", sess.User)
	}

	if resp := do(t, srv, http.MethodPost, "/auth/logout", "", token); resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", resp.StatusCode)
	}
	if resp := do(t, srv, http.MethodGet, "/admin", "", token); resp.StatusCode != http.StatusFound {
		t.Fatalf("/admin after logout: expected 302, got %d", resp.StatusCode)
	}
	if resp := do(t, srv, http.MethodPost, "/auth/logout", "", token); resp.StatusCode != http.StatusOK {
		t.Fatalf("second logout: expected 200, got %d", resp.StatusCode)
	}
}

func TestRouter_StrictDashboards(t *testing.T) {
	srv := newTestServer(t, true)
	token := login(t, srv, "john.doe@student.iare.ac.in")

	if resp := do(t, srv, http.MethodGet, "/faculty-dashboard", "", token); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("student on faculty dashboard: expected 403, got %d", resp.StatusCode)
	}
	if resp := do(t, srv, http.MethodGet, "/admin", "", token); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("student on /admin: expected 403, got %d", resp.StatusCode)
	}
}

func TestRouter_LenientDashboards(t *testing.T) {
	srv := newTestServer(t, false)
	token := login(t, srv, "john.doe@student.iare.ac.in")

	if resp := do(t, srv, http.MethodGet, "/faculty-dashboard", "", token); resp.StatusCode != http.StatusOK {
		t.Fatalf("lenient faculty dashboard: expected 200, got %d", resp.StatusCode)
	}
}

func TestRouter_LoginErrors(t *testing.T) {
	srv := newTestServer(t, true)

	resp := do(t, srv, http.MethodPost, "/auth/login", `{"email":"","password":""}`, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty login: expected 400, got %d", resp.StatusCode)
	}

	resp = do(t, srv, http.MethodPost, "/auth/quick-login", `{"email":"nobody@iare.ac.in"}`, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown quick login: expected 404, got %d", resp.StatusCode)
	}

	resp = do(t, srv, http.MethodGet, "/auth/saml/login", "", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unconfigured provider: expected 404, got %d", resp.StatusCode)
	}
}

func TestRouter_RegisterRequiresAdmin(t *testing.T) {
	srv := newTestServer(t, true)
	body := `{"email":"new@faculty.iare.ac.in","password":"longenough","role":"faculty"}`

	if resp := do(t, srv, http.MethodPost, "/auth/register", body, ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous register: expected 401, got %d", resp.StatusCode)
	}

	student := login(t, srv, "john.doe@student.iare.ac.in")
	if resp := do(t, srv, http.MethodPost, "/auth/register", body, student); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("student register: expected 403, got %d", resp.StatusCode)
	}

	admin := login(t, srv, "admin@iare.ac.in")
	if resp := do(t, srv, http.MethodPost, "/auth/register", body, admin); resp.StatusCode != http.StatusCreated {
		t.Fatalf("admin register: expected 201, got %d", resp.StatusCode)
	}
}

func TestRouter_EventRegistrationRequiresSession(t *testing.T) {
	srv := newTestServer(t, true)

	resp := do(t, srv, http.MethodPost, "/event-registration/42", `{"fullName":"x"}`, "")
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/auth/login" {
		t.Fatalf("expected 303 to login, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	token := login(t, srv, "john.doe@student.iare.ac.in")
	resp = do(t, srv, http.MethodPost, "/event-registration/42", `{"fullName":"x"}`, token)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("incomplete form: expected 422, got %d", resp.StatusCode)
	}
}

func TestRouter_Probes(t *testing.T) {
	srv := newTestServer(t, true)

	for _, path := range []string{"/health", "/health/ready", "/metrics"} {
		if resp := do(t, srv, http.MethodGet, path, "", ""); resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
		}
	}
}
