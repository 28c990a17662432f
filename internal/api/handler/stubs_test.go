package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iare/sceh-portal/internal/api/middleware"
	"github.com/iare/sceh-portal/internal/core/domain"
	"github.com/iare/sceh-portal/internal/core/ports"
)

const testCookie = "sceh_session"

type stubAuthService struct {
	registerFn  func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn     func(ctx context.Context, email, password string) (*ports.LoginResult, error)
	quickFn     func(ctx context.Context, email string) (*ports.LoginResult, error)
	beginFn     func(ctx context.Context, provider string) (string, error)
	providerFn  func(ctx context.Context, provider string, creds ports.Credentials) (*ports.LoginResult, error)
	sessions    map[string]*domain.UserSession
	loggedOut   []string
	rosterUsers domain.Roster
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) QuickLogin(ctx context.Context, email string) (*ports.LoginResult, error) {
	return s.quickFn(ctx, email)
}

func (s *stubAuthService) BeginProviderLogin(ctx context.Context, provider string) (string, error) {
	return s.beginFn(ctx, provider)
}

func (s *stubAuthService) LoginWithProvider(ctx context.Context, provider string, creds ports.Credentials) (*ports.LoginResult, error) {
	return s.providerFn(ctx, provider, creds)
}

func (s *stubAuthService) Logout(_ context.Context, token string) error {
	s.loggedOut = append(s.loggedOut, token)
	delete(s.sessions, token)
	return nil
}

func (s *stubAuthService) Current(_ context.Context, token string) *domain.UserSession {
	return s.sessions[token]
}

func (s *stubAuthService) Roster() domain.Roster {
	if s.rosterUsers == nil {
		return domain.DefaultRoster()
	}
	return s.rosterUsers
}

// fixedReader hands out the same session for any non-empty token.
type fixedReader struct {
	s *domain.UserSession
}

func (r fixedReader) Current(context.Context, string) *domain.UserSession {
	return r.s
}

type recordingAuditor struct {
	events []domain.SessionEvent
}

func (a *recordingAuditor) Enqueue(e domain.SessionEvent) {
	a.events = append(a.events, e)
}

var (
	studentSession = &domain.UserSession{ID: "STUDENT001", Name: "John Doe", Email: "john.doe@student.iare.ac.in", Role: domain.RoleStudent}
	adminSession   = &domain.UserSession{ID: "ADMIN001", Name: "Admin User", Email: "admin@iare.ac.in", Role: domain.RoleAdmin}
)

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

// serve runs h behind the Session middleware so the handler sees whatever
// session reader resolves for the request's bearer token or cookie.
func serve(e *echo.Echo, reader middleware.SessionReader, h echo.HandlerFunc, req *http.Request) (*httptest.ResponseRecorder, error) {
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := middleware.Session(reader, testCookie)(h)(c)
	return rec, err
}

func hasCookie(rec *httptest.ResponseRecorder, name, value string) bool {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name && c.Value == value {
			return true
		}
	}
	return false
}
