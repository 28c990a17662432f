package service

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/iare/sceh-portal/internal/core/domain"
	"github.com/iare/sceh-portal/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubAuthRepo struct {
	users   map[string]*domain.User
	findErr error
}

func newStubAuthRepo() *stubAuthRepo {
	return &stubAuthRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubAuthRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, exists := r.users[user.Email]; exists {
		return nil, domain.ErrUserExists
	}
	copy := cloneUser(user)
	if copy.ID == "" {
		copy.ID = "id-" + user.Email
	}
	r.users[copy.Email] = cloneUser(copy)
	return cloneUser(copy), nil
}

func (r *stubAuthRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	if u, ok := r.users[email]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

type stubProvider struct {
	name   string
	result domain.IdentityResult
	got    ports.Credentials
	calls  int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Authenticate(_ context.Context, creds ports.Credentials) domain.IdentityResult {
	p.calls++
	p.got = creds
	return p.result
}

type stubRedirectProvider struct {
	stubProvider
}

func (p *stubRedirectProvider) AuthCodeURL(state string) string {
	return "https://sso.example.edu/authorize?state=" + state
}

type memStateStore struct {
	states map[string]bool
}

func (m *memStateStore) Put(_ context.Context, state string, _ time.Duration) error {
	m.states[state] = true
	return nil
}

func (m *memStateStore) Consume(_ context.Context, state string) (bool, error) {
	ok := m.states[state]
	delete(m.states, state)
	return ok, nil
}

type recordingAuditor struct {
	events []domain.SessionEvent
}

func (a *recordingAuditor) Enqueue(e domain.SessionEvent) {
	a.events = append(a.events, e)
}

func (a *recordingAuditor) kinds() []domain.SessionEventKind {
	out := make([]domain.SessionEventKind, len(a.events))
	for i, e := range a.events {
		out[i] = e.Kind
	}
	return out
}

type authFixture struct {
	svc     *AuthService
	repo    *stubAuthRepo
	store   *memSessionStore
	states  *memStateStore
	auditor *recordingAuditor
}

func newAuthFixture(demo bool, providers ...ports.IdentityProvider) *authFixture {
	f := &authFixture{
		repo:    newStubAuthRepo(),
		store:   newMemSessionStore(),
		states:  &memStateStore{states: make(map[string]bool)},
		auditor: &recordingAuditor{},
	}
	sessions := NewSessionManager(f.store, "secret", time.Hour, zerolog.Nop())
	f.svc = NewAuthService(f.repo, sessions, AuthOptions{
		DemoMode:  demo,
		Providers: providers,
		States:    f.states,
		Auditor:   f.auditor,
	}, zerolog.Nop())
	return f
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestAuthService_Register_Success(t *testing.T) {
	f := newAuthFixture(true)

	user, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Email:    "dr.rao@faculty.iare.ac.in",
		Password: "pass123",
		Role:     "faculty",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if user.Role != domain.RoleFaculty {
		t.Fatalf("unexpected role: %s", user.Role)
	}
	if user.Name != "Dr Rao" {
		t.Fatalf("expected derived name, got %q", user.Name)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	f := newAuthFixture(true)

	if _, err := f.svc.Register(context.Background(), ports.RegisterInput{Email: "", Password: "x", Role: "admin"}); err != domain.ErrMissingCredentials {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	if _, err := f.svc.Register(context.Background(), ports.RegisterInput{Email: "a@b", Password: "x", Role: "janitor"}); err != domain.ErrUnknownRole {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	f := newAuthFixture(true)
	in := ports.RegisterInput{Email: "a@iare.ac.in", Password: "x", Role: "student"}

	if _, err := f.svc.Register(context.Background(), in); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := f.svc.Register(context.Background(), in); err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestAuthService_Login_DemoStudent(t *testing.T) {
	f := newAuthFixture(true)

	res, err := f.svc.Login(context.Background(), "john.doe@student.iare.ac.in", "anything")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if res.Session.Role != domain.RoleStudent || res.Session.Name != "John Doe" {
		t.Fatalf("unexpected session: %+v", res.Session)
	}
	if !regexp.MustCompile(`^STUDENT\d{3}$`).MatchString(res.Session.ID) {
		t.Fatalf("unexpected id %q", res.Session.ID)
	}
	if res.Redirect != "/" {
		t.Fatalf("unexpected redirect %q", res.Redirect)
	}

	cur := f.svc.Current(context.Background(), res.Token)
	if cur == nil || !reflect.DeepEqual(*cur, res.Session) {
		t.Fatalf("current session mismatch: %+v", cur)
	}
}

func TestAuthService_Login_DemoAdminRedirect(t *testing.T) {
	f := newAuthFixture(true)

	res, err := f.svc.Login(context.Background(), "admin@iare.ac.in", "x")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if res.Session.Role != domain.RoleAdmin || res.Redirect != "/admin" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestAuthService_Login_MissingFields(t *testing.T) {
	f := newAuthFixture(true)

	if _, err := f.svc.Login(context.Background(), "", "x"); err != domain.ErrMissingCredentials {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	if _, err := f.svc.Login(context.Background(), "a@b", ""); err != domain.ErrMissingCredentials {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	if len(f.store.records) != 0 {
		t.Fatalf("no session should be created")
	}
}

func TestAuthService_Login_LocalAccount(t *testing.T) {
	f := newAuthFixture(false)
	if _, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Email: "hod.cse@iare.ac.in", Name: "Dr. Rao", Password: "s3cret", Role: "hod",
	}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if _, err := f.svc.Login(context.Background(), "hod.cse@iare.ac.in", "wrong"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	res, err := f.svc.Login(context.Background(), "hod.cse@iare.ac.in", "s3cret")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if res.Session.Role != domain.RoleHOD || res.Session.Name != "Dr. Rao" || res.Session.ID != "id-hod.cse@iare.ac.in" {
		t.Fatalf("unexpected session: %+v", res.Session)
	}
}

func TestAuthService_Login_NonDemoRejectsUnknown(t *testing.T) {
	f := newAuthFixture(false)

	if _, err := f.svc.Login(context.Background(), "john.doe@student.iare.ac.in", "x"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if got := f.auditor.kinds(); !reflect.DeepEqual(got, []domain.SessionEventKind{domain.EventLoginFailed}) {
		t.Fatalf("unexpected audit events: %v", got)
	}
}

func TestAuthService_Login_RepoError(t *testing.T) {
	f := newAuthFixture(true)
	f.repo.findErr = errors.New("mongo down")

	if _, err := f.svc.Login(context.Background(), "a@b", "x"); err == nil || errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected wrapped repository error, got %v", err)
	}
}

func TestAuthService_QuickLogin(t *testing.T) {
	f := newAuthFixture(true)

	res, err := f.svc.QuickLogin(context.Background(), "sarah.coordinator@iare.ac.in")
	if err != nil {
		t.Fatalf("QuickLogin returned error: %v", err)
	}
	if res.Session.Role != domain.RoleCoordinator || res.Session.Name != "Sarah Johnson" {
		t.Fatalf("unexpected session: %+v", res.Session)
	}
	if res.Redirect != "/coordinator-dashboard" {
		t.Fatalf("unexpected redirect %q", res.Redirect)
	}

	if _, err := f.svc.QuickLogin(context.Background(), "stranger@iare.ac.in"); err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	off := newAuthFixture(false)
	if _, err := off.svc.QuickLogin(context.Background(), "admin@iare.ac.in"); err != domain.ErrDemoDisabled {
		t.Fatalf("expected ErrDemoDisabled, got %v", err)
	}
}

func TestAuthService_QuickLogin_UsesRosterRole(t *testing.T) {
	store := newMemSessionStore()
	sessions := NewSessionManager(store, "secret", time.Hour, zerolog.Nop())
	svc := NewAuthService(nil, sessions, AuthOptions{
		DemoMode: true,
		Roster: domain.Roster{
			{Email: "jane.roe@iare.ac.in", Name: "Dr. Jane Roe", Role: domain.RoleFaculty},
		},
	}, zerolog.Nop())

	res, err := svc.QuickLogin(context.Background(), "jane.roe@iare.ac.in")
	if err != nil {
		t.Fatalf("QuickLogin returned error: %v", err)
	}
	if res.Session.Role != domain.RoleFaculty || res.Session.Name != "Dr. Jane Roe" {
		t.Fatalf("unexpected session: %+v", res.Session)
	}
	if res.Redirect != "/faculty-dashboard" {
		t.Fatalf("unexpected redirect %q", res.Redirect)
	}

	// Password login in demo mode resolves the same entry.
	res, err = svc.Login(context.Background(), "jane.roe@iare.ac.in", "x")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if res.Session.Role != domain.RoleFaculty {
		t.Fatalf("unexpected role %q", res.Session.Role)
	}

	// Identifiers outside the roster still go by email pattern.
	res, err = svc.Login(context.Background(), "someone@hod.iare.ac.in", "x")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if res.Session.Role != domain.RoleHOD {
		t.Fatalf("unexpected role %q", res.Session.Role)
	}
}

// ---------------------------------------------------------------------------
// Logout
// ---------------------------------------------------------------------------

func TestAuthService_LogoutIsIdempotent(t *testing.T) {
	f := newAuthFixture(true)
	res, err := f.svc.Login(context.Background(), "dr.smith@faculty.iare.ac.in", "x")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := f.svc.Logout(context.Background(), res.Token); err != nil {
			t.Fatalf("logout %d: %v", i, err)
		}
	}
	if f.svc.Current(context.Background(), res.Token) != nil {
		t.Fatalf("expected no session after logout")
	}

	want := []domain.SessionEventKind{domain.EventLogin, domain.EventLogout}
	if got := f.auditor.kinds(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected audit events: %v", got)
	}
}

// ---------------------------------------------------------------------------
// Identity providers
// ---------------------------------------------------------------------------

func TestAuthService_LoginWithProvider_Success(t *testing.T) {
	p := &stubProvider{name: "college", result: domain.IdentityResult{
		Success: true,
		User: &domain.IdentityUser{
			ID: "21951A0501", Name: "Priya Sharma", Email: "priya@student.iare.ac.in",
			Role: "Student", Department: "CSE", Year: "3", Section: "A",
		},
		Token: "upstream-token",
	}}
	f := newAuthFixture(false, p)

	res, err := f.svc.LoginWithProvider(context.Background(), "college", ports.Credentials{Username: "21951A0501", Password: "pw"})
	if err != nil {
		t.Fatalf("LoginWithProvider returned error: %v", err)
	}
	want := domain.UserSession{
		ID: "21951A0501", Name: "Priya Sharma", Email: "priya@student.iare.ac.in",
		Role: domain.RoleStudent, Department: "CSE", Year: "3", Section: "A", Provider: "college",
	}
	if !reflect.DeepEqual(res.Session, want) {
		t.Fatalf("unexpected session: %+v", res.Session)
	}
	if p.got.Username != "21951A0501" || p.got.Password != "pw" {
		t.Fatalf("credentials not forwarded: %+v", p.got)
	}
}

func TestAuthService_LoginWithProvider_Failure(t *testing.T) {
	p := &stubProvider{name: "ldap", result: domain.IdentityFailure("Invalid credentials")}
	f := newAuthFixture(false, p)

	_, err := f.svc.LoginWithProvider(context.Background(), "ldap", ports.Credentials{Username: "u"})
	if !errors.Is(err, domain.ErrIdentityProvider) {
		t.Fatalf("expected ErrIdentityProvider, got %v", err)
	}
	if len(f.store.records) != 0 {
		t.Fatalf("no session should be created")
	}
}

func TestAuthService_LoginWithProvider_UnknownRole(t *testing.T) {
	p := &stubProvider{name: "college", result: domain.IdentityResult{
		Success: true,
		User:    &domain.IdentityUser{ID: "X1", Email: "x@iare.ac.in", Role: "superuser"},
	}}
	f := newAuthFixture(false, p)

	if _, err := f.svc.LoginWithProvider(context.Background(), "college", ports.Credentials{}); !errors.Is(err, domain.ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}

func TestAuthService_LoginWithProvider_MissingEmail(t *testing.T) {
	p := &stubProvider{name: "ldap", result: domain.IdentityResult{
		Success: true,
		User:    &domain.IdentityUser{ID: "jdoe", Name: "J Doe", Role: "faculty"},
	}}
	f := newAuthFixture(false, p)

	res, err := f.svc.LoginWithProvider(context.Background(), "ldap", ports.Credentials{Username: "jdoe", Password: "pw"})
	if !errors.Is(err, domain.ErrIdentityProvider) {
		t.Fatalf("expected ErrIdentityProvider, got %v (result %+v)", err, res)
	}
	if len(f.store.records) != 0 {
		t.Fatalf("no session should be created")
	}
	want := []domain.SessionEventKind{domain.EventLoginFailed}
	if got := f.auditor.kinds(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected audit events: %v", got)
	}
}

func TestAuthService_LoginWithProvider_FillsMissingIDAndName(t *testing.T) {
	p := &stubProvider{name: "saml", result: domain.IdentityResult{
		Success: true,
		User:    &domain.IdentityUser{Email: "ravi.kumar@faculty.iare.ac.in", Role: "faculty"},
	}}
	f := newAuthFixture(false, p)

	res, err := f.svc.LoginWithProvider(context.Background(), "saml", ports.Credentials{})
	if err != nil {
		t.Fatalf("LoginWithProvider returned error: %v", err)
	}
	if res.Session.Name != "Ravi Kumar" {
		t.Fatalf("unexpected name %q", res.Session.Name)
	}
	if !regexp.MustCompile(`^FACULTY\d{3}$`).MatchString(res.Session.ID) {
		t.Fatalf("unexpected id %q", res.Session.ID)
	}
}

func TestAuthService_LoginWithProvider_NotConfigured(t *testing.T) {
	f := newAuthFixture(true)
	if _, err := f.svc.LoginWithProvider(context.Background(), "oauth", ports.Credentials{}); err != domain.ErrProviderNotConfigured {
		t.Fatalf("expected ErrProviderNotConfigured, got %v", err)
	}
	if _, err := f.svc.BeginProviderLogin(context.Background(), "oauth"); err != domain.ErrProviderNotConfigured {
		t.Fatalf("expected ErrProviderNotConfigured, got %v", err)
	}
}

func TestAuthService_RedirectProvider_StateIsSingleUse(t *testing.T) {
	p := &stubRedirectProvider{stubProvider{name: "oauth", result: domain.IdentityResult{
		Success: true,
		User:    &domain.IdentityUser{ID: "E100", Name: "Anita Rao", Email: "anita@iare.ac.in", Role: "hod"},
	}}}
	f := newAuthFixture(false, p)

	url, err := f.svc.BeginProviderLogin(context.Background(), "oauth")
	if err != nil {
		t.Fatalf("BeginProviderLogin returned error: %v", err)
	}
	if len(f.states.states) != 1 {
		t.Fatalf("expected one stored state")
	}
	var state string
	for s := range f.states.states {
		state = s
	}
	if url != "https://sso.example.edu/authorize?state="+state {
		t.Fatalf("unexpected url %q", url)
	}

	res, err := f.svc.LoginWithProvider(context.Background(), "oauth", ports.Credentials{Code: "abc", State: state})
	if err != nil {
		t.Fatalf("LoginWithProvider returned error: %v", err)
	}
	if res.Redirect != "/admin" {
		t.Fatalf("unexpected redirect %q", res.Redirect)
	}

	if _, err := f.svc.LoginWithProvider(context.Background(), "oauth", ports.Credentials{Code: "abc", State: state}); err != domain.ErrInvalidState {
		t.Fatalf("expected ErrInvalidState on replay, got %v", err)
	}
	if p.calls != 1 {
		t.Fatalf("provider should be called once, got %d", p.calls)
	}
}
