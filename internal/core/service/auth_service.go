package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/iare/sceh-portal/internal/core/domain"
	"github.com/iare/sceh-portal/internal/core/ports"
)

const (
	defaultStateTTL = 10 * time.Minute

	methodPassword = "password"
	methodQuick    = "quick"
	providerDemo   = "demo"
)

// AuthOptions configures the optional collaborators of AuthService.
type AuthOptions struct {
	Roster    domain.Roster
	DemoMode  bool
	Providers []ports.IdentityProvider
	States    ports.StateStore
	StateTTL  time.Duration
	Auditor   ports.Auditor
}

// AuthService resolves logins from every source into a single session.
type AuthService struct {
	repo      ports.AuthRepository
	sessions  *SessionManager
	roster    domain.Roster
	demoMode  bool
	providers map[string]ports.IdentityProvider
	states    ports.StateStore
	stateTTL  time.Duration
	auditor   ports.Auditor
	log       zerolog.Logger
}

func NewAuthService(repo ports.AuthRepository, sessions *SessionManager, opts AuthOptions, log zerolog.Logger) *AuthService {
	if opts.Roster == nil {
		opts.Roster = domain.DefaultRoster()
	}
	if opts.StateTTL <= 0 {
		opts.StateTTL = defaultStateTTL
	}
	if opts.Auditor == nil {
		opts.Auditor = noopAuditor{}
	}

	providers := make(map[string]ports.IdentityProvider, len(opts.Providers))
	for _, p := range opts.Providers {
		providers[p.Name()] = p
	}

	return &AuthService{
		repo:      repo,
		sessions:  sessions,
		roster:    opts.Roster,
		demoMode:  opts.DemoMode,
		providers: providers,
		states:    opts.States,
		stateTTL:  opts.StateTTL,
		auditor:   opts.Auditor,
		log:       log,
	}
}

// Roster returns the known demo users.
func (s *AuthService) Roster() domain.Roster {
	return s.roster
}

// Register creates a local account with a bcrypt password hash.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" || in.Role == "" {
		return nil, domain.ErrMissingCredentials
	}

	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = domain.ResolveDisplayName(email, s.roster)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         role,
		Department:   in.Department,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Login accepts an email and password. Registered accounts must present the
// right password; other identifiers are resolved by email pattern when demo
// mode is on and rejected otherwise.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.ErrMissingCredentials
	}

	user, err := s.findAccount(ctx, email)
	switch {
	case err == nil:
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
			s.recordFailure(email, methodPassword, "password mismatch")
			return nil, domain.ErrInvalidCredentials
		}
		return s.start(ctx, domain.UserSession{
			ID:         user.ID,
			Name:       user.Name,
			Email:      user.Email,
			Role:       user.Role,
			Department: user.Department,
			Provider:   "local",
		}, methodPassword)

	case errors.Is(err, domain.ErrUserNotFound):
		if !s.demoMode {
			s.recordFailure(email, methodPassword, "unknown account")
			return nil, domain.ErrInvalidCredentials
		}
		return s.start(ctx, s.resolve(email), methodPassword)

	default:
		return nil, fmt.Errorf("login: %w", err)
	}
}

// QuickLogin signs in one of the roster users without a password.
func (s *AuthService) QuickLogin(ctx context.Context, email string) (*ports.LoginResult, error) {
	if !s.demoMode {
		return nil, domain.ErrDemoDisabled
	}
	if _, ok := s.roster.Lookup(email); !ok {
		return nil, domain.ErrUserNotFound
	}
	return s.start(ctx, s.resolve(email), methodQuick)
}

// BeginProviderLogin starts a redirect based login and returns the URL the
// browser should visit.
func (s *AuthService) BeginProviderLogin(ctx context.Context, provider string) (string, error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", domain.ErrProviderNotConfigured
	}
	rp, ok := p.(ports.RedirectProvider)
	if !ok || s.states == nil {
		return "", domain.ErrProviderNotConfigured
	}

	state := uuid.NewString()
	if err := s.states.Put(ctx, state, s.stateTTL); err != nil {
		return "", fmt.Errorf("store login state: %w", err)
	}
	return rp.AuthCodeURL(state), nil
}

// LoginWithProvider authenticates against an external identity provider and
// normalizes its answer into a session.
func (s *AuthService) LoginWithProvider(ctx context.Context, provider string, creds ports.Credentials) (*ports.LoginResult, error) {
	p, ok := s.providers[provider]
	if !ok {
		return nil, domain.ErrProviderNotConfigured
	}

	if _, redirect := p.(ports.RedirectProvider); redirect {
		if s.states == nil || creds.State == "" {
			return nil, domain.ErrInvalidState
		}
		valid, err := s.states.Consume(ctx, creds.State)
		if err != nil {
			return nil, fmt.Errorf("consume login state: %w", err)
		}
		if !valid {
			return nil, domain.ErrInvalidState
		}
	}

	res := p.Authenticate(ctx, creds)
	if !res.Success || res.User == nil {
		s.recordFailure(creds.Username, provider, res.Error)
		return nil, fmt.Errorf("%w: %s", domain.ErrIdentityProvider, res.Error)
	}

	sess, err := s.normalize(provider, res.User)
	if err != nil {
		s.recordFailure(res.User.Email, provider, err.Error())
		return nil, err
	}
	return s.start(ctx, sess, provider)
}

// Logout ends the session behind token. Calling it again is a no-op.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	cur := s.sessions.Current(ctx, token)
	if err := s.sessions.Logout(ctx, token); err != nil {
		return err
	}
	if cur != nil {
		s.auditor.Enqueue(domain.SessionEvent{
			Kind:   domain.EventLogout,
			UserID: cur.ID,
			Email:  cur.Email,
			Role:   cur.Role,
			Method: cur.Provider,
			At:     time.Now().UTC(),
		})
	}
	return nil
}

// Current returns the session behind token, or nil.
func (s *AuthService) Current(ctx context.Context, token string) *domain.UserSession {
	return s.sessions.Current(ctx, token)
}

func (s *AuthService) findAccount(ctx context.Context, email string) (*domain.User, error) {
	if s.repo == nil {
		return nil, domain.ErrUserNotFound
	}
	return s.repo.FindByEmail(ctx, email)
}

// resolve builds a demo session. Roster entries keep their declared role and
// name; anything else falls back to the email pattern.
func (s *AuthService) resolve(email string) domain.UserSession {
	role := domain.ResolveRole(email)
	name := domain.ResolveDisplayName(email, s.roster)
	if e, ok := s.roster.Lookup(email); ok {
		role, name = e.Role, e.Name
	}
	return domain.UserSession{
		ID:       domain.NewUserID(role),
		Name:     name,
		Email:    email,
		Role:     role,
		Provider: providerDemo,
	}
}

func (s *AuthService) normalize(provider string, u *domain.IdentityUser) (domain.UserSession, error) {
	email := strings.TrimSpace(u.Email)
	if email == "" {
		return domain.UserSession{}, fmt.Errorf("%w: %s returned no email", domain.ErrIdentityProvider, provider)
	}

	role, err := domain.ParseRole(u.Role)
	if err != nil {
		return domain.UserSession{}, fmt.Errorf("%s role %q: %w", provider, u.Role, err)
	}

	id := u.ID
	if id == "" {
		id = domain.NewUserID(role)
	}
	name := u.Name
	if name == "" {
		name = domain.ResolveDisplayName(email, s.roster)
	}

	return domain.UserSession{
		ID:         id,
		Name:       name,
		Email:      email,
		Role:       role,
		Department: u.Department,
		Year:       u.Year,
		Section:    u.Section,
		Provider:   provider,
	}, nil
}

func (s *AuthService) start(ctx context.Context, sess domain.UserSession, method string) (*ports.LoginResult, error) {
	token, err := s.sessions.Login(ctx, sess)
	if err != nil {
		return nil, err
	}

	s.auditor.Enqueue(domain.SessionEvent{
		Kind:   domain.EventLogin,
		UserID: sess.ID,
		Email:  sess.Email,
		Role:   sess.Role,
		Method: method,
		At:     time.Now().UTC(),
	})
	s.log.Info().
		Str("user_id", sess.ID).
		Str("role", string(sess.Role)).
		Str("method", method).
		Msg("session started")

	return &ports.LoginResult{Token: token, Session: sess, Redirect: sess.Role.HomePath()}, nil
}

func (s *AuthService) recordFailure(email, method, detail string) {
	s.auditor.Enqueue(domain.SessionEvent{
		Kind:   domain.EventLoginFailed,
		Email:  email,
		Method: method,
		Detail: detail,
		At:     time.Now().UTC(),
	})
}

type noopAuditor struct{}

func (noopAuditor) Enqueue(domain.SessionEvent) {}
