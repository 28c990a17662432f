package ports

import (
	"context"

	"github.com/iare/sceh-portal/internal/core/domain"
)

// RegisterInput is the DTO for creating a local account.
type RegisterInput struct {
	Email      string
	Name       string
	Password   string
	Role       string
	Department string
}

// LoginResult is returned by every successful login path.
type LoginResult struct {
	Token    string
	Session  domain.UserSession
	Redirect string
}

// AuthService covers every way of starting, reading and ending a session.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	QuickLogin(ctx context.Context, email string) (*LoginResult, error)
	BeginProviderLogin(ctx context.Context, provider string) (string, error)
	LoginWithProvider(ctx context.Context, provider string, creds Credentials) (*LoginResult, error)
	Logout(ctx context.Context, token string) error
	Current(ctx context.Context, token string) *domain.UserSession
	Roster() domain.Roster
}
