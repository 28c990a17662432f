package ports

import (
	"context"

	"github.com/iare/sceh-portal/internal/core/domain"
)

// Credentials carries whatever a provider needs to authenticate. Each
// provider reads only its own fields.
type Credentials struct {
	Username     string
	Password     string
	Code         string
	State        string
	SAMLResponse string
}

// IdentityProvider authenticates against an external college system.
// Failures are reported in the result, never as a panic or error.
type IdentityProvider interface {
	Name() string
	Authenticate(ctx context.Context, creds Credentials) domain.IdentityResult
}

// RedirectProvider is implemented by providers that start with a browser
// redirect to the college login page.
type RedirectProvider interface {
	IdentityProvider
	AuthCodeURL(state string) string
}
