package ports

import (
	"context"

	"github.com/iare/sceh-portal/internal/core/domain"
)

// AuthRepository persists local portal accounts.
type AuthRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}
