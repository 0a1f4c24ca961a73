package ports

import (
	"context"

	"github.com/taskboard/tasktracker/internal/core/domain"
)

// UserRepository is the credential store.
type UserRepository interface {
	// Create persists user. A taken username yields domain.ErrUserExists.
	Create(ctx context.Context, user *domain.User) error
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
}
