package ports

import (
	"context"

	"github.com/taskboard/tasktracker/internal/core/domain"
)

// UserService defines account registration and login.
type UserService interface {
	Register(ctx context.Context, username, password, role string) (*domain.User, error)
	// Login returns a signed access token for valid credentials.
	Login(ctx context.Context, username, password string) (string, error)
}
