package ports

import (
	"context"

	"github.com/taskboard/tasktracker/internal/core/domain"
)

// Authenticator resolves the Authorization header of a request into the
// caller's identity. Every failure is reported as domain.ErrUnauthenticated.
type Authenticator interface {
	Authenticate(ctx context.Context, authorization string) (domain.Identity, error)
}
