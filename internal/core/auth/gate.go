package auth

import (
	"context"

	"github.com/taskboard/tasktracker/internal/core/domain"
	"github.com/taskboard/tasktracker/internal/core/ports"
)

// Gate restricts an operation to a fixed set of roles.
type Gate struct {
	allowed map[domain.Role]struct{}
}

// NewGate returns a Gate allowing roles. With no roles every known role is
// allowed.
func NewGate(roles ...domain.Role) Gate {
	if len(roles) == 0 {
		roles = domain.Roles()
	}
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return Gate{allowed: allowed}
}

// Allows reports whether role passes the gate.
func (g Gate) Allows(role domain.Role) bool {
	_, ok := g.allowed[role]
	return ok
}

// Check returns domain.ErrForbidden when the identity's role is not allowed.
func (g Gate) Check(id domain.Identity) error {
	if !g.Allows(id.Role) {
		return domain.ErrForbidden
	}
	return nil
}

// Authorize authenticates the request and then applies the gate. An invalid
// credential fails with domain.ErrUnauthenticated, a valid one with the
// wrong role with domain.ErrForbidden.
func (g Gate) Authorize(ctx context.Context, authn ports.Authenticator, authorization string) (domain.Identity, error) {
	id, err := authn.Authenticate(ctx, authorization)
	if err != nil {
		return domain.Identity{}, err
	}
	if err := g.Check(id); err != nil {
		return domain.Identity{}, err
	}
	return id, nil
}
