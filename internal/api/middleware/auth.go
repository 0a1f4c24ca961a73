package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/taskboard/tasktracker/internal/api/metrics"
	"github.com/taskboard/tasktracker/internal/core/auth"
	"github.com/taskboard/tasktracker/internal/core/domain"
	"github.com/taskboard/tasktracker/internal/core/ports"
)

const identityKey = "identity"

// SetIdentity attaches the authenticated caller to the request context.
func SetIdentity(c echo.Context, id domain.Identity) {
	c.Set(identityKey, id)
}

// IdentityFromContext returns the caller attached by RequireRoles. It fails
// with domain.ErrUnauthenticated when the route was not authenticated.
func IdentityFromContext(c echo.Context) (domain.Identity, error) {
	id, ok := c.Get(identityKey).(domain.Identity)
	if !ok || id.ID == "" {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	return id, nil
}

// RequireRoles authenticates the Authorization header and admits the caller
// only when their role is in roles. With no roles any authenticated caller
// is admitted. Failures are returned as domain errors for the central error
// handler: ErrUnauthenticated becomes 401 and ErrForbidden 403.
func RequireRoles(authn ports.Authenticator, roles ...domain.Role) echo.MiddlewareFunc {
	gate := auth.NewGate(roles...)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)

			id, err := authn.Authenticate(c.Request().Context(), header)
			if err != nil {
				if reason := auth.FailureReason(err); reason != "" {
					metrics.AuthFailuresTotal.WithLabelValues(reason).Inc()
				}
				return err
			}

			if err := gate.Check(id); err != nil {
				metrics.ForbiddenTotal.WithLabelValues(string(id.Role)).Inc()
				return err
			}

			SetIdentity(c, id)
			return next(c)
		}
	}
}
