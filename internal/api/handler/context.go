package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/taskboard/tasktracker/internal/api/middleware"
	"github.com/taskboard/tasktracker/internal/core/domain"
)

// callerIdentity returns the identity attached by middleware.RequireRoles.
// A route mounted without it fails closed with domain.ErrUnauthenticated.
func callerIdentity(c echo.Context) (domain.Identity, error) {
	return middleware.IdentityFromContext(c)
}
