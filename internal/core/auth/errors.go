package auth

import (
	"errors"

	"github.com/taskboard/tasktracker/internal/core/domain"
)

// Rejection reasons. They are recorded in logs and metrics only; callers
// always see domain.ErrUnauthenticated.
const (
	ReasonMissingToken   = "missing_token"
	ReasonMalformedToken = "malformed_token"
	ReasonBadSignature   = "bad_signature"
	ReasonExpired        = "expired"
	ReasonInvalidClaims  = "invalid_claims"
	ReasonUnknownUser    = "unknown_user"
	ReasonStoreFailure   = "store_failure"
)

// rejection is an authentication failure carrying its internal reason.
type rejection struct {
	reason string
	cause  error
}

func (r *rejection) Error() string { return domain.ErrUnauthenticated.Error() }

func (r *rejection) Is(target error) bool { return target == domain.ErrUnauthenticated }

func (r *rejection) Unwrap() error { return r.cause }

func reject(reason string, cause error) error {
	return &rejection{reason: reason, cause: cause}
}

// FailureReason returns the internal reason behind an authentication
// failure, or "" when err did not come from an Authenticator.
func FailureReason(err error) string {
	var r *rejection
	if errors.As(err, &r) {
		return r.reason
	}
	return ""
}

func verifyReason(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return ReasonExpired
	case errors.Is(err, ErrSignatureInvalid):
		return ReasonBadSignature
	default:
		return ReasonInvalidClaims
	}
}
