package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/taskboard/tasktracker/internal/core/domain"
	"github.com/taskboard/tasktracker/internal/core/ports"
)

const tracerName = "github.com/taskboard/tasktracker/internal/core/auth"

// Authentication modes accepted by the configuration.
const (
	ModeToken = "token"
	ModeDebug = "debug"
)

// UserFinder is the slice of the credential store the authenticator needs.
type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
}

// TokenVerifier validates a token and returns its subject.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// NewAuthenticator returns the Authenticator for mode. It is called once at
// startup; debug ignores tokens and users.
func NewAuthenticator(mode string, tokens TokenVerifier, users UserFinder, debugIdentity domain.Identity, log zerolog.Logger) (ports.Authenticator, error) {
	switch mode {
	case ModeToken, "":
		if tokens == nil || users == nil {
			return nil, errors.New("auth: token mode needs a token verifier and a user store")
		}
		return NewTokenAuthenticator(tokens, users, log), nil
	case ModeDebug:
		log.Warn().Str("username", debugIdentity.Username).Msg("debug authenticator enabled, requests are not authenticated")
		return NewDebugAuthenticator(debugIdentity), nil
	default:
		return nil, fmt.Errorf("auth: unknown mode %q", mode)
	}
}

// TokenAuthenticator resolves bearer tokens to stored users.
type TokenAuthenticator struct {
	tokens TokenVerifier
	users  UserFinder
	log    zerolog.Logger
	tracer trace.Tracer
}

func NewTokenAuthenticator(tokens TokenVerifier, users UserFinder, log zerolog.Logger) *TokenAuthenticator {
	return &TokenAuthenticator{
		tokens: tokens,
		users:  users,
		log:    log,
		tracer: otel.Tracer(tracerName),
	}
}

// Authenticate runs the checks cheapest first: header shape, token
// structure, signature and expiry, then the credential store lookup.
func (a *TokenAuthenticator) Authenticate(ctx context.Context, authorization string) (domain.Identity, error) {
	ctx, span := a.tracer.Start(ctx, "auth.Authenticate")
	defer span.End()

	fail := func(reason string, cause error) (domain.Identity, error) {
		span.SetAttributes(attribute.String("auth.failure", reason))
		span.SetStatus(codes.Error, reason)
		a.log.Debug().Err(cause).Str("reason", reason).Msg("authentication rejected")
		return domain.Identity{}, reject(reason, cause)
	}

	raw, err := BearerToken(authorization)
	if err != nil {
		return fail(ReasonMissingToken, err)
	}

	subject, err := unverifiedSubject(raw)
	if err != nil {
		return fail(ReasonMalformedToken, err)
	}

	verified, err := a.tokens.Verify(raw)
	if err != nil {
		return fail(verifyReason(err), err)
	}
	if verified != subject {
		return fail(ReasonInvalidClaims, ErrInvalidToken)
	}

	user, err := a.users.FindByUsername(ctx, verified)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return fail(ReasonUnknownUser, err)
		}
		a.log.Error().Err(err).Msg("credential lookup failed")
		return fail(ReasonStoreFailure, err)
	}

	span.SetAttributes(attribute.String("auth.role", string(user.Role)))
	return user.Identity(), nil
}

// DefaultDebugIdentity is used by the debug authenticator when no identity
// is configured.
var DefaultDebugIdentity = domain.Identity{
	ID:       "123e4567-e89b-12d3-a456-426614174000",
	Username: "test",
	Role:     domain.RoleEmployer,
}

// DebugAuthenticator accepts every request as one fixed identity. It is for
// local development only and performs no validation at all.
type DebugAuthenticator struct {
	identity domain.Identity
}

func NewDebugAuthenticator(identity domain.Identity) *DebugAuthenticator {
	if identity == (domain.Identity{}) {
		identity = DefaultDebugIdentity
	}
	return &DebugAuthenticator{identity: identity}
}

func (a *DebugAuthenticator) Authenticate(context.Context, string) (domain.Identity, error) {
	return a.identity, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value. The scheme is matched case-insensitively.
func BearerToken(authorization string) (string, error) {
	if authorization == "" {
		return "", errors.New("missing authorization header")
	}
	scheme, token, ok := strings.Cut(authorization, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", errors.New("invalid authorization header")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.New("empty bearer token")
	}
	return token, nil
}
