package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/taskboard/tasktracker/internal/core/auth"
	"github.com/taskboard/tasktracker/internal/core/domain"
	"github.com/taskboard/tasktracker/internal/core/ports"
)

// TokenIssuer signs access tokens for a subject.
type TokenIssuer interface {
	Issue(subject string, ttl time.Duration) (string, error)
}

// UserService implements registration and login.
type UserService struct {
	repo     ports.UserRepository
	tokens   TokenIssuer
	tokenTTL time.Duration
	log      zerolog.Logger
}

func NewUserService(repo ports.UserRepository, tokens TokenIssuer, tokenTTL time.Duration, log zerolog.Logger) *UserService {
	if tokenTTL <= 0 {
		tokenTTL = 30 * time.Minute
	}
	return &UserService{repo: repo, tokens: tokens, tokenTTL: tokenTTL, log: log}
}

func (s *UserService) Register(ctx context.Context, username, password, role string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("register: %w: username and password are required", domain.ErrValidation)
	}
	r, err := domain.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("register: %w: unknown role %q", err, role)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Role:         r,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")
	return user, nil
}

// Login checks the credentials and returns an access token. Unknown users
// and wrong passwords fail identically.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("login: %w", err)
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Username, s.tokenTTL)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	return token, nil
}
