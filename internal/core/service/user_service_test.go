package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/taskboard/tasktracker/internal/core/auth"
	"github.com/taskboard/tasktracker/internal/core/domain"
)

func TestUserService_Register_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo, &stubIssuer{}, time.Hour, discardLogger)

	user, err := svc.Register(context.Background(), "alice", "pass123", "Employee")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.ID == "" {
		t.Error("expected generated ID")
	}
	if user.Role != domain.RoleEmployee {
		t.Errorf("expected role Employee, got %q", user.Role)
	}

	stored := repo.byUsername["alice"]
	if stored == nil {
		t.Fatal("user was not stored")
	}
	if stored.PasswordHash == "pass123" {
		t.Fatal("password stored in plain text")
	}
	if !auth.VerifyPassword("pass123", stored.PasswordHash) {
		t.Error("stored hash does not verify")
	}
}

func TestUserService_Register_Validation(t *testing.T) {
	cases := []struct {
		name, username, password, role string
	}{
		{"empty username", "", "pw", "Employee"},
		{"blank username", "   ", "pw", "Employee"},
		{"empty password", "bob", "", "Employee"},
		{"unknown role", "bob", "pw", "Admin"},
		{"wrong case role", "bob", "pw", "employer"},
		{"password over 72 bytes", "bob", strings.Repeat("p", 73), "Employee"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewUserService(newStubUserRepo(), &stubIssuer{}, time.Hour, discardLogger)
			_, err := svc.Register(context.Background(), tc.username, tc.password, tc.role)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestUserService_Register_Duplicate(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo, &stubIssuer{}, time.Hour, discardLogger)

	if _, err := svc.Register(context.Background(), "alice", "pw", "Employer"); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	_, err := svc.Register(context.Background(), "alice", "other", "Employee")
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestUserService_Login_Success(t *testing.T) {
	repo := newStubUserRepo()
	issuer := &stubIssuer{}
	svc := NewUserService(repo, issuer, 30*time.Minute, discardLogger)
	if _, err := svc.Register(context.Background(), "alice", "pw", "Employee"); err != nil {
		t.Fatalf("register: %v", err)
	}

	token, err := svc.Login(context.Background(), "alice", "pw")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if token != "signed.alice" {
		t.Errorf("unexpected token %q", token)
	}
	if issuer.subject != "alice" {
		t.Errorf("token subject must be the username, got %q", issuer.subject)
	}
	if issuer.ttl != 30*time.Minute {
		t.Errorf("expected ttl 30m, got %v", issuer.ttl)
	}
}

func TestUserService_Login_FailuresAreIndistinguishable(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo, &stubIssuer{}, time.Hour, discardLogger)
	if _, err := svc.Register(context.Background(), "alice", "pw", "Employee"); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, wrongPassword := svc.Login(context.Background(), "alice", "nope")
	_, unknownUser := svc.Login(context.Background(), "mallory", "pw")

	if !errors.Is(wrongPassword, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongPassword)
	}
	if !errors.Is(unknownUser, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", unknownUser)
	}
	if wrongPassword.Error() != unknownUser.Error() {
		t.Errorf("messages differ: %q vs %q", wrongPassword, unknownUser)
	}
}

func TestUserService_Login_StoreFailure(t *testing.T) {
	repo := newStubUserRepo()
	repo.findErr = errBoom
	svc := NewUserService(repo, &stubIssuer{}, time.Hour, discardLogger)

	_, err := svc.Login(context.Background(), "alice", "pw")
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected store error to propagate, got %v", err)
	}
	if errors.Is(err, domain.ErrInvalidCredentials) {
		t.Error("store failure must not look like bad credentials")
	}
}

func TestUserService_Login_TrimsUsernameLikeRegister(t *testing.T) {
	repo := newStubUserRepo()
	issuer := &stubIssuer{}
	svc := NewUserService(repo, issuer, time.Hour, discardLogger)
	if _, err := svc.Register(context.Background(), " alice", "pw", "Employee"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(context.Background(), " alice ", "pw"); err != nil {
		t.Fatalf("login with padded username: %v", err)
	}
	if issuer.subject != "alice" {
		t.Errorf("expected subject alice, got %q", issuer.subject)
	}
}
