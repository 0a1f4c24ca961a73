package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/taskboard/tasktracker/internal/core/domain"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("pw")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "pw" {
		t.Fatalf("expected password to be hashed")
	}
	if !VerifyPassword("pw", hash) {
		t.Fatalf("expected password to verify")
	}
	if VerifyPassword("wrong", hash) {
		t.Fatalf("wrong password verified")
	}
	if VerifyPassword("pw", "not-a-hash") {
		t.Fatalf("garbage hash verified")
	}

	again, _ := HashPassword("pw")
	if again == hash {
		t.Fatalf("expected salted hashes to differ")
	}
}

func TestHashPassword_Length(t *testing.T) {
	if _, err := HashPassword(strings.Repeat("a", MaxPasswordBytes)); err != nil {
		t.Fatalf("%d bytes must hash: %v", MaxPasswordBytes, err)
	}

	_, err := HashPassword(strings.Repeat("a", MaxPasswordBytes+1))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for %d bytes, got %v", MaxPasswordBytes+1, err)
	}
}
