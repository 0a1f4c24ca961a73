package domain

import "time"

// Role is the closed set of roles a user can hold.
type Role string

const (
	RoleEmployee Role = "Employee"
	RoleEmployer Role = "Employer"
)

// Roles lists every known role, in declaration order.
func Roles() []Role {
	return []Role{RoleEmployee, RoleEmployer}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleEmployer:
		return true
	}
	return false
}

// ParseRole converts s into a Role, rejecting anything outside the known set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", ErrValidation
	}
	return r, nil
}

// User models an account in the credential store.
type User struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Identity is the request-scoped view of an authenticated user. It is
// derived from the stored record on every request and never persisted.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Identity returns the identity view of u.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Username: u.Username, Role: u.Role}
}
