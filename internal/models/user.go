package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the access level attached to a user account. Regular visitors are
// RoleUser; back-office access starts at RoleModerator.
type Role string

const (
	RoleUser       Role = "user"
	RoleModerator  Role = "moderator"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// roleLevels orders roles for permission checks. Unknown roles map to -1 so
// they never pass an AtLeast check.
var roleLevels = map[Role]int{
	RoleUser:       0,
	RoleModerator:  1,
	RoleAdmin:      2,
	RoleSuperAdmin: 3,
}

// Level returns the numeric rank of the role, or -1 for unknown roles.
func (r Role) Level() int {
	if lvl, ok := roleLevels[r]; ok {
		return lvl
	}
	return -1
}

// AtLeast reports whether r grants at least the access of min.
func (r Role) AtLeast(min Role) bool {
	return r.Level() >= 0 && r.Level() >= min.Level()
}

// User is an account in the directory. Guest accounts are created for
// Turnstile-verified anonymous sessions; they have no email or password and
// exist so reviews can be attributed and rate limited per session.
type User struct {
	ID           string `db:"id" json:"id"`
	Email        string `db:"email" json:"email,omitempty"`
	Name         string `db:"name" json:"name"`
	PasswordHash string `db:"password_hash" json:"-"`
	Role         Role   `db:"role" json:"role"`
	IsGuest      bool   `db:"is_guest" json:"is_guest"`
	CreatedAt    int64  `db:"created_at" json:"created_at"`
	UpdatedAt    int64  `db:"updated_at" json:"updated_at"`
}

// NewUser creates a registered user with the given credentials.
func NewUser(email, name, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewGuestUser creates an anonymous session-backed account.
func NewGuestUser() *User {
	now := time.Now().Unix()
	return &User{
		ID:        uuid.New().String(),
		Name:      "Guest",
		Role:      RoleUser,
		IsGuest:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
