package types

import (
	"strings"
	"time"
)

// Roles recognized by the grader.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the identity a submission is attributed to. Accounts are
// managed elsewhere; the grader only needs id, name and role.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the unique login name, shown on leaderboards.
	Username string `json:"username" db:"username"`

	// Email is the user's email address.
	Email string `json:"email" db:"email"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// Role is either RoleUser or RoleAdmin. Admins see hidden result details.
	Role string `json:"role" db:"role"`

	// PasswordHash is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Privileged reports whether the user may see hidden test case details.
func (u User) Privileged() bool {
	return strings.EqualFold(u.Role, RoleAdmin)
}
