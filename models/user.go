package models

import (
	"strings"
	"time"

	"excelytics/domain/core"
)

// Role controls what a user may see and change.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

// User represents an account
type User struct {
	ID           core.ID    `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	Name         string     `json:"name" db:"name"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         Role       `json:"role" db:"role"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// NormalizeEmail lowercases and trims an address for lookup and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserUpdate holds the admin-editable fields; nil means unchanged.
type UserUpdate struct {
	IsActive *bool `json:"is_active"`
	Role     *Role `json:"role"`
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID core.ID
	Role   Role
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// CanAccess reports whether the actor may read or delete something owned
// by ownerID.
func (a Actor) CanAccess(ownerID core.ID) bool {
	return a.IsAdmin() || (!a.UserID.IsEmpty() && a.UserID == ownerID)
}
