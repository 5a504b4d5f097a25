// Package models defines server-side data models.
package models

import "time"

// Role classifies an account within the coaching platform.
type Role string

const (
	RoleTrainer Role = "trainer"
	RoleClient  Role = "client"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleTrainer, RoleClient, RoleAdmin:
		return true
	}
	return false
}

// User is an account row. DeletedAt marks soft deletion; a soft-deleted or
// inactive user must never authenticate successfully.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	IsActive     bool
	IsVerified   bool
	DeletedAt    *time.Time
	CreatedAt    time.Time
}

// Usable reports whether the account may hold an authenticated session.
func (u *User) Usable() bool {
	return u != nil && u.DeletedAt == nil && u.IsActive
}
