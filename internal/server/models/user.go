// Package models defines server-side data models persisted in the database.
package models

import (
	"strings"
	"time"
)

// User is an account that can authenticate against the API.
type User struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	// PasswordHash is an encoded argon2id hash, or an unusable marker for
	// accounts created without a password.
	PasswordHash string
	IsActive     bool
	IsStaff      bool
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName returns "First Last", falling back to the email when both
// name parts are blank.
func (u *User) DisplayName() string {
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full == "" {
		return u.Email
	}
	return full
}
