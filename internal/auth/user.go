// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tickit Contributors

package auth

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/samber/oops"

	"github.com/tickit/tickit/pkg/errutil"
)

// Credential validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 50
	MinPasswordLength = 8
)

// usernameRegex matches usernames made only of letters, numbers, and underscores.
var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// User is a registered account. PasswordHash never leaves the service layer.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// NormalizeUsername returns the canonical (lower-case) form used for storage and lookup.
func NormalizeUsername(username string) string {
	return strings.ToLower(username)
}

// ValidateUsername validates a username against rules:
// - Length: MinUsernameLength to MaxUsernameLength characters
// - Only letters (a-z, A-Z), numbers (0-9), and underscores (_)
func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < MinUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("min", MinUsernameLength).
			Wrap(errutil.NewFieldError("username", "String should have at least 3 characters"))
	}
	if n > MaxUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("max", MaxUsernameLength).
			Wrap(errutil.NewFieldError("username", "String should have at most 50 characters"))
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code("AUTH_INVALID_USERNAME").
			Wrap(errutil.NewFieldError("username", "Username must contain only letters, numbers, and underscores"))
	}
	return nil
}

// ValidatePassword checks the minimum password length.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return oops.Code("AUTH_INVALID_PASSWORD").
			With("min", MinPasswordLength).
			Wrap(errutil.NewFieldError("password", "String should have at least 8 characters"))
	}
	return nil
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user and fills in ID and CreatedAt.
	// Returns ErrUsernameTaken if the username is already in use.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID. Returns ErrUserNotFound if absent.
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByUsername retrieves a user by username (case-insensitive).
	// Returns ErrUserNotFound if absent.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error

	// Delete removes the user and every item it owns in one transaction.
	// Returns ErrUserNotFound if absent.
	Delete(ctx context.Context, id int64) error
}
