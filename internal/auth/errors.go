// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tickit Contributors

package auth

import "github.com/tickit/tickit/pkg/errutil"

// Client-facing failures. Messages are deliberately generic: none of them
// reveals which factor of a credential or token was wrong.
var (
	// ErrMissingToken is returned when no bearer token was presented.
	ErrMissingToken = errutil.NewPublic(errutil.KindAuthentication, "Not authenticated")

	// ErrInvalidToken covers bad signatures, expiry, missing or malformed
	// subjects, and tokens whose user no longer exists.
	ErrInvalidToken = errutil.NewPublic(errutil.KindAuthentication, "Could not validate credentials")

	// ErrInvalidCredentials is returned by login for both unknown usernames
	// and wrong passwords.
	ErrInvalidCredentials = errutil.NewPublic(errutil.KindAuthentication, "Invalid credentials")

	// ErrUsernameTaken is returned when the normalized username already exists.
	ErrUsernameTaken = errutil.NewPublic(errutil.KindConflict, "Username already exists")

	// ErrUserNotFound is returned by repositories when no user matches.
	ErrUserNotFound = errutil.NewPublic(errutil.KindNotFound, "User not found")
)
