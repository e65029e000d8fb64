// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tickit Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// dummyPasswordHash is verified when a username doesn't exist so both
// failure paths cost one argon2id computation.
//
//nolint:gosec // G101: intentionally fake hash for timing equalisation, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// LoginResult is returned by a successful login. It never carries the password hash.
type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
	UserID      int64
	Username    string
}

// SessionAuthenticator verifies credentials and issues bearer tokens.
type SessionAuthenticator struct {
	users    UserRepository
	hasher   PasswordHasher
	tokens   TokenIssuer
	tokenTTL time.Duration
	logger   *slog.Logger
}

// NewSessionAuthenticator creates a new SessionAuthenticator.
func NewSessionAuthenticator(users UserRepository, hasher PasswordHasher, tokens TokenIssuer, opts ...Option) (*SessionAuthenticator, error) {
	if users == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("users repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("token issuer is required")
	}
	o := applyOptions(opts)
	return &SessionAuthenticator{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		tokenTTL: o.tokenTTL,
		logger:   o.logger,
	}, nil
}

// Login authenticates a user and issues an access token.
// Unknown usernames, wrong passwords, and unreadable stored digests all
// produce the same ErrInvalidCredentials.
func (a *SessionAuthenticator) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	normalized := NormalizeUsername(username)
	a.logger.InfoContext(ctx, "login attempt", "username", normalized)

	user, lookupErr := a.users.GetByUsername(ctx, normalized)

	var targetHash string
	var userExists bool
	switch {
	case lookupErr == nil:
		targetHash = user.PasswordHash
		userExists = true
	case errors.Is(lookupErr, ErrUserNotFound):
		targetHash = dummyPasswordHash
	default:
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get user by username").
			Wrap(lookupErr)
	}

	// Always verify, even for unknown users.
	valid, verifyErr := a.hasher.Verify(password, targetHash)
	if verifyErr != nil && userExists {
		a.logger.WarnContext(ctx, "stored password digest unreadable", "user_id", user.ID, "error", verifyErr)
	}

	if !userExists || !valid || verifyErr != nil {
		a.logger.WarnContext(ctx, "login failed", "username", normalized)
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	a.upgradeHash(ctx, user, password)

	token, expiresAt, err := a.tokens.Issue(user.ID, user.Username, a.tokenTTL)
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue token").
			With("user_id", user.ID).
			Wrap(err)
	}

	a.logger.InfoContext(ctx, "login succeeded", "user_id", user.ID)
	return &LoginResult{
		AccessToken: token,
		TokenType:   TokenType,
		ExpiresAt:   expiresAt,
		UserID:      user.ID,
		Username:    user.Username,
	}, nil
}

// upgradeHash re-hashes legacy digests. Best effort: login succeeds regardless.
func (a *SessionAuthenticator) upgradeHash(ctx context.Context, user *User, password string) {
	if !a.hasher.NeedsUpgrade(user.PasswordHash) {
		return
	}
	newHash, err := a.hasher.Hash(password)
	if err != nil {
		a.logger.WarnContext(ctx, "password hash upgrade failed", "user_id", user.ID, "error", err)
		return
	}
	if err := a.users.UpdatePassword(ctx, user.ID, newHash); err != nil {
		a.logger.WarnContext(ctx, "password hash upgrade not persisted", "user_id", user.ID, "error", err)
		return
	}
	user.PasswordHash = newHash
	a.logger.InfoContext(ctx, "password hash upgraded", "user_id", user.ID)
}
