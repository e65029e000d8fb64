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

// AccountRegistry creates and removes user accounts.
type AccountRegistry struct {
	users  UserRepository
	hasher PasswordHasher
	logger *slog.Logger
	now    func() time.Time
}

// NewAccountRegistry creates a new AccountRegistry.
func NewAccountRegistry(users UserRepository, hasher PasswordHasher, opts ...Option) (*AccountRegistry, error) {
	if users == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("users repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("password hasher is required")
	}
	o := applyOptions(opts)
	return &AccountRegistry{
		users:  users,
		hasher: hasher,
		logger: o.logger,
		now:    time.Now,
	}, nil
}

// Register validates the credentials, stores a new user under the
// lower-cased username, and returns it.
//
// The existence check gives the common duplicate case a cheap answer; the
// unique index on the users table decides concurrent races, and the
// repository reports its violation as ErrUsernameTaken too.
func (r *AccountRegistry) Register(ctx context.Context, username, password string) (*User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	normalized := NormalizeUsername(username)
	r.logger.InfoContext(ctx, "registration attempt", "username", normalized)

	_, err := r.users.GetByUsername(ctx, normalized)
	switch {
	case err == nil:
		r.logger.WarnContext(ctx, "registration rejected, username exists", "username", normalized)
		return nil, oops.Code("AUTH_USERNAME_TAKEN").
			With("username", normalized).
			Wrap(ErrUsernameTaken)
	case !errors.Is(err, ErrUserNotFound):
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "check username").
			Wrap(err)
	}

	hash, err := r.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user := &User{
		Username:     normalized,
		PasswordHash: hash,
		CreatedAt:    r.now().UTC(),
	}
	if err := r.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			r.logger.WarnContext(ctx, "registration lost username race", "username", normalized)
			return nil, oops.Code("AUTH_USERNAME_TAKEN").
				With("username", normalized).
				Wrap(err)
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create user").
			Wrap(err)
	}

	r.logger.InfoContext(ctx, "user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Delete removes a user account and, with it, every item the user owns.
// Tokens already issued to the user stop resolving immediately.
func (r *AccountRegistry) Delete(ctx context.Context, userID int64) error {
	if err := r.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return oops.Code("AUTH_USER_NOT_FOUND").With("user_id", userID).Wrap(err)
		}
		return oops.Code("AUTH_DELETE_FAILED").
			With("operation", "delete user").
			With("user_id", userID).
			Wrap(err)
	}
	r.logger.InfoContext(ctx, "user deleted", "user_id", userID)
	return nil
}

// DeleteByUsername looks the user up case-insensitively and deletes it.
func (r *AccountRegistry) DeleteByUsername(ctx context.Context, username string) (*User, error) {
	user, err := r.users.GetByUsername(ctx, NormalizeUsername(username))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, oops.Code("AUTH_USER_NOT_FOUND").With("username", username).Wrap(err)
		}
		return nil, oops.Code("AUTH_DELETE_FAILED").
			With("operation", "get user by username").
			Wrap(err)
	}
	if err := r.Delete(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}
