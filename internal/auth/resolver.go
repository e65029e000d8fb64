// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tickit Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// IdentityResolver maps a presented bearer token to the stored user.
type IdentityResolver struct {
	tokens TokenIssuer
	users  UserRepository
	logger *slog.Logger
}

// NewIdentityResolver creates a new IdentityResolver.
func NewIdentityResolver(tokens TokenIssuer, users UserRepository, opts ...Option) (*IdentityResolver, error) {
	if tokens == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("token issuer is required")
	}
	if users == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("users repository is required")
	}
	o := applyOptions(opts)
	return &IdentityResolver{
		tokens: tokens,
		users:  users,
		logger: o.logger,
	}, nil
}

// Resolve validates token and loads its subject.
//
// An absent token yields ErrMissingToken. Invalid, expired, or malformed
// tokens and tokens whose user no longer exists all yield ErrInvalidToken;
// the specific reason is only logged.
func (r *IdentityResolver) Resolve(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, oops.Code("AUTH_TOKEN_MISSING").Wrap(ErrMissingToken)
	}

	identity, err := r.tokens.Validate(token)
	if err != nil {
		r.logger.WarnContext(ctx, "token validation failed", "reason", reasonCode(err))
		return nil, oops.Code("AUTH_TOKEN_REJECTED").Wrap(ErrInvalidToken)
	}

	user, err := r.users.GetByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			r.logger.WarnContext(ctx, "token subject not found", "user_id", identity.UserID)
			return nil, oops.Code("AUTH_TOKEN_REJECTED").
				With("user_id", identity.UserID).
				Wrap(ErrInvalidToken)
		}
		return nil, oops.Code("AUTH_RESOLVE_FAILED").
			With("operation", "get user by id").
			With("user_id", identity.UserID).
			Wrap(err)
	}

	r.logger.DebugContext(ctx, "user authenticated", "user_id", user.ID)
	return user, nil
}

// ResolveOptional is Resolve for endpoints usable anonymously: it returns
// (nil, nil) when no token is presented or the token does not resolve.
// Storage faults are still returned. Never use it for endpoints that act on
// owned resources.
func (r *IdentityResolver) ResolveOptional(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, nil
	}
	user, err := r.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func reasonCode(err error) any {
	if oopsErr, ok := oops.AsOops(err); ok {
		return oopsErr.Code()
	}
	return "unknown"
}
