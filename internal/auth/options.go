// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tickit Contributors

package auth

import (
	"log/slog"
	"time"
)

type serviceOptions struct {
	logger   *slog.Logger
	tokenTTL time.Duration
}

// Option configures an auth service.
type Option func(*serviceOptions)

// WithLogger sets the logger used by a service. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTokenTTL sets the validity of tokens issued at login.
// Defaults to DefaultTokenTTL.
func WithTokenTTL(ttl time.Duration) Option {
	return func(o *serviceOptions) {
		if ttl > 0 {
			o.tokenTTL = ttl
		}
	}
}

func applyOptions(opts []Option) serviceOptions {
	o := serviceOptions{
		logger:   slog.Default(),
		tokenTTL: DefaultTokenTTL,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
