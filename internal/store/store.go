// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tickit Contributors

// Package store owns the PostgreSQL connection pool and the schema migrations.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Pool is the subset of *pgxpool.Pool used by the repositories.
// pgxmock.PgxPoolIface satisfies it, which is how repository tests run.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Default connection settings.
const (
	DefaultConnectAttempts = 5
	DefaultConnectBackoff  = 500 * time.Millisecond
	DefaultPingTimeout     = 2 * time.Second
)

type openOptions struct {
	attempts uint64
	backoff  time.Duration
	maxConns int32
	logger   *slog.Logger
}

// OpenOption configures Open.
type OpenOption func(*openOptions)

// WithConnectAttempts sets how many times the initial ping is tried.
func WithConnectAttempts(n uint64) OpenOption {
	return func(o *openOptions) {
		if n > 0 {
			o.attempts = n
		}
	}
}

// WithConnectBackoff sets the base delay of the exponential backoff between pings.
func WithConnectBackoff(d time.Duration) OpenOption {
	return func(o *openOptions) {
		if d > 0 {
			o.backoff = d
		}
	}
}

// WithMaxConns caps the pool size.
func WithMaxConns(n int32) OpenOption {
	return func(o *openOptions) {
		if n > 0 {
			o.maxConns = n
		}
	}
}

// WithLogger sets the logger used for connection retries.
func WithLogger(l *slog.Logger) OpenOption {
	return func(o *openOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Open builds a pgx pool for dsn and waits until the database answers a ping,
// retrying with exponential backoff. The caller owns the returned pool.
func Open(ctx context.Context, dsn string, opts ...OpenOption) (*pgxpool.Pool, error) {
	o := openOptions{
		attempts: DefaultConnectAttempts,
		backoff:  DefaultConnectBackoff,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, oops.Code("STORE_CONFIG_INVALID").With("operation", "parse database url").Wrap(err)
	}
	if o.maxConns > 0 {
		cfg.MaxConns = o.maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("STORE_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	attempt := 0
	backoff := retry.WithMaxRetries(o.attempts-1, retry.NewExponential(o.backoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
		defer cancel()
		if pingErr := pool.Ping(pingCtx); pingErr != nil {
			o.logger.WarnContext(ctx, "database not reachable",
				"attempt", attempt,
				"max_attempts", o.attempts,
				"host", cfg.ConnConfig.Host,
				"error", pingErr)
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("STORE_CONNECT_FAILED").
			With("operation", "ping database").
			With("attempts", attempt).
			Wrap(err)
	}

	o.logger.InfoContext(ctx, "database connected", "host", cfg.ConnConfig.Host, "database", cfg.ConnConfig.Database)
	return pool, nil
}

// Check pings the database with a short timeout.
func Check(ctx context.Context, p Pinger) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		return oops.Code("STORE_UNHEALTHY").Wrap(err)
	}
	return nil
}

var _ Pool = (*pgxpool.Pool)(nil)
