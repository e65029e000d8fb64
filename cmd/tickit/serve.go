// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tickit Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/tickit/tickit/internal/auth"
	authpg "github.com/tickit/tickit/internal/auth/postgres"
	"github.com/tickit/tickit/internal/config"
	"github.com/tickit/tickit/internal/httpapi"
	"github.com/tickit/tickit/internal/observability"
	"github.com/tickit/tickit/internal/store"
	"github.com/tickit/tickit/internal/todo"
	todopg "github.com/tickit/tickit/internal/todo/postgres"
)

// shutdownTimeout bounds the drain of in-flight requests.
const shutdownTimeout = 5 * time.Second

func newServeCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the HTTP API and, unless --metrics-addr is empty, the metrics
and health probe server. Stops gracefully on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, logger, deps.withDefaults())
		},
	}
}

// runServe wires the services and blocks until ctx is cancelled or a server fails.
func runServe(ctx context.Context, cfg config.Config, logger *slog.Logger, deps *Deps) error {
	logger.InfoContext(ctx, "starting tickit", "version", version, "config", cfg)
	if cfg.InsecureSecret() {
		logger.WarnContext(ctx, "using the default token signing secret; set SECRET_KEY in production")
	}

	if cfg.AutoMigrate {
		if err := autoMigrate(cfg.DatabaseURL, deps.MigratorFactory, logger); err != nil {
			return err
		}
	}

	db, err := deps.DatabaseOpener(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return oops.Code("SERVE_DB_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var obsServer ObservabilityServer
	var metrics *observability.Metrics
	if cfg.MetricsEnabled() {
		obsServer = deps.ObservabilityServerFactory(cfg.MetricsAddr, func() bool {
			return store.Check(ctx, db) == nil
		})
		obsErrCh, startErr := obsServer.Start()
		if startErr != nil {
			return oops.Code("SERVE_OBSERVABILITY_FAILED").With("addr", cfg.MetricsAddr).Wrap(startErr)
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability", logger)
		metrics = obsServer.Metrics()
	}

	handler, err := buildHandler(cfg, db, metrics, logger)
	if err != nil {
		stopServers(logger, obsServer)
		return err
	}

	apiServer := deps.APIServerFactory(cfg.HTTPAddr, handler, logger)
	apiErrCh, err := apiServer.Start()
	if err != nil {
		stopServers(logger, obsServer)
		return oops.Code("SERVE_LISTEN_FAILED").With("addr", cfg.HTTPAddr).Wrap(err)
	}
	go monitorServerErrors(ctx, cancel, apiErrCh, "api", logger)

	logger.InfoContext(ctx, "tickit ready", "http_addr", apiServer.Addr())
	<-ctx.Done()

	logger.Info("shutting down")
	stopServers(logger, apiServer, obsServer)
	logger.Info("shutdown complete")

	var failure *serverFailure
	if errors.As(context.Cause(ctx), &failure) {
		return oops.Code("SERVE_FAILED").With("server", failure.server).Wrap(failure.err)
	}
	return nil
}

// serverFailure is the cancellation cause recorded when a server stops serving.
type serverFailure struct {
	server string
	err    error
}

func (f *serverFailure) Error() string {
	return f.server + " server failed: " + f.err.Error()
}

func (f *serverFailure) Unwrap() error {
	return f.err
}

// buildHandler constructs the service graph on top of db.
func buildHandler(cfg config.Config, db store.Pool, metrics *observability.Metrics, logger *slog.Logger) (http.Handler, error) {
	users := authpg.NewUserRepository(db)
	hasher := auth.NewArgon2idHasher()

	tokens, err := auth.NewJWTService(cfg.SecretKey, cfg.TokenTTL)
	if err != nil {
		return nil, err //nolint:wrapcheck // constructor errors carry their own codes
	}
	registry, err := auth.NewAccountRegistry(users, hasher, auth.WithLogger(logger))
	if err != nil {
		return nil, err //nolint:wrapcheck // constructor errors carry their own codes
	}
	authenticator, err := auth.NewSessionAuthenticator(users, hasher, tokens,
		auth.WithLogger(logger), auth.WithTokenTTL(cfg.TokenTTL))
	if err != nil {
		return nil, err //nolint:wrapcheck // constructor errors carry their own codes
	}
	resolver, err := auth.NewIdentityResolver(tokens, users, auth.WithLogger(logger))
	if err != nil {
		return nil, err //nolint:wrapcheck // constructor errors carry their own codes
	}
	items, err := todo.NewService(todopg.NewItemRepository(db), todo.WithLogger(logger))
	if err != nil {
		return nil, err //nolint:wrapcheck // constructor errors carry their own codes
	}

	return httpapi.NewHandler(httpapi.Deps{
		Registry:      registry,
		Authenticator: authenticator,
		Resolver:      resolver,
		Items:         items,
		DB:            db,
		Metrics:       metrics,
		Logger:        logger,
		Version:       version,
		CORSOrigins:   cfg.CORSOrigins,
	})
}

// autoMigrate applies pending migrations before the pool is opened.
func autoMigrate(databaseURL string, factory func(string) (Migrator, error), logger *slog.Logger) error {
	m, err := factory(databaseURL)
	if err != nil {
		return oops.Code("AUTO_MIGRATE_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			logger.Warn("failed to close migrator", "error", closeErr)
		}
	}()

	if err := m.Up(); err != nil {
		return oops.Code("AUTO_MIGRATE_FAILED").With("operation", "apply migrations").Wrap(err)
	}
	logger.Info("database migrations applied")
	return nil
}

// monitorServerErrors cancels ctx when the server reports a serve failure.
// It returns when the channel closes or ctx is done.
func monitorServerErrors(ctx context.Context, cancel context.CancelCauseFunc, errCh <-chan error, name string, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		logger.Error("server error, triggering shutdown", "server", name, "error", err)
		cancel(&serverFailure{server: name, err: err})
	case <-ctx.Done():
	}
}

// stopServers stops each non-nil server within shutdownTimeout.
func stopServers(logger *slog.Logger, servers ...Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, s := range servers {
		if s == nil {
			continue
		}
		if err := s.Stop(ctx); err != nil {
			logger.Warn("error stopping server", "addr", s.Addr(), "error", err)
		}
	}
}
