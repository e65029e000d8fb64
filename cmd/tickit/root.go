// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tickit Contributors

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tickit/tickit/internal/config"
	"github.com/tickit/tickit/internal/logging"
)

const serviceName = "tickit"

// NewRootCmd creates the root command for the tickit CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

func newRootCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tickit",
		Short: "Tickit - a multi-user to-do list service",
		Long: `Tickit serves a JSON API for per-user to-do lists backed by
PostgreSQL, with bearer-token authentication.`,
		SilenceUsage: true,
	}

	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newServeCmd(deps))
	cmd.AddCommand(newMigrateCmd(deps))
	cmd.AddCommand(newStatusCmd(deps))
	cmd.AddCommand(newUserCmd(deps))

	return cmd
}

// loadConfig resolves the configuration for cmd and installs the default logger.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err //nolint:wrapcheck // config errors carry their own codes
	}
	logger := logging.SetDefault(serviceName, version, cfg.LogFormat, logging.Level(cfg.Debug))
	return cfg, logger, nil
}
