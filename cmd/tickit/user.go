// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tickit Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/tickit/tickit/internal/auth"
	authpg "github.com/tickit/tickit/internal/auth/postgres"
)

func newUserCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Administer user accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "delete USERNAME",
		Short: "Delete a user and every item they own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserDelete(cmd, deps.withDefaults(), args[0])
		},
	})

	return cmd
}

func runUserDelete(cmd *cobra.Command, deps *Deps, username string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := deps.DatabaseOpener(cmd.Context(), cfg.DatabaseURL, logger)
	if err != nil {
		return oops.Code("USER_DELETE_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()

	registry, err := auth.NewAccountRegistry(authpg.NewUserRepository(db), auth.NewArgon2idHasher(),
		auth.WithLogger(logger))
	if err != nil {
		return err //nolint:wrapcheck // constructor errors carry their own codes
	}

	user, err := registry.DeleteByUsername(cmd.Context(), username)
	if err != nil {
		return err //nolint:wrapcheck // registry errors carry their own codes
	}
	cmd.Printf("Deleted user %s (id %d) and their items\n", user.Username, user.ID)
	return nil
}
