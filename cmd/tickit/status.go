// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tickit Contributors

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/tickit/tickit/internal/store"
)

// statusConfig holds configuration for the status command.
type statusConfig struct {
	jsonOutput bool
}

func newStatusCmd(deps *Deps) *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the database schema status",
		Long:  `Show the applied migration version, the dirty flag, and pending migrations.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, func(cmd *cobra.Command, m Migrator) error {
				return runStatus(cmd, m, cfg)
			})
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, m Migrator, cfg *statusConfig) error {
	status, err := m.Status()
	if err != nil {
		return err //nolint:wrapcheck // migrator errors carry their own codes
	}

	if cfg.jsonOutput {
		out, err := formatStatusJSON(status)
		if err != nil {
			return err
		}
		cmd.Println(out)
		return nil
	}
	cmd.Print(formatStatusTable(status))
	return nil
}

// formatStatusTable formats the status as a human-readable table.
func formatStatusTable(s store.MigrationStatus) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	current := "none"
	if s.Version > 0 {
		current = fmt.Sprintf("%d", s.Version)
		if s.Name != "" {
			current += " (" + s.Name + ")"
		}
	}
	state := "up to date"
	switch {
	case s.Dirty:
		state = "dirty"
	case len(s.Pending) > 0:
		state = fmt.Sprintf("%d pending", len(s.Pending))
	}

	_, _ = fmt.Fprintf(w, "CURRENT\t%s\n", current)
	_, _ = fmt.Fprintf(w, "LATEST\t%d\n", s.Latest)
	_, _ = fmt.Fprintf(w, "STATE\t%s\n", state)
	if len(s.PendingName) > 0 {
		_, _ = fmt.Fprintf(w, "PENDING\t%s\n", strings.Join(s.PendingName, ", "))
	}

	_ = w.Flush()
	return buf.String()
}

// formatStatusJSON formats the status as JSON.
func formatStatusJSON(s store.MigrationStatus) (string, error) {
	if s.Pending == nil {
		s.Pending = []uint{}
	}
	if s.PendingName == nil {
		s.PendingName = []string{}
	}
	data, err := json.MarshalIndent(struct {
		store.MigrationStatus
		UpToDate bool `json:"up_to_date"`
	}{s, s.UpToDate()}, "", "  ")
	if err != nil {
		return "", oops.Code("STATUS_FORMAT_FAILED").Wrap(err)
	}
	return string(data), nil
}
