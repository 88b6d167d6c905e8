// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"fmt"
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gatehouse-auth/gatehouse/internal/config"
	"github.com/gatehouse-auth/gatehouse/internal/store"
)

// NewMigrateCmd creates the migrate subcommand and its up, down and version
// children.
func NewMigrateCmd() *cobra.Command {
	return newMigrateCmd(nil)
}

func newMigrateCmd(deps *MigrateDeps) *cobra.Command {
	if deps == nil {
		deps = &MigrateDeps{}
	}
	if deps.MigratorFactory == nil {
		deps.MigratorFactory = func(url string) (Migrator, error) {
			return store.NewMigrator(url)
		}
	}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long:  `Apply, roll back or inspect the embedded PostgreSQL migrations.`,
	}
	config.RegisterDatabaseFlags(cmd.PersistentFlags())

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, migrateUp)
		},
	}

	var confirmed bool
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back every migration (drops the accounts table)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirmed {
				return oops.Code("CONFIRMATION_REQUIRED").Errorf("migrate down drops all accounts; pass --yes to continue")
			}
			return withMigrator(cmd, deps, migrateDown)
		},
	}
	down.Flags().BoolVar(&confirmed, "yes", false, "confirm dropping all accounts")

	version := &cobra.Command{
		Use:   "version",
		Short: "Show the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, migrateVersion)
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

// withMigrator loads the database URL, opens a migrator, runs fn and closes
// the migrator.
func withMigrator(cmd *cobra.Command, deps *MigrateDeps, fn func(*cobra.Command, Migrator) error) error {
	cfg, err := config.Load(cmd.Flags(), configPath())
	if err != nil {
		return err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	migrator, err := deps.MigratorFactory(cfg.Database.URL)
	if err != nil {
		return oops.With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			slog.Warn("failed to close migrator", "error", closeErr)
		}
	}()

	return fn(cmd, migrator)
}

func migrateUp(cmd *cobra.Command, m Migrator) error {
	pending, err := m.PendingMigrations()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
		return nil
	}

	for _, v := range pending {
		fmt.Fprintln(cmd.OutOrStdout(), "Applying "+migrationLabel(v))
	}
	if err := m.Up(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s)\n", len(pending))
	return nil
}

func migrateDown(cmd *cobra.Command, m Migrator) error {
	if err := m.Down(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Rolled back all migrations")
	return nil
}

func migrateVersion(cmd *cobra.Command, m Migrator) error {
	v, dirty, err := m.Version()
	if err != nil {
		return err
	}
	if v == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Schema version: none")
		return nil
	}

	line := "Schema version: " + migrationLabel(v)
	if dirty {
		line += " (dirty)"
	}
	fmt.Fprintln(cmd.OutOrStdout(), line)
	return nil
}

// migrationLabel is the migration's file name, or its bare number when the
// binary does not embed it.
func migrationLabel(v uint) string {
	name, err := store.MigrationName(v)
	if err != nil || name == "" {
		return fmt.Sprintf("%06d", v)
	}
	return name
}
