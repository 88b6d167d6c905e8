// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/gatehouse-auth/gatehouse/internal/config"
	"github.com/gatehouse-auth/gatehouse/internal/xdg"
)

// Global flags available to all subcommands.
var (
	configFile string
	envFiles   []string
)

// NewRootCmd creates the root command for the gatehouse CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gatehouse",
		Short: "Gatehouse - session-based login gateway",
		Long: `Gatehouse serves account registration, login and logout backed by
PostgreSQL, and keeps visitors signed in with a signed session cookie.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return config.LoadDotEnv(envFiles...)
		},
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: $XDG_CONFIG_HOME/gatehouse/config.yaml if present)")
	cmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files loaded into the environment if present")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewHashPasswordCmd())

	return cmd
}

// configPath is the --config value, or the XDG config file when the flag is
// unset. An empty result means flags and defaults only.
func configPath() string {
	if configFile != "" {
		return configFile
	}
	return xdg.ConfigFile()
}
