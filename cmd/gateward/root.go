// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/gateward/gateward/internal/config"
	"github.com/gateward/gateward/internal/logging"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the gateward CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gateward",
		Short: "Gateward - authentication gate administration",
		Long: `Gateward guards a game server behind password authentication.
This CLI manages its account database: migrations, password resets,
account removal, and store health checks.`,
		SilenceUsage: true,
	}

	defaults := config.Default()
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	cmd.PersistentFlags().String("database.url", defaults.Database.URL, "PostgreSQL connection URL")
	cmd.PersistentFlags().String("log.format", defaults.Log.Format, "log format (json or text)")
	cmd.PersistentFlags().String("metrics.addr", defaults.Metrics.Addr, "metrics listen address")

	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newResetPasswordCmd())
	cmd.AddCommand(newUnregisterCmd())

	return cmd
}

// loadConfig layers the config file and the command's flags over the
// defaults, then installs the configured logger.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return config.Config{}, err
	}
	logging.SetDefault("gateward", cmd.Root().Version, cfg.Log.Format)
	return cfg, nil
}
