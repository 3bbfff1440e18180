// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package main

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gateward/gateward/internal/store"
)

// StoreStatus holds the health information reported by the status command.
type StoreStatus struct {
	Reachable        bool   `json:"reachable"`
	MigrationVersion uint   `json:"migration_version"`
	Dirty            bool   `json:"dirty"`
	Error            string `json:"error,omitempty"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	jsonOutput bool
	timeout    time.Duration
}

// newStatusCmd creates the status subcommand with all flags configured.
func newStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check account database health",
		Long:  `Check that the account database is reachable and report its migration version.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", 10*time.Second, "connection timeout")

	return cmd
}

func runStatus(cmd *cobra.Command, cfg *statusConfig) error {
	appCfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.timeout)
	defer cancel()

	status := queryStoreStatus(ctx, appCfg.Database.URL)

	output, err := formatStatus(status, cfg.jsonOutput)
	if err != nil {
		return err
	}
	cmd.Println(output)

	if !status.Reachable {
		return oops.Code("DB_CONNECT_FAILED").Errorf("account database is unreachable")
	}
	return nil
}

func queryStoreStatus(ctx context.Context, databaseURL string) StoreStatus {
	var status StoreStatus

	pool, err := store.Connect(ctx, databaseURL)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	defer pool.Close()
	status.Reachable = true

	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	defer func() { _ = migrator.Close() }()

	version, dirty, err := migrator.Version()
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.MigrationVersion = version
	status.Dirty = dirty
	return status
}

func formatStatus(status StoreStatus, asJSON bool) (string, error) {
	if asJSON {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return "", oops.Code("STATUS_ENCODE_FAILED").Wrap(err)
		}
		return string(data), nil
	}

	if !status.Reachable {
		return "database: unreachable (" + status.Error + ")", nil
	}
	out := "database: ok\n"
	if status.MigrationVersion == 0 && !status.Dirty {
		out += "migrations: none applied"
	} else {
		out += "migrations: version " + formatVersion(status.MigrationVersion, status.Dirty)
	}
	return out, nil
}

func formatVersion(version uint, dirty bool) string {
	s := strconv.FormatUint(uint64(version), 10)
	if dirty {
		s += " (dirty)"
	}
	return s
}
