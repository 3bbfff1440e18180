// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package main

import (
	"bufio"
	"io"
	"log/slog"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gateward/gateward/internal/auth"
	"github.com/gateward/gateward/internal/auth/postgres"
	"github.com/gateward/gateward/internal/store"
)

// newResetPasswordCmd creates the reset-password subcommand. The new
// password is read from stdin so it never lands in shell history.
func newResetPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password <name>",
		Short: "Force a new password onto an account",
		Long: `Replace an account's password with a freshly hashed one.
The new password is read from standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: runResetPassword,
	}
}

// newUnregisterCmd creates the unregister subcommand.
func newUnregisterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unregister <name>",
		Short: "Delete an account",
		Long: `Delete an account from the store. The player can register
again from scratch on their next connect.`,
		Args: cobra.ExactArgs(1),
		RunE: runUnregister,
	}
}

func withResetService(cmd *cobra.Command, fn func(*auth.ResetService) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	pool, err := store.Connect(cmd.Context(), cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	service, err := auth.NewResetService(
		postgres.NewAccountRepository(pool),
		auth.NewArgon2idHasher(),
		slog.Default(),
	)
	if err != nil {
		return err
	}
	return fn(service)
}

func runResetPassword(cmd *cobra.Command, args []string) error {
	name := args[0]

	password, err := readPassword(cmd.InOrStdin())
	if err != nil {
		return err
	}

	return withResetService(cmd, func(s *auth.ResetService) error {
		if err := s.ResetPassword(cmd.Context(), name, password); err != nil {
			return err
		}
		cmd.Printf("Password reset for %s\n", name)
		return nil
	})
}

func runUnregister(cmd *cobra.Command, args []string) error {
	name := args[0]

	return withResetService(cmd, func(s *auth.ResetService) error {
		if err := s.Unregister(cmd.Context(), name); err != nil {
			return err
		}
		cmd.Printf("Unregistered %s\n", name)
		return nil
	})
}

// readPassword reads one line and strips the trailing newline.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", oops.Code("AUTH_RESET_FAILED").Wrapf(err, "reading password")
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", oops.Code("AUTH_RESET_FAILED").Errorf("password must not be empty")
	}
	return password, nil
}
