// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// ResetService performs administrative credential operations: forcing a new
// password onto an account and removing an account entirely. It is driven
// from the server console, never from in-game commands.
type ResetService struct {
	accounts AccountRepository
	hasher   PasswordHasher
	logger   *slog.Logger
}

// NewResetService creates a ResetService.
func NewResetService(accounts AccountRepository, hasher PasswordHasher, logger *slog.Logger) (*ResetService, error) {
	if accounts == nil {
		return nil, oops.Code("AUTH_BAD_DEPS").Errorf("account repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_BAD_DEPS").Errorf("hasher is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ResetService{accounts: accounts, hasher: hasher, logger: logger}, nil
}

// ResetPassword replaces the account's password with a fresh hash of
// newPassword.
func (s *ResetService) ResetPassword(ctx context.Context, name, newPassword string) error {
	account, err := s.accounts.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("AUTH_ACCOUNT_NOT_FOUND").
				With("account", name).
				Errorf("no such account")
		}
		return oops.Code("AUTH_RESET_FAILED").
			With("account", name).
			Wrapf(err, "looking up account")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("AUTH_RESET_FAILED").
			With("account", name).
			Wrapf(err, "hashing new password")
	}

	if err := s.accounts.UpdatePassword(ctx, account.ID, hash); err != nil {
		return oops.Code("AUTH_RESET_FAILED").
			With("account", name).
			Wrapf(err, "storing new password")
	}

	s.logger.Info("password reset", "account", account.Name)
	return nil
}

// Unregister deletes the account. The player can register again from
// scratch on their next connect.
func (s *ResetService) Unregister(ctx context.Context, name string) error {
	account, err := s.accounts.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("AUTH_ACCOUNT_NOT_FOUND").
				With("account", name).
				Errorf("no such account")
		}
		return oops.Code("AUTH_UNREGISTER_FAILED").
			With("account", name).
			Wrapf(err, "looking up account")
	}

	if err := s.accounts.Delete(ctx, account.ID); err != nil {
		return oops.Code("AUTH_UNREGISTER_FAILED").
			With("account", name).
			Wrapf(err, "deleting account")
	}

	s.logger.Info("account unregistered", "account", account.Name)
	return nil
}
