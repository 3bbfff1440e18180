// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package auth

import (
	"log/slog"

	"github.com/samber/oops"
)

// ReloadFunc re-reads configuration and applies it. Supplied by the
// embedding host, since only the host knows where its configuration lives.
type ReloadFunc func() error

// AdminService exposes administrative operations. When consoleOnly is set,
// operations invoked on behalf of an in-game session are refused; the server
// console carries no session and is always allowed.
type AdminService struct {
	registry    *Registry
	reload      ReloadFunc
	consoleOnly bool
	logger      *slog.Logger
}

// NewAdminService creates an AdminService.
func NewAdminService(registry *Registry, reload ReloadFunc, consoleOnly bool, logger *slog.Logger) (*AdminService, error) {
	if registry == nil {
		return nil, oops.Code("AUTH_BAD_DEPS").Errorf("registry is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminService{
		registry:    registry,
		reload:      reload,
		consoleOnly: consoleOnly,
		logger:      logger,
	}, nil
}

// Reload re-reads configuration. fromConsole is false when an in-game
// session issued the command.
func (s *AdminService) Reload(fromConsole bool) error {
	if err := s.authorize(fromConsole); err != nil {
		return err
	}
	if s.reload == nil {
		return oops.Code("ADMIN_RELOAD_UNAVAILABLE").Errorf("host does not support reload")
	}
	if err := s.reload(); err != nil {
		return oops.Code("ADMIN_RELOAD_FAILED").Wrapf(err, "reloading configuration")
	}
	s.logger.Info("configuration reloaded")
	return nil
}

// Status summarizes the live session population.
type Status struct {
	Authenticated   int
	Unauthenticated int
}

// Status reports how many sessions are live and how many still wait to
// authenticate.
func (s *AdminService) Status(fromConsole bool) (Status, error) {
	if err := s.authorize(fromConsole); err != nil {
		return Status{}, err
	}
	return Status{
		Authenticated:   len(s.registry.AuthenticatedIDs()),
		Unauthenticated: s.registry.UnauthenticatedCount(),
	}, nil
}

func (s *AdminService) authorize(fromConsole bool) error {
	if s.consoleOnly && !fromConsole {
		return oops.Code("ADMIN_CONSOLE_ONLY").Errorf("administrative commands are console only")
	}
	return nil
}
