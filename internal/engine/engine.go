// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

// Package engine assembles the authentication gate into a single unit the
// host game server embeds: it wires the session registry, the verification
// pipeline, the action gate, the store worker, and the observability server
// from one configuration tree.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gateward/gateward/internal/auth"
	"github.com/gateward/gateward/internal/config"
	"github.com/gateward/gateward/internal/gate"
	"github.com/gateward/gateward/internal/logging"
	"github.com/gateward/gateward/internal/observability"
	"github.com/gateward/gateward/internal/sched"
	"github.com/gateward/gateward/internal/world"
)

// Options configures a new Engine.
type Options struct {
	Config config.Config

	// Host is the embedding game server.
	Host auth.Host

	// Accounts is the credential store.
	Accounts auth.AccountRepository

	// Scheduler marshals callbacks onto connection execution contexts.
	// Defaults to a timer-backed scheduler.
	Scheduler sched.Scheduler

	// Messages overrides player-facing strings. Zero-value fields keep
	// the defaults.
	Messages auth.Messages

	// Reload re-reads and applies host configuration, for the admin
	// reload operation. Optional.
	Reload auth.ReloadFunc

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Engine is the assembled authentication gate.
type Engine struct {
	registry *auth.Registry
	pipeline *auth.Pipeline
	gate     *gate.Gate
	reset    *auth.ResetService
	admin    *auth.AdminService
	worker   *auth.Worker
	obs      *observability.Server
	logger   *slog.Logger
	ready    atomic.Bool
}

// New wires an Engine from Options.
func New(opts Options) (*Engine, error) {
	if opts.Host == nil {
		return nil, oops.Code("ENGINE_BAD_DEPS").Errorf("host is required")
	}
	if opts.Accounts == nil {
		return nil, oops.Code("ENGINE_BAD_DEPS").Errorf("account repository is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	scheduler := opts.Scheduler
	if scheduler == nil {
		scheduler = sched.NewTimerScheduler()
	}

	cfg := opts.Config
	registry := auth.NewRegistry()
	throttle := auth.NewIPThrottle(cfg.Login.IPCooldown())
	worker := auth.NewWorker()

	pipeline, err := auth.NewPipeline(pipelineConfig(cfg), auth.PipelineDeps{
		Registry:  registry,
		Accounts:  opts.Accounts,
		Throttle:  throttle,
		Hasher:    auth.NewArgon2idHasher(),
		Scheduler: scheduler,
		Worker:    worker,
		Host:      opts.Host,
		Messages:  opts.Messages,
		Logger:    logger,
	})
	if err != nil {
		worker.Close()
		return nil, err
	}

	g, err := gate.New(registry, gateLocks(cfg.Protection), cfg.Protection.AllowedCommands)
	if err != nil {
		worker.Close()
		return nil, err
	}

	reset, err := auth.NewResetService(opts.Accounts, auth.NewArgon2idHasher(), logger)
	if err != nil {
		worker.Close()
		return nil, err
	}

	admin, err := auth.NewAdminService(registry, opts.Reload, cfg.Admin.ConsoleOnly, logger)
	if err != nil {
		worker.Close()
		return nil, err
	}

	e := &Engine{
		registry: registry,
		pipeline: pipeline,
		gate:     g,
		reset:    reset,
		admin:    admin,
		worker:   worker,
		logger:   logger,
	}

	if cfg.Metrics.Addr != "" {
		e.obs = observability.NewServer(cfg.Metrics.Addr, e.ready.Load)
	}
	return e, nil
}

// Start brings up the observability endpoints and marks the engine ready.
func (e *Engine) Start() error {
	if e.obs != nil {
		if _, err := e.obs.Start(); err != nil {
			return err
		}
	}
	e.ready.Store(true)
	e.logger.Info("authentication engine started")
	return nil
}

// Shutdown drains pending store work, persists every authenticated
// session's position, and stops the observability server.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.ready.Store(false)
	e.worker.Close()

	var errs []error
	if err := e.pipeline.SaveAllPositions(ctx); err != nil {
		errs = append(errs, err)
	}
	e.registry.Shutdown()

	if e.obs != nil {
		if err := e.obs.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	e.logger.Info("authentication engine stopped")
	return errors.Join(errs...)
}

// HandleConnect admits a new session.
func (e *Engine) HandleConnect(id ulid.ULID, name, addr string, pos world.Position) {
	e.pipeline.HandleConnect(id, name, addr, pos)
}

// HandleLogin verifies the session's password.
func (e *Engine) HandleLogin(id ulid.ULID, password string) {
	e.pipeline.HandleLogin(id, password)
}

// HandleRegister creates an account for the session.
func (e *Engine) HandleRegister(id ulid.ULID, password, confirm string) {
	e.pipeline.HandleRegister(id, password, confirm)
}

// HandleDisconnect tears the session down.
func (e *Engine) HandleDisconnect(id ulid.ULID, pos world.Position) {
	e.pipeline.HandleDisconnect(id, pos)
	e.gate.Forget(id)
}

// CheckAction gates a non-movement, non-command action.
func (e *Engine) CheckAction(id ulid.ULID, action gate.Action) gate.Decision {
	return e.gate.CheckAction(id, action)
}

// CheckMovement gates a position update.
func (e *Engine) CheckMovement(id ulid.ULID, from, to world.Position) gate.Decision {
	return e.gate.CheckMovement(id, from, to)
}

// CheckCommand gates a command line. Denied lines are logged through the
// redacting handler, so credential arguments never reach the log output.
func (e *Engine) CheckCommand(id ulid.ULID, line string) gate.Decision {
	d := e.gate.CheckCommand(id, line)
	if d.Deny {
		e.logger.Debug("command blocked before authentication",
			"session_id", id.String(), logging.CommandKey, line)
	}
	return d
}

// Registry exposes session state for host queries.
func (e *Engine) Registry() *auth.Registry { return e.registry }

// Reset exposes the administrative credential operations.
func (e *Engine) Reset() *auth.ResetService { return e.reset }

// Admin exposes the administrative reload and status operations.
func (e *Engine) Admin() *auth.AdminService { return e.admin }

func pipelineConfig(cfg config.Config) auth.Config {
	return auth.Config{
		MaxAttempts:      cfg.Login.MaxAttempts,
		Timeout:          cfg.Login.Timeout(),
		Reminder:         cfg.Login.Reminder(),
		TeleportEnabled:  cfg.Teleport.Enabled,
		TeleportMode:     cfg.Teleport.Mode,
		ReturnToPrevious: cfg.Teleport.ReturnToPrevious,
		FixedDestination: world.Position{
			World: cfg.Teleport.Fixed.World,
			X:     cfg.Teleport.Fixed.X,
			Y:     cfg.Teleport.Fixed.Y,
			Z:     cfg.Teleport.Fixed.Z,
			Yaw:   float32(cfg.Teleport.Fixed.Yaw),
			Pitch: float32(cfg.Teleport.Fixed.Pitch),
		},
	}
}

func gateLocks(p config.Protection) gate.Locks {
	return gate.Locks{
		Movement:      p.LockMovement,
		Commands:      p.LockCommands,
		Damage:        p.LockDamage,
		Interact:      p.LockInteract,
		InventoryOpen: p.LockInventoryOpen,
		ItemSwitch:    p.LockItemSwitch,
		BlockBreak:    p.LockBlockBreak,
		BlockPlace:    p.LockBlockPlace,
	}
}
