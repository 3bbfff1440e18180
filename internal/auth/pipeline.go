// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gateward/gateward/internal/observability"
	"github.com/gateward/gateward/internal/sched"
	"github.com/gateward/gateward/internal/world"
	"github.com/gateward/gateward/pkg/errutil"
)

// Config holds the pipeline's behavior knobs.
type Config struct {
	// MaxAttempts is the number of wrong passwords before the session is
	// kicked.
	MaxAttempts int

	// Timeout kicks sessions that have not authenticated in time. Zero
	// disables the timeout.
	Timeout time.Duration

	// Reminder is the period between authentication reminders.
	Reminder time.Duration

	// TeleportEnabled moves unauthenticated sessions to a holding
	// location on connect.
	TeleportEnabled bool

	// TeleportMode is "spawn", "fixed", or "previous".
	TeleportMode string

	// ReturnToPrevious moves the session back to its pre-login location
	// after a successful login.
	ReturnToPrevious bool

	// FixedDestination is the holding location for mode "fixed".
	FixedDestination world.Position
}

// Teleport modes.
const (
	TeleportSpawn    = "spawn"
	TeleportFixed    = "fixed"
	TeleportPrevious = "previous"
)

// PipelineDeps are the collaborators a Pipeline needs.
type PipelineDeps struct {
	Registry  *Registry
	Accounts  AccountRepository
	Throttle  *IPThrottle
	Hasher    PasswordHasher
	Scheduler sched.Scheduler
	Worker    JobRunner
	Host      Host
	Messages  Messages
	Logger    *slog.Logger
}

// Pipeline drives the connect, register, login, and disconnect flows.
// Handler methods return quickly: store access runs on the worker, and
// continuations that touch session-visible state re-enter the session's
// execution context through the scheduler, dropping their result if the
// session disconnected in the meantime.
type Pipeline struct {
	cfg       Config
	registry  *Registry
	accounts  AccountRepository
	throttle  *IPThrottle
	hasher    PasswordHasher
	scheduler sched.Scheduler
	worker    JobRunner
	host      Host
	msgs      Messages
	logger    *slog.Logger
}

// NewPipeline creates a Pipeline, validating its dependencies.
func NewPipeline(cfg Config, deps PipelineDeps) (*Pipeline, error) {
	switch {
	case deps.Registry == nil:
		return nil, oops.Code("AUTH_BAD_DEPS").Errorf("registry is required")
	case deps.Accounts == nil:
		return nil, oops.Code("AUTH_BAD_DEPS").Errorf("account repository is required")
	case deps.Throttle == nil:
		return nil, oops.Code("AUTH_BAD_DEPS").Errorf("throttle is required")
	case deps.Hasher == nil:
		return nil, oops.Code("AUTH_BAD_DEPS").Errorf("hasher is required")
	case deps.Scheduler == nil:
		return nil, oops.Code("AUTH_BAD_DEPS").Errorf("scheduler is required")
	case deps.Worker == nil:
		return nil, oops.Code("AUTH_BAD_DEPS").Errorf("worker is required")
	case deps.Host == nil:
		return nil, oops.Code("AUTH_BAD_DEPS").Errorf("host is required")
	}
	if cfg.MaxAttempts < 1 {
		return nil, oops.Code("AUTH_BAD_DEPS").
			With("max_attempts", cfg.MaxAttempts).
			Errorf("max attempts must be at least 1")
	}
	if cfg.Reminder < time.Second {
		cfg.Reminder = time.Second
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		cfg:       cfg,
		registry:  deps.Registry,
		accounts:  deps.Accounts,
		throttle:  deps.Throttle,
		hasher:    deps.Hasher,
		scheduler: deps.Scheduler,
		worker:    deps.Worker,
		host:      deps.Host,
		msgs:      deps.Messages.fill(),
		logger:    logger,
	}, nil
}

// HandleConnect admits a new session: it registers the unauthenticated
// state, relocates the avatar to the holding location, shows the right
// prompt for registered and unregistered names, and arms the reminder and
// timeout tasks.
func (p *Pipeline) HandleConnect(id ulid.ULID, name, addr string, pos world.Position) {
	p.registry.OnConnect(id, name, addr, pos)
	p.throttle.Purge()
	observability.SetUnauthenticatedSessions(p.registry.UnauthenticatedCount())

	p.teleportOnConnect(id)
	p.armReminder(id)
	p.armTimeout(id)

	p.submit(func(ctx context.Context) {
		account, err := p.accounts.GetByName(ctx, name)
		registered := err == nil
		if err != nil && !errors.Is(err, ErrNotFound) {
			errutil.LogError(p.logger, "account lookup failed on connect", err)
		}

		var lastPos *world.Position
		if registered && account.LastPosition != nil {
			lastPos = account.LastPosition
		}

		p.scheduler.Run(id, func() {
			if !p.registry.Live(id) {
				return
			}
			if lastPos != nil && p.cfg.TeleportMode == TeleportPrevious {
				p.registry.SetReturnPosition(id, *lastPos)
			}
			if registered {
				p.host.ShowPrompt(id, p.msgs.PromptLogin)
			} else {
				p.host.ShowPrompt(id, p.msgs.PromptRegister)
			}
		})
	})
}

// HandleLogin verifies the session's password. Wrong passwords count
// against the attempt limit; crossing it kicks the session.
func (p *Pipeline) HandleLogin(id ulid.ULID, password string) {
	name, ok := p.registry.Name(id)
	if !ok {
		return
	}
	if p.registry.IsAuthenticated(id) {
		p.host.SendMessage(id, p.msgs.AlreadyLoggedIn)
		return
	}

	addr, _ := p.registry.Addr(id)
	if p.throttle.IsBlocked(addr, name) {
		observability.RecordLoginAttempt("throttled")
		p.host.SendMessage(id, p.msgs.addressCooldown(p.throttle.SecondsLeft(addr)))
		return
	}

	if !p.submit(func(ctx context.Context) {
		p.verify(ctx, id, name, addr, password)
	}) {
		p.host.SendMessage(id, p.msgs.StoreUnavailable)
	}
}

func (p *Pipeline) verify(ctx context.Context, id ulid.ULID, name, addr, password string) {
	account, err := p.accounts.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			observability.RecordLoginAttempt("not_registered")
			p.sendIfLive(id, p.msgs.NotRegistered)
			return
		}
		errutil.LogError(p.logger, "account lookup failed on login", err)
		p.sendIfLive(id, p.msgs.StoreUnavailable)
		return
	}

	match, err := p.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		errutil.LogError(p.logger, "stored password hash is unusable", err)
		p.sendIfLive(id, p.msgs.StoreUnavailable)
		return
	}

	if !match {
		observability.RecordLoginAttempt("wrong_password")
		p.scheduler.Run(id, func() {
			count := p.registry.RecordFailedAttempt(id)
			if count == 0 {
				return
			}
			if count >= p.cfg.MaxAttempts {
				p.logger.Warn("session exceeded login attempts",
					"session_id", id.String(), "account", name)
				p.host.Disconnect(id, p.msgs.TooManyAttempts)
				return
			}
			p.host.SendMessage(id, p.msgs.wrongPassword(p.cfg.MaxAttempts-count))
		})
		return
	}

	// Successful verification. Upgrade legacy hashes and record the login,
	// both best effort: the login proceeds regardless.
	if p.hasher.NeedsUpgrade(account.PasswordHash) {
		if newHash, hashErr := p.hasher.Hash(password); hashErr == nil {
			if upErr := p.accounts.UpdatePassword(ctx, account.ID, newHash); upErr != nil {
				errutil.LogError(p.logger, "hash upgrade failed", upErr)
			}
		}
	}
	if upErr := p.accounts.UpdateLastLogin(ctx, account.ID, addr, time.Now()); upErr != nil {
		errutil.LogError(p.logger, "recording last login failed", upErr)
	}
	p.throttle.RecordUse(addr, name)

	accountID := account.ID
	p.scheduler.Run(id, func() {
		if !p.registry.Live(id) {
			return
		}
		p.registry.SetAccount(id, accountID)
		if !p.registry.Authenticate(id) {
			p.host.SendMessage(id, p.msgs.AlreadyLoggedIn)
			return
		}
		observability.RecordLoginAttempt("success")
		observability.SetUnauthenticatedSessions(p.registry.UnauthenticatedCount())
		p.logger.Info("session authenticated",
			"session_id", id.String(), "account", name)
		p.host.SendMessage(id, p.msgs.LoginSuccess)
		p.returnAfterLogin(id)
	})
}

// HandleRegister creates an account for the session's name. Registration
// does not authenticate: the player logs in afterwards, proving the
// credential round-trips.
func (p *Pipeline) HandleRegister(id ulid.ULID, password, confirm string) {
	name, ok := p.registry.Name(id)
	if !ok {
		return
	}
	if p.registry.IsAuthenticated(id) {
		p.host.SendMessage(id, p.msgs.AlreadyLoggedIn)
		return
	}
	if password == "" {
		p.host.ShowPrompt(id, p.msgs.PromptRegister)
		return
	}
	if password != confirm {
		p.host.SendMessage(id, p.msgs.PasswordMismatch)
		return
	}
	if err := ValidateName(name); err != nil {
		p.host.SendMessage(id, p.msgs.InvalidName)
		return
	}

	addr, _ := p.registry.Addr(id)
	if p.throttle.IsBlocked(addr, name) {
		p.host.SendMessage(id, p.msgs.addressCooldown(p.throttle.SecondsLeft(addr)))
		return
	}
	joinPos, hasJoinPos := p.registry.ReturnPosition(id)

	if !p.submit(func(ctx context.Context) {
		p.register(ctx, id, name, addr, password, joinPos, hasJoinPos)
	}) {
		p.host.SendMessage(id, p.msgs.StoreUnavailable)
	}
}

func (p *Pipeline) register(ctx context.Context, id ulid.ULID, name, addr, password string, joinPos world.Position, hasJoinPos bool) {
	if _, err := p.accounts.GetByName(ctx, name); err == nil {
		p.sendIfLive(id, p.msgs.AlreadyRegistered)
		return
	} else if !errors.Is(err, ErrNotFound) {
		errutil.LogError(p.logger, "account lookup failed on register", err)
		p.sendIfLive(id, p.msgs.StoreUnavailable)
		return
	}

	hash, err := p.hasher.Hash(password)
	if err != nil {
		errutil.LogError(p.logger, "password hashing failed", err)
		p.sendIfLive(id, p.msgs.StoreUnavailable)
		return
	}

	account, err := NewAccount(name, hash)
	if err != nil {
		p.sendIfLive(id, p.msgs.InvalidName)
		return
	}
	account.LastAddress = addr
	if hasJoinPos {
		account.LastPosition = &joinPos
	}

	if err := p.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			p.sendIfLive(id, p.msgs.AlreadyRegistered)
			return
		}
		errutil.LogError(p.logger, "account creation failed", err)
		p.sendIfLive(id, p.msgs.StoreUnavailable)
		return
	}

	p.throttle.RecordUse(addr, name)
	p.logger.Info("account registered", "account", name)
	p.scheduler.Run(id, func() {
		if !p.registry.Live(id) {
			return
		}
		p.host.SendMessage(id, p.msgs.RegisterSuccess)
		p.host.ShowPrompt(id, p.msgs.PromptLogin)
	})
}

// HandleDisconnect tears the session down, persisting the avatar's last
// position for authenticated sessions.
func (p *Pipeline) HandleDisconnect(id ulid.ULID, pos world.Position) {
	accountID, wasAuthenticated := p.registry.OnDisconnect(id)
	observability.SetUnauthenticatedSessions(p.registry.UnauthenticatedCount())

	if !wasAuthenticated || accountID.Compare(ulid.ULID{}) == 0 {
		return
	}
	p.submit(func(ctx context.Context) {
		if err := p.accounts.UpdateLastPosition(ctx, accountID, pos); err != nil {
			errutil.LogError(p.logger, "saving last position failed", err)
		}
	})
}

// SaveAllPositions persists the current position of every authenticated
// session. Called at host shutdown, after the worker has drained.
func (p *Pipeline) SaveAllPositions(ctx context.Context) error {
	var errs []error
	for _, sa := range p.registry.AuthenticatedAccounts() {
		pos, ok := p.host.CurrentPosition(sa.SessionID)
		if !ok {
			continue
		}
		if err := p.accounts.UpdateLastPosition(ctx, sa.AccountID, pos); err != nil {
			errs = append(errs, oops.Code("AUTH_SAVE_FAILED").
				With("account_id", sa.AccountID.String()).
				Wrap(err))
		}
	}
	return errors.Join(errs...)
}

func (p *Pipeline) teleportOnConnect(id ulid.ULID) {
	if !p.cfg.TeleportEnabled {
		return
	}

	var dest world.Position
	switch p.cfg.TeleportMode {
	case TeleportFixed:
		dest = p.cfg.FixedDestination
	case TeleportPrevious:
		// The avatar stays put; the stored position is applied after the
		// account lookup completes.
		return
	default:
		dest = p.host.SpawnPosition(id)
	}

	p.host.Teleport(id, dest)
	p.registry.UpdatePreAuthPosition(id, dest)
}

func (p *Pipeline) returnAfterLogin(id ulid.ULID) {
	if !p.cfg.TeleportEnabled || !p.cfg.ReturnToPrevious {
		return
	}
	if pos, ok := p.registry.ReturnPosition(id); ok {
		p.host.Teleport(id, pos)
	}
}

func (p *Pipeline) armReminder(id ulid.ULID) {
	h := p.scheduler.ScheduleRepeating(id, p.cfg.Reminder, p.cfg.Reminder, func() {
		if p.registry.Live(id) && !p.registry.IsAuthenticated(id) {
			p.host.SendMessage(id, p.msgs.Reminder)
		}
	})
	p.registry.SetReminder(id, h)
}

func (p *Pipeline) armTimeout(id ulid.ULID) {
	if p.cfg.Timeout <= 0 {
		return
	}
	h := p.scheduler.ScheduleOnce(id, p.cfg.Timeout, func() {
		if p.registry.Live(id) && !p.registry.IsAuthenticated(id) {
			observability.RecordLoginAttempt("timeout")
			p.logger.Info("session timed out before authenticating",
				"session_id", id.String())
			p.host.Disconnect(id, p.msgs.LoginTimeout)
		}
	})
	p.registry.SetTimeout(id, h)
}

// sendIfLive marshals a message onto the session's context, dropping it if
// the session disconnected while the worker ran.
func (p *Pipeline) sendIfLive(id ulid.ULID, msg string) {
	p.scheduler.Run(id, func() {
		if p.registry.Live(id) {
			p.host.SendMessage(id, msg)
		}
	})
}

// submit queues a job on the worker, reporting whether it was accepted.
func (p *Pipeline) submit(job func(ctx context.Context)) bool {
	return p.worker.Submit(job)
}
