// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

// Package config loads gateward configuration from YAML files and
// command-line flags layered over built-in defaults.
package config

import (
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config is the full gateward configuration tree.
type Config struct {
	Login      Login      `koanf:"login"`
	Teleport   Teleport   `koanf:"teleport"`
	Protection Protection `koanf:"protection"`
	Admin      Admin      `koanf:"admin"`
	Database   Database   `koanf:"database"`
	Log        Log        `koanf:"log"`
	Metrics    Metrics    `koanf:"metrics"`
}

// Login controls credential verification and session deadlines.
type Login struct {
	MaxAttempts       int `koanf:"max-attempts"`
	TimeoutSeconds    int `koanf:"timeout-seconds"`
	IPCooldownSeconds int `koanf:"ip-cooldown-seconds"`
	ReminderSeconds   int `koanf:"reminder-seconds"`
}

// Teleport controls where unauthenticated sessions are placed and where
// they return after login.
type Teleport struct {
	Enabled          bool     `koanf:"enabled"`
	Mode             string   `koanf:"mode"`
	ReturnToPrevious bool     `koanf:"return-to-previous"`
	Fixed            Position `koanf:"fixed"`
}

// Position is a configured world location.
type Position struct {
	World string  `koanf:"world"`
	X     float64 `koanf:"x"`
	Y     float64 `koanf:"y"`
	Z     float64 `koanf:"z"`
	Yaw   float64 `koanf:"yaw"`
	Pitch float64 `koanf:"pitch"`
}

// Protection selects which actions are locked before authentication.
type Protection struct {
	LockMovement      bool     `koanf:"lock-movement"`
	LockCommands      bool     `koanf:"lock-commands"`
	LockDamage        bool     `koanf:"lock-damage"`
	LockInteract      bool     `koanf:"lock-interact"`
	LockInventoryOpen bool     `koanf:"lock-inventory"`
	LockItemSwitch    bool     `koanf:"lock-item-switch"`
	LockBlockBreak    bool     `koanf:"lock-block-break"`
	LockBlockPlace    bool     `koanf:"lock-block-place"`
	AllowedCommands   []string `koanf:"allowed-commands"`
}

// Admin controls administrative operations.
type Admin struct {
	ConsoleOnly bool `koanf:"console-only"`
}

// Database holds the account store connection settings.
type Database struct {
	URL string `koanf:"url"`
}

// Log holds logging settings.
type Log struct {
	Format string `koanf:"format"`
}

// Metrics holds the observability endpoint settings.
type Metrics struct {
	Addr string `koanf:"addr"`
}

// Teleport modes.
const (
	TeleportSpawn    = "spawn"
	TeleportFixed    = "fixed"
	TeleportPrevious = "previous"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Login: Login{
			MaxAttempts:       5,
			TimeoutSeconds:    60,
			IPCooldownSeconds: 120,
			ReminderSeconds:   10,
		},
		Teleport: Teleport{
			Enabled:          true,
			Mode:             TeleportSpawn,
			ReturnToPrevious: true,
		},
		Protection: Protection{
			LockMovement:      true,
			LockCommands:      true,
			LockDamage:        true,
			LockInteract:      true,
			LockInventoryOpen: true,
			LockItemSwitch:    true,
			LockBlockBreak:    true,
			LockBlockPlace:    true,
			AllowedCommands:   []string{"login", "l", "register", "reg"},
		},
		Admin: Admin{
			ConsoleOnly: true,
		},
		Database: Database{
			URL: "postgres://localhost:5432/gateward",
		},
		Log: Log{
			Format: "json",
		},
		Metrics: Metrics{
			Addr: ":9090",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and an
// optional flag set, in that order of precedence.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").
				With("path", path).
				Wrapf(err, "loading config file")
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").
				Wrapf(err, "loading flags")
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.Code("CONFIG_LOAD_FAILED").
			Wrapf(err, "unmarshaling config")
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Teleport.Mode {
	case TeleportSpawn, TeleportFixed, TeleportPrevious:
	default:
		return oops.Code("CONFIG_INVALID").
			With("teleport.mode", c.Teleport.Mode).
			Errorf("teleport mode must be one of spawn, fixed, previous")
	}
	if c.Login.MaxAttempts < 1 {
		return oops.Code("CONFIG_INVALID").
			With("login.max-attempts", c.Login.MaxAttempts).
			Errorf("login.max-attempts must be at least 1")
	}
	if c.Login.ReminderSeconds < 1 {
		c.Login.ReminderSeconds = 1
	}
	return nil
}

// Timeout returns the login timeout. Zero disables the timeout.
func (l Login) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// Reminder returns the reminder period.
func (l Login) Reminder() time.Duration {
	return time.Duration(l.ReminderSeconds) * time.Second
}

// IPCooldown returns the per-address registration and login cooldown.
// Zero disables throttling.
func (l Login) IPCooldown() time.Duration {
	return time.Duration(l.IPCooldownSeconds) * time.Second
}
