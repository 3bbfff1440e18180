// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package auth

import (
	"context"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gateward/gateward/internal/world"
)

// Account name validation constraints.
const (
	MinNameLength = 3
	MaxNameLength = 16
)

// nameRegex matches account names that:
// - Start with a letter (a-z, A-Z)
// - Contain only letters, numbers, and underscores
var nameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// Account represents a registered player account. Names are unique
// case-insensitively; Name preserves the case used at registration.
type Account struct {
	ID           ulid.ULID
	Name         string
	PasswordHash string
	LastAddress  string
	LastLoginAt  time.Time
	LastPosition *world.Position
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewAccount creates an Account with a validated name.
func NewAccount(name, passwordHash string) (*Account, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("password hash cannot be empty")
	}
	now := time.Now()
	return &Account{
		ID:           ulid.Make(),
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ValidateName validates an account name.
// Name requirements:
// - Length: MinNameLength to MaxNameLength characters
// - Must start with a letter
// - Can contain only letters (a-z, A-Z), numbers (0-9), and underscores (_)
func ValidateName(name string) error {
	if name == "" {
		return oops.Code("AUTH_INVALID_NAME").Errorf("name cannot be empty")
	}
	if len(name) < MinNameLength {
		return oops.Code("AUTH_INVALID_NAME").
			With("min", MinNameLength).
			Errorf("name must be at least %d characters", MinNameLength)
	}
	if len(name) > MaxNameLength {
		return oops.Code("AUTH_INVALID_NAME").
			With("max", MaxNameLength).
			Errorf("name must be at most %d characters", MaxNameLength)
	}
	if !nameRegex.MatchString(name) {
		return oops.Code("AUTH_INVALID_NAME").
			Errorf("name must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

// AccountRepository manages account persistence. Lookups by name are
// case-insensitive.
type AccountRepository interface {
	// Create stores a new account. Returns ErrAlreadyExists if the name
	// is taken.
	Create(ctx context.Context, account *Account) error

	// GetByName retrieves an account by name. Returns ErrNotFound if no
	// account has the given name.
	GetByName(ctx context.Context, name string) (*Account, error)

	// UpdatePassword replaces the password hash for an account.
	UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error

	// UpdateLastLogin records the address and time of a successful login.
	UpdateLastLogin(ctx context.Context, id ulid.ULID, address string, at time.Time) error

	// UpdateLastPosition records where the account last stood.
	UpdateLastPosition(ctx context.Context, id ulid.ULID, pos world.Position) error

	// Delete removes an account.
	Delete(ctx context.Context, id ulid.ULID) error
}
