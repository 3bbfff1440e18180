// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

// Package postgres implements auth repositories using PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gateward/gateward/internal/auth"
	"github.com/gateward/gateward/internal/world"
)

// DB is the slice of pgxpool.Pool the repository needs. pgxmock satisfies
// it too, which keeps the tests off a live database.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepository implements auth.AccountRepository using PostgreSQL.
//
// Timestamps are stored as epoch seconds; the position columns are all set
// or all NULL.
type AccountRepository struct {
	db DB
}

var _ auth.AccountRepository = (*AccountRepository)(nil)

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create stores a new account.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) error {
	posWorld, posX, posY, posZ, posYaw, posPitch := positionColumns(account.LastPosition)

	_, err := r.db.Exec(ctx, `
		INSERT INTO accounts (
			id, name, password_hash, last_address, last_login_at,
			created_at, updated_at,
			pos_world, pos_x, pos_y, pos_z, pos_yaw, pos_pitch
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		account.ID.String(),
		account.Name,
		account.PasswordHash,
		account.LastAddress,
		epochSeconds(account.LastLoginAt),
		account.CreatedAt.Unix(),
		account.UpdatedAt.Unix(),
		posWorld, posX, posY, posZ, posYaw, posPitch,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("ACCOUNT_ALREADY_EXISTS").
				With("name", account.Name).
				Wrap(auth.ErrAlreadyExists)
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("name", account.Name).
			Wrap(err)
	}
	return nil
}

// GetByName retrieves an account by name (case-insensitive).
func (r *AccountRepository) GetByName(ctx context.Context, name string) (*auth.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, password_hash, last_address, last_login_at,
		       created_at, updated_at,
		       pos_world, pos_x, pos_y, pos_z, pos_yaw, pos_pitch
		FROM accounts
		WHERE LOWER(name) = LOWER($1)
	`, name)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("name", name).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_FAILED").
			With("name", name).
			Wrap(err)
	}
	return account, nil
}

// UpdatePassword replaces the password hash for an account.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE accounts
		SET password_hash = $2, updated_at = $3
		WHERE id = $1
	`, id.String(), passwordHash, time.Now().Unix())
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_FAILED").
			With("id", id.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// UpdateLastLogin records the address and time of a successful login.
func (r *AccountRepository) UpdateLastLogin(ctx context.Context, id ulid.ULID, address string, at time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE accounts
		SET last_address = $2, last_login_at = $3, updated_at = $3
		WHERE id = $1
	`, id.String(), address, at.Unix())
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_FAILED").
			With("id", id.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// UpdateLastPosition records where the account last stood.
func (r *AccountRepository) UpdateLastPosition(ctx context.Context, id ulid.ULID, pos world.Position) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE accounts
		SET pos_world = $2, pos_x = $3, pos_y = $4, pos_z = $5,
		    pos_yaw = $6, pos_pitch = $7, updated_at = $8
		WHERE id = $1
	`, id.String(), pos.World, pos.X, pos.Y, pos.Z, pos.Yaw, pos.Pitch, time.Now().Unix())
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_FAILED").
			With("id", id.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// Delete removes an account.
func (r *AccountRepository) Delete(ctx context.Context, id ulid.ULID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("ACCOUNT_DELETE_FAILED").
			With("id", id.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

func scanAccount(row pgx.Row) (*auth.Account, error) {
	var (
		idStr       string
		lastLoginAt int64
		createdAt   int64
		updatedAt   int64
		posWorld    *string
		posX        *float64
		posY        *float64
		posZ        *float64
		posYaw      *float32
		posPitch    *float32
	)

	account := &auth.Account{}
	err := row.Scan(
		&idStr,
		&account.Name,
		&account.PasswordHash,
		&account.LastAddress,
		&lastLoginAt,
		&createdAt,
		&updatedAt,
		&posWorld, &posX, &posY, &posZ, &posYaw, &posPitch,
	)
	if err != nil {
		return nil, err
	}

	account.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_CORRUPT").
			With("id", idStr).
			Wrapf(err, "parsing account id")
	}

	if lastLoginAt > 0 {
		account.LastLoginAt = time.Unix(lastLoginAt, 0).UTC()
	}
	account.CreatedAt = time.Unix(createdAt, 0).UTC()
	account.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	if posWorld != nil && posX != nil && posY != nil && posZ != nil && posYaw != nil && posPitch != nil {
		account.LastPosition = &world.Position{
			World: *posWorld,
			X:     *posX,
			Y:     *posY,
			Z:     *posZ,
			Yaw:   *posYaw,
			Pitch: *posPitch,
		}
	}
	return account, nil
}

func positionColumns(pos *world.Position) (*string, *float64, *float64, *float64, *float32, *float32) {
	if pos == nil {
		return nil, nil, nil, nil, nil, nil
	}
	return &pos.World, &pos.X, &pos.Y, &pos.Z, &pos.Yaw, &pos.Pitch
}

func epochSeconds(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
