// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package postgres implements auth repositories on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/gatehouse-auth/gatehouse/internal/auth"
)

// Constraint names from migration 000001_create_accounts.
const (
	usernameConstraint = "accounts_username_key"
	emailConstraint    = "accounts_email_key"
)

const selectAccount = `SELECT id, username, email, password, created_at FROM accounts`

// Querier is the subset of *pgxpool.Pool the repository needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepository implements auth.AccountRepository using PostgreSQL.
type AccountRepository struct {
	db Querier
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db Querier) *AccountRepository {
	return &AccountRepository{db: db}
}

// FindByField retrieves the account whose username or email equals value.
func (r *AccountRepository) FindByField(ctx context.Context, field auth.LookupField, value string) (*auth.Account, error) {
	var query string
	switch field {
	case auth.FieldUsername:
		query = selectAccount + ` WHERE username = $1`
	case auth.FieldEmail:
		query = selectAccount + ` WHERE email = $1`
	default:
		return nil, oops.Code("ACCOUNT_FIELD_INVALID").With("field", string(field)).Errorf("field is not searchable")
	}

	account, err := scanAccount(r.db.QueryRow(ctx, query, value))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("field", string(field)).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_LOOKUP_FAILED").
			With("operation", "find account").
			With("field", string(field)).
			Wrap(err)
	}
	return account, nil
}

// GetByID retrieves an account by id.
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*auth.Account, error) {
	account, err := scanAccount(r.db.QueryRow(ctx, selectAccount+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_LOOKUP_FAILED").
			With("operation", "get account by id").
			With("id", id).
			Wrap(err)
	}
	return account, nil
}

// Insert stores a new account and returns the id the database assigned.
func (r *AccountRepository) Insert(ctx context.Context, account auth.NewAccount) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO accounts (username, password, email) VALUES ($1, $2, $3) RETURNING id`,
		account.Username, account.PasswordHash, account.Email,
	).Scan(&id)
	if err == nil {
		return id, nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		switch pgErr.ConstraintName {
		case usernameConstraint:
			return 0, &auth.DuplicateError{Field: auth.FieldUsername}
		case emailConstraint:
			return 0, &auth.DuplicateError{Field: auth.FieldEmail}
		}
	}
	return 0, oops.Code("ACCOUNT_INSERT_FAILED").
		With("operation", "insert account").
		With("username", account.Username).
		Wrap(err)
}

func scanAccount(row pgx.Row) (*auth.Account, error) {
	var (
		a         auth.Account
		createdAt time.Time
	)
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &createdAt); err != nil {
		return nil, err //nolint:wrapcheck // callers classify pgx.ErrNoRows before wrapping
	}
	a.CreatedAt = createdAt
	return &a, nil
}

var _ auth.AccountRepository = (*AccountRepository)(nil)
