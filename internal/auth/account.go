// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"time"
)

// Account is a registered user.
type Account struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// LookupField names a unique account column that can be searched.
type LookupField string

// Searchable account columns.
const (
	FieldUsername LookupField = "username"
	FieldEmail    LookupField = "email"
)

// Valid reports whether f is one of the searchable columns.
func (f LookupField) Valid() bool {
	return f == FieldUsername || f == FieldEmail
}

// NewAccount is the data needed to insert an account.
type NewAccount struct {
	Username     string
	Email        string
	PasswordHash string
}

// AccountRepository persists accounts.
type AccountRepository interface {
	// FindByField returns the single account whose field equals value.
	// Returns ErrNotFound when no account matches.
	FindByField(ctx context.Context, field LookupField, value string) (*Account, error)

	// GetByID returns the account with the given id, or ErrNotFound.
	GetByID(ctx context.Context, id int64) (*Account, error)

	// Insert stores a new account and returns its server-assigned id.
	// A unique constraint violation is reported as a *DuplicateError.
	Insert(ctx context.Context, account NewAccount) (int64, error)
}
