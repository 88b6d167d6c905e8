// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package authtest provides test helpers for the auth package.
package authtest

import (
	"context"
	"sync"
	"time"

	"github.com/gatehouse-auth/gatehouse/internal/auth"
)

// MemoryRepository is an in-memory AccountRepository that enforces the same
// uniqueness rules as the accounts table.
type MemoryRepository struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]auth.Account

	// Err, when set, is returned by every method.
	Err error
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{accounts: make(map[int64]auth.Account)}
}

// FindByField returns the account whose field equals value.
func (r *MemoryRepository) FindByField(_ context.Context, field auth.LookupField, value string) (*auth.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, a := range r.accounts {
		if matches(a, field, value) {
			found := a
			return &found, nil
		}
	}
	return nil, auth.ErrNotFound
}

// GetByID returns the account with id.
func (r *MemoryRepository) GetByID(_ context.Context, id int64) (*auth.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	a, ok := r.accounts[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return &a, nil
}

// Insert stores account, rejecting duplicate usernames or emails.
func (r *MemoryRepository) Insert(_ context.Context, account auth.NewAccount) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	for _, a := range r.accounts {
		if a.Username == account.Username {
			return 0, &auth.DuplicateError{Field: auth.FieldUsername}
		}
		if a.Email == account.Email {
			return 0, &auth.DuplicateError{Field: auth.FieldEmail}
		}
	}
	r.nextID++
	r.accounts[r.nextID] = auth.Account{
		ID:           r.nextID,
		Username:     account.Username,
		Email:        account.Email,
		PasswordHash: account.PasswordHash,
		CreatedAt:    time.Now(),
	}
	return r.nextID, nil
}

// Delete removes an account, as an operator would out of band.
func (r *MemoryRepository) Delete(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.accounts, id)
}

// Len reports how many accounts are stored.
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.accounts)
}

func matches(a auth.Account, field auth.LookupField, value string) bool {
	switch field {
	case auth.FieldUsername:
		return a.Username == value
	case auth.FieldEmail:
		return a.Email == value
	default:
		return false
	}
}

var _ auth.AccountRepository = (*MemoryRepository)(nil)
