// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// Registration is a sign-up submission as received.
type Registration struct {
	Username string
	Password string
	Email    string
}

// Credentials is a sign-in submission as received.
type Credentials struct {
	Username string
	Password string
}

// Service registers accounts and checks credentials.
type Service struct {
	accounts     AccountRepository
	hasher       PasswordHasher
	registration Form
	login        Form
	logger       *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger used for registration and login events.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a Service backed by accounts and hasher.
func NewService(accounts AccountRepository, hasher PasswordHasher, opts ...ServiceOption) (*Service, error) {
	if accounts == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("accounts repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("password hasher is required")
	}

	s := &Service{
		accounts:     accounts,
		hasher:       hasher,
		registration: RegistrationForm(accounts),
		login:        LoginForm(accounts),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register validates reg, hashes the trimmed password and stores the
// account. A *Rejection is returned when validation fails or the insert hits
// a unique constraint; no account is stored in either case.
func (s *Service) Register(ctx context.Context, reg Registration) (*Account, error) {
	clean, messages, err := s.registration.Validate(ctx, Values{
		FieldNameEmail:    reg.Email,
		FieldNameUsername: reg.Username,
		FieldNamePassword: reg.Password,
	})
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "validate registration").Wrap(err)
	}
	if len(messages) > 0 {
		s.logger.DebugContext(ctx, "registration rejected", "reasons", len(messages))
		return nil, &Rejection{Messages: messages}
	}

	hash, err := s.hasher.Hash(clean[FieldNamePassword])
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "hash password").Wrap(err)
	}

	account := &Account{
		Username:     clean[FieldNameUsername],
		Email:        clean[FieldNameEmail],
		PasswordHash: hash,
	}
	id, err := s.accounts.Insert(ctx, NewAccount{
		Username:     account.Username,
		Email:        account.Email,
		PasswordHash: account.PasswordHash,
	})
	if err != nil {
		var dup *DuplicateError
		if errors.As(err, &dup) {
			s.logger.InfoContext(ctx, "registration hit unique constraint", "field", string(dup.Field))
			return nil, &Rejection{Messages: []string{duplicateMessage(dup.Field)}}
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "insert account").Wrap(err)
	}

	account.ID = id
	s.logger.InfoContext(ctx, "account registered", "account_id", id)
	return account, nil
}

func duplicateMessage(field LookupField) string {
	if field == FieldUsername {
		return MsgUsernameTaken
	}
	return MsgEmailTaken
}

// Authenticate validates creds and verifies the password against the stored
// hash. It returns the matching account, or a *Rejection carrying
// "Invalid Password" when the hash does not match.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (*Account, error) {
	clean, messages, err := s.login.Validate(ctx, Values{
		FieldNameUsername: creds.Username,
		FieldNamePassword: creds.Password,
	})
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").With("operation", "validate credentials").Wrap(err)
	}
	if len(messages) > 0 {
		return nil, &Rejection{Messages: messages}
	}

	account, err := s.accounts.FindByField(ctx, FieldUsername, clean[FieldNameUsername])
	if errors.Is(err, ErrNotFound) {
		return nil, &Rejection{Messages: []string{MsgInvalidUsername}}
	}
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").With("operation", "get account by username").Wrap(err)
	}

	ok, err := s.hasher.Verify(clean[FieldNamePassword], account.PasswordHash)
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			With("account_id", account.ID).
			Wrap(err)
	}
	if !ok {
		s.logger.InfoContext(ctx, "login failed", "account_id", account.ID)
		return nil, &Rejection{Messages: []string{MsgInvalidPassword}}
	}

	s.logger.InfoContext(ctx, "login succeeded", "account_id", account.ID)
	return account, nil
}

// Account returns the account with id. The error wraps ErrNotFound when the
// account no longer exists.
func (s *Service) Account(ctx context.Context, id int64) (*Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, oops.Code("AUTH_ACCOUNT_FAILED").With("account_id", id).Wrap(err)
	}
	return account, nil
}
