// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// Form field names shared by the registration and login forms.
const (
	FieldNameEmail    = "email"
	FieldNameUsername = "username"
	FieldNamePassword = "password"
)

// Rejection messages.
const (
	MsgInvalidEmail     = "Invalid Email"
	MsgEmailTaken       = "This email already in used"
	MsgUsernameTaken    = "This username already in used"
	MsgUsernameEmpty    = "Username is empty"
	MsgPasswordTooShort = "Must be minimum 5 characters"
	MsgPasswordTooLong  = "Password is too long"
	MsgInvalidUsername  = "Invalid Username"
	MsgPasswordEmpty    = "Password is empty"
	MsgInvalidPassword  = "Invalid Password"
)

// MinPasswordLength is the shortest accepted password, counted in
// characters after trimming.
const MinPasswordLength = 5

// RegistrationForm checks a sign-up submission. Username and password are
// trimmed; email is checked as submitted.
func RegistrationForm(accounts AccountRepository) Form {
	return Form{
		Normalize: map[string]func(string) string{
			FieldNameUsername: Trim,
			FieldNamePassword: Trim,
		},
		Rules: []Rule{
			{Field: FieldNameEmail, Message: MsgInvalidEmail, Check: Tag("email")},
			{Field: FieldNameEmail, Message: MsgEmailTaken, Lookup: absent(accounts, FieldEmail)},
			{Field: FieldNameUsername, Message: MsgUsernameEmpty, Check: Tag("required")},
			{Field: FieldNamePassword, Message: MsgPasswordTooShort, Check: Tag(fmt.Sprintf("min=%d", MinPasswordLength))},
			{Field: FieldNamePassword, Message: MsgPasswordTooLong, Check: MaxBytes(MaxPasswordBytes)},
		},
	}
}

// LoginForm checks a sign-in submission. The password is trimmed; the
// username must match a stored account exactly.
func LoginForm(accounts AccountRepository) Form {
	return Form{
		Normalize: map[string]func(string) string{
			FieldNamePassword: Trim,
		},
		Rules: []Rule{
			{Field: FieldNameUsername, Message: MsgInvalidUsername, Lookup: present(accounts, FieldUsername)},
			{Field: FieldNamePassword, Message: MsgPasswordEmpty, Check: Tag("required")},
		},
	}
}

func absent(accounts AccountRepository, field LookupField) func(context.Context, string) (bool, error) {
	return func(ctx context.Context, value string) (bool, error) {
		found, err := exists(ctx, accounts, field, value)
		return !found, err
	}
}

func present(accounts AccountRepository, field LookupField) func(context.Context, string) (bool, error) {
	return func(ctx context.Context, value string) (bool, error) {
		return exists(ctx, accounts, field, value)
	}
}

func exists(ctx context.Context, accounts AccountRepository, field LookupField, value string) (bool, error) {
	_, err := accounts.FindByField(ctx, field, value)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, oops.Code("AUTH_LOOKUP_FAILED").With("field", string(field)).Wrap(err)
	}
	return true, nil
}
