// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Values holds submitted form fields by name.
type Values map[string]string

// Rule is one validation descriptor. Exactly one of Check or Lookup is set.
type Rule struct {
	Field   string
	Message string

	// Check is a synchronous predicate over the normalized value.
	Check func(value string) bool

	// Lookup consults the account store. A returned error aborts validation.
	Lookup func(ctx context.Context, value string) (bool, error)
}

// Form is an ordered set of rules plus per-field normalizers applied before
// any rule runs.
type Form struct {
	Normalize map[string]func(string) string
	Rules     []Rule
}

// Validate normalizes raw and evaluates every rule. It returns the
// normalized values and the messages of failing rules in rule order. A
// non-nil error means a lookup failed; the messages are then incomplete and
// must not be shown.
func (f Form) Validate(ctx context.Context, raw Values) (Values, []string, error) {
	clean := make(Values, len(raw))
	for k, v := range raw {
		clean[k] = v
	}
	for field, normalize := range f.Normalize {
		clean[field] = normalize(clean[field])
	}

	var messages []string
	for _, rule := range f.Rules {
		value := clean[rule.Field]
		ok := true
		switch {
		case rule.Check != nil:
			ok = rule.Check(value)
		case rule.Lookup != nil:
			var err error
			ok, err = rule.Lookup(ctx, value)
			if err != nil {
				return nil, nil, err
			}
		}
		if !ok {
			messages = append(messages, rule.Message)
		}
	}
	return clean, messages, nil
}

var validate = validator.New()

// Tag returns a Check backed by a go-playground/validator tag such as
// "email" or "min=5". Tags are fixed at construction, so an unknown tag
// panics on first use.
func Tag(tag string) func(string) bool {
	return func(value string) bool {
		return validate.Var(value, tag) == nil
	}
}

// MaxBytes returns a Check that accepts values no longer than n bytes.
func MaxBytes(n int) func(string) bool {
	return func(value string) bool {
		return len(value) <= n
	}
}

// Trim strips leading and trailing whitespace.
func Trim(value string) string {
	return strings.TrimSpace(value)
}
