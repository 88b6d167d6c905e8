// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate matches any *DuplicateError via errors.Is.
var ErrDuplicate = errors.New("duplicate")

// DuplicateError reports an insert rejected by a unique constraint.
type DuplicateError struct {
	Field LookupField
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s", e.Field)
}

// Is makes errors.Is(err, ErrDuplicate) true for every DuplicateError.
func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// Rejection is a business-rule failure: the submission was understood but
// refused. Messages are meant for the person who submitted it.
type Rejection struct {
	Messages []string
}

func (r *Rejection) Error() string {
	return "rejected: " + strings.Join(r.Messages, "; ")
}

// AsRejection unwraps err to a *Rejection.
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
