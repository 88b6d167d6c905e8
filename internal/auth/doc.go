// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package auth implements account registration and credential checks.
//
// # Validation
//
// Submitted forms are checked by a Form: an ordered list of Rule
// descriptors. Every rule runs and every failing message is collected in
// declaration order. Rules with a Lookup consult the AccountRepository; a
// lookup fault aborts validation with an error instead of a message.
//
// # Outcomes
//
// Service methods return a *Rejection (matched with errors.As) when the
// submission broke a business rule. Any other error is a fault: a store or
// hashing failure the caller should report as an internal error.
//
// # Uniqueness
//
// The registration form checks email uniqueness up front, but the database
// UNIQUE constraints are authoritative. An insert that loses a race is
// reported as the same Rejection the form would have produced.
package auth
