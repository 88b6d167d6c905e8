// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package session models the per-browser login state and carries it in a
// signed cookie.
package session

import "time"

// DefaultTTL is how long a login lasts from the moment it is established.
// The lifetime does not slide with activity.
const DefaultTTL = time.Hour

// Session is an immutable login state. The zero value is anonymous.
type Session struct {
	loggedIn bool
	userID   int64
	issuedAt time.Time
}

// Anonymous returns a session with no logged-in user.
func Anonymous() Session {
	return Session{}
}

// Establish returns a logged-in session for userID issued at now.
func Establish(userID int64, now time.Time) Session {
	return Session{loggedIn: true, userID: userID, issuedAt: now.UTC().Truncate(time.Second)}
}

// Clear returns the anonymous session. Clearing an anonymous session is a
// no-op in effect.
func (s Session) Clear() Session {
	return Anonymous()
}

// LoggedIn reports whether a user was authenticated.
func (s Session) LoggedIn() bool { return s.loggedIn }

// UserID is the authenticated account id, or 0 when anonymous.
func (s Session) UserID() int64 { return s.userID }

// IssuedAt is when the login was established.
func (s Session) IssuedAt() time.Time { return s.issuedAt }

// ExpiresAt is the end of the session lifetime for the given ttl.
func (s Session) ExpiresAt(ttl time.Duration) time.Time {
	return s.issuedAt.Add(ttl)
}

// Active reports whether s is logged in and still inside its lifetime.
func (s Session) Active(now time.Time, ttl time.Duration) bool {
	return s.loggedIn && s.userID != 0 && now.Before(s.ExpiresAt(ttl))
}

// Equal reports whether two sessions carry the same state.
func (s Session) Equal(other Session) bool {
	return s.loggedIn == other.loggedIn &&
		s.userID == other.userID &&
		s.issuedAt.Equal(other.issuedAt)
}
