// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package session

import (
	"math"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/samber/oops"
)

// DefaultCookieName is the cookie the session is stored in.
const DefaultCookieName = "session"

const (
	keyLoggedIn = "logged_in"
	keyUserID   = "user_id"
	keyIssuedAt = "issued_at"
)

// Config describes the session cookie.
type Config struct {
	// Name of the cookie. Defaults to DefaultCookieName.
	Name string
	// Keys sign the cookie. The first key signs new cookies; every key is
	// accepted when verifying, so older keys can be retired gradually.
	Keys []string
	// TTL is the fixed session lifetime. Defaults to DefaultTTL.
	TTL time.Duration
	// Secure restricts the cookie to HTTPS.
	Secure bool
	// Now is the clock used for issuing and expiry. Defaults to time.Now.
	Now func() time.Time
}

// Store loads and saves Session values through a signed cookie.
type Store struct {
	name  string
	ttl   time.Duration
	store cookie.Store
	opts  sessions.Options
	now   func() time.Time
}

// NewStore builds a cookie-backed Store from cfg.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Keys) == 0 {
		return nil, oops.Code("SESSION_CONFIG_INVALID").Errorf("at least one signing key is required")
	}

	// Pairs of (hash key, block key). A nil block key signs without encrypting.
	pairs := make([][]byte, 0, 2*len(cfg.Keys))
	for i, key := range cfg.Keys {
		if key == "" {
			return nil, oops.Code("SESSION_CONFIG_INVALID").With("index", i).Errorf("signing key must not be empty")
		}
		pairs = append(pairs, []byte(key), nil)
	}

	name := cfg.Name
	if name == "" {
		name = DefaultCookieName
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	opts := sessions.Options{
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	store := cookie.NewStore(pairs...)
	store.Options(opts)

	return &Store{name: name, ttl: ttl, store: store, opts: opts, now: now}, nil
}

// Name is the cookie name.
func (s *Store) Name() string { return s.name }

// TTL is the fixed session lifetime.
func (s *Store) TTL() time.Duration { return s.ttl }

// Now reads the store's clock.
func (s *Store) Now() time.Time { return s.now() }

// Active reports whether sess is logged in and unexpired by this store's
// clock and lifetime.
func (s *Store) Active(sess Session) bool { return sess.Active(s.now(), s.ttl) }

// Middleware attaches the cookie session to each request. It must run
// before Load or Save.
func (s *Store) Middleware() gin.HandlerFunc {
	return sessions.Sessions(s.name, s.store)
}

// Load decodes the request's session. Missing, tampered or expired cookies
// all yield the anonymous session.
func (s *Store) Load(c *gin.Context) Session {
	raw := sessions.Default(c)

	loggedIn, _ := raw.Get(keyLoggedIn).(bool) //nolint:errcheck // type assertion, not an error
	userID, _ := raw.Get(keyUserID).(int64)    //nolint:errcheck // type assertion, not an error
	issued, _ := raw.Get(keyIssuedAt).(int64)  //nolint:errcheck // type assertion, not an error
	if !loggedIn || userID == 0 || issued == 0 {
		return Anonymous()
	}

	sess := Establish(userID, time.Unix(issued, 0))
	if !s.Active(sess) {
		return Anonymous()
	}
	return sess
}

// Save writes sess to the response. An anonymous session expires the cookie.
func (s *Store) Save(c *gin.Context, sess Session) error {
	raw := sessions.Default(c)
	raw.Clear()

	opts := s.opts
	if sess.LoggedIn() {
		raw.Set(keyLoggedIn, true)
		raw.Set(keyUserID, sess.UserID())
		raw.Set(keyIssuedAt, sess.IssuedAt().Unix())
		remaining := sess.ExpiresAt(s.ttl).Sub(s.now())
		if remaining <= 0 {
			return oops.Code("SESSION_EXPIRED").With("user_id", sess.UserID()).Errorf("refusing to save an expired session")
		}
		opts.MaxAge = int(math.Ceil(remaining.Seconds()))
	} else {
		opts.MaxAge = -1
	}
	raw.Options(opts)

	if err := raw.Save(); err != nil {
		return oops.Code("SESSION_SAVE_FAILED").With("logged_in", sess.LoggedIn()).Wrap(err)
	}
	return nil
}
