// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package session

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse-auth/gatehouse/pkg/errutil"
)

var issued = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, now time.Time, keys ...string) *Store {
	t.Helper()
	st, err := NewStore(Config{Keys: keys})
	require.NoError(t, err)
	st.now = func() time.Time { return now }
	return st
}

// serve runs one request through a router that either saves next or reports
// the loaded session.
func serve(t *testing.T, st *Store, next *Session, cookies ...*http.Cookie) (*httptest.ResponseRecorder, Session) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var loaded Session
	r := gin.New()
	r.Use(st.Middleware())
	r.GET("/", func(c *gin.Context) {
		loaded = st.Load(c)
		if next != nil {
			require.NoError(t, st.Save(c, *next))
		}
		c.String(http.StatusOK, strconv.FormatInt(loaded.UserID(), 10))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec, loaded
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == DefaultCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", DefaultCookieName)
	return nil
}

func TestNewStore_RequiresKeys(t *testing.T) {
	_, err := NewStore(Config{})
	errutil.AssertErrorCode(t, err, "SESSION_CONFIG_INVALID")

	_, err = NewStore(Config{Keys: []string{"key1", ""}})
	errutil.AssertErrorCode(t, err, "SESSION_CONFIG_INVALID")
	errutil.AssertErrorContext(t, err, "index", 1)
}

func TestNewStore_Defaults(t *testing.T) {
	st, err := NewStore(Config{Keys: []string{"key1"}})
	require.NoError(t, err)
	assert.Equal(t, DefaultCookieName, st.Name())
	assert.Equal(t, DefaultTTL, st.TTL())
}

func TestStore_NoCookieIsAnonymous(t *testing.T) {
	st := newTestStore(t, issued, "key1")
	_, loaded := serve(t, st, nil)
	assert.False(t, loaded.LoggedIn())
}

func TestStore_RoundTrip(t *testing.T) {
	st := newTestStore(t, issued, "key1", "key2")
	established := Establish(42, issued)

	rec, _ := serve(t, st, &established)
	cookie := sessionCookie(t, rec)
	assert.Equal(t, 3600, cookie.MaxAge)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)

	_, loaded := serve(t, st, nil, cookie)
	assert.True(t, loaded.Equal(established))
}

func TestStore_ExpiresAfterFixedTTL(t *testing.T) {
	st := newTestStore(t, issued, "key1")
	established := Establish(42, issued)
	rec, _ := serve(t, st, &established)
	cookie := sessionCookie(t, rec)

	st.now = func() time.Time { return issued.Add(59 * time.Minute) }
	_, loaded := serve(t, st, nil, cookie)
	assert.True(t, loaded.LoggedIn())

	st.now = func() time.Time { return issued.Add(time.Hour) }
	_, loaded = serve(t, st, nil, cookie)
	assert.False(t, loaded.LoggedIn())
}

func TestStore_ClearExpiresCookie(t *testing.T) {
	st := newTestStore(t, issued, "key1")
	anon := Anonymous()

	rec, _ := serve(t, st, &anon)
	cookie := sessionCookie(t, rec)
	assert.Negative(t, cookie.MaxAge)
}

func TestStore_KeyRotation(t *testing.T) {
	old := newTestStore(t, issued, "old-key")
	established := Establish(5, issued)
	rec, _ := serve(t, old, &established)
	cookie := sessionCookie(t, rec)

	rotated := newTestStore(t, issued, "new-key", "old-key")
	_, loaded := serve(t, rotated, nil, cookie)
	assert.Equal(t, int64(5), loaded.UserID())

	retired := newTestStore(t, issued, "new-key")
	_, loaded = serve(t, retired, nil, cookie)
	assert.False(t, loaded.LoggedIn())
}

func TestStore_TamperedCookieIsAnonymous(t *testing.T) {
	st := newTestStore(t, issued, "key1")
	established := Establish(42, issued)
	rec, _ := serve(t, st, &established)
	cookie := sessionCookie(t, rec)

	forged := *cookie
	forged.Value = cookie.Value[:len(cookie.Value)-4] + "AAAA"
	_, loaded := serve(t, st, nil, &forged)
	assert.False(t, loaded.LoggedIn())
}

func TestStore_SaveRejectsExpiredSession(t *testing.T) {
	st := newTestStore(t, issued.Add(2*time.Hour), "key1")
	gin.SetMode(gin.TestMode)

	var saveErr error
	r := gin.New()
	r.Use(st.Middleware())
	r.GET("/", func(c *gin.Context) {
		saveErr = st.Save(c, Establish(1, issued))
		c.Status(http.StatusNoContent)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	errutil.AssertErrorCode(t, saveErr, "SESSION_EXPIRED")
}
