package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGate() *Gate {
	g := NewGate([]byte("test-hash-key"), false)
	g.now = func() time.Time { return time.UnixMilli(1700000000123) }
	return g
}

func login(t *testing.T, g *Gate) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	s, err := g.Login(rec, httptest.NewRequest(http.MethodPost, "/login", nil), " johnd ", "m38rmF$")
	require.NoError(t, err)
	assert.Equal(t, Session{Username: "johnd", Email: "johnd@example.com", Token: "mock_token_1700000000123"}, s)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestLoginSetsStrictSevenDayCookie(t *testing.T) {
	c := login(t, newGate())
	assert.Equal(t, CookieName, c.Name)
	assert.Equal(t, 7*24*3600, c.MaxAge)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.True(t, c.HttpOnly)
}

func TestLoginRequiresCredentials(t *testing.T) {
	g := newGate()
	for _, tc := range []struct{ user, pass string }{{"", "x"}, {"  ", "x"}, {"johnd", ""}} {
		rec := httptest.NewRecorder()
		_, err := g.Login(rec, httptest.NewRequest(http.MethodPost, "/login", nil), tc.user, tc.pass)
		assert.ErrorIs(t, err, ErrMissingCredentials)
		assert.Empty(t, rec.Result().Cookies())
	}
}

func TestRequire(t *testing.T) {
	g := newGate()
	var seen Session
	h := g.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.AddCookie(login(t, g))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "johnd", seen.Username)

	// a cookie signed with another key is not a session
	forged := httptest.NewRequest(http.MethodGet, "/orders", nil)
	forged.AddCookie(login(t, NewGate([]byte("other-key"), false)))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// so is a raw client-side JSON marker
	raw := httptest.NewRequest(http.MethodGet, "/orders", nil)
	raw.AddCookie(&http.Cookie{Name: CookieName, Value: `{"username":"johnd"}`})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, raw)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutExpiresCookie(t *testing.T) {
	g := newGate()
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(login(t, g))
	rec := httptest.NewRecorder()
	require.NoError(t, g.Logout(rec, req))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}
