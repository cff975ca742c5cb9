package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/sessions"
)

const (
	CookieName = "auth_token"
	SessionTTL = 7 * 24 * time.Hour

	valueKey = "auth"
)

var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrNoSession          = errors.New("no session")
)

// Session is the marker the console trusts once present. Credentials are
// never checked against anything.
type Session struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Token    string `json:"token,omitempty"`
}

type Gate struct {
	store *sessions.CookieStore
	now   func() time.Time
}

func NewGate(hashKey []byte, secure bool) *Gate {
	store := sessions.NewCookieStore(hashKey)
	store.MaxAge(int(SessionTTL / time.Second))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(SessionTTL / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
	return &Gate{store: store, now: time.Now}
}

// Login accepts any non-empty username/password pair and writes the cookie.
func (g *Gate) Login(w http.ResponseWriter, r *http.Request, username, password string) (Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Session{}, ErrMissingCredentials
	}
	s := Session{
		Username: username,
		Email:    username + "@example.com",
		Token:    "mock_token_" + strconv.FormatInt(g.now().UnixMilli(), 10),
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return Session{}, err
	}
	// cookie lama yang rusak diabaikan, selalu bikin baru
	sess, _ := g.store.New(r, CookieName)
	sess.Values[valueKey] = string(raw)
	if err := g.store.Save(r, w, sess); err != nil {
		return Session{}, err
	}
	return s, nil
}

func (g *Gate) Logout(w http.ResponseWriter, r *http.Request) error {
	sess, _ := g.store.New(r, CookieName)
	sess.Options.MaxAge = -1
	return g.store.Save(r, w, sess)
}

// Current decodes the session carried by r. A missing, tampered or
// unparsable cookie is ErrNoSession.
func (g *Gate) Current(r *http.Request) (Session, error) {
	sess, err := g.store.New(r, CookieName)
	if err != nil || sess.IsNew {
		return Session{}, ErrNoSession
	}
	raw, _ := sess.Values[valueKey].(string)
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil || s.Username == "" {
		return Session{}, ErrNoSession
	}
	return s, nil
}

type ctxKey struct{}

// Require rejects requests without a session with 401.
func (g *Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := g.Current(r)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, s)))
	})
}

func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}
