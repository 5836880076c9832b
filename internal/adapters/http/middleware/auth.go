package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"sync"
	"time"

	"absentee/internal/adapters/auth"
	"absentee/internal/domain/account"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const sessionContextKey contextKey = "session"

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "absentee_session"

// DefaultSessionTTL applies when the store is built with a non-positive TTL.
const DefaultSessionTTL = 24 * time.Hour

// Session is an authenticated operator. It is created once from the Principal a
// CredentialChecker returned and is then carried in the request context.
type Session struct {
	Token     string
	AccountID string
	Email     string
	Role      string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsAdmin reports whether the session may use admin-only pages.
func (s Session) IsAdmin() bool {
	return s.Role == account.RoleAdmin
}

// SessionStore is an in-memory session store.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	ttl      time.Duration
	secure   bool
	now      func() time.Time
}

// NewSessionStore creates a store whose sessions last ttl. secure marks the
// cookie Secure, which production deployments behind TLS require.
func NewSessionStore(ttl time.Duration, secure bool) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		sessions: make(map[string]Session),
		ttl:      ttl,
		secure:   secure,
		now:      time.Now,
	}
}

// Create starts a session for p.
// PRE: p came from a successful credential check
// POST: the returned session is retrievable by its Token until it expires
func (ss *SessionStore) Create(p auth.Principal) (Session, error) {
	token, err := generateToken()
	if err != nil {
		return Session{}, err
	}
	now := ss.now()
	s := Session{
		Token:     token,
		AccountID: p.ID,
		Email:     p.Email,
		Role:      p.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(ss.ttl),
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.sessions[token] = s
	return s, nil
}

// Get returns the session for token unless it is unknown or expired.
func (ss *SessionStore) Get(token string) (Session, bool) {
	ss.mu.RLock()
	s, ok := ss.sessions[token]
	ss.mu.RUnlock()
	if !ok {
		return Session{}, false
	}
	if !ss.now().Before(s.ExpiresAt) {
		ss.Delete(token)
		return Session{}, false
	}
	return s, true
}

// Delete removes a session. Unknown tokens are ignored.
func (ss *SessionStore) Delete(token string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, token)
}

// Len returns the number of stored sessions, expired ones included.
func (ss *SessionStore) Len() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.sessions)
}

// SetCookie writes the session cookie.
func (ss *SessionStore) SetCookie(w http.ResponseWriter, s Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    s.Token,
		HttpOnly: true,
		Secure:   ss.secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   int(ss.ttl.Seconds()),
	})
}

// ClearCookie expires the session cookie.
func (ss *SessionStore) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   ss.secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

// Auth returns middleware that loads the session named by the cookie into the context.
// It does NOT block anonymous requests; use RequireAuth or RequireRole for that.
func Auth(sessions *SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
				if s, ok := sessions.Get(cookie.Value); ok {
					r = r.WithContext(ContextWithSession(r.Context(), s))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth blocks anonymous requests: API paths get 401, pages redirect to /login.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetSessionFromContext(r.Context()); !ok {
			denyAnonymous(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole returns middleware that blocks sessions without one of roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]bool, len(roles))
	for _, r := range roles {
		roleSet[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := GetSessionFromContext(r.Context())
			if !ok {
				denyAnonymous(w, r)
				return
			}
			if !roleSet[s.Role] {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func denyAnonymous(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// GetSessionFromContext extracts the session from the request context.
func GetSessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionContextKey).(Session)
	return s, ok
}

// ContextWithSession returns a context carrying s.
func ContextWithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
