package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/shopaiassist/containerapp/pkg/auth"
	"github.com/shopaiassist/containerapp/pkg/observability"
)

// CookieName is the session cookie.
const CookieName = "shopaiassist_session"

const sessionIDBytes = 32

// Manager binds the session store to the HTTP layer: it issues session IDs,
// sets and clears the session cookie, and resolves requests to their logged
// in user.
type Manager struct {
	store   Store
	logger  *observability.Logger
	metrics *observability.Metrics

	// ttl is the session's absolute lifetime, mirrored in the cookie's
	// MaxAge.
	ttl time.Duration

	// secure is false only for plain HTTP local development.
	secure bool
}

// NewManager creates a session manager. metrics may be nil.
func NewManager(store Store, ttl time.Duration, secure bool, logger *observability.Logger, metrics *observability.Metrics) *Manager {
	return &Manager{
		store:   store,
		logger:  logger.WithField("component", "session"),
		metrics: metrics,
		ttl:     ttl,
		secure:  secure,
	}
}

// Create stores the user under a fresh session ID and sets the session
// cookie on the response.
func (m *Manager) Create(w http.ResponseWriter, r *http.Request, user *auth.LoggedInUser) (string, error) {
	start := time.Now()

	sessionID, err := generateSessionID()
	if err != nil {
		return "", fmt.Errorf("failed to generate session ID: %w", err)
	}

	if err := m.store.Save(r.Context(), sessionID, user); err != nil {
		m.metrics.ObserveSessionOp("create", "error", time.Since(start))
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	m.metrics.ObserveSessionOp("create", "ok", time.Since(start))
	return sessionID, nil
}

// LoggedInUser resolves the request's session cookie to its user. Returns
// ErrNotFound when the request carries no cookie or the session is gone.
func (m *Manager) LoggedInUser(r *http.Request) (*auth.LoggedInUser, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, ErrNotFound
	}

	start := time.Now()
	user, err := m.store.Get(r.Context(), cookie.Value)
	if err != nil {
		status := "error"
		if err == ErrNotFound {
			status = "miss"
		}
		m.metrics.ObserveSessionOp("get", status, time.Since(start))
		return nil, err
	}

	m.metrics.ObserveSessionOp("get", "ok", time.Since(start))
	return user, nil
}

// Destroy deletes the request's session and expires the cookie. A request
// without a session is a no-op.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil
	}

	start := time.Now()
	if err := m.store.Delete(r.Context(), cookie.Value); err != nil {
		m.metrics.ObserveSessionOp("delete", "error", time.Since(start))
		return err
	}
	m.metrics.ObserveSessionOp("delete", "ok", time.Since(start))

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// generateSessionID returns 32 random bytes base64url encoded.
func generateSessionID() (string, error) {
	buf := make([]byte, sessionIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
