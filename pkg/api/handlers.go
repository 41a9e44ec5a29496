package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/shopaiassist/containerapp/pkg/auth"
	"github.com/shopaiassist/containerapp/pkg/httputil"
	"github.com/shopaiassist/containerapp/pkg/observability"
	"github.com/shopaiassist/containerapp/pkg/session"
)

// Idle timeout reported to the UI. Not yet configurable per org.
const (
	defaultIdleTime         = 90 * time.Minute
	defaultWarningThreshold = defaultIdleTime / 10
)

// handleOnePassCallback is the callback OnePass redirects to after a user
// signs in. The signontoken query param drives the full login flow; on
// success the user lands on the home page with a session cookie set.
//
// GET /api/auth/onepass
func (s *Server) handleOnePassCallback(w http.ResponseWriter, r *http.Request) {
	signOnToken := r.URL.Query().Get("signontoken")
	if signOnToken == "" {
		httputil.WriteBadRequest(w, "Missing signontoken query param")
		return
	}

	user, err := s.authSvc.LoginUser(r.Context(), signOnToken)
	if err != nil {
		var notAuthorized *auth.NotAuthorizedLoginError
		if errors.As(err, &notAuthorized) {
			http.Redirect(w, r, NotAuthorizedPage, http.StatusFound)
			return
		}
		observability.FromContext(r.Context()).WithError(err).Error("Login failed")
		httputil.WriteInternalError(w, errors.New("login failed"))
		return
	}

	if _, err := s.sessions.Create(w, r, user); err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("Failed to create session")
		httputil.WriteInternalError(w, errors.New("login failed"))
		return
	}

	http.Redirect(w, r, HomePage, http.StatusFound)
}

// handleMe returns the logged in user exactly as stored at login.
//
// GET /api/user/me
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.sessions.LoggedInUser(r)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			httputil.WriteCodedError(w, http.StatusUnauthorized, "No authorized user", "no_authorized_user")
			return
		}
		observability.FromContext(r.Context()).WithError(err).Error("Failed to read session")
		httputil.WriteInternalError(w, errors.New("failed to read session"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// handleTimeouts returns the session timeout policy, in milliseconds, for
// the UI's idle tracker.
//
// GET /api/user/timeouts
func (s *Server) handleTimeouts(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]int64{
		"idleTime":         defaultIdleTime.Milliseconds(),
		"warningThreshold": defaultWarningThreshold.Milliseconds(),
	})
}

// handleLogout destroys the session and clears the cookie.
//
// POST /api/user/logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Destroy(w, r); err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("Failed to destroy session")
		httputil.WriteInternalError(w, errors.New("logout failed"))
		return
	}
	w.WriteHeader(http.StatusCreated)
}
