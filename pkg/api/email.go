package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/shopaiassist/containerapp/pkg/email"
	"github.com/shopaiassist/containerapp/pkg/httputil"
	"github.com/shopaiassist/containerapp/pkg/observability"
	"github.com/shopaiassist/containerapp/pkg/session"
)

// notificationResponse is the skill notification result body.
type notificationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// handleSecureURL returns a pre-authorized URL the skill micro frontend
// hands to the flow engine, which calls it back when the skill completes.
// The session supplies the user identity baked into the URL.
//
// GET /api/email/secure-url
func (s *Server) handleSecureURL(w http.ResponseWriter, r *http.Request) {
	skillID := r.URL.Query().Get("skillId")
	flowID := r.URL.Query().Get("flowId")
	if skillID == "" || flowID == "" {
		httputil.WriteCodedError(w, http.StatusBadRequest, "Missing required parameter", "missing_required_parameter")
		return
	}

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

	url := s.email.SecureURL(skillID, flowID, user.User.UserGuid, user.User.Email)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}

// handleSkillNotification sends the skill completion email. The caller is
// the flow engine, not a browser session, so authorization rests entirely
// on the secure hash minted by handleSecureURL.
//
// POST /api/email/skill-notification
func (s *Server) handleSkillNotification(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	skillID := query.Get("skillId")
	flowID := query.Get("flowId")
	userGuid := query.Get("userGuid")
	emailAddress := query.Get("email")
	secureHash := query.Get("secureHash")
	if skillID == "" || flowID == "" || userGuid == "" || emailAddress == "" || secureHash == "" {
		httputil.WriteCodedError(w, http.StatusBadRequest, "Missing required parameter", "missing_required_parameter")
		return
	}

	if !s.email.VerifySecureHash(skillID, flowID, userGuid, secureHash) {
		httputil.WriteCodedError(w, http.StatusUnauthorized, "Unauthorized request", "invalid_secure_hash")
		return
	}

	var skillData map[string]string
	if err := json.NewDecoder(r.Body).Decode(&skillData); err != nil && !errors.Is(err, io.EOF) {
		httputil.WriteCodedError(w, http.StatusBadRequest, "Invalid request body", "invalid_request_body")
		return
	}

	message, err := s.email.SendSkillCompleteEmail(r.Context(), userGuid, emailAddress, skillID, flowID, skillData)
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("Failed to send skill completion email")
		status := http.StatusInternalServerError
		var emailErr *email.Error
		if errors.As(err, &emailErr) && emailErr.StatusCode != 0 {
			status = emailErr.StatusCode
		}
		httputil.WriteJSON(w, status, notificationResponse{
			Success: false,
			Message: err.Error(),
			Code:    "email_send_error",
		})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, notificationResponse{Success: true, Message: message})
}

// handleDoNotSell redirects to the CCPA data subject access request form.
//
// GET /api/redirect/ccpa-dsar
func (s *Server) handleDoNotSell(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.doNotSellURL, http.StatusFound)
}
