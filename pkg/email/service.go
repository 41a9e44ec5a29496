package email

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopaiassist/containerapp/pkg/observability"
)

// pathEmailTarget is the Iterable campaign trigger endpoint under the
// configured API base URL.
const pathEmailTarget = "/email/target"

// notificationPath is where the skill notification callback lands on this
// app, embedded in every secure URL.
const notificationPath = "/api/email/skill-notification"

const defaultRequestTimeout = 30 * time.Second

// Config holds the campaign email provider settings. Every field is
// required; NewService rejects a partial configuration.
type Config struct {
	// AppDomain is this app's public origin, used to build secure URLs
	// and the default skill link.
	AppDomain string
	// Secret keys the secure hash protecting the notification endpoint.
	Secret string
	// IterableURL and IterableAPIKey locate and authenticate the
	// Iterable API.
	IterableURL    string
	IterableAPIKey string
	// SkillCompleteCampaignID is the Iterable campaign triggered for
	// skill completion emails.
	SkillCompleteCampaignID int
}

// Error is a failed campaign email call. StatusCode carries the upstream
// response status when one was received.
type Error struct {
	StatusCode int
	message    string
}

func (e *Error) Error() string {
	return e.message
}

// SkillDescriber resolves a skill's user facing name. Implemented by
// entitlement.SkillRegistry.
type SkillDescriber interface {
	DescriptionForSkill(skillID string) string
}

// Service generates secure notification URLs and proxies skill completion
// emails to the campaign provider, so the provider's API key never reaches
// the browser.
type Service struct {
	cfg        Config
	skills     SkillDescriber
	httpClient *http.Client
	logger     *observability.Logger
	metrics    *observability.Metrics
}

// NewService creates an email service. metrics may be nil.
func NewService(cfg Config, skills SkillDescriber, logger *observability.Logger, metrics *observability.Metrics) (*Service, error) {
	var missing []string
	for _, f := range []struct {
		name  string
		unset bool
	}{
		{"app domain", cfg.AppDomain == ""},
		{"email secret", cfg.Secret == ""},
		{"iterable URL", cfg.IterableURL == ""},
		{"iterable API key", cfg.IterableAPIKey == ""},
		{"skill complete campaign ID", cfg.SkillCompleteCampaignID == 0},
	} {
		if f.unset {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required email configuration: %s", strings.Join(missing, ", "))
	}

	return &Service{
		cfg:        cfg,
		skills:     skills,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		logger:     logger.WithField("component", "email"),
		metrics:    metrics,
	}, nil
}

// SecureURL builds the full notification URL for a completed skill run,
// carrying a hash over the identifying parameters so the unauthenticated
// callback cannot be redirected to another user.
func (s *Service) SecureURL(skillID, flowID, userGuid, emailAddress string) string {
	query := url.Values{}
	query.Set("skillId", skillID)
	query.Set("flowId", flowID)
	query.Set("userGuid", userGuid)
	query.Set("email", emailAddress)
	query.Set("secureHash", s.generateHash(userGuid, skillID, flowID))
	return s.cfg.AppDomain + notificationPath + "?" + query.Encode()
}

// VerifySecureHash reports whether secureHash matches the identifying
// parameters of a notification request.
func (s *Service) VerifySecureHash(skillID, flowID, userGuid, secureHash string) bool {
	expected := s.generateHash(userGuid, skillID, flowID)
	return hmac.Equal([]byte(expected), []byte(secureHash))
}

// generateHash digests the identifying parameters and the shared secret.
func (s *Service) generateHash(userGuid, skillID, flowID string) string {
	h := sha256.New()
	h.Write([]byte(userGuid))
	h.Write([]byte(skillID))
	h.Write([]byte(flowID))
	h.Write([]byte(s.cfg.Secret))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

type targetEmailRequest struct {
	CampaignID      int               `json:"campaignId"`
	RecipientEmail  string            `json:"recipientEmail"`
	RecipientUserID string            `json:"recipientUserId"`
	DataFields      map[string]string `json:"dataFields"`
}

type targetEmailResponse struct {
	Msg string `json:"msg"`
}

// SendSkillCompleteEmail triggers the skill completion campaign for the
// user. skillData is forwarded to the email template; the skill name and
// link fall back to the registry description and the work page when the
// caller omits them.
func (s *Service) SendSkillCompleteEmail(ctx context.Context, userGuid, emailAddress, skillID, flowID string, skillData map[string]string) (string, error) {
	dataFields := make(map[string]string, len(skillData)+2)
	for k, v := range skillData {
		dataFields[k] = v
	}
	if dataFields["skillUrl"] == "" {
		dataFields["skillUrl"] = s.cfg.AppDomain + "/work"
	}
	if dataFields["skillName"] == "" {
		dataFields["skillName"] = s.skills.DescriptionForSkill(skillID)
	}

	payload, err := json.Marshal(targetEmailRequest{
		CampaignID:      s.cfg.SkillCompleteCampaignID,
		RecipientEmail:  emailAddress,
		RecipientUserID: userGuid,
		DataFields:      dataFields,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode email request: %w", err)
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.IterableURL+pathEmailTarget, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", s.cfg.IterableAPIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.metrics.ObserveUpstream("iterable", "email_target", "transport_error", time.Since(start))
		return "", &Error{message: fmt.Sprintf("error connecting to email service: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		s.metrics.ObserveUpstream("iterable", "email_target", "read_error", time.Since(start))
		return "", &Error{StatusCode: resp.StatusCode, message: fmt.Sprintf("error reading email service response: %v", err)}
	}

	s.metrics.ObserveUpstream("iterable", "email_target", fmt.Sprintf("%d", resp.StatusCode), time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.WithFields(map[string]interface{}{
			"status":   resp.StatusCode,
			"skill_id": skillID,
		}).Error("Skill completion email failed")
		return "", &Error{
			StatusCode: resp.StatusCode,
			message:    fmt.Sprintf("error %d sending skill completion email: %s", resp.StatusCode, respBody),
		}
	}

	var result targetEmailResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", &Error{StatusCode: resp.StatusCode, message: fmt.Sprintf("failed to decode email service response: %v", err)}
	}
	return result.Msg, nil
}
