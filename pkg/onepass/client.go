package onepass

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/shopaiassist/containerapp/pkg/observability"
)

// API paths under the configured base URL.
const (
	basePath                     = "/onepass/v3"
	pathAuthenticateSignOnToken  = "/authenticate/signontoken"
	pathCreateOrchestrationToken = "/create/orchestrationtoken"
)

const defaultRequestTimeout = 30 * time.Second

// Config holds OnePass API credentials and location.
type Config struct {
	APIKey       string
	APIKeySecret string
	BaseURL      string
}

// Error is a failed OnePass call. Message is the ServiceStatus description
// when the response carried one, otherwise a transport level summary.
type Error struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("onepass %s failed (status %d): %s", e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("onepass %s failed: %s", e.Operation, e.Message)
}

// Client is a OnePass REST API client. Every request is signed with an HMAC
// of the API key, a fresh nonce, and the current UTC date.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *observability.Logger
	metrics    *observability.Metrics

	// Overridable for deterministic signature tests.
	now   func() time.Time
	nonce func() (string, error)
}

// NewClient creates a OnePass client. metrics may be nil.
func NewClient(cfg Config, logger *observability.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		logger:     logger.WithField("component", "onepass"),
		metrics:    metrics,
		now:        time.Now,
		nonce:      generateNonce,
	}
}

// AuthenticateSignOnToken exchanges the sign-on token from the OnePass login
// callback for the user's profile and a seamless token.
func (c *Client) AuthenticateSignOnToken(ctx context.Context, signOnToken string) (*AuthenticateSignOnTokenResponse, error) {
	base, err := c.baseRequest()
	if err != nil {
		return nil, err
	}

	req := authenticateSignOnTokenRequest{
		baseRequest:               base,
		IncludeProfile:            true,
		IncludeRegisteredProducts: true,
		SignonToken:               signOnToken,
	}

	var resp AuthenticateSignOnTokenResponse
	if err := c.post(ctx, "authenticate_signon_token", pathAuthenticateSignOnToken, req, &resp); err != nil {
		c.logger.WithError(err).Error("Could not authenticate sign on token")
		return nil, err
	}
	return &resp, nil
}

// CreateOrchestrationToken mints an orchestration token from a seamless
// token. The registration key is embedded as the orig-regkey property and
// extraProperties are appended after it. lifetime is the token validity in
// seconds; zero means the OnePass default.
//
// An empty registrationKey fails locally. OnePass would mint a token without
// one, but it would not be bound to a product registration and every
// downstream authorization check would fail.
func (c *Client) CreateOrchestrationToken(ctx context.Context, userIdentifier, registrationKey, seamlessToken string, lifetime time.Duration, extraProperties map[string]string) (*CreateOrchestrationTokenResponse, error) {
	if registrationKey == "" {
		return nil, fmt.Errorf("a registration key is required for OnePass user %s", userIdentifier)
	}

	base, err := c.baseRequest()
	if err != nil {
		return nil, err
	}

	properties := []Property{{Key: RegistrationKeyProperty, Value: registrationKey}}
	for _, key := range sortedKeys(extraProperties) {
		properties = append(properties, Property{Key: key, Value: extraProperties[key]})
	}

	req := createOrchestrationTokenRequest{
		baseRequest:   base,
		Properties:    properties,
		SeamlessToken: seamlessToken,
	}
	if lifetime > 0 {
		req.Lifetime = int64(lifetime.Seconds())
	}

	var resp CreateOrchestrationTokenResponse
	if err := c.post(ctx, "create_orchestration_token", pathCreateOrchestrationToken, req, &resp); err != nil {
		c.logger.WithError(err).WithField("user_id", userIdentifier).Error("Could not create orchestration token")
		return nil, err
	}
	return &resp, nil
}

// baseRequest builds the signed envelope common to every OnePass call.
func (c *Client) baseRequest() (baseRequest, error) {
	nonce, err := c.nonce()
	if err != nil {
		return baseRequest{}, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return baseRequest{
		Header:     Header{ProductIdentifier: ProductIdentifier},
		Trace:      Trace{},
		APIKey:     c.cfg.APIKey,
		APIKeyHash: c.apiKeyHash(nonce),
		Nonce:      nonce,
	}, nil
}

// apiKeyHash computes the request signature: the base64 encoded HMAC-SHA256
// of apiKey+nonce+UTC-datestamp keyed with the API secret. The datestamp is
// the current UTC date as YYYYMMDD, so a signature is valid for at most a
// day.
func (c *Client) apiKeyHash(nonce string) string {
	dateStamp := c.now().UTC().Format("20060102")
	mac := hmac.New(sha256.New, []byte(c.cfg.APIKeySecret))
	mac.Write([]byte(c.cfg.APIKey + nonce + dateStamp))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (c *Client) post(ctx context.Context, operation, path string, body, out interface{}) error {
	start := time.Now()

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	url := c.cfg.BaseURL + basePath + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.ObserveUpstream("onepass", operation, "transport_error", time.Since(start))
		return &Error{Operation: operation, Message: err.Error()}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		c.metrics.ObserveUpstream("onepass", operation, "read_error", time.Since(start))
		return &Error{Operation: operation, StatusCode: httpResp.StatusCode, Message: err.Error()}
	}

	c.metrics.ObserveUpstream("onepass", operation, fmt.Sprintf("%d", httpResp.StatusCode), time.Since(start))

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return &Error{
			Operation:  operation,
			StatusCode: httpResp.StatusCode,
			Message:    extractErrorMessage(respBody),
		}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &Error{Operation: operation, StatusCode: httpResp.StatusCode, Message: fmt.Sprintf("failed to decode response: %v", err)}
	}
	return nil
}

// extractErrorMessage pulls ServiceStatus.StatusDescription out of an error
// body, falling back to the raw body.
func extractErrorMessage(body []byte) string {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.ServiceStatus.StatusDescription != "" {
		return errResp.ServiceStatus.StatusDescription
	}
	return string(body)
}

// generateNonce returns 16 random bytes hex encoded.
func generateNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
