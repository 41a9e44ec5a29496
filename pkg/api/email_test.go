package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopaiassist/containerapp/pkg/email"
)

type sendCall struct {
	userGuid  string
	email     string
	skillID   string
	flowID    string
	skillData map[string]string
}

type fakeEmailService struct {
	validHash string
	sendMsg   string
	sendErr   error
	sends     []sendCall
}

func (f *fakeEmailService) SecureURL(skillID, flowID, userGuid, emailAddress string) string {
	q := url.Values{}
	q.Set("skillId", skillID)
	q.Set("flowId", flowID)
	q.Set("userGuid", userGuid)
	q.Set("email", emailAddress)
	q.Set("secureHash", f.validHash)
	return "https://shopaiassist.example.com/api/email/skill-notification?" + q.Encode()
}

func (f *fakeEmailService) VerifySecureHash(skillID, flowID, userGuid, secureHash string) bool {
	return secureHash == f.validHash
}

func (f *fakeEmailService) SendSkillCompleteEmail(ctx context.Context, userGuid, emailAddress, skillID, flowID string, skillData map[string]string) (string, error) {
	f.sends = append(f.sends, sendCall{userGuid: userGuid, email: emailAddress, skillID: skillID, flowID: flowID, skillData: skillData})
	if f.sendErr != nil {
		return "", f.sendErr
	}
	return f.sendMsg, nil
}

func loginAndGetCookie(t *testing.T, srv *Server) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/onepass?signontoken=tok-1", nil))
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	return cookie
}

func TestSecureURL_Success(t *testing.T) {
	emailSvc := &fakeEmailService{validHash: "hash-1"}
	srv := newTestServerWithEmail(t, &fakeLoginService{user: testUser()}, emailSvc)
	cookie := loginAndGetCookie(t, srv)

	req := httptest.NewRequest(http.MethodGet, "/api/email/secure-url?skillId=product-search&flowId=flow-1", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	// The URL is built from the session's identity, never from the caller.
	parsed, err := url.Parse(body["url"])
	require.NoError(t, err)
	assert.Equal(t, "guid-123", parsed.Query().Get("userGuid"))
	assert.Equal(t, "jane.doe@example.com", parsed.Query().Get("email"))
	assert.Equal(t, "hash-1", parsed.Query().Get("secureHash"))
}

func TestSecureURL_MissingParams(t *testing.T) {
	srv := newTestServerWithEmail(t, &fakeLoginService{user: testUser()}, &fakeEmailService{})
	cookie := loginAndGetCookie(t, srv)

	req := httptest.NewRequest(http.MethodGet, "/api/email/secure-url?skillId=product-search", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "missing_required_parameter", body["code"])
}

func TestSecureURL_RequiresSession(t *testing.T) {
	srv := newTestServerWithEmail(t, &fakeLoginService{}, &fakeEmailService{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/email/secure-url?skillId=product-search&flowId=flow-1", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "no_authorized_user", body["code"])
}

func TestSkillNotification_Success(t *testing.T) {
	emailSvc := &fakeEmailService{validHash: "hash-1", sendMsg: "queued"}
	srv := newTestServerWithEmail(t, &fakeLoginService{}, emailSvc)

	target := "/api/email/skill-notification?skillId=product-search&flowId=flow-1&userGuid=guid-123&email=jane.doe%40example.com&secureHash=hash-1"
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(`{"skillName":"My Search"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body notificationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "queued", body.Message)

	require.Len(t, emailSvc.sends, 1)
	sent := emailSvc.sends[0]
	assert.Equal(t, "guid-123", sent.userGuid)
	assert.Equal(t, "jane.doe@example.com", sent.email)
	assert.Equal(t, "My Search", sent.skillData["skillName"])
}

func TestSkillNotification_InvalidHash(t *testing.T) {
	emailSvc := &fakeEmailService{validHash: "hash-1"}
	srv := newTestServerWithEmail(t, &fakeLoginService{}, emailSvc)

	target := "/api/email/skill-notification?skillId=product-search&flowId=flow-1&userGuid=guid-123&email=jane.doe%40example.com&secureHash=forged"
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, target, nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid_secure_hash", body["code"])
	assert.Empty(t, emailSvc.sends, "a forged hash must never trigger an email")
}

func TestSkillNotification_MissingParams(t *testing.T) {
	srv := newTestServerWithEmail(t, &fakeLoginService{}, &fakeEmailService{validHash: "hash-1"})

	target := "/api/email/skill-notification?skillId=product-search&flowId=flow-1&secureHash=hash-1"
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, target, nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSkillNotification_UpstreamErrorStatusPropagates(t *testing.T) {
	emailSvc := &fakeEmailService{
		validHash: "hash-1",
		sendErr:   &email.Error{StatusCode: http.StatusBadGateway},
	}
	srv := newTestServerWithEmail(t, &fakeLoginService{}, emailSvc)

	target := "/api/email/skill-notification?skillId=product-search&flowId=flow-1&userGuid=guid-123&email=jane.doe%40example.com&secureHash=hash-1"
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, target, nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var body notificationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "email_send_error", body.Code)
}

func TestEmailRoutes_NotServedWithoutService(t *testing.T) {
	srv := newTestServer(t, &fakeLoginService{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/email/secure-url?skillId=a&flowId=b", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDoNotSellRedirect(t *testing.T) {
	srv := newTestServer(t, &fakeLoginService{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/redirect/ccpa-dsar", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, defaultDoNotSellURL, rec.Header().Get("Location"))
}
