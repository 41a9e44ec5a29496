package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	store := newMemoryTestStore(t, time.Hour)
	return NewManager(store, time.Hour, true, testLogger(), nil)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == CookieName {
			return cookie
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestManager_CreateAndResolve(t *testing.T) {
	m := newTestManager(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/onepass", nil)
	sessionID, err := m.Create(rec, req, testUser())
	require.NoError(t, err)
	assert.NotEmpty(t, sessionID)

	cookie := sessionCookie(t, rec)
	assert.Equal(t, sessionID, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, 3600, cookie.MaxAge)

	followUp := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	followUp.AddCookie(cookie)
	user, err := m.LoggedInUser(followUp)
	require.NoError(t, err)
	assert.Equal(t, "orch-token-1", user.OrchestrationToken)
}

func TestManager_CreateIssuesUniqueIDs(t *testing.T) {
	m := newTestManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	id1, err := m.Create(httptest.NewRecorder(), req, testUser())
	require.NoError(t, err)
	id2, err := m.Create(httptest.NewRecorder(), req, testUser())
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
}

func TestManager_LoggedInUser_NoCookie(t *testing.T) {
	m := newTestManager(t)
	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)

	_, err := m.LoggedInUser(req)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_LoggedInUser_StaleCookie(t *testing.T) {
	m := newTestManager(t)
	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "gone"})

	_, err := m.LoggedInUser(req)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_Destroy(t *testing.T) {
	m := newTestManager(t)

	rec := httptest.NewRecorder()
	createReq := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := m.Create(rec, createReq, testUser())
	require.NoError(t, err)
	cookie := sessionCookie(t, rec)

	logoutRec := httptest.NewRecorder()
	logoutReq := httptest.NewRequest(http.MethodPost, "/api/user/logout", nil)
	logoutReq.AddCookie(cookie)
	require.NoError(t, m.Destroy(logoutRec, logoutReq))

	cleared := sessionCookie(t, logoutRec)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)

	followUp := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	followUp.AddCookie(cookie)
	_, err = m.LoggedInUser(followUp)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_DestroyWithoutSession(t *testing.T) {
	m := newTestManager(t)
	req := httptest.NewRequest(http.MethodPost, "/api/user/logout", nil)
	assert.NoError(t, m.Destroy(httptest.NewRecorder(), req))
}

func TestGenerateSessionID(t *testing.T) {
	id, err := generateSessionID()
	require.NoError(t, err)
	// 32 bytes base64url encoded without padding.
	assert.Len(t, id, 43)
}
