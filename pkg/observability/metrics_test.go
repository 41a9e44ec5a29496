package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics_Registers(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.ObserveLogin(LoginOutcomeSuccess, 100*time.Millisecond)
	m.ObserveLogin(LoginOutcomeNotAuthorized, 50*time.Millisecond)
	m.ObserveUpstream("onepass", "authenticate_signon_token", "200", 20*time.Millisecond)
	m.ObserveSessionOp("create", "ok", time.Millisecond)
	m.SetSessionsActive(3)

	if got := testutil.ToFloat64(m.LoginsTotal.WithLabelValues(LoginOutcomeSuccess)); got != 1 {
		t.Errorf("Expected 1 successful login, got %v", got)
	}
	if got := testutil.ToFloat64(m.LoginsTotal.WithLabelValues(LoginOutcomeNotAuthorized)); got != 1 {
		t.Errorf("Expected 1 not authorized login, got %v", got)
	}
	if got := testutil.ToFloat64(m.UpstreamRequestsTotal.WithLabelValues("onepass", "authenticate_signon_token", "200")); got != 1 {
		t.Errorf("Expected 1 upstream request, got %v", got)
	}
	if got := testutil.ToFloat64(m.SessionsActive); got != 3 {
		t.Errorf("Expected 3 active sessions, got %v", got)
	}
}

func TestMetrics_NilReceiverSafe(t *testing.T) {
	var m *Metrics
	m.ObserveLogin(LoginOutcomeSuccess, time.Second)
	m.ObserveUpstream("onepass", "op", "200", time.Second)
	m.ObserveSessionOp("get", "ok", time.Second)
	m.SetSessionsActive(1)
}

func TestMetrics_HTTPMiddleware(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	handler := m.HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/user/logout", nil))

	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/user/logout", "201")); got != 1 {
		t.Errorf("Expected 1 request recorded, got %v", got)
	}
}

func TestHandler_ServesMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)
	m.ObserveLogin(LoginOutcomeSuccess, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(registry).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "containerapp_logins_total") {
		t.Error("Expected containerapp_logins_total in metrics output")
	}
}
