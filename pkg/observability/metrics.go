package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcome labels for LoginsTotal.
const (
	LoginOutcomeSuccess       = "success"
	LoginOutcomeNotAuthorized = "not_authorized"
	LoginOutcomeError         = "error"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Login pipeline metrics
	LoginsTotal   *prometheus.CounterVec
	LoginDuration prometheus.Histogram

	// Upstream dependency metrics (OnePass, CARI Auth)
	UpstreamRequestsTotal   *prometheus.CounterVec
	UpstreamRequestDuration *prometheus.HistogramVec

	// Session store metrics
	SessionsActive    prometheus.Gauge
	SessionOpsTotal   *prometheus.CounterVec
	SessionOpDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "containerapp_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "containerapp_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "containerapp_logins_total",
				Help: "Total number of login attempts by outcome",
			},
			[]string{"outcome"},
		),
		LoginDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "containerapp_login_duration_seconds",
				Help:    "End to end login pipeline duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		UpstreamRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "containerapp_upstream_requests_total",
				Help: "Total number of requests to upstream services",
			},
			[]string{"service", "operation", "status"},
		),
		UpstreamRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "containerapp_upstream_request_duration_seconds",
				Help:    "Upstream request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service", "operation"},
		),
		SessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "containerapp_sessions_active",
				Help: "Number of active sessions (memory store only)",
			},
		),
		SessionOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "containerapp_session_operations_total",
				Help: "Total number of session store operations",
			},
			[]string{"operation", "status"},
		),
		SessionOpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "containerapp_session_operation_duration_seconds",
				Help:    "Session store operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LoginsTotal,
		m.LoginDuration,
		m.UpstreamRequestsTotal,
		m.UpstreamRequestDuration,
		m.SessionsActive,
		m.SessionOpsTotal,
		m.SessionOpDuration,
	)

	return m
}

// ObserveLogin records a login attempt outcome and duration.
// Safe to call on a nil receiver so callers can run without metrics.
func (m *Metrics) ObserveLogin(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(outcome).Inc()
	m.LoginDuration.Observe(duration.Seconds())
}

// ObserveUpstream records an upstream call.
// Safe to call on a nil receiver so callers can run without metrics.
func (m *Metrics) ObserveUpstream(service, operation, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequestsTotal.WithLabelValues(service, operation, status).Inc()
	m.UpstreamRequestDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// ObserveSessionOp records a session store operation.
// Safe to call on a nil receiver so callers can run without metrics.
func (m *Metrics) ObserveSessionOp(operation, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.SessionOpsTotal.WithLabelValues(operation, status).Inc()
	m.SessionOpDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetSessionsActive records the current number of live sessions.
// Safe to call on a nil receiver so callers can run without metrics.
func (m *Metrics) SetSessionsActive(count int) {
	if m == nil {
		return
	}
	m.SessionsActive.Set(float64(count))
}

// Handler returns the Prometheus metrics HTTP handler for the registry.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// HTTPMiddleware instruments HTTP handlers with request metrics
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		m.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rw.statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration.Seconds())
	})
}

// metricsResponseWriter wraps http.ResponseWriter to capture the status code
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
