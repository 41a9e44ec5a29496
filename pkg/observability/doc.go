// Package observability provides structured logging, Prometheus metrics, and OpenTelemetry tracing.
//
// # Overview
//
// This package centralizes observability infrastructure for the container BFF:
// JSON logging, login/upstream/session metrics, health checks, graceful
// shutdown, and distributed tracing integration.
//
// # Structured Logging
//
// Create logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("user_id", id).Info("login complete")
//
// # Prometheus Metrics
//
// Initialize metrics:
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.ObserveLogin(observability.LoginOutcomeSuccess, elapsed)
//
// # Health Checks
//
// Configure health checker:
//
//	checker := observability.NewHealthChecker(redisClient, version)
//	mux.HandleFunc("/health", checker.Liveness)
//	mux.HandleFunc("/health/ready", checker.Readiness)
//
// # Related Packages
//
//   - pkg/config: Observability configuration
//   - pkg/httputil: Request logging middleware
package observability
