// Command containerapp runs the container app backend: the OnePass login
// callback, session backed user endpoints, and a separate health/metrics
// port.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/shopaiassist/containerapp/pkg/api"
	"github.com/shopaiassist/containerapp/pkg/auth"
	"github.com/shopaiassist/containerapp/pkg/cariauth"
	"github.com/shopaiassist/containerapp/pkg/config"
	"github.com/shopaiassist/containerapp/pkg/email"
	"github.com/shopaiassist/containerapp/pkg/entitlement"
	"github.com/shopaiassist/containerapp/pkg/httputil"
	"github.com/shopaiassist/containerapp/pkg/observability"
	"github.com/shopaiassist/containerapp/pkg/onepass"
	"github.com/shopaiassist/containerapp/pkg/session"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "containerapp: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.WithField("version", version).Info("Starting containerapp")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	otelProviders, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	var registry *prometheus.Registry
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		registry = prometheus.NewRegistry()
		metrics = observability.NewMetrics(registry)
	}

	// Session store backend.
	var store session.Store
	var redisClient *redis.Client
	switch cfg.Session.StoreType {
	case config.SessionStoreRedis:
		redisClient, err = session.NewRedisClient(session.RedisConfig{
			URL:      cfg.Session.RedisURL,
			Password: cfg.Session.RedisPassword,
			DB:       cfg.Session.RedisDB,
			PoolSize: cfg.Session.RedisPoolSize,
		})
		if err != nil {
			return err
		}
		store = session.NewRedisStore(redisClient, auth.DefaultAbsoluteSessionTimeout, logger)
	case config.SessionStoreMemory:
		logger.Warn("Using the in-memory session store; sessions will not survive a restart")
		store = session.NewMemoryStore(auth.DefaultAbsoluteSessionTimeout, logger, metrics)
	}

	// Skill registry, from file when configured.
	var registryWatch func(context.Context) error
	var skillRegistry *entitlement.SkillRegistry
	if path := cfg.Entitlement.SkillRegistryPath; path != "" {
		skillRegistry, err = entitlement.LoadSkillRegistry(path, logger)
		if err != nil {
			return err
		}
		registryWatch = skillRegistry.Watch
	} else {
		skillRegistry = entitlement.NewSkillRegistry(entitlement.DefaultSkillMappings, logger)
	}

	// Upstream clients and services.
	onePassClient := onepass.NewClient(onepass.Config{
		APIKey:       cfg.OnePass.APIKey,
		APIKeySecret: cfg.OnePass.APIKeySecret,
		BaseURL:      cfg.OnePass.BaseURL,
	}, logger, metrics)
	cariAuthClient := cariauth.NewClient(cfg.CariAuth.BaseURL, logger, metrics)
	entitlementSvc := entitlement.NewService(cariAuthClient, skillRegistry, cfg.Entitlement.BypassProductCheck, logger)
	authSvc := auth.NewService(onePassClient, cariAuthClient, entitlementSvc, auth.NewJWTSigner(cfg.Auth.JWTPrivateKey), logger, metrics)
	sessions := session.NewManager(store, auth.DefaultAbsoluteSessionTimeout, cfg.Session.CookieSecure, logger, metrics)

	// The email proxy is optional; without it the email routes are not
	// served.
	var emailSvc api.EmailService
	if cfg.Email.Configured() {
		svc, err := email.NewService(email.Config{
			AppDomain:               cfg.Email.AppDomain,
			Secret:                  cfg.Email.Secret,
			IterableURL:             cfg.Email.IterableURL,
			IterableAPIKey:          cfg.Email.IterableAPIKey,
			SkillCompleteCampaignID: cfg.Email.SkillCompleteCampaignID,
		}, skillRegistry, logger, metrics)
		if err != nil {
			return err
		}
		emailSvc = svc
	} else {
		logger.Warn("Email proxy not configured; email endpoints disabled")
	}

	apiServer := api.NewServer(authSvc, sessions, emailSvc, cfg.Redirect.DoNotSellURL, logger, metrics)
	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      apiServer.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Health and metrics on a separate port so probes and scrapes never
	// contend with user traffic.
	healthChecker := observability.NewHealthChecker(redisClient, version)
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/health", healthChecker.Liveness)
	healthMux.HandleFunc("/health/ready", healthChecker.Readiness)
	if registry != nil {
		healthMux.Handle("/metrics", observability.Handler(registry))
	}
	healthServer := &http.Server{
		Addr: net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: httputil.Chain(
			httputil.RequestIDMiddleware,
			httputil.RecoveryMiddleware(logger),
		)(healthMux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Infof("API server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("API server failed: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		logger.Infof("Health server listening on %s", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("health server failed: %w", err)
		}
		return nil
	})
	if registryWatch != nil {
		group.Go(func() error {
			defer observability.RecoverPanic(logger, "skill registry watcher")
			return registryWatch(groupCtx)
		})
	}

	shutdown := observability.NewShutdownManager(logger, server, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return healthServer.Shutdown(ctx)
	})
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		cancel()
		return store.Close()
	})
	if otelProviders != nil {
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			return observability.ShutdownOTel(ctx, otelProviders, logger)
		})
	}

	errChan := make(chan error, 1)
	go func() { errChan <- group.Wait() }()

	shutdownErr := make(chan error, 1)
	go func() { shutdownErr <- shutdown.WaitForShutdown() }()

	select {
	case err := <-errChan:
		cancel()
		return err
	case err := <-shutdownErr:
		cancel()
		// Give the server goroutines a moment to observe the shutdown.
		select {
		case groupErr := <-errChan:
			if err == nil {
				err = groupErr
			}
		case <-time.After(2 * time.Second):
		}
		return err
	}
}
