package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopaiassist/containerapp/pkg/observability"
)

// Session store backends.
const (
	SessionStoreRedis  = "redis"
	SessionStoreMemory = "memory"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// OnePass identity provider configuration
	OnePass OnePassConfig

	// CARI Auth authorization service configuration
	CariAuth CariAuthConfig

	// Auth/session configuration
	Auth AuthConfig

	// Session store configuration
	Session SessionConfig

	// Entitlement configuration
	Entitlement EntitlementConfig

	// Email proxy configuration
	Email EmailConfig

	// Redirect configuration
	Redirect RedirectConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// OnePassConfig holds OnePass REST API credentials and location
type OnePassConfig struct {
	APIKey       string
	APIKeySecret string
	BaseURL      string
}

// CariAuthConfig holds the CARI Auth service location
type CariAuthConfig struct {
	BaseURL string
}

// AuthConfig holds session token signing configuration
type AuthConfig struct {
	JWTPrivateKey string
}

// SessionConfig holds server side session store configuration
type SessionConfig struct {
	StoreType     string
	RedisURL      string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int

	// CookieSecure is false only for plain HTTP local development.
	CookieSecure bool
}

// EntitlementConfig holds entitlement processing configuration
type EntitlementConfig struct {
	// BypassProductCheck forces the app-usability gate open regardless of
	// product FAC grants. Rollout aid only; admin and region derivation
	// are unaffected.
	BypassProductCheck bool

	// SkillRegistryPath points at the YAML skill-to-FAC registry. Empty
	// means the built-in registry is used.
	SkillRegistryPath string
}

// EmailConfig holds the skill notification email proxy settings. The email
// endpoints are served only when the proxy is configured; a partial
// configuration fails validation.
type EmailConfig struct {
	AppDomain               string
	Secret                  string
	IterableURL             string
	IterableAPIKey          string
	SkillCompleteCampaignID int
}

// Configured reports whether any email setting is present.
func (c EmailConfig) Configured() bool {
	return c.AppDomain != "" || c.Secret != "" || c.IterableURL != "" ||
		c.IterableAPIKey != "" || c.SkillCompleteCampaignID != 0
}

// RedirectConfig holds external redirect targets
type RedirectConfig struct {
	// DoNotSellURL is the CCPA data subject access request form.
	DoNotSellURL string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SHOPAIASSIST_HOST", "0.0.0.0"),
			Port:            getEnv("SHOPAIASSIST_PORT", "8080"),
			ReadTimeout:     getEnvDuration("SHOPAIASSIST_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SHOPAIASSIST_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvDuration("SHOPAIASSIST_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SHOPAIASSIST_SHUTDOWN_TIMEOUT", 30*time.Second),
			HealthPort:      getEnv("SHOPAIASSIST_HEALTH_PORT", "9090"),
		},
		OnePass: OnePassConfig{
			APIKey:       os.Getenv("ONEPASS_API_KEY"),
			APIKeySecret: os.Getenv("ONEPASS_API_KEY_SECRET"),
			BaseURL:      os.Getenv("ONEPASS_API_URL"),
		},
		CariAuth: CariAuthConfig{
			BaseURL: os.Getenv("CARI_AUTH_SERVICE_URL"),
		},
		Auth: AuthConfig{
			JWTPrivateKey: os.Getenv("JWT_PRIVATE_KEY"),
		},
		Session: SessionConfig{
			StoreType:     getEnv("SHOPAIASSIST_SESSION_STORE", SessionStoreRedis),
			RedisURL:      getEnv("SHOPAIASSIST_REDIS_URL", ""),
			RedisPassword: getEnv("SHOPAIASSIST_REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("SHOPAIASSIST_REDIS_DB", 0),
			RedisPoolSize: getEnvInt("SHOPAIASSIST_REDIS_POOL_SIZE", 10),
			CookieSecure:  getEnvBool("SHOPAIASSIST_COOKIE_SECURE", true),
		},
		Entitlement: EntitlementConfig{
			BypassProductCheck: getEnvBool("SHOPAIASSIST_AUTH_BYPASS", false),
			SkillRegistryPath:  getEnv("SHOPAIASSIST_SKILL_REGISTRY", ""),
		},
		Email: EmailConfig{
			AppDomain:               os.Getenv("APP_DOMAIN"),
			Secret:                  os.Getenv("EMAIL_SECRET"),
			IterableURL:             os.Getenv("ITERABLE_API_URL"),
			IterableAPIKey:          os.Getenv("ITERABLE_API_KEY"),
			SkillCompleteCampaignID: getEnvInt("ITERABLE_SKILL_COMPLETE_CAMPAIGN_ID", 0),
		},
		Redirect: RedirectConfig{
			DoNotSellURL: getEnv("DO_NOT_SELL_URL", ""),
		},
		Observability: ObservabilityConfig{
			LogLevel:           parseLogLevel(getEnv("SHOPAIASSIST_LOG_LEVEL", "info")),
			MetricsEnabled:     getEnvBool("SHOPAIASSIST_METRICS_ENABLED", true),
			OTelEnabled:        getEnvBool("SHOPAIASSIST_OTEL_ENABLED", false),
			OTelEndpoint:       getEnv("SHOPAIASSIST_OTEL_ENDPOINT", "localhost:4317"),
			OTelServiceName:    getEnv("SHOPAIASSIST_OTEL_SERVICE_NAME", "shopaiassist-containerapp"),
			OTelServiceVersion: getEnv("SHOPAIASSIST_OTEL_SERVICE_VERSION", "1.0.0"),
			OTelInsecure:       getEnvBool("SHOPAIASSIST_OTEL_INSECURE", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	// Fail fast on missing upstream credentials: a process that cannot
	// complete a login must not serve traffic.
	var unset []string
	for _, v := range []struct {
		name, value string
	}{
		{"ONEPASS_API_KEY", c.OnePass.APIKey},
		{"ONEPASS_API_KEY_SECRET", c.OnePass.APIKeySecret},
		{"ONEPASS_API_URL", c.OnePass.BaseURL},
		{"CARI_AUTH_SERVICE_URL", c.CariAuth.BaseURL},
		{"JWT_PRIVATE_KEY", c.Auth.JWTPrivateKey},
	} {
		if v.value == "" {
			unset = append(unset, v.name)
		}
	}
	if len(unset) > 0 {
		return fmt.Errorf("%s must be set in the environment", strings.Join(unset, ", "))
	}

	// The email proxy is optional, but a half-configured proxy would fail
	// on the first notification instead of at startup.
	if c.Email.Configured() {
		var missing []string
		for _, v := range []struct {
			name  string
			unset bool
		}{
			{"APP_DOMAIN", c.Email.AppDomain == ""},
			{"EMAIL_SECRET", c.Email.Secret == ""},
			{"ITERABLE_API_URL", c.Email.IterableURL == ""},
			{"ITERABLE_API_KEY", c.Email.IterableAPIKey == ""},
			{"ITERABLE_SKILL_COMPLETE_CAMPAIGN_ID", c.Email.SkillCompleteCampaignID == 0},
		} {
			if v.unset {
				missing = append(missing, v.name)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("incomplete email configuration: %s must be set in the environment", strings.Join(missing, ", "))
		}
	}

	switch c.Session.StoreType {
	case SessionStoreRedis:
		if c.Session.RedisURL == "" {
			return fmt.Errorf("SHOPAIASSIST_REDIS_URL is required for the redis session store")
		}
	case SessionStoreMemory:
		// No backend configuration needed.
	default:
		return fmt.Errorf("invalid session store type: %s (must be redis or memory)", c.Session.StoreType)
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
