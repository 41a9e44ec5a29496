// Package config loads application configuration from environment variables.
//
// # Overview
//
// Configuration is split by concern: HTTP server settings, OnePass identity
// provider credentials, the CARI Auth service location, JWT signing, the
// session store backend, entitlement processing, and observability.
//
// LoadConfig fails fast when a required variable is missing. The process
// cannot complete a login without its upstream credentials, so it refuses to
// start instead of failing on the first request.
//
// # Required Variables
//
//   - ONEPASS_API_KEY, ONEPASS_API_KEY_SECRET, ONEPASS_API_URL
//   - CARI_AUTH_SERVICE_URL
//   - JWT_PRIVATE_KEY
//   - SHOPAIASSIST_REDIS_URL (when the session store is redis, the default)
//
// All other variables carry defaults suitable for local development.
package config
