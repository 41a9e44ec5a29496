// Package onepass is a client for the OnePass identity provider REST API.
//
// # Overview
//
// OnePass drives the interactive login flow. After the user signs in on the
// OnePass hosted page, OnePass redirects back with a sign-on token. The
// client exchanges that token for the user's profile and a seamless token
// (AuthenticateSignOnToken), then mints orchestration tokens from the
// seamless token (CreateOrchestrationToken). Orchestration tokens carry
// key/value properties and act as bearer credentials for downstream services.
//
// # Request Signing
//
// Every request carries an APIKeyHash signature: the base64 encoded
// HMAC-SHA256 of the API key, a per-request nonce, and the current UTC date
// (YYYYMMDD), keyed with the API key secret. See Client.apiKeyHash.
//
// # Related Packages
//
//   - pkg/auth: Drives the full login orchestration
//   - pkg/cariauth: Consumes orchestration tokens for authorization checks
package onepass
