// Package email proxies skill completion emails through the Iterable
// campaign API.
//
// # Overview
//
// A micro frontend that finishes a long running skill needs to notify the
// user by email, but the campaign provider's API key must stay server
// side. A logged in session asks for a secure URL (GET
// /api/email/secure-url); the URL embeds a SHA-256 hash over the user and
// skill identifiers keyed with a shared secret. The notification callback
// (POST /api/email/skill-notification) runs without a session and accepts
// only requests whose hash verifies, then triggers the campaign with the
// forwarded template fields.
package email
