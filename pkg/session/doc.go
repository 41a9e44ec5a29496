// Package session provides server side session storage for logged in users.
//
// # Overview
//
// The browser only ever holds an opaque session ID in an HttpOnly cookie;
// the LoggedInUser, including its orchestration token and JWT, stays server
// side in a Store. The Redis store is the production backend, with expiry
// handled by key TTLs. The memory store serves local development and tests
// and sweeps expired entries on a schedule.
//
// Manager ties the store to HTTP: it issues cryptographically random
// session IDs, sets and clears the cookie, and resolves incoming requests
// to their user.
package session
