// Package api implements the HTTP surface of the container app backend.
//
// # Overview
//
// All routes live under /api:
//
//   - GET  /api/auth/onepass: the OnePass login callback. Runs the login
//     flow, stores the result in a session, and redirects to the home page,
//     or to the no-access page for users without product access.
//   - GET  /api/user/me, GET /api/user/timeouts: session backed user info.
//   - POST /api/user/logout: destroys the session.
//   - GET  /api/email/secure-url, POST /api/email/skill-notification: the
//     skill completion email proxy; see the email package.
//   - GET  /api/redirect/ccpa-dsar: redirect to the CCPA request form.
//
// Every /api response is marked Cache-Control: private, no-store. Health
// and metrics endpoints are served from a separate port; see cmd.
package api
