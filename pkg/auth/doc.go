// Package auth authenticates and logs in users.
//
// # Overview
//
// Service.LoginUser orchestrates the full login flow: it validates the
// OnePass sign-on token, mints a short lived preliminary orchestration
// token, gates on entitlements, gathers user and org details, mints the
// final orchestration token carrying those details as properties, and wraps
// it in the session JWT. The result is a LoggedInUser ready to store in the
// session.
//
// A user who authenticates but lacks product access fails with
// NotAuthorizedLoginError, which the HTTP layer turns into a redirect to
// the no-access page instead of an error response.
//
// # Related Packages
//
//   - pkg/onepass: Identity provider client
//   - pkg/cariauth: Authorization service client
//   - pkg/entitlement: FAC to permission mapping
//   - pkg/session: Stores the LoggedInUser
package auth
