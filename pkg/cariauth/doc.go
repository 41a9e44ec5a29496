// Package cariauth is a client for the CARI Auth authorization service.
//
// # Overview
//
// CARI Auth answers two questions about a user holding a OnePass
// orchestration token: which feature access controls (FACs) are granted to
// them, and what are their user and organization details. FAC checks are
// batched into a single check-permission call; the result is an immutable
// FacGrants value that higher layers query by FAC name.
//
// Requests authenticate with the orchestration token as a bearer credential
// plus a product-Id header, and a reg-key header where the endpoint needs
// the user's registration key.
//
// # Related Packages
//
//   - pkg/entitlement: Maps FAC grants to product permissions
//   - pkg/auth: Supplies the orchestration tokens
package cariauth
