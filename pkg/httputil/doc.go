// Package httputil provides shared HTTP plumbing: JSON response helpers and
// the middleware applied to every API route.
//
// Error bodies come in two shapes. WriteError and friends emit
// {"error": "..."}; WriteCodedError emits {"message": "...", "code": "..."}
// for clients that branch on a machine readable code.
package httputil
