// Package middleware exposes the HTTP adapter for authcore access-token
// enforcement.
//
// [Guard] reads the Authorization header, calls Engine.Validate, and
// injects the authenticated [authcore.Identity] into the request context.
// Every failure (missing header, expired token, bad signature) produces
// the same response: 401 with a WWW-Authenticate: Bearer header and a
// JSON body {"detail":"Could not validate credentials"}.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself; all decisions are delegated to
// Engine.Validate.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Leak why a token was rejected.
package middleware
