// Package authcore verifies passwords against a pluggable user store and
// issues, validates, and refreshes the dual-key JWT bearer tokens that
// authorize access to a protected API.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build]. Signing keys and hasher parameters are immutable
// process-wide configuration; nothing mutates them after Build.
//
// # Token model
//
// A successful login yields two stateless bearer tokens: a short-lived
// access token presented on every protected request and a long-lived
// refresh token exchanged for fresh access tokens without re-presenting
// the password. Each variant is signed with its own key, so neither can
// ever verify as the other. Validity is determined entirely by signature
// and embedded expiry; there is no server-side session table and no
// revocation list. A consequence worth knowing: a user deactivated or
// deleted after issuance stays authorized until the access token expires.
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder],
// [Config], sentinel errors, and value types. The user store is an
// external collaborator reached only through the [UserStore] contract;
// userstore/ ships a Redis-backed reference adapter. Throttling lives
// under internal/ and is never exported.
//
// # What this package must NOT do
//
//   - Expose Redis clients or signing keys in its public API.
//   - Perform I/O outside of Engine methods (construction via Builder is
//     allocation-only until Build).
//   - Distinguish "unknown user" from "wrong password" to callers.
package authcore
