// Package jwt issues and verifies the two token variants used by authcore:
// short-lived access tokens and long-lived refresh tokens, signed with HS256
// under two disjoint keys.
//
// # Key separation
//
// [Manager] holds one key per variant. CreateAccess/ParseAccess only ever
// touch the access key and CreateRefresh/ParseRefresh only ever touch the
// refresh key; there is no call path that verifies a token against the
// other variant's key, and [NewManager] rejects configs where both keys are
// equal.
//
// # Failure kinds
//
// Parse failures collapse into two sentinels: [ErrExpired] when the embedded
// expiry has passed, [ErrInvalid] for everything else (bad signature, wrong
// algorithm, malformed payload). Callers that present a uniform
// "unauthorized" surface can still log which kind occurred.
//
// # What this package must NOT do
//
//   - Hold more than the claims the wire format defines (sub, id, exp).
//   - Import any other authcore package.
//   - Perform I/O (signing and parsing are pure CPU).
package jwt
