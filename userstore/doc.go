// Package userstore is a Redis-backed reference implementation of the
// authcore.UserStore contract.
//
// # Layout
//
// One JSON record per user at <prefix>:user:<username>, written with
// SETNX so the store, not its callers, owns username uniqueness.
// Numeric user ids come from an INCR sequence at <prefix>:user_id_seq; a
// lost race leaves a gap in the sequence, which is harmless.
//
// # What this package must NOT do
//
//   - Hash or verify passwords (it stores opaque hashes).
//   - Mutate records after creation (there is no update path).
package userstore
