// Package password implements one-way password hashing and verification
// with bcrypt.
//
// # Output format
//
// Hashes use the standard bcrypt modular crypt encoding
// ($2a$<cost>$<salt+digest>) produced by golang.org/x/crypto/bcrypt, so
// records written by other bcrypt implementations verify unchanged.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy and
// credential lookup live in the Engine and its user store.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords (callers supply plaintext and receive hashes).
//   - Import any other authcore package.
//   - Surface malformed stored hashes as anything but a failed verification.
package password
