// Package rate provides the Redis-backed throttles the engine can apply in
// front of credential verification and refresh exchange.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - al:  — login per-username
//   - ali: — login per-IP
//   - ar:  — refresh per-IP
//
// # What this package must NOT do
//
//   - Decide which operations are throttled (the engine config does).
//   - Be imported outside the authcore module.
package rate
