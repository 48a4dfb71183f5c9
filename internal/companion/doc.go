// Package companion owns command dispatch and symbol resolution.
//
// Ownership boundary:
// - per-session Namespace state
//
// - path resolution across Namespace and registry scopes
//
// - argument substitution and invocation
//
// - the fixed public command set (get, exists, init, run, try, register,
//   store, ping)
//
// Companion does not own wire concerns: envelopes, ids, and reply encoding
// live in internal/protocol and internal/session.
package companion
