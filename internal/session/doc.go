// Package session owns the transport lifecycle.
//
// Ownership boundary:
// - WebSocket endpoint, upgrade, and per-connection read loop
//
// - the Starting -> Open -> Closing -> Closed state machine
//
// - id correlation: exactly one reply per inbound envelope
//
// - lifecycle markers on the control channel
//
// - the operator surface (/health, /constants, /messages, /metrics)
//
// Dispatch is serialized per connection: each command completes, including
// its namespace mutations, before the next one starts. A failure in one
// command never terminates the session.
package session
