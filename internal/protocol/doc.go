// Package protocol owns the wire contract and parsing primitives.
//
// Ownership boundary:
// - inbound envelope shape and strict decode
//
// - outbound reply shapes and value coercion
//
// - error kind vocabulary
//
// The transport session owns everything stateful: connections, ordering,
// lifecycle markers.
package protocol
