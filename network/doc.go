// Package network provides the peer-to-peer transport used by a networked
// duel. Every peer runs a small HTTP server and addresses the others by rank.
//
// # Core Components
//
// Peer: low-level node that posts payloads to the other ranks and waits for
// theirs. Each message carries the sender's logical clock, so a late retry
// from a previous step is never mistaken for the current one.
//
// P2P: two-party adapter exposing Exchange, the only primitive a
// commit-reveal duel needs.
//
// # Communication Patterns
//
// Broadcast: one node sends data to all other nodes (one-to-all).
//
// AllToAll: each node sends data to all other nodes, in rank order.
//
// # Reliability
//
// Deliveries are retried with exponential backoff until the receiver reaches
// the same step or the configured timeout elapses. WithTLS switches both the
// server and the client to mutually authenticated TLS.
package network
