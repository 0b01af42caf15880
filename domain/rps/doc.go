// Package rps implements a commit-reveal game of Rock-Paper-Scissors between
// two parties who do not trust each other and cannot move simultaneously.
//
// # Core Types
//
// Move: a value of the ruleset's domain, canonicalized to lowercase.
//
// Secret: the lowercase hex encoding of at least SecretSize random bytes.
//
// Commitment: hex(sha256(move || secret)), 64 lowercase hex characters.
//
// Ruleset: the immutable move domain together with its dominance relation.
//
// Round: the per-round state machine that collects both commitments, then
// both reveals, and finally settles the round into a Verdict.
//
// # Protocol Flow
//
// A round progresses strictly through:
//
//	AwaitingCommitA → AwaitingCommitB → AwaitingReveals → Verifying → Resolved | CheatDetected
//
// A reveal that does not reproduce the stored commitment is not an error: it
// settles the round as CheatDetected, naming the offending parties, and no
// winner is computed.
package rps
