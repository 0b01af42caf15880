// Package ledger keeps a tamper-evident journal of settled rounds.
//
// # Core Components
//
// Journal: an append-only, hash-chained log of round records stored in a
// bbolt file, one CBOR-encoded block per key.
//
// Block: a single settled round (commitments, reveals, phase, outcome and
// cheaters) linked to the previous block by its hash.
//
// # Security Properties
//
// The journal provides:
//   - Verifiability: anyone holding the file can re-check the whole chain
//   - Tamper detection: editing any block breaks its hash or the next link
//   - Auditability: every reveal is kept, so each verdict can be recomputed
//
// Persistence is optional: rounds are played and settled without a journal.
package ledger
