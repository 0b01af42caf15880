// Package consensus authenticates the messages two peers exchange during a
// networked duel and checks that both reached the same verdict.
//
// # Core Components
//
// Keypair: a per-duel Schnorr keypair over the Ed25519 group.
//
// Envelope: a typed protocol message (hello, commit, reveal, verdict) signed
// by its sender over its JSON form with the signature cleared.
//
// Session: the local view of a duel. It learns the opponent's public key from
// the hello step and from then on only accepts envelopes of the expected kind,
// for the agreed round, carrying a valid signature from that key.
//
// # Agreement
//
// After settling, each peer exchanges the digest of its verdict. Honest peers
// always compute the same verdict from the same commitments and reveals, so a
// mismatch means one side is not following the protocol.
package consensus
