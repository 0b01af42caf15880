package rps

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// seat holds everything a round knows about one party.
type seat struct {
	commitment Commitment
	reveal     Reveal
	revealed   bool
}

// Round is the state machine of a single commit-reveal round.
// A Round must be driven by one goroutine at a time; it does no locking.
type Round struct {
	id      string
	rules   Ruleset
	entropy io.Reader
	phase   Phase
	seats   [2]seat
	verdict *Verdict
}

type RoundOption func(*Round)

// WithEntropy replaces the secure random source used for secrets.
// Only tests should need this.
func WithEntropy(r io.Reader) RoundOption {
	return func(round *Round) {
		round.entropy = r
	}
}

// WithID fixes the round identifier, e.g. when both peers must agree on it.
func WithID(id string) RoundOption {
	return func(round *Round) {
		round.id = id
	}
}

// NewRound creates a round waiting for Player A's commitment.
func NewRound(rules Ruleset, opts ...RoundOption) *Round {
	r := &Round{
		id:      uuid.NewString(),
		rules:   rules,
		entropy: rand.Reader,
		phase:   AwaitingCommitA,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Round) ID() string {
	return r.id
}

func (r *Round) Phase() Phase {
	return r.phase
}

func (r *Round) Rules() Ruleset {
	return r.rules
}

// Verdict returns the verdict of a settled round, false before Settle.
func (r *Round) Verdict() (Verdict, bool) {
	if r.verdict == nil {
		return Verdict{}, false
	}
	return *r.verdict, true
}

// Commitment returns the commitment stored for p, empty if none yet.
func (r *Round) Commitment(p Party) Commitment {
	if p != PartyA && p != PartyB {
		return ""
	}
	return r.seats[p].commitment
}

// Commit generates a fresh secret for m and records the resulting commitment
// for p. The returned Opening is the only copy of the secret: the round keeps
// nothing but the commitment until p reveals.
func (r *Round) Commit(p Party, m Move) (Opening, error) {
	if err := r.expectCommit(p); err != nil {
		return Opening{}, err
	}
	o, err := r.Seal(m)
	if err != nil {
		return Opening{}, err
	}
	r.storeCommitment(p, o.Commitment)
	return o, nil
}

// Seal draws a secret from the round's entropy and commits m to it without
// recording anything. A remote party seals before its turn and hands the
// commitment to RecordCommitment once the opponent's is in.
func (r *Round) Seal(m Move) (Opening, error) {
	if !r.rules.Contains(m) {
		return Opening{}, fmt.Errorf("%w: %q", ErrInvalidMove, m)
	}
	secret, err := GenerateSecretFrom(r.entropy, SecretSize)
	if err != nil {
		return Opening{}, err
	}
	return Opening{Move: m, Secret: secret, Commitment: Commit(m, secret)}, nil
}

// RecordCommitment stores a commitment produced elsewhere, typically by a
// remote opponent whose move stays unknown until the reveal.
func (r *Round) RecordCommitment(p Party, c Commitment) error {
	if err := r.expectCommit(p); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	r.storeCommitment(p, c)
	return nil
}

// Reveal stores the disclosed pair of p. Once both parties revealed the round
// moves to Verifying.
func (r *Round) Reveal(p Party, rv Reveal) error {
	if p != PartyA && p != PartyB {
		return ErrUnknownParty
	}
	if r.phase != AwaitingReveals {
		return fmt.Errorf("%w: reveal during %s", ErrWrongPhase, r.phase)
	}
	if r.seats[p].revealed {
		return fmt.Errorf("%w: %s", ErrAlreadyRevealed, p)
	}
	r.seats[p].reveal = rv
	r.seats[p].revealed = true
	if r.seats[PartyA].revealed && r.seats[PartyB].revealed {
		r.phase = Verifying
	}
	return nil
}

// Settle verifies both reveals against their commitments. If both hold the
// round is Resolved, otherwise it is CheatDetected and no outcome is
// computed. Settling happens once: a settled round answers ErrWrongPhase and
// its verdict stays available through Verdict.
func (r *Round) Settle() (Verdict, error) {
	if r.phase != Verifying {
		return Verdict{}, fmt.Errorf("%w: settle during %s", ErrWrongPhase, r.phase)
	}
	v := Verdict{
		RoundID:     r.id,
		Commitments: [2]Commitment{r.seats[PartyA].commitment, r.seats[PartyB].commitment},
		Reveals:     [2]Reveal{r.seats[PartyA].reveal, r.seats[PartyB].reveal},
	}
	var moves [2]Move
	for _, p := range []Party{PartyA, PartyB} {
		m, err := r.open(p)
		if err != nil {
			v.Cheaters = append(v.Cheaters, p)
			v.Failures = append(v.Failures, Failure{Party: p, Reason: err.Error()})
			continue
		}
		moves[p] = m
	}
	if len(v.Cheaters) > 0 {
		r.phase = CheatDetected
		v.Phase = CheatDetected
		r.verdict = &v
		return v, nil
	}
	v.Moves = moves
	v.Outcome = r.rules.Resolve(moves[PartyA], moves[PartyB])
	switch v.Outcome {
	case AWins:
		proof := v.Reveals[PartyA]
		v.Proof = &proof
	case BWins:
		proof := v.Reveals[PartyB]
		v.Proof = &proof
	}
	r.phase = Resolved
	v.Phase = Resolved
	r.verdict = &v
	return v, nil
}

// open canonicalizes the reveal of p and checks it against its commitment.
func (r *Round) open(p Party) (Move, error) {
	rv := r.seats[p].reveal
	m := Move(strings.ToLower(strings.TrimSpace(rv.Move)))
	s := Secret(strings.TrimSpace(rv.Secret))
	if !r.rules.Contains(m) {
		return "", errors.Join(ErrMalformedReveal, fmt.Errorf("%w: %q", ErrInvalidMove, rv.Move))
	}
	if err := Check(m, s, r.seats[p].commitment); err != nil {
		return "", err
	}
	return m, nil
}

func (r *Round) expectCommit(p Party) error {
	switch {
	case p == PartyA && r.phase == AwaitingCommitA:
		return nil
	case p == PartyB && r.phase == AwaitingCommitB:
		return nil
	case p != PartyA && p != PartyB:
		return ErrUnknownParty
	default:
		return fmt.Errorf("%w: %s cannot commit during %s", ErrWrongPhase, p, r.phase)
	}
}

func (r *Round) storeCommitment(p Party, c Commitment) {
	r.seats[p].commitment = c
	if p == PartyA {
		r.phase = AwaitingCommitB
	} else {
		r.phase = AwaitingReveals
	}
}
