package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/luca-patrignani/mental-rps/consensus"
	"github.com/luca-patrignani/mental-rps/domain/rps"
)

// Transport carries one payload to the opponent and returns the payload the
// opponent sent in the same step. *network.P2P implements it.
type Transport interface {
	Exchange(ctx context.Context, data []byte) ([]byte, error)
}

// PlayRemote plays one side of a duel. self is the party played locally and
// doubles as the rank in signed messages; the opponent plays the other one.
// Every step is a single exchange:
//
//  1. hello: names and per-session public keys; the round ID of A is kept
//  2. commit: both commitments, recorded A first
//  3. reveal: both reveals, bounded by the reveal timeout
//  4. verdict: digests of the locally settled verdicts, which must match
//
// A commitment never leaves this process before the opponent's commitment
// step, and a reveal is sent only once both commitments are recorded.
func (o *Orchestrator) PlayRemote(ctx context.Context, t Transport, self rps.Party, name string) (rps.Verdict, error) {
	if self != rps.PartyA && self != rps.PartyB {
		return rps.Verdict{}, rps.ErrUnknownParty
	}
	if o.input == nil {
		return rps.Verdict{}, ErrNoInput
	}
	other := rps.PartyB
	if self == rps.PartyB {
		other = rps.PartyA
	}
	session := consensus.NewSession(int(self))

	hello, err := session.Hello(name, uuid.NewString())
	if err != nil {
		return rps.Verdict{}, err
	}
	recv, err := t.Exchange(ctx, hello)
	if err != nil {
		return rps.Verdict{}, fmt.Errorf("hello step: %w", err)
	}
	opponent, err := session.AcceptHello(recv)
	if err != nil {
		return rps.Verdict{}, fmt.Errorf("hello step: %w", err)
	}
	logger := o.logger.With("round", session.RoundID(), "self", self)
	logger.Info("opponent joined", "name", opponent.Name)

	roundOpts := append([]rps.RoundOption{}, o.roundOpts...)
	round := rps.NewRound(o.rules, append(roundOpts, rps.WithID(session.RoundID()))...)
	m, err := o.chooseMove(ctx, self)
	if err != nil {
		return rps.Verdict{}, err
	}
	opening, err := round.Seal(m)
	if err != nil {
		return rps.Verdict{}, err
	}
	o.display.Committed(self, opening)

	theirs, err := exchange[consensus.CommitPayload](ctx, t, session, consensus.KindCommit,
		consensus.CommitPayload{Commitment: opening.Commitment})
	if err != nil {
		return rps.Verdict{}, fmt.Errorf("commit step: %w", err)
	}
	commitments := [2]rps.Commitment{}
	commitments[self] = opening.Commitment
	commitments[other], err = rps.ParseCommitment(string(theirs.Commitment))
	if err != nil {
		return rps.Verdict{}, fmt.Errorf("commit step: %w", err)
	}
	for _, p := range []rps.Party{rps.PartyA, rps.PartyB} {
		if err := round.RecordCommitment(p, commitments[p]); err != nil {
			return rps.Verdict{}, err
		}
	}
	if d, ok := o.display.(OpponentDisplay); ok {
		d.Opponent(other, opponent.Name, commitments[other])
	}
	logger.Debug("commitments recorded", "a", commitments[rps.PartyA], "b", commitments[rps.PartyB])

	revealCtx, cancel := o.revealContext(ctx)
	defer cancel()
	mine, err := o.input.Reveal(revealCtx, self)
	if err != nil {
		return rps.Verdict{}, o.revealError(ctx, self, err)
	}
	revealed, err := exchange[consensus.RevealPayload](revealCtx, t, session, consensus.KindReveal,
		consensus.RevealPayload{Reveal: mine})
	if err != nil {
		return rps.Verdict{}, o.revealError(ctx, other, err)
	}
	reveals := [2]rps.Reveal{}
	reveals[self] = mine
	reveals[other] = revealed.Reveal
	for _, p := range []rps.Party{rps.PartyA, rps.PartyB} {
		if err := round.Reveal(p, reveals[p]); err != nil {
			return rps.Verdict{}, err
		}
	}

	v, err := round.Settle()
	if err != nil {
		return rps.Verdict{}, err
	}
	digest := consensus.VerdictDigest(v)
	agreed, err := exchange[consensus.VerdictPayload](ctx, t, session, consensus.KindVerdict,
		consensus.VerdictPayload{Digest: digest})
	if err != nil {
		return rps.Verdict{}, fmt.Errorf("verdict step: %w", err)
	}
	if err := consensus.Agree(digest, agreed.Digest); err != nil {
		return v, err
	}
	return o.finish(v)
}

// exchange seals payload, swaps it with the opponent and opens the answer.
func exchange[T any](ctx context.Context, t Transport, s *consensus.Session, kind consensus.Kind, payload any) (T, error) {
	var zero T
	data, err := s.Seal(kind, payload)
	if err != nil {
		return zero, err
	}
	recv, err := t.Exchange(ctx, data)
	if err != nil {
		return zero, err
	}
	e, err := s.Unseal(recv, kind)
	if err != nil {
		return zero, err
	}
	return consensus.Open[T](e)
}
