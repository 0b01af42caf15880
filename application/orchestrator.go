package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/luca-patrignani/mental-rps/domain/rps"
	"github.com/luca-patrignani/mental-rps/ledger"
)

var (
	ErrRevealTimeout = errors.New("reveal phase timed out")
	ErrNoInput       = errors.New("no input source")
)

// Input supplies the players' raw choices.
type Input interface {
	// Move returns the raw text entered by p. It is parsed by the orchestrator,
	// which asks again when it is not one of moves.
	Move(ctx context.Context, p rps.Party, moves []rps.Move) (string, error)
	Reveal(ctx context.Context, p rps.Party) (rps.Reveal, error)
}

// Display receives everything the players should see.
type Display interface {
	Committed(p rps.Party, o rps.Opening)
	Rejected(p rps.Party, raw string, err error)
	Verdict(v rps.Verdict)
}

// OpponentDisplay is implemented by displays that show the commitment
// received from a remote opponent.
type OpponentDisplay interface {
	Opponent(p rps.Party, name string, c rps.Commitment)
}

// Recorder stores settled verdicts. *ledger.Journal implements it.
type Recorder interface {
	Append(v rps.Verdict) (ledger.Block, error)
}

// Orchestrator runs rounds with a fixed ruleset.
type Orchestrator struct {
	rules         rps.Ruleset
	input         Input
	display       Display
	journal       Recorder
	logger        *slog.Logger
	revealTimeout time.Duration
	roundOpts     []rps.RoundOption
}

type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithJournal appends every settled verdict to r.
func WithJournal(r Recorder) Option {
	return func(o *Orchestrator) {
		o.journal = r
	}
}

// WithRevealTimeout bounds the reveal step of a round. Zero means no bound.
func WithRevealTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.revealTimeout = d
	}
}

// WithRoundOptions is applied to every round the orchestrator creates.
func WithRoundOptions(opts ...rps.RoundOption) Option {
	return func(o *Orchestrator) {
		o.roundOpts = append(o.roundOpts, opts...)
	}
}

func NewOrchestrator(rules rps.Ruleset, input Input, display Display, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		rules:   rules,
		input:   input,
		display: display,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// PlayLocal plays a hot-seat round: A commits, then B, then both reveal.
func (o *Orchestrator) PlayLocal(ctx context.Context) (rps.Verdict, error) {
	if o.input == nil {
		return rps.Verdict{}, ErrNoInput
	}
	round := rps.NewRound(o.rules, o.roundOpts...)
	logger := o.logger.With("round", round.ID())
	for _, p := range []rps.Party{rps.PartyA, rps.PartyB} {
		m, err := o.chooseMove(ctx, p)
		if err != nil {
			return rps.Verdict{}, err
		}
		opening, err := round.Commit(p, m)
		if err != nil {
			return rps.Verdict{}, fmt.Errorf("committing %s: %w", p, err)
		}
		logger.Debug("commitment recorded", "party", p, "commitment", opening.Commitment)
		o.display.Committed(p, opening)
	}

	revealCtx, cancel := o.revealContext(ctx)
	defer cancel()
	for _, p := range []rps.Party{rps.PartyA, rps.PartyB} {
		rv, err := o.input.Reveal(revealCtx, p)
		if err != nil {
			return rps.Verdict{}, o.revealError(ctx, p, err)
		}
		if err := round.Reveal(p, rv); err != nil {
			return rps.Verdict{}, err
		}
		logger.Debug("reveal recorded", "party", p)
	}
	v, err := round.Settle()
	if err != nil {
		return rps.Verdict{}, err
	}
	return o.finish(v)
}

// chooseMove asks p until the input parses as a move of the ruleset.
func (o *Orchestrator) chooseMove(ctx context.Context, p rps.Party) (rps.Move, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("waiting for %s: %w", p, err)
		}
		raw, err := o.input.Move(ctx, p, o.rules.Moves())
		if err != nil {
			return "", fmt.Errorf("reading move of %s: %w", p, err)
		}
		m, err := o.rules.ParseMove(raw)
		if err == nil {
			return m, nil
		}
		o.logger.Debug("move rejected", "party", p, "error", err)
		o.display.Rejected(p, raw, err)
	}
}

func (o *Orchestrator) revealContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.revealTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.revealTimeout)
}

// revealError tells our own deadline apart from the caller's cancellation.
func (o *Orchestrator) revealError(parent context.Context, p rps.Party, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
		return fmt.Errorf("%w: waiting for %s after %s", ErrRevealTimeout, p, o.revealTimeout)
	}
	return fmt.Errorf("reading reveal of %s: %w", p, err)
}

// finish shows a settled verdict and records it.
func (o *Orchestrator) finish(v rps.Verdict) (rps.Verdict, error) {
	if v.Phase == rps.CheatDetected {
		o.logger.Warn("verification failed", "round", v.RoundID, "cheaters", v.Cheaters)
	} else {
		o.logger.Info("round resolved", "round", v.RoundID, "outcome", v.Outcome)
	}
	o.display.Verdict(v)
	if o.journal == nil {
		return v, nil
	}
	block, err := o.journal.Append(v)
	if err != nil {
		return v, fmt.Errorf("recording verdict: %w", err)
	}
	o.logger.Debug("verdict recorded", "round", v.RoundID, "block", block.Index, "hash", block.Hash)
	return v, nil
}
