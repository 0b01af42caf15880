package rps

import "errors"

type Move string

const (
	Rock     Move = "rock"
	Paper    Move = "paper"
	Scissors Move = "scissors"

	// extended moves, only reachable through the Extended ruleset
	Lizard Move = "lizard"
	Spock  Move = "spock"
)

// Outcome of a resolved round, always seen from Player A's side first.
type Outcome string

const (
	Tie   Outcome = "tie"
	AWins Outcome = "a_wins"
	BWins Outcome = "b_wins"
)

// Mirror swaps the roles of the two parties.
func (o Outcome) Mirror() Outcome {
	switch o {
	case AWins:
		return BWins
	case BWins:
		return AWins
	default:
		return o
	}
}

// Phase represents the current state of a round
type Phase string

const (
	AwaitingCommitA Phase = "awaiting_commit_a"
	AwaitingCommitB Phase = "awaiting_commit_b"
	AwaitingReveals Phase = "awaiting_reveals"
	Verifying       Phase = "verifying"
	Resolved        Phase = "resolved"
	CheatDetected   Phase = "cheat_detected"
)

// Terminal reports whether no further operation is accepted in p.
func (p Phase) Terminal() bool {
	return p == Resolved || p == CheatDetected
}

type Party int

const (
	PartyA Party = iota
	PartyB
)

func (p Party) String() string {
	switch p {
	case PartyA:
		return "Player A"
	case PartyB:
		return "Player B"
	default:
		return "unknown player"
	}
}

// Opening is what the committing party keeps to itself until the reveal.
type Opening struct {
	Move       Move       `json:"move"`
	Secret     Secret     `json:"secret"`
	Commitment Commitment `json:"commitment"`
}

// Reveal is a disclosed (move, secret) pair exactly as the other side typed
// or sent it. It is canonicalized only when verified.
type Reveal struct {
	Move   string `json:"move"`
	Secret string `json:"secret"`
}

var (
	ErrInvalidMove         = errors.New("invalid move")
	ErrInvalidRuleset      = errors.New("invalid ruleset")
	ErrWeakSecret          = errors.New("secret is too short")
	ErrMalformedCommitment = errors.New("malformed commitment")
	ErrMalformedReveal     = errors.New("malformed reveal")
	ErrCommitmentMismatch  = errors.New("reveal does not match commitment")
	ErrWrongPhase          = errors.New("operation not allowed in current phase")
	ErrAlreadyRevealed     = errors.New("party already revealed")
	ErrUnknownParty        = errors.New("unknown party")
)
