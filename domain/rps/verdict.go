package rps

import "strings"

// Failure explains why the reveal of a party did not open its commitment.
type Failure struct {
	Party  Party  `json:"party"`
	Reason string `json:"reason"`
}

// Verdict is the terminal result of a round.
type Verdict struct {
	RoundID     string        `json:"round_id"`
	Phase       Phase         `json:"phase"`
	Outcome     Outcome       `json:"outcome,omitempty"`
	Moves       [2]Move       `json:"moves"`
	Commitments [2]Commitment `json:"commitments"`
	Reveals     [2]Reveal     `json:"reveals"`
	Cheaters    []Party       `json:"cheaters,omitempty"`
	Failures    []Failure     `json:"failures,omitempty"`
	// Proof is the winner's reveal. It is nil on a tie or when cheating was
	// detected.
	Proof *Reveal `json:"proof,omitempty"`
}

// Cheated reports whether p failed verification.
func (v Verdict) Cheated(p Party) bool {
	for _, c := range v.Cheaters {
		if c == p {
			return true
		}
	}
	return false
}

// Winner returns the winning party, false on a tie or a cheat.
func (v Verdict) Winner() (Party, bool) {
	if v.Phase != Resolved {
		return 0, false
	}
	switch v.Outcome {
	case AWins:
		return PartyA, true
	case BWins:
		return PartyB, true
	}
	return 0, false
}

// Text renders the verdict as shown to the players.
func (v Verdict) Text() string {
	if v.Phase == CheatDetected {
		names := make([]string, len(v.Cheaters))
		for i, c := range v.Cheaters {
			names[i] = c.String()
		}
		return "cheating detected: " + strings.Join(names, ", ")
	}
	switch v.Outcome {
	case AWins:
		return "Player A wins!"
	case BWins:
		return "Player B wins!"
	case Tie:
		return "It's a Tie!"
	}
	return "undecided"
}
