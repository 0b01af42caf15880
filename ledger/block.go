package ledger

import "github.com/luca-patrignani/mental-rps/domain/rps"

// Block is one settled round in the journal.
type Block struct {
	Index     int    `json:"index"`
	Timestamp int64  `json:"timestamp"`
	PrevHash  string `json:"prev_hash"`
	Hash      string `json:"hash"`
	Record    Record `json:"record"`
}

// Record is what a round leaves behind once settled.
type Record struct {
	RoundID     string            `json:"round_id"`
	Phase       rps.Phase         `json:"phase"`
	Outcome     rps.Outcome       `json:"outcome,omitempty"`
	Commitments [2]rps.Commitment `json:"commitments"`
	Reveals     [2]rps.Reveal     `json:"reveals"`
	Cheaters    []rps.Party       `json:"cheaters,omitempty"`
}

func recordOf(v rps.Verdict) Record {
	return Record{
		RoundID:     v.RoundID,
		Phase:       v.Phase,
		Outcome:     v.Outcome,
		Commitments: v.Commitments,
		Reveals:     v.Reveals,
		Cheaters:    v.Cheaters,
	}
}
