package rps

import (
	"fmt"
	"slices"
	"strings"
)

// Ruleset is the move domain of a game together with its dominance relation.
// It is immutable once built and safe to share between rounds.
type Ruleset struct {
	moves []Move
	beats map[Move]map[Move]struct{}
}

// Classic is rock beats scissors, scissors beats paper, paper beats rock.
var Classic = MustRuleset(map[Move][]Move{
	Rock:     {Scissors},
	Scissors: {Paper},
	Paper:    {Rock},
})

// Extended is rock-paper-scissors-lizard-spock.
var Extended = MustRuleset(map[Move][]Move{
	Rock:     {Scissors, Lizard},
	Paper:    {Rock, Spock},
	Scissors: {Paper, Lizard},
	Lizard:   {Spock, Paper},
	Spock:    {Scissors, Rock},
})

// NewRuleset builds a ruleset from the "x beats each of ys" relation. Every
// move must appear as a key. The relation must be irreflexive and, for each
// pair of distinct moves, exactly one of them must beat the other.
func NewRuleset(beats map[Move][]Move) (Ruleset, error) {
	if len(beats) == 0 {
		return Ruleset{}, fmt.Errorf("%w: empty move domain", ErrInvalidRuleset)
	}
	r := Ruleset{beats: make(map[Move]map[Move]struct{}, len(beats))}
	for m, losers := range beats {
		if m == "" || string(m) != strings.ToLower(string(m)) {
			return Ruleset{}, fmt.Errorf("%w: move %q is not canonical", ErrInvalidRuleset, m)
		}
		r.moves = append(r.moves, m)
		r.beats[m] = make(map[Move]struct{}, len(losers))
		for _, l := range losers {
			if l == m {
				return Ruleset{}, fmt.Errorf("%w: %s beats itself", ErrInvalidRuleset, m)
			}
			if _, ok := beats[l]; !ok {
				return Ruleset{}, fmt.Errorf("%w: %s beats unknown move %s", ErrInvalidRuleset, m, l)
			}
			r.beats[m][l] = struct{}{}
		}
	}
	slices.Sort(r.moves)
	for i, a := range r.moves {
		for _, b := range r.moves[i+1:] {
			if r.Beats(a, b) == r.Beats(b, a) {
				return Ruleset{}, fmt.Errorf("%w: no single winner between %s and %s", ErrInvalidRuleset, a, b)
			}
		}
	}
	return r, nil
}

// MustRuleset is like NewRuleset but panics on an invalid relation.
// It is meant for package-level rulesets.
func MustRuleset(beats map[Move][]Move) Ruleset {
	r, err := NewRuleset(beats)
	if err != nil {
		panic(err)
	}
	return r
}

// Moves returns the move domain in lexical order.
func (r Ruleset) Moves() []Move {
	return slices.Clone(r.moves)
}

// Contains reports whether m is a canonical move of r.
func (r Ruleset) Contains(m Move) bool {
	_, ok := r.beats[m]
	return ok
}

// ParseMove canonicalizes raw input (surrounding spaces dropped, lowercased)
// and rejects anything outside the move domain.
func (r Ruleset) ParseMove(raw string) (Move, error) {
	m := Move(strings.ToLower(strings.TrimSpace(raw)))
	if !r.Contains(m) {
		return "", fmt.Errorf("%w: %q, expected one of %s", ErrInvalidMove, raw, r.describe())
	}
	return m, nil
}

func (r Ruleset) Beats(a, b Move) bool {
	_, ok := r.beats[a][b]
	return ok
}

// Resolve decides the round between A playing a and B playing b.
// Both moves must already be verified members of the domain.
func (r Ruleset) Resolve(a, b Move) Outcome {
	if a == b {
		return Tie
	}
	if r.Beats(a, b) {
		return AWins
	}
	return BWins
}

func (r Ruleset) describe() string {
	s := make([]string, len(r.moves))
	for i, m := range r.moves {
		s[i] = string(m)
	}
	return strings.Join(s, ", ")
}
