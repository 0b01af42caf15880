package rps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMove(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw      string
		expected Move
		valid    bool
	}{
		{"rock", Rock, true},
		{"ROCK", Rock, true},
		{"  Paper\n", Paper, true},
		{"sCiSsOrS", Scissors, true},
		{"lizard", "", false},
		{"", "", false},
		{"rocks", "", false},
	}
	for _, tt := range tests {
		m, err := Classic.ParseMove(tt.raw)
		if !tt.valid {
			assert.ErrorIs(t, err, ErrInvalidMove, "input %q", tt.raw)
			continue
		}
		require.NoError(t, err, "input %q", tt.raw)
		assert.Equal(t, tt.expected, m)
	}
}

func TestClassicDominance(t *testing.T) {
	t.Parallel()

	wins := map[[2]Move]bool{
		{Rock, Scissors}:  true,
		{Scissors, Paper}: true,
		{Paper, Rock}:     true,
	}
	for _, a := range Classic.Moves() {
		for _, b := range Classic.Moves() {
			assert.Equal(t, wins[[2]Move{a, b}], Classic.Beats(a, b), "%s vs %s", a, b)
		}
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		a, b     Move
		expected Outcome
	}{
		{"rock crushes scissors", Rock, Scissors, AWins},
		{"scissors cut paper", Scissors, Paper, AWins},
		{"paper covers rock", Paper, Rock, AWins},
		{"scissors lose to rock", Scissors, Rock, BWins},
		{"paper loses to scissors", Paper, Scissors, BWins},
		{"rock loses to paper", Rock, Paper, BWins},
		{"rock tie", Rock, Rock, Tie},
		{"paper tie", Paper, Paper, Tie},
		{"scissors tie", Scissors, Scissors, Tie},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classic.Resolve(tt.a, tt.b))
		})
	}
}

func TestResolveSymmetry(t *testing.T) {
	t.Parallel()

	for _, rules := range []Ruleset{Classic, Extended} {
		for _, a := range rules.Moves() {
			for _, b := range rules.Moves() {
				out := rules.Resolve(a, b)
				assert.Contains(t, []Outcome{Tie, AWins, BWins}, out)
				assert.Equal(t, out, rules.Resolve(b, a).Mirror(), "%s vs %s", a, b)
			}
		}
	}
}

func TestExtendedRuleset(t *testing.T) {
	t.Parallel()

	assert.Len(t, Extended.Moves(), 5)
	assert.Equal(t, AWins, Extended.Resolve(Spock, Scissors))
	assert.Equal(t, BWins, Extended.Resolve(Rock, Spock))
	assert.Equal(t, AWins, Extended.Resolve(Lizard, Paper))

	for _, a := range Extended.Moves() {
		beaten := 0
		for _, b := range Extended.Moves() {
			if Extended.Beats(a, b) {
				beaten++
			}
		}
		assert.Equal(t, 2, beaten, "%s", a)
	}
}

func TestNewRulesetRejectsInvalidRelations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		beats map[Move][]Move
	}{
		{"empty", map[Move][]Move{}},
		{"reflexive", map[Move][]Move{Rock: {Rock}}},
		{"unknown loser", map[Move][]Move{Rock: {Lizard}}},
		{"not canonical", map[Move][]Move{"Rock": {}}},
		{"missing pair", map[Move][]Move{Rock: {Scissors}, Scissors: {}, Paper: {}}},
		{"mutual", map[Move][]Move{Rock: {Paper}, Paper: {Rock}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRuleset(tt.beats)
			assert.ErrorIs(t, err, ErrInvalidRuleset)
		})
	}
	assert.Panics(t, func() { MustRuleset(map[Move][]Move{}) })
}

func TestMovesIsACopy(t *testing.T) {
	t.Parallel()

	moves := Classic.Moves()
	moves[0] = "tampered"
	assert.True(t, Classic.Contains(Classic.Moves()[0]))
}
