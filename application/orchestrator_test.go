package application

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luca-patrignani/mental-rps/domain/rps"
	"github.com/luca-patrignani/mental-rps/ledger"
)

func TestPlayLocalHonestRound(t *testing.T) {
	t.Parallel()

	tb := newTable(map[rps.Party][]string{rps.PartyA: {"rock"}, rps.PartyB: {"scissors"}})
	journal := &memJournal{}
	o := NewOrchestrator(rps.Classic, tb, tb, WithJournal(journal))

	v, err := o.PlayLocal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rps.Resolved, v.Phase)
	assert.Equal(t, rps.AWins, v.Outcome)
	assert.Equal(t, [2]rps.Move{rps.Rock, rps.Scissors}, v.Moves)
	require.NotNil(t, v.Proof)
	assert.Equal(t, string(tb.openings[rps.PartyA].Secret), v.Proof.Secret)
	assert.Equal(t, []rps.Verdict{v}, tb.verdicts)
	assert.Equal(t, []rps.Verdict{v}, journal.verdicts)
	assert.Equal(t, tb.openings[rps.PartyA].Commitment, v.Commitments[rps.PartyA])
}

func TestPlayLocalReprompts(t *testing.T) {
	t.Parallel()

	tb := newTable(map[rps.Party][]string{
		rps.PartyA: {"banana", "", " Paper "},
		rps.PartyB: {"lizard", "paper"},
	})
	o := NewOrchestrator(rps.Classic, tb, tb)

	v, err := o.PlayLocal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"banana", "", "lizard"}, tb.rejected)
	assert.Equal(t, rps.Tie, v.Outcome)
	assert.Nil(t, v.Proof)
}

func TestPlayLocalDetectsCheating(t *testing.T) {
	t.Parallel()

	tb := newTable(map[rps.Party][]string{rps.PartyA: {"rock"}, rps.PartyB: {"paper"}})
	// A tries to switch to scissors after seeing nothing but B's commitment
	tb.forged[rps.PartyA] = rps.Reveal{Move: "scissors", Secret: "00112233445566778899aabbccddeeff"}
	dir := t.TempDir()
	journal, err := ledger.Open(filepath.Join(dir, "journal.db"))
	require.NoError(t, err)
	defer journal.Close()
	o := NewOrchestrator(rps.Classic, tb, tb, WithJournal(journal))

	v, err := o.PlayLocal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rps.CheatDetected, v.Phase)
	assert.Equal(t, []rps.Party{rps.PartyA}, v.Cheaters)
	assert.Empty(t, v.Outcome)
	require.Len(t, tb.verdicts, 1)

	latest, err := journal.Latest()
	require.NoError(t, err)
	assert.Equal(t, v.RoundID, latest.Record.RoundID)
	assert.Equal(t, rps.CheatDetected, latest.Record.Phase)
	assert.NoError(t, journal.Verify())
}

func TestPlayLocalRevealTimeout(t *testing.T) {
	t.Parallel()

	tb := newTable(map[rps.Party][]string{rps.PartyA: {"rock"}, rps.PartyB: {"paper"}})
	tb.stalled[rps.PartyB] = true
	journal := &memJournal{}
	o := NewOrchestrator(rps.Classic, tb, tb, WithJournal(journal), WithRevealTimeout(50*time.Millisecond))

	_, err := o.PlayLocal(context.Background())
	assert.ErrorIs(t, err, ErrRevealTimeout)
	assert.Empty(t, tb.verdicts)
	assert.Empty(t, journal.verdicts)
}

func TestPlayLocalCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tb := newTable(map[rps.Party][]string{rps.PartyA: {"rock"}, rps.PartyB: {"paper"}})
	o := NewOrchestrator(rps.Classic, tb, tb, WithRevealTimeout(time.Second))

	_, err := o.PlayLocal(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrRevealTimeout)
	assert.Empty(t, tb.openings)
}

func TestPlayLocalInputExhausted(t *testing.T) {
	t.Parallel()

	tb := newTable(map[rps.Party][]string{rps.PartyA: {"rock"}})
	o := NewOrchestrator(rps.Classic, tb, tb)

	_, err := o.PlayLocal(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "reading move of Player B")
	assert.Empty(t, tb.verdicts)
}

func TestPlayLocalExtendedRules(t *testing.T) {
	t.Parallel()

	tb := newTable(map[rps.Party][]string{rps.PartyA: {"spock"}, rps.PartyB: {"lizard"}})
	o := NewOrchestrator(rps.Extended, tb, tb)

	v, err := o.PlayLocal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rps.BWins, v.Outcome)
}

func TestPlayLocalRequiresInput(t *testing.T) {
	t.Parallel()

	o := NewOrchestrator(rps.Classic, nil, newTable(nil))
	_, err := o.PlayLocal(context.Background())
	assert.ErrorIs(t, err, ErrNoInput)
}
