package ledger

import (
	"path/filepath"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	"github.com/luca-patrignani/mental-rps/domain/rps"
)

// playRound settles an honest round between a and b.
func playRound(t *testing.T, a, b rps.Move) rps.Verdict {
	t.Helper()
	r := rps.NewRound(rps.Classic)
	oa, err := r.Commit(rps.PartyA, a)
	require.NoError(t, err)
	ob, err := r.Commit(rps.PartyB, b)
	require.NoError(t, err)
	require.NoError(t, r.Reveal(rps.PartyA, rps.Reveal{Move: string(oa.Move), Secret: string(oa.Secret)}))
	require.NoError(t, r.Reveal(rps.PartyB, rps.Reveal{Move: string(ob.Move), Secret: string(ob.Secret)}))
	v, err := r.Settle()
	require.NoError(t, err)
	return v
}

func openJournal(t *testing.T) (*Journal, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "journal.db")
	j, err := Open(path)
	require.NoError(t, err)
	return j, path
}

func TestNewJournalHasGenesis(t *testing.T) {
	t.Parallel()

	j, _ := openJournal(t)
	defer j.Close()

	latest, err := j.Latest()
	require.NoError(t, err)
	assert.Equal(t, 0, latest.Index)
	assert.Equal(t, "0", latest.PrevHash)
	assert.NoError(t, j.Verify())
}

func TestAppendChainsBlocks(t *testing.T) {
	t.Parallel()

	j, _ := openJournal(t)
	defer j.Close()

	first := playRound(t, rps.Rock, rps.Scissors)
	second := playRound(t, rps.Paper, rps.Paper)

	b1, err := j.Append(first)
	require.NoError(t, err)
	b2, err := j.Append(second)
	require.NoError(t, err)

	assert.Equal(t, 1, b1.Index)
	assert.Equal(t, 2, b2.Index)
	assert.Equal(t, b1.Hash, b2.PrevHash)
	assert.Equal(t, first.RoundID, b1.Record.RoundID)
	assert.Equal(t, rps.AWins, b1.Record.Outcome)
	assert.Equal(t, rps.Tie, b2.Record.Outcome)

	blocks, err := j.Blocks()
	require.NoError(t, err)
	require.Len(t, blocks, 3)
	assert.Equal(t, b2, blocks[2])
	assert.NoError(t, j.Verify())
}

func TestAppendRecordsCheating(t *testing.T) {
	t.Parallel()

	j, _ := openJournal(t)
	defer j.Close()

	r := rps.NewRound(rps.Classic)
	_, err := r.Commit(rps.PartyA, rps.Rock)
	require.NoError(t, err)
	ob, err := r.Commit(rps.PartyB, rps.Paper)
	require.NoError(t, err)
	require.NoError(t, r.Reveal(rps.PartyA, rps.Reveal{Move: "paper", Secret: string(ob.Secret)}))
	require.NoError(t, r.Reveal(rps.PartyB, rps.Reveal{Move: "paper", Secret: string(ob.Secret)}))
	v, err := r.Settle()
	require.NoError(t, err)

	b, err := j.Append(v)
	require.NoError(t, err)
	assert.Equal(t, rps.CheatDetected, b.Record.Phase)
	assert.Equal(t, []rps.Party{rps.PartyA}, b.Record.Cheaters)
	assert.NoError(t, j.Verify())
}

func TestAppendRejectsUnsettledVerdict(t *testing.T) {
	t.Parallel()

	j, _ := openJournal(t)
	defer j.Close()

	_, err := j.Append(rps.Verdict{Phase: rps.Verifying})
	assert.ErrorIs(t, err, ErrNotSettled)
}

func TestJournalPersists(t *testing.T) {
	t.Parallel()

	j, path := openJournal(t)
	b, err := j.Append(playRound(t, rps.Scissors, rps.Rock))
	require.NoError(t, err)
	require.NoError(t, j.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	latest, err := reopened.Latest()
	require.NoError(t, err)
	assert.Equal(t, b, latest)
	assert.NoError(t, reopened.Verify())
}

func TestVerifyDetectsTampering(t *testing.T) {
	t.Parallel()

	j, _ := openJournal(t)
	defer j.Close()

	_, err := j.Append(playRound(t, rps.Rock, rps.Paper))
	require.NoError(t, err)
	_, err = j.Append(playRound(t, rps.Paper, rps.Rock))
	require.NoError(t, err)
	require.NoError(t, j.Verify())

	// rewrite the first round as a win for A without fixing the hashes
	err = j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(blocksBucket))
		var block Block
		if err := cbor.Unmarshal(b.Get(indexKey(1)), &block); err != nil {
			return err
		}
		block.Record.Outcome = rps.AWins
		return putBlock(b, block)
	})
	require.NoError(t, err)

	err = j.Verify()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "block 1 invalid")
}

func TestValidateBlock(t *testing.T) {
	t.Parallel()

	genesis := Block{PrevHash: "0"}
	genesis.Hash = calculateHash(genesis)

	next := Block{Index: 1, PrevHash: genesis.Hash, Record: Record{RoundID: "r"}}
	next.Hash = calculateHash(next)
	assert.NoError(t, validateBlock(next, genesis))

	skipped := next
	skipped.Index = 2
	assert.ErrorContains(t, validateBlock(skipped, genesis), "invalid index")

	unlinked := next
	unlinked.PrevHash = "deadbeef"
	assert.ErrorContains(t, validateBlock(unlinked, genesis), "invalid prev hash")

	rehashed := next
	rehashed.Record.RoundID = "other"
	assert.ErrorContains(t, validateBlock(rehashed, genesis), "invalid hash")
}
