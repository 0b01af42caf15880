package application

import (
	"context"
	"sync"

	"github.com/luca-patrignani/mental-rps/domain/rps"
	"github.com/luca-patrignani/mental-rps/ledger"
)

// table plays the role of the players and of their screen.
// Moves are consumed in order; reveals are honest unless forged or stalled.
type table struct {
	mu        sync.Mutex
	moves     map[rps.Party][]string
	forged    map[rps.Party]rps.Reveal
	stalled   map[rps.Party]bool
	openings  map[rps.Party]rps.Opening
	rejected  []string
	verdicts  []rps.Verdict
	opponents map[rps.Party]string
}

func newTable(moves map[rps.Party][]string) *table {
	return &table{
		moves:     moves,
		forged:    map[rps.Party]rps.Reveal{},
		stalled:   map[rps.Party]bool{},
		openings:  map[rps.Party]rps.Opening{},
		opponents: map[rps.Party]string{},
	}
}

func (t *table) Move(ctx context.Context, p rps.Party, moves []rps.Move) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	queue := t.moves[p]
	if len(queue) == 0 {
		return "", context.Canceled
	}
	t.moves[p] = queue[1:]
	return queue[0], nil
}

func (t *table) Reveal(ctx context.Context, p rps.Party) (rps.Reveal, error) {
	t.mu.Lock()
	stalled := t.stalled[p]
	forged, isForged := t.forged[p]
	opening := t.openings[p]
	t.mu.Unlock()
	if stalled {
		<-ctx.Done()
		return rps.Reveal{}, ctx.Err()
	}
	if isForged {
		return forged, nil
	}
	return rps.Reveal{Move: string(opening.Move), Secret: string(opening.Secret)}, nil
}

func (t *table) Committed(p rps.Party, o rps.Opening) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.openings[p] = o
}

func (t *table) Rejected(p rps.Party, raw string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rejected = append(t.rejected, raw)
}

func (t *table) Verdict(v rps.Verdict) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.verdicts = append(t.verdicts, v)
}

func (t *table) Opponent(p rps.Party, name string, c rps.Commitment) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.opponents[p] = name
}

type memJournal struct {
	verdicts []rps.Verdict
}

func (j *memJournal) Append(v rps.Verdict) (ledger.Block, error) {
	j.verdicts = append(j.verdicts, v)
	return ledger.Block{Index: len(j.verdicts)}, nil
}

// pipe is an in-memory Transport. Each side may run one step ahead.
type pipe struct {
	in  <-chan []byte
	out chan<- []byte
}

func newPipe() (*pipe, *pipe) {
	ab := make(chan []byte, 1)
	ba := make(chan []byte, 1)
	return &pipe{in: ba, out: ab}, &pipe{in: ab, out: ba}
}

func (p *pipe) Exchange(ctx context.Context, data []byte) ([]byte, error) {
	select {
	case p.out <- data:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case recv := <-p.in:
		return recv, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
