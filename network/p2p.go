package network

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotTwoParty = errors.New("exchange requires exactly two peers")

// P2P adapts a Peer to the two-party transport used by a duel.
type P2P struct {
	peer *Peer
}

func NewP2P(peer *Peer) *P2P {
	return &P2P{peer: peer}
}

// Exchange sends data to the other party and returns what it sent in the
// same step. Neither side learns the other's payload before handing over
// its own.
func (p *P2P) Exchange(ctx context.Context, data []byte) ([]byte, error) {
	if len(p.peer.Addresses) != 2 {
		return nil, fmt.Errorf("%w: have %d", ErrNotTwoParty, len(p.peer.Addresses))
	}
	recv, err := p.peer.AllToAll(ctx, data)
	if err != nil {
		return nil, err
	}
	for _, r := range p.peer.OrderedRanks() {
		if r != p.peer.Rank {
			return recv[r], nil
		}
	}
	return nil, ErrNotTwoParty
}

// Broadcast sends data from root to every peer.
func (p *P2P) Broadcast(ctx context.Context, data []byte, root int) ([]byte, error) {
	return p.peer.Broadcast(ctx, data, root)
}

// AllToAll sends data from every peer to every peer.
func (p *P2P) AllToAll(ctx context.Context, data []byte) ([][]byte, error) {
	return p.peer.AllToAll(ctx, data)
}

func (p *P2P) GetRank() int {
	return p.peer.Rank
}

func (p *P2P) GetPeerCount() int {
	return len(p.peer.Addresses)
}

func (p *P2P) GetAddresses() map[int]string {
	return copyMap(p.peer.Addresses)
}

func (p *P2P) Close() error {
	return p.peer.Close()
}
