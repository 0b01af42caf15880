package consensus

import (
	"fmt"

	"go.dedis.ch/kyber/v4"
)

// Session is one peer's view of a duel. It is used by a single goroutine.
type Session struct {
	self    int
	roundID string
	keys    *Keypair
	peers   map[int]kyber.Point
	names   map[int]string
}

func NewSession(self int) *Session {
	return &Session{
		self:  self,
		keys:  NewKeypair(),
		peers: map[int]kyber.Point{},
		names: map[int]string{},
	}
}

func (s *Session) Self() int {
	return s.self
}

// RoundID returns the round agreed during the hello step.
func (s *Session) RoundID() string {
	return s.roundID
}

// Name returns the name a peer announced in its hello.
func (s *Session) Name(rank int) string {
	return s.names[rank]
}

// Hello builds the signed greeting carrying this peer's public key.
// roundID is a proposal: the lowest rank's proposal wins.
func (s *Session) Hello(name, roundID string) ([]byte, error) {
	pub, err := MarshalPublic(s.keys.Public)
	if err != nil {
		return nil, err
	}
	s.roundID = roundID
	return s.Seal(KindHello, Hello{Name: name, PublicKey: pub})
}

// AcceptHello registers the opponent's key. The hello must be signed by the
// key it carries.
func (s *Session) AcceptHello(data []byte) (Hello, error) {
	e, err := UnmarshalEnvelope(data)
	if err != nil {
		return Hello{}, err
	}
	if e.Kind != KindHello {
		return Hello{}, fmt.Errorf("%w: expected %s, got %s", ErrUnexpectedKind, KindHello, e.Kind)
	}
	if e.Sender == s.self {
		return Hello{}, fmt.Errorf("%w: rank %d is ourselves", ErrUnknownSender, e.Sender)
	}
	h, err := Open[Hello](e)
	if err != nil {
		return Hello{}, err
	}
	pub, err := UnmarshalPublic(h.PublicKey)
	if err != nil {
		return Hello{}, fmt.Errorf("decoding public key: %w", err)
	}
	ok, err := e.VerifySignature(pub)
	if err != nil {
		return Hello{}, err
	}
	if !ok {
		return Hello{}, fmt.Errorf("%w: hello from rank %d", ErrBadSignature, e.Sender)
	}
	s.peers[e.Sender] = pub
	s.names[e.Sender] = h.Name
	if e.Sender < s.self {
		s.roundID = e.RoundID
	}
	return h, nil
}

// Seal signs payload as a message of the given kind for the current round.
func (s *Session) Seal(kind Kind, payload any) ([]byte, error) {
	e, err := NewEnvelope(s.roundID, s.self, kind, payload)
	if err != nil {
		return nil, err
	}
	if err := e.Sign(s.keys); err != nil {
		return nil, err
	}
	return e.Marshal()
}

// Unseal decodes an envelope from a known peer and checks its kind, round and
// signature.
func (s *Session) Unseal(data []byte, kind Kind) (Envelope, error) {
	e, err := UnmarshalEnvelope(data)
	if err != nil {
		return Envelope{}, err
	}
	pub, ok := s.peers[e.Sender]
	if !ok {
		return Envelope{}, fmt.Errorf("%w: rank %d", ErrUnknownSender, e.Sender)
	}
	if e.Kind != kind {
		return Envelope{}, fmt.Errorf("%w: expected %s, got %s", ErrUnexpectedKind, kind, e.Kind)
	}
	if e.RoundID != s.roundID {
		return Envelope{}, fmt.Errorf("%w: expected %s, got %s", ErrRoundMismatch, s.roundID, e.RoundID)
	}
	valid, err := e.VerifySignature(pub)
	if err != nil {
		return Envelope{}, err
	}
	if !valid {
		return Envelope{}, fmt.Errorf("%w: %s from rank %d", ErrBadSignature, kind, e.Sender)
	}
	return e, nil
}
