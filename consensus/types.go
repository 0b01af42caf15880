package consensus

import (
	"errors"

	"github.com/luca-patrignani/mental-rps/domain/rps"
)

type Kind string

const (
	KindHello   Kind = "hello"
	KindCommit  Kind = "commit"
	KindReveal  Kind = "reveal"
	KindVerdict Kind = "verdict"
)

// Envelope is a signed protocol message.
type Envelope struct {
	RoundID   string `json:"round_id"`
	Sender    int    `json:"sender"`
	Kind      Kind   `json:"kind"`
	Payload   []byte `json:"payload"` // JSON serialized payload
	Timestamp int64  `json:"ts"`
	Signature []byte `json:"sig,omitempty"`
}

type Hello struct {
	Name      string `json:"name"`
	PublicKey []byte `json:"public_key"`
}

type CommitPayload struct {
	Commitment rps.Commitment `json:"commitment"`
}

type RevealPayload struct {
	Reveal rps.Reveal `json:"reveal"`
}

type VerdictPayload struct {
	Digest string `json:"digest"`
}

var (
	ErrMissingSignature = errors.New("missing signature")
	ErrBadSignature     = errors.New("invalid signature")
	ErrUnexpectedKind   = errors.New("unexpected message kind")
	ErrRoundMismatch    = errors.New("message for another round")
	ErrUnknownSender    = errors.New("unknown sender")
	ErrDisagreement     = errors.New("peers disagree on the verdict")
)
