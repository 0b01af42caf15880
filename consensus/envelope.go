package consensus

import (
	"encoding/json"
	"fmt"
	"time"

	"go.dedis.ch/kyber/v4"
)

// NewEnvelope serializes payload into an unsigned envelope.
func NewEnvelope(roundID string, sender int, kind Kind, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encoding %s payload: %w", kind, err)
	}
	return Envelope{
		RoundID: roundID,
		Sender:  sender,
		Kind:    kind,
		Payload: b,
	}, nil
}

// serialize returns the JSON form of the envelope with the Signature field
// cleared, i.e. the signed bytes.
func (e *Envelope) serialize() ([]byte, error) {
	tmp := *e
	tmp.Signature = nil
	return json.Marshal(tmp)
}

// Sign stamps the envelope with the current time and signs it with kp.
func (e *Envelope) Sign(kp *Keypair) error {
	e.Timestamp = time.Now().UnixNano()
	b, err := e.serialize()
	if err != nil {
		return err
	}
	sig, err := kp.sign(b)
	if err != nil {
		return err
	}
	e.Signature = sig
	return nil
}

// VerifySignature checks the envelope's signature against pub.
// Returns false if verification fails or an error if the signature is
// missing or serialization fails.
func (e *Envelope) VerifySignature(pub kyber.Point) (bool, error) {
	if len(e.Signature) == 0 {
		return false, ErrMissingSignature
	}
	b, err := e.serialize()
	if err != nil {
		return false, err
	}
	return verify(pub, b, e.Signature) == nil, nil
}

func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

func UnmarshalEnvelope(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("decoding envelope: %w", err)
	}
	return e, nil
}

// Open decodes the payload of e into a T.
func Open[T any](e Envelope) (T, error) {
	var v T
	if err := json.Unmarshal(e.Payload, &v); err != nil {
		return v, fmt.Errorf("decoding %s payload: %w", e.Kind, err)
	}
	return v, nil
}
