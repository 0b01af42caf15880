package consensus

import (
	"go.dedis.ch/kyber/v4"
	"go.dedis.ch/kyber/v4/sign/schnorr"
	"go.dedis.ch/kyber/v4/suites"
	"go.dedis.ch/kyber/v4/util/key"
)

var suite suites.Suite = suites.MustFind("Ed25519")

// Keypair signs the envelopes of one duel.
type Keypair struct {
	Public  kyber.Point
	Private kyber.Scalar
}

func NewKeypair() *Keypair {
	kp := key.NewKeyPair(suite)
	return &Keypair{Public: kp.Public, Private: kp.Private}
}

func (kp *Keypair) sign(msg []byte) ([]byte, error) {
	return schnorr.Sign(suite, kp.Private, msg)
}

func verify(pub kyber.Point, msg, sig []byte) error {
	return schnorr.Verify(suite, pub, msg, sig)
}

// MarshalPublic encodes a public key for a hello message.
func MarshalPublic(pub kyber.Point) ([]byte, error) {
	return pub.MarshalBinary()
}

func UnmarshalPublic(data []byte) (kyber.Point, error) {
	p := suite.Point()
	if err := p.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return p, nil
}
