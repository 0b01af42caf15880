package rps

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// SecretSize is the number of random bytes behind every generated secret.
const SecretSize = 16

// CommitmentLength is the length of a hex-encoded SHA-256 digest.
const CommitmentLength = 2 * sha256.Size

// Secret is the lowercase hex encoding of the random bytes that hide a move.
type Secret string

// Commitment is hex(sha256(move || secret)).
type Commitment string

// GenerateSecret reads SecretSize bytes from the operating system's secure
// random source.
func GenerateSecret() (Secret, error) {
	return GenerateSecretFrom(rand.Reader, SecretSize)
}

// GenerateSecretFrom reads size bytes from r and hex-encodes them.
func GenerateSecretFrom(r io.Reader, size int) (Secret, error) {
	if size < SecretSize {
		return "", fmt.Errorf("%w: %d bytes, need at least %d", ErrWeakSecret, size, SecretSize)
	}
	b := make([]byte, size)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return Secret(hex.EncodeToString(b)), nil
}

// Validate checks that s looks like a generated secret: lowercase hex of at
// least SecretSize bytes. Check does not require it.
func (s Secret) Validate() error {
	if len(s)%2 != 0 || len(s) < 2*SecretSize {
		return fmt.Errorf("%w: secret must be at least %d hex characters", ErrMalformedReveal, 2*SecretSize)
	}
	if !isLowerHex(string(s)) {
		return fmt.Errorf("%w: secret is not lowercase hex", ErrMalformedReveal)
	}
	return nil
}

// Commit binds m to s. The digest covers the bytes of the move immediately
// followed by the bytes of the secret's hex string.
func Commit(m Move, s Secret) Commitment {
	sum := sha256.Sum256([]byte(string(m) + string(s)))
	return Commitment(hex.EncodeToString(sum[:]))
}

// Check recomputes the commitment for (m, s) and compares it with c.
// Whatever Commit produced for (m, s) always opens. A failed opening is
// reported as ErrMalformedReveal when s is not a hex encoding and as
// ErrCommitmentMismatch otherwise; ErrMalformedCommitment means c could never
// have come from Commit.
func Check(m Move, s Secret, c Commitment) error {
	if err := c.Validate(); err != nil {
		return err
	}
	expected := Commit(m, s)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(c)) == 1 {
		return nil
	}
	if len(s)%2 != 0 || !isLowerHex(string(s)) {
		return fmt.Errorf("%w: secret is not lowercase hex", ErrMalformedReveal)
	}
	return ErrCommitmentMismatch
}

// Verify reports whether (m, s) opens c.
func Verify(m Move, s Secret, c Commitment) bool {
	return Check(m, s, c) == nil
}

// ParseCommitment accepts a commitment relayed through an untrusted channel.
func ParseCommitment(raw string) (Commitment, error) {
	c := Commitment(strings.TrimSpace(raw))
	if err := c.Validate(); err != nil {
		return "", err
	}
	return c, nil
}

func (c Commitment) Validate() error {
	if len(c) != CommitmentLength {
		return fmt.Errorf("%w: expected %d characters, got %d", ErrMalformedCommitment, CommitmentLength, len(c))
	}
	if !isLowerHex(string(c)) {
		return fmt.Errorf("%w: not lowercase hex", ErrMalformedCommitment)
	}
	return nil
}

func isLowerHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
