package consensus

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/luca-patrignani/mental-rps/domain/rps"
)

// VerdictDigest hashes the parts of a verdict both peers must agree on.
func VerdictDigest(v rps.Verdict) string {
	b, _ := json.Marshal(struct {
		RoundID     string            `json:"round_id"`
		Phase       rps.Phase         `json:"phase"`
		Outcome     rps.Outcome       `json:"outcome"`
		Commitments [2]rps.Commitment `json:"commitments"`
		Cheaters    []rps.Party       `json:"cheaters"`
	}{v.RoundID, v.Phase, v.Outcome, v.Commitments, v.Cheaters})
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Agree returns ErrDisagreement unless both digests are equal.
func Agree(local, remote string) error {
	if local != remote {
		return fmt.Errorf("%w: local %s, remote %s", ErrDisagreement, local, remote)
	}
	return nil
}
