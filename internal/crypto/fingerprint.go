package crypto

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Fingerprint returns a short hex fingerprint of a public key.
//
// It hashes with BLAKE3 and truncates to 10 bytes (20 hex chars).
func Fingerprint(pub []byte) string {
	sum := blake3.Sum256(pub)
	return hex.EncodeToString(sum[:10])
}
