package crypto

import (
	"golang.org/x/crypto/argon2"

	"deaddrop/internal/domain"
	"deaddrop/internal/util/memzero"
)

// Argon2id parameters for source key derivation. The salt is fixed so the
// same passphrase always yields the same keys on any device.
const (
	sourceKDFTime    = 3
	sourceKDFMemory  = 64 * 1024
	sourceKDFThreads = 4
)

var sourceKDFSalt = []byte("deaddrop/source-identity/v1")

// DeriveSourceIdentity derives a source's challenge and encryption keypairs
// from its passphrase.
func DeriveSourceIdentity(passphrase string) (domain.SourceIdentity, error) {
	seed := argon2.IDKey([]byte(passphrase), sourceKDFSalt, sourceKDFTime, sourceKDFMemory, sourceKDFThreads, 128)
	defer memzero.Zero(seed)

	chalScalar, err := ScalarFromUniform(seed[:64])
	if err != nil {
		return domain.SourceIdentity{}, err
	}
	encScalar, err := ScalarFromUniform(seed[64:])
	if err != nil {
		return domain.SourceIdentity{}, err
	}
	defer memzero.All(chalScalar[:], encScalar[:])

	chal, err := GroupKeyFromScalar(domain.RoleChallenge, chalScalar)
	if err != nil {
		return domain.SourceIdentity{}, err
	}
	enc, err := GroupKeyFromScalar(domain.RoleSource, encScalar)
	if err != nil {
		return domain.SourceIdentity{}, err
	}
	return domain.SourceIdentity{Challenge: chal, Encryption: enc}, nil
}
