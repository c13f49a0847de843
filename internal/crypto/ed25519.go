package crypto

import (
	"crypto/ed25519"
	"crypto/rand"

	"deaddrop/internal/domain"
)

// GenerateEd25519 returns a new Ed25519 signing key pair for role.
func GenerateEd25519(role domain.Role) (domain.SigningKeyPair, error) {
	pk, sk, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return domain.SigningKeyPair{}, err
	}
	kp := domain.SigningKeyPair{Role: role}
	copy(kp.Private[:], sk)
	copy(kp.Public[:], pk)
	return kp, nil
}

// SignEd25519 signs msg with priv and returns the signature. Ed25519
// signatures are deterministic.
func SignEd25519(priv domain.Ed25519Private, msg []byte) []byte {
	return ed25519.Sign(ed25519.PrivateKey(priv[:]), msg)
}

// VerifyEd25519 verifies sig over msg with pub. Malformed signatures simply
// fail to verify.
func VerifyEd25519(pub domain.Ed25519Public, msg, sig []byte) bool {
	if len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub[:]), msg, sig)
}
