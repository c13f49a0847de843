// Package crypto exposes the minimal primitives used by deaddrop.
//
// Contents
//
//   - Ed25519 key generation, signing and verification for the certificate
//     chain (GenerateEd25519, SignEd25519, VerifyEd25519)
//   - edwards25519 group arithmetic for discovery and key agreement
//     (GenerateGroupKey, RandomScalar, ScalarMultAll, InvScalarMultAll, DH,
//     ValidatePoint)
//   - Passphrase-derived source keys (DeriveSourceIdentity)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//
// # Notes
//
// Group elements cross the wire as 32-byte encodings (domain.Point). Every
// function that accepts one validates it: non-canonical encodings, the
// identity and points with a small-order component are rejected with
// ErrInvalidPoint, so commutativity of the blinding holds for every value
// that is accepted.
package crypto
