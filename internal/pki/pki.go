package pki

import (
	"bytes"
	"errors"
	"fmt"

	"deaddrop/internal/crypto"
	"deaddrop/internal/domain"
)

// Chain is a provisioned or reloaded certificate chain. Root and
// Intermediate carry only their public halves once reloaded.
type Chain struct {
	Anchor      domain.TrustAnchor
	Journalists []domain.JournalistIdentity
}

var (
	rootRef         = domain.KeyRef{Role: domain.RoleRoot}
	intermediateRef = domain.KeyRef{Role: domain.RoleIntermediate}
)

func journalistRef(i int) domain.KeyRef { return domain.KeyRef{Role: domain.RoleJournalist, Index: i} }
func challengeRef(i int) domain.KeyRef  { return domain.KeyRef{Role: domain.RoleChallenge, Index: i} }

// Issue signs subject with signer.
func Issue(signer domain.SigningKeyPair, subject []byte) domain.Certificate {
	return domain.Certificate{
		Subject:   append([]byte(nil), subject...),
		Issuer:    signer.Role,
		Signature: crypto.SignEd25519(signer.Private, subject),
	}
}

// Verify reports whether sig is signerPub's signature over subject.
func Verify(signerPub domain.Ed25519Public, subject, sig []byte) bool {
	return crypto.VerifyEd25519(signerPub, subject, sig)
}

// VerifyCertificate checks that cert certifies exactly subject under
// issuerPub.
func VerifyCertificate(issuerPub domain.Ed25519Public, subject []byte, cert domain.Certificate) error {
	if !bytes.Equal(cert.Subject, subject) {
		return errors.New("certificate subject does not match key")
	}
	if !Verify(issuerPub, subject, cert.Signature) {
		return domain.ErrSignatureInvalid
	}
	return nil
}

// GenerateRoot creates and persists a new root signing key.
func GenerateRoot(ks domain.KeyStore) (domain.SigningKeyPair, error) {
	root, err := crypto.GenerateEd25519(domain.RoleRoot)
	if err != nil {
		return domain.SigningKeyPair{}, err
	}
	if err := ks.SaveSigningKey(rootRef, root); err != nil {
		return domain.SigningKeyPair{}, fmt.Errorf("save root: %w", err)
	}
	return root, nil
}

// BuildChain generates an intermediate signed by root and n journalists signed
// by the intermediate, each with a challenge key signed by its own signing
// key. Everything is persisted before the chain is returned.
func BuildChain(ks domain.KeyStore, root domain.SigningKeyPair, n int) (Chain, error) {
	if n < 0 {
		return Chain{}, fmt.Errorf("%w: negative journalist count", domain.ErrMalformed)
	}
	inter, err := crypto.GenerateEd25519(domain.RoleIntermediate)
	if err != nil {
		return Chain{}, err
	}
	interCert := Issue(root, inter.Public[:])
	if err := ks.SaveSigningKey(intermediateRef, inter); err != nil {
		return Chain{}, fmt.Errorf("save intermediate: %w", err)
	}
	if err := ks.SaveCertificate(intermediateRef, interCert); err != nil {
		return Chain{}, fmt.Errorf("save intermediate: %w", err)
	}

	chain := Chain{
		Anchor: domain.TrustAnchor{
			Root:            root.Public,
			Intermediate:    inter.Public,
			IntermediateSig: interCert.Signature,
		},
		Journalists: make([]domain.JournalistIdentity, 0, n),
	}
	for i := range n {
		id, err := newJournalist(ks, inter, i)
		if err != nil {
			return Chain{}, err
		}
		chain.Journalists = append(chain.Journalists, id)
	}
	return chain, nil
}

func newJournalist(ks domain.KeyStore, inter domain.SigningKeyPair, i int) (domain.JournalistIdentity, error) {
	signing, err := crypto.GenerateEd25519(domain.RoleJournalist)
	if err != nil {
		return domain.JournalistIdentity{}, err
	}
	challenge, err := crypto.GenerateGroupKey(domain.RoleChallenge)
	if err != nil {
		return domain.JournalistIdentity{}, err
	}
	id := domain.JournalistIdentity{
		Index:         i,
		Signing:       signing,
		SigningCert:   Issue(inter, signing.Public[:]),
		Challenge:     challenge,
		ChallengeCert: Issue(signing, challenge.Public[:]),
	}

	jref, cref := journalistRef(i), challengeRef(i)
	if err := ks.SaveSigningKey(jref, signing); err != nil {
		return domain.JournalistIdentity{}, fmt.Errorf("save %s: %w", jref, err)
	}
	if err := ks.SaveCertificate(jref, id.SigningCert); err != nil {
		return domain.JournalistIdentity{}, fmt.Errorf("save %s: %w", jref, err)
	}
	if err := ks.SaveGroupKey(cref, challenge); err != nil {
		return domain.JournalistIdentity{}, fmt.Errorf("save %s: %w", cref, err)
	}
	if err := ks.SaveCertificate(cref, id.ChallengeCert); err != nil {
		return domain.JournalistIdentity{}, fmt.Errorf("save %s: %w", cref, err)
	}
	return id, nil
}

// LoadTrustAnchor reloads the root and intermediate public keys and checks
// the intermediate certificate.
func LoadTrustAnchor(ks domain.KeyStore) (domain.TrustAnchor, error) {
	rootPub, err := ks.LoadSigningPublic(rootRef)
	if err != nil {
		return domain.TrustAnchor{}, chainErr(rootRef, err)
	}
	interPub, err := ks.LoadSigningPublic(intermediateRef)
	if err != nil {
		return domain.TrustAnchor{}, chainErr(intermediateRef, err)
	}
	cert, err := ks.LoadCertificate(intermediateRef)
	if err != nil {
		return domain.TrustAnchor{}, chainErr(intermediateRef, err)
	}
	a := domain.TrustAnchor{Root: rootPub, Intermediate: interPub, IntermediateSig: cert.Signature}
	if err := VerifyCertificate(rootPub, interPub[:], cert); err != nil {
		return domain.TrustAnchor{}, chainErr(intermediateRef, err)
	}
	return a, nil
}

// VerifyAnchor checks the intermediate signature of a received anchor
// against a pinned root key.
func VerifyAnchor(root domain.Ed25519Public, a domain.TrustAnchor) error {
	if a.Root != root {
		return fmt.Errorf("%w: unexpected root key %s", domain.ErrChainVerification, crypto.Fingerprint(a.Root[:]))
	}
	if !Verify(root, a.Intermediate[:], a.IntermediateSig) {
		return chainErr(intermediateRef, domain.ErrSignatureInvalid)
	}
	return nil
}

// LoadJournalist reloads journalist i and verifies both of its certificates
// against the anchor.
func LoadJournalist(ks domain.KeyStore, a domain.TrustAnchor, i int) (domain.JournalistIdentity, error) {
	jref, cref := journalistRef(i), challengeRef(i)

	signing, err := ks.LoadSigningKey(jref)
	if err != nil {
		return domain.JournalistIdentity{}, chainErr(jref, err)
	}
	signingCert, err := ks.LoadCertificate(jref)
	if err != nil {
		return domain.JournalistIdentity{}, chainErr(jref, err)
	}
	if err := VerifyCertificate(a.Intermediate, signing.Public[:], signingCert); err != nil {
		return domain.JournalistIdentity{}, chainErr(jref, err)
	}

	challenge, err := ks.LoadGroupKey(cref)
	if err != nil {
		return domain.JournalistIdentity{}, chainErr(cref, err)
	}
	challengeCert, err := ks.LoadCertificate(cref)
	if err != nil {
		return domain.JournalistIdentity{}, chainErr(cref, err)
	}
	if err := VerifyCertificate(signing.Public, challenge.Public[:], challengeCert); err != nil {
		return domain.JournalistIdentity{}, chainErr(cref, err)
	}

	uid, _, err := ks.LoadUID(i)
	if err != nil {
		return domain.JournalistIdentity{}, err
	}
	return domain.JournalistIdentity{
		Index:         i,
		UID:           uid,
		Signing:       signing,
		SigningCert:   signingCert,
		Challenge:     challenge,
		ChallengeCert: challengeCert,
	}, nil
}

// LoadAndVerifyChain reloads the anchor and n journalists, verifying every
// link.
func LoadAndVerifyChain(ks domain.KeyStore, n int) (Chain, error) {
	a, err := LoadTrustAnchor(ks)
	if err != nil {
		return Chain{}, err
	}
	chain := Chain{Anchor: a, Journalists: make([]domain.JournalistIdentity, 0, n)}
	for i := range n {
		id, err := LoadJournalist(ks, a, i)
		if err != nil {
			return Chain{}, err
		}
		chain.Journalists = append(chain.Journalists, id)
	}
	return chain, nil
}

// VerifyJournalist checks a journalist as published by a server: the signing
// key must be certified by the anchor's intermediate and the challenge key
// by the signing key.
func VerifyJournalist(a domain.TrustAnchor, signingKey domain.Ed25519Public, signingSig []byte, challengeKey domain.Point, challengeSig []byte) error {
	if !Verify(a.Intermediate, signingKey[:], signingSig) {
		return fmt.Errorf("%w: journalist %s: %w", domain.ErrChainVerification, crypto.Fingerprint(signingKey[:]), domain.ErrSignatureInvalid)
	}
	if !Verify(signingKey, challengeKey[:], challengeSig) {
		return fmt.Errorf("%w: challenge key of %s: %w", domain.ErrChainVerification, crypto.Fingerprint(signingKey[:]), domain.ErrSignatureInvalid)
	}
	if err := crypto.ValidatePoint(challengeKey); err != nil {
		return fmt.Errorf("%w: challenge key of %s: %w", domain.ErrChainVerification, crypto.Fingerprint(signingKey[:]), err)
	}
	return nil
}

// VerifyRegistration is VerifyJournalist applied to a registration request.
func VerifyRegistration(a domain.TrustAnchor, r domain.Registration) error {
	return VerifyJournalist(a, r.SigningKey, r.SigningSig, r.ChallengeKey, r.ChallengeSig)
}

// VerifyPublished is VerifyJournalist applied to a listed journalist.
func VerifyPublished(a domain.TrustAnchor, j domain.Journalist) error {
	return VerifyJournalist(a, j.SigningKey, j.SigningSig, j.ChallengeKey, j.ChallengeSig)
}

func chainErr(ref domain.KeyRef, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrChainVerification, ref, err)
}
