package types

// SigningKeyPair is an Ed25519 keypair used by the certificate chain.
type SigningKeyPair struct {
	Role    Role           `json:"role"`
	Public  Ed25519Public  `json:"public"`
	Private Ed25519Private `json:"private"`
}

// GroupKeyPair is an edwards25519 keypair (Public = Private·G) used for
// discovery and key agreement.
type GroupKeyPair struct {
	Role    Role   `json:"role"`
	Public  Point  `json:"public"`
	Private Scalar `json:"private"`
}

// Certificate attests Subject under the issuer's signing key.
type Certificate struct {
	Subject   []byte `json:"subject"`
	Issuer    Role   `json:"issuer"`
	Signature []byte `json:"signature"`
}

// JournalistIdentity is everything a journalist holds locally. UID is empty
// until the journalist has registered with a server.
type JournalistIdentity struct {
	Index         int            `json:"index"`
	UID           JournalistUID  `json:"uid,omitempty"`
	Signing       SigningKeyPair `json:"signing"`
	SigningCert   Certificate    `json:"signing_cert"`
	Challenge     GroupKeyPair   `json:"challenge"`
	ChallengeCert Certificate    `json:"challenge_cert"`
}

// Journalist is the public, server-side view of a registered journalist.
type Journalist struct {
	UID          JournalistUID `json:"journalist_uid"`
	SigningKey   Ed25519Public `json:"journalist_key"`
	SigningSig   []byte        `json:"journalist_sig"`
	ChallengeKey Point         `json:"challenge_key"`
	ChallengeSig []byte        `json:"challenge_sig"`
}

// Registration is what a journalist submits to obtain a uid.
type Registration struct {
	SigningKey   Ed25519Public `json:"journalist_key"`
	SigningSig   []byte        `json:"journalist_sig"`
	ChallengeKey Point         `json:"challenge_key"`
	ChallengeSig []byte        `json:"challenge_sig"`
}

// TrustAnchor is the verified root and intermediate public keys.
type TrustAnchor struct {
	Root            Ed25519Public `json:"root_key"`
	Intermediate    Ed25519Public `json:"intermediate_key"`
	IntermediateSig []byte        `json:"intermediate_sig"`
}

// SourceIdentity holds the passphrase-derived keys of a source.
type SourceIdentity struct {
	Challenge  GroupKeyPair
	Encryption GroupKeyPair
}
