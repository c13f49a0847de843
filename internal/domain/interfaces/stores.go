package interfaces

import domaintypes "deaddrop/internal/domain/types"

// KeyStore persists chain keypairs, challenge keypairs, certificates and
// registration uids, addressed by role and index.
type KeyStore interface {
	SaveSigningKey(ref domaintypes.KeyRef, kp domaintypes.SigningKeyPair) error
	LoadSigningKey(ref domaintypes.KeyRef) (domaintypes.SigningKeyPair, error)
	// LoadSigningPublic reads only the public half and needs no passphrase.
	LoadSigningPublic(ref domaintypes.KeyRef) (domaintypes.Ed25519Public, error)

	SaveGroupKey(ref domaintypes.KeyRef, kp domaintypes.GroupKeyPair) error
	LoadGroupKey(ref domaintypes.KeyRef) (domaintypes.GroupKeyPair, error)

	SaveCertificate(ref domaintypes.KeyRef, cert domaintypes.Certificate) error
	LoadCertificate(ref domaintypes.KeyRef) (domaintypes.Certificate, error)

	SaveUID(index int, uid domaintypes.JournalistUID) error
	LoadUID(index int) (domaintypes.JournalistUID, bool, error)
}

// EphemeralKeyStore keeps a journalist's one-time private keys on disk.
type EphemeralKeyStore interface {
	SaveEphemeralKeys(index int, records []domaintypes.EphemeralKeyRecord) error
	ListEphemeralKeys(index int) ([]domaintypes.EphemeralKeyRecord, error)
	// ConsumeEphemeralKey removes a key so it can never be used again.
	ConsumeEphemeralKey(index int, id string) (ok bool, err error)
}

// MessageStore holds deposited envelopes on the server.
type MessageStore interface {
	PutMessage(env domaintypes.MessageEnvelope) error
	GetMessage(id domaintypes.MessageID) (domaintypes.MessageEnvelope, error)
	DeleteMessage(id domaintypes.MessageID) error
	ListMessages() ([]domaintypes.MessageEnvelope, error)
}

// JournalistStore holds registered journalists and their published
// one-time keys on the server.
type JournalistStore interface {
	// AddJournalist stores j unless a journalist with the same signing key
	// exists, in which case that journalist is returned and created is
	// false. The check and the insert are atomic.
	AddJournalist(j domaintypes.Journalist) (stored domaintypes.Journalist, created bool, err error)
	GetJournalist(uid domaintypes.JournalistUID) (domaintypes.Journalist, error)
	ListJournalists() ([]domaintypes.Journalist, error)

	// AddEphemeralKeys queues the keys never accepted before for uid and
	// returns how many were added. Repeats, within keys or of any earlier
	// batch, are skipped.
	AddEphemeralKeys(uid domaintypes.JournalistUID, keys []domaintypes.EphemeralKeyPublic) (added int, err error)
	// PopEphemeralKey removes and returns one key; ok is false when the
	// journalist has none left.
	PopEphemeralKey(uid domaintypes.JournalistUID) (key domaintypes.EphemeralKeyPublic, ok bool, err error)
}
