package types

// MessageKind tags the shape of a decrypted message.
type MessageKind uint8

const (
	KindSubmission MessageKind = 1 // source to journalist
	KindReply      MessageKind = 2 // journalist to source
)

// Attachment is metadata about an out-of-band attachment.
type Attachment struct {
	Name       string `cbor:"1,keyasint" json:"name"`
	Size       uint64 `cbor:"2,keyasint" json:"size"`
	PartsCount uint32 `cbor:"3,keyasint" json:"parts_count"`
}

// Message is the plaintext carried inside a sealed envelope.
//
// ReplyChallengeKey and ReplyEncryptionKey are set by sources so that a
// journalist can address a reply; they are zero in replies.
type Message struct {
	Kind               MessageKind  `cbor:"1,keyasint" json:"kind"`
	Text               string       `cbor:"2,keyasint" json:"message"`
	Sender             string       `cbor:"3,keyasint,omitempty" json:"sender,omitempty"`
	GroupMembers       []string     `cbor:"4,keyasint,omitempty" json:"group_members,omitempty"`
	Timestamp          int64        `cbor:"5,keyasint" json:"timestamp"`
	Attachments        []Attachment `cbor:"6,keyasint,omitempty" json:"attachments,omitempty"`
	ReplyChallengeKey  Point        `cbor:"7,keyasint" json:"source_challenge_public_key"`
	ReplyEncryptionKey Point        `cbor:"8,keyasint" json:"source_encryption_public_key"`
}

// MessageEnvelope is a deposited message as held by the server.
type MessageEnvelope struct {
	ID         MessageID `json:"message_id,omitempty"`
	Ciphertext []byte    `json:"message_ciphertext"`
	PublicKey  Point     `json:"message_public_key"`
	Challenge  Point     `json:"message_challenge"`
}

// EphemeralKeyPublic is a signed one-time key as published to the server.
type EphemeralKeyPublic struct {
	Public    Point  `json:"ephemeral_key"`
	Signature []byte `json:"ephemeral_sig"`
}

// EphemeralKeyBatch is an upload of signed one-time keys for a journalist.
type EphemeralKeyBatch struct {
	JournalistUID JournalistUID        `json:"journalist_uid"`
	Keys          []EphemeralKeyPublic `json:"ephemeral_keys"`
}

// JournalistEphemeralKey pairs a journalist with one of its one-time keys,
// as handed out to a source.
type JournalistEphemeralKey struct {
	Journalist Journalist         `json:"journalist"`
	Key        EphemeralKeyPublic `json:"ephemeral_key"`
}

// EphemeralKeyRecord is a locally held one-time key. Consumed records must
// not be tried again.
type EphemeralKeyRecord struct {
	ID        string `json:"id"`
	Public    Point  `json:"public"`
	Private   Scalar `json:"private"`
	Signature []byte `json:"signature"`
	Consumed  bool   `json:"consumed"`
}

// PublishResult reports which keys of a batch were stored.
type PublishResult struct {
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}
