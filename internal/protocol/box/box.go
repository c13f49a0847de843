package box

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"deaddrop/internal/crypto"
	"deaddrop/internal/domain"
	"deaddrop/internal/protocol/envelope"
	"deaddrop/internal/util/memzero"
)

var kdfInfo = []byte("deaddrop/message-key/v1")

// CiphertextSize is the length of every sealed message.
const CiphertextSize = chacha20poly1305.NonceSizeX + envelope.Size + chacha20poly1305.Overhead

// Seal encrypts msg for the holder of the private half of encryptionPub and
// commits it to challengePub. The returned envelope has no id yet.
func Seal(challengePub, encryptionPub domain.Point, msg domain.Message) (domain.MessageEnvelope, error) {
	frame, err := envelope.Encode(msg)
	if err != nil {
		return domain.MessageEnvelope{}, err
	}
	defer memzero.Zero(frame)

	m, err := crypto.RandomScalar(rand.Reader)
	if err != nil {
		return domain.MessageEnvelope{}, err
	}
	defer memzero.Zero(m[:])

	pub, err := crypto.ScalarBaseMult(m)
	if err != nil {
		return domain.MessageEnvelope{}, err
	}
	challenge, err := crypto.ScalarMult(m, challengePub)
	if err != nil {
		return domain.MessageEnvelope{}, fmt.Errorf("recipient challenge key: %w", err)
	}
	shared, err := crypto.DH(m, encryptionPub)
	if err != nil {
		return domain.MessageEnvelope{}, fmt.Errorf("recipient encryption key: %w", err)
	}
	defer memzero.Zero(shared[:])

	aead, err := newAEAD(shared, pub, encryptionPub)
	if err != nil {
		return domain.MessageEnvelope{}, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX, CiphertextSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return domain.MessageEnvelope{}, err
	}
	ct := aead.Seal(nonce, nonce, frame, pub[:])

	return domain.MessageEnvelope{
		Ciphertext: ct,
		PublicKey:  pub,
		Challenge:  challenge,
	}, nil
}

// Open decrypts ciphertext with the recipient's encryption keypair. Any
// failure, including a wrong key, is domain.ErrDecryptionFailure.
func Open(recipient domain.GroupKeyPair, messagePub domain.Point, ciphertext []byte) (domain.Message, error) {
	if len(ciphertext) != CiphertextSize {
		return domain.Message{}, fmt.Errorf("%w: ciphertext is %d bytes", domain.ErrDecryptionFailure, len(ciphertext))
	}
	shared, err := crypto.DH(recipient.Private, messagePub)
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", domain.ErrDecryptionFailure, err)
	}
	defer memzero.Zero(shared[:])
	aead, err := newAEAD(shared, messagePub, recipient.Public)
	if err != nil {
		return domain.Message{}, err
	}
	nonce, body := ciphertext[:chacha20poly1305.NonceSizeX], ciphertext[chacha20poly1305.NonceSizeX:]
	frame, err := aead.Open(nil, nonce, body, messagePub[:])
	if err != nil {
		return domain.Message{}, domain.ErrDecryptionFailure
	}
	defer memzero.Zero(frame)

	msg, err := envelope.Decode(frame)
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", domain.ErrDecryptionFailure, err)
	}
	return msg, nil
}

// OpenEnvelope is Open applied to a stored envelope.
func OpenEnvelope(recipient domain.GroupKeyPair, env domain.MessageEnvelope) (domain.Message, error) {
	return Open(recipient, env.PublicKey, env.Ciphertext)
}

func newAEAD(shared [32]byte, messagePub, encryptionPub domain.Point) (cipher.AEAD, error) {
	defer memzero.Zero(shared[:])

	salt := make([]byte, 0, 64)
	salt = append(salt, messagePub[:]...)
	salt = append(salt, encryptionPub[:]...)

	key := make([]byte, chacha20poly1305.KeySize)
	defer memzero.Zero(key)
	if _, err := io.ReadFull(hkdf.New(sha256.New, shared[:], salt, kdfInfo), key); err != nil {
		return nil, err
	}
	return chacha20poly1305.NewX(key)
}
