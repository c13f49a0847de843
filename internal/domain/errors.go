package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrChainVerification is returned when any link of the
	// root -> intermediate -> journalist chain fails to verify. Callers must
	// not continue with the chain.
	ErrChainVerification = errors.New("certificate chain verification failed")

	// ErrSignatureInvalid rejects a single item (ephemeral key, challenge
	// key) whose signature does not verify.
	ErrSignatureInvalid = errors.New("signature invalid")

	// ErrDecryptionFailure is the expected outcome of trying the wrong key.
	ErrDecryptionFailure = errors.New("decryption failed")

	// ErrNoMatchingKey means every unconsumed one-time key was tried and
	// none opened the message.
	ErrNoMatchingKey = errors.New("message could not be decrypted")

	// ErrSessionExpiredOrUnknown means the discovery session is gone; start
	// a new round.
	ErrSessionExpiredOrUnknown = errors.New("discovery session expired or unknown")

	// ErrSessionReplay is returned when a session is redeemed twice.
	ErrSessionReplay = fmt.Errorf("%w: already redeemed", ErrSessionExpiredOrUnknown)

	ErrMalformed       = errors.New("malformed input")
	ErrNotFound        = errors.New("not found")
	ErrMessageTooLarge = errors.New("message too large for envelope")
)
