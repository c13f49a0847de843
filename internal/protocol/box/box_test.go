package box_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deaddrop/internal/crypto"
	"deaddrop/internal/domain"
	"deaddrop/internal/protocol/box"
)

func keys(t *testing.T) (challenge, encryption domain.GroupKeyPair) {
	t.Helper()
	var err error
	challenge, err = crypto.GenerateGroupKey(domain.RoleChallenge)
	require.NoError(t, err)
	encryption, err = crypto.GenerateGroupKey(domain.RoleEphemeral)
	require.NoError(t, err)
	return challenge, encryption
}

func TestSealOpen_RoundTrip(t *testing.T) {
	chal, enc := keys(t)
	msg := domain.Message{Kind: domain.KindSubmission, Text: "hello, journalist", Timestamp: 42}

	env, err := box.Seal(chal.Public, enc.Public, msg)
	require.NoError(t, err)
	assert.Len(t, env.Ciphertext, box.CiphertextSize)
	assert.Empty(t, env.ID)

	got, err := box.OpenEnvelope(enc, env)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}

func TestSeal_ChallengeCommitsToRecipient(t *testing.T) {
	chal, enc := keys(t)
	env, err := box.Seal(chal.Public, enc.Public, domain.Message{Text: "x"})
	require.NoError(t, err)

	// challenge = m·C = k·(m·G)
	want, err := crypto.ScalarMult(chal.Private, env.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, want, env.Challenge)
}

func TestSeal_FreshPerMessageKey(t *testing.T) {
	chal, enc := keys(t)
	a, err := box.Seal(chal.Public, enc.Public, domain.Message{Text: "same"})
	require.NoError(t, err)
	b, err := box.Seal(chal.Public, enc.Public, domain.Message{Text: "same"})
	require.NoError(t, err)
	assert.NotEqual(t, a.PublicKey, b.PublicKey)
	assert.NotEqual(t, a.Challenge, b.Challenge)
	assert.NotEqual(t, a.Ciphertext, b.Ciphertext)
}

func TestOpen_WrongKey(t *testing.T) {
	chal, enc := keys(t)
	_, other := keys(t)
	env, err := box.Seal(chal.Public, enc.Public, domain.Message{Text: "secret"})
	require.NoError(t, err)

	_, err = box.OpenEnvelope(other, env)
	assert.ErrorIs(t, err, domain.ErrDecryptionFailure)
}

func TestOpen_Tampered(t *testing.T) {
	chal, enc := keys(t)
	env, err := box.Seal(chal.Public, enc.Public, domain.Message{Text: "secret"})
	require.NoError(t, err)

	ct := append([]byte(nil), env.Ciphertext...)
	ct[len(ct)-1] ^= 1
	_, err = box.Open(enc, env.PublicKey, ct)
	assert.ErrorIs(t, err, domain.ErrDecryptionFailure)

	_, err = box.Open(enc, env.PublicKey, env.Ciphertext[:10])
	assert.ErrorIs(t, err, domain.ErrDecryptionFailure)

	_, err = box.Open(enc, domain.Point{}, env.Ciphertext)
	assert.ErrorIs(t, err, domain.ErrDecryptionFailure)
}

func TestSeal_RejectsInvalidRecipientKeys(t *testing.T) {
	chal, enc := keys(t)
	_, err := box.Seal(domain.Point{}, enc.Public, domain.Message{})
	assert.ErrorIs(t, err, crypto.ErrInvalidPoint)
	_, err = box.Seal(chal.Public, domain.Point{0xff}, domain.Message{})
	assert.Error(t, err)
}
