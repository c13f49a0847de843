package crypto

import (
	"crypto/rand"
	"testing"

	"filippo.io/edwards25519"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deaddrop/internal/domain"
)

func TestBlinding_Commutes(t *testing.T) {
	k, err := GenerateGroupKey(domain.RoleChallenge)
	require.NoError(t, err)
	m, err := GenerateGroupKey(domain.RoleMessage)
	require.NoError(t, err)
	s, err := RandomScalar(rand.Reader)
	require.NoError(t, err)

	// s⁻¹·k⁻¹·s·(m·C) == m·G
	challenge, err := ScalarMult(m.Private, k.Public)
	require.NoError(t, err)
	blinded, err := ScalarMult(s, challenge)
	require.NoError(t, err)
	resp, err := InvScalarMultAll(k.Private, []domain.Point{blinded})
	require.NoError(t, err)
	unblinded, err := InvScalarMultAll(s, resp)
	require.NoError(t, err)
	assert.Equal(t, m.Public, unblinded[0])
}

func TestDH_Agrees(t *testing.T) {
	a, err := GenerateGroupKey(domain.RoleMessage)
	require.NoError(t, err)
	b, err := GenerateGroupKey(domain.RoleEphemeral)
	require.NoError(t, err)
	ab, err := DH(a.Private, b.Public)
	require.NoError(t, err)
	ba, err := DH(b.Private, a.Public)
	require.NoError(t, err)
	assert.Equal(t, ab, ba)
}

func TestInvertScalar(t *testing.T) {
	k, err := GenerateGroupKey(domain.RoleChallenge)
	require.NoError(t, err)
	inv, err := InvertScalar(k.Private)
	require.NoError(t, err)
	p, err := ScalarMult(inv, k.Public)
	require.NoError(t, err)
	g, err := ScalarBaseMult(domain.Scalar{1})
	require.NoError(t, err)
	assert.Equal(t, g, p)
}

func TestValidatePoint_Rejects(t *testing.T) {
	var identity domain.Point
	identity[0] = 1
	assert.ErrorIs(t, ValidatePoint(identity), ErrInvalidPoint, "identity")

	// y = 0 is a point of order 4.
	assert.ErrorIs(t, ValidatePoint(domain.Point{}), ErrInvalidPoint, "small order")

	// y = p (non-canonical encoding of y = 0).
	nonCanonical := domain.Point{0xed}
	for i := 1; i < 31; i++ {
		nonCanonical[i] = 0xff
	}
	nonCanonical[31] = 0x7f
	assert.ErrorIs(t, ValidatePoint(nonCanonical), ErrInvalidPoint, "non-canonical")

	k, err := GenerateGroupKey(domain.RoleChallenge)
	require.NoError(t, err)
	assert.NoError(t, ValidatePoint(k.Public))

	// Adding a torsion component must be caught.
	p, err := parsePoint(k.Public)
	require.NoError(t, err)
	t4, err := edwards25519.NewIdentityPoint().SetBytes(make([]byte, 32))
	require.NoError(t, err)
	mixed := encodePoint(edwards25519.NewIdentityPoint().Add(p, t4))
	assert.ErrorIs(t, ValidatePoint(mixed), ErrInvalidPoint, "torsion")
}

func TestScalars_RejectZero(t *testing.T) {
	_, err := ScalarBaseMult(domain.Scalar{})
	assert.ErrorIs(t, err, ErrInvalidScalar)
	_, err = ScalarFromUniform(make([]byte, 64))
	assert.ErrorIs(t, err, ErrInvalidScalar)
}

func TestDeriveSourceIdentity_Deterministic(t *testing.T) {
	a, err := DeriveSourceIdentity("correct horse battery staple")
	require.NoError(t, err)
	b, err := DeriveSourceIdentity("correct horse battery staple")
	require.NoError(t, err)
	c, err := DeriveSourceIdentity("another passphrase entirely")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a.Challenge.Public, c.Challenge.Public)
	assert.NotEqual(t, a.Challenge.Public, a.Encryption.Public)
}

func TestFingerprint(t *testing.T) {
	fp := Fingerprint([]byte("key"))
	assert.Len(t, fp, 20)
	assert.Equal(t, fp, Fingerprint([]byte("key")))
}
