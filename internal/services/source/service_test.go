package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deaddrop/internal/crypto"
	"deaddrop/internal/domain"
	"deaddrop/internal/log"
	"deaddrop/internal/pki"
	"deaddrop/internal/protocol/discovery"
	"deaddrop/internal/server"
	"deaddrop/internal/server/memstore"
	"deaddrop/internal/store"
)

func TestIsSecurePassphrase(t *testing.T) {
	cases := map[string]bool{
		"":                       false,
		"Short1!":                false,
		"alllowercase123!":       false,
		"ALLUPPERCASE123!":       false,
		"NoDigitsHere!!":         false,
		"NoSymbols12345":         false,
		"Correct-Horse-9battery": true,
	}
	for p, want := range cases {
		assert.Equal(t, want, isSecurePassphrase(p), "%q", p)
	}
}

func TestIdentity_SamePassphraseSameKeys(t *testing.T) {
	a, fa, err := Identity("Correct-Horse-9battery")
	require.NoError(t, err)
	b, fb, err := Identity("Correct-Horse-9battery")
	require.NoError(t, err)
	assert.Equal(t, a.Challenge.Public, b.Challenge.Public)
	assert.Equal(t, a.Encryption.Public, b.Encryption.Public)
	assert.Equal(t, fa, fb)
	assert.NotEqual(t, a.Challenge.Public, a.Encryption.Public)

	_, _, err = Identity("weak")
	assert.ErrorIs(t, err, ErrWeakPassphrase)
}

func TestSubmit_RejectsForeignRoot(t *testing.T) {
	ks := store.NewKeyFileStore(t.TempDir(), "pass", store.WithScrypt(1<<10, 8, 1))
	root, err := pki.GenerateRoot(ks)
	require.NoError(t, err)
	chain, err := pki.BuildChain(ks, root, 1)
	require.NoError(t, err)

	lb := log.NewDiscard()
	st := memstore.New()
	srv := server.New(chain.Anchor, st, discovery.NewServer(st, discovery.NewMemorySessions()), lb.GetLogger("server"))

	other, err := crypto.GenerateEd25519(domain.RoleRoot)
	require.NoError(t, err)
	s := New(srv, other.Public, lb.GetLogger("source"))
	_, err = s.Submit(context.Background(), "Correct-Horse-9battery", domain.Message{Text: "x"})
	assert.ErrorIs(t, err, domain.ErrChainVerification)
}

func TestSubmit_NoJournalists(t *testing.T) {
	ks := store.NewKeyFileStore(t.TempDir(), "pass", store.WithScrypt(1<<10, 8, 1))
	root, err := pki.GenerateRoot(ks)
	require.NoError(t, err)
	chain, err := pki.BuildChain(ks, root, 1)
	require.NoError(t, err)

	lb := log.NewDiscard()
	st := memstore.New()
	srv := server.New(chain.Anchor, st, discovery.NewServer(st, discovery.NewMemorySessions()), lb.GetLogger("server"))
	s := New(srv, root.Public, lb.GetLogger("source"))
	_, err = s.Submit(context.Background(), "Correct-Horse-9battery", domain.Message{Text: "x"})
	assert.ErrorIs(t, err, ErrNoJournalists)
}
