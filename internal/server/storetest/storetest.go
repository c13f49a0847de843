// Package storetest holds behaviour tests shared by the server store
// implementations.
package storetest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deaddrop/internal/domain"
)

// Store is what every server backend provides.
type Store interface {
	domain.MessageStore
	domain.JournalistStore
}

// Run exercises s, which must be empty.
func Run(t *testing.T, s Store) {
	t.Run("Journalists", func(t *testing.T) { journalists(t, s) })
	t.Run("EphemeralKeys", func(t *testing.T) { ephemeralKeys(t, s) })
	t.Run("Messages", func(t *testing.T) { messages(t, s) })
}

func journalists(t *testing.T, s Store) {
	_, err := s.GetJournalist("missing")
	require.ErrorIs(t, err, domain.ErrNotFound)

	j := domain.Journalist{
		UID:          "j-1",
		SigningKey:   domain.Ed25519Public{1},
		SigningSig:   []byte{2},
		ChallengeKey: domain.Point{3},
		ChallengeSig: []byte{4},
	}
	stored, created, err := s.AddJournalist(j)
	require.NoError(t, err)
	require.True(t, created)
	assert.Equal(t, j, stored)

	// Same signing key under a new uid returns the first registration.
	again := j
	again.UID = "j-1b"
	stored, created, err = s.AddJournalist(again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, j, stored)
	_, err = s.GetJournalist("j-1b")
	require.ErrorIs(t, err, domain.ErrNotFound)

	got, err := s.GetJournalist("j-1")
	require.NoError(t, err)
	assert.Equal(t, j, got)

	list, err := s.ListJournalists()
	require.NoError(t, err)
	assert.Equal(t, []domain.Journalist{j}, list)
}

func ephemeralKeys(t *testing.T, s Store) {
	_, err := s.AddEphemeralKeys("nobody", []domain.EphemeralKeyPublic{{}})
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, created, err := s.AddJournalist(domain.Journalist{UID: "j-2"})
	require.NoError(t, err)
	require.True(t, created)
	_, ok, err := s.PopEphemeralKey("j-2")
	require.NoError(t, err)
	require.False(t, ok)

	keys := []domain.EphemeralKeyPublic{
		{Public: domain.Point{1}, Signature: []byte{1}},
		{Public: domain.Point{2}, Signature: []byte{2}},
	}
	added, err := s.AddEphemeralKeys("j-2", append(keys, keys[0]))
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	for _, want := range keys {
		k, ok, err := s.PopEphemeralKey("j-2")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, want, k)
	}
	_, ok, err = s.PopEphemeralKey("j-2")
	require.NoError(t, err)
	assert.False(t, ok)

	// A key handed out once can never be queued again.
	fresh := domain.EphemeralKeyPublic{Public: domain.Point{3}, Signature: []byte{3}}
	added, err = s.AddEphemeralKeys("j-2", []domain.EphemeralKeyPublic{keys[1], fresh})
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	k, ok, err := s.PopEphemeralKey("j-2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, fresh, k)
	_, ok, err = s.PopEphemeralKey("j-2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func messages(t *testing.T, s Store) {
	list, err := s.ListMessages()
	require.NoError(t, err)
	require.Empty(t, list)

	env := domain.MessageEnvelope{
		ID:         "abc",
		Ciphertext: []byte("ct"),
		PublicKey:  domain.Point{5},
		Challenge:  domain.Point{6},
	}
	require.NoError(t, s.PutMessage(env))
	got, err := s.GetMessage("abc")
	require.NoError(t, err)
	assert.Equal(t, env, got)

	list, err = s.ListMessages()
	require.NoError(t, err)
	assert.Equal(t, []domain.MessageEnvelope{env}, list)

	require.NoError(t, s.DeleteMessage("abc"))
	require.ErrorIs(t, s.DeleteMessage("abc"), domain.ErrNotFound)
	_, err = s.GetMessage("abc")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
