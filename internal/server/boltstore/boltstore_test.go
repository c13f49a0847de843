package boltstore_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"deaddrop/internal/domain"
	"deaddrop/internal/server/boltstore"
	"deaddrop/internal/server/storetest"
)

func TestStore(t *testing.T) {
	s, err := boltstore.Open(filepath.Join(t.TempDir(), "deaddrop.db"))
	require.NoError(t, err)
	defer s.Close()
	storetest.Run(t, s)
}

func TestStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deaddrop.db")
	s, err := boltstore.Open(path)
	require.NoError(t, err)
	_, _, err = s.AddJournalist(domain.Journalist{UID: "j"})
	require.NoError(t, err)
	_, err = s.AddEphemeralKeys("j", []domain.EphemeralKeyPublic{{Public: domain.Point{9}}})
	require.NoError(t, err)
	require.NoError(t, s.PutMessage(domain.MessageEnvelope{ID: "m", Ciphertext: []byte{1}}))
	require.NoError(t, s.Close())

	s, err = boltstore.Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.GetJournalist("j")
	require.NoError(t, err)
	k, ok, err := s.PopEphemeralKey("j")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, domain.Point{9}, k.Public)
	_, err = s.GetMessage("m")
	require.NoError(t, err)

	added, err := s.AddEphemeralKeys("j", []domain.EphemeralKeyPublic{{Public: domain.Point{9}}})
	require.NoError(t, err)
	require.Zero(t, added)
}
