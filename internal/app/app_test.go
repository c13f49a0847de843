package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deaddrop/internal/app"
	"deaddrop/internal/config"
	"deaddrop/internal/domain"
	"deaddrop/internal/log"
	"deaddrop/internal/pki"
	"deaddrop/internal/store"
)

func provision(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	ks := store.NewKeyFileStore(dir, "pass", store.WithScrypt(1<<10, 8, 1))
	root, err := pki.GenerateRoot(ks)
	require.NoError(t, err)
	_, err = pki.BuildChain(ks, root, 1)
	require.NoError(t, err)
	return dir
}

func TestNewServer_BoltBackend(t *testing.T) {
	keys := provision(t)
	cfg := config.Default()
	cfg.Server.KeysDir = keys
	cfg.Server.DataDir = t.TempDir()
	cfg.Server.Backend = config.BackendBolt

	srv, err := app.NewServer(cfg.Server, log.NewDiscard())
	require.NoError(t, err)
	defer srv.Close()

	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()
	resp, err := http.Get(ts.URL + "/pki")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewServer_MissingKeys(t *testing.T) {
	cfg := config.Default()
	cfg.Server.KeysDir = t.TempDir()
	_, err := app.NewServer(cfg.Server, log.NewDiscard())
	assert.ErrorIs(t, err, domain.ErrChainVerification)
}

func TestWire_InProcess(t *testing.T) {
	ctx := context.Background()
	keys := provision(t)
	cfg := config.Default()
	cfg.Server.KeysDir = keys
	lb := log.NewDiscard()

	srv, err := app.NewServer(cfg.Server, lb)
	require.NoError(t, err)
	defer srv.Close()

	w, err := app.NewWire(app.Config{
		KeysDir:      keys,
		Passphrase:   "pass",
		Log:          lb,
		Server:       srv.Service,
		StoreOptions: []store.Option{store.WithScrypt(1<<10, 8, 1)},
	})
	require.NoError(t, err)

	js, err := w.Journalist()
	require.NoError(t, err)
	_, err = js.Register(ctx, 0)
	require.NoError(t, err)
	_, err = js.PublishEphemeralKeys(ctx, 0, 2)
	require.NoError(t, err)

	src, err := w.Source()
	require.NoError(t, err)
	ids, err := src.Submit(ctx, "Correct-Horse-9battery", domain.Message{Text: "hello"})
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}
