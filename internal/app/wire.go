package app

import (
	"deaddrop/internal/domain"
	"deaddrop/internal/relay"
	"deaddrop/internal/services/ephemeral"
	"deaddrop/internal/services/journalist"
	"deaddrop/internal/services/source"
	"deaddrop/internal/store"
)

// Wire bundles the stores and clients the CLI needs. Services are built on
// demand since each needs a different part of the key directory.
type Wire struct {
	Keys      *store.KeyFileStore
	Ephemeral *store.EphemeralFileStore
	Server    domain.ServerClient
	cfg       Config
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) (*Wire, error) {
	if cfg.Log == nil {
		return nil, errNoLog
	}
	srv := cfg.Server
	if srv == nil {
		srv = relay.NewHTTP(cfg.ServerURL, cfg.Timeout)
	}
	return &Wire{
		Keys:      store.NewKeyFileStore(cfg.KeysDir, cfg.Passphrase, cfg.StoreOptions...),
		Ephemeral: store.NewEphemeralFileStore(cfg.KeysDir, cfg.Passphrase, cfg.StoreOptions...),
		Server:    srv,
		cfg:       cfg,
	}, nil
}

// Journalist returns the journalist service. It fails if the local chain
// does not verify.
func (w *Wire) Journalist() (*journalist.Service, error) {
	eph := ephemeral.New(w.Ephemeral, w.cfg.Log.GetLogger("ephemeral"))
	return journalist.New(w.Keys, eph, w.Server, w.cfg.Log.GetLogger("journalist"))
}

// Source returns the source service pinned to the root public key found in
// the key directory. Sources need only root.pub.
func (w *Wire) Source() (*source.Service, error) {
	root, err := w.Keys.LoadSigningPublic(domain.KeyRef{Role: domain.RoleRoot})
	if err != nil {
		return nil, err
	}
	return source.New(w.Server, root, w.cfg.Log.GetLogger("source")), nil
}
