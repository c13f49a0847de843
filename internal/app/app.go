package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"deaddrop/internal/config"
	"deaddrop/internal/domain"
	"deaddrop/internal/log"
	"deaddrop/internal/pki"
	"deaddrop/internal/protocol/discovery"
	"deaddrop/internal/server"
	"deaddrop/internal/server/boltstore"
	"deaddrop/internal/server/memstore"
	"deaddrop/internal/store"
)

const boltFile = "deaddrop.db"

var errNoLog = errors.New("app: no log backend")

// Server is an assembled drop server.
type Server struct {
	Service  *server.Service
	Handler  http.Handler
	Sessions *discovery.MemorySessions
	Anchor   domain.TrustAnchor
}

// NewServer loads and verifies the trust anchor from cfg.KeysDir, opens the
// configured backend and builds the HTTP handler. Only public keys and
// certificates are read, so no passphrase is needed.
func NewServer(cfg *config.Server, backend *log.Backend) (*Server, error) {
	if backend == nil {
		return nil, errNoLog
	}
	ks := store.NewKeyFileStore(cfg.KeysDir, "")
	anchor, err := pki.LoadTrustAnchor(ks)
	if err != nil {
		return nil, fmt.Errorf("load trust anchor: %w", err)
	}

	var st server.Store
	switch cfg.Backend {
	case config.BackendBolt:
		if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
			return nil, err
		}
		st, err = boltstore.Open(filepath.Join(cfg.DataDir, boltFile))
		if err != nil {
			return nil, err
		}
	default:
		st = memstore.New()
	}

	sessions := discovery.NewMemorySessions()
	disc := discovery.NewServer(st, sessions,
		discovery.WithTTL(cfg.SessionTTL),
		discovery.WithLogger(backend.GetLogger("discovery")),
	)
	svc := server.New(anchor, st, disc, backend.GetLogger("server"))
	return &Server{
		Service:  svc,
		Handler:  server.NewRouter(svc, backend.GetLogger("http"), cfg.MaxRequestBytes),
		Sessions: sessions,
		Anchor:   anchor,
	}, nil
}

// Janitor sweeps expired discovery sessions until ctx is done.
func (s *Server) Janitor(ctx context.Context, interval time.Duration) {
	s.Sessions.Run(ctx, interval, time.Now)
}

// Close releases the backend.
func (s *Server) Close() error { return s.Service.Close() }
