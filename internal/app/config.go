package app

import (
	"time"

	"deaddrop/internal/domain"
	"deaddrop/internal/log"
	"deaddrop/internal/store"
)

// Config holds runtime wiring options for the client commands.
type Config struct {
	KeysDir    string        // provisioned chain and one-time keys
	ServerURL  string        // e.g. http://127.0.0.1:8000
	Passphrase string        // seals private keys on disk
	Timeout    time.Duration // per request
	Log        *log.Backend

	// Server optionally replaces the HTTP client, e.g. with an in-process
	// server.Service.
	Server domain.ServerClient

	// StoreOptions tune the key file stores.
	StoreOptions []store.Option
}
