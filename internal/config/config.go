// Package config implements the TOML configuration shared by the deaddrop
// client and server commands.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"deaddrop/internal/log"
	"deaddrop/internal/protocol/discovery"
	"deaddrop/internal/services/ephemeral"
)

const (
	defaultAddress         = "127.0.0.1:8000"
	defaultServerURL       = "http://127.0.0.1:8000"
	defaultLogLevel        = "NOTICE"
	defaultBackend         = BackendMemory
	defaultKeysDir         = "keys"
	defaultDataDir         = "data"
	defaultJournalists     = 10
	defaultMaxRequestBytes = 1 << 20
	defaultClientTimeout   = 30 * time.Second

	// BackendMemory keeps server state in process memory.
	BackendMemory = "memory"
	// BackendBolt keeps server state in a bbolt database under DataDir.
	BackendBolt = "bolt"
)

// Server is the drop server configuration.
type Server struct {
	// Address is the listen address of the API.
	Address string

	// KeysDir holds the root and intermediate keys the server trusts.
	KeysDir string

	// DataDir holds the bolt database when Backend is "bolt".
	DataDir string

	// Backend is "memory" or "bolt".
	Backend string

	// SessionTTL is how long a discovery challenge can be redeemed.
	SessionTTL time.Duration

	MaxRequestBytes int64
}

func (s *Server) applyDefaults() {
	if s.Address == "" {
		s.Address = defaultAddress
	}
	if s.KeysDir == "" {
		s.KeysDir = defaultKeysDir
	}
	if s.DataDir == "" {
		s.DataDir = defaultDataDir
	}
	if s.Backend == "" {
		s.Backend = defaultBackend
	}
	if s.SessionTTL == 0 {
		s.SessionTTL = discovery.DefaultTTL
	}
	if s.MaxRequestBytes == 0 {
		s.MaxRequestBytes = defaultMaxRequestBytes
	}
}

func (s *Server) validate() error {
	switch s.Backend {
	case BackendMemory, BackendBolt:
	default:
		return fmt.Errorf("config: Server: Backend '%v' is invalid", s.Backend)
	}
	if s.SessionTTL < 0 {
		return fmt.Errorf("config: Server: SessionTTL %v is negative", s.SessionTTL)
	}
	if s.MaxRequestBytes < 0 {
		return fmt.Errorf("config: Server: MaxRequestBytes %v is negative", s.MaxRequestBytes)
	}
	return nil
}

// Client is the journalist and source command configuration.
type Client struct {
	// ServerURL is the base URL of the drop server.
	ServerURL string

	// KeysDir holds the provisioned certificate chain and one-time keys.
	KeysDir string

	// Journalists is how many journalists pki generate provisions.
	Journalists int

	// OneTimeKeys is the default pool size for journalist publish.
	OneTimeKeys int

	Timeout time.Duration
}

func (c *Client) applyDefaults() {
	if c.ServerURL == "" {
		c.ServerURL = defaultServerURL
	}
	if c.KeysDir == "" {
		c.KeysDir = defaultKeysDir
	}
	if c.Journalists == 0 {
		c.Journalists = defaultJournalists
	}
	if c.OneTimeKeys == 0 {
		c.OneTimeKeys = ephemeral.DefaultPoolSize
	}
	if c.Timeout == 0 {
		c.Timeout = defaultClientTimeout
	}
}

func (c *Client) validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("config: Client: ServerURL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("config: Client: ServerURL '%v' must be http or https", c.ServerURL)
	}
	if c.Journalists < 0 || c.OneTimeKeys < 0 {
		return errors.New("config: Client: Journalists and OneTimeKeys must not be negative")
	}
	return nil
}

// Logging is the logging configuration.
type Logging struct {
	// Disable disables logging entirely.
	Disable bool

	// File specifies the log file, if omitted stdout will be used.
	File string

	// Level specifies the log level.
	Level string
}

func (l *Logging) applyDefaults() {
	if l.Level == "" {
		l.Level = defaultLogLevel
	}
}

func (l *Logging) validate() error {
	if !log.ValidLevel(l.Level) {
		return fmt.Errorf("config: Logging: Level '%v' is invalid", l.Level)
	}
	if !l.Disable && l.File != "" && !filepath.IsAbs(l.File) {
		return errors.New("config: Logging: File must be an absolute path")
	}
	return nil
}

// Metrics is the prometheus listener configuration. An empty Address
// disables the listener.
type Metrics struct {
	Address string
}

// Config is the top level deaddrop configuration.
type Config struct {
	Server  *Server
	Client  *Client
	Logging *Logging
	Metrics *Metrics
}

// FixupAndValidate applies defaults to config entries and validates the
// supplied configuration.
func (cfg *Config) FixupAndValidate() error {
	if cfg.Server == nil {
		cfg.Server = &Server{}
	}
	if cfg.Client == nil {
		cfg.Client = &Client{}
	}
	if cfg.Logging == nil {
		cfg.Logging = &Logging{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &Metrics{}
	}
	cfg.Server.applyDefaults()
	cfg.Client.applyDefaults()
	cfg.Logging.applyDefaults()

	if err := cfg.Server.validate(); err != nil {
		return err
	}
	if err := cfg.Client.validate(); err != nil {
		return err
	}
	return cfg.Logging.validate()
}

// InitLogBackend returns a log backend for the Logging section.
func (cfg *Config) InitLogBackend() (*log.Backend, error) {
	return log.New(cfg.Logging.File, cfg.Logging.Level, cfg.Logging.Disable)
}

// Default returns a validated configuration with every default applied.
func Default() *Config {
	cfg := new(Config)
	if err := cfg.FixupAndValidate(); err != nil {
		panic(err)
	}
	return cfg
}

// Load parses and validates the provided buffer b as a config file body and
// returns the Config.
func Load(b []byte) (*Config, error) {
	cfg := new(Config)
	md, err := toml.Decode(string(b), cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		return nil, fmt.Errorf("config: Undecoded keys in config file: %v", undecoded)
	}
	if err := cfg.FixupAndValidate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads, parses, and validates the provided file and returns the
// Config.
func LoadFile(f string) (*Config, error) {
	b, err := os.ReadFile(f)
	if err != nil {
		return nil, err
	}
	return Load(b)
}
