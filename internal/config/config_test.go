package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, defaultAddress, cfg.Server.Address)
	assert.Equal(t, BackendMemory, cfg.Server.Backend)
	assert.Equal(t, 120*time.Second, cfg.Server.SessionTTL)
	assert.Equal(t, int64(defaultMaxRequestBytes), cfg.Server.MaxRequestBytes)
	assert.Equal(t, defaultServerURL, cfg.Client.ServerURL)
	assert.Equal(t, 30, cfg.Client.OneTimeKeys)
	assert.Equal(t, "NOTICE", cfg.Logging.Level)
	assert.Empty(t, cfg.Metrics.Address)
}

func TestLoad_File(t *testing.T) {
	body := `
[Server]
  Address = "0.0.0.0:9000"
  Backend = "bolt"
  DataDir = "/var/lib/deaddrop"
  SessionTTL = "90s"

[Client]
  ServerURL = "https://drop.example.org"
  Journalists = 3
  OneTimeKeys = 5
  Timeout = "5s"

[Logging]
  Level = "DEBUG"
  Disable = true

[Metrics]
  Address = "127.0.0.1:9100"
`
	f := filepath.Join(t.TempDir(), "deaddrop.toml")
	require.NoError(t, os.WriteFile(f, []byte(body), 0o600))

	cfg, err := LoadFile(f)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Address)
	assert.Equal(t, BackendBolt, cfg.Server.Backend)
	assert.Equal(t, 90*time.Second, cfg.Server.SessionTTL)
	assert.Equal(t, "https://drop.example.org", cfg.Client.ServerURL)
	assert.Equal(t, 3, cfg.Client.Journalists)
	assert.Equal(t, 5, cfg.Client.OneTimeKeys)
	assert.Equal(t, 5*time.Second, cfg.Client.Timeout)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "127.0.0.1:9100", cfg.Metrics.Address)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"undecoded key":   "[Server]\nBogus = 1\n",
		"backend":         "[Server]\nBackend = \"sqlite\"\n",
		"log level":       "[Logging]\nLevel = \"LOUD\"\n",
		"relative log":    "[Logging]\nFile = \"deaddrop.log\"\n",
		"server url":      "[Client]\nServerURL = \"ftp://x\"\n",
		"negative keys":   "[Client]\nOneTimeKeys = -1\n",
		"not toml at all": "[Server",
	}
	for name, body := range cases {
		_, err := Load([]byte(body))
		assert.Error(t, err, name)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}
