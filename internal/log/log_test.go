package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBackend_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deaddrop.log")
	b, err := New(path, "INFO", false)
	require.NoError(t, err)

	l := b.GetLogger("test")
	l.Debug("hidden")
	l.Infof("visible %d", 1)
	b.GetGoLogger("http", "WARNING").Print("from net/http")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(raw)
	require.True(t, strings.Contains(out, "test: visible 1"), out)
	require.True(t, strings.Contains(out, "http: from net/http"), out)
	require.False(t, strings.Contains(out, "hidden"), out)

	require.NoError(t, b.Rotate())
	b.GetLogger("test").Info("after rotate")
	raw, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), "after rotate")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New("", "LOUD", false)
	require.Error(t, err)
	require.False(t, ValidLevel("LOUD"))
	require.True(t, ValidLevel("debug"))
}
