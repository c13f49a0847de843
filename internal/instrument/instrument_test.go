package instrument

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestCounters_Exposed(t *testing.T) {
	EphemeralKeys(3, 2)
	MessageDeposited()
	Discovery("begin", "ok")
	HTTPRequest("/message", http.StatusOK)

	body := scrape(t)
	require.Contains(t, body, `deaddrop_ephemeral_keys_total{result="rejected"}`)
	require.Contains(t, body, `deaddrop_messages_total{op="deposit"}`)
	require.Contains(t, body, `deaddrop_discovery_rounds_total{outcome="ok",stage="begin"}`)
	require.Contains(t, body, `deaddrop_http_requests_total{code="200",route="/message"}`)
}
