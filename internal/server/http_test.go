package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"deaddrop/internal/domain"
	"deaddrop/internal/log"
	"deaddrop/internal/pki"
	"deaddrop/internal/protocol/discovery"
	"deaddrop/internal/relay"
	"deaddrop/internal/server"
	"deaddrop/internal/server/memstore"
	"deaddrop/internal/services/ephemeral"
	"deaddrop/internal/services/journalist"
	"deaddrop/internal/services/source"
	"deaddrop/internal/store"
)

const passphrase = "Correct-Horse-9battery"

type fixture struct {
	root   domain.Ed25519Public
	ks     *store.KeyFileStore
	eph    *store.EphemeralFileStore
	ts     *httptest.Server
	client *relay.HTTP
	lb     *log.Backend
}

func newFixture(t *testing.T, n int, maxBytes int64) *fixture {
	t.Helper()
	dir := t.TempDir()
	kdf := store.WithScrypt(1<<10, 8, 1)
	ks := store.NewKeyFileStore(dir, "pass", kdf)
	root, err := pki.GenerateRoot(ks)
	require.NoError(t, err)
	chain, err := pki.BuildChain(ks, root, n)
	require.NoError(t, err)

	lb := log.NewDiscard()
	st := memstore.New()
	svc := server.New(chain.Anchor, st,
		discovery.NewServer(st, discovery.NewMemorySessions()), lb.GetLogger("server"))
	ts := httptest.NewServer(server.NewRouter(svc, lb.GetLogger("http"), maxBytes))
	t.Cleanup(ts.Close)

	return &fixture{
		root:   root.Public,
		ks:     ks,
		eph:    store.NewEphemeralFileStore(dir, "pass", kdf),
		ts:     ts,
		client: relay.NewHTTP(ts.URL, 5*time.Second),
		lb:     lb,
	}
}

func (f *fixture) journalist(t *testing.T) *journalist.Service {
	t.Helper()
	js, err := journalist.New(f.ks, ephemeral.New(f.eph, f.lb.GetLogger("ephemeral")), f.client, f.lb.GetLogger("journalist"))
	require.NoError(t, err)
	return js
}

func TestHTTP_EndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2, 0)
	js := f.journalist(t)
	src := source.New(f.client, f.root, f.lb.GetLogger("source"))

	for i := range 2 {
		_, err := js.Register(ctx, i)
		require.NoError(t, err)
		res, err := js.PublishEphemeralKeys(ctx, i, 4)
		require.NoError(t, err)
		assert.Equal(t, 4, res.Accepted)
	}
	listed, err := f.client.ListJournalists(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	sent, err := src.Submit(ctx, passphrase, domain.Message{Text: "meet at noon"})
	require.NoError(t, err)
	require.Len(t, sent, 2)

	ids, err := js.FetchMessageIDs(ctx, 1)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	msg, err := js.ReadMessage(ctx, 1, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "meet at noon", msg.Text)

	rid, err := js.Reply(ctx, 1, msg, "noon works")
	require.NoError(t, err)

	replies, err := src.FetchReplyIDs(ctx, passphrase)
	require.NoError(t, err)
	require.Equal(t, []domain.MessageID{rid}, replies)
	reply, err := src.ReadReply(ctx, passphrase, rid)
	require.NoError(t, err)
	assert.Equal(t, "noon works", reply.Text)

	require.NoError(t, js.DeleteMessage(ctx, ids[0]))
	_, err = f.client.FetchMessage(ctx, ids[0])
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHTTP_DiscoveryReplayIsNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, 0)
	js := f.journalist(t)
	_, err := js.Register(ctx, 0)
	require.NoError(t, err)
	_, err = js.PublishEphemeralKeys(ctx, 0, 1)
	require.NoError(t, err)
	src := source.New(f.client, f.root, f.lb.GetLogger("source"))
	_, err = src.Submit(ctx, passphrase, domain.Message{Text: "x"})
	require.NoError(t, err)

	ch, err := f.client.BeginDiscovery(ctx)
	require.NoError(t, err)
	require.Len(t, ch.Blinded, 1)
	// Any valid point will do; it just will not match.
	resp := domain.ChallengeResponse{SessionID: ch.SessionID, Responses: ch.Blinded}
	_, err = f.client.RedeemDiscovery(ctx, resp)
	require.NoError(t, err)

	_, err = f.client.RedeemDiscovery(ctx, resp)
	assert.ErrorIs(t, err, domain.ErrSessionExpiredOrUnknown)
}

func TestHTTP_EmptyDiscovery(t *testing.T) {
	f := newFixture(t, 1, 0)
	ch, err := f.client.BeginDiscovery(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ch.SessionID)
	assert.Empty(t, ch.Blinded)
}

func TestHTTP_RejectsBadRequests(t *testing.T) {
	f := newFixture(t, 1, 256)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown field", http.MethodPost, "/message", `{"bogus": 1}`, http.StatusBadRequest},
		{"not json", http.MethodPost, "/journalists", `nope`, http.StatusBadRequest},
		{"too large", http.MethodPost, "/message", `{"message_ciphertext":"` + strings.Repeat("A", 512) + `"}`, http.StatusRequestEntityTooLarge},
		{"short ciphertext", http.MethodPost, "/message", `{"message_ciphertext":"AAAA"}`, http.StatusBadRequest},
		{"bad message id", http.MethodGet, "/message/xyz", ``, http.StatusBadRequest},
		{"missing message", http.MethodGet, "/message/" + strings.Repeat("ab", 32), ``, http.StatusNotFound},
		{"unknown session", http.MethodPost, "/discovery/abc", `{"message_challenges_responses": []}`, http.StatusNotFound},
		{"unknown journalist", http.MethodPost, "/ephemeral_keys", `{"journalist_uid":"nobody","ephemeral_keys":[]}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, f.ts.URL+tc.path, strings.NewReader(tc.body))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestHTTP_RegistrationWithForgedCertificate(t *testing.T) {
	f := newFixture(t, 1, 0)
	a, err := pki.LoadTrustAnchor(f.ks)
	require.NoError(t, err)
	j, err := pki.LoadJournalist(f.ks, a, 0)
	require.NoError(t, err)

	sig := append([]byte(nil), j.SigningCert.Signature...)
	sig[0] ^= 1
	_, err = f.client.Register(context.Background(), domain.Registration{
		SigningKey:   j.Signing.Public,
		SigningSig:   sig,
		ChallengeKey: j.Challenge.Public,
		ChallengeSig: j.ChallengeCert.Signature,
	})
	assert.ErrorIs(t, err, domain.ErrChainVerification)
}

func TestHTTP_RepublishedKeyIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, 0)
	js := f.journalist(t)
	uid, err := js.Register(ctx, 0)
	require.NoError(t, err)
	res, err := js.PublishEphemeralKeys(ctx, 0, 1)
	require.NoError(t, err)
	require.Equal(t, 1, res.Accepted)

	handed, err := f.client.FetchEphemeralKeys(ctx)
	require.NoError(t, err)
	require.Len(t, handed, 1)
	key := handed[0].Key

	// The signature is still valid, but the key has been used.
	res, err = f.client.PublishEphemeralKeys(ctx, domain.EphemeralKeyBatch{
		JournalistUID: uid,
		Keys:          []domain.EphemeralKeyPublic{key, key},
	})
	require.NoError(t, err)
	assert.Zero(t, res.Accepted)
	assert.Equal(t, 2, res.Rejected)

	handed, err = f.client.FetchEphemeralKeys(ctx)
	require.NoError(t, err)
	assert.Empty(t, handed)
}

func TestHTTP_ConcurrentRegistrationAssignsOneUID(t *testing.T) {
	f := newFixture(t, 1, 0)
	a, err := pki.LoadTrustAnchor(f.ks)
	require.NoError(t, err)
	j, err := pki.LoadJournalist(f.ks, a, 0)
	require.NoError(t, err)
	reg := domain.Registration{
		SigningKey:   j.Signing.Public,
		SigningSig:   j.SigningCert.Signature,
		ChallengeKey: j.Challenge.Public,
		ChallengeSig: j.ChallengeCert.Signature,
	}

	uids := make([]domain.JournalistUID, 16)
	g, ctx := errgroup.WithContext(context.Background())
	for i := range uids {
		g.Go(func() error {
			uid, err := f.client.Register(ctx, reg)
			uids[i] = uid
			return err
		})
	}
	require.NoError(t, g.Wait())
	for _, uid := range uids {
		assert.Equal(t, uids[0], uid)
	}

	listed, err := f.client.ListJournalists(context.Background())
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, 1, 0)
	resp, err := http.Get(f.ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
