package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"deaddrop/internal/domain"
)

// DefaultTimeout bounds a request when the caller's context has no deadline.
const DefaultTimeout = 30 * time.Second

// HTTP talks to a deaddrop server.
type HTTP struct {
	Base string
	HTTP *http.Client
}

// NewHTTP returns a client for the server at base.
func NewHTTP(base string, timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTP{Base: strings.TrimRight(base, "/"), HTTP: &http.Client{Timeout: timeout}}
}

// Register submits a journalist registration.
func (c *HTTP) Register(ctx context.Context, reg domain.Registration) (domain.JournalistUID, error) {
	var out domain.RegistrationResult
	if err := c.do(ctx, http.MethodPost, "/journalists", reg, &out); err != nil {
		return "", err
	}
	return out.UID, nil
}

// ListJournalists returns the registered journalists, unverified.
func (c *HTTP) ListJournalists(ctx context.Context) ([]domain.Journalist, error) {
	var out domain.JournalistList
	if err := c.do(ctx, http.MethodGet, "/journalists", nil, &out); err != nil {
		return nil, err
	}
	return out.Journalists, nil
}

// FetchIntermediate returns the server's trust anchor, unverified.
func (c *HTTP) FetchIntermediate(ctx context.Context) (domain.TrustAnchor, error) {
	var out domain.TrustAnchor
	err := c.do(ctx, http.MethodGet, "/pki", nil, &out)
	return out, err
}

// PublishEphemeralKeys uploads a batch of signed one-time keys.
func (c *HTTP) PublishEphemeralKeys(ctx context.Context, batch domain.EphemeralKeyBatch) (domain.PublishResult, error) {
	var out domain.PublishResult
	err := c.do(ctx, http.MethodPost, "/ephemeral_keys", batch, &out)
	return out, err
}

// FetchEphemeralKeys takes one key per journalist.
func (c *HTTP) FetchEphemeralKeys(ctx context.Context) ([]domain.JournalistEphemeralKey, error) {
	var out domain.EphemeralKeyList
	if err := c.do(ctx, http.MethodGet, "/ephemeral_keys", nil, &out); err != nil {
		return nil, err
	}
	return out.Keys, nil
}

// Deposit stores a sealed message and returns its id.
func (c *HTTP) Deposit(ctx context.Context, env domain.MessageEnvelope) (domain.MessageID, error) {
	env.ID = ""
	var out domain.DepositResult
	if err := c.do(ctx, http.MethodPost, "/message", env, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// FetchMessage returns the envelope with id.
func (c *HTTP) FetchMessage(ctx context.Context, id domain.MessageID) (domain.MessageEnvelope, error) {
	var out domain.MessageEnvelope
	if err := c.do(ctx, http.MethodGet, "/message/"+url.PathEscape(id.String()), nil, &out); err != nil {
		return domain.MessageEnvelope{}, err
	}
	out.ID = id
	return out, nil
}

// DeleteMessage removes the envelope with id.
func (c *HTTP) DeleteMessage(ctx context.Context, id domain.MessageID) error {
	return c.do(ctx, http.MethodDelete, "/message/"+url.PathEscape(id.String()), nil, nil)
}

// BeginDiscovery fetches a blinded challenge.
func (c *HTTP) BeginDiscovery(ctx context.Context) (domain.Challenge, error) {
	var out domain.Challenge
	err := c.do(ctx, http.MethodGet, "/discovery", nil, &out)
	return out, err
}

// RedeemDiscovery posts the responses for a challenge and returns the
// matching message ids.
func (c *HTTP) RedeemDiscovery(ctx context.Context, resp domain.ChallengeResponse) ([]domain.MessageID, error) {
	var out domain.DiscoveryResult
	err := c.do(ctx, http.MethodPost, "/discovery/"+url.PathEscape(resp.SessionID.String()), resp, &out)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %v", domain.ErrSessionExpiredOrUnknown, err)
		}
		return nil, err
	}
	return out.Messages, nil
}

func (c *HTTP) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return err
		}
		body = buf
	}
	req, err := http.NewRequestWithContext(ctx, method, c.Base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return statusError(method, path, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// httpError keeps the status of a failed request while unwrapping to the
// matching domain sentinel.
type httpError struct {
	method, path string
	status       string
	code         int
	msg          string
	sentinel     error
}

func (e *httpError) Error() string {
	s := fmt.Sprintf("server %s %s: %s", e.method, e.path, e.status)
	if e.msg != "" {
		s += ": " + e.msg
	}
	return s
}

func (e *httpError) Unwrap() error { return e.sentinel }

func statusError(method, path string, resp *http.Response) error {
	var body domain.ErrorResult
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body)

	e := &httpError{method: method, path: path, status: resp.Status, code: resp.StatusCode, msg: body.Error}
	switch resp.StatusCode {
	case http.StatusBadRequest:
		e.sentinel = domain.ErrMalformed
	case http.StatusForbidden:
		e.sentinel = domain.ErrChainVerification
	case http.StatusNotFound:
		e.sentinel = domain.ErrNotFound
	case http.StatusRequestEntityTooLarge:
		e.sentinel = domain.ErrMessageTooLarge
	}
	return e
}

func isNotFound(err error) bool {
	he, ok := err.(*httpError)
	return ok && he.code == http.StatusNotFound
}

var _ domain.ServerClient = (*HTTP)(nil)
