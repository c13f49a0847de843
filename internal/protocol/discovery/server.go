package discovery

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"time"

	"gopkg.in/op/go-logging.v1"

	"deaddrop/internal/crypto"
	"deaddrop/internal/domain"
	"deaddrop/internal/log"
	"deaddrop/internal/util/memzero"
)

// MessageLister is the read side of the server's message store.
type MessageLister interface {
	ListMessages() ([]domain.MessageEnvelope, error)
}

// Server runs the server half of discovery rounds.
type Server struct {
	messages MessageLister
	sessions SessionStore
	ttl      time.Duration
	now      func() time.Time
	rand     io.Reader
	log      *logging.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithTTL overrides DefaultTTL.
func WithTTL(d time.Duration) Option { return func(s *Server) { s.ttl = d } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(s *Server) { s.now = now } }

// WithRand overrides crypto/rand as the source of secrets and shuffles.
func WithRand(r io.Reader) Option { return func(s *Server) { s.rand = r } }

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option { return func(s *Server) { s.log = l } }

// NewServer returns a discovery server over messages, keeping sessions in
// sessions.
func NewServer(messages MessageLister, sessions SessionStore, opts ...Option) *Server {
	s := &Server{
		messages: messages,
		sessions: sessions,
		ttl:      DefaultTTL,
		now:      time.Now,
		rand:     rand.Reader,
	}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = log.NewDiscard().GetLogger("discovery")
	}
	return s
}

// Begin starts a round. With no stored messages it returns an empty
// challenge and creates no session.
func (s *Server) Begin(ctx context.Context) (domain.Challenge, error) {
	if err := ctx.Err(); err != nil {
		return domain.Challenge{}, err
	}
	envs, err := s.messages.ListMessages()
	if err != nil {
		return domain.Challenge{}, err
	}
	if len(envs) == 0 {
		return domain.Challenge{}, nil
	}
	if err := shuffle(s.rand, envs); err != nil {
		return domain.Challenge{}, err
	}

	secret, err := crypto.RandomScalar(s.rand)
	if err != nil {
		return domain.Challenge{}, err
	}
	defer memzero.Zero(secret[:])
	challenges := make([]domain.Point, len(envs))
	cands := make([]Candidate, len(envs))
	for i, e := range envs {
		challenges[i] = e.Challenge
		cands[i] = Candidate{ID: e.ID, PublicKey: e.PublicKey}
	}
	blinded, err := crypto.ScalarMultAll(secret, challenges)
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("blind stored challenges: %w", err)
	}

	id, err := newSessionID(s.rand)
	if err != nil {
		return domain.Challenge{}, err
	}
	now := s.now()
	if err := s.sessions.Put(Session{
		ID:         id,
		Secret:     secret,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
		Candidates: cands,
	}); err != nil {
		return domain.Challenge{}, err
	}
	s.log.Debugf("discovery round %s started over %d messages", shortID(id), len(cands))
	return domain.Challenge{SessionID: id, Blinded: blinded}, nil
}

// Redeem finishes a round and returns the ids whose unblinded response
// matches the message public key. The session is consumed whatever the
// outcome.
func (s *Server) Redeem(ctx context.Context, resp domain.ChallengeResponse) ([]domain.MessageID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sess, err := s.sessions.Take(resp.SessionID, s.now())
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(sess.Secret[:])

	if len(resp.Responses) != len(sess.Candidates) {
		return nil, fmt.Errorf("%w: %d responses for %d challenges", domain.ErrMalformed, len(resp.Responses), len(sess.Candidates))
	}
	inv, err := crypto.InvertScalar(sess.Secret)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(inv[:])

	matches := make([]domain.MessageID, 0)
	for i, r := range resp.Responses {
		candidate, err := crypto.ScalarMult(inv, r)
		if err != nil {
			// An invalid element can never match.
			continue
		}
		want := sess.Candidates[i].PublicKey
		if subtle.ConstantTimeCompare(candidate[:], want[:]) == 1 {
			matches = append(matches, sess.Candidates[i].ID)
		}
	}
	s.log.Debugf("discovery round %s redeemed", shortID(sess.ID))
	return matches, nil
}

func newSessionID(r io.Reader) (domain.SessionID, error) {
	var b [16]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return "", err
	}
	return domain.SessionID(hex.EncodeToString(b[:])), nil
}

// shuffle permutes envs in place (Fisher-Yates) using r.
func shuffle(r io.Reader, envs []domain.MessageEnvelope) error {
	for i := len(envs) - 1; i > 0; i-- {
		j, err := rand.Int(r, big.NewInt(int64(i+1)))
		if err != nil {
			return err
		}
		k := int(j.Int64())
		envs[i], envs[k] = envs[k], envs[i]
	}
	return nil
}

func shortID(id domain.SessionID) string {
	if len(id) > 8 {
		return string(id[:8])
	}
	return string(id)
}
