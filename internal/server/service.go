package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"gopkg.in/op/go-logging.v1"

	"deaddrop/internal/crypto"
	"deaddrop/internal/domain"
	"deaddrop/internal/instrument"
	"deaddrop/internal/pki"
	"deaddrop/internal/protocol/box"
	"deaddrop/internal/protocol/discovery"
	"deaddrop/internal/services/ephemeral"
)

// Store is the persistence the server needs.
type Store interface {
	domain.MessageStore
	domain.JournalistStore
	Close() error
}

const messageIDLen = 32

// Service is the transport-independent server.
type Service struct {
	anchor    domain.TrustAnchor
	store     Store
	discovery *discovery.Server
	log       *logging.Logger
}

// New returns a Service trusting anchor. The anchor must already be
// verified.
func New(anchor domain.TrustAnchor, store Store, disc *discovery.Server, log *logging.Logger) *Service {
	return &Service{anchor: anchor, store: store, discovery: disc, log: log}
}

// FetchIntermediate returns the trust anchor sources pin against.
func (s *Service) FetchIntermediate(context.Context) (domain.TrustAnchor, error) {
	return s.anchor, nil
}

// Register verifies a journalist's certificates and assigns a uid.
// Registering the same signing key again returns the existing uid.
func (s *Service) Register(_ context.Context, reg domain.Registration) (domain.JournalistUID, error) {
	if err := pki.VerifyRegistration(s.anchor, reg); err != nil {
		s.log.Warningf("rejected registration for %s: %v", crypto.Fingerprint(reg.SigningKey[:]), err)
		return "", err
	}
	j, created, err := s.store.AddJournalist(domain.Journalist{
		UID:          domain.JournalistUID(uuid.New().String()),
		SigningKey:   reg.SigningKey,
		SigningSig:   reg.SigningSig,
		ChallengeKey: reg.ChallengeKey,
		ChallengeSig: reg.ChallengeSig,
	})
	if err != nil {
		return "", err
	}
	if !created {
		if j.ChallengeKey != reg.ChallengeKey {
			return "", fmt.Errorf("%w: journalist already registered with another challenge key", domain.ErrMalformed)
		}
		return j.UID, nil
	}
	instrument.JournalistRegistered()
	s.log.Noticef("registered journalist %s (%s)", j.UID, crypto.Fingerprint(j.SigningKey[:]))
	return j.UID, nil
}

// ListJournalists returns every registered journalist.
func (s *Service) ListJournalists(context.Context) ([]domain.Journalist, error) {
	return s.store.ListJournalists()
}

// PublishEphemeralKeys stores the keys of batch whose signature verifies
// under the journalist's signing key and drops the rest. A key the server
// has accepted before is rejected, even though its signature still holds.
func (s *Service) PublishEphemeralKeys(_ context.Context, batch domain.EphemeralKeyBatch) (domain.PublishResult, error) {
	j, err := s.store.GetJournalist(batch.JournalistUID)
	if err != nil {
		return domain.PublishResult{}, fmt.Errorf("journalist %s: %w", batch.JournalistUID, err)
	}
	accepted, rejected := ephemeral.VerifyBatch(j.SigningKey, batch.Keys)
	added := 0
	if len(accepted) > 0 {
		if added, err = s.store.AddEphemeralKeys(j.UID, accepted); err != nil {
			return domain.PublishResult{}, err
		}
	}
	if dup := len(accepted) - added; dup > 0 {
		s.log.Warningf("journalist %s: %d ephemeral keys were already published", j.UID, dup)
		rejected += dup
	}
	instrument.EphemeralKeys(added, rejected)
	s.log.Infof("journalist %s published %d ephemeral keys, %d rejected", j.UID, added, rejected)
	return domain.PublishResult{Accepted: added, Rejected: rejected}, nil
}

// FetchEphemeralKeys hands out, and removes, one key per journalist.
// Journalists with no keys left are skipped.
func (s *Service) FetchEphemeralKeys(context.Context) ([]domain.JournalistEphemeralKey, error) {
	js, err := s.store.ListJournalists()
	if err != nil {
		return nil, err
	}
	out := make([]domain.JournalistEphemeralKey, 0, len(js))
	for _, j := range js {
		k, ok, err := s.store.PopEphemeralKey(j.UID)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.log.Warningf("journalist %s has no ephemeral keys left", j.UID)
			continue
		}
		out = append(out, domain.JournalistEphemeralKey{Journalist: j, Key: k})
	}
	instrument.EphemeralKeysHandedOut(len(out))
	return out, nil
}

// Deposit validates and stores env under a fresh random id.
func (s *Service) Deposit(_ context.Context, env domain.MessageEnvelope) (domain.MessageID, error) {
	if len(env.Ciphertext) != box.CiphertextSize {
		return "", fmt.Errorf("%w: ciphertext must be %d bytes", domain.ErrMalformed, box.CiphertextSize)
	}
	if err := crypto.ValidatePoint(env.PublicKey); err != nil {
		return "", fmt.Errorf("%w: message public key: %v", domain.ErrMalformed, err)
	}
	if err := crypto.ValidatePoint(env.Challenge); err != nil {
		return "", fmt.Errorf("%w: message challenge: %v", domain.ErrMalformed, err)
	}
	id, err := newMessageID(rand.Reader)
	if err != nil {
		return "", err
	}
	env.ID = id
	if err := s.store.PutMessage(env); err != nil {
		return "", err
	}
	instrument.MessageDeposited()
	s.log.Debugf("stored message %s", id)
	return id, nil
}

// FetchMessage returns the envelope with id.
func (s *Service) FetchMessage(_ context.Context, id domain.MessageID) (domain.MessageEnvelope, error) {
	if err := checkMessageID(id); err != nil {
		return domain.MessageEnvelope{}, err
	}
	env, err := s.store.GetMessage(id)
	if err != nil {
		return domain.MessageEnvelope{}, err
	}
	instrument.MessageFetched()
	return env, nil
}

// DeleteMessage removes the envelope with id.
func (s *Service) DeleteMessage(_ context.Context, id domain.MessageID) error {
	if err := checkMessageID(id); err != nil {
		return err
	}
	if err := s.store.DeleteMessage(id); err != nil {
		return err
	}
	instrument.MessageDeleted()
	s.log.Debugf("deleted message %s", id)
	return nil
}

// BeginDiscovery starts a discovery round.
func (s *Service) BeginDiscovery(ctx context.Context) (domain.Challenge, error) {
	ch, err := s.discovery.Begin(ctx)
	switch {
	case err != nil:
		instrument.Discovery("begin", "error")
		return domain.Challenge{}, err
	case ch.SessionID == "":
		instrument.Discovery("begin", "empty")
	default:
		instrument.Discovery("begin", "ok")
	}
	return ch, nil
}

// RedeemDiscovery finishes a discovery round.
func (s *Service) RedeemDiscovery(ctx context.Context, resp domain.ChallengeResponse) ([]domain.MessageID, error) {
	ids, err := s.discovery.Redeem(ctx, resp)
	switch {
	case errors.Is(err, domain.ErrSessionReplay):
		instrument.Discovery("redeem", "replay")
		s.log.Warningf("discovery session redeemed twice")
	case errors.Is(err, domain.ErrSessionExpiredOrUnknown):
		instrument.Discovery("redeem", "expired")
	case err != nil:
		instrument.Discovery("redeem", "error")
	default:
		instrument.Discovery("redeem", "ok")
	}
	return ids, err
}

func newMessageID(r io.Reader) (domain.MessageID, error) {
	var b [messageIDLen]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return "", err
	}
	return domain.MessageID(hex.EncodeToString(b[:])), nil
}

func checkMessageID(id domain.MessageID) error {
	b, err := hex.DecodeString(string(id))
	if err != nil || len(b) != messageIDLen {
		return fmt.Errorf("%w: message id", domain.ErrMalformed)
	}
	return nil
}

// Close releases the store.
func (s *Service) Close() error { return s.store.Close() }

// Compile-time assertion that Service can stand in for a remote server.
var _ domain.ServerClient = (*Service)(nil)
