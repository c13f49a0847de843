package journalist

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/op/go-logging.v1"

	"deaddrop/internal/domain"
	"deaddrop/internal/pki"
	"deaddrop/internal/protocol/box"
	"deaddrop/internal/protocol/discovery"
	"deaddrop/internal/services/ephemeral"
)

// ErrNotRegistered is returned for operations that need a server uid.
var ErrNotRegistered = fmt.Errorf("%w: journalist is not registered; run register first", domain.ErrNotFound)

// Service implements domain.JournalistService over local key stores.
type Service struct {
	keys      domain.KeyStore
	anchor    domain.TrustAnchor
	ephemeral *ephemeral.Manager
	server    domain.ServerClient
	log       *logging.Logger
	now       func() time.Time
}

// New reloads and verifies the trust anchor from keys. A chain error is
// fatal for the caller.
func New(keys domain.KeyStore, eph *ephemeral.Manager, server domain.ServerClient, log *logging.Logger) (*Service, error) {
	anchor, err := pki.LoadTrustAnchor(keys)
	if err != nil {
		return nil, err
	}
	return &Service{keys: keys, anchor: anchor, ephemeral: eph, server: server, log: log, now: time.Now}, nil
}

func (s *Service) load(index int) (domain.JournalistIdentity, error) {
	return pki.LoadJournalist(s.keys, s.anchor, index)
}

// Register sends the journalist's certified keys to the server and records
// the assigned uid.
func (s *Service) Register(ctx context.Context, index int) (domain.JournalistUID, error) {
	id, err := s.load(index)
	if err != nil {
		return "", err
	}
	uid, err := s.server.Register(ctx, domain.Registration{
		SigningKey:   id.Signing.Public,
		SigningSig:   id.SigningCert.Signature,
		ChallengeKey: id.Challenge.Public,
		ChallengeSig: id.ChallengeCert.Signature,
	})
	if err != nil {
		return "", err
	}
	if err := s.keys.SaveUID(index, uid); err != nil {
		return "", err
	}
	s.log.Noticef("journalist %d registered as %s", index, uid)
	return uid, nil
}

// PublishEphemeralKeys generates count one-time keys and uploads them.
func (s *Service) PublishEphemeralKeys(ctx context.Context, index, count int) (domain.PublishResult, error) {
	id, err := s.load(index)
	if err != nil {
		return domain.PublishResult{}, err
	}
	if id.UID == "" {
		return domain.PublishResult{}, ErrNotRegistered
	}
	recs, err := s.ephemeral.Publish(index, id.Signing, count)
	if err != nil {
		return domain.PublishResult{}, err
	}
	res, err := s.server.PublishEphemeralKeys(ctx, domain.EphemeralKeyBatch{
		JournalistUID: id.UID,
		Keys:          ephemeral.Public(recs),
	})
	if err != nil {
		return domain.PublishResult{}, err
	}
	if res.Rejected > 0 {
		s.log.Warningf("journalist %d: server rejected %d of %d keys", index, res.Rejected, len(recs))
	}
	return res, nil
}

// FetchMessageIDs runs a discovery round with the journalist's challenge
// key.
func (s *Service) FetchMessageIDs(ctx context.Context, index int) ([]domain.MessageID, error) {
	id, err := s.load(index)
	if err != nil {
		return nil, err
	}
	ids, err := discovery.Discover(ctx, s.server, id.Challenge.Private)
	if err != nil {
		return nil, err
	}
	s.log.Infof("journalist %d: %d messages found", index, len(ids))
	return ids, nil
}

// ReadMessage fetches a message and opens it by trial decryption over the
// journalist's one-time keys. The key that opens it is consumed, so a
// message can be read only once.
func (s *Service) ReadMessage(ctx context.Context, index int, mid domain.MessageID) (domain.Message, error) {
	env, err := s.server.FetchMessage(ctx, mid)
	if err != nil {
		return domain.Message{}, err
	}
	pool, err := s.ephemeral.Pool(index)
	if err != nil {
		return domain.Message{}, err
	}
	msg, attempts, err := pool.TryDecrypt(env)
	if err != nil {
		s.log.Warningf("journalist %d: message %s not opened after %d attempts", index, mid, attempts)
		return domain.Message{}, err
	}
	return msg, nil
}

// Reply seals text to the source that wrote to and deposits it.
func (s *Service) Reply(ctx context.Context, index int, to domain.Message, text string) (domain.MessageID, error) {
	if to.ReplyChallengeKey.IsZero() || to.ReplyEncryptionKey.IsZero() {
		return "", fmt.Errorf("%w: message carries no reply keys", domain.ErrMalformed)
	}
	env, err := box.Seal(to.ReplyChallengeKey, to.ReplyEncryptionKey, domain.Message{
		Kind:      domain.KindReply,
		Text:      text,
		Timestamp: s.now().Unix(),
	})
	if err != nil {
		return "", err
	}
	mid, err := s.server.Deposit(ctx, env)
	if err != nil {
		return "", err
	}
	s.log.Infof("journalist %d: reply deposited", index)
	return mid, nil
}

// DeleteMessage removes a message from the server.
func (s *Service) DeleteMessage(ctx context.Context, mid domain.MessageID) error {
	return s.server.DeleteMessage(ctx, mid)
}

// Compile-time assertion that Service implements domain.JournalistService.
var _ domain.JournalistService = (*Service)(nil)
