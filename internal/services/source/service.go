package source

import (
	"context"
	"fmt"
	"time"
	"unicode"

	"golang.org/x/sync/errgroup"
	"gopkg.in/op/go-logging.v1"

	"deaddrop/internal/crypto"
	"deaddrop/internal/domain"
	"deaddrop/internal/pki"
	"deaddrop/internal/protocol/box"
	"deaddrop/internal/protocol/discovery"
	"deaddrop/internal/services/ephemeral"
)

const (
	// minPassphraseLength defines the minimum number of characters required for a passphrase.
	minPassphraseLength = 12

	// maxParallelSubmits bounds concurrent deposits during Submit.
	maxParallelSubmits = 8
)

var (
	// ErrWeakPassphrase is returned when the passphrase fails the strength policy.
	ErrWeakPassphrase = fmt.Errorf(
		"passphrase is too weak (must be at least %d characters and include upper, lower, "+
			"number, and symbol)",
		minPassphraseLength,
	)

	// ErrNoJournalists is returned by Submit when no journalist could be
	// addressed.
	ErrNoJournalists = fmt.Errorf("%w: no verified journalist with an available key", domain.ErrNotFound)
)

// Service submits messages and reads replies for a source.
type Service struct {
	server domain.ServerClient
	root   domain.Ed25519Public
	log    *logging.Logger
	now    func() time.Time
}

// New returns a source service that talks to server and trusts only root.
func New(server domain.ServerClient, root domain.Ed25519Public, log *logging.Logger) *Service {
	return &Service{server: server, root: root, log: log, now: time.Now}
}

// Identity derives the source's keys from passphrase after checking the
// passphrase policy.
func Identity(passphrase string) (domain.SourceIdentity, domain.Fingerprint, error) {
	if !isSecurePassphrase(passphrase) {
		return domain.SourceIdentity{}, "", ErrWeakPassphrase
	}
	id, err := crypto.DeriveSourceIdentity(passphrase)
	if err != nil {
		return domain.SourceIdentity{}, "", err
	}
	return id, domain.Fingerprint(crypto.Fingerprint(id.Challenge.Public[:])), nil
}

// Submit seals msg once for every journalist the server hands a valid key
// for and deposits the copies. It returns the deposited ids in the order the
// journalists were listed.
func (s *Service) Submit(ctx context.Context, passphrase string, msg domain.Message) ([]domain.MessageID, error) {
	id, _, err := Identity(passphrase)
	if err != nil {
		return nil, err
	}
	anchor, err := s.server.FetchIntermediate(ctx)
	if err != nil {
		return nil, err
	}
	if err := pki.VerifyAnchor(s.root, anchor); err != nil {
		return nil, err
	}
	keys, err := s.server.FetchEphemeralKeys(ctx)
	if err != nil {
		return nil, err
	}

	targets := make([]domain.JournalistEphemeralKey, 0, len(keys))
	for _, k := range keys {
		if err := pki.VerifyPublished(anchor, k.Journalist); err != nil {
			s.log.Warningf("skipping journalist %s: %v", k.Journalist.UID, err)
			continue
		}
		if err := ephemeral.Verify(k.Journalist.SigningKey, k.Key); err != nil {
			s.log.Warningf("skipping journalist %s: ephemeral key: %v", k.Journalist.UID, err)
			continue
		}
		targets = append(targets, k)
	}
	if len(targets) == 0 {
		return nil, ErrNoJournalists
	}

	msg.Kind = domain.KindSubmission
	msg.Timestamp = s.now().Unix()
	msg.ReplyChallengeKey = id.Challenge.Public
	msg.ReplyEncryptionKey = id.Encryption.Public

	ids := make([]domain.MessageID, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelSubmits)
	for i, t := range targets {
		g.Go(func() error {
			env, err := box.Seal(t.Journalist.ChallengeKey, t.Key.Public, msg)
			if err != nil {
				return err
			}
			mid, err := s.server.Deposit(gctx, env)
			if err != nil {
				return fmt.Errorf("deposit for journalist %s: %w", t.Journalist.UID, err)
			}
			ids[i] = mid
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.log.Infof("submitted to %d journalists", len(ids))
	return ids, nil
}

// FetchReplyIDs runs a discovery round with the source's challenge key.
func (s *Service) FetchReplyIDs(ctx context.Context, passphrase string) ([]domain.MessageID, error) {
	id, _, err := Identity(passphrase)
	if err != nil {
		return nil, err
	}
	return discovery.Discover(ctx, s.server, id.Challenge.Private)
}

// ReadReply fetches and opens a reply.
func (s *Service) ReadReply(ctx context.Context, passphrase string, mid domain.MessageID) (domain.Message, error) {
	id, _, err := Identity(passphrase)
	if err != nil {
		return domain.Message{}, err
	}
	env, err := s.server.FetchMessage(ctx, mid)
	if err != nil {
		return domain.Message{}, err
	}
	return box.OpenEnvelope(id.Encryption, env)
}

// isSecurePassphrase enforces a basic strength policy.
func isSecurePassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if len(passphrase) < minPassphraseLength {
		return false
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}

// Compile-time assertion that Service implements domain.SourceService.
var _ domain.SourceService = (*Service)(nil)
