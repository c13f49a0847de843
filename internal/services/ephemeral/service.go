package ephemeral

import (
	"fmt"
	"iter"
	"sync"

	"gopkg.in/op/go-logging.v1"

	"deaddrop/internal/crypto"
	"deaddrop/internal/domain"
	"deaddrop/internal/pki"
	"deaddrop/internal/protocol/box"
)

// DefaultPoolSize is how many keys a journalist publishes at a time.
const DefaultPoolSize = 30

// Manager generates and tracks one-time keys on top of an EphemeralKeyStore.
type Manager struct {
	store domain.EphemeralKeyStore
	log   *logging.Logger
}

// New returns a Manager persisting to store.
func New(store domain.EphemeralKeyStore, log *logging.Logger) *Manager {
	return &Manager{store: store, log: log}
}

// Publish creates count keys signed by the journalist's signing key and
// persists their private halves for journalist index.
func (m *Manager) Publish(index int, journalist domain.SigningKeyPair, count int) ([]domain.EphemeralKeyRecord, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: key count must be positive", domain.ErrMalformed)
	}
	recs := make([]domain.EphemeralKeyRecord, 0, count)
	for range count {
		kp, err := crypto.GenerateGroupKey(domain.RoleEphemeral)
		if err != nil {
			return nil, err
		}
		cert := pki.Issue(journalist, kp.Public[:])
		recs = append(recs, domain.EphemeralKeyRecord{
			ID:        crypto.Fingerprint(kp.Public[:]),
			Public:    kp.Public,
			Private:   kp.Private,
			Signature: cert.Signature,
		})
	}
	if err := m.store.SaveEphemeralKeys(index, recs); err != nil {
		return nil, fmt.Errorf("save ephemeral keys: %w", err)
	}
	m.log.Infof("journalist %d: generated %d ephemeral keys", index, len(recs))
	return recs, nil
}

// Public strips the private halves for upload.
func Public(recs []domain.EphemeralKeyRecord) []domain.EphemeralKeyPublic {
	out := make([]domain.EphemeralKeyPublic, 0, len(recs))
	for _, r := range recs {
		out = append(out, domain.EphemeralKeyPublic{Public: r.Public, Signature: r.Signature})
	}
	return out
}

// Verify checks one published key against the journalist's signing key.
func Verify(journalistPub domain.Ed25519Public, k domain.EphemeralKeyPublic) error {
	if !pki.Verify(journalistPub, k.Public[:], k.Signature) {
		return domain.ErrSignatureInvalid
	}
	if err := crypto.ValidatePoint(k.Public); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSignatureInvalid, err)
	}
	return nil
}

// VerifyBatch returns the keys whose signature verifies under journalistPub
// and the number rejected. A forged entry does not stop the others.
func VerifyBatch(journalistPub domain.Ed25519Public, keys []domain.EphemeralKeyPublic) ([]domain.EphemeralKeyPublic, int) {
	accepted := make([]domain.EphemeralKeyPublic, 0, len(keys))
	for _, k := range keys {
		if Verify(journalistPub, k) != nil {
			continue
		}
		accepted = append(accepted, k)
	}
	return accepted, len(keys) - len(accepted)
}

// Pool is the set of a journalist's local keys used for trial decryption.
// It is safe for concurrent use.
type Pool struct {
	mu      sync.Mutex
	store   domain.EphemeralKeyStore
	index   int
	records []domain.EphemeralKeyRecord
	log     *logging.Logger
}

// Pool loads the keys of journalist index.
func (m *Manager) Pool(index int) (*Pool, error) {
	recs, err := m.store.ListEphemeralKeys(index)
	if err != nil {
		return nil, err
	}
	return &Pool{store: m.store, index: index, records: recs, log: m.log}, nil
}

// Len returns the number of unconsumed keys.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, r := range p.records {
		if !r.Consumed {
			n++
		}
	}
	return n
}

// Unconsumed yields the keys not yet consumed, in publication order.
func (p *Pool) Unconsumed() iter.Seq2[int, domain.EphemeralKeyRecord] {
	return func(yield func(int, domain.EphemeralKeyRecord) bool) {
		for i := 0; ; i++ {
			p.mu.Lock()
			if i >= len(p.records) {
				p.mu.Unlock()
				return
			}
			r := p.records[i]
			p.mu.Unlock()
			if r.Consumed {
				continue
			}
			if !yield(i, r) {
				return
			}
		}
	}
}

// TryDecrypt tries unconsumed keys in order until one opens env. On success
// that key is consumed and deleted from the store. When no key matches it
// returns domain.ErrNoMatchingKey and nothing is consumed. attempts is the
// number of keys tried.
func (p *Pool) TryDecrypt(env domain.MessageEnvelope) (msg domain.Message, attempts int, err error) {
	for i, r := range p.Unconsumed() {
		attempts++
		kp := domain.GroupKeyPair{Role: domain.RoleEphemeral, Public: r.Public, Private: r.Private}
		opened, openErr := box.OpenEnvelope(kp, env)
		if openErr != nil {
			continue
		}
		if err := p.consume(i, r.ID); err != nil {
			return domain.Message{}, attempts, err
		}
		p.log.Debugf("journalist %d: message opened after %d attempts", p.index, attempts)
		return opened, attempts, nil
	}
	return domain.Message{}, attempts, domain.ErrNoMatchingKey
}

func (p *Pool) consume(i int, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.records[i].Consumed {
		return fmt.Errorf("ephemeral key %s: %w", id, domain.ErrNoMatchingKey)
	}
	ok, err := p.store.ConsumeEphemeralKey(p.index, id)
	if err != nil {
		return fmt.Errorf("consume ephemeral key %s: %w", id, err)
	}
	// The store is the single-use guard across pools: a missing record was
	// consumed by another reader.
	p.records[i].Consumed = true
	if !ok {
		p.log.Warningf("journalist %d: ephemeral key %s already consumed", p.index, id)
		return fmt.Errorf("ephemeral key %s already consumed: %w", id, domain.ErrNoMatchingKey)
	}
	return nil
}
