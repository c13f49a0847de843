// Package memstore is an in-memory server store.
package memstore

import (
	"sync"

	"deaddrop/internal/domain"
)

// Store keeps journalists, their published keys and deposited messages in
// memory. It is safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	journalists map[domain.JournalistUID]domain.Journalist
	order       []domain.JournalistUID
	keys        map[domain.JournalistUID][]domain.EphemeralKeyPublic
	seen        map[domain.JournalistUID]map[domain.Point]struct{}
	messages    map[domain.MessageID]domain.MessageEnvelope
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		journalists: make(map[domain.JournalistUID]domain.Journalist),
		keys:        make(map[domain.JournalistUID][]domain.EphemeralKeyPublic),
		seen:        make(map[domain.JournalistUID]map[domain.Point]struct{}),
		messages:    make(map[domain.MessageID]domain.MessageEnvelope),
	}
}

// AddJournalist stores j unless its signing key is already registered.
func (s *Store) AddJournalist(j domain.Journalist) (domain.Journalist, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, uid := range s.order {
		if cur := s.journalists[uid]; cur.SigningKey == j.SigningKey {
			return cur, false, nil
		}
	}
	if _, ok := s.journalists[j.UID]; !ok {
		s.order = append(s.order, j.UID)
	}
	s.journalists[j.UID] = j
	return j, true, nil
}

// GetJournalist returns the journalist with uid.
func (s *Store) GetJournalist(uid domain.JournalistUID) (domain.Journalist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.journalists[uid]
	if !ok {
		return domain.Journalist{}, domain.ErrNotFound
	}
	return j, nil
}

// ListJournalists returns journalists in registration order.
func (s *Store) ListJournalists() ([]domain.Journalist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Journalist, 0, len(s.order))
	for _, uid := range s.order {
		out = append(out, s.journalists[uid])
	}
	return out, nil
}

// AddEphemeralKeys appends the keys not seen before to the journalist's
// queue.
func (s *Store) AddEphemeralKeys(uid domain.JournalistUID, keys []domain.EphemeralKeyPublic) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.journalists[uid]; !ok {
		return 0, domain.ErrNotFound
	}
	seen := s.seen[uid]
	if seen == nil {
		seen = make(map[domain.Point]struct{})
		s.seen[uid] = seen
	}
	added := 0
	for _, k := range keys {
		if _, dup := seen[k.Public]; dup {
			continue
		}
		seen[k.Public] = struct{}{}
		s.keys[uid] = append(s.keys[uid], k)
		added++
	}
	return added, nil
}

// PopEphemeralKey removes the oldest key of the journalist.
func (s *Store) PopEphemeralKey(uid domain.JournalistUID) (domain.EphemeralKeyPublic, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.keys[uid]
	if len(q) == 0 {
		return domain.EphemeralKeyPublic{}, false, nil
	}
	k := q[0]
	s.keys[uid] = q[1:]
	return k, true, nil
}

// PutMessage stores env under env.ID.
func (s *Store) PutMessage(env domain.MessageEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages[env.ID] = env
	return nil
}

// GetMessage returns the envelope with id.
func (s *Store) GetMessage(id domain.MessageID) (domain.MessageEnvelope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	env, ok := s.messages[id]
	if !ok {
		return domain.MessageEnvelope{}, domain.ErrNotFound
	}
	return env, nil
}

// DeleteMessage removes the envelope with id.
func (s *Store) DeleteMessage(id domain.MessageID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.messages, id)
	return nil
}

// ListMessages returns every stored envelope, in no particular order.
func (s *Store) ListMessages() ([]domain.MessageEnvelope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.MessageEnvelope, 0, len(s.messages))
	for _, env := range s.messages {
		out = append(out, env)
	}
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

var (
	_ domain.MessageStore    = (*Store)(nil)
	_ domain.JournalistStore = (*Store)(nil)
)
