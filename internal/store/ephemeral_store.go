package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"

	"deaddrop/internal/domain"
	"deaddrop/internal/util/memzero"
)

const ephemeralFile = "ephemeral.json"

// EphemeralFileStore persists each journalist's one-time private keys as a
// sealed list under journalists/<n>/ephemeral.json.
type EphemeralFileStore struct {
	dir        string
	passphrase string
	opts       options
	mu         sync.Mutex
}

// NewEphemeralFileStore returns an EphemeralFileStore rooted at dir.
func NewEphemeralFileStore(dir, passphrase string, opts ...Option) *EphemeralFileStore {
	return &EphemeralFileStore{dir: dir, passphrase: passphrase, opts: buildOptions(opts)}
}

func (s *EphemeralFileStore) path(index int) string {
	return filepath.Join(s.dir, journalistsDir, strconv.Itoa(index), ephemeralFile)
}

func (s *EphemeralFileStore) ad(index int) []byte {
	return []byte(fmt.Sprintf("ephemeral/%d", index))
}

// SaveEphemeralKeys merges records into the journalist's pool. A record with
// an id already present replaces it.
func (s *EphemeralFileStore) SaveEphemeralKeys(index int, records []domain.EphemeralKeyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.load(index)
	if err != nil {
		return err
	}
	pos := make(map[string]int, len(cur))
	for i, r := range cur {
		pos[r.ID] = i
	}
	for _, r := range records {
		if i, ok := pos[r.ID]; ok {
			cur[i] = r
			continue
		}
		pos[r.ID] = len(cur)
		cur = append(cur, r)
	}
	return s.store(index, cur)
}

// ListEphemeralKeys returns the journalist's pool in publication order.
func (s *EphemeralFileStore) ListEphemeralKeys(index int) ([]domain.EphemeralKeyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(index)
}

// ConsumeEphemeralKey deletes the record with id; ok is false if it was not
// present.
func (s *EphemeralFileStore) ConsumeEphemeralKey(index int, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.load(index)
	if err != nil {
		return false, err
	}
	out := cur[:0]
	found := false
	for _, r := range cur {
		if r.ID == id {
			found = true
			continue
		}
		out = append(out, r)
	}
	if !found {
		return false, nil
	}
	return true, s.store(index, out)
}

func (s *EphemeralFileStore) load(index int) ([]domain.EphemeralKeyRecord, error) {
	raw, err := readSealed(s.path(index), s.passphrase, s.ad(index))
	if err != nil {
		return nil, fmt.Errorf("ephemeral keys %d: %w", index, err)
	}
	if raw == nil {
		return nil, nil
	}
	defer memzero.Zero(raw)
	var recs []domain.EphemeralKeyRecord
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, fmt.Errorf("ephemeral keys %d: %w: %v", index, domain.ErrMalformed, err)
	}
	return recs, nil
}

func (s *EphemeralFileStore) store(index int, recs []domain.EphemeralKeyRecord) error {
	if recs == nil {
		recs = []domain.EphemeralKeyRecord{}
	}
	raw, err := json.Marshal(recs)
	if err != nil {
		return err
	}
	defer memzero.Zero(raw)
	return writeSealed(s.path(index), s.passphrase, raw, s.ad(index), s.opts.kdf)
}

// Compile-time assertion that EphemeralFileStore implements domain.EphemeralKeyStore.
var _ domain.EphemeralKeyStore = (*EphemeralFileStore)(nil)
