// Package boltstore is a bbolt-backed server store. Records are CBOR encoded.
package boltstore

import (
	"encoding/binary"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	bolt "go.etcd.io/bbolt"

	"deaddrop/internal/domain"
)

const (
	metadataBucket    = "metadata"
	journalistsBucket = "journalists"
	keysBucket        = "ephemeral_keys"
	seenBucket        = "seen_keys"
	messagesBucket    = "messages"

	versionKey = "version"
	version    = 0
)

// Store persists server state in a single bbolt file.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists([]byte(metadataBucket))
		if err != nil {
			return err
		}
		for _, name := range []string{journalistsBucket, keysBucket, seenBucket, messagesBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		if b := meta.Get([]byte(versionKey)); b != nil {
			if len(b) != 1 || b[0] != version {
				return fmt.Errorf("boltstore: incompatible version: %d", uint(b[0]))
			}
			return nil
		}
		return meta.Put([]byte(versionKey), []byte{version})
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	if err := s.db.Sync(); err != nil {
		_ = s.db.Close()
		return err
	}
	return s.db.Close()
}

// AddJournalist stores j under its uid unless its signing key is already
// registered. The lookup and the write share one transaction.
func (s *Store) AddJournalist(j domain.Journalist) (domain.Journalist, bool, error) {
	raw, err := cbor.Marshal(j)
	if err != nil {
		return domain.Journalist{}, false, err
	}
	var (
		stored  = j
		created bool
	)
	err = s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(journalistsBucket))
		c := bkt.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var cur domain.Journalist
			if err := cbor.Unmarshal(v, &cur); err != nil {
				return err
			}
			if cur.SigningKey == j.SigningKey {
				stored = cur
				return nil
			}
		}
		created = true
		return bkt.Put([]byte(j.UID), raw)
	})
	if err != nil {
		return domain.Journalist{}, false, err
	}
	return stored, created, nil
}

// GetJournalist returns the journalist with uid.
func (s *Store) GetJournalist(uid domain.JournalistUID) (domain.Journalist, error) {
	var j domain.Journalist
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(journalistsBucket)).Get([]byte(uid))
		if raw == nil {
			return domain.ErrNotFound
		}
		return cbor.Unmarshal(raw, &j)
	})
	return j, err
}

// ListJournalists returns every journalist, ordered by uid.
func (s *Store) ListJournalists() ([]domain.Journalist, error) {
	out := []domain.Journalist{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(journalistsBucket)).ForEach(func(_, v []byte) error {
			var j domain.Journalist
			if err := cbor.Unmarshal(v, &j); err != nil {
				return err
			}
			out = append(out, j)
			return nil
		})
	})
	return out, err
}

// AddEphemeralKeys appends keys to the journalist's queue, a nested bucket
// keyed by sequence number. Every accepted key is also recorded in the
// journalist's seen_keys bucket, so a key is queued at most once.
func (s *Store) AddEphemeralKeys(uid domain.JournalistUID, keys []domain.EphemeralKeyPublic) (int, error) {
	added := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(journalistsBucket)).Get([]byte(uid)) == nil {
			return domain.ErrNotFound
		}
		bkt, err := tx.Bucket([]byte(keysBucket)).CreateBucketIfNotExists([]byte(uid))
		if err != nil {
			return err
		}
		seen, err := tx.Bucket([]byte(seenBucket)).CreateBucketIfNotExists([]byte(uid))
		if err != nil {
			return err
		}
		for _, k := range keys {
			if seen.Get(k.Public[:]) != nil {
				continue
			}
			if err := seen.Put(k.Public[:], []byte{1}); err != nil {
				return err
			}
			seq, err := bkt.NextSequence()
			if err != nil {
				return err
			}
			raw, err := cbor.Marshal(k)
			if err != nil {
				return err
			}
			var key [8]byte
			binary.BigEndian.PutUint64(key[:], seq)
			if err := bkt.Put(key[:], raw); err != nil {
				return err
			}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// PopEphemeralKey removes the oldest key of the journalist.
func (s *Store) PopEphemeralKey(uid domain.JournalistUID) (domain.EphemeralKeyPublic, bool, error) {
	var (
		k  domain.EphemeralKeyPublic
		ok bool
	)
	err := s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(keysBucket)).Bucket([]byte(uid))
		if bkt == nil {
			return nil
		}
		c := bkt.Cursor()
		key, raw := c.First()
		if key == nil {
			return nil
		}
		if err := cbor.Unmarshal(raw, &k); err != nil {
			return err
		}
		ok = true
		return c.Delete()
	})
	if err != nil {
		return domain.EphemeralKeyPublic{}, false, err
	}
	return k, ok, nil
}

// PutMessage stores env under env.ID.
func (s *Store) PutMessage(env domain.MessageEnvelope) error {
	raw, err := cbor.Marshal(env)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(messagesBucket)).Put([]byte(env.ID), raw)
	})
}

// GetMessage returns the envelope with id.
func (s *Store) GetMessage(id domain.MessageID) (domain.MessageEnvelope, error) {
	var env domain.MessageEnvelope
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(messagesBucket)).Get([]byte(id))
		if raw == nil {
			return domain.ErrNotFound
		}
		return cbor.Unmarshal(raw, &env)
	})
	return env, err
}

// DeleteMessage removes the envelope with id.
func (s *Store) DeleteMessage(id domain.MessageID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(messagesBucket))
		if bkt.Get([]byte(id)) == nil {
			return domain.ErrNotFound
		}
		return bkt.Delete([]byte(id))
	})
}

// ListMessages returns every stored envelope.
func (s *Store) ListMessages() ([]domain.MessageEnvelope, error) {
	out := []domain.MessageEnvelope{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(messagesBucket)).ForEach(func(_, v []byte) error {
			var env domain.MessageEnvelope
			if err := cbor.Unmarshal(v, &env); err != nil {
				return err
			}
			out = append(out, env)
			return nil
		})
	})
	return out, err
}

var (
	_ domain.MessageStore    = (*Store)(nil)
	_ domain.JournalistStore = (*Store)(nil)
)
