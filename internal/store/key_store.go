package store

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"deaddrop/internal/domain"
	"deaddrop/internal/util/memzero"
)

const (
	journalistsDir = "journalists"

	pubExt = ".pub"
	keyExt = ".key"
	sigExt = ".sig"
	uidExt = ".uid"
)

// Option tunes a file store.
type Option func(*options)

type options struct {
	kdf kdfParams
}

// WithScrypt overrides the scrypt cost parameters used when sealing private
// keys. Existing files keep the parameters they were written with.
func WithScrypt(n, r, p int) Option {
	return func(o *options) { o.kdf = kdfParams{N: n, R: r, P: p} }
}

func buildOptions(opts []Option) options {
	o := options{kdf: scryptParamsDefault()}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// KeyFileStore persists chain keys, challenge keys, certificates and
// registration uids under one directory.
type KeyFileStore struct {
	dir        string
	passphrase string
	opts       options
	mu         sync.Mutex
}

// NewKeyFileStore returns a KeyFileStore rooted at dir. passphrase seals and
// opens every private key file.
func NewKeyFileStore(dir, passphrase string, opts ...Option) *KeyFileStore {
	return &KeyFileStore{dir: dir, passphrase: passphrase, opts: buildOptions(opts)}
}

// Dir returns the root directory of the store.
func (s *KeyFileStore) Dir() string { return s.dir }

// base returns the path prefix (without extension) for ref.
func (s *KeyFileStore) base(ref domain.KeyRef) (string, error) {
	switch ref.Role {
	case domain.RoleRoot, domain.RoleIntermediate:
		return filepath.Join(s.dir, ref.Role.String()), nil
	case domain.RoleJournalist:
		return filepath.Join(s.dir, journalistsDir, fmt.Sprintf("journalist_%d", ref.Index)), nil
	case domain.RoleChallenge:
		return filepath.Join(s.dir, journalistsDir, fmt.Sprintf("journalist_%d_challenge", ref.Index)), nil
	default:
		return "", fmt.Errorf("%w: no file layout for %s keys", domain.ErrMalformed, ref.Role)
	}
}

// SaveSigningKey writes kp as <base>.pub and a sealed <base>.key.
func (s *KeyFileStore) SaveSigningKey(ref domain.KeyRef, kp domain.SigningKeyPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	base, err := s.base(ref)
	if err != nil {
		return err
	}
	return s.saveKeyFiles(base, ref, kp.Public[:], kp.Private[:])
}

// LoadSigningKey reads and unseals the keypair stored for ref.
func (s *KeyFileStore) LoadSigningKey(ref domain.KeyRef) (domain.SigningKeyPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base, err := s.base(ref)
	if err != nil {
		return domain.SigningKeyPair{}, err
	}
	kp := domain.SigningKeyPair{Role: ref.Role}
	if err := s.loadKeyFiles(base, ref, kp.Public[:], kp.Private[:]); err != nil {
		return domain.SigningKeyPair{}, err
	}
	// An Ed25519 private key carries its public half in the last 32 bytes.
	if !bytes.Equal(kp.Private[32:], kp.Public[:]) {
		return domain.SigningKeyPair{}, fmt.Errorf("%s: %w: public and private halves differ", ref, domain.ErrMalformed)
	}
	return kp, nil
}

// LoadSigningPublic reads only <base>.pub.
func (s *KeyFileStore) LoadSigningPublic(ref domain.KeyRef) (domain.Ed25519Public, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pub domain.Ed25519Public
	base, err := s.base(ref)
	if err != nil {
		return pub, err
	}
	err = readText(base+pubExt, pub[:])
	return pub, err
}

// SaveGroupKey writes a challenge keypair.
func (s *KeyFileStore) SaveGroupKey(ref domain.KeyRef, kp domain.GroupKeyPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	base, err := s.base(ref)
	if err != nil {
		return err
	}
	return s.saveKeyFiles(base, ref, kp.Public[:], kp.Private[:])
}

// LoadGroupKey reads and unseals a challenge keypair.
func (s *KeyFileStore) LoadGroupKey(ref domain.KeyRef) (domain.GroupKeyPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base, err := s.base(ref)
	if err != nil {
		return domain.GroupKeyPair{}, err
	}
	kp := domain.GroupKeyPair{Role: ref.Role}
	if err := s.loadKeyFiles(base, ref, kp.Public[:], kp.Private[:]); err != nil {
		return domain.GroupKeyPair{}, err
	}
	return kp, nil
}

// SaveCertificate writes cert as <base>.sig.
func (s *KeyFileStore) SaveCertificate(ref domain.KeyRef, cert domain.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	base, err := s.base(ref)
	if err != nil {
		return err
	}
	return writeJSON(base+sigExt, cert)
}

// LoadCertificate reads <base>.sig.
func (s *KeyFileStore) LoadCertificate(ref domain.KeyRef) (domain.Certificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base, err := s.base(ref)
	if err != nil {
		return domain.Certificate{}, err
	}
	var cert domain.Certificate
	found, err := readJSON(base+sigExt, &cert)
	switch {
	case err != nil:
		return domain.Certificate{}, fmt.Errorf("%s certificate: %w: %v", ref, domain.ErrMalformed, err)
	case !found:
		return domain.Certificate{}, fmt.Errorf("%s certificate: %w", ref, domain.ErrNotFound)
	}
	return cert, nil
}

// SaveUID records the server-assigned uid of journalist index.
func (s *KeyFileStore) SaveUID(index int, uid domain.JournalistUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	base, err := s.base(domain.KeyRef{Role: domain.RoleJournalist, Index: index})
	if err != nil {
		return err
	}
	return writeFile(base+uidExt, []byte(uid.String()+"\n"), publicMode)
}

// LoadUID returns the uid of journalist index, if it has registered.
func (s *KeyFileStore) LoadUID(index int) (domain.JournalistUID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base, err := s.base(domain.KeyRef{Role: domain.RoleJournalist, Index: index})
	if err != nil {
		return "", false, err
	}
	b, err := readFile(base + uidExt)
	if err != nil || b == nil {
		return "", false, err
	}
	uid := strings.TrimSpace(string(b))
	if uid == "" {
		return "", false, nil
	}
	return domain.JournalistUID(uid), true, nil
}

func (s *KeyFileStore) saveKeyFiles(base string, ref domain.KeyRef, pub, priv []byte) error {
	if err := writeSealed(base+keyExt, s.passphrase, priv, []byte(ref.String()), s.opts.kdf); err != nil {
		return err
	}
	return writeText(base+pubExt, pub)
}

func (s *KeyFileStore) loadKeyFiles(base string, ref domain.KeyRef, pub, priv []byte) error {
	if err := readText(base+pubExt, pub); err != nil {
		return fmt.Errorf("%s: %w", ref, err)
	}
	raw, err := readSealed(base+keyExt, s.passphrase, []byte(ref.String()))
	if err != nil {
		return fmt.Errorf("%s: %w", ref, err)
	}
	if raw == nil {
		return fmt.Errorf("%s private key: %w", ref, domain.ErrNotFound)
	}
	defer memzero.Zero(raw)
	if len(raw) != len(priv) {
		return fmt.Errorf("%s: %w: private key is %d bytes", ref, domain.ErrMalformed, len(raw))
	}
	copy(priv, raw)
	return nil
}

// writeText writes b base64 encoded on a single line.
func writeText(path string, b []byte) error {
	var p domain.Point // same 32-byte text codec as every public key
	if len(b) != len(p) {
		return fmt.Errorf("%w: public key is %d bytes", domain.ErrMalformed, len(b))
	}
	copy(p[:], b)
	txt, _ := p.MarshalText()
	return writeFile(path, append(txt, '\n'), publicMode)
}

// readText decodes a file written by writeText into dst.
func readText(path string, dst []byte) error {
	b, err := readFile(path)
	if err != nil {
		return err
	}
	if b == nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), domain.ErrNotFound)
	}
	var p domain.Point
	if err := p.UnmarshalText(bytes.TrimSpace(b)); err != nil {
		return fmt.Errorf("%s: %w: %v", filepath.Base(path), domain.ErrMalformed, err)
	}
	copy(dst, p[:])
	return nil
}

// Compile-time assertion that KeyFileStore implements domain.KeyStore.
var _ domain.KeyStore = (*KeyFileStore)(nil)
