package store_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"deaddrop/internal/domain"
	"deaddrop/internal/store"
)

func fastKDF() store.Option { return store.WithScrypt(1<<10, 8, 1) }

func newSigningKey(t *testing.T, role domain.Role) domain.SigningKeyPair {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	kp := domain.SigningKeyPair{Role: role}
	copy(kp.Public[:], pub)
	copy(kp.Private[:], priv)
	return kp
}

func TestSigningKey_SaveLoad_OK(t *testing.T) {
	dir := t.TempDir()
	var ks domain.KeyStore = store.NewKeyFileStore(dir, "pass", fastKDF())

	ref := domain.KeyRef{Role: domain.RoleJournalist, Index: 2}
	kp := newSigningKey(t, domain.RoleJournalist)
	if err := ks.SaveSigningKey(ref, kp); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := ks.LoadSigningKey(ref)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Public != kp.Public || got.Private != kp.Private {
		t.Fatalf("mismatch after load")
	}

	pub, err := ks.LoadSigningPublic(ref)
	if err != nil {
		t.Fatalf("load public: %v", err)
	}
	if pub != kp.Public {
		t.Fatalf("public mismatch")
	}

	for _, name := range []string{"journalist_2.pub", "journalist_2.key"} {
		if _, err := os.Stat(filepath.Join(dir, "journalists", name)); err != nil {
			t.Fatalf("expected %s on disk: %v", name, err)
		}
	}
}

func TestSigningKey_WrongPassphrase_Fails(t *testing.T) {
	dir := t.TempDir()
	ref := domain.KeyRef{Role: domain.RoleRoot}

	if err := store.NewKeyFileStore(dir, "correct", fastKDF()).SaveSigningKey(ref, newSigningKey(t, domain.RoleRoot)); err != nil {
		t.Fatalf("save: %v", err)
	}
	_, err := store.NewKeyFileStore(dir, "wrong", fastKDF()).LoadSigningKey(ref)
	if !errors.Is(err, store.ErrWrongPassphrase) {
		t.Fatalf("expected ErrWrongPassphrase, got %v", err)
	}
}

func TestKeyFile_SwappedBetweenRoles_Fails(t *testing.T) {
	dir := t.TempDir()
	ks := store.NewKeyFileStore(dir, "pass", fastKDF())

	if err := ks.SaveSigningKey(domain.KeyRef{Role: domain.RoleRoot}, newSigningKey(t, domain.RoleRoot)); err != nil {
		t.Fatal(err)
	}
	if err := ks.SaveSigningKey(domain.KeyRef{Role: domain.RoleIntermediate}, newSigningKey(t, domain.RoleIntermediate)); err != nil {
		t.Fatal(err)
	}
	for _, ext := range []string{".pub", ".key"} {
		b, err := os.ReadFile(filepath.Join(dir, "root"+ext))
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "intermediate"+ext), b, 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := ks.LoadSigningKey(domain.KeyRef{Role: domain.RoleIntermediate}); err == nil {
		t.Fatal("expected a root key file to be rejected as the intermediate")
	}
}

func TestGroupKeyAndCertificate_RoundTrip(t *testing.T) {
	ks := store.NewKeyFileStore(t.TempDir(), "pass", fastKDF())
	ref := domain.KeyRef{Role: domain.RoleChallenge, Index: 0}

	kp := domain.GroupKeyPair{Role: domain.RoleChallenge, Public: domain.Point{7}, Private: domain.Scalar{9}}
	if err := ks.SaveGroupKey(ref, kp); err != nil {
		t.Fatalf("save group key: %v", err)
	}
	got, err := ks.LoadGroupKey(ref)
	if err != nil {
		t.Fatalf("load group key: %v", err)
	}
	if got.Public != kp.Public || got.Private != kp.Private {
		t.Fatalf("group key mismatch")
	}

	cert := domain.Certificate{Subject: kp.Public[:], Issuer: domain.RoleJournalist, Signature: []byte{1, 2, 3}}
	if err := ks.SaveCertificate(ref, cert); err != nil {
		t.Fatalf("save cert: %v", err)
	}
	gotCert, err := ks.LoadCertificate(ref)
	if err != nil {
		t.Fatalf("load cert: %v", err)
	}
	if string(gotCert.Subject) != string(cert.Subject) || gotCert.Issuer != cert.Issuer || string(gotCert.Signature) != string(cert.Signature) {
		t.Fatalf("certificate mismatch: %+v", gotCert)
	}
}

func TestMissingFiles_NotFound(t *testing.T) {
	ks := store.NewKeyFileStore(t.TempDir(), "pass", fastKDF())
	ref := domain.KeyRef{Role: domain.RoleIntermediate}

	if _, err := ks.LoadSigningPublic(ref); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("public: expected ErrNotFound, got %v", err)
	}
	if _, err := ks.LoadCertificate(ref); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("cert: expected ErrNotFound, got %v", err)
	}
	if _, ok, err := ks.LoadUID(4); err != nil || ok {
		t.Fatalf("uid: expected absent, got ok=%v err=%v", ok, err)
	}
}

func TestUID_SaveLoad(t *testing.T) {
	ks := store.NewKeyFileStore(t.TempDir(), "pass", fastKDF())
	if err := ks.SaveUID(1, "5a1f4e8c-0000-4000-8000-000000000001"); err != nil {
		t.Fatal(err)
	}
	uid, ok, err := ks.LoadUID(1)
	if err != nil || !ok {
		t.Fatalf("load uid: ok=%v err=%v", ok, err)
	}
	if uid != "5a1f4e8c-0000-4000-8000-000000000001" {
		t.Fatalf("uid = %q", uid)
	}
}
