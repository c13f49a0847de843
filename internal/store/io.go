package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Public material is world readable; sealed files are owner only.
const (
	publicMode os.FileMode = 0o644
	secretMode os.FileMode = 0o600
	dirMode    os.FileMode = 0o700
)

// readFile reads path. A missing file yields nil, nil.
func readFile(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return b, err
}

// readJSON decodes path into out and reports whether the file existed.
func readJSON(path string, out any) (bool, error) {
	b, err := readFile(path)
	if err != nil || b == nil {
		return false, err
	}
	return true, json.Unmarshal(b, out)
}

// writeJSON writes v indented, as public material.
func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(path, b, publicMode)
}

// writeSealed seals raw under passphrase, bound to ad, and writes it owner
// only.
func writeSealed(path, passphrase string, raw, ad []byte, kp kdfParams) error {
	sealed, err := encrypt(passphrase, raw, ad, kp)
	if err != nil {
		return err
	}
	return writeFile(path, sealed, secretMode)
}

// readSealed opens a file written by writeSealed. A missing file yields
// nil, nil. The caller owns, and should wipe, the returned plaintext.
func readSealed(path, passphrase string, ad []byte) ([]byte, error) {
	sealed, err := readFile(path)
	if err != nil || sealed == nil {
		return nil, err
	}
	return decrypt(passphrase, sealed, ad)
}

// writeFile writes b to a synced temp file in the same directory and renames
// it over path. Missing parent directories are created.
func writeFile(path string, b []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return err
	}

	f, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	for _, step := range []func() error{
		func() error { _, err := f.Write(b); return err },
		func() error { return f.Chmod(mode) },
		f.Sync,
	} {
		if err := step(); err != nil {
			_ = f.Close()
			return err
		}
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
