// Package store provides file-based persistence for a deaddrop client's keys.
//
// It contains concrete implementations of the domain storage interfaces.
// Private halves are sealed with a passphrase (scrypt + ChaCha20-Poly1305)
// before they touch disk; public halves and certificates are plain files so
// that verification needs no passphrase. All writes go through a temp file
// and rename, and all methods are concurrency-safe via internal locking.
//
// Layout under the keys directory:
//
//	root.pub root.key
//	intermediate.pub intermediate.key intermediate.sig
//	journalists/journalist_<n>.pub .key .sig .uid
//	journalists/journalist_<n>_challenge.pub .key .sig
//	journalists/<n>/ephemeral.json
//
// The package includes stores for:
//   - Chain, challenge and registration state (KeyFileStore)
//   - One-time ephemeral keys (EphemeralFileStore)
package store
