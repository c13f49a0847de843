// Package box seals messages to a recipient's encryption key and commits
// them to the recipient's challenge key for discovery.
//
// A fresh scalar m is drawn per message. The envelope carries m·G as its
// public key and m·C as its challenge, where C is the recipient's challenge
// key. The message key is HKDF-SHA256 over m·E (E the recipient's encryption
// key) and the frame is sealed with XChaCha20-Poly1305.
package box
