// Package server implements the deaddrop server: journalist registration,
// one-time key distribution, message deposit and retrieval, and the server
// half of recipient-blind discovery, exposed over HTTP+JSON.
//
// The server never learns which recipient a message is for. It only checks
// that what it stores is well formed and that every journalist and key it
// hands out chains to its trust anchor.
package server
