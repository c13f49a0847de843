// Package relay provides an HTTP implementation of the domain.ServerClient
// interface used by deaddrop journalists and sources.
//
// Supported operations include:
//   - Registering a journalist and listing registered journalists.
//   - Fetching the server's trust anchor.
//   - Publishing and fetching one-time ephemeral keys.
//   - Depositing, fetching and deleting messages.
//   - Running the client half of a discovery round.
//
// All requests are JSON over HTTP and accept a context for cancellation and
// deadlines. Non-2xx statuses are mapped back to the domain sentinel errors
// (400 ErrMalformed, 403 ErrChainVerification, 413 ErrMessageTooLarge,
// 404 ErrNotFound or, for discovery, ErrSessionExpiredOrUnknown) with the
// server's message attached.
package relay
