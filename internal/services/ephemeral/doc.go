// Package ephemeral manages a journalist's one-time encryption keys.
//
// Keys are generated and signed in batches, published to the server and held
// locally until one decrypts a message, at which point the record is consumed
// and removed from disk. Each published key is used for at most one message.
package ephemeral
