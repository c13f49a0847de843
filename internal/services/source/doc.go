// Package source implements the source side of deaddrop: submitting to every
// verified journalist and reading replies.
//
// A source has no stored state. Its challenge and encryption keys are derived
// from its passphrase each time, so the same passphrase on any device finds
// the same replies.
package source
