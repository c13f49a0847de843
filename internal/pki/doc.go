// Package pki issues and verifies the root -> intermediate -> journalist
// certificate chain and the per-journalist challenge key certificates.
//
// Every link must verify before a journalist key is trusted. A failing link
// is reported as domain.ErrChainVerification and callers must stop.
package pki
