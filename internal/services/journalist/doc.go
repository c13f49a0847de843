// Package journalist drives a provisioned journalist against a deaddrop
// server: registration, one-time key publication, discovery, reading,
// replying and deletion.
package journalist
