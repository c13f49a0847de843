// Package commands defines the deaddrop CLI used by journalists, sources
// and the operator who provisions the certificate chain.
//
// Commands
//
//   - pki generate         Create the root, intermediate and journalist keys
//   - pki verify           Reload and verify the whole chain
//   - journalist register  Register a journalist with the server
//   - journalist publish   Generate and upload one-time keys
//   - journalist fetch     Discover messages addressed to a journalist
//   - journalist read      Open a message with a one-time key
//   - journalist reply     Answer a source using a saved message
//   - journalist delete    Remove a message from the server
//   - source identity      Print the fingerprint of the derived identity
//   - source submit        Send a message to every verified journalist
//   - source fetch         Discover replies for a passphrase
//   - source read          Open a reply
//   - version              Print the build version
//
// # Implementation
//
// The root command loads the TOML configuration, applies flag overrides
// and builds the dependency graph (stores, server client, services) before
// any subcommand runs.
package commands
