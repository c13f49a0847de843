// Package app wires application dependencies for the commands.
//
// Wire builds the client key stores, the server client and the journalist
// and source services from Config. NewServer assembles the drop server from
// the [Server] configuration section.
package app
