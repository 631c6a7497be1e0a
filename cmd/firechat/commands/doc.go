// Package commands defines the firechat CLI and wires dependencies for subcommands.
//
// Commands
//
//   - signin     Sign in anonymously, create or load the identity key
//   - whoami     Print your user id and fingerprint
//   - peer       Show a peer's published key fingerprint
//   - send       Encrypt and send a message
//   - recv       Fetch and decrypt queued messages
//   - history    Re-read the locally cached conversation with a peer
//   - signout    Forget the account and session state
//
// # Implementation
//
// The root command layers defaults, <home>/firechat.ini and flags into an
// app.Config and builds the dependency graph (stores, services, relay
// client) before any subcommand runs.
package commands
