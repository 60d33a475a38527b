// Package cli provides the interactive medkeeper command-line client.
//
// It wires configuration, the local SQLite cache, the profile server client,
// the session keystore and the unlock controller behind a small REPL. A
// background watcher pings the server and switches between online and
// offline mode; a returning user can unlock offline from the cached profile.
//
// Commands:
//   - register: create a user and profile on the server and store the session
//   - login: sign in again; the session is bound to the same profile
//   - unlock / lock: open or close the session keys
//   - seal / open: encrypt or decrypt a text under the master key
//   - status: show lock state, connectivity and failed attempts
//   - logout: lock, then forget the local session and cache
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
