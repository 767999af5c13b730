// Package cli provides the interactive vanish command-line client.
//
// It wires configuration, the pending-finalize outbox, the gRPC client and
// an interactive REPL. Typical flow: paste an access token, upload a file,
// create protected media for a chat and view items sent to you in tap or
// hold mode with a live countdown.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher and runREPL for details.
package cli
