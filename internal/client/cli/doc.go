// Package cli is the interactive GophSync client.
//
// It drives the sync engine from a line-oriented REPL: register, log in
// online or from the offline credential cache, manage todos, trigger a sync
// and inspect the pending outbox. Writes made while offline are queued and
// replayed by the engine once the server is reachable again.
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
package cli
