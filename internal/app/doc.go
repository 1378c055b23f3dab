// Package app is the composition root of the order board.
//
// Run loads the client config and prefs, opens the zap log file, and calls
// Build to wire the core:
//
//	api.Client ─┬─> pager ──(orders fetcher)──┐
//	            ├─> loader.Sources ───────────┴─> loader ─> state.Store
//	            ├─> mutation.Engine ──(forced refetch)──> loader
//	            └─> realtime.Listener ──(update frames)──> loader
//	kv.SQLite ──┬─> state.Store (warm-start mirror)
//	            └─> overlay (device-local completion times)
//
// Start runs the listener and the Refresher in the background. The
// refresher re-fetches the menu and settings on a fixed cadence and
// orders only while the update stream is down, backing off exponentially
// on consecutive failures. The UI reads the store through subscriptions
// and never calls the API client directly.
package app
