// Package api provides the wire types and HTTP client for the fassr server.
//
// # Overview
//
// The package mirrors the JSON contract served by cmd/fassr-server: the
// read and write endpoints for categories, meals, settings and orders, and
// the text/event-stream used for change signals.
//
//   - types.go: data structures and order status rules
//   - client.go: HTTP client, one method per endpoint
//   - errors.go: error taxonomy shared by the synchronization packages
//
// # Endpoints
//
//   - GET/POST/PUT/DELETE /api/categories
//   - GET/POST/PUT/DELETE /api/meals (GET accepts page, limit, categoryId, active, search)
//   - GET/PUT /api/settings (PUT merges partial records)
//   - GET/POST/PUT/DELETE /api/orders (GET accepts page, limit, search, status)
//   - GET /api/updates (event stream, see package realtime)
//
// # Error Handling
//
// Every error returned by Client can be classified with errors.Is:
//
//   - ErrNetwork: the request never produced a response (stale data stays valid)
//   - ErrRejected: the server answered with a 4xx/5xx status
//   - ErrUnauthorized: 401/403, the session must be renewed elsewhere
//
// Decode failures are wrapped with fmt.Errorf and match none of them.
//
// # Order Status Rules
//
// Orders move new → preparing → ready → delivered. Each of preparing, ready
// and delivered may step back once ("go back"), and any order still in
// flight may be cancelled. CanTransition encodes exactly these moves.
//
// # Thread Safety
//
// Client is safe for concurrent use. Requests use a 10 second timeout; the
// event stream uses a separate client without one, bounded only by its
// context.
package api
