// Package state holds the client's in-memory entity store.
//
// # Overview
//
// The Store keeps the last known value of four collections: categories,
// meals, settings and orders (with the pagination cursor of the current
// order list). Loaders, the pager and the mutation engine write into it;
// the UI reads from it and re-renders when notified.
//
//	Writers:                     Readers:
//	┌──────────────────┐        ┌──────────────────┐
//	│ loader commits   │        │ store.Orders()   │
//	│ pager pages      │───────→│ store.Settings() │
//	│ optimistic edits │ (lock) │ Subscribe()      │
//	└──────────────────┘        └──────────────────┘
//
// # Snapshot Semantics
//
// Every read returns a deep copy. Every write replaces a whole collection,
// either with Set* or with an Update* transform that receives a private copy
// of the current value and returns the next one. The transform runs under
// the store's write lock, so a read-modify-write of one record can never be
// interleaved with another writer.
//
// A failed load never touches data:
//
//	store.MarkFailed(state.Orders, err)
//	→ orders unchanged
//	→ Status(Orders).Loaded = false
//	→ Status(Orders).ConsecutiveFailures++
//
// # Settings
//
// SetSettings merges field by field. A partial write such as {isOpen:false}
// leaves every other field alone. Before the first successful load every
// field is nil, which the UI renders as "unknown" rather than "closed".
//
// # Durable Mirror
//
// When built with a kv.Store, every write is mirrored as JSON under
// "cache/<kind>". Restore reads the mirror back at startup; restored data is
// shown immediately but Loaded stays false until a fetch succeeds.
//
// # Notifications
//
// Subscribe returns a one-slot channel per subscriber. Bursts of writes
// coalesce into a single pending signal, and writers never block on a slow
// reader.
//
// The zero value Store is usable and keeps nothing on disk.
package state
