// Package realtime carries change signals from the server to connected
// admin clients.
//
// # Server Side
//
// A Hub is created once per server process. Write handlers call a Notifier
// after every successful order write; the Notifier is either the Hub itself
// or a RedisRelay when several processes serve the same data. StreamHandler
// turns a hub subscription into a text/event-stream response:
//
//	data: connected     sent once, on open
//	data: update        one per orders signal
//	: ping              keep-alive comment
//
// Signals carry no payload. A subscriber that falls behind keeps at most
// one pending signal per kind, which is enough because the client reacts to
// any signal by fetching the current state.
//
// # Client Side
//
// Listener holds one stream open, reconnecting after a fixed backoff when
// it drops. Each update frame forces an order reload through the loader,
// and the first acknowledgement after a disconnect forces one as well, so a
// client converges no matter how many signals it missed.
//
// There is no replay, ordering or acknowledgement of individual signals.
package realtime
