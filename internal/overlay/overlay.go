// Package overlay keeps order completion times recorded on this device.
//
// The server does not persist when an order was delivered. The first time
// this client moves an order to delivered it records the moment here, and
// every order fetched later is hydrated from that record. Entries are
// write-once and device-scoped: two devices may disagree.
package overlay

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/frer-max/fassr/internal/api"
	"github.com/frer-max/fassr/internal/kv"
)

const storageKey = "overlay/completed"

// Overlay maps order ids to completion timestamps.
type Overlay struct {
	mu      sync.Mutex
	store   kv.Store
	logger  *zap.Logger
	entries map[int64]time.Time
	loaded  bool
}

// New returns an Overlay persisted through store. A nil store keeps the
// entries in memory only.
func New(store kv.Store, logger *zap.Logger) *Overlay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Overlay{store: store, logger: logger}
}

// RecordCompletion stores at as the completion time of id unless an entry
// already exists. It reports whether it wrote.
func (o *Overlay) RecordCompletion(id int64, at time.Time) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.loadLocked()
	if _, ok := o.entries[id]; ok {
		return false, nil
	}
	o.entries[id] = at.UTC()
	if err := o.saveLocked(); err != nil {
		return true, err
	}
	return true, nil
}

// CompletedAt returns the recorded completion time of id.
func (o *Overlay) CompletedAt(id int64) (time.Time, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.loadLocked()
	at, ok := o.entries[id]
	return at, ok
}

// Hydrate fills in CompletedAt for a delivered order that lacks it, first
// from the overlay and otherwise from CreatedAt. Other orders pass through.
func (o *Overlay) Hydrate(order api.Order) api.Order {
	if order.Status != api.StatusDelivered || order.CompletedAt != nil {
		return order
	}
	if at, ok := o.CompletedAt(order.ID); ok {
		order.CompletedAt = &at
		return order
	}
	if !order.CreatedAt.IsZero() {
		at := order.CreatedAt
		order.CompletedAt = &at
	}
	return order
}

// HydrateAll applies Hydrate to every order in list.
func (o *Overlay) HydrateAll(list []api.Order) []api.Order {
	out := make([]api.Order, len(list))
	for i, order := range list {
		out[i] = o.Hydrate(order)
	}
	return out
}

func (o *Overlay) loadLocked() {
	if o.loaded {
		return
	}
	o.loaded = true
	o.entries = make(map[int64]time.Time)
	if o.store == nil {
		return
	}
	raw, ok, err := o.store.Get(storageKey)
	if err != nil {
		o.logger.Warn("read completion overlay failed", zap.Error(err))
		return
	}
	if !ok || raw == "" {
		return
	}
	if err := json.Unmarshal([]byte(raw), &o.entries); err != nil {
		o.logger.Warn("decode completion overlay failed", zap.Error(err))
		o.entries = make(map[int64]time.Time)
	}
}

func (o *Overlay) saveLocked() error {
	if o.store == nil {
		return nil
	}
	raw, err := json.Marshal(o.entries)
	if err != nil {
		return fmt.Errorf("encode overlay: %w", err)
	}
	if err := o.store.Set(storageKey, string(raw)); err != nil {
		return fmt.Errorf("persist overlay: %w", err)
	}
	return nil
}
