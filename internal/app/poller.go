package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/frer-max/fassr/internal/state"
)

const (
	defaultRefreshInterval = 30 * time.Second
	maxBackoff             = 5 * time.Minute
)

// Ensurer loads one kind through the deduplicating loader.
type Ensurer interface {
	Ensure(ctx context.Context, kind state.Kind, force bool) error
}

// Connection reports whether the update stream is live.
type Connection interface {
	Connected() bool
}

// Refresher re-fetches the catalog and settings on a fixed cadence. Orders
// are refreshed too while the update stream is down, which keeps the board
// current when no signal can arrive.
type Refresher struct {
	loader   Ensurer
	stream   Connection
	interval time.Duration
	logger   *zap.Logger
}

// NewRefresher returns a Refresher. A nil stream always refreshes orders.
func NewRefresher(loader Ensurer, stream Connection, interval time.Duration, logger *zap.Logger) *Refresher {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{loader: loader, stream: stream, interval: interval, logger: logger}
}

// Run refreshes until ctx is done. Consecutive failures stretch the wait
// exponentially up to maxBackoff.
func (r *Refresher) Run(ctx context.Context) {
	failures := 0
	for {
		wait := calculateBackoff(failures, r.interval)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
		if err := r.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			r.logger.Warn("background refresh failed",
				zap.Error(err),
				zap.Int("failures", failures),
				zap.Duration("next", calculateBackoff(failures, r.interval)))
			continue
		}
		failures = 0
	}
}

// Refresh forces one round of fetches and returns the first error.
func (r *Refresher) Refresh(ctx context.Context) error {
	kinds := []state.Kind{state.Categories, state.Meals, state.Settings}
	if r.stream == nil || !r.stream.Connected() {
		kinds = append(kinds, state.Orders)
	}
	var first error
	for _, kind := range kinds {
		if err := r.loader.Ensure(ctx, kind, true); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// calculateBackoff doubles base for each consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}
