// Package loader coordinates reads of the entity collections.
//
// Each kind has at most one fetch in flight. Callers that arrive while a
// fetch runs wait for its result instead of issuing their own. A forced
// call made during a flight cannot trust that flight (it may have been
// answered before the change that triggered the force), so it queues a
// single follow-up fetch that starts when the current one ends. Forced
// callers arriving meanwhile join that same follow-up.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/frer-max/fassr/internal/state"
)

// Fetcher performs the network read for one kind. On success it returns a
// commit func that writes the result into the store.
type Fetcher func(ctx context.Context) (commit func(), err error)

// Loader deduplicates fetches per kind.
type Loader struct {
	store  *state.Store
	logger *zap.Logger

	mu      sync.Mutex
	sources map[state.Kind]Fetcher
	flights map[state.Kind]*flight

	fetches atomic.Int64
	failed  atomic.Int64
}

type flight struct {
	fetcher Fetcher
	done    chan struct{}
	err     error
	next    *flight
}

func newFlight(fetcher Fetcher) *flight {
	return &flight{fetcher: fetcher, done: make(chan struct{})}
}

// New returns a Loader writing into store. sources registers the default
// fetcher for each kind and may be nil.
func New(store *state.Store, sources map[state.Kind]Fetcher, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Loader{
		store:   store,
		logger:  logger,
		sources: make(map[state.Kind]Fetcher),
		flights: make(map[state.Kind]*flight),
	}
	for kind, fetcher := range sources {
		l.sources[kind] = fetcher
	}
	return l
}

// Register sets the default fetcher for kind.
func (l *Loader) Register(kind state.Kind, fetcher Fetcher) {
	l.mu.Lock()
	l.sources[kind] = fetcher
	l.mu.Unlock()
}

// Ensure loads kind with its registered fetcher.
func (l *Loader) Ensure(ctx context.Context, kind state.Kind, force bool) error {
	l.mu.Lock()
	fetcher := l.sources[kind]
	l.mu.Unlock()
	if fetcher == nil {
		return fmt.Errorf("no fetcher registered for %s", kind)
	}
	return l.EnsureLoaded(ctx, kind, fetcher, force)
}

// EnsureLoaded makes sure kind has been fetched. Without force it returns
// immediately when the kind is already loaded. With force it always waits
// for a fetch that started after the call.
func (l *Loader) EnsureLoaded(ctx context.Context, kind state.Kind, fetcher Fetcher, force bool) error {
	l.mu.Lock()
	if current := l.flights[kind]; current != nil {
		target := current
		if force {
			if current.next == nil {
				current.next = newFlight(fetcher)
			} else {
				current.next.fetcher = fetcher
			}
			target = current.next
		}
		l.mu.Unlock()
		return wait(ctx, target)
	}

	if !force && l.store.Loaded(kind) {
		l.mu.Unlock()
		return nil
	}

	f := newFlight(fetcher)
	l.flights[kind] = f
	l.mu.Unlock()

	go l.run(context.WithoutCancel(ctx), kind, f)
	return wait(ctx, f)
}

// LoadAll loads every registered kind concurrently and joins the failures.
func (l *Loader) LoadAll(ctx context.Context, force bool) error {
	l.mu.Lock()
	kinds := make([]state.Kind, 0, len(l.sources))
	for _, kind := range state.Kinds {
		if l.sources[kind] != nil {
			kinds = append(kinds, kind)
		}
	}
	l.mu.Unlock()

	// Every kind runs to completion; errs keeps one slot per kind so the
	// result names all failures, not only the first one Wait reports.
	var g errgroup.Group
	errs := make([]error, len(kinds))
	for i, kind := range kinds {
		i, kind := i, kind
		g.Go(func() error {
			if err := l.Ensure(ctx, kind, force); err != nil {
				errs[i] = fmt.Errorf("load %s: %w", kind, err)
				return errs[i]
			}
			return nil
		})
	}
	if err := g.Wait(); err == nil {
		return nil
	}
	return errors.Join(errs...)
}

// Fetches returns how many network fetches were started.
func (l *Loader) Fetches() int64 {
	return l.fetches.Load()
}

// Failures returns how many fetches failed.
func (l *Loader) Failures() int64 {
	return l.failed.Load()
}

// InFlight reports whether a fetch of kind is running.
func (l *Loader) InFlight(kind state.Kind) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.flights[kind] != nil
}

func (l *Loader) run(ctx context.Context, kind state.Kind, f *flight) {
	for f != nil {
		l.fetches.Inc()
		commit, err := f.fetcher(ctx)
		if err == nil {
			if commit != nil {
				commit()
			}
			l.store.MarkLoaded(kind)
		} else {
			l.failed.Inc()
			l.store.MarkFailed(kind, err)
			l.logger.Warn("fetch failed", zap.String("kind", string(kind)), zap.Error(err))
		}

		l.mu.Lock()
		f.err = err
		next := f.next
		if next != nil {
			l.flights[kind] = next
		} else {
			delete(l.flights, kind)
		}
		l.mu.Unlock()

		close(f.done)
		f = next
	}
}

func wait(ctx context.Context, f *flight) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
