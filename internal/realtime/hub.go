package realtime

import (
	"context"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/frer-max/fassr/internal/state"
)

// Signal says that a collection changed. It carries no data; receivers
// re-fetch.
type Signal struct {
	Kind state.Kind
}

// Notifier is what write handlers call after a successful write.
type Notifier interface {
	Notify(ctx context.Context, kind state.Kind) error
}

var _ Notifier = (*Hub)(nil)

// Hub fans signals out to every open subscription. Publish never blocks:
// each subscription keeps at most one pending signal per kind, so a slow
// stream loses duplicates but never a kind.
type Hub struct {
	mu      sync.Mutex
	subs    map[*Subscription]struct{}
	closed  *atomic.Bool
	metrics *Metrics
	logger  *zap.Logger
}

// NewHub returns an empty Hub. metrics may be nil.
func NewHub(metrics *Metrics, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:    make(map[*Subscription]struct{}),
		closed:  atomic.NewBool(false),
		metrics: metrics,
		logger:  logger,
	}
}

// Subscribe registers a new subscription. On a closed hub the returned
// subscription is already done.
func (h *Hub) Subscribe() *Subscription {
	s := &Subscription{
		hub:     h,
		pending: make(map[state.Kind]bool),
		ready:   make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	h.mu.Lock()
	if h.closed.Load() {
		h.mu.Unlock()
		close(s.done)
		return s
	}
	h.subs[s] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()

	h.metrics.setSubscribers(n)
	h.logger.Debug("stream subscribed", zap.Int("subscribers", n))
	return s
}

// Publish queues sig on every subscription.
func (h *Hub) Publish(sig Signal) {
	if h.closed.Load() {
		return
	}
	h.metrics.published(sig.Kind)

	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		if !s.offer(sig.Kind) {
			h.metrics.coalesced()
		}
	}
}

// Notify implements Notifier for a single process.
func (h *Hub) Notify(_ context.Context, kind state.Kind) error {
	h.Publish(Signal{Kind: kind})
	return nil
}

// Subscribers returns the number of open subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription. Later publishes are dropped.
func (h *Hub) Close() {
	if !h.closed.CAS(false, true) {
		return
	}
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[*Subscription]struct{})
	h.mu.Unlock()

	for s := range subs {
		s.finish()
	}
	h.metrics.setSubscribers(0)
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	delete(h.subs, s)
	n := len(h.subs)
	h.mu.Unlock()
	h.metrics.setSubscribers(n)
}

// Subscription receives signals from a Hub.
type Subscription struct {
	hub *Hub

	mu      sync.Mutex
	pending map[state.Kind]bool
	order   []state.Kind

	ready chan struct{}
	done  chan struct{}
	once  sync.Once
}

// Ready fires when at least one signal is pending.
func (s *Subscription) Ready() <-chan struct{} {
	return s.ready
}

// Done is closed when the subscription or its hub is closed.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Drain returns and clears the pending signals in arrival order.
func (s *Subscription) Drain() []Signal {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Signal, len(s.order))
	for i, kind := range s.order {
		out[i] = Signal{Kind: kind}
	}
	s.order = s.order[:0]
	clear(s.pending)
	return out
}

// Close detaches the subscription from its hub.
func (s *Subscription) Close() {
	s.hub.remove(s)
	s.finish()
}

func (s *Subscription) finish() {
	s.once.Do(func() { close(s.done) })
}

// offer queues kind and reports false when it was already pending.
func (s *Subscription) offer(kind state.Kind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending[kind] {
		return false
	}
	s.pending[kind] = true
	s.order = append(s.order, kind)
	select {
	case s.ready <- struct{}{}:
	default:
	}
	return true
}
