package realtime

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/frer-max/fassr/internal/state"
)

func TestHub_PublishReachesEverySubscriber(t *testing.T) {
	hub := NewHub(nil, nil)
	defer hub.Close()

	const n = 150
	subs := make([]*Subscription, n)
	for i := range subs {
		subs[i] = hub.Subscribe()
	}
	if got := hub.Subscribers(); got != n {
		t.Fatalf("Subscribers = %d, want %d", got, n)
	}

	hub.Publish(Signal{Kind: state.Orders})

	for i, s := range subs {
		select {
		case <-s.Ready():
		default:
			t.Fatalf("subscriber %d not signalled", i)
		}
		got := s.Drain()
		if len(got) != 1 || got[0].Kind != state.Orders {
			t.Fatalf("subscriber %d drained %#v", i, got)
		}
	}
}

func TestHub_PendingSignalsCoalescePerKind(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	hub := NewHub(metrics, nil)
	defer hub.Close()

	sub := hub.Subscribe()
	for i := 0; i < 5; i++ {
		hub.Publish(Signal{Kind: state.Orders})
	}
	hub.Publish(Signal{Kind: state.Meals})

	got := sub.Drain()
	if len(got) != 2 || got[0].Kind != state.Orders || got[1].Kind != state.Meals {
		t.Fatalf("Drain = %#v, want orders then meals once each", got)
	}
	if len(sub.Drain()) != 0 {
		t.Fatalf("second Drain should be empty")
	}

	if v := testutil.ToFloat64(metrics.dropped); v != 4 {
		t.Fatalf("coalesced = %v, want 4", v)
	}
	if v := testutil.ToFloat64(metrics.signals.WithLabelValues("orders")); v != 5 {
		t.Fatalf("published orders = %v, want 5", v)
	}
	if v := testutil.ToFloat64(metrics.subscribers); v != 1 {
		t.Fatalf("subscribers gauge = %v, want 1", v)
	}
}

func TestHub_PublishNeverBlocksOnIdleSubscribers(t *testing.T) {
	hub := NewHub(nil, nil)
	defer hub.Close()
	for i := 0; i < 100; i++ {
		hub.Subscribe()
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = hub.Notify(context.Background(), state.Orders)
			}
		}()
	}
	wg.Wait()
}

func TestHub_CloseEndsSubscriptions(t *testing.T) {
	hub := NewHub(nil, nil)
	sub := hub.Subscribe()
	kept := hub.Subscribe()

	sub.Close()
	if hub.Subscribers() != 1 {
		t.Fatalf("Subscribers = %d after Close, want 1", hub.Subscribers())
	}
	select {
	case <-sub.Done():
	default:
		t.Fatalf("closed subscription not done")
	}

	hub.Close()
	select {
	case <-kept.Done():
	default:
		t.Fatalf("hub Close did not end subscription")
	}
	hub.Publish(Signal{Kind: state.Orders})
	if len(kept.Drain()) != 0 {
		t.Fatalf("publish after Close delivered a signal")
	}
	late := hub.Subscribe()
	select {
	case <-late.Done():
	default:
		t.Fatalf("subscription on closed hub should be done")
	}
	hub.Close()
}
