package realtime

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/atomic"

	"github.com/frer-max/fassr/internal/api"
	"github.com/frer-max/fassr/internal/loader"
	"github.com/frer-max/fassr/internal/state"
)

// scriptedStream serves one canned body per connection and fails once the
// script runs out.
type scriptedStream struct {
	mu     sync.Mutex
	bodies []string
	opens  int
}

func (s *scriptedStream) OpenStream(ctx context.Context) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opens++
	if len(s.bodies) == 0 {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	body := s.bodies[0]
	s.bodies = s.bodies[1:]
	return io.NopCloser(strings.NewReader(body)), nil
}

type countingRefresher struct {
	calls atomic.Int64
}

func (r *countingRefresher) Ensure(_ context.Context, kind state.Kind, force bool) error {
	if kind != state.Orders || !force {
		return errors.New("unexpected refresh")
	}
	r.calls.Inc()
	return nil
}

func TestListener_UpdatesAndReconnectsForceReloads(t *testing.T) {
	stream := &scriptedStream{bodies: []string{
		"data: connected\n\ndata: update\n\n: ping\n\ndata: update\n\n",
		"data: connected\n\n",
	}}
	refresher := &countingRefresher{}
	l := NewListener(stream, refresher, 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	waitUntil(t, func() bool { return l.Sessions() == 2 && refresher.calls.Load() == 3 })
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}
	// Two update frames plus one reload after the reconnect; the first
	// acknowledgement does not reload.
	if got := refresher.calls.Load(); got != 3 {
		t.Fatalf("reloads = %d, want 3", got)
	}
	if l.Connected() {
		t.Fatalf("Connected after Run returned")
	}
}

func TestListener_ConvergesAfterMissedSignals(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(nil, nil)
	defer hub.Close()

	var version atomic.Int64
	version.Store(1)
	var fetches atomic.Int64

	r := gin.New()
	r.GET("/api/updates", StreamHandler(hub, time.Hour, nil, nil))
	r.GET("/api/orders", func(c *gin.Context) {
		fetches.Inc()
		items := []api.Order{{ID: version.Load(), Status: api.StatusNew}}
		c.JSON(200, api.OrderPage{Items: items, Pagination: api.NewPagination(1, 1, 20)})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	client, err := api.NewClient(srv.URL, "")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	store := &state.Store{}
	ld := loader.New(store, map[state.Kind]loader.Fetcher{
		state.Orders: func(ctx context.Context) (func(), error) {
			page, err := client.FetchOrders(ctx, api.OrderQuery{Page: 1, Limit: 20})
			if err != nil {
				return nil, err
			}
			return func() { store.SetOrderPage(page.Items, page.Pagination) }, nil
		},
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := ld.Ensure(ctx, state.Orders, false); err != nil {
		t.Fatalf("initial load: %v", err)
	}

	l := NewListener(client, ld, 50*time.Millisecond, nil)
	go func() { _ = l.Run(ctx) }()
	waitUntil(t, func() bool { return l.Connected() && hub.Subscribers() == 1 })

	// A live signal triggers a reload.
	version.Store(2)
	hub.Publish(Signal{Kind: state.Orders})
	waitUntil(t, func() bool { return orderID(store) == 2 })

	// Drop the connection and change data; the signals may reach nobody.
	srv.CloseClientConnections()
	version.Store(5)
	hub.Publish(Signal{Kind: state.Orders})
	hub.Publish(Signal{Kind: state.Orders})

	waitUntil(t, func() bool { return l.Sessions() >= 2 && orderID(store) == 5 })
	if n := fetches.Load(); n < 3 {
		t.Fatalf("fetches = %d, want at least initial + signal + reconnect", n)
	}
}

func orderID(store *state.Store) int64 {
	orders := store.Orders()
	if len(orders) == 0 {
		return 0
	}
	return orders[0].ID
}
