package realtime

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/frer-max/fassr/internal/state"
)

// DefaultBackoff is the wait between reconnect attempts.
const DefaultBackoff = 5 * time.Second

// Stream opens the server's update stream.
type Stream interface {
	OpenStream(ctx context.Context) (io.ReadCloser, error)
}

// Refresher forces a reload of a kind.
type Refresher interface {
	Ensure(ctx context.Context, kind state.Kind, force bool) error
}

// Listener keeps one update stream open and turns its frames into forced
// order reloads. Delivery is best effort: after any gap in the connection
// the next acknowledgement triggers one reload, which covers whatever was
// missed.
type Listener struct {
	stream    Stream
	refresher Refresher
	backoff   time.Duration
	logger    *zap.Logger

	connected *atomic.Bool
	sessions  atomic.Int64
	refreshes atomic.Int64

	wg sync.WaitGroup
}

// NewListener returns a Listener. A non-positive backoff selects
// DefaultBackoff.
func NewListener(stream Stream, refresher Refresher, backoff time.Duration, logger *zap.Logger) *Listener {
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{
		stream:    stream,
		refresher: refresher,
		backoff:   backoff,
		logger:    logger,
		connected: atomic.NewBool(false),
	}
}

// Connected reports whether the stream is currently acknowledged.
func (l *Listener) Connected() bool {
	return l.connected.Load()
}

// Sessions returns how many connections were acknowledged.
func (l *Listener) Sessions() int64 {
	return l.sessions.Load()
}

// Refreshes returns how many reloads were requested.
func (l *Listener) Refreshes() int64 {
	return l.refreshes.Load()
}

// Run reconnects until ctx is done and then returns ctx.Err().
func (l *Listener) Run(ctx context.Context) error {
	defer l.wg.Wait()

	gap := false
	for {
		err := l.session(ctx, gap)
		l.connected.Store(false)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil || errors.Is(err, io.EOF) {
			l.logger.Warn("update stream ended, reconnecting", zap.Duration("backoff", l.backoff))
		} else {
			l.logger.Warn("update stream lost, reconnecting", zap.Duration("backoff", l.backoff), zap.Error(err))
		}
		gap = true

		timer := time.NewTimer(l.backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *Listener) session(ctx context.Context, gap bool) error {
	body, err := l.stream.OpenStream(ctx)
	if err != nil {
		return err
	}
	defer body.Close()

	reader := NewReader(body)
	for {
		data, err := reader.Next()
		if err != nil {
			return err
		}
		switch data {
		case FrameConnected:
			l.connected.Store(true)
			l.sessions.Inc()
			l.logger.Info("update stream connected")
			if gap {
				gap = false
				l.refresh(ctx)
			}
		case FrameUpdate:
			l.refresh(ctx)
		default:
			l.logger.Debug("ignoring update frame", zap.String("data", data))
		}
	}
}

// refresh runs in the background so the stream keeps draining; the loader
// folds overlapping forced reloads into one.
func (l *Listener) refresh(ctx context.Context) {
	l.refreshes.Inc()
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if err := l.refresher.Ensure(ctx, state.Orders, true); err != nil && ctx.Err() == nil {
			l.logger.Warn("order refresh failed", zap.Error(err))
		}
	}()
}
