package realtime

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/frer-max/fassr/internal/state"
)

// DefaultChannel is the Redis channel used when none is configured.
const DefaultChannel = "fassr:updates"

var _ Notifier = (*RedisRelay)(nil)

// RedisClient is the part of the Redis client the relay uses.
type RedisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// RedisRelay shares signals between server processes. Notify publishes to
// a Redis channel and Run republishes everything on that channel to the
// local hub, including this process's own signals.
type RedisRelay struct {
	client     RedisClient
	channel    string
	hub        *Hub
	logger     *zap.Logger
	subscribed atomic.Bool
}

// NewRedisRelay returns a relay between client's channel and hub.
func NewRedisRelay(client RedisClient, channel string, hub *Hub, logger *zap.Logger) *RedisRelay {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRelay{client: client, channel: channel, hub: hub, logger: logger}
}

// Notify publishes kind to Redis. While Run is not subscribed, or when
// Redis is unreachable, the signal also goes straight to the local hub so
// this process's streams still see it.
func (r *RedisRelay) Notify(ctx context.Context, kind state.Kind) error {
	err := r.client.Publish(ctx, r.channel, string(kind)).Err()
	if err != nil || !r.subscribed.Load() {
		r.hub.Publish(Signal{Kind: kind})
	}
	if err != nil {
		return fmt.Errorf("publish %s signal: %w", kind, err)
	}
	return nil
}

// Subscribed reports whether Run is currently relaying the channel.
func (r *RedisRelay) Subscribed() bool {
	return r.subscribed.Load()
}

// Run forwards channel messages to the hub until ctx is done.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	r.subscribed.Store(true)
	defer r.subscribed.Store(false)
	r.logger.Info("relaying signals", zap.String("channel", r.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.hub.Publish(Signal{Kind: state.Kind(msg.Payload)})
		}
	}
}
