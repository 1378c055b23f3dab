package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/frer-max/fassr/internal/realtime"
	"github.com/frer-max/fassr/internal/repo"
)

const (
	shutdownTimeout = 5 * time.Second
	relayBackoff    = 5 * time.Second
)

// Run serves cfg until ctx is done, then shuts the listener down.
func Run(ctx context.Context, cfg *Config, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := realtime.NewMetrics(registry)
	hub := realtime.NewHub(metrics, logger)
	defer hub.Close()

	records, closeRepo, err := openRepo(cfg.Store.Path, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	var notifier realtime.Notifier = hub
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		relay := realtime.NewRedisRelay(client, cfg.Redis.Channel, hub, logger)
		notifier = relay
		go runRelay(ctx, relay, logger)
	}

	srv := New(Options{
		Repo:      records,
		Hub:       hub,
		Notifier:  notifier,
		Metrics:   metrics,
		Gatherer:  registry,
		Token:     cfg.HTTP.Token,
		Heartbeat: cfg.Stream.Heartbeat,
		Logger:    logger,
	})
	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTP.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	// Open update streams only end when their subscriptions close.
	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openRepo(path string, logger *zap.Logger) (repo.Repository, func(), error) {
	if path == "" {
		logger.Info("using in-memory store")
		return repo.NewMemory(), func() {}, nil
	}
	store, err := repo.OpenSQLite(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	logger.Info("using sqlite store", zap.String("path", store.Path()))
	return store, func() {
		if err := store.Close(); err != nil {
			logger.Warn("close store", zap.Error(err))
		}
	}, nil
}

// runRelay keeps the Redis subscription alive until ctx is done.
func runRelay(ctx context.Context, relay *realtime.RedisRelay, logger *zap.Logger) {
	for {
		err := relay.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		logger.Warn("redis relay stopped; retrying", zap.Error(err), zap.Duration("backoff", relayBackoff))
		select {
		case <-ctx.Done():
			return
		case <-time.After(relayBackoff):
		}
	}
}
