package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/frer-max/fassr/internal/api"
	"github.com/frer-max/fassr/internal/config"
	"github.com/frer-max/fassr/internal/kv"
	"github.com/frer-max/fassr/internal/loader"
	"github.com/frer-max/fassr/internal/mutation"
	"github.com/frer-max/fassr/internal/overlay"
	"github.com/frer-max/fassr/internal/pager"
	"github.com/frer-max/fassr/internal/realtime"
	"github.com/frer-max/fassr/internal/state"
)

// Services is the wired client core.
type Services struct {
	Client    *api.Client
	Store     *state.Store
	Overlay   *overlay.Overlay
	Pager     *pager.Pager
	Loader    *loader.Loader
	Mutations *mutation.Engine
	Listener  *realtime.Listener
	Refresher *Refresher

	cache *kv.SQLite
}

// Build wires the core for cfg. The durable cache is opened and the store
// warm-started from it; a cache that cannot be opened only costs the warm
// start.
func Build(cfg config.Config, logger *zap.Logger) (*Services, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := api.NewClient(cfg.APIURL, cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("init api client: %w", err)
	}

	var cache kv.Store
	sqlite, err := kv.OpenSQLite(cfg.CachePath)
	if err != nil {
		logger.Warn("cache unavailable, starting cold", zap.String("path", cfg.CachePath), zap.Error(err))
		cache = &kv.Memory{}
	} else {
		cache = sqlite
	}

	store := state.New(cache, logger)
	if err := store.Restore(); err != nil {
		logger.Warn("cache restore incomplete", zap.Error(err))
	}
	ov := overlay.New(cache, logger)
	pg := pager.New(client, store, ov, cfg.PageSize)
	ld := loader.New(store, loader.Sources(client, store, pg.Fetcher()), logger)
	listener := realtime.NewListener(client, ld, cfg.ReconnectDelay(), logger)

	return &Services{
		Client:    client,
		Store:     store,
		Overlay:   ov,
		Pager:     pg,
		Loader:    ld,
		Mutations: mutation.New(client, store, ov, ld, logger),
		Listener:  listener,
		Refresher: NewRefresher(ld, listener, cfg.RefreshInterval(), logger),
		cache:     sqlite,
	}, nil
}

// Start launches the listener and the refresher. They stop when ctx is
// done; the returned function waits for that.
func (s *Services) Start(ctx context.Context) (wait func()) {
	done := make(chan struct{}, 2)
	go func() {
		_ = s.Listener.Run(ctx)
		done <- struct{}{}
	}()
	go func() {
		s.Refresher.Run(ctx)
		done <- struct{}{}
	}()
	return func() {
		<-done
		<-done
	}
}

// Close releases the durable cache.
func (s *Services) Close() error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Close()
}
