package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/frer-max/fassr/internal/config"
	"github.com/frer-max/fassr/internal/logging"
	"github.com/frer-max/fassr/internal/prefs"
	"github.com/frer-max/fassr/internal/ui"
)

// Options configure the board application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/fassr/prefs.toml
	APIURL     string // overrides the config file when set
}

// Run boots the order board until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.APIURL != "" {
		cfg.APIURL = opts.APIURL
	}

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	logger, err := logging.New(cfg.LogLevel, cfg.LogPath)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	svc, err := Build(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn("close cache", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	wait := svc.Start(ctx)

	// The stream's first acknowledgement does not load anything, so the
	// initial fetch happens here. Cached data is already on screen.
	go func() {
		if err := svc.Loader.LoadAll(ctx, false); err != nil {
			logger.Warn("initial load incomplete", zap.Error(err))
		}
	}()

	logger.Info("board starting", zap.String("api", cfg.APIURL))
	err = ui.Run(ui.Options{
		Context:      ctx,
		Store:        svc.Store,
		Loader:       svc.Loader,
		Pager:        svc.Pager,
		Mutations:    svc.Mutations,
		Stream:       svc.Listener,
		LogPath:      cfg.LogPath,
		ThemeName:    userPrefs.Theme,
		StatusFilter: userPrefs.StatusFilter,
		PrefsPath:    opts.PrefsPath,
	})
	cancel()
	wait()
	return err
}
