package app

import (
	"context"
	"log/slog"

	cfg "github.com/webitel/event-exporter/config"
	"github.com/webitel/event-exporter/internal/cache"
	rediscache "github.com/webitel/event-exporter/internal/cache/redis"
	"github.com/webitel/event-exporter/internal/errors"
	"github.com/webitel/event-exporter/internal/export"
	"github.com/webitel/event-exporter/internal/service"
	"github.com/webitel/event-exporter/internal/store"
	"github.com/webitel/event-exporter/internal/store/postgres"
)

type App struct {
	Config   *cfg.AppConfig
	log      *slog.Logger
	exitCh   chan error
	shutdown func(ctx context.Context) error
	Store    store.Store
	Cache    cache.Cache
	Exporter service.ExportService
}

// New creates a fully initialized App.
func New(config *cfg.AppConfig, shutdown func(ctx context.Context) error) (*App, error) {
	app := &App{
		Config:   config,
		log:      slog.Default(),
		shutdown: shutdown,
		exitCh:   make(chan error),
	}

	if err := app.initStore(); err != nil {
		return nil, err
	}
	if err := app.initRedis(); err != nil {
		return nil, err
	}
	if err := app.initExporter(); err != nil {
		return nil, err
	}

	return app, nil
}

// --------- Private init methods ---------

func (app *App) initStore() error {
	if app.Config.Database == nil {
		return errors.New("database config is nil")
	}
	app.Store = postgres.New(app.Config.Database)
	return nil
}

func (app *App) initRedis() error {
	redisCache, err := rediscache.NewRedisCache(app.Config.Redis.Addr, app.Config.Redis.Password, app.Config.Redis.DB)
	if err != nil {
		return errors.New("unable to initialize Redis", errors.WithCause(err))
	}
	app.Cache = redisCache
	return nil
}

func (app *App) initExporter() error {
	resolver := &export.Resolver{
		ContentRoot: app.Config.Export.ContentRoot,
		WebRoot:     app.Config.Export.WebRoot,
	}
	fonts := export.ResolveFonts(app.Config.Export.FontsDir)

	svc, err := service.NewExportService(app.Store, resolver, fonts, app.log)
	if err != nil {
		return errors.New("failed to init export service", errors.WithCause(err))
	}
	app.Exporter = svc
	return nil
}

// Start opens the database and runs the background workers until the
// context is canceled or a worker reports a fatal error.
func (app *App) Start(ctx context.Context) error {
	if err := app.Store.Open(); err != nil {
		return errors.New("failed to open store", errors.WithCause(err))
	}

	app.StartExportWorker(ctx)

	select {
	case err := <-app.exitCh:
		return err
	case <-ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down all services
func (app *App) Stop() error {
	slog.Info("event_exporter.main.stop_starting")

	if app.Store != nil {
		if err := app.Store.Close(); err != nil {
			slog.Error("store close error", "err", err)
		} else {
			slog.Info("store closed")
		}
	}

	if app.shutdown != nil {
		if err := app.shutdown(context.Background()); err != nil {
			slog.Error("shutdown hook error", "err", err)
		} else {
			slog.Info("shutdown hook executed")
		}
	}

	slog.Info("event_exporter.main.stop_complete")
	return nil
}
