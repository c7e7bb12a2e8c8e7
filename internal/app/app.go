package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/flowgrid/internal/catalog"
	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/metrics"
	"github.com/vk/flowgrid/internal/registry"
	"github.com/vk/flowgrid/internal/scheduler"
	"github.com/vk/flowgrid/internal/settings"
	"github.com/vk/flowgrid/internal/sharedcache"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	registry   *registry.Registry
	shared     *sharedcache.Cache
	settings   *settings.Settings
	catalog    *catalog.Catalog
	metrics    *metrics.Metrics
	scheduler  *scheduler.Default
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own logger, registry and shared cache.
// When no modules are given, CoreModules(outW) are registered.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = CoreModules(outW)
	}
	reg.RegisterModules(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules), "components", reg.Names())

	if err := reg.ValidateRegistry(ctx); err != nil {
		// A mismatch between descriptors and builders is a programmer error.
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	s, err := settings.New(settings.Defaults())
	if err != nil {
		panic(fmt.Errorf("invalid default settings: %w", err))
	}

	shared := sharedcache.New()
	m := metrics.New()
	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		shared:   shared,
		settings: s,
		catalog:  catalog.New(reg, shared, s),
		metrics:  m,
		scheduler: scheduler.New(scheduler.Options{
			Workers:  cfg.WorkerCount,
			MaxWaves: cfg.MaxWaves,
			Shared:   shared,
			Metrics:  m,
		}),
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Settings returns the application's runtime settings.
func (a *App) Settings() *settings.Settings {
	return a.settings
}

// Shared returns the process-wide shared resource cache.
func (a *App) Shared() *sharedcache.Cache {
	return a.shared
}

// Close releases every shared resource.
func (a *App) Close(ctx context.Context) {
	a.shared.Close(ctxlog.WithLogger(ctx, a.logger))
}
