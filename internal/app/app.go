package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/nodeflow/internal/ctxlog"
	"github.com/vk/nodeflow/internal/engine"
	"github.com/vk/nodeflow/internal/monitor"
	"github.com/vk/nodeflow/internal/registry"
	"github.com/vk/nodeflow/internal/worker"
)

// App wires the registry, worker pool, engine and HTTP server together.
type App struct {
	config   *Config
	logger   *slog.Logger
	registry *registry.Registry
	engine   *engine.Engine
}

// New assembles a fully initialized application. It panics on programmer
// errors such as an invalid registry, since those cannot be recovered from
// at runtime.
func New(outW io.Writer, config *Config, modules ...registry.Module) *App {
	logger := newLogger(config.LogLevel, config.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules()
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All node modules registered.", "modules", len(modules))

	if config.ManifestsPath != "" {
		if err := reg.LoadManifests(ctx, config.ManifestsPath); err != nil {
			panic(fmt.Errorf("failed to load node manifests: %w", err))
		}
	}
	if err := reg.Validate(ctx); err != nil {
		panic(err)
	}
	logger.Debug("Registry validated.", "node_types", reg.Len())

	pool := worker.NewPool(config.WorkerCount)
	mon := &monitor.Reporter{Interval: config.MonitorInterval}
	eng := engine.New(reg, pool, engine.WithMonitor(mon.Run))

	return &App{
		config:   config,
		logger:   logger,
		registry: reg,
		engine:   eng,
	}
}

// Registry exposes the node type registry, primarily for tests.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Engine exposes the graph execution engine, primarily for tests.
func (a *App) Engine() *engine.Engine {
	return a.engine
}
