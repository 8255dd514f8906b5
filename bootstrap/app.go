package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/flowforge/config"
	"github.com/kbukum/flowforge/engine"
	"github.com/kbukum/flowforge/logger"
	"github.com/kbukum/flowforge/node"
	"github.com/kbukum/flowforge/nodes"
	"github.com/kbukum/flowforge/observability"
)

const defaultGracefulTimeout = 15 * time.Second

// App holds the wired process: one registry and runner shared by every
// pipeline the task runs.
type App struct {
	Name     string
	Version  string
	Cfg      *config.Config
	Logger   *logger.Logger
	Registry *node.Registry
	Runner   *engine.Runner
	// Prom collects run metrics for the textfile export. Nil unless a
	// metrics file is configured.
	Prom *observability.PromObserver

	gracefulTimeout time.Duration
	telemetry       bool
	observers       []engine.Observer

	onStart []Hook
	onStop  []Hook
}

// NewApp applies defaults, validates cfg and builds the logger, registry and
// runner. Exporters are started by RunTask.
func NewApp(cfg *config.Config, opts ...Option) (*App, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	o := resolveOptions(opts)

	log := o.logger
	if log == nil {
		log = logger.New(&cfg.Logging, cfg.Name)
	}

	nodeOpts := append([]nodes.Option{nodes.WithLogger(log), nodes.WithStorage(cfg.Storage)}, o.nodeOptions...)
	reg, err := nodes.NewRegistry(nodeOpts...)
	if err != nil {
		return nil, fmt.Errorf("registering nodes: %w", err)
	}

	app := &App{
		Name:            cfg.Name,
		Version:         cfg.Version,
		Cfg:             cfg,
		Logger:          log,
		Registry:        reg,
		Runner:          &engine.Runner{Registry: reg, MaxConcurrency: cfg.Engine.MaxConcurrency, Log: log},
		gracefulTimeout: defaultGracefulTimeout,
		telemetry:       o.telemetry,
		observers:       append([]engine.Observer(nil), o.observers...),
	}
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}

	if path := cfg.Telemetry.MetricsFile; path != "" {
		app.Prom = observability.NewPromObserver()
		app.observers = append(app.observers, app.Prom)
		app.OnStop(func(context.Context) error {
			if err := app.Prom.WriteTextfile(path); err != nil {
				return fmt.Errorf("writing metrics file: %w", err)
			}
			log.Debug("metrics written", logger.Fields(logger.FieldFile, path))
			return nil
		})
	}
	return app, nil
}

// RunTask starts telemetry, runs task and shuts down. SIGINT and SIGTERM
// cancel the task's context; shutdown hooks still run afterwards. The task's
// error wins over a shutdown error.
func (a *App) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			a.Logger.Warn("received signal, cancelling run", logger.Fields("signal", sig.String()))
			cancel()
		case <-taskCtx.Done():
		}
	}()

	if err := a.startup(taskCtx); err != nil {
		return err
	}

	taskErr := task(taskCtx)

	if stopErr := a.Shutdown(); stopErr != nil && taskErr == nil {
		return stopErr
	}
	return taskErr
}

func (a *App) startup(ctx context.Context) error {
	a.Logger.Debug("starting", logger.Fields("name", a.Name, "version", a.Version))

	if a.telemetry {
		if err := a.setupTelemetry(ctx); err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
	}
	switch len(a.observers) {
	case 0:
	case 1:
		a.Runner.Observer = a.observers[0]
	default:
		a.Runner.Observer = engine.Observers(a.observers...)
	}

	if err := runHooks(ctx, a.onStart); err != nil {
		return fmt.Errorf("onStart hook failed: %w", err)
	}
	return nil
}

// Shutdown runs the stop hooks within the graceful timeout. It runs every
// hook even when one fails.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	err := runAllHooks(ctx, a.onStop)
	if err != nil {
		a.Logger.Error("shutdown completed with errors", logger.Fields(logger.FieldError, err.Error()))
	}
	return err
}
