package bootstrap

import (
	"time"

	"github.com/kbukum/flowforge/engine"
	"github.com/kbukum/flowforge/logger"
	"github.com/kbukum/flowforge/nodes"
)

// Option configures the App during creation.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	gracefulTimeout *time.Duration
	observers       []engine.Observer
	nodeOptions     []nodes.Option
	telemetry       bool
}

func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{telemetry: true}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger replaces the logger built from the logging config.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) { o.logger = l }
}

// WithGracefulTimeout bounds the shutdown hooks.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) { o.gracefulTimeout = &d }
}

// WithObserver adds a run observer next to the configured telemetry.
func WithObserver(obs engine.Observer) Option {
	return func(o *appOptions) { o.observers = append(o.observers, obs) }
}

// WithNodeOptions passes extra options to the built-in node registry.
func WithNodeOptions(opts ...nodes.Option) Option {
	return func(o *appOptions) { o.nodeOptions = append(o.nodeOptions, opts...) }
}

// WithoutTelemetry skips tracer and meter exporters regardless of the
// config. The Prometheus textfile observer is still installed.
func WithoutTelemetry() Option {
	return func(o *appOptions) { o.telemetry = false }
}
