package storage

import (
	"context"
	"sort"
	"sync"

	apperrors "github.com/kbukum/flowforge/errors"
	"github.com/kbukum/flowforge/logger"
)

// Factory creates a Storage implementation from a validated Config.
type Factory func(ctx context.Context, cfg Config, log *logger.Logger) (Storage, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// RegisterFactory registers a storage backend factory for the given provider name.
// Implementation packages call this in an init function to make themselves
// available to New.
func RegisterFactory(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[name] = f
}

// Providers returns the registered provider names, sorted.
func Providers() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates a Storage implementation based on the given Config.
// Ensure the desired provider package has been imported (e.g.
// _ "github.com/kbukum/flowforge/storage/local") so its factory is registered.
func New(ctx context.Context, cfg Config, log *logger.Logger) (Storage, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	l := log.WithComponent("storage")

	mu.RLock()
	f, ok := factories[cfg.Provider]
	mu.RUnlock()
	if !ok {
		return nil, apperrors.InvalidConfig("storage: provider " + cfg.Provider + " is not registered")
	}

	l.Debug("initializing storage", logger.Fields("provider", cfg.Provider))
	return f(ctx, cfg, l)
}
