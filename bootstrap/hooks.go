package bootstrap

import (
	"context"
	"fmt"
)

// Hook is a lifecycle callback.
type Hook func(ctx context.Context) error

// OnStart registers hooks that run before the task.
func (a *App) OnStart(hooks ...Hook) {
	a.onStart = append(a.onStart, hooks...)
}

// OnStop registers hooks that run after the task, within the graceful
// timeout. They run in registration order.
func (a *App) OnStop(hooks ...Hook) {
	a.onStop = append(a.onStop, hooks...)
}

// runHooks runs every hook and returns the first error.
func runHooks(ctx context.Context, hooks []Hook) error {
	for i, h := range hooks {
		if err := h(ctx); err != nil {
			return fmt.Errorf("hook %d failed: %w", i, err)
		}
	}
	return nil
}

// runAllHooks runs every hook even after a failure and returns the first
// error.
func runAllHooks(ctx context.Context, hooks []Hook) error {
	var first error
	for i, h := range hooks {
		if err := h(ctx); err != nil && first == nil {
			first = fmt.Errorf("hook %d failed: %w", i, err)
		}
	}
	return first
}
