package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// RunContext holds the observability state of one pipeline run.
type RunContext struct {
	RunID     string
	Pipeline  string
	StartTime time.Time
	Span      trace.Span
}

type runContextKey struct{}

// WithRunContext stores rc in ctx.
func WithRunContext(ctx context.Context, rc *RunContext) context.Context {
	return context.WithValue(ctx, runContextKey{}, rc)
}

// RunContextFromContext retrieves the RunContext from ctx, or nil.
func RunContextFromContext(ctx context.Context) *RunContext {
	if rc, ok := ctx.Value(runContextKey{}).(*RunContext); ok {
		return rc
	}
	return nil
}

// Duration returns the elapsed time since the run started.
func (rc *RunContext) Duration() time.Duration {
	return time.Since(rc.StartTime)
}
