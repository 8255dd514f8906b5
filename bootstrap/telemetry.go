package bootstrap

import (
	"context"
	"fmt"

	"github.com/kbukum/flowforge/observability"
)

const meterName = "github.com/kbukum/flowforge"

// setupTelemetry starts the OTLP exporters the config enables and installs
// an OTelObserver. Providers are flushed and shut down by stop hooks, so a
// short run still exports its spans and final readings.
func (a *App) setupTelemetry(ctx context.Context) error {
	t := a.Cfg.Telemetry
	if !t.Tracing.Enabled && !t.Metrics.Enabled {
		return nil
	}

	if t.Tracing.Enabled {
		tp, err := observability.InitTracer(ctx, a.Cfg.TracerConfig(), a.Logger)
		if err != nil {
			return err
		}
		a.OnStop(tp.Shutdown)
	}

	var metrics *observability.Metrics
	if t.Metrics.Enabled {
		mp, err := observability.InitMeter(ctx, a.Cfg.MeterConfig(), a.Logger)
		if err != nil {
			return err
		}
		a.OnStop(mp.Shutdown)
		metrics, err = observability.NewMetrics(mp.Meter(meterName))
		if err != nil {
			return fmt.Errorf("creating instruments: %w", err)
		}
	}

	// A nil tracer resolves to the global provider InitTracer installed, or
	// to the no-op provider when tracing is off.
	a.observers = append(a.observers, observability.NewOTelObserver(nil, metrics))
	return nil
}
