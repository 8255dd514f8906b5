package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/flowforge/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit;
// Shutdown flushes the last readings of a short-lived batch run.
func InitMeter(ctx context.Context, config MeterConfig, log *logger.Logger) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	if log != nil {
		log.Info("meter initialized", logger.Fields(
			"endpoint", config.Endpoint,
			"interval", config.Interval.String(),
		))
	}
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the OpenTelemetry instruments of pipeline runs.
type Metrics struct {
	runsTotal     metric.Int64Counter
	runsActive    metric.Int64UpDownCounter
	runDuration   metric.Float64Histogram
	jobsTotal     metric.Int64Counter
	filesTotal    metric.Int64Counter
	stageDuration metric.Float64Histogram
	stageJobs     metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	runsTotal, err := meter.Int64Counter("flowforge.runs",
		metric.WithDescription("Pipeline runs by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flowforge.runs counter: %w", err)
	}

	runsActive, err := meter.Int64UpDownCounter("flowforge.runs.active",
		metric.WithDescription("Pipeline runs in progress"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flowforge.runs.active counter: %w", err)
	}

	runDuration, err := meter.Float64Histogram("flowforge.run.duration",
		metric.WithDescription("Duration of pipeline runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flowforge.run.duration histogram: %w", err)
	}

	jobsTotal, err := meter.Int64Counter("flowforge.jobs",
		metric.WithDescription("Finalized jobs by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flowforge.jobs counter: %w", err)
	}

	filesTotal, err := meter.Int64Counter("flowforge.files",
		metric.WithDescription("Files enumerated by sources"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flowforge.files counter: %w", err)
	}

	stageDuration, err := meter.Float64Histogram("flowforge.stage.duration",
		metric.WithDescription("Duration of one node's pass over the batch in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flowforge.stage.duration histogram: %w", err)
	}

	stageJobs, err := meter.Int64Counter("flowforge.stage.jobs",
		metric.WithDescription("Jobs passed on by a node"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flowforge.stage.jobs counter: %w", err)
	}

	return &Metrics{
		runsTotal:     runsTotal,
		runsActive:    runsActive,
		runDuration:   runDuration,
		jobsTotal:     jobsTotal,
		filesTotal:    filesTotal,
		stageDuration: stageDuration,
		stageJobs:     stageJobs,
	}, nil
}

// RecordRunStart increments the active run count.
func (m *Metrics) RecordRunStart(ctx context.Context) {
	m.runsActive.Add(ctx, 1)
}

// RecordRunEnd decrements active runs and records the finished run.
func (m *Metrics) RecordRunEnd(ctx context.Context, pipeline, outcome string, files int, duration time.Duration) {
	m.runsActive.Add(ctx, -1)
	m.runsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("pipeline", pipeline),
		attribute.String(AttrOutcome, outcome),
	))
	m.filesTotal.Add(ctx, int64(files), metric.WithAttributes(attribute.String("pipeline", pipeline)))
	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("pipeline", pipeline),
	))
}

// RecordJob records one finalized job.
func (m *Metrics) RecordJob(ctx context.Context, status string) {
	m.jobsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrStatus, status)))
}

// RecordStage records one node's pass over the batch.
func (m *Metrics) RecordStage(ctx context.Context, typeKey, category string, out int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("type_key", typeKey),
		attribute.String("category", category),
	)
	m.stageJobs.Add(ctx, int64(out), attrs)
	m.stageDuration.Record(ctx, duration.Seconds(), attrs)
}
