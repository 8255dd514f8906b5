package config

import (
	"fmt"
	"time"

	"github.com/kbukum/flowforge/logger"
	"github.com/kbukum/flowforge/observability"
	"github.com/kbukum/flowforge/storage"
	"github.com/kbukum/flowforge/validation"
	"github.com/kbukum/flowforge/version"
)

// Application name used for the config file, env prefix and telemetry.
const AppName = "flowforge"

// Environments.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Config is the application configuration.
//
//	name: flowforge
//	environment: production
//	engine:
//	  max_concurrency: 8
//	logging:
//	  level: debug
//	telemetry:
//	  tracing:
//	    enabled: true
//	    endpoint: otel-collector:4318
//	storage:
//	  provider: s3
//	  bucket: exports
type Config struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Version     string `yaml:"version" mapstructure:"version"`

	Engine    EngineConfig    `yaml:"engine" mapstructure:"engine"`
	Logging   logger.Config   `yaml:"logging" mapstructure:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
	Storage   storage.Config  `yaml:"storage" mapstructure:"storage"`
}

// EngineConfig tunes pipeline execution.
type EngineConfig struct {
	// MaxConcurrency bounds simultaneous output tasks (0 = GOMAXPROCS).
	MaxConcurrency int `yaml:"max_concurrency" mapstructure:"max_concurrency" validate:"gte=0"`
	// DryRun makes every run a dry run unless the command line says otherwise.
	DryRun bool `yaml:"dry_run" mapstructure:"dry_run"`
}

// TelemetryConfig selects the run observers.
type TelemetryConfig struct {
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
	// MetricsFile, when set, receives Prometheus metrics in text format after
	// every run.
	MetricsFile string `yaml:"metrics_file" mapstructure:"metrics_file"`
}

// TracingConfig configures OTLP trace export.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// MetricsConfig configures OTLP metric export.
type MetricsConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint string        `yaml:"endpoint" mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Insecure bool          `yaml:"insecure" mapstructure:"insecure"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval" validate:"gte=0"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = AppName
	}
	if c.Environment == "" {
		c.Environment = EnvDevelopment
	}
	if c.Version == "" {
		c.Version = version.Get().Short()
	}
	c.Logging.ApplyDefaults()
	c.Storage.ApplyDefaults()

	tracer := observability.DefaultTracerConfig(c.Name)
	if c.Telemetry.Tracing.Endpoint == "" {
		c.Telemetry.Tracing.Endpoint = tracer.Endpoint
	}
	if c.Telemetry.Tracing.SampleRate == 0 {
		c.Telemetry.Tracing.SampleRate = tracer.SampleRate
	}
	meter := observability.DefaultMeterConfig(c.Name)
	if c.Telemetry.Metrics.Endpoint == "" {
		c.Telemetry.Metrics.Endpoint = meter.Endpoint
	}
	if c.Telemetry.Metrics.Interval == 0 {
		c.Telemetry.Metrics.Interval = meter.Interval
	}
}

// Validate checks the configuration after defaults are applied.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// TracerConfig returns the tracer settings for observability.InitTracer.
func (c *Config) TracerConfig() observability.TracerConfig {
	return observability.TracerConfig{
		ServiceName:    c.Name,
		ServiceVersion: c.Version,
		Environment:    c.Environment,
		Endpoint:       c.Telemetry.Tracing.Endpoint,
		Insecure:       c.Telemetry.Tracing.Insecure,
		SampleRate:     c.Telemetry.Tracing.SampleRate,
	}
}

// MeterConfig returns the meter settings for observability.InitMeter.
func (c *Config) MeterConfig() observability.MeterConfig {
	return observability.MeterConfig{
		ServiceName:    c.Name,
		ServiceVersion: c.Version,
		Environment:    c.Environment,
		Endpoint:       c.Telemetry.Metrics.Endpoint,
		Insecure:       c.Telemetry.Metrics.Insecure,
		Interval:       c.Telemetry.Metrics.Interval,
	}
}
