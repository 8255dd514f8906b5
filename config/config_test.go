package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperrors "github.com/kbukum/flowforge/errors"
	"github.com/kbukum/flowforge/storage"
)

type mockFS struct {
	files   map[string]bool
	env     map[string]string
	t       *testing.T
	loaded  []string
	homeErr bool
}

func (m *mockFS) Exists(path string) bool { return m.files[path] }

func (m *mockFS) LoadEnv(path string) error {
	m.loaded = append(m.loaded, path)
	for k, v := range m.env {
		m.t.Setenv(k, v)
	}
	return nil
}

func (m *mockFS) UserConfigDir() (string, error) {
	if m.homeErr {
		return "", os.ErrNotExist
	}
	return "/home/u/.config", nil
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flowforge.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Name != AppName || cfg.Environment != EnvDevelopment {
		t.Errorf("unexpected identity %q/%q", cfg.Name, cfg.Environment)
	}
	if cfg.Logging.Level != "info" || cfg.Storage.Provider != storage.ProviderLocal {
		t.Errorf("nested defaults not applied: %+v", cfg)
	}
	if cfg.Telemetry.Tracing.SampleRate != 1.0 || cfg.Telemetry.Metrics.Interval != 15*time.Second {
		t.Errorf("telemetry defaults not applied: %+v", cfg.Telemetry)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"environment", func(c *Config) { c.Environment = "qa" }, "environment"},
		{"negative concurrency", func(c *Config) { c.Engine.MaxConcurrency = -1 }, "engine.max_concurrency"},
		{"sample rate", func(c *Config) { c.Telemetry.Tracing.SampleRate = 2 }, "telemetry.tracing.sample_rate"},
		{"s3 without bucket", func(c *Config) { c.Storage = storage.Config{Provider: storage.ProviderS3, Region: "eu-west-1"} }, "storage.bucket"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "log.level"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.field) {
				t.Errorf("error should name %q, got %v", tc.field, err)
			}
		})
	}
}

func TestValidate_ReturnsValidationCode(t *testing.T) {
	cfg := Default()
	cfg.Environment = "qa"
	err := cfg.Validate()
	if !apperrors.HasCode(err, apperrors.ErrCodeInvalidConfig) {
		t.Errorf("expected INVALID_CONFIG, got %v", err)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, `
name: photo-sync
environment: staging
engine:
  max_concurrency: 4
  dry_run: true
logging:
  level: debug
  format: json
telemetry:
  metrics_file: /var/lib/node_exporter/flowforge.prom
  metrics:
    interval: 30s
storage:
  provider: s3
  bucket: exports
  force_path_style: true
`)
	cfg, err := Load(WithConfigFile(path))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "photo-sync" || cfg.Environment != EnvStaging {
		t.Errorf("unexpected identity %+v", cfg)
	}
	if cfg.Engine.MaxConcurrency != 4 || !cfg.Engine.DryRun {
		t.Errorf("unexpected engine %+v", cfg.Engine)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging %+v", cfg.Logging)
	}
	if cfg.Telemetry.Metrics.Interval != 30*time.Second || cfg.Telemetry.MetricsFile == "" {
		t.Errorf("unexpected telemetry %+v", cfg.Telemetry)
	}
	if cfg.Storage.Bucket != "exports" || cfg.Storage.Region != storage.DefaultRegion || !cfg.Storage.ForcePathStyle {
		t.Errorf("unexpected storage %+v", cfg.Storage)
	}

	tc := cfg.TracerConfig()
	if tc.ServiceName != "photo-sync" || tc.Environment != EnvStaging {
		t.Errorf("unexpected tracer config %+v", tc)
	}
	if mc := cfg.MeterConfig(); mc.Interval != 30*time.Second {
		t.Errorf("unexpected meter config %+v", mc)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "engine:\n  max_concurrency: 4\n")
	t.Setenv("FLOWFORGE_ENGINE_MAX_CONCURRENCY", "12")
	t.Setenv("FLOWFORGE_LOGGING_LEVEL", "warn")
	t.Setenv("FLOWFORGE_STORAGE_BASE_PATH", "/srv/exports")
	t.Setenv("ENGINE_MAX_CONCURRENCY", "99")

	cfg, err := Load(WithConfigFile(path))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.MaxConcurrency != 12 {
		t.Errorf("expected 12 from the environment, got %d", cfg.Engine.MaxConcurrency)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected warn, got %s", cfg.Logging.Level)
	}
	if cfg.Storage.BasePath != "/srv/exports" {
		t.Errorf("expected /srv/exports, got %s", cfg.Storage.BasePath)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	path := writeConfig(t, "name: flowforge\n")
	fs := &mockFS{
		t:     t,
		files: map[string]bool{path: true, ".env": true},
		env:   map[string]string{"FLOWFORGE_ENVIRONMENT": "production"},
	}
	cfg, err := Load(WithConfigFile(path), WithFileSystem(fs))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(fs.loaded) != 1 || fs.loaded[0] != ".env" {
		t.Errorf("expected .env to be loaded, got %v", fs.loaded)
	}
	if cfg.Environment != EnvProduction {
		t.Errorf("expected production from .env, got %s", cfg.Environment)
	}
}

func TestLoad_NoFiles(t *testing.T) {
	cfg, err := Load(WithFileSystem(&mockFS{t: t, files: map[string]bool{}}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != AppName {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(WithConfigFile(filepath.Join(t.TempDir(), "missing.yml"))); err == nil {
		t.Error("expected an error for a missing explicit file")
	}
	if _, err := Load(WithConfigFile(writeConfig(t, "engine: [unclosed"))); err == nil {
		t.Error("expected a parse error")
	}
	if _, err := Load(WithConfigFile(writeConfig(t, "environment: qa\n"))); err == nil {
		t.Error("expected a validation error")
	}
}

func TestResolver_SearchOrder(t *testing.T) {
	fs := &mockFS{t: t, files: map[string]bool{
		filepath.Join("config", "flowforge.yml"):                       true,
		filepath.Join("/home/u/.config", "flowforge", "flowforge.yml"): true,
		filepath.Join("config", ".env"):                                true,
	}}
	files := (&Resolver{FileSystem: fs}).ResolveFiles(LoaderConfig{})
	if files.ConfigFile != filepath.Join("config", "flowforge.yml") {
		t.Errorf("nearest config should win, got %q", files.ConfigFile)
	}
	if files.EnvFile != filepath.Join("config", ".env") {
		t.Errorf("unexpected env file %q", files.EnvFile)
	}

	fs.files = map[string]bool{filepath.Join("/home/u/.config", "flowforge", "flowforge.yml"): true}
	if got := (&Resolver{FileSystem: fs}).ResolveFiles(LoaderConfig{}).ConfigFile; !strings.HasPrefix(got, "/home/u/.config") {
		t.Errorf("expected the user config file, got %q", got)
	}

	fs.homeErr = true
	if got := (&Resolver{FileSystem: fs}).ResolveFiles(LoaderConfig{}).ConfigFile; got != "" {
		t.Errorf("expected no file, got %q", got)
	}
}

func TestResolver_ExplicitPathsWin(t *testing.T) {
	fs := &mockFS{t: t, files: map[string]bool{"flowforge.yml": true}}
	files := (&Resolver{FileSystem: fs}).ResolveFiles(LoaderConfig{ConfigFile: "/etc/ff.yml", EnvFile: "/etc/ff.env"})
	if files.ConfigFile != "/etc/ff.yml" || files.EnvFile != "/etc/ff.env" {
		t.Errorf("unexpected files %+v", files)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	got := envKeyVariants("ENGINE_MAX_CONCURRENCY")
	for _, want := range []string{"engine_max_concurrency", "engine.max.concurrency", "engine.max_concurrency"} {
		found := false
		for _, v := range got {
			if v == want {
				found = true
			}
		}
		if !found {
			t.Errorf("missing variant %q in %v", want, got)
		}
	}
	if got := envKeyVariants("NAME"); len(got) != 1 || got[0] != "name" {
		t.Errorf("unexpected variants %v", got)
	}
}
