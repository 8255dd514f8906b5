package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix marks the environment variables that override file values.
const EnvPrefix = "FLOWFORGE_"

// FileSystem abstracts file lookups so the resolver can be tested.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
	UserConfigDir() (string, error)
}

// RealFileSystem implements FileSystem on the host.
type RealFileSystem struct{}

func (RealFileSystem) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

func (RealFileSystem) UserConfigDir() (string, error) {
	return os.UserConfigDir()
}

// Resolver finds the config and env files.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles holds the files a load reads. Empty means none was found.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles keeps explicit paths and searches for the rest.
func (r *Resolver) ResolveFiles(opts LoaderConfig) ResolvedFiles {
	resolved := ResolvedFiles{ConfigFile: opts.ConfigFile, EnvFile: opts.EnvFile}
	if resolved.ConfigFile == "" {
		resolved.ConfigFile = r.first(r.configSearchPaths())
	}
	if resolved.EnvFile == "" {
		resolved.EnvFile = r.first([]string{".env", filepath.Join("config", ".env")})
	}
	return resolved
}

// configSearchPaths lists flowforge.yml locations, nearest first.
func (r *Resolver) configSearchPaths() []string {
	var paths []string
	for _, ext := range []string{".yml", ".yaml"} {
		paths = append(paths,
			AppName+ext,
			filepath.Join("config", AppName+ext),
		)
	}
	if dir, err := r.FileSystem.UserConfigDir(); err == nil {
		paths = append(paths,
			filepath.Join(dir, AppName, AppName+".yml"),
			filepath.Join(dir, AppName, AppName+".yaml"),
		)
	}
	return paths
}

func (r *Resolver) first(paths []string) string {
	for _, p := range paths {
		if r.FileSystem.Exists(p) {
			return p
		}
	}
	return ""
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string // explicit config file (optional)
	EnvFile    string // explicit .env file (optional)
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// Load reads flowforge.yml, applies .env and FLOWFORGE_* environment
// overrides, then applies defaults and validates. Without any file the
// defaults are returned.
//
// An explicit config file that does not exist is an error; a searched one
// is simply skipped.
func Load(opts ...LoaderOption) (*Config, error) {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = RealFileSystem{}
	}
	if lc.ConfigFile != "" && !lc.FileSystem.Exists(lc.ConfigFile) {
		return nil, fmt.Errorf("config file not found: %s", lc.ConfigFile)
	}

	resolver := &Resolver{FileSystem: lc.FileSystem}
	files := resolver.ResolveFiles(lc)

	cfg := &Config{}
	if err := loadFromResolvedFiles(cfg, files, lc.FileSystem); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromResolvedFiles(cfg *Config, files ResolvedFiles, fs FileSystem) error {
	v := viper.New()

	if files.ConfigFile != "" {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", files.ConfigFile, err)
		}
	}

	// .env never overrides variables already set in the environment.
	if files.EnvFile != "" && fs.Exists(files.EnvFile) {
		if err := fs.LoadEnv(files.EnvFile); err != nil {
			return fmt.Errorf("loading env file %s: %w", files.EnvFile, err)
		}
	}
	bindEnvVars(v, os.Environ())

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}
	return nil
}

// bindEnvVars sets every FLOWFORGE_* variable under each nested key it could
// name, since underscores separate both sections and words:
// FLOWFORGE_ENGINE_MAX_CONCURRENCY sets engine.max_concurrency.
func bindEnvVars(v *viper.Viper, environ []string) {
	for _, env := range environ {
		key, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		for _, variant := range envKeyVariants(strings.TrimPrefix(key, EnvPrefix)) {
			v.Set(variant, value)
		}
	}
}

// envKeyVariants returns the nested keys an env name may address:
//
//	STORAGE_BASE_PATH -> [storage_base_path, storage.base.path, storage.base_path]
//	TELEMETRY_TRACING_SAMPLE_RATE -> [..., telemetry.tracing.sample_rate, ...]
func envKeyVariants(envKey string) []string {
	lower := strings.ToLower(envKey)
	parts := strings.Split(lower, "_")
	if len(parts) <= 1 {
		return []string{lower}
	}

	variants := []string{lower, strings.Join(parts, ".")}
	// Every split into dotted sections followed by one underscored leaf.
	for i := 1; i < len(parts); i++ {
		variants = append(variants, strings.Join(parts[:i], ".")+"."+strings.Join(parts[i:], "_"))
	}
	return removeDuplicates(variants)
}

func removeDuplicates(items []string) []string {
	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}
