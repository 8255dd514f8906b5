package output

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/flowforge/job"
	"github.com/kbukum/flowforge/logger"
	"github.com/kbukum/flowforge/node"
	"github.com/kbukum/flowforge/nodes/internal/check"
	"github.com/kbukum/flowforge/observability"
	"github.com/kbukum/flowforge/resilience"
	"github.com/kbukum/flowforge/storage"
	"github.com/kbukum/flowforge/validation"
)

// MetaStorageURL is the metadata key StorageOutput records the object URL
// under.
const MetaStorageURL = "Storage:URL"

// StorageOpener creates the backend a StorageOutput uploads to.
type StorageOpener func(ctx context.Context, cfg storage.Config) (storage.Storage, error)

// DefaultUploadAttempts is the number of tries per file when the node does
// not set attempts.
const DefaultUploadAttempts = 3

// StorageOutput uploads each file to a storage backend under prefix/<name>.
// Node settings override the application's storage section.
//
// Transient upload errors are retried. After repeated failures in a row the
// node stops calling the backend and fails the remaining files immediately.
type StorageOutput struct {
	log       *logger.Logger
	base      storage.Config
	open      StorageOpener
	cfg       storage.Config
	prefix    string
	overwrite bool
	retry     resilience.RetryPolicy
	breaker   *resilience.Breaker

	once    sync.Once
	backend storage.Storage
	openErr error
}

var (
	_ node.Output                 = (*StorageOutput)(nil)
	_ observability.HealthChecker = (*StorageOutput)(nil)
)

// NewStorageOutput creates an unconfigured StorageOutput. A nil open uses
// storage.New with log.
func NewStorageOutput(log *logger.Logger, base storage.Config, open StorageOpener) *StorageOutput {
	if log == nil {
		log = logger.Nop()
	}
	if open == nil {
		open = func(ctx context.Context, cfg storage.Config) (storage.Storage, error) {
			return storage.New(ctx, cfg, log)
		}
	}
	return &StorageOutput{
		log:   log.WithComponent(TypeStorageOutput),
		base:  base,
		open:  open,
		retry: resilience.DefaultRetryPolicy(),
	}
}

// StorageOutputRegistration describes StorageOutput for a node registry.
func StorageOutputRegistration(log *logger.Logger, base storage.Config, open StorageOpener) node.Registration {
	return node.Registration{
		TypeKey:     TypeStorageOutput,
		DisplayName: "Storage Output",
		Description: "Uploads files to local storage or an S3-compatible bucket.",
		Category:    node.CategoryOutput,
		Schema: node.Schema{
			{Key: "provider", Kind: node.KindString, Label: "Provider", Options: []string{storage.ProviderLocal, storage.ProviderS3}},
			{Key: "prefix", Kind: node.KindString, Label: "Key prefix", Placeholder: "exports/2024"},
			{Key: "basePath", Kind: node.KindString, Label: "Local base path"},
			{Key: "bucket", Kind: node.KindString, Label: "Bucket"},
			{Key: "region", Kind: node.KindString, Label: "Region"},
			{Key: "endpoint", Kind: node.KindString, Label: "Endpoint", Placeholder: "http://localhost:9000"},
			{Key: "accessKey", Kind: node.KindString, Label: "Access key"},
			{Key: "secretKey", Kind: node.KindString, Label: "Secret key"},
			{Key: "forcePathStyle", Kind: node.KindBool, Label: "Path-style URLs"},
			{Key: "overwrite", Kind: node.KindBool, Label: "Overwrite existing", Default: false},
			{Key: "attempts", Kind: node.KindInt, Label: "Upload attempts", Default: DefaultUploadAttempts},
		},
		Factory: func() node.Node { return node.NewOutput(NewStorageOutput(log, base, open)) },
	}
}

func (s *StorageOutput) TypeKey() string { return TypeStorageOutput }

// Configure merges node settings over the base configuration and validates
// the result. The backend is not contacted until the first upload.
func (s *StorageOutput) Configure(v node.Values) error {
	cfg := s.base
	override := func(key string, dst *string) {
		if v.Has(key) {
			*dst = v.String(key)
		}
	}
	override("provider", &cfg.Provider)
	override("basePath", &cfg.BasePath)
	override("bucket", &cfg.Bucket)
	override("region", &cfg.Region)
	override("endpoint", &cfg.Endpoint)
	override("accessKey", &cfg.AccessKey)
	override("secretKey", &cfg.SecretKey)
	if v.Has("forcePathStyle") {
		cfg.ForcePathStyle = v.Bool("forcePathStyle")
	}
	cfg.ApplyDefaults()

	attempts := v.Int("attempts")
	errs := validation.New().Range("attempts", attempts, 1, 10)
	if err := cfg.Validate(); err != nil {
		errs.AddError("storage", err.Error())
	}
	if errs.HasErrors() {
		return check.Error(TypeStorageOutput, errs)
	}

	s.cfg = cfg
	s.prefix = strings.Trim(v.String("prefix"), "/")
	s.overwrite = v.Bool("overwrite")
	s.retry.Attempts = attempts
	s.retry.OnRetry = func(attempt int, err error, wait time.Duration) {
		s.log.Warn("upload failed, retrying", logger.Fields(
			"attempt", attempt, logger.FieldError, err.Error(), "wait", wait.String()))
	}
	s.breaker = resilience.NewBreaker(resilience.BreakerConfig{
		Name:      cfg.Provider + " storage",
		IsFailure: resilience.Transient,
		OnStateChange: func(name string, from, to resilience.BreakerState) {
			s.log.Warn("storage breaker "+to.String(), logger.Fields("breaker", name, "from", from.String()))
		},
	})
	return nil
}

func (s *StorageOutput) backendFor(ctx context.Context) (storage.Storage, error) {
	s.once.Do(func() {
		s.backend, s.openErr = s.open(ctx, s.cfg)
	})
	return s.backend, s.openErr
}

func (s *StorageOutput) key(j *job.Job) string {
	return path.Join(s.prefix, j.FileName())
}

// Consume is safe for concurrent use.
func (s *StorageOutput) Consume(ctx context.Context, j *job.Job, dryRun bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := s.key(j)
	if dryRun {
		j.Log(fmt.Sprintf("StorageOutput: -> %s:'%s' [dry-run]", s.cfg.Provider, key))
		return nil
	}

	backend, err := s.backendFor(ctx)
	if err != nil {
		return fmt.Errorf("opening %s storage: %w", s.cfg.Provider, err)
	}
	if !s.overwrite {
		exists, err := backend.Exists(ctx, key)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("object already exists: '%s'", key)
		}
	}

	err = s.breaker.Do(func() error {
		return s.retry.Do(ctx, func(ctx context.Context) error {
			return upload(ctx, backend, key, j.CurrentPath)
		})
	})
	if err != nil {
		return err
	}

	url, err := backend.URL(ctx, key)
	if err != nil {
		url = key
	}
	j.Metadata[MetaStorageURL] = url
	s.log.Debug("file uploaded", logger.Fields(logger.FieldFile, j.CurrentPath, "key", key))
	j.Log(fmt.Sprintf("StorageOutput: -> '%s'", url))
	return nil
}

// upload reopens the file on every attempt; a failed upload may have
// consumed the reader.
func upload(ctx context.Context, backend storage.Storage, key, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()
	return backend.Upload(ctx, key, f)
}

// CheckHealth opens the backend and probes it.
func (s *StorageOutput) CheckHealth(ctx context.Context) observability.Health {
	backend, err := s.backendFor(ctx)
	if err != nil {
		return observability.Health{
			Name:    TypeStorageOutput,
			Status:  observability.HealthStatusDown,
			Message: err.Error(),
			Details: map[string]string{"provider": s.cfg.Provider},
		}
	}
	h := storage.CheckHealth(ctx, TypeStorageOutput, backend)
	if h.Details == nil {
		h.Details = map[string]string{}
	}
	h.Details["provider"] = s.cfg.Provider
	return h
}
