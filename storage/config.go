package storage

import (
	"github.com/kbukum/flowforge/validation"
)

// Provider constants for supported storage backends.
const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

// Default configuration values.
const (
	DefaultProvider = ProviderLocal
	DefaultBasePath = "./flowforge-storage"
	DefaultRegion   = "us-east-1"
)

// Config holds storage configuration. It is loaded from the storage section
// of flowforge.yml and can be overridden per StorageOutput node.
type Config struct {
	// Provider selects the storage backend: "local" or "s3".
	Provider string `mapstructure:"provider" json:"provider" validate:"required,oneof=local s3"`

	// BasePath is the root directory for local storage.
	BasePath string `mapstructure:"base_path" json:"base_path" validate:"required_if=Provider local"`

	// Bucket is the S3 bucket name.
	Bucket string `mapstructure:"bucket" json:"bucket" validate:"required_if=Provider s3"`

	// Region is the AWS region for S3.
	Region string `mapstructure:"region" json:"region" validate:"required_if=Provider s3"`

	// Endpoint is a custom S3-compatible endpoint (e.g. MinIO).
	Endpoint string `mapstructure:"endpoint" json:"endpoint" validate:"omitempty,url"`

	// AccessKey is the AWS access key ID.
	AccessKey string `mapstructure:"access_key" json:"access_key"`

	// SecretKey is the AWS secret access key.
	SecretKey string `mapstructure:"secret_key" json:"-"`

	// ForcePathStyle forces path-style URLs instead of virtual-hosted-style.
	ForcePathStyle bool `mapstructure:"force_path_style" json:"force_path_style"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.Provider == ProviderLocal && c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
	if c.Provider == ProviderS3 && c.Region == "" {
		c.Region = DefaultRegion
	}
}

// Validate checks that the configuration is valid for the selected provider.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
