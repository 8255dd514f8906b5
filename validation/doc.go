// Package validation checks configuration values.
//
// It supports both struct tag validation (using the validator library) for
// application configuration and programmatic validation with error
// collection for node settings that depend on each other.
//
// # Struct Tag Validation
//
//	type Config struct {
//	    Provider string `mapstructure:"provider" validate:"required,oneof=local s3"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
//	err := validation.New().
//	    Custom(prefix != "" || suffix != "", "prefix", "prefix or suffix is required").
//	    Validate()
//
// Both forms return an INVALID_CONFIG *errors.AppError whose "fields"
// detail lists every violation.
package validation
