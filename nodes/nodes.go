// Package nodes registers the built-in node types.
//
//	reg, err := nodes.NewRegistry(nodes.WithLogger(log), nodes.WithStorage(cfg.Storage))
//	runner := engine.New(reg)
package nodes

import (
	"github.com/kbukum/flowforge/logger"
	"github.com/kbukum/flowforge/node"
	"github.com/kbukum/flowforge/nodes/imaging"
	"github.com/kbukum/flowforge/nodes/output"
	"github.com/kbukum/flowforge/nodes/source"
	"github.com/kbukum/flowforge/nodes/transform"
	"github.com/kbukum/flowforge/storage"

	// Storage backends available to StorageOutput.
	_ "github.com/kbukum/flowforge/storage/local"
	_ "github.com/kbukum/flowforge/storage/s3"
)

type options struct {
	log     *logger.Logger
	storage storage.Config
	open    output.StorageOpener
}

// Option configures the built-in nodes.
type Option func(*options)

// WithLogger sets the logger the nodes write diagnostics to.
func WithLogger(log *logger.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithStorage sets the storage configuration StorageOutput nodes start from.
func WithStorage(cfg storage.Config) Option {
	return func(o *options) { o.storage = cfg }
}

// WithStorageOpener replaces how StorageOutput creates its backend.
func WithStorageOpener(open output.StorageOpener) Option {
	return func(o *options) { o.open = open }
}

// Registrations returns the built-in node types.
func Registrations(opts ...Option) []node.Registration {
	o := options{log: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return []node.Registration{
		source.FolderInputRegistration(o.log),

		transform.FilterRegistration(),
		transform.SortRegistration(),
		transform.RenamePatternRegistration(),
		transform.RenameRegexRegistration(),
		transform.RenameAddAffixRegistration(),
		transform.MetadataExtractRegistration(o.log),

		imaging.ImageResizeRegistration(),
		imaging.ImageConvertRegistration(),
		imaging.ImageCompressRegistration(),

		output.FolderOutputRegistration(o.log),
		output.StorageOutputRegistration(o.log, o.storage, o.open),
	}
}

// RegisterDefaults adds the built-in node types to reg.
func RegisterDefaults(reg *node.Registry, opts ...Option) error {
	for _, r := range Registrations(opts...) {
		if err := reg.Register(r); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding the built-in node types.
func NewRegistry(opts ...Option) (*node.Registry, error) {
	reg := node.NewRegistry()
	if err := RegisterDefaults(reg, opts...); err != nil {
		return nil, err
	}
	return reg, nil
}
