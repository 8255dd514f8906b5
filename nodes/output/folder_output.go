// Package output provides the built-in output nodes.
package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/kbukum/flowforge/errors"
	"github.com/kbukum/flowforge/job"
	"github.com/kbukum/flowforge/logger"
	"github.com/kbukum/flowforge/node"
	"github.com/kbukum/flowforge/nodes/internal/fsutil"
	"github.com/kbukum/flowforge/observability"
)

// Type keys of the built-in outputs.
const (
	TypeFolderOutput  = "FolderOutput"
	TypeStorageOutput = "StorageOutput"
)

// Transfer modes.
const (
	ModeCopy = "copy"
	ModeMove = "move"
)

// FolderOutput copies or moves each file into a destination folder,
// optionally recreating the file's position below a source base path.
type FolderOutput struct {
	log               *logger.Logger
	path              string
	move              bool
	overwrite         bool
	preserveStructure bool
	sourceBasePath    string
}

var (
	_ node.Output                 = (*FolderOutput)(nil)
	_ observability.HealthChecker = (*FolderOutput)(nil)
)

// NewFolderOutput creates an unconfigured FolderOutput.
func NewFolderOutput(log *logger.Logger) *FolderOutput {
	if log == nil {
		log = logger.Nop()
	}
	return &FolderOutput{log: log.WithComponent(TypeFolderOutput)}
}

// FolderOutputRegistration describes FolderOutput for a node registry.
func FolderOutputRegistration(log *logger.Logger) node.Registration {
	return node.Registration{
		TypeKey:     TypeFolderOutput,
		DisplayName: "Folder Output",
		Description: "Copies or moves files into a destination folder.",
		Category:    node.CategoryOutput,
		Schema: node.Schema{
			{Key: "path", Kind: node.KindString, Label: "Destination", Required: true, Placeholder: "/photos/sorted"},
			{Key: "mode", Kind: node.KindString, Label: "Mode", Default: ModeCopy, Options: []string{ModeCopy, ModeMove}},
			{Key: "overwrite", Kind: node.KindBool, Label: "Overwrite existing", Default: false},
			{Key: "preserveStructure", Kind: node.KindBool, Label: "Keep subfolders", Default: false},
			{Key: "sourceBasePath", Kind: node.KindString, Label: "Source base path"},
		},
		Factory: func() node.Node { return node.NewOutput(NewFolderOutput(log)) },
	}
}

func (f *FolderOutput) TypeKey() string { return TypeFolderOutput }

func (f *FolderOutput) Configure(v node.Values) error {
	f.path = v.String("path")
	if f.path == "" {
		return apperrors.NodeConfiguration(TypeFolderOutput, "path", "is required")
	}
	f.move = strings.EqualFold(v.String("mode"), ModeMove)
	f.overwrite = v.Bool("overwrite")
	f.preserveStructure = v.Bool("preserveStructure")
	f.sourceBasePath = v.String("sourceBasePath")
	return nil
}

func (f *FolderOutput) mode() string {
	if f.move {
		return ModeMove
	}
	return ModeCopy
}

// destinationDir mirrors the original file's folder below the destination
// when preserveStructure is set and the file lies under sourceBasePath.
func (f *FolderOutput) destinationDir(j *job.Job) string {
	if !f.preserveStructure || f.sourceBasePath == "" {
		return f.path
	}
	rel, err := filepath.Rel(f.sourceBasePath, filepath.Dir(j.OriginalPath()))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return f.path
	}
	return filepath.Join(f.path, rel)
}

// Consume is safe for concurrent use; every call works on its own job.
func (f *FolderOutput) Consume(ctx context.Context, j *job.Job, dryRun bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := f.destinationDir(j)
	dest := filepath.Join(dir, j.FileName())

	if dryRun {
		j.Log(fmt.Sprintf("FolderOutput: -> '%s' (%s) [dry-run]", dest, f.mode()))
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	var err error
	if f.move {
		err = fsutil.Rename(j.CurrentPath, dest, f.overwrite)
	} else {
		err = fsutil.Copy(j.CurrentPath, dest, f.overwrite)
	}
	if err != nil {
		return err
	}

	f.log.Debug("file written", logger.Fields(logger.FieldFile, dest, "mode", f.mode()))
	j.CurrentPath = dest
	j.Log(fmt.Sprintf("FolderOutput: -> '%s' (%s)", dest, f.mode()))
	return nil
}

// CheckHealth reports whether the destination exists or can be created.
func (f *FolderOutput) CheckHealth(_ context.Context) observability.Health {
	h := observability.Health{
		Name:    TypeFolderOutput,
		Status:  observability.HealthStatusUp,
		Details: map[string]string{"path": f.path},
	}
	info, err := os.Stat(f.path)
	switch {
	case err == nil && !info.IsDir():
		h.Status = observability.HealthStatusDown
		h.Message = "not a directory"
	case os.IsNotExist(err):
		h.Status = observability.HealthStatusDegraded
		h.Message = "will be created on first write"
	case err != nil:
		h.Status = observability.HealthStatusDown
		h.Message = err.Error()
	}
	return h
}
