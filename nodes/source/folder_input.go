// Package source provides the built-in source nodes.
package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "github.com/kbukum/flowforge/errors"
	"github.com/kbukum/flowforge/job"
	"github.com/kbukum/flowforge/logger"
	"github.com/kbukum/flowforge/node"
	"github.com/kbukum/flowforge/observability"
	"github.com/kbukum/flowforge/seq"
)

// TypeFolderInput is the registry key of FolderInput.
const TypeFolderInput = "FolderInput"

// FolderInput emits one job per file in a directory whose name matches one
// of a set of glob patterns.
type FolderInput struct {
	log       *logger.Logger
	path      string
	recursive bool
	patterns  []string
}

var (
	_ node.Source                 = (*FolderInput)(nil)
	_ observability.HealthChecker = (*FolderInput)(nil)
)

// NewFolderInput creates an unconfigured FolderInput.
func NewFolderInput(log *logger.Logger) *FolderInput {
	if log == nil {
		log = logger.Nop()
	}
	return &FolderInput{log: log.WithComponent(TypeFolderInput)}
}

// FolderInputRegistration describes FolderInput for a node registry.
func FolderInputRegistration(log *logger.Logger) node.Registration {
	return node.Registration{
		TypeKey:     TypeFolderInput,
		DisplayName: "Folder Input",
		Description: "Reads files from a folder, optionally recursing into subfolders.",
		Category:    node.CategorySource,
		Schema: node.Schema{
			{Key: "path", Kind: node.KindString, Label: "Folder", Required: true, Placeholder: "/photos/inbox"},
			{Key: "recursive", Kind: node.KindBool, Label: "Include subfolders", Default: false},
			{Key: "filter", Kind: node.KindString, Label: "File filter", Default: "*", Placeholder: "*.jpg;*.png"},
		},
		Factory: func() node.Node { return node.NewSource(NewFolderInput(log)) },
	}
}

func (f *FolderInput) TypeKey() string { return TypeFolderInput }

func (f *FolderInput) Configure(v node.Values) error {
	f.path = v.String("path")
	if f.path == "" {
		return apperrors.NodeConfiguration(TypeFolderInput, "path", "is required")
	}
	f.recursive = v.Bool("recursive")
	f.patterns = splitPatterns(v.String("filter"))
	for _, p := range f.patterns {
		if _, err := filepath.Match(p, ""); err != nil {
			return apperrors.NodeConfiguration(TypeFolderInput, "filter", fmt.Sprintf("invalid pattern '%s'", p))
		}
	}
	return nil
}

func splitPatterns(filter string) []string {
	var out []string
	for _, p := range strings.Split(filter, ";") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	if len(out) == 0 {
		out = []string{"*"}
	}
	return out
}

// Produce lists the folder on the first pull and then yields the matches in
// case-insensitive path order. A missing folder is reported by the first
// pull.
func (f *FolderInput) Produce(ctx context.Context) seq.Iterator[*job.Job] {
	var (
		files  []string
		listed bool
		next   int
	)
	return seq.FromFunc(func(ctx context.Context) (*job.Job, bool, error) {
		if !listed {
			listed = true
			var err error
			if files, err = f.list(ctx); err != nil {
				return nil, false, err
			}
			f.log.Debug("folder listed", logger.Fields("path", f.path, "files", len(files)))
		}
		if next >= len(files) {
			return nil, false, nil
		}
		next++
		return job.New(files[next-1]), true, nil
	}, nil)
}

func (f *FolderInput) list(ctx context.Context) ([]string, error) {
	info, err := os.Stat(f.path)
	if err != nil || !info.IsDir() {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, fmt.Sprintf("source folder not found: '%s'", f.path)).
			WithDetail("path", f.path)
	}

	seen := make(map[string]struct{})
	var files []string
	err = filepath.WalkDir(f.path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != f.path && !f.recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !f.matches(d.Name()) {
			return nil
		}
		if _, dup := seen[path]; !dup {
			seen[path] = struct{}{}
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(files, func(i, j int) bool {
		return strings.ToLower(files[i]) < strings.ToLower(files[j])
	})
	return files, nil
}

func (f *FolderInput) matches(name string) bool {
	name = strings.ToLower(name)
	for _, p := range f.patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}

// CheckHealth reports whether the source folder is readable.
func (f *FolderInput) CheckHealth(_ context.Context) observability.Health {
	h := observability.Health{
		Name:    TypeFolderInput,
		Status:  observability.HealthStatusUp,
		Details: map[string]string{"path": f.path},
	}
	info, err := os.Stat(f.path)
	switch {
	case err != nil:
		h.Status = observability.HealthStatusDown
		h.Message = err.Error()
	case !info.IsDir():
		h.Status = observability.HealthStatusDown
		h.Message = "not a directory"
	}
	return h
}
