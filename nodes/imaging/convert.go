package imaging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kbukum/flowforge/job"
	"github.com/kbukum/flowforge/node"
	"github.com/kbukum/flowforge/nodes/internal/check"
	"github.com/kbukum/flowforge/nodes/internal/fsutil"
	"github.com/kbukum/flowforge/validation"
)

// ImageConvert re-encodes images into another format and swaps the file
// extension. The source file is removed once the new one is written.
type ImageConvert struct {
	format Format
}

var _ node.Transform = (*ImageConvert)(nil)

// ImageConvertRegistration describes ImageConvert for a node registry.
func ImageConvertRegistration() node.Registration {
	return node.Registration{
		TypeKey:     TypeImageConvert,
		DisplayName: "Convert Image",
		Description: "Converts images to JPEG, PNG, BMP or TIFF.",
		Category:    node.CategoryTransform,
		Schema: node.Schema{
			{Key: "format", Kind: node.KindString, Label: "Target format", Required: true, Placeholder: "png"},
		},
		Factory: func() node.Node { return node.NewTransform(&ImageConvert{}) },
	}
}

func (c *ImageConvert) TypeKey() string { return TypeImageConvert }

func (c *ImageConvert) Configure(v node.Values) error {
	name := strings.ToLower(v.String("format"))
	errs := validation.New().OneOf("format", name, Formats)
	if errs.HasErrors() {
		return check.Error(TypeImageConvert, errs)
	}
	c.format, _ = ParseFormat(name)
	return nil
}

func (c *ImageConvert) Transform(ctx context.Context, j *job.Job, dryRun bool) ([]*job.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	oldPath := j.CurrentPath
	oldName := j.FileName()
	newPath := filepath.Join(j.Dir(), j.Stem()+c.format.Extension())

	if dryRun {
		j.CurrentPath = newPath
		j.Log(fmt.Sprintf("ImageConvert: would convert to %s", c.format))
		return []*job.Job{j}, nil
	}

	img, _, err := load(oldPath)
	if err != nil {
		return nil, err
	}
	if !fsutil.SamePath(oldPath, newPath) {
		newPath = fsutil.ResolveConflict(newPath)
	}
	if err := save(newPath, img, c.format, encodeOptions{}); err != nil {
		return nil, err
	}
	if !fsutil.SamePath(oldPath, newPath) {
		if err := os.Remove(oldPath); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	j.CurrentPath = newPath
	j.Log(fmt.Sprintf("ImageConvert: '%s' -> '%s'", oldName, j.FileName()))
	return []*job.Job{j}, nil
}
