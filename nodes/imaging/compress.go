package imaging

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kbukum/flowforge/job"
	"github.com/kbukum/flowforge/node"
	"github.com/kbukum/flowforge/nodes/internal/check"
	"github.com/kbukum/flowforge/nodes/internal/fsutil"
	"github.com/kbukum/flowforge/validation"
)

// ImageCompress re-encodes images in place at a given quality. JPEG uses the
// quality directly; PNG maps it to a compression level and TIFF switches to
// deflate.
type ImageCompress struct {
	quality int
	format  Format
}

var _ node.Transform = (*ImageCompress)(nil)

// ImageCompressRegistration describes ImageCompress for a node registry.
func ImageCompressRegistration() node.Registration {
	return node.Registration{
		TypeKey:     TypeImageCompress,
		DisplayName: "Compress Image",
		Description: "Re-encodes images at a lower quality to save space.",
		Category:    node.CategoryTransform,
		Schema: node.Schema{
			{Key: "quality", Kind: node.KindInt, Label: "Quality (1-100)", Required: true, Placeholder: "80"},
			{Key: "format", Kind: node.KindString, Label: "Encoder", Placeholder: "same as file"},
		},
		Factory: func() node.Node { return node.NewTransform(&ImageCompress{}) },
	}
}

func (c *ImageCompress) TypeKey() string { return TypeImageCompress }

func (c *ImageCompress) Configure(v node.Values) error {
	c.quality = v.Int("quality")
	name := strings.ToLower(v.String("format"))

	errs := validation.New().Range("quality", c.quality, 1, 100)
	errs.OneOf("format", name, []string{"jpg", "jpeg", "png", "tiff"})
	if errs.HasErrors() {
		return check.Error(TypeImageCompress, errs)
	}
	c.format, _ = ParseFormat(name)
	return nil
}

func (c *ImageCompress) Transform(ctx context.Context, j *job.Job, dryRun bool) ([]*job.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if dryRun {
		j.Log(fmt.Sprintf("ImageCompress: would compress to quality=%d", c.quality))
		return []*job.Job{j}, nil
	}

	format := c.format
	if format == "" {
		format, _ = ParseFormat(filepath.Ext(j.CurrentPath))
	}
	switch format {
	case FormatJPEG, FormatPNG, FormatTIFF:
	default:
		return nil, fmt.Errorf("cannot compress '%s': only JPEG, PNG and TIFF are supported", j.FileName())
	}

	img, _, err := load(j.CurrentPath)
	if err != nil {
		return nil, err
	}
	if err := save(j.CurrentPath, img, format, encodeOptions{quality: c.quality}); err != nil {
		return nil, err
	}

	info, _ := fsutil.Stat(j.CurrentPath)
	j.Log(fmt.Sprintf("ImageCompress: compressed to quality=%d (%d bytes)", c.quality, info.Size))
	return []*job.Job{j}, nil
}
