package imaging

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"github.com/kbukum/flowforge/job"
	"github.com/kbukum/flowforge/node"
	"github.com/kbukum/flowforge/nodes/internal/check"
	"github.com/kbukum/flowforge/validation"
)

// Resize modes.
const (
	ModeMax     = "max"
	ModeMin     = "min"
	ModeCrop    = "crop"
	ModePad     = "pad"
	ModeStretch = "stretch"
)

// ImageResize scales images to a target box.
//
//   - max: fit inside the box, keeping the aspect ratio
//   - min: cover the box, keeping the aspect ratio, never enlarging
//   - crop: cover the box, then crop the overflow around the center
//   - pad: fit inside the box, then pad to exactly the box
//   - stretch: exactly the box, ignoring the aspect ratio
//
// A zero width or height is derived from the other dimension.
type ImageResize struct {
	width  int
	height int
	mode   string
}

var _ node.Transform = (*ImageResize)(nil)

// ImageResizeRegistration describes ImageResize for a node registry.
func ImageResizeRegistration() node.Registration {
	return node.Registration{
		TypeKey:     TypeImageResize,
		DisplayName: "Resize Image",
		Description: "Scales images to a target width and/or height.",
		Category:    node.CategoryTransform,
		Schema: node.Schema{
			{Key: "width", Kind: node.KindInt, Label: "Width (px)"},
			{Key: "height", Kind: node.KindInt, Label: "Height (px)"},
			{Key: "mode", Kind: node.KindString, Label: "Mode", Default: ModeMax,
				Options: []string{ModeMax, ModeMin, ModeCrop, ModePad, ModeStretch}},
			{Key: "maintainAspect", Kind: node.KindBool, Label: "Keep aspect ratio", Default: true},
		},
		Factory: func() node.Node { return node.NewTransform(&ImageResize{}) },
	}
}

func (r *ImageResize) TypeKey() string { return TypeImageResize }

func (r *ImageResize) Configure(v node.Values) error {
	r.width = v.Int("width")
	r.height = v.Int("height")
	r.mode = strings.ToLower(v.String("mode"))
	if r.mode == "" {
		r.mode = ModeMax
	}
	if v.Has("maintainAspect") && !v.Bool("maintainAspect") {
		r.mode = ModeStretch
	}

	errs := validation.New()
	errs.Custom(r.width > 0 || r.height > 0, "width", "at least one of width or height is required")
	errs.Min("width", r.width, 0).Min("height", r.height, 0)
	if errs.HasErrors() {
		return check.Error(TypeImageResize, errs)
	}
	return nil
}

func (r *ImageResize) Transform(ctx context.Context, j *job.Job, dryRun bool) ([]*job.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if dryRun {
		j.Log(fmt.Sprintf("ImageResize: would resize to %dx%d (%s)", r.width, r.height, r.mode))
		return []*job.Job{j}, nil
	}

	src, format, err := load(j.CurrentPath)
	if err != nil {
		return nil, err
	}
	if f, ok := ParseFormat(filepath.Ext(j.CurrentPath)); ok {
		format = f
	}
	if format == "" {
		return nil, fmt.Errorf("cannot write '%s': unsupported image format", j.FileName())
	}

	dst := r.resize(src)
	if err := save(j.CurrentPath, dst, format, encodeOptions{}); err != nil {
		return nil, err
	}
	b := dst.Bounds()
	j.Log(fmt.Sprintf("ImageResize: resized to %dx%d (%s)", b.Dx(), b.Dy(), r.mode))
	return []*job.Job{j}, nil
}

func (r *ImageResize) resize(src image.Image) image.Image {
	sw, sh := src.Bounds().Dx(), src.Bounds().Dy()
	tw, th := targetBox(sw, sh, r.width, r.height)

	switch r.mode {
	case ModeStretch:
		return scale(src, tw, th)
	case ModeMin:
		k := math.Max(float64(tw)/float64(sw), float64(th)/float64(sh))
		if k >= 1 {
			return src
		}
		return scale(src, scaled(sw, k), scaled(sh, k))
	case ModeCrop:
		k := math.Max(float64(tw)/float64(sw), float64(th)/float64(sh))
		covered := scale(src, scaled(sw, k), scaled(sh, k))
		cb := covered.Bounds()
		x0 := cb.Min.X + (cb.Dx()-tw)/2
		y0 := cb.Min.Y + (cb.Dy()-th)/2
		out := image.NewRGBA(image.Rect(0, 0, tw, th))
		draw.Draw(out, out.Bounds(), covered, image.Pt(x0, y0), draw.Src)
		return out
	case ModePad:
		k := math.Min(float64(tw)/float64(sw), float64(th)/float64(sh))
		fitted := scale(src, scaled(sw, k), scaled(sh, k))
		fb := fitted.Bounds()
		out := image.NewRGBA(image.Rect(0, 0, tw, th))
		draw.Draw(out, out.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)
		offset := image.Pt((tw-fb.Dx())/2, (th-fb.Dy())/2)
		draw.Draw(out, fb.Sub(fb.Min).Add(offset), fitted, fb.Min, draw.Over)
		return out
	}

	k := math.Min(float64(tw)/float64(sw), float64(th)/float64(sh))
	return scale(src, scaled(sw, k), scaled(sh, k))
}

// targetBox fills in a missing dimension from the source aspect ratio.
func targetBox(sw, sh, w, h int) (int, int) {
	switch {
	case w > 0 && h > 0:
		return w, h
	case w > 0:
		return w, scaled(sh, float64(w)/float64(sw))
	default:
		return scaled(sw, float64(h)/float64(sh)), h
	}
}

func scaled(n int, k float64) int {
	v := int(math.Round(float64(n) * k))
	if v < 1 {
		return 1
	}
	return v
}

func scale(src image.Image, w, h int) image.Image {
	b := src.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
