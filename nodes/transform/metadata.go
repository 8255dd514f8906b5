package transform

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strconv"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/kbukum/flowforge/job"
	"github.com/kbukum/flowforge/logger"
	"github.com/kbukum/flowforge/node"
	"github.com/kbukum/flowforge/nodes/internal/check"
	"github.com/kbukum/flowforge/nodes/internal/fsutil"
	"github.com/kbukum/flowforge/validation"
)

// Metadata key namespaces.
const (
	NamespaceFile  = "File:"
	NamespaceImage = "Image:"
	NamespaceExif  = "EXIF:"
)

// MetadataExtract copies file, image and EXIF attributes into job metadata
// so later nodes can use them, for example through {meta:EXIF:DateTaken}.
//
// Supported keys: File:SizeBytes, File:CreatedAt, File:ModifiedAt,
// Image:Width, Image:Height, Image:Format, EXIF:DateTaken, EXIF:CameraMake,
// EXIF:CameraModel, EXIF:FocalLength, EXIF:ISO, EXIF:GPS, and EXIF:<tag>
// for any other EXIF field name.
type MetadataExtract struct {
	log  *logger.Logger
	keys []string
}

var _ node.Transform = (*MetadataExtract)(nil)

// NewMetadataExtract creates an unconfigured MetadataExtract.
func NewMetadataExtract(log *logger.Logger) *MetadataExtract {
	if log == nil {
		log = logger.Nop()
	}
	return &MetadataExtract{log: log.WithComponent(TypeMetadataExtract)}
}

// MetadataExtractRegistration describes MetadataExtract for a node registry.
func MetadataExtractRegistration(log *logger.Logger) node.Registration {
	return node.Registration{
		TypeKey:     TypeMetadataExtract,
		DisplayName: "Extract Metadata",
		Description: "Reads file, image and EXIF attributes into job metadata.",
		Category:    node.CategoryTransform,
		Schema: node.Schema{
			{Key: "keys", Kind: node.KindStringList, Label: "Metadata keys", Required: true, Placeholder: "EXIF:DateTaken, File:SizeBytes"},
		},
		Factory: func() node.Node { return node.NewTransform(NewMetadataExtract(log)) },
	}
}

func (m *MetadataExtract) TypeKey() string { return TypeMetadataExtract }

func (m *MetadataExtract) Configure(v node.Values) error {
	m.keys = v.StringList("keys")
	errs := validation.New().Custom(len(m.keys) > 0, "keys", "must contain at least one key")
	for _, k := range m.keys {
		if !hasNamespace(k) {
			errs.AddError("keys", fmt.Sprintf("'%s' must start with File:, Image: or EXIF:", k))
		}
	}
	if errs.HasErrors() {
		return check.Error(TypeMetadataExtract, errs)
	}
	return nil
}

func hasNamespace(key string) bool {
	for _, ns := range []string{NamespaceFile, NamespaceImage, NamespaceExif} {
		if len(key) > len(ns) && strings.EqualFold(key[:len(ns)], ns) {
			return true
		}
	}
	return false
}

func (m *MetadataExtract) Transform(ctx context.Context, j *job.Job, _ bool) ([]*job.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := &metadataReader{path: j.CurrentPath, log: m.log}
	extracted := 0
	for _, key := range m.keys {
		value, ok := r.value(key)
		if !ok {
			j.Log(fmt.Sprintf("MetadataExtract: WARNING no value found for key '%s' in '%s'", key, j.FileName()))
			continue
		}
		j.Metadata[key] = value
		extracted++
	}
	j.Log(fmt.Sprintf("MetadataExtract: extracted %d keys", extracted))
	return []*job.Job{j}, nil
}

// metadataReader decodes each source at most once per job.
type metadataReader struct {
	path string
	log  *logger.Logger

	imageRead bool
	config    image.Config
	format    string
	imageErr  error

	exifRead bool
	exif     *exif.Exif
}

func (r *metadataReader) value(key string) (string, bool) {
	ns, name, _ := strings.Cut(key, ":")
	name = strings.ToLower(name)
	switch strings.ToLower(ns) + ":" {
	case strings.ToLower(NamespaceFile):
		return r.fileValue(name)
	case strings.ToLower(NamespaceImage):
		return r.imageValue(name)
	case strings.ToLower(NamespaceExif):
		return r.exifValue(key[len(NamespaceExif):], name)
	}
	return "", false
}

func (r *metadataReader) fileValue(name string) (string, bool) {
	info, ok := fsutil.Stat(r.path)
	if !ok {
		return "", false
	}
	switch name {
	case "sizebytes":
		return strconv.FormatInt(info.Size, 10), true
	case "createdat":
		return info.CreatedAt.Format(fsutil.TimestampLayout), true
	case "modifiedat":
		return info.ModifiedAt.Format(fsutil.TimestampLayout), true
	}
	return "", false
}

func (r *metadataReader) imageValue(name string) (string, bool) {
	if !r.imageRead {
		r.imageRead = true
		r.config, r.format, r.imageErr = decodeImageConfig(r.path)
		if r.imageErr != nil {
			r.log.Debug("image header unreadable", logger.Fields(logger.FieldFile, r.path, logger.FieldError, r.imageErr.Error()))
		}
	}
	if r.imageErr != nil {
		return "", false
	}
	switch name {
	case "width":
		return strconv.Itoa(r.config.Width), true
	case "height":
		return strconv.Itoa(r.config.Height), true
	case "format":
		return r.format, true
	}
	return "", false
}

func decodeImageConfig(path string) (image.Config, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Config{}, "", err
	}
	defer f.Close()
	return image.DecodeConfig(f)
}

func (r *metadataReader) exifValue(rawName, name string) (string, bool) {
	if !r.exifRead {
		r.exifRead = true
		r.exif = r.decodeExif()
	}
	if r.exif == nil {
		return "", false
	}

	switch name {
	case "datetaken":
		t, err := r.exif.DateTime()
		if err != nil {
			return "", false
		}
		return t.Format(fsutil.TimestampLayout), true
	case "cameramake":
		return r.tag(exif.Make)
	case "cameramodel":
		return r.tag(exif.Model)
	case "focallength":
		return r.tag(exif.FocalLength)
	case "iso":
		return r.tag(exif.ISOSpeedRatings)
	case "gps":
		lat, long, err := r.exif.LatLong()
		if err != nil {
			return "", false
		}
		return fmt.Sprintf("%.6f,%.6f", lat, long), true
	}
	return r.tag(exif.FieldName(rawName))
}

func (r *metadataReader) decodeExif() *exif.Exif {
	f, err := os.Open(r.path)
	if err != nil {
		return nil
	}
	defer f.Close()
	x, err := exif.Decode(f)
	if err != nil {
		r.log.Debug("no exif data", logger.Fields(logger.FieldFile, r.path, logger.FieldError, err.Error()))
		return nil
	}
	return x
}

func (r *metadataReader) tag(field exif.FieldName) (string, bool) {
	t, err := r.exif.Get(field)
	if err != nil {
		return "", false
	}
	var s string
	if t.Format() == tiff.StringVal {
		s, err = t.StringVal()
		if err != nil {
			return "", false
		}
	} else {
		s = strings.Trim(t.String(), `"`)
	}
	s = fsutil.SanitizeFileName(strings.TrimRight(s, "\x00"))
	return s, s != ""
}
