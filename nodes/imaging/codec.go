// Package imaging provides the built-in image transforms: resize, format
// conversion and re-compression. Images are rewritten in place through a
// temporary file, so a failed encode leaves the original untouched.
package imaging

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/kbukum/flowforge/nodes/internal/fsutil"
)

// Type keys of the image transforms.
const (
	TypeImageResize   = "ImageResize"
	TypeImageConvert  = "ImageConvert"
	TypeImageCompress = "ImageCompress"
)

// Format is an encodable image format.
type Format string

const (
	FormatJPEG Format = "jpg"
	FormatPNG  Format = "png"
	FormatGIF  Format = "gif"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
)

// Formats lists every format the nodes can write. WebP is decoded but
// cannot be written.
var Formats = []string{string(FormatJPEG), "jpeg", string(FormatPNG), string(FormatBMP), string(FormatTIFF)}

// Extension returns the canonical file extension, including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// ParseFormat maps a format name or file extension to a Format.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "jpg", "jpeg":
		return FormatJPEG, true
	case "png":
		return FormatPNG, true
	case "gif":
		return FormatGIF, true
	case "bmp":
		return FormatBMP, true
	case "tif", "tiff":
		return FormatTIFF, true
	}
	return "", false
}

// encodeOptions tune lossy and compressed encoders. Zero means the encoder
// default.
type encodeOptions struct {
	quality int
}

// pngLevel maps a 1-100 quality to a PNG compression level: higher quality
// spends less effort compressing.
func pngLevel(quality int) png.CompressionLevel {
	switch {
	case quality <= 0:
		return png.DefaultCompression
	case quality >= 90:
		return png.BestSpeed
	case quality >= 50:
		return png.DefaultCompression
	}
	return png.BestCompression
}

func encode(w io.Writer, img image.Image, f Format, opts encodeOptions) error {
	switch f {
	case FormatJPEG:
		q := jpeg.DefaultQuality
		if opts.quality > 0 {
			q = opts.quality
		}
		return jpeg.Encode(w, img, &jpeg.Options{Quality: q})
	case FormatPNG:
		enc := png.Encoder{CompressionLevel: pngLevel(opts.quality)}
		return enc.Encode(w, img)
	case FormatGIF:
		return gif.Encode(w, img, nil)
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatTIFF:
		compression := tiff.Uncompressed
		if opts.quality > 0 {
			compression = tiff.Deflate
		}
		return tiff.Encode(w, img, &tiff.Options{Compression: compression, Predictor: compression == tiff.Deflate})
	}
	return fmt.Errorf("no encoder for format '%s'", f)
}

// load decodes the image at path. The returned Format is the format the
// file was actually written in, or empty when it cannot be re-encoded.
func load(path string) (image.Image, Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	img, name, err := image.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("decoding '%s': %w", filepath.Base(path), err)
	}
	format, _ := ParseFormat(name)
	return img, format, nil
}

// save encodes img to path atomically.
func save(path string, img image.Image, f Format, opts encodeOptions) error {
	return fsutil.WriteAtomic(path, func(w io.Writer) error {
		return encode(w, img, f, opts)
	})
}
