// Package decode probes and verifies page images and renders thumbnails.
package decode

import (
	"bytes"
	"context"
	"errors"
	"image"
	"path/filepath"
	"strings"

	// Registered formats for image.Decode / image.DecodeConfig.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/jackzampolin/folio/internal/pageerr"
)

// Decoder turns raw page bytes into what the cache stores, and reports
// image dimensions for layout.
type Decoder interface {
	Decode(ctx context.Context, data []byte) ([]byte, error)
	ProbeDimensions(data []byte) (width, height int, err error)
}

// ImageDecoder validates pages with the registered image codecs and keeps
// them in their encoded form, which is what renderers consume.
type ImageDecoder struct {
	// Verify fully decodes pixels instead of only reading the header.
	Verify bool
}

var _ Decoder = (*ImageDecoder)(nil)

// Decode checks that data is an image and returns it unchanged.
// Formats with no registered codec (avif, jxl) pass through unverified.
func (d *ImageDecoder) Decode(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, pageerr.FromContext(err)
	}
	if len(data) == 0 {
		return nil, pageerr.Decode("empty page data", nil)
	}

	var err error
	if d.Verify {
		_, _, err = image.Decode(bytes.NewReader(data))
	} else {
		_, _, err = image.DecodeConfig(bytes.NewReader(data))
	}
	if errors.Is(err, image.ErrFormat) && passthrough(SniffMimeType(data)) {
		return data, nil
	}
	if err != nil {
		return nil, pageerr.Decode("invalid image", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, pageerr.FromContext(err)
	}
	return data, nil
}

// ProbeDimensions reads only the image header. Unknown but recognizable
// formats report 0x0, which layout treats as square.
func (d *ImageDecoder) ProbeDimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) && passthrough(SniffMimeType(data)) {
			return 0, 0, nil
		}
		return 0, 0, pageerr.Decode("probe dimensions", err)
	}
	return cfg.Width, cfg.Height, nil
}

func passthrough(mime string) bool {
	return mime == "image/avif" || mime == "image/jxl"
}

var extMime = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".avif": "image/avif",
	".jxl":  "image/jxl",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

// MimeType guesses a mime type from a file name.
func MimeType(name string) string {
	if m, ok := extMime[strings.ToLower(filepath.Ext(name))]; ok {
		return m
	}
	return "application/octet-stream"
}

// IsImageName reports whether name has a page image extension.
func IsImageName(name string) bool {
	_, ok := extMime[strings.ToLower(filepath.Ext(name))]
	return ok
}

// SniffMimeType detects the image type from magic bytes.
func SniffMimeType(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return "image/jpeg"
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "image/png"
	case bytes.HasPrefix(data, []byte("GIF8")):
		return "image/gif"
	case bytes.HasPrefix(data, []byte("BM")):
		return "image/bmp"
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "image/webp"
	case len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp")) &&
		(bytes.Equal(data[8:12], []byte("avif")) || bytes.Equal(data[8:12], []byte("avis"))):
		return "image/avif"
	case bytes.HasPrefix(data, []byte{0xFF, 0x0A}),
		bytes.HasPrefix(data, []byte{0x00, 0x00, 0x00, 0x0C, 'J', 'X', 'L', ' '}):
		return "image/jxl"
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return "image/tiff"
	}
	return "application/octet-stream"
}
