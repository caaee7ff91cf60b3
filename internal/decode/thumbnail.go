package decode

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"

	"github.com/jackzampolin/folio/internal/pageerr"
)

// DefaultThumbnailEdge is the longest edge of a thumbnail in pixels.
const DefaultThumbnailEdge = 256

// ThumbnailMimeType is what Thumbnail produces.
const ThumbnailMimeType = "image/jpeg"

// Thumbnail decodes data and scales it so its longest edge is maxEdge,
// encoding the result as JPEG. Images already small enough are re-encoded
// at their own size.
func Thumbnail(ctx context.Context, data []byte, maxEdge int) ([]byte, error) {
	if maxEdge <= 0 {
		maxEdge = DefaultThumbnailEdge
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, pageerr.Decode("thumbnail source", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, pageerr.FromContext(err)
	}

	w, h := fitWithin(img.Bounds().Dx(), img.Bounds().Dy(), maxEdge)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	if err := ctx.Err(); err != nil {
		return nil, pageerr.FromContext(err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85}); err != nil {
		return nil, pageerr.Decode("thumbnail encode", err)
	}
	return buf.Bytes(), nil
}

// fitWithin scales w x h so the longer side is at most edge, keeping at
// least one pixel per side.
func fitWithin(w, h, edge int) (int, int) {
	if w <= edge && h <= edge {
		return max(w, 1), max(h, 1)
	}
	if w >= h {
		return edge, max(h*edge/w, 1)
	}
	return max(w*edge/h, 1), edge
}
