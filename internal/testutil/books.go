package testutil

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// PNG encodes a w x h image. Each page gets a distinct fill so bytes
// differ between pages.
func PNG(t testing.TB, w, h int, shade uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: shade, G: uint8(x), B: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// PageSize is the pixel size of one fixture page.
type PageSize struct {
	W, H int
}

// Portrait returns n portrait page sizes.
func Portrait(n int) []PageSize {
	sizes := make([]PageSize, n)
	for i := range sizes {
		sizes[i] = PageSize{W: 20, H: 30}
	}
	return sizes
}

// PageName is the file name of page i. Names sort naturally, not
// lexically, so fixtures also exercise page ordering.
func PageName(i int) string {
	return fmt.Sprintf("page%d.png", i+1)
}

// DirBook writes a directory book with one PNG per size.
func DirBook(t testing.TB, sizes []PageSize) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "book")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for i, s := range sizes {
		if err := os.WriteFile(filepath.Join(dir, PageName(i)), PNG(t, s.W, s.H, uint8(i*10)), 0o644); err != nil {
			t.Fatalf("write page: %v", err)
		}
	}
	return dir
}

// CBZBook writes a zip archive book with one PNG per size.
func CBZBook(t testing.TB, sizes []PageSize) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book.cbz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	zw := zip.NewWriter(f)
	for i, s := range sizes {
		w, err := zw.Create(PageName(i))
		if err != nil {
			t.Fatalf("zip entry: %v", err)
		}
		if _, err := w.Write(PNG(t, s.W, s.H, uint8(i*10))); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	return path
}
