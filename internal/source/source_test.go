package source

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/jackzampolin/folio/internal/decode"
	"github.com/jackzampolin/folio/internal/pageerr"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestNaturalLess(t *testing.T) {
	names := []string{"page10.png", "page2.png", "Page1.png", "cover.png", "page02b.png"}
	sort.Slice(names, func(i, j int) bool { return naturalLess(names[i], names[j]) })
	want := []string{"cover.png", "Page1.png", "page2.png", "page02b.png", "page10.png"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("sorted = %v, want %v", names, want)
		}
	}
}

func TestDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "10.png"), pngBytes(t, 20, 10))
	writeFile(t, filepath.Join(dir, "2.png"), pngBytes(t, 10, 20))
	writeFile(t, filepath.Join(dir, "notes.txt"), []byte("skip me"))
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	src, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()
	if src.Kind() != KindDirectory {
		t.Errorf("kind = %s", src.Kind())
	}

	pages, err := ScanPages(context.Background(), src, &decode.ImageDecoder{}, 2)
	if err != nil {
		t.Fatalf("ScanPages: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(pages))
	}
	if pages[0].Path != "2.png" || pages[0].Width != 10 || pages[0].Height != 20 {
		t.Errorf("page 0 = %+v", pages[0])
	}
	if pages[1].Path != "10.png" || !pages[1].IsLandscape() {
		t.Errorf("page 1 = %+v", pages[1])
	}
	if pages[1].MimeType != "image/png" {
		t.Errorf("mime = %q", pages[1].MimeType)
	}

	data, err := ReadPage(context.Background(), src, 1)
	if err != nil || len(data) == 0 {
		t.Fatalf("ReadPage: %v", err)
	}
	if _, err := ReadPage(context.Background(), src, 5); !errors.Is(err, pageerr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDirectory_ListingFixedAtOpen(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "page1.png"), pngBytes(t, 10, 20))
	writeFile(t, filepath.Join(dir, "page2.png"), pngBytes(t, 12, 20))

	src, err := OpenDirectory(dir)
	if err != nil {
		t.Fatalf("OpenDirectory: %v", err)
	}
	want, err := ReadPage(context.Background(), src, 0)
	if err != nil {
		t.Fatal(err)
	}

	writeFile(t, filepath.Join(dir, "page0.png"), pngBytes(t, 14, 20))
	entries, err := src.Entries(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Name != "page1.png" {
		t.Errorf("entries changed under an open source: %+v", entries)
	}
	got, err := ReadPage(context.Background(), src, 0)
	if err != nil || !bytes.Equal(got, want) {
		t.Errorf("page 0 no longer reads page1.png (err %v)", err)
	}

	fresh, err := OpenDirectory(dir)
	if err != nil {
		t.Fatal(err)
	}
	entries, _ = fresh.Entries(context.Background())
	if len(entries) != 3 || entries[0].Name != "page0.png" {
		t.Errorf("reopened entries = %+v", entries)
	}
}

func TestArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.cbz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for _, e := range []struct {
		name string
		data []byte
	}{
		{"ch1/p3.png", pngBytes(t, 30, 10)},
		{"ch1/p1.png", pngBytes(t, 10, 30)},
		{"__MACOSX/ch1/._p1.png", []byte("fork")},
		{"info.txt", []byte("text")},
	} {
		w, err := zw.Create(e.name)
		if err != nil {
			t.Fatal(err)
		}
		w.Write(e.data)
	}
	zw.Close()
	f.Close()

	src, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()
	if src.Kind() != KindArchive {
		t.Errorf("kind = %s", src.Kind())
	}

	pages, err := ScanPages(context.Background(), src, &decode.ImageDecoder{}, 0)
	if err != nil {
		t.Fatalf("ScanPages: %v", err)
	}
	if len(pages) != 2 || pages[0].InnerPath != "ch1/p1.png" || pages[1].InnerPath != "ch1/p3.png" {
		t.Fatalf("pages = %+v", pages)
	}
	if pages[1].Width != 30 || pages[1].Height != 10 {
		t.Errorf("page 1 dims = %dx%d", pages[1].Width, pages[1].Height)
	}
}

func TestScanPages_BadPageKeepsBook(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "1.png"), pngBytes(t, 10, 10))
	writeFile(t, filepath.Join(dir, "2.png"), []byte("corrupt"))

	src, _ := OpenDirectory(dir)
	pages, err := ScanPages(context.Background(), src, &decode.ImageDecoder{}, 1)
	if err != nil {
		t.Fatalf("ScanPages: %v", err)
	}
	if len(pages) != 2 || pages[1].Width != 0 || pages[1].AspectRatio() != 1.0 {
		t.Errorf("corrupt page = %+v", pages[1])
	}
}

func TestOpen_Unsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.rar")
	writeFile(t, path, []byte("x"))
	if _, err := Open(path); !errors.Is(err, pageerr.ErrArchive) {
		t.Errorf("err = %v, want ErrArchive", err)
	}
	if _, err := Open(filepath.Join(t.TempDir(), "missing")); !errors.Is(err, pageerr.ErrArchive) {
		t.Errorf("err = %v, want ErrArchive", err)
	}
}

func TestSingleImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "one.png")
	writeFile(t, path, pngBytes(t, 5, 5))
	src, err := Open(path)
	if err != nil || src.Kind() != KindSingleImage {
		t.Fatalf("Open = %v %v", src, err)
	}
	entries, _ := src.Entries(context.Background())
	if len(entries) != 1 || entries[0].Name != "one.png" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 4)
	if err := Watch(ctx, dir, 10*time.Millisecond, nil, func() { changed <- struct{}{} }); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	writeFile(t, filepath.Join(dir, "ignored.txt"), []byte("x"))
	writeFile(t, filepath.Join(dir, "new.png"), pngBytes(t, 1, 1))

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("no change notification")
	}
}
