// Package source reads page bytes out of books: directories of images,
// zip/cbz archives, PDFs of scanned pages, or a single image file.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackzampolin/folio/internal/decode"
	"github.com/jackzampolin/folio/internal/pageerr"
)

// Kind is the container type of a book.
type Kind string

const (
	KindDirectory   Kind = "directory"
	KindArchive     Kind = "archive"
	KindPDF         Kind = "pdf"
	KindSingleImage Kind = "single_image"
)

// Entry is one page as the container knows it, before dimensions are probed.
type Entry struct {
	// Name is the display path of the page.
	Name string
	// InnerPath locates the page inside the container.
	InnerPath string
	// Width and Height are set when the container already knows them.
	Width  int
	Height int
}

// Source is an opened book.
type Source interface {
	Path() string
	Kind() Kind
	// Entries lists pages in reading order.
	Entries(ctx context.Context) ([]Entry, error)
	// Open streams the raw bytes of page index.
	Open(ctx context.Context, index int) (io.ReadCloser, error)
	Close() error
}

// Open detects the container type of path and opens it.
func Open(path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, pageerr.Archive("open "+path, err)
	}
	if info.IsDir() {
		return OpenDirectory(path)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); {
	case ext == ".zip" || ext == ".cbz":
		return OpenArchive(path)
	case ext == ".pdf":
		return OpenPDF(path)
	case decode.IsImageName(path):
		return OpenSingleImage(path)
	default:
		return nil, pageerr.Archive(fmt.Sprintf("unsupported book type %q", ext), nil)
	}
}

// ReadPage reads all bytes of page index.
func ReadPage(ctx context.Context, src Source, index int) ([]byte, error) {
	rc, err := src.Open(ctx, index)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(ctxReader{ctx: ctx, r: rc})
	if err != nil {
		if ctx.Err() != nil {
			return nil, pageerr.FromContext(ctx.Err())
		}
		return nil, pageerr.Archive(fmt.Sprintf("read page %d", index), err)
	}
	return data, nil
}

// ctxReader stops a long read once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// checkIndex validates index against n entries.
func checkIndex(index, n int) error {
	if index < 0 || index >= n {
		return pageerr.NotFound(index)
	}
	return nil
}
