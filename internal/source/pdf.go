package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/jackzampolin/folio/internal/pageerr"
)

// PDF serves a PDF of scanned pages: each page is the largest image
// embedded on it. Pages without images cannot be shown.
type PDF struct {
	path  string
	conf  *model.Configuration
	pages int

	// pdfcpu reads the whole file per call; serialize access.
	mu sync.Mutex
}

var _ Source = (*PDF)(nil)

// OpenPDF counts pages without extracting anything.
func OpenPDF(path string) (*PDF, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pageerr.Archive("open pdf", err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	n, err := api.PageCount(f, conf)
	if err != nil {
		return nil, pageerr.Archive("count pdf pages", err)
	}
	return &PDF{path: path, conf: conf, pages: n}, nil
}

func (p *PDF) Path() string { return p.path }

func (p *PDF) Kind() Kind { return KindPDF }

// Entries lists one entry per PDF page. Dimensions come from the
// embedded image metadata so no page needs decoding up front.
func (p *PDF) Entries(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, pageerr.FromContext(err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	f, err := os.Open(p.path)
	if err != nil {
		return nil, pageerr.Archive("open pdf", err)
	}
	defer f.Close()

	images, err := api.ExtractImagesRaw(f, nil, p.conf)
	if err != nil {
		return nil, pageerr.Archive("list pdf images", err)
	}

	dims := make(map[int][2]int, p.pages)
	for _, byObj := range images {
		for _, img := range byObj {
			if d, ok := dims[img.PageNr]; !ok || img.Width*img.Height > d[0]*d[1] {
				dims[img.PageNr] = [2]int{img.Width, img.Height}
			}
		}
	}

	out := make([]Entry, p.pages)
	for i := range out {
		d := dims[i+1]
		out[i] = Entry{
			Name:      fmt.Sprintf("page %d", i+1),
			InnerPath: strconv.Itoa(i + 1),
			Width:     d[0],
			Height:    d[1],
		}
	}
	return out, nil
}

// Open extracts the largest image on page index.
func (p *PDF) Open(ctx context.Context, index int) (io.ReadCloser, error) {
	if err := checkIndex(index, p.pages); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, pageerr.FromContext(err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	f, err := os.Open(p.path)
	if err != nil {
		return nil, pageerr.Archive("open pdf", err)
	}
	defer f.Close()

	images, err := api.ExtractImagesRaw(f, []string{strconv.Itoa(index + 1)}, p.conf)
	if err != nil {
		return nil, pageerr.Archive(fmt.Sprintf("extract pdf page %d", index+1), err)
	}

	var best *model.Image
	for _, byObj := range images {
		for _, img := range byObj {
			img := img
			if best == nil || img.Width*img.Height > best.Width*best.Height {
				best = &img
			}
		}
	}
	if best == nil || best.Reader == nil {
		return nil, pageerr.Decode(fmt.Sprintf("pdf page %d has no image", index+1), nil)
	}

	data, err := io.ReadAll(best.Reader)
	if err != nil {
		return nil, pageerr.Archive(fmt.Sprintf("read pdf page %d", index+1), err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (p *PDF) Close() error { return nil }
