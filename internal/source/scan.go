package source

import (
	"context"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/jackzampolin/folio/internal/decode"
	"github.com/jackzampolin/folio/internal/frame"
	"github.com/jackzampolin/folio/internal/pageerr"
)

// headerBytes is how much of a page is read to find its dimensions.
// Full reads are the fallback when a header sits beyond it.
const headerBytes = 512 << 10

// Prober reports image dimensions from (a prefix of) page bytes.
type Prober interface {
	ProbeDimensions(data []byte) (width, height int, err error)
}

// ScanPages lists the pages of src with their dimensions. Pages whose
// dimensions cannot be read keep 0x0 and lay out as square; one bad page
// never fails the book.
func ScanPages(ctx context.Context, src Source, prober Prober, concurrency int) ([]*frame.Page, error) {
	entries, err := src.Entries(ctx)
	if err != nil {
		return nil, err
	}
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	pages := make([]*frame.Page, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, e := range entries {
		pages[i] = &frame.Page{
			Index:     i,
			Path:      e.Name,
			InnerPath: e.InnerPath,
			Width:     e.Width,
			Height:    e.Height,
			MimeType:  decode.MimeType(e.InnerPath),
		}
		if e.Width > 0 && e.Height > 0 {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return pageerr.FromContext(err)
			}
			w, h, err := probe(gctx, src, prober, i)
			if err == nil {
				pages[i].Width, pages[i].Height = w, h
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, pageerr.FromContext(err)
	}
	return pages, nil
}

func probe(ctx context.Context, src Source, prober Prober, index int) (int, int, error) {
	rc, err := src.Open(ctx, index)
	if err != nil {
		return 0, 0, err
	}
	head, err := io.ReadAll(io.LimitReader(rc, headerBytes))
	rc.Close()
	if err != nil {
		return 0, 0, pageerr.Archive("read page header", err)
	}
	if w, h, err := prober.ProbeDimensions(head); err == nil {
		return w, h, nil
	}
	if len(head) < headerBytes {
		return 0, 0, pageerr.Decode("unreadable page header", nil)
	}
	data, err := ReadPage(ctx, src, index)
	if err != nil {
		return 0, 0, err
	}
	return prober.ProbeDimensions(data)
}
