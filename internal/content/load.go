package content

import (
	"context"
	"slices"

	"github.com/avast/retry-go/v4"

	"github.com/jackzampolin/folio/internal/decode"
	"github.com/jackzampolin/folio/internal/frame"
	"github.com/jackzampolin/folio/internal/jobs"
	"github.com/jackzampolin/folio/internal/memory"
	"github.com/jackzampolin/folio/internal/pageerr"
	"github.com/jackzampolin/folio/internal/source"
)

// maxFollows bounds how often a waiter re-attaches after its load was
// superseded by a newer submission for the same page.
const maxFollows = 3

// pageJobLocked builds the load job for page index of the open book.
func (m *Manager) pageJobLocked(index int, priority jobs.Priority) jobs.Job {
	path, src, page := m.book.Path, m.src, m.book.Pages[index]
	return jobs.Job{
		Key:      jobs.PageKey(path, index),
		Priority: priority,
		Category: jobs.CategoryPageContent,
		Execute: func(ctx context.Context) (any, error) {
			return m.loadPage(ctx, src, path, page)
		},
	}
}

// loadPage reads, decodes and caches one page. Results for a book that is
// no longer open, or for a superseded job, are discarded.
func (m *Manager) loadPage(ctx context.Context, src source.Source, path string, page *frame.Page) (PageData, error) {
	raw, err := source.ReadPage(ctx, src, page.Index)
	if err != nil {
		return PageData{}, err
	}
	if err := ctx.Err(); err != nil {
		return PageData{}, pageerr.FromContext(err)
	}
	data, err := m.decoder.Decode(ctx, raw)
	if err != nil {
		return PageData{}, err
	}
	mime := page.MimeType
	if mime == "" || mime == "application/octet-stream" {
		mime = decode.SniffMimeType(data)
	}

	if err := ctx.Err(); err != nil {
		return PageData{}, pageerr.FromContext(err)
	}

	// the insert happens under the read lock so a close or rescan cannot
	// clear the book in between and leave stale bytes behind
	m.mu.RLock()
	if m.book == nil || m.book.Path != path || m.src != src {
		m.mu.RUnlock()
		return PageData{}, pageerr.ErrCancelled
	}
	cur, dir := m.book.CurrentIndex, m.book.Direction
	key := memory.Key{Book: path, Index: page.Index}
	var res memory.InsertResult
	if slices.Contains(m.displayed, page.Index) {
		res = m.pool.InsertLocked(key, data, mime, cur, dir)
	} else {
		res = m.pool.Insert(key, data, mime, cur, dir)
	}
	m.mu.RUnlock()
	m.settlePin(key)

	for _, k := range res.Evicted {
		m.events.emit(Event{Type: EventPageUnloaded, Book: k.Book, Index: k.Index})
	}
	if res.Pressure {
		m.events.emit(Event{Type: EventMemoryPressure, Book: path, Index: page.Index})
		m.logger.Warn("memory pressure", "usage", m.pool.Stats().UsagePercent, "overflow", res.Overflow)
	}
	m.events.emit(Event{Type: EventPageLoaded, Book: path, Index: page.Index})

	return PageData{Index: page.Index, Size: len(data), MimeType: mime, Data: data}, nil
}

// settlePin fixes the pin on key if the reader moved while it loaded.
func (m *Manager) settlePin(key memory.Key) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.book == nil || m.book.Path != key.Book {
		return
	}
	if slices.Contains(m.displayed, key.Index) {
		m.pool.Lock(key)
	} else {
		m.pool.Unlock(key)
	}
}

// GetPageData returns the bytes of page index, serving from the cache
// when possible and otherwise waiting on a current-page load. Timeouts
// are retried with exponential backoff; other failures are returned as is.
func (m *Manager) GetPageData(ctx context.Context, index int) (PageData, error) {
	m.mu.RLock()
	if m.book == nil {
		m.mu.RUnlock()
		return PageData{}, ErrNoBook
	}
	path, n := m.book.Path, m.book.TotalPages()
	m.mu.RUnlock()
	if index < 0 || index >= n {
		return PageData{}, pageerr.NotFound(index)
	}

	if d, ok := m.cached(path, index); ok {
		return d, nil
	}

	var out PageData
	err := retry.Do(
		func() error {
			d, err := m.awaitLoad(ctx, path, index)
			if err != nil {
				return err
			}
			out = d
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(m.cfg.RetryAttempts+1)),
		retry.Delay(m.cfg.RetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(pageerr.IsTransient),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			m.logger.Debug("retrying page load", "book", path, "index", index, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		if ctx.Err() != nil {
			return PageData{}, pageerr.FromContext(ctx.Err())
		}
		return PageData{}, err
	}
	return out, nil
}

func (m *Manager) cached(path string, index int) (PageData, bool) {
	e, ok := m.pool.Get(memory.Key{Book: path, Index: index})
	if !ok {
		return PageData{}, false
	}
	return PageData{Index: index, Size: len(e.Data), MimeType: e.MimeType, CacheHit: true, Data: e.Data}, true
}

// awaitLoad attaches to the in-flight load for the page, or submits one,
// and waits for it.
func (m *Manager) awaitLoad(ctx context.Context, path string, index int) (PageData, error) {
	for follow := 0; ; follow++ {
		if d, ok := m.cached(path, index); ok {
			return d, nil
		}

		h, ok := m.engine.Active(jobs.PageKey(path, index))
		if !ok || (h.Priority() < jobs.PriorityCurrentPage && h.Status() == jobs.StatusQueued) {
			var err error
			if h, err = m.submitLoad(path, index); err != nil {
				return PageData{}, err
			}
		}

		v, err := h.Wait(ctx)
		if err == nil {
			d, ok := v.(PageData)
			if !ok {
				return PageData{}, pageerr.Decode("unexpected load result", nil)
			}
			return d, nil
		}
		if pageerr.IsCancelled(err) && ctx.Err() == nil && follow < maxFollows && m.currentBook(path) {
			continue
		}
		return PageData{}, err
	}
}

func (m *Manager) submitLoad(path string, index int) (*jobs.Handle, error) {
	m.mu.RLock()
	if m.book == nil || m.book.Path != path {
		m.mu.RUnlock()
		return nil, pageerr.ErrCancelled
	}
	if index >= m.book.TotalPages() {
		m.mu.RUnlock()
		return nil, pageerr.NotFound(index)
	}
	job := m.pageJobLocked(index, jobs.PriorityCurrentPage)
	m.mu.RUnlock()
	return m.engine.Submit(job)
}

// Thumbnail returns a JPEG preview of page index whose longest edge is at
// most maxEdge pixels (the configured edge when maxEdge is zero).
func (m *Manager) Thumbnail(ctx context.Context, index, maxEdge int) ([]byte, error) {
	if maxEdge <= 0 {
		maxEdge = m.cfg.ThumbnailEdge
	}
	m.mu.RLock()
	if m.book == nil {
		m.mu.RUnlock()
		return nil, ErrNoBook
	}
	if index < 0 || index >= m.book.TotalPages() {
		m.mu.RUnlock()
		return nil, pageerr.NotFound(index)
	}
	path, src := m.book.Path, m.src
	m.mu.RUnlock()

	key := jobs.ThumbKey(path, index, maxEdge)
	h, ok := m.engine.Active(key)
	if !ok {
		var err error
		h, err = m.engine.Submit(jobs.Job{
			Key:      key,
			Priority: jobs.PriorityThumbnail,
			Category: jobs.CategoryThumbnail,
			Execute: func(ctx context.Context) (any, error) {
				data, ok := m.cached(path, index)
				raw := data.Data
				if !ok {
					var err error
					if raw, err = source.ReadPage(ctx, src, index); err != nil {
						return nil, err
					}
				}
				return decode.Thumbnail(ctx, raw, maxEdge)
			},
		})
		if err != nil {
			return nil, err
		}
	}
	v, err := h.Wait(ctx)
	if err != nil {
		return nil, err
	}
	b, _ := v.([]byte)
	return b, nil
}
