package content

import (
	"context"
	"slices"
	"time"

	"github.com/jackzampolin/folio/internal/frame"
	"github.com/jackzampolin/folio/internal/jobs"
	"github.com/jackzampolin/folio/internal/memory"
	"github.com/jackzampolin/folio/internal/source"
)

// schedulePreload refreshes the preload window, coalescing refreshes that
// arrive faster than the limiter allows into one trailing refresh.
func (m *Manager) schedulePreload() {
	m.mu.Lock()
	if m.book == nil {
		m.mu.Unlock()
		return
	}
	if m.preloadTimer != nil && m.preloadTimer.Stop() && m.preloadRes != nil {
		m.preloadRes.Cancel()
	}
	m.preloadTimer = nil
	m.preloadRes = nil

	r := m.limiter.Reserve()
	if d := r.Delay(); d > 0 {
		m.preloadRes = r
		m.preloadTimer = time.AfterFunc(d, m.refreshPreload)
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()
	m.refreshPreload()
}

// refreshPreload cancels preloads that left the window and submits the
// pages that entered it, nearest first.
func (m *Manager) refreshPreload() {
	m.mu.Lock()
	if m.book == nil {
		m.mu.Unlock()
		return
	}
	path := m.book.Path
	window := m.book.PreloadRange(m.cfg.PreloadAhead, m.cfg.PreloadBehind)

	var stale []*jobs.Handle
	for i, h := range m.preloads {
		switch {
		case !slices.Contains(window, i):
			stale = append(stale, h)
			delete(m.preloads, i)
		case h.Status().IsTerminal():
			delete(m.preloads, i)
		}
	}

	var (
		batch   []jobs.Job
		indices []int
	)
	for _, i := range window {
		if slices.Contains(m.displayed, i) {
			continue
		}
		if _, ok := m.preloads[i]; ok {
			continue
		}
		if m.pool.Contains(memory.Key{Book: path, Index: i}) {
			continue
		}
		if _, ok := m.engine.Active(jobs.PageKey(path, i)); ok {
			continue
		}
		batch = append(batch, m.pageJobLocked(i, jobs.PriorityPreload))
		indices = append(indices, i)
	}
	if len(batch) > 0 {
		handles, err := m.engine.SubmitBatch(batch)
		if err != nil {
			m.logger.Warn("failed to submit preloads", "count", len(batch), "error", err)
		}
		for n, h := range handles {
			m.preloads[indices[n]] = h
		}
	}
	m.mu.Unlock()

	for _, h := range stale {
		h.Cancel()
	}
	if len(batch) > 0 || len(stale) > 0 {
		m.logger.Debug("preload window", "book", path, "submitted", indices, "cancelled", len(stale))
	}
}

// Rescan queues a background re-listing of the open book. The book is
// reopened into a fresh source so pages keep reading from the old listing
// until the new one is swapped in. When the page list changed the book is
// reloaded in place and EventBookReloaded fires.
func (m *Manager) Rescan() (*jobs.Handle, error) {
	m.mu.RLock()
	if m.book == nil {
		m.mu.RUnlock()
		return nil, ErrNoBook
	}
	path := m.book.Path
	m.mu.RUnlock()

	return m.engine.Submit(jobs.Job{
		Key:      jobs.ScanKey(path),
		Priority: rescanPriority,
		Category: jobs.CategoryArchiveScan,
		Execute: func(ctx context.Context) (any, error) {
			src, err := m.open(path)
			if err != nil {
				return nil, err
			}
			pages, err := source.ScanPages(ctx, src, m.decoder, m.cfg.ScanConcurrency)
			if err != nil {
				m.closeSource(src)
				return nil, err
			}
			if !m.replacePages(path, src, pages) {
				m.closeSource(src)
			}
			return len(pages), nil
		},
	})
}

// closeSource closes a rescanned source that was not adopted. Openers may
// hand back the live source, which stays open.
func (m *Manager) closeSource(src source.Source) {
	m.mu.RLock()
	live := m.src == src
	m.mu.RUnlock()
	if live {
		return
	}
	if err := src.Close(); err != nil {
		m.logger.Debug("close source", "book", src.Path(), "error", err)
	}
}

// replacePages swaps in a new source and page list for path, keeping the
// reader on the nearest surviving page. It reports whether src was adopted.
func (m *Manager) replacePages(path string, src source.Source, pages []*frame.Page) bool {
	m.mu.Lock()
	if m.book == nil || m.book.Path != path || len(pages) == 0 || samePages(m.book.Pages, pages) {
		m.mu.Unlock()
		return false
	}

	m.engine.CancelPrefix(jobs.PagePrefix(path))
	m.engine.CancelPrefix(jobs.ThumbPrefix(path))
	for _, k := range m.pool.ClearBook(path) {
		m.events.emit(Event{Type: EventPageUnloaded, Book: path, Index: k.Index})
	}

	old := m.src
	index := min(m.book.CurrentIndex, len(pages)-1)
	m.src = src
	m.book.Pages = pages
	m.book.CurrentIndex = index
	m.builder = frame.NewBuilder(pages, m.layout)
	m.displayed = nil
	m.preloads = make(map[int]*jobs.Handle)

	pos, _ := m.builder.FramePositionForIndex(index)
	_, loads, err := m.gotoLocked(pos)
	m.mu.Unlock()

	if old != src {
		if cerr := old.Close(); cerr != nil {
			m.logger.Debug("close source", "book", path, "error", cerr)
		}
	}
	if err != nil {
		m.logger.Warn("failed to restore position after reload", "book", path, "error", err)
	}
	m.submit(loads)
	m.events.emit(Event{Type: EventBookReloaded, Book: path, Index: index})
	m.logger.Info("book reloaded", "book", path, "pages", len(pages))
	m.schedulePreload()
	return true
}

func samePages(a, b []*frame.Page) bool {
	return slices.EqualFunc(a, b, func(x, y *frame.Page) bool {
		return x.Path == y.Path && x.Width == y.Width && x.Height == y.Height
	})
}
