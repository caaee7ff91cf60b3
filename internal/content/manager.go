package content

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jackzampolin/folio/internal/decode"
	"github.com/jackzampolin/folio/internal/frame"
	"github.com/jackzampolin/folio/internal/jobs"
	"github.com/jackzampolin/folio/internal/memory"
	"github.com/jackzampolin/folio/internal/pageerr"
	"github.com/jackzampolin/folio/internal/source"
)

var (
	// ErrNoBook is returned when an operation needs an open book.
	ErrNoBook = errors.New("no book open")

	// ErrEndOfBook is returned when there is no frame in the asked direction.
	ErrEndOfBook = errors.New("no further frame")
)

// rescanPriority sits in the reserved maintenance band so only secondary
// workers pick it up.
const rescanPriority jobs.Priority = 5

// Engine is the part of the job engine the manager uses.
type Engine interface {
	Submit(job jobs.Job) (*jobs.Handle, error)
	SubmitBatch(jobs []jobs.Job) ([]*jobs.Handle, error)
	Active(key string) (*jobs.Handle, bool)
	CancelPrefix(prefix string) int
	CancelBook(book string) int
	Stats() jobs.EngineStats
}

var _ Engine = (*jobs.Engine)(nil)

// Opener opens a book container.
type Opener func(path string) (source.Source, error)

// Config configures a Manager.
type Config struct {
	Logger *slog.Logger

	// Context is the initial layout (default frame.DefaultContext()).
	Context *frame.Context

	// PreloadAhead and PreloadBehind size the preload window (5 and 2).
	PreloadAhead  int
	PreloadBehind int
	// PreloadInterval and PreloadBurst rate-limit window refreshes while
	// the reader flips quickly (50ms, burst 4).
	PreloadInterval time.Duration
	PreloadBurst    int

	// RetryAttempts is how many times a timed out load is retried (3),
	// starting RetryDelay apart and doubling (100ms).
	RetryAttempts int
	RetryDelay    time.Duration

	ScanConcurrency int
	ThumbnailEdge   int

	// Watch reloads directory books when their files change.
	Watch bool
	// State, when set, receives a snapshot whenever a book is closed.
	State *StateStore

	Opener  Opener
	Decoder decode.Decoder
}

// Manager is the page content manager. It is safe for concurrent use.
// Its lock is never held while waiting on a load.
type Manager struct {
	cfg     Config
	engine  Engine
	pool    *memory.Pool
	decoder decode.Decoder
	open    Opener
	limiter *rate.Limiter
	events  *bus
	logger  *slog.Logger

	mu        sync.RWMutex
	layout    frame.Context
	book      *Book
	src       source.Source
	builder   *frame.Builder
	position  frame.Position
	displayed []int
	preloads  map[int]*jobs.Handle

	preloadTimer *time.Timer
	preloadRes   *rate.Reservation
	stopWatch    context.CancelFunc
}

// New creates a manager over an engine and a pool.
func New(engine Engine, pool *memory.Pool, cfg Config) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PreloadAhead < 0 {
		cfg.PreloadAhead = 0
	} else if cfg.PreloadAhead == 0 {
		cfg.PreloadAhead = 5
	}
	if cfg.PreloadBehind < 0 {
		cfg.PreloadBehind = 0
	} else if cfg.PreloadBehind == 0 {
		cfg.PreloadBehind = 2
	}
	if cfg.PreloadInterval <= 0 {
		cfg.PreloadInterval = 50 * time.Millisecond
	}
	if cfg.PreloadBurst <= 0 {
		cfg.PreloadBurst = 4
	}
	if cfg.RetryAttempts < 0 {
		cfg.RetryAttempts = 0
	} else if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 100 * time.Millisecond
	}
	if cfg.ThumbnailEdge <= 0 {
		cfg.ThumbnailEdge = decode.DefaultThumbnailEdge
	}
	if cfg.Opener == nil {
		cfg.Opener = source.Open
	}
	if cfg.Decoder == nil {
		cfg.Decoder = &decode.ImageDecoder{}
	}
	layout := frame.DefaultContext()
	if cfg.Context != nil && cfg.Context.Validate() == nil {
		layout = *cfg.Context
	}

	logger = logger.With("component", "content")
	return &Manager{
		cfg:      cfg,
		engine:   engine,
		pool:     pool,
		decoder:  cfg.Decoder,
		open:     cfg.Opener,
		limiter:  rate.NewLimiter(rate.Every(cfg.PreloadInterval), cfg.PreloadBurst),
		events:   newBus(logger),
		logger:   logger,
		layout:   layout,
		preloads: make(map[int]*jobs.Handle),
	}
}

// Subscribe returns a channel of events and a function that ends the
// subscription. Slow subscribers miss events rather than stall loading.
func (m *Manager) Subscribe(buffer int) (<-chan Event, func()) {
	return m.events.subscribe(buffer)
}

// OpenBook opens path, replacing any open book, and scans its pages.
func (m *Manager) OpenBook(ctx context.Context, path string) (BookInfo, error) {
	src, err := m.open(path)
	if err != nil {
		return BookInfo{}, err
	}
	pages, err := source.ScanPages(ctx, src, m.decoder, m.cfg.ScanConcurrency)
	if err != nil {
		src.Close()
		return BookInfo{}, err
	}
	if len(pages) == 0 {
		src.Close()
		return BookInfo{}, pageerr.Archive("book has no pages: "+path, nil)
	}

	m.mu.Lock()
	m.closeLocked()
	// a reopen must not serve stale bytes
	m.pool.ClearBook(path)
	m.book = newBook(path, src.Kind(), pages)
	m.src = src
	m.builder = frame.NewBuilder(pages, m.layout)
	m.position = frame.Position{}
	m.displayed = nil
	m.preloads = make(map[int]*jobs.Handle)
	info := m.bookInfoLocked()

	if m.cfg.Watch && src.Kind() == source.KindDirectory {
		wctx, cancel := context.WithCancel(context.Background())
		if err := source.Watch(wctx, path, 0, m.logger, func() { m.Rescan() }); err != nil {
			cancel()
			m.logger.Warn("cannot watch book", "book", path, "error", err)
		} else {
			m.stopWatch = cancel
		}
	}
	m.mu.Unlock()

	m.logger.Info("book opened", "book", path, "kind", src.Kind(), "pages", len(pages))
	return info, nil
}

// CloseBook cancels the book's work and drops its cache.
func (m *Manager) CloseBook() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeLocked()
}

func (m *Manager) closeLocked() {
	if m.book == nil {
		return
	}
	path := m.book.Path

	if m.cfg.State != nil {
		if err := m.cfg.State.Save(m.snapshotLocked()); err != nil {
			m.logger.Warn("failed to save state", "error", err)
		}
	}
	if m.stopWatch != nil {
		m.stopWatch()
		m.stopWatch = nil
	}
	if m.preloadTimer != nil {
		m.preloadTimer.Stop()
		m.preloadTimer = nil
	}

	m.engine.CancelBook(path)
	for _, k := range m.pool.ClearBook(path) {
		m.events.emit(Event{Type: EventPageUnloaded, Book: path, Index: k.Index})
	}
	if err := m.src.Close(); err != nil {
		m.logger.Debug("close source", "book", path, "error", err)
	}

	m.book = nil
	m.src = nil
	m.builder = nil
	m.displayed = nil
	m.preloads = make(map[int]*jobs.Handle)
	m.logger.Info("book closed", "book", path)
}

// Close closes the book and ends every event subscription.
func (m *Manager) Close() {
	m.CloseBook()
	m.events.close()
}

// BookInfo describes the open book.
func (m *Manager) BookInfo() (BookInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.book == nil {
		return BookInfo{}, ErrNoBook
	}
	return m.bookInfoLocked(), nil
}

func (m *Manager) bookInfoLocked() BookInfo {
	return BookInfo{
		Path:              m.book.Path,
		Kind:              m.book.Kind,
		TotalPages:        m.book.TotalPages(),
		TotalVirtualPages: m.builder.TotalVirtualPages(),
		PagePaths:         m.book.PagePaths(),
	}
}

// Context returns the layout context.
func (m *Manager) Context() frame.Context {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.layout
}

// Position returns the current frame position.
func (m *Manager) Position() frame.Position {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.position
}

// GotoPosition shows the frame at pos: it loads the frame's pages at
// current-page priority, pins them, and refreshes the preload window.
// Only geometry is returned; bytes come from GetPageData.
func (m *Manager) GotoPosition(pos frame.Position) (FrameInfo, error) {
	m.mu.Lock()
	info, loads, err := m.gotoLocked(pos)
	m.mu.Unlock()
	if err != nil {
		return FrameInfo{}, err
	}
	m.submit(loads)
	m.schedulePreload()
	return info, nil
}

// GotoIndex shows the frame containing physical page index.
func (m *Manager) GotoIndex(index int) (FrameInfo, error) {
	return m.step(func(b *frame.Builder, _ frame.Position) (frame.Position, bool) {
		return b.FramePositionForIndex(index)
	}, pageerr.NotFound(index))
}

// NextFrame advances one frame.
func (m *Manager) NextFrame() (FrameInfo, error) {
	return m.step((*frame.Builder).NextFramePosition, ErrEndOfBook)
}

// PrevFrame goes back one frame.
func (m *Manager) PrevFrame() (FrameInfo, error) {
	return m.step((*frame.Builder).PrevFramePosition, ErrEndOfBook)
}

// FirstFrame jumps to the start of the book.
func (m *Manager) FirstFrame() (FrameInfo, error) {
	return m.step(func(b *frame.Builder, _ frame.Position) (frame.Position, bool) {
		return b.FirstPosition(), b.PageCount() > 0
	}, ErrEndOfBook)
}

// LastFrame jumps to the end of the book.
func (m *Manager) LastFrame() (FrameInfo, error) {
	return m.step(func(b *frame.Builder, _ frame.Position) (frame.Position, bool) {
		return b.LastPosition()
	}, ErrEndOfBook)
}

func (m *Manager) step(next func(*frame.Builder, frame.Position) (frame.Position, bool), missing error) (FrameInfo, error) {
	m.mu.Lock()
	if m.book == nil {
		m.mu.Unlock()
		return FrameInfo{}, ErrNoBook
	}
	pos, ok := next(m.builder, m.position)
	if !ok {
		m.mu.Unlock()
		return FrameInfo{}, missing
	}
	info, loads, err := m.gotoLocked(pos)
	m.mu.Unlock()
	if err != nil {
		return FrameInfo{}, err
	}
	m.submit(loads)
	m.schedulePreload()
	return info, nil
}

// gotoLocked builds the frame, moves the reader and returns the loads to
// submit once the lock is released.
func (m *Manager) gotoLocked(pos frame.Position) (FrameInfo, []jobs.Job, error) {
	if m.book == nil {
		return FrameInfo{}, nil, ErrNoBook
	}
	f, err := m.builder.BuildFrame(pos)
	if err != nil {
		return FrameInfo{}, nil, err
	}
	m.book.Goto(f.Position().Index)
	m.position = f.Position()

	path := m.book.Path
	indices := f.PageIndices()
	for _, i := range m.displayed {
		if !slices.Contains(indices, i) {
			m.pool.Unlock(memory.Key{Book: path, Index: i})
		}
	}
	m.displayed = indices

	var loads []jobs.Job
	for _, i := range indices {
		if m.pool.Lock(memory.Key{Book: path, Index: i}) {
			continue
		}
		if h, ok := m.engine.Active(jobs.PageKey(path, i)); ok && h.Priority() >= jobs.PriorityCurrentPage {
			continue
		}
		// replaces any preload for this page
		loads = append(loads, m.pageJobLocked(i, jobs.PriorityCurrentPage))
		delete(m.preloads, i)
	}
	return newFrameInfo(f, m.builder), loads, nil
}

func (m *Manager) submit(loads []jobs.Job) {
	if len(loads) == 0 {
		return
	}
	if _, err := m.engine.SubmitBatch(loads); err != nil {
		m.logger.Warn("failed to submit page loads", "count", len(loads), "error", err)
	}
}

// UpdateContext merges patch into the layout and rebuilds the current
// frame. The physical page on screen stays on screen.
func (m *Manager) UpdateContext(patch frame.ContextPatch) (FrameInfo, error) {
	m.mu.Lock()
	next := patch.Apply(m.layout)
	info, loads, err := m.applyLayoutLocked(next, patch.AffectsLayout())
	m.mu.Unlock()
	if err != nil {
		return FrameInfo{}, err
	}
	m.submit(loads)
	m.schedulePreload()
	return info, nil
}

// SetContext replaces the layout wholesale.
func (m *Manager) SetContext(next frame.Context) (FrameInfo, error) {
	m.mu.Lock()
	cur := m.layout
	relayout := cur.PageMode != next.PageMode || cur.ReadOrder != next.ReadOrder ||
		cur.DividePage != next.DividePage || cur.WidePage != next.WidePage ||
		cur.SingleFirst != next.SingleFirst || cur.SingleLast != next.SingleLast ||
		cur.DividePageRate != next.DividePageRate
	info, loads, err := m.applyLayoutLocked(next, relayout)
	m.mu.Unlock()
	if err != nil {
		return FrameInfo{}, err
	}
	m.submit(loads)
	m.schedulePreload()
	return info, nil
}

func (m *Manager) applyLayoutLocked(next frame.Context, relayout bool) (FrameInfo, []jobs.Job, error) {
	if err := next.Validate(); err != nil {
		return FrameInfo{}, nil, err
	}
	m.layout = next
	if m.book == nil {
		return FrameInfo{}, nil, nil
	}
	m.builder = frame.NewBuilder(m.book.Pages, next)

	pos := m.position
	if relayout {
		pos, _ = m.builder.FramePositionForIndex(m.position.Index)
	}
	return m.gotoLocked(pos)
}

// Stats summarizes cache, jobs and position.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Stats{
		Memory:   m.pool.Stats(),
		Jobs:     m.engine.Stats(),
		Position: m.position,
	}
	if m.book != nil {
		s.CurrentBook = m.book.Path
		s.CurrentIndex = m.book.CurrentIndex
		s.Direction = m.book.Direction
		s.TotalPages = m.book.TotalPages()
		s.CachedPages = m.pool.CachedPages(m.book.Path)
		for i, h := range m.preloads {
			if !h.Status().IsTerminal() {
				s.Preloading = append(s.Preloading, i)
			}
		}
		slices.Sort(s.Preloading)
	}
	return s
}

// ClearCache drops every cached page.
func (m *Manager) ClearCache() {
	m.pool.ClearAll()
}

// SetCacheSize changes the memory budget.
func (m *Manager) SetCacheSize(bytes int64) {
	m.pool.SetMaxSize(bytes)
}

func (m *Manager) currentBook(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.book != nil && m.book.Path == path
}
