// Package memory holds decoded page bytes under a byte budget.
//
// Eviction is by distance from the reading position, weighted by
// direction: pages already passed go before pages still ahead, and
// farther pages go before nearer ones.
package memory

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// DefaultMaxSize is the default budget (512 MiB).
const DefaultMaxSize int64 = 512 << 20

// behindPenalty pushes pages on the wrong side of the reader ahead of any
// page on the right side. It only needs to exceed any realistic distance.
const behindPenalty = 1000

// PressureThreshold is the usage ratio at which Insert reports pressure.
const PressureThreshold = 0.9

// Key identifies one page of one book.
type Key struct {
	Book  string
	Index int
}

// Entry is one cached page.
type Entry struct {
	Data         []byte
	MimeType     string
	Index        int
	Size         int64
	LastAccessed time.Time
	Locked       bool
}

// Clock supplies timestamps for last access.
type Clock func() time.Time

// Pool is a byte-bounded page cache. All methods are safe for concurrent
// use; mutations are serialized by one mutex that is never held while
// calling out.
type Pool struct {
	mu      sync.Mutex
	entries map[Key]*Entry
	total   int64
	max     int64
	now     Clock
	logger  *slog.Logger
}

// Config configures a Pool.
type Config struct {
	MaxSize int64
	Clock   Clock
	Logger  *slog.Logger
}

// New creates a pool.
func New(cfg Config) *Pool {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxSize := cfg.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &Pool{
		entries: make(map[Key]*Entry),
		max:     maxSize,
		now:     now,
		logger:  logger.With("component", "memory_pool"),
	}
}

// Get returns a copy of the entry header and the shared data slice,
// refreshing last access. Callers must not modify Data.
func (p *Pool) Get(key Key) (Entry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[key]
	if !ok {
		return Entry{}, false
	}
	e.LastAccessed = p.now()
	return *e, true
}

// Contains reports presence without touching last access.
func (p *Pool) Contains(key Key) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.entries[key]
	return ok
}

// InsertResult reports what an Insert did.
type InsertResult struct {
	// Evicted lists the keys removed to make room.
	Evicted []Key
	// Overflow is set when the pool stayed over budget because every
	// remaining entry is locked.
	Overflow bool
	// Pressure is set when usage is at or above PressureThreshold.
	Pressure bool
}

// Insert adds or replaces an entry, then evicts unlocked entries by
// priority until the pool fits its budget. A replaced entry keeps its
// lock. The entry being inserted is never its own eviction candidate.
func (p *Pool) Insert(key Key, data []byte, mimeType string, currentIndex, direction int) InsertResult {
	return p.insert(key, data, mimeType, currentIndex, direction, false)
}

// InsertLocked is Insert for a page that is on screen: the entry is
// pinned in the same critical section that adds it.
func (p *Pool) InsertLocked(key Key, data []byte, mimeType string, currentIndex, direction int) InsertResult {
	return p.insert(key, data, mimeType, currentIndex, direction, true)
}

func (p *Pool) insert(key Key, data []byte, mimeType string, currentIndex, direction int, pin bool) InsertResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	locked := pin
	if old, ok := p.entries[key]; ok {
		locked = locked || old.Locked
		p.total -= old.Size
	}
	size := int64(len(data))
	p.entries[key] = &Entry{
		Data:         data,
		MimeType:     mimeType,
		Index:        key.Index,
		Size:         size,
		LastAccessed: p.now(),
		Locked:       locked,
	}
	p.total += size

	var res InsertResult
	for p.total > p.max {
		victim, ok := p.victimLocked(key, currentIndex, direction)
		if !ok {
			res.Overflow = true
			p.logger.Warn("memory pool over budget, all entries locked",
				"total", p.total, "max", p.max)
			break
		}
		p.total -= p.entries[victim].Size
		delete(p.entries, victim)
		res.Evicted = append(res.Evicted, victim)
	}
	res.Pressure = res.Overflow || float64(p.total) >= float64(p.max)*PressureThreshold

	if len(res.Evicted) > 0 {
		p.logger.Debug("evicted pages", "count", len(res.Evicted), "total", p.total)
	}
	return res
}

// EvictionPriority ranks a page for eviction; larger goes first.
// direction > 0 means reading forward.
func EvictionPriority(pageIndex, currentIndex, direction int) int {
	diff := pageIndex - currentIndex
	if direction > 0 {
		if diff < 0 {
			return -diff + behindPenalty
		}
		return diff
	}
	if diff > 0 {
		return diff + behindPenalty
	}
	return -diff
}

// victimLocked picks the unlocked entry with the highest eviction priority,
// oldest access first on ties.
func (p *Pool) victimLocked(skip Key, currentIndex, direction int) (Key, bool) {
	var (
		best     Key
		bestPrio int
		bestSeen time.Time
		found    bool
	)
	for k, e := range p.entries {
		if e.Locked || k == skip {
			continue
		}
		prio := EvictionPriority(e.Index, currentIndex, direction)
		if !found || prio > bestPrio || (prio == bestPrio && e.LastAccessed.Before(bestSeen)) {
			best, bestPrio, bestSeen, found = k, prio, e.LastAccessed, true
		}
	}
	return best, found
}

// Lock pins an entry. Returns false if it is not cached.
func (p *Pool) Lock(key Key) bool { return p.setLocked(key, true) }

// Unlock releases a pin.
func (p *Pool) Unlock(key Key) bool { return p.setLocked(key, false) }

func (p *Pool) setLocked(key Key, locked bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[key]
	if ok {
		e.Locked = locked
	}
	return ok
}

// LockRange pins pages [from, to] of book that are cached.
func (p *Pool) LockRange(book string, from, to int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for i := from; i <= to; i++ {
		if e, ok := p.entries[Key{Book: book, Index: i}]; ok {
			e.Locked = true
			n++
		}
	}
	return n
}

// UnlockAll releases every pin.
func (p *Pool) UnlockAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.entries {
		e.Locked = false
	}
}

// ClearBook drops every entry of book, locked or not, and returns the
// removed keys.
func (p *Pool) ClearBook(book string) []Key {
	p.mu.Lock()
	defer p.mu.Unlock()
	var removed []Key
	for k, e := range p.entries {
		if k.Book == book {
			p.total -= e.Size
			delete(p.entries, k)
			removed = append(removed, k)
		}
	}
	return removed
}

// ClearAll empties the pool.
func (p *Pool) ClearAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = make(map[Key]*Entry)
	p.total = 0
}

// SetMaxSize changes the budget. Shrinking takes effect on the next Insert.
func (p *Pool) SetMaxSize(n int64) {
	if n <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.max = n
}

// CachedPages returns the cached indices of book in ascending order.
func (p *Pool) CachedPages(book string) []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []int
	for k := range p.entries {
		if k.Book == book {
			out = append(out, k.Index)
		}
	}
	sort.Ints(out)
	return out
}

// Stats is a snapshot of pool usage.
type Stats struct {
	Count        int     `json:"count"`
	TotalSize    int64   `json:"total_size"`
	MaxSize      int64   `json:"max_size"`
	UsagePercent float64 `json:"usage_percent"`
	LockedCount  int     `json:"locked_count"`
}

// Stats returns current usage.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	locked := 0
	for _, e := range p.entries {
		if e.Locked {
			locked++
		}
	}
	return Stats{
		Count:        len(p.entries),
		TotalSize:    p.total,
		MaxSize:      p.max,
		UsagePercent: float64(p.total) / float64(p.max) * 100,
		LockedCount:  locked,
	}
}
