package content

import (
	"log/slog"
	"sync"
	"time"
)

// EventType names a manager event.
type EventType string

const (
	EventPageLoaded     EventType = "page_loaded"
	EventPageUnloaded   EventType = "page_unloaded"
	EventMemoryPressure EventType = "memory_pressure"
	EventBookReloaded   EventType = "book_reloaded"
)

// Event is emitted asynchronously; delivery is best effort.
type Event struct {
	Type  EventType `json:"type"`
	Book  string    `json:"book,omitempty"`
	Index int       `json:"index"`
	Time  time.Time `json:"time"`
}

// bus fans events out to subscribers without ever blocking the emitter.
type bus struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	next   int
	logger *slog.Logger
}

func newBus(logger *slog.Logger) *bus {
	return &bus{subs: make(map[int]chan Event), logger: logger}
}

func (b *bus) subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Event, buffer)
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}
}

func (b *bus) emit(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.logger.Debug("event dropped, subscriber full", "type", ev.Type, "index", ev.Index)
		}
	}
}

func (b *bus) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
