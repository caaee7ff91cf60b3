// Package content is the page content manager: it turns navigation into
// frames, loads and caches page data through the job engine and memory
// pool, and keeps a preload window around the reader.
package content

import (
	"github.com/jackzampolin/folio/internal/frame"
	"github.com/jackzampolin/folio/internal/source"
)

// Reading directions.
const (
	Forward  = 1
	Backward = -1
)

// Book is the state of the open book.
type Book struct {
	Path         string
	Kind         source.Kind
	Pages        []*frame.Page
	CurrentIndex int
	// Direction is Forward or Backward, following the last move.
	Direction int
}

func newBook(path string, kind source.Kind, pages []*frame.Page) *Book {
	return &Book{Path: path, Kind: kind, Pages: pages, Direction: Forward}
}

// TotalPages is the physical page count.
func (b *Book) TotalPages() int { return len(b.Pages) }

// Goto moves to index, updating the reading direction from the move.
// Returns false when index is out of range.
func (b *Book) Goto(index int) bool {
	if index < 0 || index >= len(b.Pages) {
		return false
	}
	switch {
	case index > b.CurrentIndex:
		b.Direction = Forward
	case index < b.CurrentIndex:
		b.Direction = Backward
	}
	b.CurrentIndex = index
	return true
}

// IsFirstPage reports whether the reader is on the first page.
func (b *Book) IsFirstPage() bool { return b.CurrentIndex == 0 }

// IsLastPage reports whether the reader is on the last page.
func (b *Book) IsLastPage() bool { return b.CurrentIndex == len(b.Pages)-1 }

// PreloadRange lists the pages to preload around the current page in
// priority order: ahead in reading direction first, then behind.
func (b *Book) PreloadRange(ahead, behind int) []int {
	out := make([]int, 0, ahead+behind)
	dir := b.Direction
	if dir == 0 {
		dir = Forward
	}
	for i := 1; i <= ahead; i++ {
		if idx := b.CurrentIndex + dir*i; idx >= 0 && idx < len(b.Pages) {
			out = append(out, idx)
		}
	}
	for i := 1; i <= behind; i++ {
		if idx := b.CurrentIndex - dir*i; idx >= 0 && idx < len(b.Pages) {
			out = append(out, idx)
		}
	}
	return out
}

// PagePaths lists the display path of every page.
func (b *Book) PagePaths() []string {
	out := make([]string, len(b.Pages))
	for i, p := range b.Pages {
		out[i] = p.Path
	}
	return out
}
