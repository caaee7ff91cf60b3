package frame

import (
	"sort"

	"github.com/jackzampolin/folio/internal/pageerr"
)

// Builder lays out frames for one page list under one context.
// It is immutable: a context change means a new Builder.
type Builder struct {
	pages []*Page
	ctx   Context

	// split[i] is whether page i is divided under ctx.
	split []bool
	// virtualStart[i] is the virtual index of page i's first part.
	virtualStart []int
	totalVirtual int
	// starts is the forward partition of the book into frames for
	// double page mode, computed from index 0.
	starts []int
}

// NewBuilder precomputes split decisions and the frame partition.
func NewBuilder(pages []*Page, ctx Context) *Builder {
	b := &Builder{
		pages:        pages,
		ctx:          ctx,
		split:        make([]bool, len(pages)),
		virtualStart: make([]int, len(pages)),
	}

	divide := ctx.PageMode == SinglePage && ctx.DividePage
	v := 0
	for i, p := range pages {
		b.split[i] = divide && p.ShouldSplit(ctx.DividePageRate)
		b.virtualStart[i] = v
		v++
		if b.split[i] {
			v++
		}
	}
	b.totalVirtual = v

	if ctx.PageMode == DoublePage {
		for i := 0; i < len(pages); i += b.frameStep(i) {
			b.starts = append(b.starts, i)
		}
	}
	return b
}

// Context returns the layout context.
func (b *Builder) Context() Context { return b.ctx }

// Pages returns the page list. Callers must not modify it.
func (b *Builder) Pages() []*Page { return b.pages }

// PageCount is the number of physical pages.
func (b *Builder) PageCount() int { return len(b.pages) }

// Page returns the page at index, or nil.
func (b *Builder) Page(index int) *Page {
	if index < 0 || index >= len(b.pages) {
		return nil
	}
	return b.pages[index]
}

// IsPageSplit reports whether page index is shown as two halves.
// Division only applies in single page mode.
func (b *Builder) IsPageSplit(index int) bool {
	if index < 0 || index >= len(b.split) {
		return false
	}
	return b.split[index]
}

// HasSecondPart is IsPageSplit under its navigation name.
func (b *Builder) HasSecondPart(index int) bool { return b.IsPageSplit(index) }

// TotalVirtualPages counts navigable units: one per page plus one extra
// per divided page.
func (b *Builder) TotalVirtualPages() int { return b.totalVirtual }

// VirtualFromPosition maps a position to its virtual index.
func (b *Builder) VirtualFromPosition(pos Position) (int, bool) {
	if pos.Index < 0 || pos.Index >= len(b.pages) {
		return 0, false
	}
	v := b.virtualStart[pos.Index]
	if pos.Part > 0 && b.split[pos.Index] {
		v++
	}
	return v, true
}

// PositionFromVirtual is the inverse of VirtualFromPosition.
func (b *Builder) PositionFromVirtual(v int) (Position, bool) {
	if v < 0 || v >= b.totalVirtual {
		return Position{}, false
	}
	// last page whose first part is <= v
	i := sort.Search(len(b.virtualStart), func(i int) bool { return b.virtualStart[i] > v }) - 1
	return Position{Index: i, Part: v - b.virtualStart[i]}, true
}

// normalize drops a part that the page does not have.
func (b *Builder) normalize(pos Position) Position {
	pos = NewPosition(pos.Index, pos.Part)
	if !b.IsPageSplit(pos.Index) {
		pos.Part = 0
	}
	return pos
}

// BuildFrame lays out the frame shown at pos. The result depends only on
// the page list, the context and pos.
func (b *Builder) BuildFrame(pos Position) (Frame, error) {
	if pos.Index < 0 || pos.Index >= len(b.pages) {
		return Frame{}, pageerr.NotFound(pos.Index)
	}
	pos = b.normalize(pos)

	var f Frame
	if b.ctx.PageMode == DoublePage {
		f = b.buildDouble(pos.Index)
	} else {
		f = SingleFrame(b.element(pos), b.ctx.ReadOrder)
	}
	return f.withLayout(b.ctx.Calculator().Calculate(f.ContentSize())), nil
}

// element returns the element for a single-page position. For a divided
// page the first part is the half met first in reading order.
func (b *Builder) element(pos Position) Element {
	page := b.pages[pos.Index]
	if !b.split[pos.Index] {
		return WholeElement(page)
	}
	first, second := LeftHalf, RightHalf
	if b.ctx.ReadOrder == RightToLeft {
		first, second = RightHalf, LeftHalf
	}
	if pos.Part == 0 {
		return HalfElement(page, 0, first)
	}
	return HalfElement(page, 1, second)
}

func (b *Builder) buildDouble(index int) Frame {
	first := WholeElement(b.pages[index])
	if b.frameStep(index) == 1 {
		return SingleFrame(first, b.ctx.ReadOrder)
	}
	second := WholeElement(b.pages[index+1])
	s1, s2 := SpreadScales(first.Size(), second.Size(), b.ctx.WidePageStretch)
	return DoubleFrame(first.WithScale(s1), second.WithScale(s2), b.ctx.ReadOrder)
}

// displayAlone reports a page that may never share a frame.
func (b *Builder) displayAlone(index int) bool {
	last := len(b.pages) - 1
	switch {
	case b.ctx.WidePage && b.pages[index].IsLandscape():
		return true
	case b.ctx.SingleFirst && index == 0:
		return true
	case b.ctx.SingleLast && index == last:
		return true
	}
	return false
}

// canPair reports whether index and index+1 form a spread.
func (b *Builder) canPair(index int) bool {
	if index < 0 || index+1 >= len(b.pages) {
		return false
	}
	return !b.displayAlone(index) && !b.displayAlone(index+1)
}

// frameStep is how many physical pages the double page frame at index covers.
func (b *Builder) frameStep(index int) int {
	if b.canPair(index) {
		return 2
	}
	return 1
}

// NextFramePosition returns where the frame after the one at pos starts.
// False at the end of the book.
func (b *Builder) NextFramePosition(pos Position) (Position, bool) {
	if pos.Index < 0 || pos.Index >= len(b.pages) {
		return Position{}, false
	}
	pos = b.normalize(pos)

	var next Position
	if b.ctx.PageMode == DoublePage {
		next = Position{Index: pos.Index + b.frameStep(pos.Index)}
	} else {
		next = pos.Next(b.split[pos.Index])
	}
	if next.Index >= len(b.pages) {
		return Position{}, false
	}
	return next, true
}

// PrevFramePosition returns where the frame before the one at pos starts.
// False at the start of the book.
func (b *Builder) PrevFramePosition(pos Position) (Position, bool) {
	if pos.Index < 0 || pos.Index >= len(b.pages) {
		return Position{}, false
	}
	pos = b.normalize(pos)

	if b.ctx.PageMode != DoublePage {
		return pos.Prev(pos.Index > 0 && b.split[pos.Index-1])
	}

	if pos.Index == 0 {
		return Position{}, false
	}
	if k := sort.SearchInts(b.starts, pos.Index); k < len(b.starts) && b.starts[k] == pos.Index {
		return Position{Index: b.starts[k-1]}, true
	}
	// Off the partition (a direct jump): pair backwards when possible.
	prev := pos.Index - 1
	if b.canPair(prev - 1) {
		return Position{Index: prev - 1}, true
	}
	return Position{Index: prev}, true
}

// FramePositionForIndex re-resolves the frame that shows physical page
// index under this builder's context. Used after a context change so the
// current page stays current.
func (b *Builder) FramePositionForIndex(index int) (Position, bool) {
	if index < 0 || index >= len(b.pages) {
		return Position{}, false
	}
	if b.ctx.PageMode != DoublePage {
		return Position{Index: index}, true
	}
	k := sort.Search(len(b.starts), func(i int) bool { return b.starts[i] > index }) - 1
	return Position{Index: b.starts[k]}, true
}

// FirstPosition is the opening frame position.
func (b *Builder) FirstPosition() Position { return Position{} }

// LastPosition is the position of the final frame.
func (b *Builder) LastPosition() (Position, bool) {
	n := len(b.pages)
	if n == 0 {
		return Position{}, false
	}
	if b.ctx.PageMode == DoublePage {
		return Position{Index: b.starts[len(b.starts)-1]}, true
	}
	if b.split[n-1] {
		return Position{Index: n - 1, Part: 1}, true
	}
	return Position{Index: n - 1}, true
}
