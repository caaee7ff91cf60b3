// Package frame composes physical pages into displayable frames.
//
// Everything in this package is a value type or a pure function of
// (pages, context, position). Nothing here performs I/O.
package frame

import "fmt"

// Position is a navigable location: a physical page index plus, for a
// divided page, which half. Part 0 is the whole page or the half shown
// first; part 1 is the half shown second.
type Position struct {
	Index int `json:"index" yaml:"index"`
	Part  int `json:"part" yaml:"part"`
}

// NewPosition clamps part into {0, 1}.
func NewPosition(index, part int) Position {
	if part < 0 {
		part = 0
	}
	if part > 1 {
		part = 1
	}
	if index < 0 {
		index = 0
	}
	return Position{Index: index, Part: part}
}

// Next steps forward. hasSecondPart says whether the current page is divided.
func (p Position) Next(hasSecondPart bool) Position {
	if p.Part == 0 && hasSecondPart {
		return Position{Index: p.Index, Part: 1}
	}
	return Position{Index: p.Index + 1}
}

// Prev steps backward. prevHasSecondPart says whether the page before this
// one is divided, in which case we land on its second half.
// Returns false at the start of the book.
func (p Position) Prev(prevHasSecondPart bool) (Position, bool) {
	if p.Part > 0 {
		return Position{Index: p.Index}, true
	}
	if p.Index == 0 {
		return Position{}, false
	}
	if prevHasSecondPart {
		return Position{Index: p.Index - 1, Part: 1}, true
	}
	return Position{Index: p.Index - 1}, true
}

// Compare orders by index, then part.
func (p Position) Compare(o Position) int {
	switch {
	case p.Index < o.Index:
		return -1
	case p.Index > o.Index:
		return 1
	case p.Part < o.Part:
		return -1
	case p.Part > o.Part:
		return 1
	}
	return 0
}

// Less reports p < o.
func (p Position) Less(o Position) bool { return p.Compare(o) < 0 }

func (p Position) String() string {
	return fmt.Sprintf("%d.%d", p.Index, p.Part)
}
