package frame

import "fmt"

// Range is an inclusive span of positions, Min <= Max.
type Range struct {
	Min Position `json:"min" yaml:"min"`
	Max Position `json:"max" yaml:"max"`
}

// NewRange orders its arguments.
func NewRange(a, b Position) Range {
	if b.Less(a) {
		a, b = b, a
	}
	return Range{Min: a, Max: b}
}

// FullPage covers both parts of one physical page.
func FullPage(index int) Range {
	return Range{Min: Position{Index: index}, Max: Position{Index: index, Part: 1}}
}

// PartRange covers a single half of a divided page.
func PartRange(index, part int) Range {
	p := NewPosition(index, part)
	return Range{Min: p, Max: p}
}

// IsOnePage reports whether the range stays on one physical page.
func (r Range) IsOnePage() bool { return r.Min.Index == r.Max.Index }

// PageCount is the number of physical pages touched.
func (r Range) PageCount() int { return r.Max.Index - r.Min.Index + 1 }

// Contains reports whether pos lies within the range.
func (r Range) Contains(pos Position) bool {
	return r.Min.Compare(pos) <= 0 && pos.Compare(r.Max) <= 0
}

// ContainsIndex reports whether any part of physical page index is inside.
func (r Range) ContainsIndex(index int) bool {
	return index >= r.Min.Index && index <= r.Max.Index
}

// Extend returns the smallest range covering r and o.
func (r Range) Extend(o Range) Range {
	out := r
	if o.Min.Less(out.Min) {
		out.Min = o.Min
	}
	if out.Max.Less(o.Max) {
		out.Max = o.Max
	}
	return out
}

// MergeRanges returns the span from the smallest Min to the largest Max.
// The bool is false when no ranges were given.
func MergeRanges(ranges ...Range) (Range, bool) {
	if len(ranges) == 0 {
		return Range{}, false
	}
	out := ranges[0]
	for _, r := range ranges[1:] {
		out = out.Extend(r)
	}
	return out, true
}

func (r Range) String() string {
	return fmt.Sprintf("[%s..%s]", r.Min, r.Max)
}
