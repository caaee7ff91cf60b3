package frame

// Frame is what is shown at once: one or two elements. Elements are stored
// in on-screen order, left to right, so for right-to-left reading the
// later page comes first. Frames are never mutated after the builder
// returns them.
type Frame struct {
	Elements  []Element `json:"elements" yaml:"elements"`
	Range     Range     `json:"range" yaml:"range"`
	Direction ReadOrder `json:"direction" yaml:"direction"`
	Angle     float64   `json:"angle" yaml:"angle"`
	Scale     float64   `json:"scale" yaml:"scale"`
	Size      Size      `json:"size" yaml:"size"`
}

// SingleFrame wraps one element.
func SingleFrame(e Element, dir ReadOrder) Frame {
	f := Frame{
		Elements:  []Element{e},
		Range:     e.Range,
		Direction: dir,
		Scale:     1,
	}
	f.Size = f.ContentSize()
	return f
}

// DoubleFrame wraps two elements, first being the lower page index.
func DoubleFrame(first, second Element, dir ReadOrder) Frame {
	elems := []Element{first, second}
	if dir == RightToLeft {
		elems = []Element{second, first}
	}
	r, _ := MergeRanges(first.Range, second.Range)
	f := Frame{
		Elements:  elems,
		Range:     r,
		Direction: dir,
		Scale:     1,
	}
	f.Size = f.ContentSize()
	return f
}

// ContentSize is the unscaled frame size: element widths side by side,
// height of the tallest.
func (f Frame) ContentSize() Size {
	var s Size
	for _, e := range f.Elements {
		s.Width += e.Width()
		if h := e.Height(); h > s.Height {
			s.Height = h
		}
	}
	return s
}

// withLayout applies calculator output.
func (f Frame) withLayout(l Layout) Frame {
	f.Angle = l.Angle
	f.Scale = l.Scale
	f.Size = l.Size
	return f
}

// IsSingle reports a one-element frame.
func (f Frame) IsSingle() bool { return len(f.Elements) == 1 }

// IsDouble reports a two-element frame.
func (f Frame) IsDouble() bool { return len(f.Elements) == 2 }

// Contains reports whether pos lies in the frame range.
func (f Frame) Contains(pos Position) bool { return f.Range.Contains(pos) }

// ContainsIndex reports whether physical page index is shown.
func (f Frame) ContainsIndex(index int) bool { return f.Range.ContainsIndex(index) }

// DirectedElements returns the elements in on-screen order.
func (f Frame) DirectedElements() []Element {
	out := make([]Element, len(f.Elements))
	copy(out, f.Elements)
	return out
}

// PageIndices lists the physical pages that need data, ascending.
// Dummy elements are skipped.
func (f Frame) PageIndices() []int {
	var out []int
	for i := f.Range.Min.Index; i <= f.Range.Max.Index; i++ {
		for _, e := range f.Elements {
			if !e.Dummy && e.Index() == i {
				out = append(out, i)
				break
			}
		}
	}
	return out
}

// Position is where this frame starts.
func (f Frame) Position() Position { return f.Range.Min }
