package frame

import (
	"errors"
	"testing"

	"github.com/jackzampolin/folio/internal/pageerr"
)

// makePages builds pages from width/height pairs.
func makePages(t *testing.T, dims ...[2]int) []*Page {
	t.Helper()
	pages := make([]*Page, len(dims))
	for i, d := range dims {
		pages[i] = &Page{Index: i, Path: "p", Width: d[0], Height: d[1]}
	}
	return pages
}

func portrait() [2]int  { return [2]int{800, 1200} }
func landscape() [2]int { return [2]int{1600, 800} }

func mustBuild(t *testing.T, b *Builder, pos Position) Frame {
	t.Helper()
	f, err := b.BuildFrame(pos)
	if err != nil {
		t.Fatalf("BuildFrame(%v): %v", pos, err)
	}
	return f
}

func TestBuildFrame_SplitProducesTwoHalves(t *testing.T) {
	pages := makePages(t, landscape())
	ctx := DefaultContext()
	ctx.DividePage = true
	b := NewBuilder(pages, ctx)

	if !b.IsPageSplit(0) {
		t.Fatal("expected page 0 to be split")
	}

	first := mustBuild(t, b, Position{Index: 0, Part: 0})
	second := mustBuild(t, b, Position{Index: 0, Part: 1})
	if !first.IsSingle() || !second.IsSingle() {
		t.Fatalf("expected single-element frames")
	}

	a, c := first.Elements[0].Crop, second.Elements[0].Crop
	if a == nil || c == nil {
		t.Fatal("expected crop rects on both halves")
	}
	// together they cover [0,1] with no gap or overlap
	lo, hi := a, c
	if c.X < a.X {
		lo, hi = c, a
	}
	if lo.X != 0 || lo.X+lo.Width != hi.X || hi.X+hi.Width != 1 {
		t.Errorf("halves do not partition the page: %+v %+v", *lo, *hi)
	}
	if first.Elements[0].Width() != 800 {
		t.Errorf("half width = %v, want 800", first.Elements[0].Width())
	}
}

func TestBuildFrame_SplitOrderFollowsDirection(t *testing.T) {
	pages := makePages(t, landscape())

	tests := []struct {
		order       ReadOrder
		first, then CropRect
	}{
		{LeftToRight, LeftHalf, RightHalf},
		{RightToLeft, RightHalf, LeftHalf},
	}

	for _, tt := range tests {
		t.Run(tt.order.String(), func(t *testing.T) {
			ctx := DefaultContext()
			ctx.DividePage = true
			ctx.ReadOrder = tt.order
			b := NewBuilder(pages, ctx)

			p0 := mustBuild(t, b, Position{Index: 0, Part: 0})
			p1 := mustBuild(t, b, Position{Index: 0, Part: 1})
			if *p0.Elements[0].Crop != tt.first {
				t.Errorf("part 0 crop = %+v, want %+v", *p0.Elements[0].Crop, tt.first)
			}
			if *p1.Elements[0].Crop != tt.then {
				t.Errorf("part 1 crop = %+v, want %+v", *p1.Elements[0].Crop, tt.then)
			}
		})
	}
}

func TestBuildFrame_DoublePairing(t *testing.T) {
	pages := makePages(t, portrait(), portrait(), portrait())
	ctx := DefaultContext()
	ctx.PageMode = DoublePage
	ctx.SingleFirst = false
	ctx.SingleLast = false
	b := NewBuilder(pages, ctx)

	f := mustBuild(t, b, Position{Index: 0})
	if got := f.PageIndices(); len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Fatalf("first frame pages = %v, want [0 1]", got)
	}
	next, ok := b.NextFramePosition(f.Position())
	if !ok || next.Index != 2 {
		t.Fatalf("next = %v %v, want index 2", next, ok)
	}
	f = mustBuild(t, b, next)
	if got := f.PageIndices(); len(got) != 1 || got[0] != 2 {
		t.Fatalf("second frame pages = %v, want [2]", got)
	}
	if _, ok := b.NextFramePosition(next); ok {
		t.Error("expected end of book")
	}

	// Starting at an odd index pairs 1 with 2, never 0 with 2.
	f = mustBuild(t, b, Position{Index: 1})
	if got := f.PageIndices(); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("frame at 1 = %v, want [1 2]", got)
	}
}

func TestPageIndices_SkipsDummy(t *testing.T) {
	pages := makePages(t, portrait(), portrait())
	blank := WholeElement(pages[1])
	blank.Dummy = true

	f := DoubleFrame(WholeElement(pages[0]), blank, LeftToRight)
	if got := f.PageIndices(); len(got) != 1 || got[0] != 0 {
		t.Fatalf("pages = %v, want [0]", got)
	}
	if f.Size.Width != 1600 {
		t.Errorf("width = %v, want the blank slot counted", f.Size.Width)
	}
}

func TestBuildFrame_DoubleIsolation(t *testing.T) {
	tests := []struct {
		name        string
		dims        [][2]int
		singleFirst bool
		singleLast  bool
		want        [][]int
	}{
		{
			name: "landscape alone",
			dims: [][2]int{portrait(), portrait(), landscape(), portrait(), portrait()},
			want: [][]int{{0, 1}, {2}, {3, 4}},
		},
		{
			name: "landscape neighbour blocks pairing",
			dims: [][2]int{portrait(), landscape(), portrait()},
			want: [][]int{{0}, {1}, {2}},
		},
		{
			name:        "single first",
			dims:        [][2]int{portrait(), portrait(), portrait()},
			singleFirst: true,
			want:        [][]int{{0}, {1, 2}},
		},
		{
			name:       "single last",
			dims:       [][2]int{portrait(), portrait(), portrait(), portrait()},
			singleLast: true,
			want:       [][]int{{0, 1}, {2}, {3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := DefaultContext()
			ctx.PageMode = DoublePage
			ctx.SingleFirst = tt.singleFirst
			ctx.SingleLast = tt.singleLast
			b := NewBuilder(makePages(t, tt.dims...), ctx)

			var got [][]int
			pos, ok := b.FirstPosition(), true
			for ok {
				got = append(got, mustBuild(t, b, pos).PageIndices())
				pos, ok = b.NextFramePosition(pos)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("frames = %v, want %v", got, tt.want)
			}
			for i := range got {
				if len(got[i]) != len(tt.want[i]) {
					t.Fatalf("frames = %v, want %v", got, tt.want)
				}
				for j := range got[i] {
					if got[i][j] != tt.want[i][j] {
						t.Fatalf("frames = %v, want %v", got, tt.want)
					}
				}
			}
		})
	}
}

func TestBuildFrame_DoubleDirection(t *testing.T) {
	pages := makePages(t, portrait(), portrait())
	ctx := DefaultContext()
	ctx.PageMode = DoublePage
	ctx.SingleFirst = false

	ctx.ReadOrder = LeftToRight
	f := mustBuild(t, NewBuilder(pages, ctx), Position{})
	if f.Elements[0].Index() != 0 || f.Elements[1].Index() != 1 {
		t.Errorf("ltr elements = [%d %d], want [0 1]", f.Elements[0].Index(), f.Elements[1].Index())
	}

	ctx.ReadOrder = RightToLeft
	f = mustBuild(t, NewBuilder(pages, ctx), Position{})
	if f.Elements[0].Index() != 1 || f.Elements[1].Index() != 0 {
		t.Errorf("rtl elements = [%d %d], want [1 0]", f.Elements[0].Index(), f.Elements[1].Index())
	}
	if f.Range != (Range{Min: Position{Index: 0}, Max: Position{Index: 1, Part: 1}}) {
		t.Errorf("range = %v", f.Range)
	}
	if f.ContentSize().Width != 1600 {
		t.Errorf("content width = %v, want 1600", f.ContentSize().Width)
	}
}

func TestTotalVirtualPages(t *testing.T) {
	dims := make([][2]int, 10)
	for i := range dims {
		dims[i] = portrait()
	}
	dims[3] = landscape()
	dims[7] = landscape()
	pages := makePages(t, dims...)

	ctx := DefaultContext()
	ctx.DividePage = true
	b := NewBuilder(pages, ctx)
	if got := b.TotalVirtualPages(); got != 12 {
		t.Fatalf("TotalVirtualPages = %d, want 12", got)
	}

	// virtual mapping round-trips
	for v := 0; v < b.TotalVirtualPages(); v++ {
		pos, ok := b.PositionFromVirtual(v)
		if !ok {
			t.Fatalf("PositionFromVirtual(%d) failed", v)
		}
		back, _ := b.VirtualFromPosition(pos)
		if back != v {
			t.Errorf("virtual %d -> %v -> %d", v, pos, back)
		}
	}
	if pos, _ := b.PositionFromVirtual(4); pos != (Position{Index: 3, Part: 1}) {
		t.Errorf("virtual 4 = %v, want 3.1", pos)
	}

	ctx.DividePage = false
	if got := NewBuilder(pages, ctx).TotalVirtualPages(); got != 10 {
		t.Errorf("without divide TotalVirtualPages = %d, want 10", got)
	}
}

func TestSingleNavigationWalksHalves(t *testing.T) {
	pages := makePages(t, portrait(), landscape(), portrait())
	ctx := DefaultContext()
	ctx.DividePage = true
	b := NewBuilder(pages, ctx)

	want := []Position{{0, 0}, {1, 0}, {1, 1}, {2, 0}}
	pos := b.FirstPosition()
	for i, w := range want {
		if pos != w {
			t.Fatalf("step %d: pos = %v, want %v", i, pos, w)
		}
		next, ok := b.NextFramePosition(pos)
		if !ok {
			if i != len(want)-1 {
				t.Fatalf("unexpected end at %v", pos)
			}
			break
		}
		pos = next
	}

	// and back
	for i := len(want) - 1; i > 0; i-- {
		prev, ok := b.PrevFramePosition(want[i])
		if !ok || prev != want[i-1] {
			t.Errorf("prev(%v) = %v %v, want %v", want[i], prev, ok, want[i-1])
		}
	}
	if _, ok := b.PrevFramePosition(Position{}); ok {
		t.Error("expected start of book")
	}
}

func TestDoublePrevMatchesForwardPartition(t *testing.T) {
	pages := makePages(t, portrait(), portrait(), portrait(), landscape(), portrait(), portrait(), portrait())
	ctx := DefaultContext()
	ctx.PageMode = DoublePage
	ctx.SingleFirst = false
	b := NewBuilder(pages, ctx)

	var forward []Position
	for pos, ok := b.FirstPosition(), true; ok; pos, ok = b.NextFramePosition(pos) {
		forward = append(forward, pos)
	}
	for i := len(forward) - 1; i > 0; i-- {
		prev, ok := b.PrevFramePosition(forward[i])
		if !ok || prev != forward[i-1] {
			t.Errorf("prev(%v) = %v, want %v", forward[i], prev, forward[i-1])
		}
	}
	last, _ := b.LastPosition()
	if last != forward[len(forward)-1] {
		t.Errorf("LastPosition = %v, want %v", last, forward[len(forward)-1])
	}
}

func TestContextToggleKeepsPhysicalPage(t *testing.T) {
	dims := make([][2]int, 12)
	for i := range dims {
		dims[i] = portrait()
	}
	dims[4] = landscape()
	pages := makePages(t, dims...)

	double := DefaultContext()
	double.PageMode = DoublePage
	single := DefaultContext()

	const current = 7
	pos := Position{Index: current}

	for _, ctx := range []Context{single, double, single, double} {
		b := NewBuilder(pages, ctx)
		var ok bool
		pos, ok = b.FramePositionForIndex(pos.Index)
		if !ok {
			t.Fatalf("FramePositionForIndex failed")
		}
		f := mustBuild(t, b, pos)
		if !f.ContainsIndex(current) {
			t.Fatalf("%s frame %v lost page %d", ctx.PageMode, f.Range, current)
		}
		// keep tracking the physical page we started on
		pos = Position{Index: current}
	}

	// toggling divide on and off keeps the index too
	divided := single
	divided.DividePage = true
	b := NewBuilder(pages, divided)
	p, _ := b.FramePositionForIndex(4)
	if f := mustBuild(t, b, p); !f.ContainsIndex(4) {
		t.Errorf("divided frame lost page 4")
	}
}

func TestBuildFrame_Idempotent(t *testing.T) {
	pages := makePages(t, portrait(), landscape(), portrait())
	ctx := DefaultContext()
	ctx.PageMode = DoublePage
	ctx.CanvasSize = Size{Width: 1920, Height: 1080}
	b := NewBuilder(pages, ctx)

	a := mustBuild(t, b, Position{Index: 1})
	c := mustBuild(t, b, Position{Index: 1})
	if a.Size != c.Size || a.Scale != c.Scale || a.Angle != c.Angle || a.Range != c.Range {
		t.Errorf("rebuild differs: %+v vs %+v", a, c)
	}
}

func TestBuildFrame_OutOfRange(t *testing.T) {
	b := NewBuilder(makePages(t, portrait()), DefaultContext())
	if _, err := b.BuildFrame(Position{Index: 5}); !errors.Is(err, pageerr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := NewBuilder(nil, DefaultContext()).BuildFrame(Position{}); !errors.Is(err, pageerr.ErrNotFound) {
		t.Errorf("empty book err = %v, want ErrNotFound", err)
	}
}
