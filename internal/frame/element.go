package frame

// CropRect is a crop in normalized coordinates (0..1) of the page.
type CropRect struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

var (
	// LeftHalf covers the left half of a page.
	LeftHalf = CropRect{X: 0, Y: 0, Width: 0.5, Height: 1}
	// RightHalf covers the right half of a page.
	RightHalf = CropRect{X: 0.5, Y: 0, Width: 0.5, Height: 1}
)

// Element is one page, or one half of a divided page, placed in a frame.
// Crop is set iff the element is a half. Dummy elements are placeholders
// that never trigger a load.
type Element struct {
	Page  *Page     `json:"page" yaml:"page"`
	Range Range     `json:"range" yaml:"range"`
	Dummy bool      `json:"dummy,omitempty" yaml:"dummy,omitempty"`
	Crop  *CropRect `json:"crop,omitempty" yaml:"crop,omitempty"`
	Scale float64   `json:"scale" yaml:"scale"`
}

// WholeElement shows a full page.
func WholeElement(page *Page) Element {
	return Element{Page: page, Range: FullPage(page.Index), Scale: 1}
}

// HalfElement shows one side of a divided page at the given part.
func HalfElement(page *Page, part int, crop CropRect) Element {
	c := crop
	return Element{Page: page, Range: PartRange(page.Index, part), Crop: &c, Scale: 1}
}

// Index is the physical index of the underlying page.
func (e Element) Index() int { return e.Page.Index }

// IsDivided reports whether this element is half a page.
func (e Element) IsDivided() bool { return e.Crop != nil }

// IsLandscape follows the underlying page, not the crop.
func (e Element) IsLandscape() bool { return e.Page.IsLandscape() }

// Width is the displayed width before frame layout.
func (e Element) Width() float64 {
	w := float64(e.Page.Width)
	if e.Crop != nil {
		w *= e.Crop.Width
	}
	return w * e.scale()
}

// Height is the displayed height before frame layout.
func (e Element) Height() float64 {
	h := float64(e.Page.Height)
	if e.Crop != nil {
		h *= e.Crop.Height
	}
	return h * e.scale()
}

// Size returns Width x Height.
func (e Element) Size() Size { return Size{Width: e.Width(), Height: e.Height()} }

// WithScale returns a copy scaled by s.
func (e Element) WithScale(s float64) Element {
	e.Scale = s
	return e
}

func (e Element) scale() float64 {
	if e.Scale <= 0 {
		return 1
	}
	return e.Scale
}
