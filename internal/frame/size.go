package frame

// Size is a width/height pair in pixels.
type Size struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// IsZero reports a size with no usable area.
func (s Size) IsZero() bool { return s.Width <= 0 || s.Height <= 0 }

// IsLandscape reports width > height.
func (s Size) IsLandscape() bool { return s.Width > s.Height }

// Swap exchanges width and height.
func (s Size) Swap() Size { return Size{Width: s.Height, Height: s.Width} }

// Scale multiplies both sides by f.
func (s Size) Scale(f float64) Size {
	return Size{Width: s.Width * f, Height: s.Height * f}
}
