package frame

// Page is the immutable metadata of one physical image. Pages are shared
// by pointer between every element that shows them.
type Page struct {
	Index     int    `json:"index" yaml:"index"`
	Path      string `json:"path" yaml:"path"`
	InnerPath string `json:"inner_path,omitempty" yaml:"inner_path,omitempty"`
	Width     int    `json:"width" yaml:"width"`
	Height    int    `json:"height" yaml:"height"`
	MimeType  string `json:"mime_type,omitempty" yaml:"mime_type,omitempty"`
}

// AspectRatio is width/height, or 1 when the height is unknown.
func (p *Page) AspectRatio() float64 {
	if p.Height <= 0 {
		return 1.0
	}
	return float64(p.Width) / float64(p.Height)
}

// IsLandscape reports a page wider than it is tall.
func (p *Page) IsLandscape() bool {
	return p.AspectRatio() > 1.0
}

// ShouldSplit reports whether the page is wide enough to be divided at rate.
func (p *Page) ShouldSplit(rate float64) bool {
	return p.AspectRatio() > rate
}

// Size returns the native pixel size.
func (p *Page) Size() Size {
	return Size{Width: float64(p.Width), Height: float64(p.Height)}
}
