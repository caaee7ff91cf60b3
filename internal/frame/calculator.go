package frame

import (
	"fmt"
	"math"
	"strings"
)

// StretchMode decides how content is scaled into the canvas.
type StretchMode int

const (
	StretchNone StretchMode = iota
	StretchUniform
	StretchUniformToFill
	StretchUniformToVertical
	StretchUniformToHorizontal
	StretchFill
)

var stretchNames = []string{"none", "uniform", "uniform_to_fill", "uniform_to_vertical", "uniform_to_horizontal", "fill"}

func (m StretchMode) String() string {
	if int(m) < 0 || int(m) >= len(stretchNames) {
		return "uniform"
	}
	return stretchNames[m]
}

// ParseStretchMode parses a stretch mode name.
func ParseStretchMode(s string) (StretchMode, error) {
	i, err := parseName(s, stretchNames, "stretch mode")
	return StretchMode(i), err
}

func (m StretchMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *StretchMode) UnmarshalText(b []byte) error {
	v, err := ParseStretchMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// AutoRotate decides whether content is turned to fit the canvas.
type AutoRotate int

const (
	RotateNone AutoRotate = iota
	RotateLeft
	RotateRight
	RotateAuto
)

var rotateNames = []string{"none", "left", "right", "auto"}

func (r AutoRotate) String() string {
	if int(r) < 0 || int(r) >= len(rotateNames) {
		return "none"
	}
	return rotateNames[r]
}

// ParseAutoRotate parses a rotation policy name.
func ParseAutoRotate(s string) (AutoRotate, error) {
	i, err := parseName(s, rotateNames, "auto rotate")
	return AutoRotate(i), err
}

func (r AutoRotate) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *AutoRotate) UnmarshalText(b []byte) error {
	v, err := ParseAutoRotate(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// WidePageStretch equalizes the two pages of a spread.
type WidePageStretch int

const (
	WideStretchNone WidePageStretch = iota
	WideStretchUniformHeight
	WideStretchUniformWidth
)

var wideStretchNames = []string{"none", "uniform_height", "uniform_width"}

func (w WidePageStretch) String() string {
	if int(w) < 0 || int(w) >= len(wideStretchNames) {
		return "none"
	}
	return wideStretchNames[w]
}

// ParseWidePageStretch parses a spread stretch name.
func ParseWidePageStretch(s string) (WidePageStretch, error) {
	i, err := parseName(s, wideStretchNames, "wide page stretch")
	return WidePageStretch(i), err
}

func (w WidePageStretch) MarshalText() ([]byte, error) { return []byte(w.String()), nil }

func (w *WidePageStretch) UnmarshalText(b []byte) error {
	v, err := ParseWidePageStretch(string(b))
	if err != nil {
		return err
	}
	*w = v
	return nil
}

func parseName(s string, names []string, what string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", what, s)
}

// Layout is the calculator output for one frame.
type Layout struct {
	Size  Size    `json:"size" yaml:"size"`
	Scale float64 `json:"scale" yaml:"scale"`
	Angle float64 `json:"angle" yaml:"angle"`
}

// SizeCalculator maps content size onto the canvas.
type SizeCalculator struct {
	Canvas     Size
	Stretch    StretchMode
	AutoRotate AutoRotate
}

// Calculate returns the render size, scale and rotation for content.
// Empty content yields a zero size at scale 1. An unknown canvas leaves
// the content at its native size.
func (c SizeCalculator) Calculate(content Size) Layout {
	if content.IsZero() {
		return Layout{Scale: 1}
	}
	if c.Canvas.IsZero() {
		return Layout{Size: content, Scale: 1}
	}

	angle := c.angle(content)
	rotated := content
	if math.Abs(angle) > 45 {
		rotated = content.Swap()
	}

	sx := c.Canvas.Width / rotated.Width
	sy := c.Canvas.Height / rotated.Height

	var scale float64
	switch c.Stretch {
	case StretchNone:
		scale = 1
	case StretchUniformToFill:
		scale = math.Max(sx, sy)
	case StretchUniformToVertical:
		scale = sy
	case StretchUniformToHorizontal:
		scale = sx
	case StretchFill:
		scale = (sx + sy) / 2
	default:
		scale = math.Min(sx, sy)
	}

	return Layout{Size: rotated.Scale(scale), Scale: scale, Angle: angle}
}

func (c SizeCalculator) angle(content Size) float64 {
	switch c.AutoRotate {
	case RotateLeft:
		return -90
	case RotateRight:
		return 90
	case RotateAuto:
		if content.IsLandscape() != c.Canvas.IsLandscape() {
			return 90
		}
	}
	return 0
}

// SpreadScales returns per-element scales so two pages of a spread line up.
func SpreadScales(a, b Size, mode WidePageStretch) (float64, float64) {
	switch mode {
	case WideStretchUniformHeight:
		if a.Height <= 0 || b.Height <= 0 {
			return 1, 1
		}
		h := math.Max(a.Height, b.Height)
		return h / a.Height, h / b.Height
	case WideStretchUniformWidth:
		if a.Width <= 0 || b.Width <= 0 {
			return 1, 1
		}
		w := math.Max(a.Width, b.Width)
		return w / a.Width, w / b.Width
	}
	return 1, 1
}
