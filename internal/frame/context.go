package frame

import (
	"fmt"
	"strings"
)

// PageMode selects one or two pages per frame.
type PageMode int

const (
	SinglePage PageMode = iota
	DoublePage
)

func (m PageMode) String() string {
	if m == DoublePage {
		return "double"
	}
	return "single"
}

// ParsePageMode accepts "single" or "double".
func ParsePageMode(s string) (PageMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single", "":
		return SinglePage, nil
	case "double":
		return DoublePage, nil
	}
	return SinglePage, fmt.Errorf("unknown page mode %q", s)
}

func (m PageMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *PageMode) UnmarshalText(b []byte) error {
	v, err := ParsePageMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ReadOrder is the reading direction.
type ReadOrder int

const (
	LeftToRight ReadOrder = iota
	RightToLeft
)

func (o ReadOrder) String() string {
	if o == RightToLeft {
		return "rtl"
	}
	return "ltr"
}

// ParseReadOrder accepts "ltr" or "rtl".
func ParseReadOrder(s string) (ReadOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ltr", "":
		return LeftToRight, nil
	case "rtl":
		return RightToLeft, nil
	}
	return LeftToRight, fmt.Errorf("unknown read order %q", s)
}

func (o ReadOrder) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *ReadOrder) UnmarshalText(b []byte) error {
	v, err := ParseReadOrder(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// Context is the layout configuration. It is a plain value: changing it
// never touches frames already built, it only means building new ones.
type Context struct {
	PageMode        PageMode        `json:"page_mode" yaml:"page_mode"`
	ReadOrder       ReadOrder       `json:"read_order" yaml:"read_order"`
	DividePage      bool            `json:"divide_page" yaml:"divide_page"`
	WidePage        bool            `json:"wide_page" yaml:"wide_page"`
	SingleFirst     bool            `json:"single_first" yaml:"single_first"`
	SingleLast      bool            `json:"single_last" yaml:"single_last"`
	DividePageRate  float64         `json:"divide_page_rate" yaml:"divide_page_rate"`
	AutoRotate      AutoRotate      `json:"auto_rotate" yaml:"auto_rotate"`
	StretchMode     StretchMode     `json:"stretch_mode" yaml:"stretch_mode"`
	WidePageStretch WidePageStretch `json:"wide_page_stretch" yaml:"wide_page_stretch"`
	CanvasSize      Size            `json:"canvas_size" yaml:"canvas_size"`
}

// DefaultContext is single page, left to right, wide pages isolated and
// the cover shown alone.
func DefaultContext() Context {
	return Context{
		PageMode:        SinglePage,
		ReadOrder:       LeftToRight,
		WidePage:        true,
		SingleFirst:     true,
		DividePageRate:  1.0,
		AutoRotate:      RotateNone,
		StretchMode:     StretchUniform,
		WidePageStretch: WideStretchUniformHeight,
	}
}

// Validate rejects contexts the builder cannot use.
func (c Context) Validate() error {
	if c.DividePageRate <= 0 {
		return fmt.Errorf("divide_page_rate must be positive, got %v", c.DividePageRate)
	}
	if c.CanvasSize.Width < 0 || c.CanvasSize.Height < 0 {
		return fmt.Errorf("canvas_size must not be negative")
	}
	return nil
}

// Calculator returns the size calculator for this context.
func (c Context) Calculator() SizeCalculator {
	return SizeCalculator{Canvas: c.CanvasSize, Stretch: c.StretchMode, AutoRotate: c.AutoRotate}
}

// ContextPatch is a partial update. Nil fields are left unchanged.
type ContextPatch struct {
	PageMode        *PageMode        `json:"page_mode,omitempty" yaml:"page_mode,omitempty"`
	ReadOrder       *ReadOrder       `json:"read_order,omitempty" yaml:"read_order,omitempty"`
	DividePage      *bool            `json:"divide_page,omitempty" yaml:"divide_page,omitempty"`
	WidePage        *bool            `json:"wide_page,omitempty" yaml:"wide_page,omitempty"`
	SingleFirst     *bool            `json:"single_first,omitempty" yaml:"single_first,omitempty"`
	SingleLast      *bool            `json:"single_last,omitempty" yaml:"single_last,omitempty"`
	DividePageRate  *float64         `json:"divide_page_rate,omitempty" yaml:"divide_page_rate,omitempty"`
	AutoRotate      *AutoRotate      `json:"auto_rotate,omitempty" yaml:"auto_rotate,omitempty"`
	StretchMode     *StretchMode     `json:"stretch_mode,omitempty" yaml:"stretch_mode,omitempty"`
	WidePageStretch *WidePageStretch `json:"wide_page_stretch,omitempty" yaml:"wide_page_stretch,omitempty"`
	CanvasSize      *Size            `json:"canvas_size,omitempty" yaml:"canvas_size,omitempty"`
}

// IsEmpty reports a patch that changes nothing.
func (p ContextPatch) IsEmpty() bool {
	return p == ContextPatch{}
}

// Apply merges the patch over c and returns the result.
func (p ContextPatch) Apply(c Context) Context {
	if p.PageMode != nil {
		c.PageMode = *p.PageMode
	}
	if p.ReadOrder != nil {
		c.ReadOrder = *p.ReadOrder
	}
	if p.DividePage != nil {
		c.DividePage = *p.DividePage
	}
	if p.WidePage != nil {
		c.WidePage = *p.WidePage
	}
	if p.SingleFirst != nil {
		c.SingleFirst = *p.SingleFirst
	}
	if p.SingleLast != nil {
		c.SingleLast = *p.SingleLast
	}
	if p.DividePageRate != nil {
		c.DividePageRate = *p.DividePageRate
	}
	if p.AutoRotate != nil {
		c.AutoRotate = *p.AutoRotate
	}
	if p.StretchMode != nil {
		c.StretchMode = *p.StretchMode
	}
	if p.WidePageStretch != nil {
		c.WidePageStretch = *p.WidePageStretch
	}
	if p.CanvasSize != nil {
		c.CanvasSize = *p.CanvasSize
	}
	return c
}

// AffectsLayout reports whether applying the patch can change pairing or
// splitting, as opposed to only geometry.
func (p ContextPatch) AffectsLayout() bool {
	return p.PageMode != nil || p.ReadOrder != nil || p.DividePage != nil ||
		p.WidePage != nil || p.SingleFirst != nil || p.SingleLast != nil ||
		p.DividePageRate != nil
}
