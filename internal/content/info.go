package content

import (
	"github.com/jackzampolin/folio/internal/frame"
	"github.com/jackzampolin/folio/internal/jobs"
	"github.com/jackzampolin/folio/internal/memory"
	"github.com/jackzampolin/folio/internal/source"
)

// BookInfo describes the open book.
type BookInfo struct {
	Path              string      `json:"path" yaml:"path"`
	Kind              source.Kind `json:"kind" yaml:"kind"`
	TotalPages        int         `json:"total_pages" yaml:"total_pages"`
	TotalVirtualPages int         `json:"total_virtual_pages" yaml:"total_virtual_pages"`
	PagePaths         []string    `json:"page_paths" yaml:"page_paths"`
}

// ElementInfo is one element of a frame, as sent to renderers.
type ElementInfo struct {
	Index     int             `json:"index" yaml:"index"`
	Path      string          `json:"path" yaml:"path"`
	MimeType  string          `json:"mime_type,omitempty" yaml:"mime_type,omitempty"`
	Width     float64         `json:"width" yaml:"width"`
	Height    float64         `json:"height" yaml:"height"`
	Scale     float64         `json:"scale" yaml:"scale"`
	Crop      *frame.CropRect `json:"crop,omitempty" yaml:"crop,omitempty"`
	Dummy     bool            `json:"dummy,omitempty" yaml:"dummy,omitempty"`
	Landscape bool            `json:"landscape" yaml:"landscape"`
}

// FrameInfo is the geometry of a frame. It carries no page bytes.
type FrameInfo struct {
	Elements     []ElementInfo   `json:"elements" yaml:"elements"`
	Range        frame.Range     `json:"frame_range" yaml:"frame_range"`
	Position     frame.Position  `json:"position" yaml:"position"`
	Direction    frame.ReadOrder `json:"direction" yaml:"direction"`
	Size         frame.Size      `json:"size" yaml:"size"`
	Angle        float64         `json:"angle" yaml:"angle"`
	Scale        float64         `json:"scale" yaml:"scale"`
	VirtualIndex int             `json:"virtual_index" yaml:"virtual_index"`
	TotalVirtual int             `json:"total_virtual_pages" yaml:"total_virtual_pages"`
}

func newFrameInfo(f frame.Frame, b *frame.Builder) FrameInfo {
	info := FrameInfo{
		Range:        f.Range,
		Position:     f.Position(),
		Direction:    f.Direction,
		Size:         f.Size,
		Angle:        f.Angle,
		Scale:        f.Scale,
		TotalVirtual: b.TotalVirtualPages(),
	}
	info.VirtualIndex, _ = b.VirtualFromPosition(f.Position())
	for _, e := range f.DirectedElements() {
		info.Elements = append(info.Elements, ElementInfo{
			Index:     e.Index(),
			Path:      e.Page.Path,
			MimeType:  e.Page.MimeType,
			Width:     e.Width(),
			Height:    e.Height(),
			Scale:     e.Scale,
			Crop:      e.Crop,
			Dummy:     e.Dummy,
			Landscape: e.IsLandscape(),
		})
	}
	return info
}

// PageData is one page's bytes plus how they were obtained.
type PageData struct {
	Index    int    `json:"index" yaml:"index"`
	Size     int    `json:"size" yaml:"size"`
	MimeType string `json:"mime_type" yaml:"mime_type"`
	CacheHit bool   `json:"cache_hit" yaml:"cache_hit"`
	Data     []byte `json:"-" yaml:"-"`
}

// Stats summarizes the manager.
type Stats struct {
	Memory       memory.Stats     `json:"memory" yaml:"memory"`
	Jobs         jobs.EngineStats `json:"jobs" yaml:"jobs"`
	CurrentBook  string           `json:"current_book,omitempty" yaml:"current_book,omitempty"`
	CurrentIndex int              `json:"current_index" yaml:"current_index"`
	Position     frame.Position   `json:"position" yaml:"position"`
	Direction    int              `json:"direction" yaml:"direction"`
	TotalPages   int              `json:"total_pages" yaml:"total_pages"`
	CachedPages  []int            `json:"cached_pages" yaml:"cached_pages"`
	Preloading   []int            `json:"preloading" yaml:"preloading"`
}
