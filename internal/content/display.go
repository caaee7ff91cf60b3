package content

import (
	"context"
	"slices"

	"golang.org/x/sync/errgroup"
)

// FrameData is a frame with the bytes of every non-dummy element.
type FrameData struct {
	Frame FrameInfo  `json:"frame" yaml:"frame"`
	Pages []PageData `json:"pages" yaml:"pages"`
}

// CurrentFrame rebuilds the frame at the current position without
// moving the reader or touching the cache.
func (m *Manager) CurrentFrame() (FrameInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.book == nil {
		return FrameInfo{}, ErrNoBook
	}
	f, err := m.builder.BuildFrame(m.position)
	if err != nil {
		return FrameInfo{}, err
	}
	return newFrameInfo(f, m.builder), nil
}

// LoadFrame waits for every page of the current frame in parallel. The
// first failure cancels the remaining waits.
func (m *Manager) LoadFrame(ctx context.Context) (FrameData, error) {
	info, err := m.CurrentFrame()
	if err != nil {
		return FrameData{}, err
	}

	var indices []int
	for _, e := range info.Elements {
		if !e.Dummy && !slices.Contains(indices, e.Index) {
			indices = append(indices, e.Index)
		}
	}

	pages := make([]PageData, len(indices))
	g, gctx := errgroup.WithContext(ctx)
	for i, index := range indices {
		g.Go(func() error {
			d, err := m.GetPageData(gctx, index)
			if err != nil {
				return err
			}
			pages[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return FrameData{}, err
	}
	return FrameData{Frame: info, Pages: pages}, nil
}
