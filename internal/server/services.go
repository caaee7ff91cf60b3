package server

import (
	"fmt"
	"log/slog"

	"github.com/jackzampolin/folio/internal/config"
	"github.com/jackzampolin/folio/internal/content"
	"github.com/jackzampolin/folio/internal/home"
	"github.com/jackzampolin/folio/internal/jobs"
	"github.com/jackzampolin/folio/internal/memory"
)

// Runtime is the page loading stack built from one configuration.
// Call Engine.Start before use.
type Runtime struct {
	Engine  *jobs.Engine
	Pool    *memory.Pool
	Content *content.Manager
	// State is nil when state persistence is disabled or there is no home.
	State *content.StateStore
}

// NewRuntime wires the job engine, memory pool and content manager
// according to cfg. h may be nil.
func NewRuntime(cfg *config.Config, h *home.Dir, logger *slog.Logger) (*Runtime, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	layout, err := cfg.Layout.Context()
	if err != nil {
		return nil, fmt.Errorf("invalid layout config: %w", err)
	}

	engine := jobs.NewEngine(jobs.Config{
		Logger:           logger,
		PrimaryWorkers:   cfg.Jobs.PrimaryWorkers,
		SecondaryWorkers: cfg.Jobs.SecondaryWorkers,
		JobTimeout:       cfg.Jobs.Timeout,
	})
	pool := memory.New(memory.Config{
		MaxSize: cfg.CacheBytes(),
		Logger:  logger,
	})

	var state *content.StateStore
	if cfg.State.Enabled && h != nil {
		state = content.NewStateStore(h.LastStatePath())
	}

	mgr := content.New(engine, pool, content.Config{
		Logger:          logger,
		Context:         &layout,
		PreloadAhead:    cfg.Preload.Forward,
		PreloadBehind:   cfg.Preload.Backward,
		PreloadInterval: cfg.Preload.Interval,
		PreloadBurst:    cfg.Preload.Burst,
		RetryAttempts:   cfg.Retry.Attempts,
		RetryDelay:      cfg.Retry.Delay,
		ScanConcurrency: cfg.Books.ScanConcurrency,
		ThumbnailEdge:   cfg.Thumbnail.MaxEdge,
		Watch:           cfg.Books.Watch,
		State:           state,
	})

	return &Runtime{Engine: engine, Pool: pool, Content: mgr, State: state}, nil
}
