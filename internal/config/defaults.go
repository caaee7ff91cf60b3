package config

import (
	"errors"
	"time"
)

// ErrNoDefault is returned when no default value exists for a config key.
var ErrNoDefault = errors.New("no default exists")

// Entry is one configuration key with its default and what it controls.
type Entry struct {
	Key         string `json:"key" yaml:"key"`
	Value       any    `json:"value" yaml:"value"`
	Description string `json:"description" yaml:"description"`
}

// DefaultEntries returns every configuration key in file order.
// These seed viper and are what `config init` writes.
func DefaultEntries() []Entry {
	return []Entry{
		// Cache
		{Key: "cache.max_mb", Value: 512, Description: "Page cache budget in MiB"},

		// Jobs
		{Key: "jobs.primary_workers", Value: 2, Description: "Workers reserved for thumbnail priority and above"},
		{Key: "jobs.secondary_workers", Value: 2, Description: "Workers that also serve background maintenance"},
		{Key: "jobs.timeout", Value: 30 * time.Second, Description: "Upper bound on a single page load"},

		// Preload
		{Key: "preload.forward", Value: 5, Description: "Pages preloaded ahead in reading direction"},
		{Key: "preload.backward", Value: 2, Description: "Pages preloaded behind"},
		{Key: "preload.interval", Value: 50 * time.Millisecond, Description: "Minimum spacing of preload refreshes while flipping"},
		{Key: "preload.burst", Value: 4, Description: "Preload refreshes allowed back to back"},

		// Retry
		{Key: "retry.attempts", Value: 3, Description: "Retries of a timed out load"},
		{Key: "retry.delay", Value: 100 * time.Millisecond, Description: "First retry delay, doubled each attempt"},

		// Thumbnails
		{Key: "thumbnail.max_edge", Value: 256, Description: "Longest thumbnail edge in pixels"},

		// Layout
		{Key: "layout.page_mode", Value: "single", Description: "single or double"},
		{Key: "layout.read_order", Value: "ltr", Description: "ltr or rtl"},
		{Key: "layout.divide_page", Value: false, Description: "Split landscape pages in single page mode"},
		{Key: "layout.wide_page", Value: true, Description: "Show landscape pages alone in double page mode"},
		{Key: "layout.single_first", Value: true, Description: "Show the first page alone in double page mode"},
		{Key: "layout.single_last", Value: false, Description: "Show the last page alone in double page mode"},
		{Key: "layout.divide_page_rate", Value: 1.0, Description: "Aspect ratio above which a page is split"},
		{Key: "layout.auto_rotate", Value: "none", Description: "none, left, right or auto"},
		{Key: "layout.stretch_mode", Value: "uniform", Description: "How frames fit the canvas"},
		{Key: "layout.wide_page_stretch", Value: "uniform_height", Description: "How spread pages are matched"},
		{Key: "layout.canvas_width", Value: 0.0, Description: "Canvas width; 0 leaves frames at native size"},
		{Key: "layout.canvas_height", Value: 0.0, Description: "Canvas height; 0 leaves frames at native size"},

		// Books
		{Key: "books.watch", Value: true, Description: "Reload directory books when files change"},
		{Key: "books.scan_concurrency", Value: 0, Description: "Parallel dimension probes; 0 uses every CPU"},

		// Server
		{Key: "server.addr", Value: ":8484", Description: "HTTP listen address"},

		// State
		{Key: "state.enabled", Value: true, Description: "Save the reading position when a book closes"},

		// Logging
		{Key: "log.level", Value: "info", Description: "debug, info, warn or error"},
	}
}

// GetDefault returns the default value for key.
func GetDefault(key string) (any, error) {
	for _, e := range DefaultEntries() {
		if e.Key == key {
			return e.Value, nil
		}
	}
	return nil, ErrNoDefault
}

// DefaultConfig returns configuration with every default applied.
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheCfg{MaxMB: 512},
		Jobs: JobsCfg{
			PrimaryWorkers:   2,
			SecondaryWorkers: 2,
			Timeout:          30 * time.Second,
		},
		Preload: PreloadCfg{
			Forward:  5,
			Backward: 2,
			Interval: 50 * time.Millisecond,
			Burst:    4,
		},
		Retry:     RetryCfg{Attempts: 3, Delay: 100 * time.Millisecond},
		Thumbnail: ThumbnailCfg{MaxEdge: 256},
		Layout: LayoutCfg{
			PageMode:        "single",
			ReadOrder:       "ltr",
			WidePage:        true,
			SingleFirst:     true,
			DividePageRate:  1.0,
			AutoRotate:      "none",
			StretchMode:     "uniform",
			WidePageStretch: "uniform_height",
		},
		Books:  BooksCfg{Watch: true},
		Server: ServerCfg{Addr: ":8484"},
		State:  StateCfg{Enabled: true},
		Log:    LogCfg{Level: "info"},
	}
}
