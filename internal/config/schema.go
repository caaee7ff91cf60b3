package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jackzampolin/folio/internal/frame"
)

// Config holds folio configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Cache     CacheCfg     `mapstructure:"cache" yaml:"cache" json:"cache"`
	Jobs      JobsCfg      `mapstructure:"jobs" yaml:"jobs" json:"jobs"`
	Preload   PreloadCfg   `mapstructure:"preload" yaml:"preload" json:"preload"`
	Retry     RetryCfg     `mapstructure:"retry" yaml:"retry" json:"retry"`
	Thumbnail ThumbnailCfg `mapstructure:"thumbnail" yaml:"thumbnail" json:"thumbnail"`
	Layout    LayoutCfg    `mapstructure:"layout" yaml:"layout" json:"layout"`
	Books     BooksCfg     `mapstructure:"books" yaml:"books" json:"books"`
	Server    ServerCfg    `mapstructure:"server" yaml:"server" json:"server"`
	State     StateCfg     `mapstructure:"state" yaml:"state" json:"state"`
	Log       LogCfg       `mapstructure:"log" yaml:"log" json:"log"`
}

// CacheCfg sizes the page cache.
type CacheCfg struct {
	MaxMB int `mapstructure:"max_mb" yaml:"max_mb" json:"max_mb"`
}

// JobsCfg sizes the job engine.
type JobsCfg struct {
	PrimaryWorkers   int           `mapstructure:"primary_workers" yaml:"primary_workers" json:"primary_workers"`
	SecondaryWorkers int           `mapstructure:"secondary_workers" yaml:"secondary_workers" json:"secondary_workers"`
	Timeout          time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
}

// PreloadCfg shapes the preload window.
type PreloadCfg struct {
	Forward  int           `mapstructure:"forward" yaml:"forward" json:"forward"`
	Backward int           `mapstructure:"backward" yaml:"backward" json:"backward"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval" json:"interval"`
	Burst    int           `mapstructure:"burst" yaml:"burst" json:"burst"`
}

// RetryCfg controls retries of timed out loads.
type RetryCfg struct {
	Attempts int           `mapstructure:"attempts" yaml:"attempts" json:"attempts"`
	Delay    time.Duration `mapstructure:"delay" yaml:"delay" json:"delay"`
}

// ThumbnailCfg sizes thumbnails.
type ThumbnailCfg struct {
	MaxEdge int `mapstructure:"max_edge" yaml:"max_edge" json:"max_edge"`
}

// LayoutCfg is the default page layout. Enum fields use the names the
// HTTP API accepts.
type LayoutCfg struct {
	PageMode        string  `mapstructure:"page_mode" yaml:"page_mode" json:"page_mode"`
	ReadOrder       string  `mapstructure:"read_order" yaml:"read_order" json:"read_order"`
	DividePage      bool    `mapstructure:"divide_page" yaml:"divide_page" json:"divide_page"`
	WidePage        bool    `mapstructure:"wide_page" yaml:"wide_page" json:"wide_page"`
	SingleFirst     bool    `mapstructure:"single_first" yaml:"single_first" json:"single_first"`
	SingleLast      bool    `mapstructure:"single_last" yaml:"single_last" json:"single_last"`
	DividePageRate  float64 `mapstructure:"divide_page_rate" yaml:"divide_page_rate" json:"divide_page_rate"`
	AutoRotate      string  `mapstructure:"auto_rotate" yaml:"auto_rotate" json:"auto_rotate"`
	StretchMode     string  `mapstructure:"stretch_mode" yaml:"stretch_mode" json:"stretch_mode"`
	WidePageStretch string  `mapstructure:"wide_page_stretch" yaml:"wide_page_stretch" json:"wide_page_stretch"`
	CanvasWidth     float64 `mapstructure:"canvas_width" yaml:"canvas_width" json:"canvas_width"`
	CanvasHeight    float64 `mapstructure:"canvas_height" yaml:"canvas_height" json:"canvas_height"`
}

// BooksCfg controls how books are opened.
type BooksCfg struct {
	// Watch reloads directory books when files are added or removed.
	Watch           bool `mapstructure:"watch" yaml:"watch" json:"watch"`
	ScanConcurrency int  `mapstructure:"scan_concurrency" yaml:"scan_concurrency" json:"scan_concurrency"`
}

// ServerCfg configures the HTTP server.
type ServerCfg struct {
	Addr string `mapstructure:"addr" yaml:"addr" json:"addr"`
}

// StateCfg controls reading state persistence.
type StateCfg struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
}

// LogCfg configures logging.
type LogCfg struct {
	Level string `mapstructure:"level" yaml:"level" json:"level"`
}

// CacheBytes is the cache budget in bytes.
func (c *Config) CacheBytes() int64 {
	return int64(c.Cache.MaxMB) << 20
}

// Context converts the layout section into a frame context.
func (l LayoutCfg) Context() (frame.Context, error) {
	ctx := frame.Context{
		DividePage:     l.DividePage,
		WidePage:       l.WidePage,
		SingleFirst:    l.SingleFirst,
		SingleLast:     l.SingleLast,
		DividePageRate: l.DividePageRate,
		CanvasSize:     frame.Size{Width: l.CanvasWidth, Height: l.CanvasHeight},
	}
	var err error
	if ctx.PageMode, err = frame.ParsePageMode(l.PageMode); err != nil {
		return frame.Context{}, err
	}
	if ctx.ReadOrder, err = frame.ParseReadOrder(l.ReadOrder); err != nil {
		return frame.Context{}, err
	}
	if ctx.AutoRotate, err = frame.ParseAutoRotate(l.AutoRotate); err != nil {
		return frame.Context{}, err
	}
	if ctx.StretchMode, err = frame.ParseStretchMode(l.StretchMode); err != nil {
		return frame.Context{}, err
	}
	if ctx.WidePageStretch, err = frame.ParseWidePageStretch(l.WidePageStretch); err != nil {
		return frame.Context{}, err
	}
	return ctx, ctx.Validate()
}

// configSchema bounds every setting. Durations are nanoseconds here.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "cache": {"type": "object", "properties": {
      "max_mb": {"type": "integer", "minimum": 1}
    }},
    "jobs": {"type": "object", "properties": {
      "primary_workers": {"type": "integer", "minimum": 1, "maximum": 64},
      "secondary_workers": {"type": "integer", "minimum": 0, "maximum": 64},
      "timeout": {"type": "integer", "minimum": 1000000}
    }},
    "preload": {"type": "object", "properties": {
      "forward": {"type": "integer", "minimum": 0, "maximum": 64},
      "backward": {"type": "integer", "minimum": 0, "maximum": 64},
      "interval": {"type": "integer", "minimum": 0},
      "burst": {"type": "integer", "minimum": 1}
    }},
    "retry": {"type": "object", "properties": {
      "attempts": {"type": "integer", "minimum": 0, "maximum": 10},
      "delay": {"type": "integer", "minimum": 0}
    }},
    "thumbnail": {"type": "object", "properties": {
      "max_edge": {"type": "integer", "minimum": 16, "maximum": 4096}
    }},
    "layout": {"type": "object", "properties": {
      "page_mode": {"enum": ["single", "double"]},
      "read_order": {"enum": ["ltr", "rtl"]},
      "divide_page_rate": {"type": "number", "exclusiveMinimum": 0},
      "auto_rotate": {"enum": ["none", "left", "right", "auto"]},
      "stretch_mode": {"enum": ["none", "uniform", "uniform_to_fill", "uniform_to_vertical", "uniform_to_horizontal", "fill"]},
      "wide_page_stretch": {"enum": ["none", "uniform_height", "uniform_width"]},
      "canvas_width": {"type": "number", "minimum": 0},
      "canvas_height": {"type": "number", "minimum": 0}
    }},
    "books": {"type": "object", "properties": {
      "scan_concurrency": {"type": "integer", "minimum": 0}
    }},
    "server": {"type": "object", "properties": {
      "addr": {"type": "string", "minLength": 1}
    }},
    "log": {"type": "object", "properties": {
      "level": {"enum": ["debug", "info", "warn", "error"]}
    }}
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("config.json", strings.NewReader(configSchema)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile("config.json")
	})
	return schema, schemaErr
}

// Validate checks c against the config schema.
func (c *Config) Validate() error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("config schema: %w", err)
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Layout.Context(); err != nil {
		return fmt.Errorf("invalid layout: %w", err)
	}
	return nil
}
