package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackzampolin/folio/internal/frame"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configFile, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return configFile
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.CacheBytes() != 512<<20 {
		t.Errorf("expected 512MiB, got %d", cfg.CacheBytes())
	}

	ctx, err := cfg.Layout.Context()
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if ctx != frame.DefaultContext() {
		t.Errorf("layout defaults drifted from frame defaults: %+v", ctx)
	}
}

func TestDefaultEntriesMatchDefaultConfig(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "\n"))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	if got, want := *mgr.Get(), *DefaultConfig(); got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestGetDefault(t *testing.T) {
	v, err := GetDefault("preload.forward")
	if err != nil || v != 5 {
		t.Errorf("expected 5, got %v (%v)", v, err)
	}
	if _, err := GetDefault("nope"); !errors.Is(err, ErrNoDefault) {
		t.Errorf("expected ErrNoDefault, got %v", err)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("loads from config file", func(t *testing.T) {
		mgr, err := NewManager(writeConfig(t, `
cache:
  max_mb: 64
layout:
  page_mode: double
  read_order: rtl
retry:
  delay: 250ms
`))
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}

		cfg := mgr.Get()
		if cfg.Cache.MaxMB != 64 {
			t.Errorf("expected 64, got %d", cfg.Cache.MaxMB)
		}
		if cfg.Retry.Delay != 250*time.Millisecond {
			t.Errorf("expected 250ms, got %s", cfg.Retry.Delay)
		}
		if cfg.Preload.Forward != 5 {
			t.Errorf("unset keys should keep defaults, got forward=%d", cfg.Preload.Forward)
		}
		ctx, err := cfg.Layout.Context()
		if err != nil {
			t.Fatal(err)
		}
		if ctx.PageMode != frame.DoublePage || ctx.ReadOrder != frame.RightToLeft {
			t.Errorf("layout = %+v", ctx)
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("FOLIO_CACHE_MAX_MB", "128")
		mgr, err := NewManager(writeConfig(t, "cache:\n  max_mb: 64\n"))
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}
		if got := mgr.Get().Cache.MaxMB; got != 128 {
			t.Errorf("expected 128, got %d", got)
		}
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		for _, content := range []string{
			"cache:\n  max_mb: 0\n",
			"layout:\n  page_mode: triple\n",
			"layout:\n  divide_page_rate: -1\n",
			"retry:\n  attempts: 50\n",
			"log:\n  level: loud\n",
		} {
			if _, err := NewManager(writeConfig(t, content)); err == nil {
				t.Errorf("expected error for %q", content)
			}
		}
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		if _, err := NewManager(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Error("expected error")
		}
	})
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# Folio configuration") {
		t.Error("missing header")
	}
	if !strings.Contains(string(data), "timeout: 30s") {
		t.Errorf("durations should be written readably:\n%s", data)
	}
	if strings.Index(string(data), "cache:") > strings.Index(string(data), "jobs:") {
		t.Error("sections out of order")
	}

	mgr, err := NewManager(path)
	if err != nil {
		t.Fatalf("failed to load written defaults: %v", err)
	}
	if got, want := *mgr.Get(), *DefaultConfig(); got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key     string
		wantErr bool
	}{
		{"cache.max_mb", false},
		{"layout.page_mode", false},
		{"", true},
		{".cache", true},
		{"cache.", true},
		{"cache max_mb", true},
		{"cache.unknown", true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateKey(%q) = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidKey) {
				t.Errorf("expected ErrInvalidKey, got %v", err)
			}
		})
	}
}

func TestManager_Set(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatal(err)
	}
	mgr, err := NewManager(path)
	if err != nil {
		t.Fatal(err)
	}

	var notified int
	mgr.OnChange(func(cfg *Config) { notified++ })

	if err := mgr.Set("cache.max_mb", "1024"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := mgr.Get().Cache.MaxMB; got != 1024 {
		t.Errorf("expected 1024, got %d", got)
	}
	if notified != 1 {
		t.Errorf("OnChange calls = %d, want 1", notified)
	}

	if err := mgr.Set("layout.page_mode", "triple"); err == nil {
		t.Error("expected validation error")
	}
	if got := mgr.Get().Layout.PageMode; got != "single" {
		t.Errorf("rejected value leaked: %s", got)
	}

	reloaded, err := NewManager(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := reloaded.Get().Cache.MaxMB; got != 1024 {
		t.Errorf("expected persisted 1024, got %d", got)
	}

	var found bool
	for _, e := range reloaded.Entries() {
		if e.Key == "cache.max_mb" {
			found = true
			if e.Description == "" {
				t.Error("missing description")
			}
		}
	}
	if !found {
		t.Error("cache.max_mb missing from entries")
	}
}

func TestManager_OnChange_Multiple(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "\n"))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})

	mgr.mu.RLock()
	if len(mgr.callbacks) != 3 {
		t.Errorf("expected 3 callbacks, got %d", len(mgr.callbacks))
	}
	mgr.mu.RUnlock()
}

func TestManager_Get_ThreadSafe(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "\n"))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				_ = mgr.Get().Cache.MaxMB
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestManager_WatchConfig(t *testing.T) {
	configFile := writeConfig(t, "cache:\n  max_mb: 64\n")
	mgr, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	var callbackCount atomic.Int32
	var lastValue atomic.Int64
	mgr.OnChange(func(cfg *Config) {
		callbackCount.Add(1)
		lastValue.Store(int64(cfg.Cache.MaxMB))
	})

	mgr.WatchConfig()
	// Give fsnotify time to set up the watcher
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(configFile, []byte("cache:\n  max_mb: 96\n"), 0o644); err != nil {
		t.Fatalf("failed to write updated config file: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	// an editor save can surface as several events; wait for the final one
	for time.Now().Before(deadline) && lastValue.Load() != 96 {
		time.Sleep(50 * time.Millisecond)
	}

	if callbackCount.Load() == 0 {
		t.Fatal("callback was not invoked after config file change")
	}
	if got := mgr.Get().Cache.MaxMB; got != 96 {
		t.Errorf("config not updated: expected 96, got %d", got)
	}
	if v := lastValue.Load(); v != 96 {
		t.Errorf("callback received wrong value: expected 96, got %d", v)
	}
}
