package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/config"
	"github.com/jackzampolin/folio/internal/content"
	"github.com/jackzampolin/folio/internal/frame"
	"github.com/jackzampolin/folio/internal/home"
	"github.com/jackzampolin/folio/internal/server/endpoints"
	"github.com/jackzampolin/folio/internal/testutil"
)

// startServer runs a server until the test ends.
func startServer(t *testing.T, cfg testutil.ServerConfig, cm *config.Manager) (*Server, *home.Dir) {
	t.Helper()
	h, err := home.New(cfg.HomeDir)
	if err != nil {
		t.Fatalf("home.New: %v", err)
	}
	srv, err := New(Config{
		Host:          cfg.Host,
		Port:          cfg.Port,
		ConfigManager: cm,
		Home:          h,
		Logger:        cfg.Logger,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Start(ctx)
	}()
	starter := &testutil.StartServer{Cancel: cancel, Done: done}
	t.Cleanup(starter.Stop)

	if err := testutil.WaitForServer(cfg.URL(), 10*time.Second); err != nil {
		t.Fatalf("server did not start: %v", err)
	}
	return srv, h
}

func TestServer_FullLifecycle(t *testing.T) {
	cfg := testutil.NewServerConfig(t)
	h, err := home.New(cfg.HomeDir)
	if err != nil {
		t.Fatal(err)
	}
	srv, err := New(Config{Host: cfg.Host, Port: cfg.Port, Home: h, Logger: cfg.Logger})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	serverCtx, serverCancel := context.WithCancel(ctx)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start(serverCtx)
	}()
	if err := testutil.WaitForServer(cfg.URL(), 10*time.Second); err != nil {
		serverCancel()
		t.Fatalf("server did not start: %v", err)
	}

	client := api.NewClient(cfg.URL())
	book := testutil.DirBook(t, testutil.Portrait(12))

	t.Run("is_running", func(t *testing.T) {
		if !srv.IsRunning() {
			t.Error("IsRunning() = false, want true")
		}
		if srv.Runtime() == nil {
			t.Error("Runtime() = nil after start")
		}
	})

	t.Run("open_and_read", func(t *testing.T) {
		var opened endpoints.OpenBookResponse
		if err := client.Post(ctx, "/api/book/open", endpoints.OpenBookRequest{Path: book}, &opened); err != nil {
			t.Fatalf("open: %v", err)
		}
		if opened.Book.TotalPages != 12 {
			t.Errorf("total pages = %d", opened.Book.TotalPages)
		}
		// natural order puts page10 after page9
		if got := opened.Book.PagePaths[9]; got != testutil.PageName(9) {
			t.Errorf("page 9 = %q", got)
		}

		var info content.FrameInfo
		if err := client.Post(ctx, "/api/goto", endpoints.GotoRequest{Index: 4}, &info); err != nil {
			t.Fatalf("goto: %v", err)
		}
		data, ct, err := client.GetBytes(ctx, "/api/pages/4/image")
		if err != nil {
			t.Fatalf("page bytes: %v", err)
		}
		if ct != "image/png" || len(data) == 0 {
			t.Errorf("page = %d bytes of %q", len(data), ct)
		}
	})

	t.Run("server_errors", func(t *testing.T) {
		err := client.Post(ctx, "/api/goto", endpoints.GotoRequest{Index: 99}, nil)
		var se *api.ServerError
		if !errors.As(err, &se) || se.Status != http.StatusNotFound || se.Code != "NOT_FOUND" {
			t.Errorf("err = %v", err)
		}
	})

	serverCancel()
	if err := testutil.WaitForShutdown(serverErr, 30*time.Second); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown")
	}

	st, err := content.NewStateStore(h.LastStatePath()).Load()
	if err != nil {
		t.Fatalf("state not saved on shutdown: %v", err)
	}
	if st.Path != book || st.Position.Index != 4 {
		t.Errorf("saved state = %+v", st)
	}
}

func TestServer_AlreadyRunning(t *testing.T) {
	cfg := testutil.NewServerConfig(t)
	srv, _ := startServer(t, cfg, nil)
	if err := srv.Start(context.Background()); err == nil {
		t.Error("second Start() should return error")
	}
}

func TestServer_RequiresInit(t *testing.T) {
	srv, err := New(Config{Port: "0"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/stats", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("stats before start = %d, want 503", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health before start = %d, want 200", rec.Code)
	}
}

func TestServer_ConfigReload(t *testing.T) {
	cfg := testutil.NewServerConfig(t)
	cm, err := config.NewManager(writeConfig(t))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	srv, _ := startServer(t, cfg, cm)
	rt := srv.Runtime()

	if err := cm.Set("cache.max_mb", "32"); err != nil {
		t.Fatalf("Set cache: %v", err)
	}
	if got := rt.Pool.Stats().MaxSize; got != 32<<20 {
		t.Errorf("pool max = %d, want %d", got, 32<<20)
	}

	// a context set over the API survives unrelated config edits
	order := frame.RightToLeft
	if _, err := rt.Content.UpdateContext(frame.ContextPatch{ReadOrder: &order}); err != nil {
		t.Fatal(err)
	}
	if err := cm.Set("thumbnail.max_edge", "128"); err != nil {
		t.Fatalf("Set thumbnail: %v", err)
	}
	if rt.Content.Context().ReadOrder != frame.RightToLeft {
		t.Error("unrelated config change reset the layout")
	}

	if err := cm.Set("layout.page_mode", "double"); err != nil {
		t.Fatalf("Set layout: %v", err)
	}
	if rt.Content.Context().PageMode != frame.DoublePage {
		t.Errorf("page mode = %v after reload", rt.Content.Context().PageMode)
	}
}

func TestNewRuntime(t *testing.T) {
	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	rt, err := NewRuntime(nil, h, nil)
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	if rt.State == nil || rt.State.Path() != h.LastStatePath() {
		t.Errorf("state store = %+v", rt.State)
	}
	if rt.Pool.Stats().MaxSize != config.DefaultConfig().CacheBytes() {
		t.Errorf("pool max = %d", rt.Pool.Stats().MaxSize)
	}

	bad := config.DefaultConfig()
	bad.Layout.PageMode = "triple"
	if _, err := NewRuntime(bad, h, nil); err == nil {
		t.Error("expected error for invalid layout")
	}

	off := config.DefaultConfig()
	off.State.Enabled = false
	rt, err = NewRuntime(off, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if rt.State != nil {
		t.Error("state store built with persistence disabled")
	}
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := t.TempDir() + "/config.yaml"
	if err := config.WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}
	return path
}
