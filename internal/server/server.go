package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"reflect"
	"sync"
	"time"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/config"
	"github.com/jackzampolin/folio/internal/home"
	"github.com/jackzampolin/folio/internal/server/endpoints"
	"github.com/jackzampolin/folio/internal/svcctx"
)

// Server is the main Folio HTTP server. It owns the page loading runtime:
// the job engine starts with the server and is drained on shutdown, and
// the open book's reading position is saved on the way out.
type Server struct {
	httpServer *http.Server
	configMgr  *config.Manager
	home       *home.Dir
	logger     *slog.Logger

	// runtime is nil until Start has built it
	runtime *Runtime
	layout  config.LayoutCfg

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	baseCtx    context.Context
	cancelBase context.CancelFunc

	mu       sync.RWMutex
	running  bool
	listener net.Listener
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to. Empty uses server.addr from config.
	Host string
	// Port is the port to listen on. Empty uses server.addr from config;
	// "0" picks a free port.
	Port string
	// ConfigManager provides configuration with hot-reload support.
	// Nil runs on defaults.
	ConfigManager *config.Manager
	// Home is the folio home directory, used for saved state.
	Home *home.Dir
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	current := config.DefaultConfig()
	if cfg.ConfigManager != nil {
		current = cfg.ConfigManager.Get()
	}
	host, port, err := net.SplitHostPort(current.Server.Addr)
	if err != nil {
		return nil, fmt.Errorf("invalid server.addr %q: %w", current.Server.Addr, err)
	}
	if cfg.Host != "" {
		host = cfg.Host
	}
	if cfg.Port != "" {
		port = cfg.Port
	}
	if host == "" {
		host = "127.0.0.1"
	}

	s := &Server{
		configMgr: cfg.ConfigManager,
		home:      cfg.Home,
		logger:    cfg.Logger,
	}
	s.baseCtx, s.cancelBase = context.WithCancel(context.Background())

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	s.endpointRegistry.Register(endpoints.All(endpoints.Config{
		ThumbnailEdge: current.Thumbnail.MaxEdge,
		Host:          net.JoinHostPort(host, port),
	})...)

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:        net.JoinHostPort(host, port),
		Handler:     s.withServices(mux),
		BaseContext: func(net.Listener) context.Context { return s.baseCtx },
		ReadTimeout: 30 * time.Second,
		// page loads answer well inside this; the event stream lifts it
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start builds the runtime and serves HTTP.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	current := config.DefaultConfig()
	if s.configMgr != nil {
		current = s.configMgr.Get()
	}
	rt, err := NewRuntime(current, s.home, s.logger)
	if err != nil {
		s.setNotRunning()
		return err
	}
	rt.Engine.Start(context.Background())

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		s.stopRuntime(rt)
		s.setNotRunning()
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}

	s.mu.Lock()
	s.runtime = rt
	s.layout = current.Layout
	s.listener = ln
	s.services = &svcctx.Services{
		Content:   rt.Content,
		Engine:    rt.Engine,
		ConfigMgr: s.configMgr,
		Logger:    s.logger,
		Home:      s.home,
	}
	s.mu.Unlock()

	if s.configMgr != nil {
		s.configMgr.OnChange(s.applyConfig)
	}

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// applyConfig pushes a reloaded config into the running runtime. The
// layout is only replaced when the layout section itself changed, so a
// context set over the API survives unrelated edits.
func (s *Server) applyConfig(c *config.Config) {
	s.mu.Lock()
	rt := s.runtime
	layoutChanged := !reflect.DeepEqual(s.layout, c.Layout)
	s.layout = c.Layout
	s.mu.Unlock()
	if rt == nil {
		return
	}

	rt.Content.SetCacheSize(c.CacheBytes())
	if layoutChanged {
		next, err := c.Layout.Context()
		if err != nil {
			s.logger.Warn("ignoring layout change", "error", err)
			return
		}
		if _, err := rt.Content.SetContext(next); err != nil {
			s.logger.Warn("failed to apply layout change", "error", err)
			return
		}
		s.logger.Info("layout reloaded from config")
	}
}

// shutdown stops HTTP first, then saves state and drains the job engine.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// ends event streams so Shutdown does not wait on them
	s.cancelBase()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.mu.RLock()
	rt := s.runtime
	s.mu.RUnlock()
	if rt != nil {
		s.stopRuntime(rt)
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) stopRuntime(rt *Runtime) {
	// Close saves the reading position
	rt.Content.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rt.Engine.Shutdown(ctx); err != nil {
		s.logger.Error("job engine shutdown error", "error", err)
	}
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Runtime returns the page loading runtime.
// Returns nil if the server hasn't started yet.
func (s *Server) Runtime() *Runtime {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runtime
}

// Addr returns the server's listen address. Once started it is the
// bound address, which matters when port 0 was requested.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// Handler returns the server's HTTP handler, for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		services := s.services
		s.mu.RUnlock()

		ctx := r.Context()
		if services != nil {
			ctx = svcctx.WithServices(ctx, services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable until the runtime is up.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svcctx.ContentFrom(r.Context()) == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
