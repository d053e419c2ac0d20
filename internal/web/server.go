// Package web provides the HTTP server and web UI for EmoLyrics.
package web

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"

	"github.com/justestif/emolyrics/internal/analysis"
	"github.com/justestif/emolyrics/internal/blocks"
	"github.com/justestif/emolyrics/internal/metrics"
)

// DefaultAddr is the default server address.
const DefaultAddr = "127.0.0.1:8080"

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr        string
	TemplatesFS fs.FS
	StaticFS    fs.FS

	Blocks   *blocks.Store
	Analysis *analysis.Service
	Metrics  *metrics.Manager
	Logger   *slog.Logger
	Clock    clockwork.Clock

	SessionTTL    time.Duration
	AnalyzeRate   float64
	AnalyzeBurst  int
	CompareGroups int
}

// Server is the HTTP server for the web application.
type Server struct {
	router    chi.Router
	server    *http.Server
	templates *Templates
	sessions  *SessionStore
	handlers  *Handlers
	metrics   *metrics.Manager
	logger    *slog.Logger
	clock     clockwork.Clock
}

// NewServer creates a new web server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Analysis == nil {
		return nil, errors.New("analysis service is required")
	}
	if cfg.Blocks == nil {
		return nil, errors.New("block store is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewManager()
	}

	// Create template manager
	templates, err := NewTemplates(cfg.TemplatesFS)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	// Create session store
	sessions := NewSessionStore(
		WithSessionTTL(cfg.SessionTTL),
		WithAnalyzeLimit(cfg.AnalyzeRate, cfg.AnalyzeBurst),
		WithSessionClock(cfg.Clock),
	)

	// Create handlers
	handlers := NewHandlers(sessions, templates, cfg.Blocks, cfg.Analysis, cfg.Metrics, cfg.Logger, cfg.CompareGroups)

	// Create router
	router := chi.NewRouter()

	s := &Server{
		router:    router,
		templates: templates,
		sessions:  sessions,
		handlers:  handlers,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		clock:     cfg.Clock,
	}

	// Configure middleware
	s.setupMiddleware()

	// Configure routes
	s.setupRoutes(cfg.StaticFS)

	// WriteTimeout is left unset: analysis streams outlive any fixed
	// deadline and set their own per message.
	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(cfg.Logger.Handler(), slog.LevelError),
	}

	return s, nil
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(observe(s.logger, s.metrics, s.clock))
	s.router.Use(middleware.Recoverer)
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes(staticFS fs.FS) {
	// Websockets must not pass through the compressor.
	s.router.Get("/ws/analyze", s.handlers.AnalyzeStream)
	s.router.Get("/healthz", s.handlers.Healthz)
	s.router.Handle("/metrics", s.metrics.Handler())

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Compress(5))

		// Static files
		if staticFS != nil {
			fileServer := http.FileServer(http.FS(staticFS))
			r.Handle("/static/*", http.StripPrefix("/static/", fileServer))
		}

		// Pages
		r.Get("/", s.handlers.Home)
		r.Post("/analyze", s.handlers.Analyze)
		r.Post("/versions", s.handlers.SaveVersion)
		r.Get("/compare", s.handlers.Compare)

		// JSON views
		r.Get("/api/versions", s.handlers.APIVersions)
		r.Get("/api/compare", s.handlers.APICompare)
	})
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server", "url", "http://"+s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt signals.
func (s *Server) Run() error {
	// Channel to receive shutdown signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Drop expired browser sessions in the background
	pruneCtx, stopPrune := context.WithCancel(context.Background())
	defer stopPrune()
	go s.pruneSessions(pruneCtx, time.Hour)

	// Wait for interrupt or error
	select {
	case err := <-errCh:
		return err
	case <-stop:
		s.logger.Info("shutting down server")
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// pruneSessions removes expired sessions every interval until ctx is done.
func (s *Server) pruneSessions(ctx context.Context, interval time.Duration) {
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if n := s.sessions.Prune(); n > 0 {
				s.logger.Debug("pruned expired sessions", "count", n)
			}
		}
	}
}
