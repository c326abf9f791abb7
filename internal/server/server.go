// Package server exposes the scene pipeline as an HTTP API.
//
// Routes:
//
//	GET  /healthz      liveness and build information
//	POST /v1/resolve   resolve the scene in the request body
//
// The resolve body is a TOML or JSON scene. The Content-Type header picks
// the format (application/toml, application/json); anything else is
// detected from the document. Query parameters width, height, rem, format,
// measure, wrap, labels, hidden, detailed and refresh mirror the CLI flags.
// Every response carries an X-Request-ID header.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/anchorlay/pkg/pipeline"
)

const (
	// DefaultMaxBodyBytes caps the size of a scene document.
	DefaultMaxBodyBytes = 4 << 20

	// DefaultRequestTimeout bounds a single resolve request.
	DefaultRequestTimeout = 30 * time.Second

	shutdownTimeout = 10 * time.Second
)

// Config configures a Server.
type Config struct {
	// MaxBodyBytes caps request bodies. Zero selects DefaultMaxBodyBytes.
	MaxBodyBytes int64
	// RequestTimeout bounds each request. Zero selects DefaultRequestTimeout.
	RequestTimeout time.Duration
	// CacheBackend names the runner's cache in health responses.
	CacheBackend string
}

// Server serves the HTTP API. It is safe for concurrent use; the runner
// serializes passes internally.
type Server struct {
	runner  *pipeline.Runner
	logger  *log.Logger
	config  Config
	started time.Time
	router  chi.Router
}

// New creates a server that resolves requests with runner.
func New(runner *pipeline.Runner, logger *log.Logger, cfg Config) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = "none"
	}
	s := &Server{
		runner:  runner,
		logger:  logger,
		config:  cfg,
		started: time.Now(),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)
	r.Use(middleware.CleanPath)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/resolve", s.handleResolve)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", r.Method+" is not allowed on "+r.URL.Path)
	})
	return r
}

// Handler returns the HTTP handler of the API.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
