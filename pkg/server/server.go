// Package server exposes the trace pipeline over HTTP.
//
// Uploaded traces are kept in a [cache.Cache] under [cache.Keyer.TraceKey]
// and expire after [cache.TraceTTL]. Every other endpoint reads a stored
// trace and answers from the pipeline, so a shared Redis backend lets
// several server instances serve the same uploads.
//
// # Routes
//
//	GET  /healthz
//	POST /api/traces
//	GET  /api/traces/{id}
//	GET  /api/traces/{id}/timeline?width=&from=&to=
//	GET  /api/traces/{id}/seek?px=&width=&from=&to=
//	GET  /api/traces/{id}/entries/{index}/rects?onlyVisible=&format=
//	GET  /api/traces/{id}/entries/{index}/hit?x=&y=&onlyVisible=
//	GET  /api/traces/{id}/entries/{index}/hierarchy?format=&detailed=&onlyVisible=
//
// Errors are JSON objects of the form {"code": "...", "message": "..."}.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/winscope/pkg/cache"
	"github.com/matzehuels/winscope/pkg/pipeline"
)

// DefaultMaxUploadBytes bounds the size of an uploaded trace.
const DefaultMaxUploadBytes = 64 << 20

// Config configures a [Server].
type Config struct {
	// Store holds uploaded traces. Defaults to an in-memory cache.
	Store cache.Cache

	// Keyer names stored traces. Defaults to the runner's keyer.
	Keyer cache.Keyer

	// MaxUploadBytes bounds POST /api/traces bodies.
	MaxUploadBytes int64

	Logger *log.Logger
}

// Server serves the HTTP API.
type Server struct {
	runner    *pipeline.Runner
	store     cache.Cache
	keyer     cache.Keyer
	maxUpload int64
	logger    *log.Logger
	router    chi.Router
}

// New creates a server that renders through runner.
func New(runner *pipeline.Runner, cfg Config) *Server {
	if cfg.Store == nil {
		cfg.Store = cache.NewMemoryCache()
	}
	if cfg.Keyer == nil {
		cfg.Keyer = runner.Keyer
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.Logger == nil {
		cfg.Logger = runner.Logger
	}

	s := &Server{
		runner:    runner,
		store:     cfg.Store,
		keyer:     cfg.Keyer,
		maxUpload: cfg.MaxUploadBytes,
		logger:    cfg.Logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/traces", func(r chi.Router) {
		r.Post("/", s.handleUpload)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleTrace)
			r.Get("/timeline", s.handleTimeline)
			r.Get("/seek", s.handleSeek)
			r.Get("/entries/{index}/rects", s.handleRects)
			r.Get("/entries/{index}/hit", s.handleHit)
			r.Get("/entries/{index}/hierarchy", s.handleHierarchy)
		})
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down,
// giving in-flight requests a few seconds to finish.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
