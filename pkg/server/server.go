// Package server exposes stored family trees and the layout pipeline over
// HTTP.
//
// # Routes
//
//	GET    /healthz
//	GET    /api/v1/metrics
//	POST   /api/v1/layout                        layout of an inline tree
//	GET    /api/v1/trees                         stored tree summaries
//	POST   /api/v1/trees                         store a new tree (201)
//	GET    /api/v1/trees/{treeID}
//	PUT    /api/v1/trees/{treeID}
//	DELETE /api/v1/trees/{treeID}
//	GET    /api/v1/trees/{treeID}/layout?root=
//	GET    /api/v1/trees/{treeID}/render/{format}?type=&root=&style=&scale=&detailed=
//
// Failures are written as {"code": "...", "message": "..."} with the status
// given by [errors.HTTPStatus].
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/lineage/pkg/observability"
	"github.com/matzehuels/lineage/pkg/pipeline"
	"github.com/matzehuels/lineage/pkg/store"
)

// Defaults for [Config].
const (
	DefaultAddr           = ":8080"
	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxBodyBytes   = 10 << 20

	shutdownTimeout = 10 * time.Second
)

// Config holds listener settings.
type Config struct {
	Addr           string
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
}

// Server serves the API. It implements [http.Handler].
type Server struct {
	store    store.Store
	runner   *pipeline.Runner
	logger   *log.Logger
	counters *observability.Counters
	cfg      Config
	router   chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithConfig sets listener settings. Zero fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(s *Server) { s.cfg = cfg }
}

// WithCounters enables GET /api/v1/metrics, which reports c's snapshot.
// Registering c as hooks is the caller's job.
func WithCounters(c *observability.Counters) Option {
	return func(s *Server) { s.counters = c }
}

// New returns a server backed by st and runner.
func New(st store.Store, runner *pipeline.Runner, opts ...Option) *Server {
	s := &Server{
		store:  st,
		runner: runner,
		logger: log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cfg.setDefaults()
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, notFoundRoute(r))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Code: "METHOD_NOT_ALLOWED", Message: r.Method + " not allowed"})
	})

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/metrics", s.handleMetrics)
		r.Post("/layout", s.handleLayout)

		r.Route("/trees", func(r chi.Router) {
			r.Get("/", s.handleListTrees)
			r.Post("/", s.handleCreateTree)

			r.Route("/{treeID}", func(r chi.Router) {
				r.Get("/", s.handleGetTree)
				r.Put("/", s.handlePutTree)
				r.Delete("/", s.handleDeleteTree)
				r.Get("/layout", s.handleTreeLayout)
				r.Get("/render/{format}", s.handleRender)
			})
		})
	})
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
