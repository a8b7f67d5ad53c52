package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"rtsim/internal/sched"
	"rtsim/internal/store"
)

// Server exposes a running simulation over HTTP. Every state access goes
// through the runner's command queue.
type Server struct {
	router    chi.Router
	runner    *sched.Runner
	store     store.Store // optional; enables /runs
	logger    *slog.Logger
	startTime time.Time
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithStore exposes recorded runs under /api/v1/runs.
func WithStore(st store.Store) Option {
	return func(s *Server) {
		s.store = st
	}
}

// New creates a Server with all routes registered.
func New(runner *sched.Runner, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		runner:    runner,
		logger:    logger.With("component", "server"),
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/snapshot", s.handleSnapshot)
		r.Get("/stats", s.handleStats)
		r.Get("/export", s.handleExport)

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", s.handleAddTask)
			r.Delete("/{id}", s.handleRemoveTask)
		})

		r.Route("/presets", func(r chi.Router) {
			r.Get("/", s.handleListPresets)
			r.Post("/{name}", s.handleLoadPreset)
		})

		r.Route("/control", func(r chi.Router) {
			r.Post("/reset", s.handleReset)
			r.Post("/pause", s.handlePause)
			r.Post("/resume", s.handleResume)
			r.Post("/tick", s.handleTick)
			r.Put("/speed", s.handleSpeed)
			r.Put("/quantum", s.handleQuantum)
		})

		if s.store != nil {
			r.Route("/runs", func(r chi.Router) {
				r.Get("/", s.handleListRuns)
				r.Get("/{id}", s.handleGetRun)
			})
		}
	})
}
