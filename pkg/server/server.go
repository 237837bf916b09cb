// Package server exposes a running synthesizer over HTTP: grain snapshots
// for visualization, parameter access and note triggering.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/justyntemme/granulator/pkg/framework/debug"
	"github.com/justyntemme/granulator/pkg/synth"
	"github.com/pkg/errors"
)

const shutdownTimeout = 5 * time.Second

// Server is the HTTP control surface.
type Server struct {
	synth  *synth.Synthesizer
	router *chi.Mux
	logger *debug.Logger
}

// New creates a server for s. A nil logger uses the package default.
func New(s *synth.Synthesizer, logger *debug.Logger) *Server {
	if logger == nil {
		logger = debug.Default()
	}
	srv := &Server{
		synth:  s,
		router: chi.NewRouter(),
		logger: logger.With("http"),
	}
	srv.setupRoutes()
	return srv
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.SetHeader("Content-Type", "application/json"))

		r.Get("/grains", s.handleGrains)

		r.Get("/params", s.handleParams)
		r.Get("/params/{name}", s.handleParam)
		r.Put("/params/{name}", s.handleSetParam)

		r.Get("/bounds", s.handleBounds)
		r.Put("/bounds", s.handleSetBounds)
		r.Post("/sample", s.handleLoadSample)

		r.Post("/notes/{note}/on", s.handleNoteOn)
		r.Post("/notes/{note}/off", s.handleNoteOff)
		r.Post("/notes/off", s.handleAllNotesOff)
	})
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "http shutdown")
	}
	return nil
}

// logRequests logs one line per request at debug level.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("%s %s %d %s [%s]", r.Method, r.URL.Path, ww.Status(), time.Since(start), middleware.GetReqID(r.Context()))
	})
}
