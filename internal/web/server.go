// Package web serves the cleanup session API over HTTP.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kozaktomas/photo-cleanup/internal/cleanup"
	"github.com/kozaktomas/photo-cleanup/internal/photoindex"
	"github.com/kozaktomas/photo-cleanup/internal/web/handlers"
	"github.com/kozaktomas/photo-cleanup/internal/web/middleware"
)

// Server hosts the cleanup API around a single foreground session.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	session    *cleanup.Session
	source     photoindex.Source
	jobManager *handlers.JobManager
}

// NewServer creates a web server owning the given session and photo source.
func NewServer(session *cleanup.Session, source photoindex.Source, host string, port int) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:     r,
		session:    session,
		source:     source,
		jobManager: handlers.NewJobManager(),
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(5 * time.Minute))
	r.Use(middleware.CORS())

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // long timeout for SSE
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server and tears down the session.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")
	s.session.ExitCleanupMode()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
