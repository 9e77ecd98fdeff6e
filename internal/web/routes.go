package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/photo-cleanup/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	cleanupHandler := handlers.NewCleanupHandler(s.session, s.source, s.jobManager)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/collections", cleanupHandler.ListCollections)

		r.Route("/cleanup", func(r chi.Router) {
			r.Get("/batch", cleanupHandler.CurrentBatch)
			r.Post("/advance", cleanupHandler.Advance)
			r.Post("/prefetch", cleanupHandler.Prefetch)
			r.Post("/exit", cleanupHandler.Exit)

			r.Get("/jobs/{jobId}", cleanupHandler.GetJob)
			r.Post("/jobs/{jobId}/cancel", cleanupHandler.CancelJob)
			r.Get("/jobs/{jobId}/events", cleanupHandler.JobEvents)

			r.Route("/{collectionId}", func(r chi.Router) {
				r.Post("/enter", cleanupHandler.Enter)
				r.Get("/stats", cleanupHandler.Stats)
				r.Post("/processed", cleanupHandler.MarkProcessed)
				r.Put("/checkpoint", cleanupHandler.SaveCheckpoint)
				r.Delete("/checkpoint", cleanupHandler.ClearCheckpoint)
				r.Post("/reset", cleanupHandler.Reset)
			})
		})
	})
}
