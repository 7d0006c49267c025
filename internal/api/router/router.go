package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kwchan/clinic-booking-ai/internal/conversation"
	"github.com/kwchan/clinic-booking-ai/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	ConversationHandler *conversation.Handler
	MetricsHandler      http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/health", cfg.ConversationHandler.HealthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/conversations", func(r chi.Router) {
		r.Post("/", cfg.ConversationHandler.Start)
		r.Get("/stats/extractions", cfg.ConversationHandler.GetExtractionStats)
		r.Route("/{conversationID}", func(r chi.Router) {
			r.Post("/messages", cfg.ConversationHandler.Message)
			r.Get("/summary", cfg.ConversationHandler.GetSummary)
		})
	})

	return r
}
