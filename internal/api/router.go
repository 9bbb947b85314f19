package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter builds the HTTP route tree.
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/detect-frame", h.DetectFrame)
		r.Post("/analyze-video", h.AnalyzeVideo)
		r.Get("/alerts", h.ListAlerts)
		r.Put("/alerts/{id}", h.UpdateAlert)
		r.Get("/stats", h.Stats)
		r.Get("/health", h.Health)
		if h.hub != nil {
			r.Get("/alerts/stream", h.hub.HandleWebSocket)
		}
	})

	return r
}
