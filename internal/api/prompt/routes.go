package prompt

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers stored-prompt routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/prompts", func(r chi.Router) {
		r.Post("/", h.Save)
		r.Get("/", h.List)
		r.Post("/from-session", h.SaveFromSession)

		r.Route("/{prompt_id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
			r.Post("/usage", h.IncrementUsage)
			r.Post("/favorite", h.ToggleFavorite)
			r.Get("/export", h.Export)
		})
	})
}
