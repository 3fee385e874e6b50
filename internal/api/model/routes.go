package model

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers model-configuration routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/model-configs", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Post("/test", h.TestConnection)

		r.Route("/{config_id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
			r.Post("/default", h.SetDefault)
		})
	})
}
