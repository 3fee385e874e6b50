package convert

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers dialect-conversion routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/convert", func(r chi.Router) {
		r.Post("/cli-to-web", h.CliToWeb)
		r.Post("/web-to-cli", h.WebToCli)
	})
}
