package generate

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers generation-session routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/tags", h.ListTags)

	r.Route("/generation-sessions", func(r chi.Router) {
		r.Post("/", h.StartSession)

		r.Route("/{session_id}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Post("/reset", h.ResetSession)
			r.Post("/description", h.SubmitDescription)
			r.Post("/analyze", h.Analyze)
			r.Post("/accept-analysis", h.AcceptAnalysis)

			r.Post("/language", h.SetLanguage)
			r.Post("/style", h.SetOutputStyle)
			r.Post("/tags/toggle", h.ToggleTag)
			r.Post("/tags/content", h.EditTagContent)
			r.Post("/tags/reset", h.ResetTagContent)
			r.Post("/tags/polish", h.PolishTag)

			r.Post("/assemble", h.AssembleResult)
			r.Post("/quality-check", h.QualityCheck)
			r.Post("/quality-polish", h.PolishByQualityCheck)
		})
	})
}
