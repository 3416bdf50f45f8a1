package claim

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers claim and policy routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/claims", func(r chi.Router) {
		r.Post("/adjudicate", h.AdjudicateClaim)
		r.Post("/estimate", h.EstimateClaim)
	})

	r.Get("/policies/{policy_number}", h.GetPolicy)
}
