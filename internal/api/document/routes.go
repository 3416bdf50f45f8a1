package document

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers document and query routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/documents", func(r chi.Router) {
		r.Post("/", h.IngestDocument)
		r.Delete("/{document_id}", h.PurgeDocument)
	})

	r.Post("/query", h.Query)
}
