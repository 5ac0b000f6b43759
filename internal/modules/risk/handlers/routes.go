package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all supplier risk routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/risk", func(r chi.Router) {
		r.Post("/suppliers", h.HandleAssessSuppliers)
		r.Post("/suppliers/ranking", h.HandleRankSuppliers)
	})
}
