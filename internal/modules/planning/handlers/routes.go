package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all planning routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/safety-stock", h.HandleSafetyStock)
	r.Post("/forecast", h.HandleForecast)

	r.Route("/optimize", func(r chi.Router) {
		r.Post("/production", h.HandleOptimizeProduction)
		r.Post("/procurement", h.HandleOptimizeProcurement)
	})

	// Composite snapshot operations
	r.Post("/festival-planning", h.HandleFestivalPlanning)
	r.Post("/analyze-supply-chain", h.HandleAnalyzeSupplyChain)
	r.Post("/optimize-supply-chain", h.HandleOptimizeSupplyChain)
	r.Post("/capacity-allocation", h.HandleCapacityAllocation)
	r.Post("/procurement-report", h.HandleProcurementReport)
}
