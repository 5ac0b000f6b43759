package handlers

import (
	"net/http"
)

// HandleOptimizeProduction handles POST /api/optimize/production
func (h *Handler) HandleOptimizeProduction(w http.ResponseWriter, r *http.Request) {
	req, snap, ok := h.decode(w, r)
	if !ok {
		return
	}
	result, err := h.service.OptimizeProductionInventory(r.Context(), snap.Products, snap.Factories, req.ScenarioOrBaseline())
	h.respond(w, result, err, "Failed to optimize production")
}

// HandleOptimizeProcurement handles POST /api/optimize/procurement
func (h *Handler) HandleOptimizeProcurement(w http.ResponseWriter, r *http.Request) {
	req, snap, ok := h.decode(w, r)
	if !ok {
		return
	}
	result, err := h.service.OptimizeProcurement(r.Context(), snap.Suppliers, snap.Products, req.EmergencyMode)
	h.respond(w, result, err, "Failed to optimize procurement")
}

// HandleProcurementReport handles POST /api/procurement-report
func (h *Handler) HandleProcurementReport(w http.ResponseWriter, r *http.Request) {
	req, snap, ok := h.decode(w, r)
	if !ok {
		return
	}
	plan, err := h.service.ProcurementReport(r.Context(), snap, req.EmergencyMode)
	h.respond(w, plan, err, "Failed to build procurement report")
}

// HandleCapacityAllocation handles POST /api/capacity-allocation
func (h *Handler) HandleCapacityAllocation(w http.ResponseWriter, r *http.Request) {
	req, snap, ok := h.decode(w, r)
	if !ok {
		return
	}
	scenario := req.ScenarioOrBaseline()
	allocation, err := h.service.AllocateCapacity(snap.Products, snap.Factories, scenario.CapacityUtilizationTarget)
	h.respond(w, allocation, err, "Failed to allocate capacity")
}

// HandleOptimizeSupplyChain handles POST /api/optimize-supply-chain
func (h *Handler) HandleOptimizeSupplyChain(w http.ResponseWriter, r *http.Request) {
	req, snap, ok := h.decode(w, r)
	if !ok {
		return
	}
	result, err := h.service.OptimizeSupplyChain(r.Context(), snap, req.ScenarioOrBaseline())
	h.respond(w, result, err, "Failed to optimize supply chain")
}
