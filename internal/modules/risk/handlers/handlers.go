// Package handlers provides HTTP handlers for supplier risk operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/supplyopt/internal/domain"
	"github.com/aristath/supplyopt/internal/modules/risk"
	"github.com/aristath/supplyopt/internal/snapshot"
	"github.com/rs/zerolog"
)

// SupplierScorer scores and ranks suppliers
type SupplierScorer interface {
	Assess(suppliers []domain.Supplier) (*risk.Assessment, error)
	Rank(suppliers []domain.Supplier) (*risk.Ranking, error)
}

// SuppliersRequest carries the suppliers to score
type SuppliersRequest struct {
	Suppliers []snapshot.SupplierRequest `json:"suppliers"`
}

// Handler handles supplier risk HTTP requests
type Handler struct {
	scorer SupplierScorer
	log    zerolog.Logger
}

// NewHandler creates a new supplier risk handler
func NewHandler(scorer SupplierScorer, log zerolog.Logger) *Handler {
	return &Handler{
		scorer: scorer,
		log:    log.With().Str("handler", "risk").Logger(),
	}
}

// HandleAssessSuppliers handles POST /api/risk/suppliers
func (h *Handler) HandleAssessSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, ok := h.decodeSuppliers(w, r)
	if !ok {
		return
	}
	if len(suppliers) == 0 {
		h.writeError(w, http.StatusBadRequest, "at least one supplier is required")
		return
	}

	assessment, err := h.scorer.Assess(suppliers)
	if err != nil {
		h.fail(w, err, "Failed to assess suppliers")
		return
	}
	h.writeData(w, assessment)
}

// HandleRankSuppliers handles POST /api/risk/suppliers/ranking
func (h *Handler) HandleRankSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, ok := h.decodeSuppliers(w, r)
	if !ok {
		return
	}
	if len(suppliers) == 0 {
		h.writeError(w, http.StatusBadRequest, "at least one supplier is required")
		return
	}

	ranking, err := h.scorer.Rank(suppliers)
	if err != nil {
		h.fail(w, err, "Failed to rank suppliers")
		return
	}
	h.writeData(w, ranking)
}

func (h *Handler) decodeSuppliers(w http.ResponseWriter, r *http.Request) ([]domain.Supplier, bool) {
	var req SuppliersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}

	suppliers := make([]domain.Supplier, 0, len(req.Suppliers))
	for _, s := range req.Suppliers {
		supplier, err := s.ToDomain()
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return nil, false
		}
		suppliers = append(suppliers, supplier)
	}
	return suppliers, true
}

func (h *Handler) fail(w http.ResponseWriter, err error, msg string) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		h.writeError(w, http.StatusBadRequest, verr.Error())
		return
	}
	h.log.Error().Err(err).Msg(msg)
	h.writeError(w, http.StatusInternalServerError, msg)
}

func (h *Handler) writeData(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]interface{}{"error": msg})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
