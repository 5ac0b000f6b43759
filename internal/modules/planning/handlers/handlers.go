// Package handlers provides HTTP handlers for planning operations.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aristath/supplyopt/internal/domain"
	"github.com/aristath/supplyopt/internal/modules/planning"
	"github.com/aristath/supplyopt/internal/snapshot"
	"github.com/rs/zerolog"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 10 << 20

// Handler handles planning HTTP requests
type Handler struct {
	service  *planning.Service
	defaults snapshot.Defaults
	log      zerolog.Logger
}

// NewHandler creates a new planning handler
func NewHandler(service *planning.Service, defaults snapshot.Defaults, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		defaults: defaults,
		log:      log.With().Str("handler", "planning").Logger(),
	}
}

// HandleSafetyStock handles POST /api/safety-stock
func (h *Handler) HandleSafetyStock(w http.ResponseWriter, r *http.Request) {
	_, snap, ok := h.decode(w, r)
	if !ok {
		return
	}
	report, err := h.service.ComputeSafetyStock(snap.Products, snap.ServiceLevel)
	h.respond(w, report, err, "Failed to compute safety stock")
}

// HandleForecast handles POST /api/forecast
func (h *Handler) HandleForecast(w http.ResponseWriter, r *http.Request) {
	_, snap, ok := h.decode(w, r)
	if !ok {
		return
	}
	report, err := h.service.ForecastDemand(snap.Products, snap.FestivalMultiplier)
	h.respond(w, report, err, "Failed to forecast demand")
}

// HandleFestivalPlanning handles POST /api/festival-planning
func (h *Handler) HandleFestivalPlanning(w http.ResponseWriter, r *http.Request) {
	_, snap, ok := h.decode(w, r)
	if !ok {
		return
	}
	plan, err := h.service.PlanFestivalDemand(r.Context(), snap.Products, snap.FestivalMultiplier, snap.Factories)
	h.respond(w, plan, err, "Failed to plan festival demand")
}

// HandleAnalyzeSupplyChain handles POST /api/analyze-supply-chain
func (h *Handler) HandleAnalyzeSupplyChain(w http.ResponseWriter, r *http.Request) {
	_, snap, ok := h.decode(w, r)
	if !ok {
		return
	}
	analysis, err := h.service.AnalyzeSupplyChain(r.Context(), snap)
	h.respond(w, analysis, err, "Failed to analyze supply chain")
}

// decode reads the request body and converts it to a snapshot. It writes
// the 400 response itself and reports false on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (snapshot.Request, domain.Snapshot, bool) {
	var req snapshot.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err), "")
		return req, domain.Snapshot{}, false
	}
	snap, err := req.ToDomain(h.defaults)
	if err != nil {
		h.writeValidation(w, err)
		return req, domain.Snapshot{}, false
	}
	return req, snap, true
}

// respond maps an operation result onto the response: validation errors
// are 400, cancelled requests 503 and anything else 500.
func (h *Handler) respond(w http.ResponseWriter, data interface{}, err error, failure string) {
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": data,
			"metadata": map[string]interface{}{
				"timestamp": time.Now().Format(time.RFC3339),
			},
		})
	case domain.IsValidationError(err):
		h.writeValidation(w, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.log.Warn().Err(err).Msg(failure)
		h.writeError(w, http.StatusServiceUnavailable, failure, "")
	default:
		h.log.Error().Err(err).Msg(failure)
		h.writeError(w, http.StatusInternalServerError, failure, "")
	}
}

func (h *Handler) writeValidation(w http.ResponseWriter, err error) {
	field := ""
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		field = verr.Field
	}
	h.writeError(w, http.StatusBadRequest, err.Error(), field)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, field string) {
	body := map[string]interface{}{"error": message}
	if field != "" {
		body["field"] = field
	}
	h.writeJSON(w, status, body)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
