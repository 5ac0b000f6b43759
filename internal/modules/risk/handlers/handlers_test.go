package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aristath/supplyopt/internal/domain"
	"github.com/aristath/supplyopt/internal/modules/risk"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const suppliersBody = `{"suppliers": [
	{"supplier_id": "S1", "material_type": "flour", "reliability_score": 0.95,
	 "lead_time_days": 5, "moq": 100, "unit_price": 2, "quality_rating": 9},
	{"supplier_id": "S2", "material_type": "flour", "reliability_score": 0.5,
	 "lead_time_days": 20, "moq": 50, "unit_price": 1.5, "quality_rating": 4}
]}`

// failingScorer returns err from every call
type failingScorer struct{ err error }

func (f failingScorer) Assess([]domain.Supplier) (*risk.Assessment, error) { return nil, f.err }
func (f failingScorer) Rank([]domain.Supplier) (*risk.Ranking, error)      { return nil, f.err }

func setupRouter(scorer SupplierScorer) *chi.Mux {
	router := chi.NewRouter()
	NewHandler(scorer, zerolog.Nop()).RegisterRoutes(router)
	return router
}

func doPost(router http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleAssessSuppliers(t *testing.T) {
	rec := doPost(setupRouter(risk.NewScorer(zerolog.Nop())), "/risk/suppliers", suppliersBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data risk.Assessment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.RiskFactors, 2)
	assert.Equal(t, 1, resp.Data.HighRiskSuppliers)
}

func TestHandleRankSuppliers(t *testing.T) {
	rec := doPost(setupRouter(risk.NewScorer(zerolog.Nop())), "/risk/suppliers/ranking", suppliersBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data risk.Ranking `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Suppliers, 2)
	assert.Equal(t, "S1", resp.Data.Suppliers[0].SupplierID)
}

func TestSupplierHandlers_BadRequests(t *testing.T) {
	router := setupRouter(risk.NewScorer(zerolog.Nop()))

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"suppliers": `},
		{"empty", `{"suppliers": []}`},
		{"missing moq", `{"suppliers": [{"supplier_id": "S1", "material_type": "flour", "reliability_score": 0.9,
			"lead_time_days": 5, "unit_price": 2, "quality_rating": 9}]}`},
		{"reliability out of range", `{"suppliers": [{"supplier_id": "S1", "material_type": "flour", "reliability_score": 1.9,
			"lead_time_days": 5, "moq": 1, "unit_price": 2, "quality_rating": 9}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, path := range []string{"/risk/suppliers", "/risk/suppliers/ranking"} {
				rec := doPost(router, path, tt.body)
				assert.Equal(t, http.StatusBadRequest, rec.Code, path)
			}
		})
	}
}

func TestSupplierHandlers_InternalError(t *testing.T) {
	rec := doPost(setupRouter(failingScorer{err: errors.New("boom")}), "/risk/suppliers", suppliersBody)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to assess suppliers")
}

func TestRegisterRoutes(t *testing.T) {
	router := chi.NewRouter()
	assert.NotPanics(t, func() {
		NewHandler(risk.NewScorer(zerolog.Nop()), zerolog.Nop()).RegisterRoutes(router)
	})
}
