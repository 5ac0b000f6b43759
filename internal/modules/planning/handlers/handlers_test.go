package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aristath/supplyopt/internal/config"
	"github.com/aristath/supplyopt/internal/domain"
	"github.com/aristath/supplyopt/internal/modules/planning"
	"github.com/aristath/supplyopt/internal/snapshot"
	"github.com/aristath/supplyopt/internal/tables"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const snapshotBody = `{
	"sku_data": [
		{"sku": "SKU001", "warehouse": "Delhi", "product_category": "Snacks",
		 "current_stock": 10, "forecast_demand": 100, "actual_demand": 80,
		 "production_capacity": 200, "unit_cost": 10, "is_festival_sensitive": true},
		{"sku": "SKU002", "warehouse": "Mumbai", "product_category": "Beverages",
		 "current_stock": 300, "forecast_demand": 90, "actual_demand": 100,
		 "production_capacity": 150, "unit_cost": 8}
	],
	"suppliers": [
		{"supplier_id": "S1", "material_type": "flour", "reliability_score": 0.9,
		 "lead_time_days": 5, "moq": 50, "unit_price": 2, "quality_rating": 8},
		{"supplier_id": "S2", "material_type": "packaging", "reliability_score": 0.95,
		 "lead_time_days": 3, "moq": 10, "unit_price": 1, "quality_rating": 9}
	],
	"production_constraints": [
		{"factory_location": "Pune", "weekly_capacity": 600,
		 "efficiency_rate": 0.85, "production_cost_per_unit": 4}
	]
}`

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{
		Solver:   config.SolverConfig{Timeout: 10 * time.Second, MaxNodes: 20000},
		Planning: config.PlanningConfig{CurrentQuarter: domain.Q3},
	}
	svc, err := planning.NewService(cfg, tables.Default(), zerolog.Nop())
	require.NoError(t, err)

	handler := NewHandler(svc, snapshot.Defaults{ServiceLevel: 0.95, FestivalMultiplier: 1.45}, zerolog.Nop())
	router := chi.NewRouter()
	router.Route("/api", handler.RegisterRoutes)
	return router
}

func post(t *testing.T, router http.Handler, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec, out
}

func TestEndpoints_OK(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		path string
		key  string
	}{
		{"/api/safety-stock", "safetyStockLevels"},
		{"/api/forecast", "ensembleForecast"},
		{"/api/optimize/production", "productionPlan"},
		{"/api/optimize/procurement", "procurementOrders"},
		{"/api/festival-planning", "timeline"},
		{"/api/analyze-supply-chain", "inventoryAnalysis"},
		{"/api/optimize-supply-chain", "costAnalysis"},
		{"/api/capacity-allocation", "factoryAllocations"},
		{"/api/procurement-report", "supplierRanking"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec, out := post(t, router, tt.path, snapshotBody)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			data, ok := out["data"].(map[string]interface{})
			require.True(t, ok)
			assert.Contains(t, data, tt.key)
			assert.Contains(t, out, "metadata")
		})
	}
}

func TestOptimizeProduction_Scenario(t *testing.T) {
	body := `{"sku_data": [{"sku": "A", "warehouse": "Delhi", "product_category": "Snacks",
		"current_stock": 50, "forecast_demand": 0, "actual_demand": 0,
		"production_capacity": 0, "unit_cost": 10}],
		"production_constraints": [{"factory_location": "Pune", "weekly_capacity": 0,
		"efficiency_rate": 0.9, "production_cost_per_unit": 5}],
		"scenario": {"scenario_name": "quiet", "capacity_utilization_target": 0.9}}`

	rec, out := post(t, newTestRouter(t), "/api/optimize/production", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	data := out["data"].(map[string]interface{})
	assert.Equal(t, "Optimal", data["status"])
	assert.Equal(t, 125.0, data["totalCost"])
	analysis := data["scenarioAnalysis"].(map[string]interface{})
	assert.Equal(t, "quiet", analysis["scenarioName"])
}

func TestEndpoints_ValidationErrors(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name  string
		path  string
		body  string
		field string
	}{
		{"malformed json", "/api/forecast", `{"sku_data": [`, ""},
		{"missing field", "/api/forecast", `{"sku_data": [{"sku": "A"}]}`, "warehouse"},
		{"empty products", "/api/safety-stock", `{"sku_data": []}`, "sku_data"},
		{"service level", "/api/safety-stock", `{"sku_data": [{"sku": "A", "warehouse": "W", "product_category": "Snacks",
			"current_stock": 1, "forecast_demand": 1, "actual_demand": 1, "production_capacity": 1, "unit_cost": 1}],
			"service_level_target": 1.0}`, "service_level_target"},
		{"no factories", "/api/festival-planning", `{"sku_data": [{"sku": "A", "warehouse": "W", "product_category": "Snacks",
			"current_stock": 1, "forecast_demand": 1, "actual_demand": 1, "production_capacity": 1, "unit_cost": 1}]}`, "production_constraints"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, out := post(t, router, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, out["error"])
			if tt.field != "" {
				assert.Equal(t, tt.field, out["field"])
			}
		})
	}
}

func TestRegisterRoutes(t *testing.T) {
	svc, err := planning.NewService(&config.Config{Planning: config.PlanningConfig{CurrentQuarter: domain.Q1}}, tables.Default(), zerolog.Nop())
	require.NoError(t, err)
	handler := NewHandler(svc, snapshot.Defaults{}, zerolog.Nop())

	router := chi.NewRouter()
	assert.NotPanics(t, func() {
		handler.RegisterRoutes(router)
	})

	req := httptest.NewRequest(http.MethodGet, "/forecast", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
