package snapshot

import (
	"encoding/json"
	"testing"

	"github.com/aristath/supplyopt/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDefaults = Defaults{ServiceLevel: 0.95, FestivalMultiplier: 1.45}

const minimalRequest = `{
	"sku_data": [{
		"sku": "SKU001", "warehouse": "Delhi", "product_category": "Snacks",
		"current_stock": 10, "forecast_demand": 100, "actual_demand": 80,
		"production_capacity": 200, "unit_cost": 12.5
	}],
	"suppliers": [{
		"supplier_id": "S1", "material_type": "flour", "reliability_score": 0.9,
		"lead_time_days": 5, "moq": 100, "unit_price": 2, "quality_rating": 8
	}],
	"production_constraints": [{
		"factory_location": "Pune", "weekly_capacity": 500,
		"efficiency_rate": 0.85, "production_cost_per_unit": 4
	}]
}`

func decode(t *testing.T, body string) Request {
	t.Helper()
	var req Request
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return req
}

func TestToDomain_AppliesDefaults(t *testing.T) {
	snap, err := decode(t, minimalRequest).ToDomain(testDefaults)
	require.NoError(t, err)

	assert.Equal(t, 0.95, snap.ServiceLevel)
	assert.Equal(t, 1.45, snap.FestivalMultiplier)

	require.Len(t, snap.Products, 1)
	p := snap.Products[0]
	assert.Equal(t, 80, p.ActualDemand)
	assert.Equal(t, domain.DefaultHoldingCostRate, p.HoldingCostRate)
	assert.Equal(t, domain.DefaultStockoutPenalty, p.StockoutPenalty)
	assert.Equal(t, domain.DefaultLeadTimeDays, p.LeadTimeDays)
	assert.Equal(t, domain.DefaultShelfLifeDays, p.ShelfLifeDays)
	assert.False(t, p.IsFestivalSensitive)

	require.Len(t, snap.Suppliers, 1)
	assert.Equal(t, 100, snap.Suppliers[0].MOQ)
	require.Len(t, snap.Factories, 1)
	assert.Equal(t, 500, snap.Factories[0].WeeklyCapacity)
}

func TestToDomain_KeepsExplicitValues(t *testing.T) {
	req := decode(t, minimalRequest)
	rate, lead, level := 0.1, 3, 0.99
	req.Products[0].HoldingCostRate = &rate
	req.Products[0].LeadTimeDays = &lead
	req.ServiceLevel = &level

	snap, err := req.ToDomain(testDefaults)
	require.NoError(t, err)
	assert.Equal(t, 0.1, snap.Products[0].HoldingCostRate)
	assert.Equal(t, 3, snap.Products[0].LeadTimeDays)
	assert.Equal(t, 0.99, snap.ServiceLevel)
}

func TestToDomain_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
		field  string
	}{
		{"sku", func(r *Request) { r.Products[0].SKU = "" }, "sku"},
		{"actual demand", func(r *Request) { r.Products[0].ActualDemand = nil }, "actual_demand"},
		{"unit cost", func(r *Request) { r.Products[0].UnitCost = nil }, "unit_cost"},
		{"moq", func(r *Request) { r.Suppliers[0].MOQ = nil }, "moq"},
		{"capacity", func(r *Request) { r.Factories[0].WeeklyCapacity = nil }, "weekly_capacity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := decode(t, minimalRequest)
			tt.mutate(&req)

			_, err := req.ToDomain(testDefaults)
			require.Error(t, err)
			assert.True(t, domain.IsValidationError(err))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestScenarioRequest(t *testing.T) {
	var nilScenario *ScenarioRequest
	assert.Equal(t, domain.BaselineScenario(), nilScenario.ToDomain())

	surge, emergency := 1.3, true
	s := (&ScenarioRequest{Name: "monsoon", DemandSurgeFactor: &surge, EmergencyProcurement: &emergency}).ToDomain()
	assert.Equal(t, "monsoon", s.Name)
	assert.Equal(t, 1.3, s.DemandSurgeFactor)
	assert.Equal(t, 0.85, s.CapacityUtilizationTarget)
	assert.True(t, s.IncludeSubcontracting)
	assert.True(t, s.EmergencyProcurement)
}
