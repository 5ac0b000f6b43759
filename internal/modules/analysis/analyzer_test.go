package analysis

import (
	"testing"

	"github.com/aristath/supplyopt/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(sku, warehouse, category string, stock, forecast, actual, capacity int) domain.Product {
	return domain.Product{
		SKU:                sku,
		Warehouse:          warehouse,
		Category:           category,
		CurrentStock:       stock,
		ForecastDemand:     forecast,
		ActualDemand:       actual,
		ProductionCapacity: capacity,
		UnitCost:           10,
		HoldingCostRate:    0.25,
		StockoutPenalty:    50,
		LeadTimeDays:       7,
		ShelfLifeDays:      90,
	}
}

func sample() []domain.Product {
	return []domain.Product{
		product("A", "Delhi", "Snacks", 10, 100, 100, 50),
		product("B", "Mumbai", "Beverages", 500, 100, 50, 200),
		product("C", "Mumbai", "Snacks", 40, 0, 0, 0),
	}
}

func TestAnalyze(t *testing.T) {
	a, err := NewAnalyzer(zerolog.Nop()).Analyze(sample())
	require.NoError(t, err)

	assert.Equal(t, 200, a.TotalForecastDemand)
	assert.Equal(t, 150, a.TotalActualDemand)
	assert.Equal(t, 550, a.TotalStock)
	assert.Equal(t, 75.0, a.ForecastAccuracy)

	require.Len(t, a.CriticalShortages, 1)
	assert.Equal(t, "A", a.CriticalShortages[0].SKU)
	require.Len(t, a.ExcessInventory, 2)
	assert.Equal(t, "B", a.ExcessInventory[0].SKU)
	assert.Equal(t, "C", a.ExcessInventory[1].SKU)
}

func TestAnalyze_Aggregates(t *testing.T) {
	a, err := NewAnalyzer(zerolog.Nop()).Analyze(sample())
	require.NoError(t, err)

	require.Len(t, a.Warehouses, 2)
	assert.Equal(t, WarehouseStats{
		Warehouse: "Delhi", CurrentStock: 10, ForecastDemand: 100, ActualDemand: 100,
		StockCoverage: 0.1, ForecastAccuracy: 100,
	}, a.Warehouses[0])
	assert.Equal(t, 10.8, a.Warehouses[1].StockCoverage)
	assert.Equal(t, 50.0, a.Warehouses[1].ForecastAccuracy)

	require.Len(t, a.Categories, 2)
	assert.Equal(t, "Beverages", a.Categories[0].Category)
	assert.Equal(t, 25.0, a.Categories[0].CapacityUtilization)
	assert.Equal(t, 200.0, a.Categories[1].CapacityUtilization)

	assert.Equal(t, 0.1667, a.Variability.Average)
	assert.Equal(t, []string{"B"}, a.Variability.HighVariability)
	assert.Equal(t, []string{"A", "C"}, a.Variability.Stable)

	assert.Equal(t, map[string]float64{"Delhi": 10, "Mumbai": 100}, a.ServiceLevels.ByWarehouse)
	assert.Equal(t, map[string]float64{"Snacks": 55, "Beverages": 100}, a.ServiceLevels.ByCategory)
	assert.Equal(t, 70.0, a.ServiceLevels.Overall)

	assert.Equal(t, 3.37, a.StockRotation.AverageStockTurns)
	assert.Equal(t, 1229.0, a.StockRotation.AverageDaysOfStock)
	assert.Equal(t, []string{"B", "C"}, a.StockRotation.SlowMoving)

	assert.Equal(t, CapacityUtilization{Overall: 60, UnderUtilized: 100, CapacityConstrained: []string{"A"}}, a.CapacityUtilization)
}

func TestAnalyze_ABC(t *testing.T) {
	a, err := NewAnalyzer(zerolog.Nop()).Analyze(sample())
	require.NoError(t, err)

	assert.Equal(t, []ABCItem{
		{SKU: "A", Class: "A", CumulativePercentage: 66.67},
		{SKU: "B", Class: "C", CumulativePercentage: 100},
		{SKU: "C", Class: "C", CumulativePercentage: 100},
	}, a.ABC.Items)
	assert.Equal(t, []ABCSummary{
		{Class: "A", Count: 1, DemandValue: 10000},
		{Class: "C", Count: 2, DemandValue: 5000},
	}, a.ABC.Summary)
}

func TestAnalyze_Insights(t *testing.T) {
	a, err := NewAnalyzer(zerolog.Nop()).Analyze(sample())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"1 products facing capacity constraints. Consider production optimization.",
		"1 products at risk of stockout. Implement safety stock policies.",
		"Delhi warehouse showing stock shortage patterns. Consider inventory redistribution.",
	}, a.Insights)
}

func TestAnalyze_AllZeroIsFinite(t *testing.T) {
	a, err := NewAnalyzer(zerolog.Nop()).Analyze([]domain.Product{product("Z", "Delhi", "Snacks", 0, 0, 0, 0)})
	require.NoError(t, err)

	assert.Equal(t, 100.0, a.ForecastAccuracy)
	assert.Equal(t, 0.0, a.Warehouses[0].StockCoverage)
	assert.Equal(t, 0.0, a.CapacityUtilization.Overall)
	assert.Equal(t, 100.0, a.ServiceLevels.Overall)
	assert.Equal(t, 0.0, a.StockRotation.AverageStockTurns)
	assert.Equal(t, 0.0, a.ABC.Items[0].CumulativePercentage)
	assert.Contains(t, a.Insights, "Excellent forecast accuracy. Current forecasting methods are performing well.")
}

func TestAnalyze_RejectsEmpty(t *testing.T) {
	_, err := NewAnalyzer(zerolog.Nop()).Analyze(nil)
	assert.True(t, domain.IsValidationError(err))
}

func TestFillRate(t *testing.T) {
	assert.Equal(t, 100.0, FillRate(0, 0))
	assert.Equal(t, 50.0, FillRate(5, 10))
	assert.Equal(t, 100.0, FillRate(50, 10))
}

func TestSuppliers(t *testing.T) {
	good := domain.Supplier{SupplierID: "S1", MaterialType: "flour", ReliabilityScore: 0.9, LeadTimeDays: 7, MOQ: 100, UnitPrice: 5, QualityRating: 8}
	weak := domain.Supplier{SupplierID: "S2", MaterialType: "oil", ReliabilityScore: 0.6, LeadTimeDays: 20, MOQ: 2000, UnitPrice: 0, QualityRating: 5}

	r, err := NewAnalyzer(zerolog.Nop()).Suppliers([]domain.Supplier{weak, good})
	require.NoError(t, err)

	require.Len(t, r.Rankings, 2)
	assert.Equal(t, "S1", r.Rankings[0].SupplierID)
	assert.Equal(t, 0.6486, r.Rankings[0].OverallScore)
	assert.Equal(t, 0.5, r.Rankings[1].OverallScore)
	assert.Equal(t, []string{"S2"}, r.Unreliable)
	assert.Equal(t, []string{"S2"}, r.HighLeadTime)
	assert.Equal(t, 0.75, r.AverageReliability)
	assert.Equal(t, 13.5, r.AverageLeadTime)
	assert.Equal(t, []string{
		"Develop alternate suppliers for unreliable partners",
		"Negotiate lower MOQ with high-volume suppliers",
		"Implement supplier scorecards for continuous monitoring",
		"Consider long-term contracts with top-performing suppliers",
	}, r.Recommendations)
}

func TestSuppliers_EmptyIsNil(t *testing.T) {
	r, err := NewAnalyzer(zerolog.Nop()).Suppliers(nil)
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestCapacity(t *testing.T) {
	r := NewAnalyzer(zerolog.Nop()).Capacity([]domain.ProductionConstraint{
		{FactoryLocation: "Delhi", WeeklyCapacity: 500, EfficiencyRate: 0.9, ProductionCostPerUnit: 5},
		{FactoryLocation: "Pune", WeeklyCapacity: 60, EfficiencyRate: 0.7, ProductionCostPerUnit: 4},
	})

	assert.Equal(t, 560, r.TotalWeeklyCapacity)
	assert.Equal(t, 0.8, r.AverageEfficiency)
	assert.Equal(t, []string{"Improve efficiency at Pune factory", "Consider capacity expansion at Pune"}, r.Recommendations)
}

func TestSupplyRisks(t *testing.T) {
	r := SupplyRisks(sample(), []domain.Supplier{{SupplierID: "S1", ReliabilityScore: 0.5}})

	assert.Equal(t, 1, r.HighRiskProducts)
	assert.Equal(t, 1, r.UnreliableSuppliers)
	assert.Len(t, r.RiskMitigationActions, 4)
}
