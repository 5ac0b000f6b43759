// Package domain provides core domain models and types.
package domain

// Defaults applied by the snapshot codec when an optional field is absent.
const (
	DefaultHoldingCostRate = 0.25
	DefaultStockoutPenalty = 50.0
	DefaultLeadTimeDays    = 7
	DefaultShelfLifeDays   = 90
	DefaultScenarioName    = "baseline"
)

// UnknownCategory is the lookup-table key used for categories without their own entry.
const UnknownCategory = "Unknown"

// StockStatus classifies current stock against safety stock and reorder point
type StockStatus string

const (
	StockCritical StockStatus = "Critical"
	StockReorder  StockStatus = "Reorder"
	StockNormal   StockStatus = "Normal"
	StockExcess   StockStatus = "Excess"
)

// RiskLevel is the three-band risk classification used for suppliers and scenarios
type RiskLevel string

const (
	RiskHigh    RiskLevel = "High"
	RiskMedium  RiskLevel = "Medium"
	RiskLow     RiskLevel = "Low"
	RiskUnknown RiskLevel = "Unknown"
)

// SolveStatus reports the outcome of an LP/MIP solve
type SolveStatus string

const (
	SolveOptimal    SolveStatus = "Optimal"
	SolveInfeasible SolveStatus = "Infeasible"
	SolveUnbounded  SolveStatus = "Unbounded"
	SolveError      SolveStatus = "Error"
)

// Quarter identifies the planning quarter used for seasonal lookups
type Quarter string

const (
	Q1 Quarter = "Q1"
	Q2 Quarter = "Q2"
	Q3 Quarter = "Q3"
	Q4 Quarter = "Q4"
)

// Quarters lists the quarters in calendar order.
var Quarters = []Quarter{Q1, Q2, Q3, Q4}

// Valid reports whether q is one of Q1..Q4.
func (q Quarter) Valid() bool {
	switch q {
	case Q1, Q2, Q3, Q4:
		return true
	}
	return false
}

// Product is one SKU at one warehouse
type Product struct {
	SKU                 string  `json:"sku"`
	Warehouse           string  `json:"warehouse"`
	Category            string  `json:"product_category"`
	CurrentStock        int     `json:"current_stock"`
	ForecastDemand      int     `json:"forecast_demand"`
	ActualDemand        int     `json:"actual_demand"`
	ProductionCapacity  int     `json:"production_capacity"`
	UnitCost            float64 `json:"unit_cost"`
	HoldingCostRate     float64 `json:"holding_cost_rate"`
	StockoutPenalty     float64 `json:"stockout_penalty"`
	LeadTimeDays        int     `json:"lead_time_days"`
	ShelfLifeDays       int     `json:"shelf_life_days"`
	IsFestivalSensitive bool    `json:"is_festival_sensitive"`
}

// Supplier offers one material type
type Supplier struct {
	SupplierID       string  `json:"supplier_id"`
	MaterialType     string  `json:"material_type"`
	ReliabilityScore float64 `json:"reliability_score"`
	LeadTimeDays     int     `json:"lead_time_days"`
	MOQ              int     `json:"moq"`
	UnitPrice        float64 `json:"unit_price"`
	QualityRating    float64 `json:"quality_rating"`
}

// Key identifies the supplier/material pair used as a decision variable.
func (s Supplier) Key() string {
	return s.SupplierID + "/" + s.MaterialType
}

// ProductionConstraint describes one factory's weekly capacity and cost
type ProductionConstraint struct {
	FactoryLocation       string  `json:"factory_location"`
	WeeklyCapacity        int     `json:"weekly_capacity"`
	EfficiencyRate        float64 `json:"efficiency_rate"`
	ProductionCostPerUnit float64 `json:"production_cost_per_unit"`
}

// Scenario parameterises a production/procurement optimization run
type Scenario struct {
	Name                      string  `json:"scenario_name"`
	DemandSurgeFactor         float64 `json:"demand_surge_factor"`
	CapacityUtilizationTarget float64 `json:"capacity_utilization_target"`
	IncludeSubcontracting     bool    `json:"include_subcontracting"`
	EmergencyProcurement      bool    `json:"emergency_procurement"`
}

// BaselineScenario returns the neutral scenario: no surge, 85% utilisation.
func BaselineScenario() Scenario {
	return Scenario{
		Name:                      DefaultScenarioName,
		DemandSurgeFactor:         1.0,
		CapacityUtilizationTarget: 0.85,
		IncludeSubcontracting:     true,
	}
}

// Snapshot is the full planning input submitted by a planner
type Snapshot struct {
	Products           []Product              `json:"sku_data"`
	Suppliers          []Supplier             `json:"suppliers"`
	Factories          []ProductionConstraint `json:"production_constraints"`
	FestivalMultiplier float64                `json:"festival_demand_multiplier"`
	ServiceLevel       float64                `json:"service_level_target"`
}
