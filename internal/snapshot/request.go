// Package snapshot decodes planning requests into domain snapshots, applying
// defaults to optional fields and rejecting missing required ones.
package snapshot

import (
	"fmt"

	"github.com/aristath/supplyopt/internal/domain"
)

// Defaults fills the request-level fields a caller may omit
type Defaults struct {
	ServiceLevel       float64
	FestivalMultiplier float64
}

// ProductRequest is the wire form of a product. Pointer fields are required
// unless noted.
type ProductRequest struct {
	SKU                 string   `json:"sku"`
	Warehouse           string   `json:"warehouse"`
	Category            string   `json:"product_category"`
	CurrentStock        *int     `json:"current_stock"`
	ForecastDemand      *int     `json:"forecast_demand"`
	ActualDemand        *int     `json:"actual_demand"`
	ProductionCapacity  *int     `json:"production_capacity"`
	UnitCost            *float64 `json:"unit_cost"`
	HoldingCostRate     *float64 `json:"holding_cost_rate,omitempty"`
	StockoutPenalty     *float64 `json:"stockout_penalty,omitempty"`
	LeadTimeDays        *int     `json:"lead_time_days,omitempty"`
	ShelfLifeDays       *int     `json:"shelf_life_days,omitempty"`
	IsFestivalSensitive bool     `json:"is_festival_sensitive"`
}

// SupplierRequest is the wire form of a supplier
type SupplierRequest struct {
	SupplierID       string   `json:"supplier_id"`
	MaterialType     string   `json:"material_type"`
	ReliabilityScore *float64 `json:"reliability_score"`
	LeadTimeDays     *int     `json:"lead_time_days"`
	MOQ              *int     `json:"moq"`
	UnitPrice        *float64 `json:"unit_price"`
	QualityRating    *float64 `json:"quality_rating"`
}

// FactoryRequest is the wire form of a production constraint
type FactoryRequest struct {
	FactoryLocation       string   `json:"factory_location"`
	WeeklyCapacity        *int     `json:"weekly_capacity"`
	EfficiencyRate        *float64 `json:"efficiency_rate"`
	ProductionCostPerUnit *float64 `json:"production_cost_per_unit"`
}

// ScenarioRequest is the wire form of a scenario. Every field is optional
// and falls back to the baseline scenario.
type ScenarioRequest struct {
	Name                      string   `json:"scenario_name,omitempty"`
	DemandSurgeFactor         *float64 `json:"demand_surge_factor,omitempty"`
	CapacityUtilizationTarget *float64 `json:"capacity_utilization_target,omitempty"`
	IncludeSubcontracting     *bool    `json:"include_subcontracting,omitempty"`
	EmergencyProcurement      *bool    `json:"emergency_procurement,omitempty"`
}

// Request is a full planning request
type Request struct {
	Products           []ProductRequest  `json:"sku_data"`
	Suppliers          []SupplierRequest `json:"suppliers"`
	Factories          []FactoryRequest  `json:"production_constraints"`
	FestivalMultiplier *float64          `json:"festival_demand_multiplier,omitempty"`
	ServiceLevel       *float64          `json:"service_level_target,omitempty"`
	Scenario           *ScenarioRequest  `json:"scenario,omitempty"`
	EmergencyMode      bool              `json:"emergency_mode,omitempty"`
}

// ToDomain converts the request, applying defaults to absent optional fields.
func (r Request) ToDomain(d Defaults) (domain.Snapshot, error) {
	snap := domain.Snapshot{
		Products:           make([]domain.Product, 0, len(r.Products)),
		Suppliers:          make([]domain.Supplier, 0, len(r.Suppliers)),
		Factories:          make([]domain.ProductionConstraint, 0, len(r.Factories)),
		FestivalMultiplier: orFloat(r.FestivalMultiplier, d.FestivalMultiplier),
		ServiceLevel:       orFloat(r.ServiceLevel, d.ServiceLevel),
	}
	for i, p := range r.Products {
		product, err := p.ToDomain()
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("sku_data[%d]: %w", i, err)
		}
		snap.Products = append(snap.Products, product)
	}
	for i, s := range r.Suppliers {
		supplier, err := s.ToDomain()
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("suppliers[%d]: %w", i, err)
		}
		snap.Suppliers = append(snap.Suppliers, supplier)
	}
	for i, f := range r.Factories {
		factory, err := f.ToDomain()
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("production_constraints[%d]: %w", i, err)
		}
		snap.Factories = append(snap.Factories, factory)
	}
	return snap, nil
}

// ScenarioOrBaseline returns the request scenario over the baseline defaults.
func (r Request) ScenarioOrBaseline() domain.Scenario {
	return r.Scenario.ToDomain()
}

// ToDomain converts the product, defaulting holding rate, penalty, lead time
// and shelf life.
func (p ProductRequest) ToDomain() (domain.Product, error) {
	if p.SKU == "" {
		return domain.Product{}, missing("sku")
	}
	if p.Warehouse == "" {
		return domain.Product{}, missing("warehouse")
	}
	if p.Category == "" {
		return domain.Product{}, missing("product_category")
	}
	ints := []struct {
		name string
		v    *int
	}{
		{"current_stock", p.CurrentStock},
		{"forecast_demand", p.ForecastDemand},
		{"actual_demand", p.ActualDemand},
		{"production_capacity", p.ProductionCapacity},
	}
	for _, f := range ints {
		if f.v == nil {
			return domain.Product{}, missing(f.name)
		}
	}
	if p.UnitCost == nil {
		return domain.Product{}, missing("unit_cost")
	}

	return domain.Product{
		SKU:                 p.SKU,
		Warehouse:           p.Warehouse,
		Category:            p.Category,
		CurrentStock:        *p.CurrentStock,
		ForecastDemand:      *p.ForecastDemand,
		ActualDemand:        *p.ActualDemand,
		ProductionCapacity:  *p.ProductionCapacity,
		UnitCost:            *p.UnitCost,
		HoldingCostRate:     orFloat(p.HoldingCostRate, domain.DefaultHoldingCostRate),
		StockoutPenalty:     orFloat(p.StockoutPenalty, domain.DefaultStockoutPenalty),
		LeadTimeDays:        orInt(p.LeadTimeDays, domain.DefaultLeadTimeDays),
		ShelfLifeDays:       orInt(p.ShelfLifeDays, domain.DefaultShelfLifeDays),
		IsFestivalSensitive: p.IsFestivalSensitive,
	}, nil
}

// ToDomain converts the supplier. Every field is required.
func (s SupplierRequest) ToDomain() (domain.Supplier, error) {
	switch {
	case s.SupplierID == "":
		return domain.Supplier{}, missing("supplier_id")
	case s.MaterialType == "":
		return domain.Supplier{}, missing("material_type")
	case s.ReliabilityScore == nil:
		return domain.Supplier{}, missing("reliability_score")
	case s.LeadTimeDays == nil:
		return domain.Supplier{}, missing("lead_time_days")
	case s.MOQ == nil:
		return domain.Supplier{}, missing("moq")
	case s.UnitPrice == nil:
		return domain.Supplier{}, missing("unit_price")
	case s.QualityRating == nil:
		return domain.Supplier{}, missing("quality_rating")
	}
	return domain.Supplier{
		SupplierID:       s.SupplierID,
		MaterialType:     s.MaterialType,
		ReliabilityScore: *s.ReliabilityScore,
		LeadTimeDays:     *s.LeadTimeDays,
		MOQ:              *s.MOQ,
		UnitPrice:        *s.UnitPrice,
		QualityRating:    *s.QualityRating,
	}, nil
}

// ToDomain converts the factory. Every field is required.
func (f FactoryRequest) ToDomain() (domain.ProductionConstraint, error) {
	switch {
	case f.FactoryLocation == "":
		return domain.ProductionConstraint{}, missing("factory_location")
	case f.WeeklyCapacity == nil:
		return domain.ProductionConstraint{}, missing("weekly_capacity")
	case f.EfficiencyRate == nil:
		return domain.ProductionConstraint{}, missing("efficiency_rate")
	case f.ProductionCostPerUnit == nil:
		return domain.ProductionConstraint{}, missing("production_cost_per_unit")
	}
	return domain.ProductionConstraint{
		FactoryLocation:       f.FactoryLocation,
		WeeklyCapacity:        *f.WeeklyCapacity,
		EfficiencyRate:        *f.EfficiencyRate,
		ProductionCostPerUnit: *f.ProductionCostPerUnit,
	}, nil
}

// ToDomain overlays the set fields on the baseline scenario. A nil request
// is the baseline.
func (s *ScenarioRequest) ToDomain() domain.Scenario {
	out := domain.BaselineScenario()
	if s == nil {
		return out
	}
	if s.Name != "" {
		out.Name = s.Name
	}
	out.DemandSurgeFactor = orFloat(s.DemandSurgeFactor, out.DemandSurgeFactor)
	out.CapacityUtilizationTarget = orFloat(s.CapacityUtilizationTarget, out.CapacityUtilizationTarget)
	if s.IncludeSubcontracting != nil {
		out.IncludeSubcontracting = *s.IncludeSubcontracting
	}
	if s.EmergencyProcurement != nil {
		out.EmergencyProcurement = *s.EmergencyProcurement
	}
	return out
}

func missing(field string) error {
	return domain.NewValidationError(field, "is required")
}

func orFloat(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func orInt(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
