package domain

import (
	"errors"
	"fmt"
	"math"
)

// ErrValidation is the sentinel wrapped by every ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError reports malformed input. It is returned before any computation starts.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError builds a ValidationError with a formatted reason.
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// IsValidationError reports whether err is (or wraps) a validation failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// Service level bounds. 1.0 is excluded: the normal quantile is infinite there.
const (
	MinServiceLevel = 0.8
	MaxServiceLevel = 1.0
)

// Festival multiplier bounds.
const (
	MinFestivalMultiplier = 1.0
	MaxFestivalMultiplier = 2.0
)

func checkFinite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NewValidationError(field, "must be a finite number")
	}
	return nil
}

func checkRange(field string, v, lo, hi float64) error {
	if err := checkFinite(field, v); err != nil {
		return err
	}
	if v < lo || v > hi {
		return NewValidationError(field, "%g outside [%g, %g]", v, lo, hi)
	}
	return nil
}

func checkNonNegative(field string, v float64) error {
	if err := checkFinite(field, v); err != nil {
		return err
	}
	if v < 0 {
		return NewValidationError(field, "must be non-negative, got %g", v)
	}
	return nil
}

// Validate checks a product's invariants.
func (p Product) Validate() error {
	if p.SKU == "" {
		return NewValidationError("sku", "is required")
	}
	field := func(name string) string { return fmt.Sprintf("%s.%s", p.SKU, name) }

	if p.Warehouse == "" {
		return NewValidationError(field("warehouse"), "is required")
	}
	if p.Category == "" {
		return NewValidationError(field("product_category"), "is required")
	}
	for name, v := range map[string]int{
		"current_stock":       p.CurrentStock,
		"forecast_demand":     p.ForecastDemand,
		"actual_demand":       p.ActualDemand,
		"production_capacity": p.ProductionCapacity,
	} {
		if v < 0 {
			return NewValidationError(field(name), "must be non-negative, got %d", v)
		}
	}
	if err := checkNonNegative(field("unit_cost"), p.UnitCost); err != nil {
		return err
	}
	if err := checkRange(field("holding_cost_rate"), p.HoldingCostRate, 0, 1); err != nil {
		return err
	}
	if err := checkNonNegative(field("stockout_penalty"), p.StockoutPenalty); err != nil {
		return err
	}
	if p.LeadTimeDays < 1 {
		return NewValidationError(field("lead_time_days"), "must be at least 1, got %d", p.LeadTimeDays)
	}
	if p.ShelfLifeDays < 1 {
		return NewValidationError(field("shelf_life_days"), "must be at least 1, got %d", p.ShelfLifeDays)
	}
	return nil
}

// Validate checks a supplier's invariants.
func (s Supplier) Validate() error {
	if s.SupplierID == "" {
		return NewValidationError("supplier_id", "is required")
	}
	if s.MaterialType == "" {
		return NewValidationError(s.SupplierID+".material_type", "is required")
	}
	if err := checkRange(s.SupplierID+".reliability_score", s.ReliabilityScore, 0, 1); err != nil {
		return err
	}
	if s.LeadTimeDays < 1 {
		return NewValidationError(s.SupplierID+".lead_time_days", "must be at least 1, got %d", s.LeadTimeDays)
	}
	if s.MOQ < 1 {
		return NewValidationError(s.SupplierID+".moq", "must be at least 1, got %d", s.MOQ)
	}
	if err := checkNonNegative(s.SupplierID+".unit_price", s.UnitPrice); err != nil {
		return err
	}
	return checkRange(s.SupplierID+".quality_rating", s.QualityRating, 0, 10)
}

// Validate checks a factory constraint's invariants.
func (c ProductionConstraint) Validate() error {
	if c.FactoryLocation == "" {
		return NewValidationError("factory_location", "is required")
	}
	if c.WeeklyCapacity < 0 {
		return NewValidationError(c.FactoryLocation+".weekly_capacity", "must be non-negative, got %d", c.WeeklyCapacity)
	}
	if err := checkRange(c.FactoryLocation+".efficiency_rate", c.EfficiencyRate, 0, 1); err != nil {
		return err
	}
	return checkNonNegative(c.FactoryLocation+".production_cost_per_unit", c.ProductionCostPerUnit)
}

// Validate checks the scenario bounds.
func (s Scenario) Validate() error {
	if err := checkRange("demand_surge_factor", s.DemandSurgeFactor, 0.5, 3.0); err != nil {
		return err
	}
	return checkRange("capacity_utilization_target", s.CapacityUtilizationTarget, 0.5, 1.0)
}

// ValidateProducts requires a non-empty list of valid products with unique SKUs.
func ValidateProducts(products []Product) error {
	if len(products) == 0 {
		return NewValidationError("sku_data", "at least one product is required")
	}
	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		if err := p.Validate(); err != nil {
			return err
		}
		if _, dup := seen[p.SKU]; dup {
			return NewValidationError("sku_data", "duplicate sku %q", p.SKU)
		}
		seen[p.SKU] = struct{}{}
	}
	return nil
}

// ValidateSuppliers requires valid suppliers with unique supplier/material pairs.
// An empty list is allowed; callers that need suppliers check the length themselves.
func ValidateSuppliers(suppliers []Supplier) error {
	seen := make(map[string]struct{}, len(suppliers))
	for _, s := range suppliers {
		if err := s.Validate(); err != nil {
			return err
		}
		if _, dup := seen[s.Key()]; dup {
			return NewValidationError("suppliers", "duplicate supplier/material pair %q", s.Key())
		}
		seen[s.Key()] = struct{}{}
	}
	return nil
}

// ValidateFactories requires a non-empty list of valid factories with unique locations.
func ValidateFactories(factories []ProductionConstraint) error {
	if len(factories) == 0 {
		return NewValidationError("production_constraints", "at least one factory is required")
	}
	seen := make(map[string]struct{}, len(factories))
	for _, c := range factories {
		if err := c.Validate(); err != nil {
			return err
		}
		if _, dup := seen[c.FactoryLocation]; dup {
			return NewValidationError("production_constraints", "duplicate factory %q", c.FactoryLocation)
		}
		seen[c.FactoryLocation] = struct{}{}
	}
	return nil
}

// ValidateServiceLevel requires p in [0.8, 1.0).
func ValidateServiceLevel(p float64) error {
	if err := checkFinite("service_level_target", p); err != nil {
		return err
	}
	if p < MinServiceLevel || p >= MaxServiceLevel {
		return NewValidationError("service_level_target", "%g outside [%g, %g)", p, MinServiceLevel, MaxServiceLevel)
	}
	return nil
}

// ValidateFestivalMultiplier requires m in [1.0, 2.0].
func ValidateFestivalMultiplier(m float64) error {
	return checkRange("festival_demand_multiplier", m, MinFestivalMultiplier, MaxFestivalMultiplier)
}
