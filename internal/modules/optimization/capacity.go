package optimization

import (
	"fmt"

	"github.com/aristath/supplyopt/internal/domain"
	"github.com/aristath/supplyopt/pkg/formulas"
)

// Capacity review thresholds
const (
	minEfficiencyRate = 0.8
	minWeeklyCapacity = 80
)

// FactoryAllocation is the share of total demand assigned to one factory
type FactoryAllocation struct {
	Factory           string  `json:"factory"`
	AllocatedDemand   float64 `json:"allocatedDemand"`
	AvailableCapacity float64 `json:"availableCapacity"`
	UtilizationRate   float64 `json:"utilizationRate"`
	CostPerUnit       float64 `json:"costPerUnit"`
}

// CapacityAllocation splits total demand across factories in proportion to
// their usable capacity
type CapacityAllocation struct {
	Allocations        []FactoryAllocation `json:"factoryAllocations"`
	TotalDemand        float64             `json:"totalDemand"`
	TotalCapacity      float64             `json:"totalCapacity"`
	OverallUtilization float64             `json:"overallUtilization"`
	Recommendations    []string            `json:"recommendations"`
}

// AllocateCapacity distributes total actual demand over factories by their
// capacity × utilization. It is a heuristic and does not call the solver.
func AllocateCapacity(products []domain.Product, factories []domain.ProductionConstraint, utilization float64) (*CapacityAllocation, error) {
	if err := domain.ValidateProducts(products); err != nil {
		return nil, err
	}
	if err := domain.ValidateFactories(factories); err != nil {
		return nil, err
	}
	if utilization < 0.5 || utilization > 1.0 {
		return nil, domain.NewValidationError("capacity_utilization_target", "must be in [0.5, 1.0], got %g", utilization)
	}

	demand := 0.0
	for _, p := range products {
		demand += float64(p.ActualDemand)
	}
	capacities := make([]float64, len(factories))
	total := 0.0
	for i, f := range factories {
		capacities[i] = float64(f.WeeklyCapacity) * utilization
		total += capacities[i]
	}

	out := &CapacityAllocation{
		Allocations:   make([]FactoryAllocation, 0, len(factories)),
		TotalDemand:   demand,
		TotalCapacity: formulas.Round(total, 2),
	}
	for i, f := range factories {
		allocated := formulas.RoundUnits(formulas.SafeDiv(capacities[i], total, 0) * demand)
		out.Allocations = append(out.Allocations, FactoryAllocation{
			Factory:           f.FactoryLocation,
			AllocatedDemand:   allocated,
			AvailableCapacity: formulas.Round(capacities[i], 2),
			UtilizationRate:   formulas.Round(formulas.SafeDiv(allocated, capacities[i], 0)*100, 2),
			CostPerUnit:       f.ProductionCostPerUnit,
		})
	}
	out.OverallUtilization = formulas.Round(formulas.SafeDiv(demand, total, 0)*100, 2)
	out.Recommendations = CapacityRecommendations(factories)
	return out, nil
}

// CapacityRecommendations flags factories with low efficiency or small capacity.
func CapacityRecommendations(factories []domain.ProductionConstraint) []string {
	recs := []string{}
	for _, f := range factories {
		if f.EfficiencyRate < minEfficiencyRate {
			recs = append(recs, fmt.Sprintf("Improve efficiency at %s factory", f.FactoryLocation))
		}
		if f.WeeklyCapacity < minWeeklyCapacity {
			recs = append(recs, fmt.Sprintf("Consider capacity expansion at %s", f.FactoryLocation))
		}
	}
	return recs
}
