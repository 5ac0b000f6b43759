package planning

import (
	"context"
	"fmt"

	"github.com/aristath/supplyopt/internal/domain"
	"github.com/aristath/supplyopt/internal/modules/forecasting"
	"github.com/aristath/supplyopt/internal/modules/materials"
	"github.com/aristath/supplyopt/internal/modules/optimization"
	"github.com/aristath/supplyopt/pkg/formulas"
)

// Festival build-up parameters
const (
	sensitiveBuffer     = 0.2
	sensitiveWeeks      = 4
	regularBuffer       = 0.1
	regularWeeks        = 2
	highPriorityGap     = 0.5
	overCapacityPct     = 100
	nearCapacityPct     = 85
	FestivalScenarioTag = "festival"
)

// ProductionNeed is the festival demand of one product
type ProductionNeed struct {
	SKU                  string  `json:"sku"`
	BaseDemand           int     `json:"baseDemand"`
	FestivalDemand       float64 `json:"festivalDemand"`
	AdditionalProduction float64 `json:"additionalProduction"`
	IsFestivalSensitive  bool    `json:"isFestivalSensitive"`
}

// ProductionNeeds compares festival demand with factory capacity
type ProductionNeeds struct {
	Needs               []ProductionNeed `json:"productionNeeds"`
	TotalFestivalDemand float64          `json:"totalFestivalDemand"`
	TotalCapacity       int              `json:"totalCapacity"`
	CapacityUtilization float64          `json:"capacityUtilization"`
	CapacityShortfall   float64          `json:"capacityShortfall"`
	RecommendedActions  []string         `json:"recommendedActions"`
}

// BuildupItem is the pre-festival stock build of one product
type BuildupItem struct {
	SKU                 string  `json:"sku"`
	CurrentStock        int     `json:"currentStock"`
	FestivalDemand      float64 `json:"festivalDemand"`
	RequiredInventory   float64 `json:"requiredInventory"`
	InventoryGap        float64 `json:"inventoryGap"`
	BuildupWeeks        int     `json:"buildupWeeks"`
	WeeklyBuildupTarget float64 `json:"weeklyBuildupTarget"`
}

// InventoryBuildup is the stock build plan ahead of the festival
type InventoryBuildup struct {
	Plan                   []BuildupItem `json:"buildupPlan"`
	TotalInventoryGap      float64       `json:"totalInventoryGap"`
	HighPriorityItems      []BuildupItem `json:"highPriorityItems"`
	TimelineRecommendation string        `json:"timelineRecommendation"`
}

// MaterialPlan is the raw material needed for festival production
type MaterialPlan struct {
	Requirements       []materials.Requirement `json:"materialRequirements"`
	ProcurementLead    string                  `json:"procurementLead"`
	SupplierActivation string                  `json:"supplierActivation"`
	InventoryBuffer    string                  `json:"inventoryBuffer"`
}

// Subcontracting says whether external capacity is needed
type Subcontracting struct {
	IsRequired          bool     `json:"isRequired"`
	ShortfallVolume     float64  `json:"shortfallVolume,omitempty"`
	RecommendedPartners []string `json:"recommendedPartners,omitempty"`
	LeadTimeRequired    string   `json:"leadTimeRequired,omitempty"`
	QualityChecks       string   `json:"qualityChecks,omitempty"`
	CostImpact          string   `json:"costImpact,omitempty"`
	Message             string   `json:"message,omitempty"`
	ContingencyPlan     string   `json:"contingencyPlan,omitempty"`
}

// FestivalPlan is the full preparation plan for a festival surge
type FestivalPlan struct {
	SnapshotID       string                         `json:"snapshotId"`
	Forecast         *forecasting.Report            `json:"festivalForecast"`
	ProductionNeeds  ProductionNeeds                `json:"productionSchedule"`
	ProductionSolve  *optimization.ProductionResult `json:"productionPlan"`
	InventoryBuildup InventoryBuildup               `json:"inventoryBuildup"`
	Subcontracting   Subcontracting                 `json:"subcontractingNeeds"`
	Materials        MaterialPlan                   `json:"materialRequirements"`
	Timeline         []TimelinePhase                `json:"timeline"`
}

// FestivalScenario solves production at the festival surge with all
// capacity available.
func FestivalScenario(multiplier float64) domain.Scenario {
	return domain.Scenario{
		Name:                      FestivalScenarioTag,
		DemandSurgeFactor:         multiplier,
		CapacityUtilizationTarget: 1.0,
		IncludeSubcontracting:     true,
	}
}

// PlanFestivalDemand composes the festival forecast, capacity check,
// production solve, inventory build-up, materials and timeline.
func (s *Service) PlanFestivalDemand(ctx context.Context, products []domain.Product, multiplier float64, factories []domain.ProductionConstraint) (*FestivalPlan, error) {
	if err := domain.ValidateFactories(factories); err != nil {
		return nil, err
	}
	forecast, err := s.forecaster.ForecastDemand(products, multiplier)
	if err != nil {
		return nil, err
	}
	solve, err := s.production.OptimizeProductionInventory(ctx, products, factories, FestivalScenario(multiplier))
	if err != nil {
		return nil, fmt.Errorf("festival production plan: %w", err)
	}

	id, err := SnapshotID(domain.Snapshot{Products: products, Factories: factories, FestivalMultiplier: multiplier})
	if err != nil {
		return nil, err
	}

	needs := FestivalProductionNeeds(products, multiplier, factories)
	plan := &FestivalPlan{
		SnapshotID:       id,
		Forecast:         forecast,
		ProductionNeeds:  needs,
		ProductionSolve:  solve,
		InventoryBuildup: PlanInventoryBuildup(products, multiplier),
		Subcontracting:   AssessSubcontracting(needs.CapacityShortfall),
		Materials: MaterialPlan{
			Requirements:       s.translator.FestivalRequirements(products, multiplier).Sorted(),
			ProcurementLead:    "2-3 weeks for critical materials",
			SupplierActivation: "Activate backup suppliers for peak demand",
			InventoryBuffer:    "Maintain 15% buffer for critical materials",
		},
		Timeline: FestivalTimeline(),
	}

	s.log.Info().
		Float64("multiplier", multiplier).
		Float64("utilization", needs.CapacityUtilization).
		Str("solve_status", string(solve.Status)).
		Msg("Festival plan ready")

	return plan, nil
}

// FestivalProductionNeeds compares total festival demand with total weekly
// factory capacity.
func FestivalProductionNeeds(products []domain.Product, multiplier float64, factories []domain.ProductionConstraint) ProductionNeeds {
	capacity := 0
	for _, f := range factories {
		capacity += f.WeeklyCapacity
	}

	out := ProductionNeeds{Needs: make([]ProductionNeed, 0, len(products)), TotalCapacity: capacity}
	total := 0.0
	for _, p := range products {
		demand := materials.FestivalDemand(p, multiplier)
		total += demand
		out.Needs = append(out.Needs, ProductionNeed{
			SKU:                  p.SKU,
			BaseDemand:           p.ActualDemand,
			FestivalDemand:       formulas.RoundUnits(demand),
			AdditionalProduction: formulas.RoundUnits(demand - float64(p.ActualDemand)),
			IsFestivalSensitive:  p.IsFestivalSensitive,
		})
	}

	utilization := formulas.SafeDiv(total, float64(capacity), 0) * 100
	out.TotalFestivalDemand = formulas.RoundUnits(total)
	out.CapacityUtilization = formulas.Round(utilization, 2)
	out.CapacityShortfall = formulas.Round(max(0, total-float64(capacity)), 2)
	out.RecommendedActions = CapacityActions(utilization)
	return out
}

// CapacityActions grades festival utilization: over 100%, over 85% or sufficient.
func CapacityActions(utilization float64) []string {
	switch {
	case utilization > overCapacityPct:
		return []string{
			"Immediate subcontracting required",
			"Consider emergency capacity expansion",
			"Activate all available production lines",
		}
	case utilization > nearCapacityPct:
		return []string{
			"Prepare subcontracting agreements",
			"Optimize production schedules",
			"Monitor capacity closely",
		}
	default:
		return []string{
			"Internal capacity sufficient",
			"Maintain production flexibility",
			"Monitor demand changes",
		}
	}
}

// PlanInventoryBuildup sizes the stock needed before the festival: festival
// demand plus a 20% buffer over 4 weeks for sensitive products, 10% over 2
// weeks otherwise.
func PlanInventoryBuildup(products []domain.Product, multiplier float64) InventoryBuildup {
	out := InventoryBuildup{
		Plan:                   make([]BuildupItem, 0, len(products)),
		HighPriorityItems:      []BuildupItem{},
		TimelineRecommendation: "Start inventory buildup 4-6 weeks before festival",
	}
	gaps := make([]float64, 0, len(products))
	for _, p := range products {
		demand := materials.FestivalDemand(p, multiplier)
		buffer, weeks := regularBuffer, regularWeeks
		if p.IsFestivalSensitive {
			buffer, weeks = sensitiveBuffer, sensitiveWeeks
		}
		required := demand * (1 + buffer)
		gap := max(0, required-float64(p.CurrentStock))

		item := BuildupItem{
			SKU:                 p.SKU,
			CurrentStock:        p.CurrentStock,
			FestivalDemand:      formulas.RoundUnits(demand),
			RequiredInventory:   formulas.RoundUnits(required),
			InventoryGap:        formulas.RoundUnits(gap),
			BuildupWeeks:        weeks,
			WeeklyBuildupTarget: formulas.RoundUnits(gap / float64(weeks)),
		}
		out.Plan = append(out.Plan, item)
		gaps = append(gaps, item.InventoryGap)
		if item.InventoryGap > item.FestivalDemand*highPriorityGap {
			out.HighPriorityItems = append(out.HighPriorityItems, item)
		}
	}
	out.TotalInventoryGap = formulas.Sum(gaps)
	return out
}

// AssessSubcontracting recommends external partners when festival demand
// exceeds capacity.
func AssessSubcontracting(shortfall float64) Subcontracting {
	if shortfall <= 0 {
		return Subcontracting{
			Message:         "Internal capacity sufficient for festival demand",
			ContingencyPlan: "Keep subcontractors on standby",
		}
	}
	return Subcontracting{
		IsRequired:          true,
		ShortfallVolume:     shortfall,
		RecommendedPartners: []string{"Partner A", "Partner B", "Partner C"},
		LeadTimeRequired:    "3-4 weeks",
		QualityChecks:       "Enhanced QC protocols required",
		CostImpact:          fmt.Sprintf("Estimated 15-20%% cost increase for %g units", shortfall),
	}
}
