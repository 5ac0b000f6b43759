package optimization

import (
	"fmt"

	"github.com/aristath/supplyopt/internal/domain"
	"github.com/aristath/supplyopt/pkg/formulas"
)

// Scenario surge thresholds
const (
	surgeHighRisk     = 1.4
	surgeMediumRisk   = 1.1
	surgeRecommend    = 1.2
	surgeMonitor      = 1.3
	surgeContingency  = 1.5
	increaseShareWarn = 0.5
)

// ScenarioRisk grades a demand surge: High above 1.4, Medium above 1.1.
func ScenarioRisk(surge float64) domain.RiskLevel {
	switch {
	case surge > surgeHighRisk:
		return domain.RiskHigh
	case surge > surgeMediumRisk:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

// AnalyzeScenario describes the expected impact of a scenario.
func AnalyzeScenario(s domain.Scenario) ScenarioAnalysis {
	recs := make([]string, 0, 3)
	if s.DemandSurgeFactor > surgeMonitor {
		recs = append(recs, "Monitor demand patterns closely")
	} else {
		recs = append(recs, "Standard monitoring sufficient")
	}
	if s.DemandSurgeFactor > surgeContingency {
		recs = append(recs, "Activate contingency plans")
	} else {
		recs = append(recs, "Normal operations")
	}
	if s.EmergencyProcurement {
		recs = append(recs, "Consider emergency procurement")
	} else {
		recs = append(recs, "Standard procurement")
	}

	return ScenarioAnalysis{
		ScenarioName:    s.Name,
		DemandImpact:    fmt.Sprintf("%.1f%% demand change", (s.DemandSurgeFactor-1)*100),
		CapacityTarget:  fmt.Sprintf("%.1f%% utilization target", s.CapacityUtilizationTarget*100),
		RiskLevel:       ScenarioRisk(s.DemandSurgeFactor),
		Recommendations: recs,
	}
}

// ProductionRecommendations turns an optimal plan into planner guidance.
func ProductionRecommendations(totalProduction int, inventory []InventoryLine, s domain.Scenario) []string {
	recs := []string{}
	if totalProduction == 0 {
		recs = append(recs, "No production scheduled. Review demand forecasts and capacity constraints.")
	}

	increase := 0
	for _, line := range inventory {
		if line.Recommendation == ActionIncrease {
			increase++
		}
	}
	if len(inventory) > 0 && float64(increase) > float64(len(inventory))*increaseShareWarn {
		recs = append(recs, "Majority of products need inventory increase. Consider capacity expansion.")
	}
	if s.DemandSurgeFactor > surgeRecommend {
		recs = append(recs, "High demand surge detected. Consider emergency procurement and subcontracting.")
	}
	if !s.IncludeSubcontracting {
		recs = append(recs, "Enable subcontracting option for better demand fulfillment during peaks.")
	}
	return recs
}

// ComputeKPIs summarises an optimal plan. Ratios with a zero denominator are 0.
func ComputeKPIs(products []domain.Product, production []ProductionLine, inventory []InventoryLine) KPIs {
	total := 0
	for _, line := range production {
		total += line.TotalProduction
	}
	current, optimal := 0, 0
	for _, line := range inventory {
		current += line.CurrentStock
		optimal += line.OptimalInventory
	}

	gain := formulas.SafeDiv(float64(optimal-current), float64(current), 0) * 100
	efficiency := float64(total) / float64(max(1, len(products)))
	turnover := formulas.SafeDiv(float64(total), float64(optimal), 0)

	return KPIs{
		TotalPlannedProduction:    total,
		InventoryOptimizationGain: formulas.Round(gain, 2),
		ProductionEfficiency:      formulas.Round(efficiency, 2),
		InventoryTurnover:         formulas.Round(turnover, 2),
	}
}
