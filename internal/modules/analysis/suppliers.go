package analysis

import (
	"sort"

	"github.com/aristath/supplyopt/internal/domain"
	"github.com/aristath/supplyopt/internal/modules/optimization"
	"github.com/aristath/supplyopt/pkg/formulas"
)

// Supplier review thresholds
const (
	reliableScore   = 0.8
	longLeadTime    = 14
	highMOQ         = 1000
	stockRiskFactor = 0.5
)

// SupplierPerformance is the weighted performance score of one supplier
type SupplierPerformance struct {
	domain.Supplier
	OverallScore float64 `json:"overall_score"`
}

// SupplierReport summarises supplier performance
type SupplierReport struct {
	Rankings           []SupplierPerformance `json:"supplierRankings"`
	Unreliable         []string              `json:"unreliableSuppliers"`
	HighLeadTime       []string              `json:"highLeadTimeSuppliers"`
	AverageReliability float64               `json:"averageReliability"`
	AverageLeadTime    float64               `json:"averageLeadTime"`
	Recommendations    []string              `json:"recommendations"`
}

// PerformanceScore is 0.4·reliability + 0.3·quality/10 + 0.2/lead + 0.1/price.
// A zero price scores 1.0 on the price term.
func PerformanceScore(s domain.Supplier) float64 {
	return 0.4*s.ReliabilityScore +
		0.3*(s.QualityRating/10) +
		0.2*formulas.SafeDiv(1, float64(s.LeadTimeDays), 1) +
		0.1*formulas.SafeDiv(1, s.UnitPrice, 1)
}

// Suppliers ranks suppliers by performance and flags weak ones. It returns
// nil for an empty list.
func (a *Analyzer) Suppliers(suppliers []domain.Supplier) (*SupplierReport, error) {
	if err := domain.ValidateSuppliers(suppliers); err != nil {
		return nil, err
	}
	if len(suppliers) == 0 {
		return nil, nil
	}

	r := &SupplierReport{
		Rankings:     make([]SupplierPerformance, 0, len(suppliers)),
		Unreliable:   []string{},
		HighLeadTime: []string{},
	}
	reliability := make([]float64, len(suppliers))
	lead := make([]float64, len(suppliers))
	highMOQCount := 0
	for i, s := range suppliers {
		r.Rankings = append(r.Rankings, SupplierPerformance{Supplier: s, OverallScore: formulas.Round(PerformanceScore(s), 4)})
		reliability[i] = s.ReliabilityScore
		lead[i] = float64(s.LeadTimeDays)
		if s.ReliabilityScore < reliableScore {
			r.Unreliable = append(r.Unreliable, s.SupplierID)
		}
		if s.LeadTimeDays > longLeadTime {
			r.HighLeadTime = append(r.HighLeadTime, s.SupplierID)
		}
		if s.MOQ > highMOQ {
			highMOQCount++
		}
	}
	sort.SliceStable(r.Rankings, func(i, j int) bool {
		return r.Rankings[i].OverallScore > r.Rankings[j].OverallScore
	})

	r.AverageReliability = formulas.Round(formulas.Mean(reliability), 3)
	r.AverageLeadTime = formulas.Round(formulas.Mean(lead), 1)

	if len(r.Unreliable) > 0 {
		r.Recommendations = append(r.Recommendations, "Develop alternate suppliers for unreliable partners")
	}
	if highMOQCount > 0 {
		r.Recommendations = append(r.Recommendations, "Negotiate lower MOQ with high-volume suppliers")
	}
	r.Recommendations = append(r.Recommendations,
		"Implement supplier scorecards for continuous monitoring",
		"Consider long-term contracts with top-performing suppliers",
	)
	return r, nil
}

// CapacityReport summarises factory capacity
type CapacityReport struct {
	TotalWeeklyCapacity int      `json:"totalWeeklyCapacity"`
	AverageEfficiency   float64  `json:"averageEfficiency"`
	Recommendations     []string `json:"capacityUtilizationRecommendations"`
}

// Capacity totals factory capacity and flags weak factories.
func (a *Analyzer) Capacity(factories []domain.ProductionConstraint) CapacityReport {
	r := CapacityReport{}
	eff := make([]float64, len(factories))
	for i, f := range factories {
		r.TotalWeeklyCapacity += f.WeeklyCapacity
		eff[i] = f.EfficiencyRate
	}
	r.AverageEfficiency = formulas.Round(formulas.Mean(eff), 2)
	r.Recommendations = optimization.CapacityRecommendations(factories)
	return r
}

// SupplyRisk is a coarse count of products and suppliers at risk
type SupplyRisk struct {
	HighRiskProducts      int      `json:"highRiskProducts"`
	UnreliableSuppliers   int      `json:"unreliableSuppliers"`
	RiskMitigationActions []string `json:"riskMitigationActions"`
}

// SupplyRisks counts products whose stock is below half the forecast and
// suppliers below 0.8 reliability.
func SupplyRisks(products []domain.Product, suppliers []domain.Supplier) SupplyRisk {
	r := SupplyRisk{}
	for _, p := range products {
		if float64(p.CurrentStock) < float64(p.ForecastDemand)*stockRiskFactor {
			r.HighRiskProducts++
		}
	}
	for _, s := range suppliers {
		if s.ReliabilityScore < reliableScore {
			r.UnreliableSuppliers++
		}
	}
	if r.HighRiskProducts > 0 {
		r.RiskMitigationActions = append(r.RiskMitigationActions, "Implement emergency replenishment for high-risk SKUs")
	}
	if r.UnreliableSuppliers > 0 {
		r.RiskMitigationActions = append(r.RiskMitigationActions, "Diversify supplier base for critical materials")
	}
	r.RiskMitigationActions = append(r.RiskMitigationActions,
		"Establish safety stock buffers",
		"Implement demand sensing technology",
	)
	return r
}
