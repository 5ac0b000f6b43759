package optimization

import (
	"fmt"
	"math"
	"sort"

	"github.com/aristath/supplyopt/internal/domain"
	"github.com/aristath/supplyopt/internal/modules/materials"
	"github.com/aristath/supplyopt/pkg/formulas"
)

// MOQHoldingRate is the holding cost charged on units ordered beyond the requirement.
const MOQHoldingRate = 0.25

// MOQLine is the MOQ-rounded order of one supplier
type MOQLine struct {
	SupplierID       string  `json:"supplierId"`
	MaterialType     string  `json:"materialType"`
	RequiredQuantity float64 `json:"requiredQuantity"`
	MOQ              int     `json:"moq"`
	OptimalOrder     int     `json:"optimalOrder"`
	ExcessQuantity   float64 `json:"excessQuantity"`
	HoldingCost      float64 `json:"holdingCost"`
	TotalCost        float64 `json:"totalCost"`
	CostEfficiency   float64 `json:"costEfficiency"`
}

// MOQAnalysis rounds each requirement up to the supplier's MOQ. It is
// advisory and independent of the procurement solve.
type MOQAnalysis struct {
	Lines                []MOQLine `json:"moqOptimization"`
	TotalOptimalCost     float64   `json:"totalOptimalCost"`
	TotalExcessInventory float64   `json:"totalExcessInventory"`
	Recommendations      []string  `json:"recommendations"`
}

// MOQOrder is the smallest multiple of moq that covers required, and at
// least moq.
func MOQOrder(required float64, moq int) int {
	if moq <= 0 {
		return int(math.Ceil(required))
	}
	if required <= float64(moq) {
		return moq
	}
	return int(math.Ceil(required/float64(moq)-1e-9)) * moq
}

// AnalyzeMOQ computes the MOQ-rounded order of every supplier whose material
// has a positive requirement, most cost-efficient first.
func AnalyzeMOQ(suppliers []domain.Supplier, required materials.Requirements) *MOQAnalysis {
	a := &MOQAnalysis{Lines: []MOQLine{}}
	excessive, inefficient := 0, 0
	costs := make([]float64, 0, len(suppliers))

	for _, s := range suppliers {
		req := required[s.MaterialType]
		if req <= 0 {
			continue
		}
		order := MOQOrder(req, s.MOQ)
		excess := float64(order) - req
		holding := excess * s.UnitPrice * MOQHoldingRate
		total := float64(order)*s.UnitPrice + holding
		efficiency := formulas.SafeDiv(req, float64(order), 0)

		if excess > req*0.5 {
			excessive++
		}
		if efficiency < 0.7 {
			inefficient++
		}
		costs = append(costs, total)
		a.TotalExcessInventory += excess

		a.Lines = append(a.Lines, MOQLine{
			SupplierID:       s.SupplierID,
			MaterialType:     s.MaterialType,
			RequiredQuantity: formulas.Round(req, 2),
			MOQ:              s.MOQ,
			OptimalOrder:     order,
			ExcessQuantity:   formulas.Round(excess, 2),
			HoldingCost:      formulas.RoundMoney(holding),
			TotalCost:        formulas.RoundMoney(total),
			CostEfficiency:   formulas.Round(efficiency, 3),
		})
	}

	sort.SliceStable(a.Lines, func(i, j int) bool {
		return a.Lines[i].CostEfficiency > a.Lines[j].CostEfficiency
	})
	a.TotalOptimalCost = formulas.SumMoney(costs...)
	a.TotalExcessInventory = formulas.Round(a.TotalExcessInventory, 2)
	a.Recommendations = moqRecommendations(excessive, inefficient)
	return a
}

func moqRecommendations(excessive, inefficient int) []string {
	var recs []string
	if excessive > 0 {
		recs = append(recs, fmt.Sprintf("Negotiate lower MOQ with %d suppliers to reduce excess inventory", excessive))
	}
	if inefficient > 0 {
		recs = append(recs, fmt.Sprintf("Review %d suppliers with poor cost efficiency", inefficient))
	}
	return append(recs,
		"Consider consolidating orders to achieve better MOQ efficiency",
		"Explore group purchasing with other companies",
		"Implement vendor-managed inventory for high-volume materials",
	)
}
