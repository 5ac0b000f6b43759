package optimization

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/aristath/supplyopt/internal/domain"
	"github.com/aristath/supplyopt/internal/modules/materials"
	"github.com/aristath/supplyopt/internal/solver"
	"github.com/aristath/supplyopt/pkg/formulas"
	"github.com/rs/zerolog"
)

// Emergency procurement terms
const (
	EmergencyPremiumRate     = 0.2
	EmergencyReliabilityGate = 0.7
	EmergencyOrderCap        = 500
)

// OrderLine is one purchase order in a procurement plan
type OrderLine struct {
	SupplierID       string  `json:"supplierId"`
	MaterialType     string  `json:"materialType"`
	OrderQuantity    int     `json:"orderQuantity"`
	UnitPrice        float64 `json:"unitPrice"`
	EmergencyPremium float64 `json:"emergencyPremium"`
	BaseCost         float64 `json:"baseCost"`
	PremiumCost      float64 `json:"premiumCost"`
	TotalCost        float64 `json:"totalCost"`
	LeadTime         int     `json:"leadTime"`
	Reliability      float64 `json:"reliability"`
}

// ProcurementResult is the outcome of a procurement solve.
// Orders are empty and the cost is 0 unless Status is Optimal.
type ProcurementResult struct {
	Status             domain.SolveStatus      `json:"status"`
	Message            string                  `json:"message,omitempty"`
	Orders             []OrderLine             `json:"procurementOrders"`
	TotalCost          float64                 `json:"totalCost"`
	OrderCount         int                     `json:"orderCount"`
	EmergencyMode      bool                    `json:"emergencyMode"`
	Requirements       []materials.Requirement `json:"materialRequirements"`
	UncoveredMaterials []string                `json:"uncoveredMaterials"`
}

// ProcurementOptimizer chooses order quantities per supplier at minimum cost
type ProcurementOptimizer struct {
	runner     *solver.Runner
	translator *materials.Translator
	log        zerolog.Logger
}

// NewProcurementOptimizer creates a procurement optimizer.
func NewProcurementOptimizer(runner *solver.Runner, translator *materials.Translator, log zerolog.Logger) *ProcurementOptimizer {
	return &ProcurementOptimizer{
		runner:     runner,
		translator: translator,
		log:        log.With().Str("component", "procurement_optimizer").Logger(),
	}
}

// ProcurementVars indexes the decision variables of the procurement model
type ProcurementVars struct {
	Order  []int
	Placed []int
}

// UnitCost is the price paid per unit, including the emergency premium.
func UnitCost(s domain.Supplier, emergency bool) float64 {
	if emergency {
		return s.UnitPrice * (1 + EmergencyPremiumRate)
	}
	return s.UnitPrice
}

// OrderLimit bounds an order placed with s: the requirement rounded up, or
// the MOQ when that is larger, capped in emergency mode. An order above it
// covers the requirement alone and can be cut to it at no extra cost.
func OrderLimit(s domain.Supplier, required float64, emergency bool) float64 {
	limit := math.Max(math.Ceil(required-1e-9), float64(s.MOQ))
	if capped(s, emergency) {
		limit = math.Min(limit, EmergencyOrderCap)
	}
	return limit
}

func capped(s domain.Supplier, emergency bool) bool {
	return emergency && s.ReliabilityScore < EmergencyReliabilityGate
}

// BuildProcurementModel builds the procurement program:
//
//	min Σ order·price·(1.2 in emergency)
//	Σ_{s supplies m} order[s]  ≥ required[m]    per material with a supplier
//	order[s] − moq·placed[s]   ≥ 0
//	order[s] − M·placed[s]     ≤ 0
//	order[s]                   ≤ 500            emergency, reliability < 0.7
//
// M is the supplier's OrderLimit. Materials that have demand but no supplier
// are returned as uncovered.
func BuildProcurementModel(suppliers []domain.Supplier, required materials.Requirements, emergency bool) (*solver.Model, ProcurementVars, []string) {
	m := solver.NewModel("procurement")
	vars := ProcurementVars{
		Order:  make([]int, len(suppliers)),
		Placed: make([]int, len(suppliers)),
	}

	byMaterial := make(map[string][]solver.Term)
	for i, s := range suppliers {
		key := s.Key()
		vars.Order[i] = m.AddVar("order["+key+"]", solver.Integer, UnitCost(s, emergency))
		vars.Placed[i] = m.AddVar("placed["+key+"]", solver.Binary, 0)
		byMaterial[s.MaterialType] = append(byMaterial[s.MaterialType], solver.T(vars.Order[i], 1))

		moq := float64(s.MOQ)
		limit := OrderLimit(s, required[s.MaterialType], emergency)
		m.AddConstraint("moq["+key+"]", solver.GreaterEq, 0,
			solver.T(vars.Order[i], 1), solver.T(vars.Placed[i], -moq))
		m.AddConstraint("link["+key+"]", solver.LessEq, 0,
			solver.T(vars.Order[i], 1), solver.T(vars.Placed[i], -limit))

		if capped(s, emergency) {
			m.SetUpper(vars.Order[i], EmergencyOrderCap)
		}
	}

	uncovered := []string{}
	for _, material := range required.Materials() {
		terms, ok := byMaterial[material]
		if !ok {
			if required[material] > 0 {
				uncovered = append(uncovered, material)
			}
			continue
		}
		m.AddConstraint("coverage["+material+"]", solver.GreaterEq, required[material], terms...)
	}

	return m, vars, uncovered
}

// OptimizeProcurement solves the procurement program for the material
// requirements of products. Solver failures are reported through the result
// status.
func (o *ProcurementOptimizer) OptimizeProcurement(
	ctx context.Context,
	suppliers []domain.Supplier,
	products []domain.Product,
	emergency bool,
) (*ProcurementResult, error) {
	if err := domain.ValidateProducts(products); err != nil {
		return nil, err
	}
	if err := domain.ValidateSuppliers(suppliers); err != nil {
		return nil, err
	}
	if len(suppliers) == 0 {
		return nil, domain.NewValidationError("suppliers", "at least one supplier is required")
	}

	required := o.translator.Requirements(products)
	m, vars, uncovered := BuildProcurementModel(suppliers, required, emergency)
	sol, err := o.runner.Run(ctx, m)
	status := solver.StatusOf(sol, err)

	result := &ProcurementResult{
		Status:             status,
		Orders:             []OrderLine{},
		EmergencyMode:      emergency,
		Requirements:       required.Sorted(),
		UncoveredMaterials: uncovered,
	}
	if len(uncovered) > 0 {
		o.log.Warn().Strs("materials", uncovered).Msg("Materials have demand but no supplier")
	}
	if status != domain.SolveOptimal {
		result.Message = "Procurement optimization failed"
		if err != nil {
			result.Message = fmt.Sprintf("Procurement optimization failed: %v", err)
		}
		o.log.Warn().
			Str("status", string(status)).
			Bool("emergency", emergency).
			Msg("Procurement optimization not optimal")
		return result, nil
	}

	for i, s := range suppliers {
		qty := sol.IntValue(vars.Order[i])
		if qty <= 0 {
			continue
		}
		premium := 0.0
		if emergency {
			premium = s.UnitPrice * EmergencyPremiumRate
		}
		base := float64(qty) * s.UnitPrice
		extra := float64(qty) * premium
		result.Orders = append(result.Orders, OrderLine{
			SupplierID:       s.SupplierID,
			MaterialType:     s.MaterialType,
			OrderQuantity:    qty,
			UnitPrice:        s.UnitPrice,
			EmergencyPremium: formulas.RoundMoney(premium),
			BaseCost:         formulas.RoundMoney(base),
			PremiumCost:      formulas.RoundMoney(extra),
			TotalCost:        formulas.SumMoney(base, extra),
			LeadTime:         s.LeadTimeDays,
			Reliability:      s.ReliabilityScore,
		})
	}
	sort.SliceStable(result.Orders, func(i, j int) bool {
		if result.Orders[i].MaterialType != result.Orders[j].MaterialType {
			return result.Orders[i].MaterialType < result.Orders[j].MaterialType
		}
		return result.Orders[i].SupplierID < result.Orders[j].SupplierID
	})
	result.OrderCount = len(result.Orders)
	result.TotalCost = formulas.RoundMoney(sol.Objective)

	o.log.Debug().
		Int("suppliers", len(suppliers)).
		Int("orders", result.OrderCount).
		Float64("total_cost", result.TotalCost).
		Bool("emergency", emergency).
		Msg("Procurement plan optimized")

	return result, nil
}

// ProcurementRecommendations returns the emergency or standard playbook plus
// reliability and lead-time findings.
func ProcurementRecommendations(suppliers []domain.Supplier, emergency bool) []string {
	var recs []string
	if emergency {
		recs = []string{
			"Activate emergency procurement protocols",
			"Contact backup suppliers immediately",
			"Consider air freight for critical materials",
			"Implement daily supplier communication",
		}
	} else {
		recs = []string{
			"Maintain strategic supplier relationships",
			"Optimize order quantities for cost efficiency",
			"Monitor supplier performance continuously",
			"Plan procurement 4-6 weeks in advance",
		}
	}
	if len(suppliers) == 0 {
		return recs
	}

	reliability := make([]float64, len(suppliers))
	slow := 0
	for i, s := range suppliers {
		reliability[i] = s.ReliabilityScore
		if s.LeadTimeDays > 10 {
			slow++
		}
	}
	if formulas.Mean(reliability) < 0.8 {
		recs = append(recs, "Improve supplier reliability through development programs")
	}
	if slow > 0 {
		recs = append(recs, fmt.Sprintf("Work with %d suppliers to reduce lead times", slow))
	}
	return recs
}
