// Package optimization builds the production/inventory and procurement
// programs and turns their solutions into plans.
package optimization

import (
	"context"
	"fmt"
	"math"

	"github.com/aristath/supplyopt/internal/domain"
	"github.com/aristath/supplyopt/internal/solver"
	"github.com/aristath/supplyopt/pkg/formulas"
	"github.com/rs/zerolog"
)

// DemandFloorRatio is the share of surged demand that must be produced.
const DemandFloorRatio = 0.9

// Inventory plan actions
const (
	ActionIncrease = "Increase"
	ActionDecrease = "Decrease"
)

// ProductionLine is the production of one SKU split across factories
type ProductionLine struct {
	SKU                string         `json:"sku"`
	FactoryAllocations map[string]int `json:"factoryAllocations"`
	TotalProduction    int            `json:"totalProduction"`
}

// InventoryLine is the end-of-period inventory of one SKU
type InventoryLine struct {
	SKU              string `json:"sku"`
	CurrentStock     int    `json:"currentStock"`
	OptimalInventory int    `json:"optimalInventory"`
	Shortage         int    `json:"shortage"`
	Recommendation   string `json:"recommendation"`
}

// ScenarioAnalysis describes the scenario a plan was solved under
type ScenarioAnalysis struct {
	ScenarioName    string           `json:"scenarioName"`
	DemandImpact    string           `json:"demandImpact"`
	CapacityTarget  string           `json:"capacityTarget"`
	RiskLevel       domain.RiskLevel `json:"riskLevel"`
	Recommendations []string         `json:"recommendations"`
}

// KPIs summarises an optimal plan
type KPIs struct {
	TotalPlannedProduction    int     `json:"totalPlannedProduction"`
	InventoryOptimizationGain float64 `json:"inventoryOptimizationGain"`
	ProductionEfficiency      float64 `json:"productionEfficiency"`
	InventoryTurnover         float64 `json:"inventoryTurnover"`
}

// CostBreakdown splits the objective of an optimal plan
type CostBreakdown struct {
	Production float64 `json:"productionCost"`
	Holding    float64 `json:"holdingCost"`
	Shortage   float64 `json:"shortagePenalty"`
}

// ProductionResult is the outcome of a production/inventory solve.
// Plans are empty and the cost is 0 unless Status is Optimal.
type ProductionResult struct {
	Status           domain.SolveStatus `json:"status"`
	Message          string             `json:"message,omitempty"`
	ProductionPlan   []ProductionLine   `json:"productionPlan"`
	InventoryPlan    []InventoryLine    `json:"inventoryPlan"`
	TotalCost        float64            `json:"totalCost"`
	Costs            CostBreakdown      `json:"costBreakdown"`
	Recommendations  []string           `json:"recommendations"`
	ScenarioAnalysis ScenarioAnalysis   `json:"scenarioAnalysis"`
	KPIs             KPIs               `json:"kpis"`
}

// ProductionOptimizer plans production and inventory at minimum cost
type ProductionOptimizer struct {
	runner *solver.Runner
	log    zerolog.Logger
}

// NewProductionOptimizer creates a production/inventory optimizer.
func NewProductionOptimizer(runner *solver.Runner, log zerolog.Logger) *ProductionOptimizer {
	return &ProductionOptimizer{
		runner: runner,
		log:    log.With().Str("component", "production_optimizer").Logger(),
	}
}

// ProductionVars indexes the decision variables of the production model
type ProductionVars struct {
	Prod     [][]int // [product][factory]
	Inv      []int
	Shortage []int
}

// SurgedDemand is actual demand × surge rounded up to whole units.
func SurgedDemand(p domain.Product, surge float64) float64 {
	return math.Ceil(float64(p.ActualDemand)*surge - 1e-9)
}

// BuildProductionModel builds the production/inventory program:
//
//	min Σ prod·cost_per_unit + Σ inv·unit_cost·holding_rate + Σ shortage·penalty
//	Σ_sku prod[sku,f]  ≤ weekly_capacity·utilization      per factory
//	Σ_f prod[sku,f]    ≥ actual·surge·0.9                 per product
//	shortage + inv     ≥ actual                           per product
//	inv − Σ_f prod     = current − ⌈actual·surge⌉         per product
//
// All variables are integers, so the solver rounds the capacity rows down
// and the demand floors up.
func BuildProductionModel(products []domain.Product, factories []domain.ProductionConstraint, scenario domain.Scenario) (*solver.Model, ProductionVars) {
	m := solver.NewModel("production_inventory")
	vars := ProductionVars{
		Prod:     make([][]int, len(products)),
		Inv:      make([]int, len(products)),
		Shortage: make([]int, len(products)),
	}

	for i, p := range products {
		vars.Prod[i] = make([]int, len(factories))
		for j, f := range factories {
			vars.Prod[i][j] = m.AddVar(fmt.Sprintf("prod[%s@%s]", p.SKU, f.FactoryLocation), solver.Integer, f.ProductionCostPerUnit)
		}
		vars.Inv[i] = m.AddVar(fmt.Sprintf("inv[%s]", p.SKU), solver.Integer, p.UnitCost*p.HoldingCostRate)
		vars.Shortage[i] = m.AddVar(fmt.Sprintf("short[%s]", p.SKU), solver.Integer, p.StockoutPenalty)
	}

	for j, f := range factories {
		terms := make([]solver.Term, len(products))
		for i := range products {
			terms[i] = solver.T(vars.Prod[i][j], 1)
		}
		m.AddConstraint("capacity["+f.FactoryLocation+"]", solver.LessEq,
			float64(f.WeeklyCapacity)*scenario.CapacityUtilizationTarget, terms...)
	}

	for i, p := range products {
		supply := make([]solver.Term, len(factories))
		balance := make([]solver.Term, 0, len(factories)+1)
		balance = append(balance, solver.T(vars.Inv[i], 1))
		for j := range factories {
			supply[j] = solver.T(vars.Prod[i][j], 1)
			balance = append(balance, solver.T(vars.Prod[i][j], -1))
		}
		actual := float64(p.ActualDemand)

		m.AddConstraint("demand_floor["+p.SKU+"]", solver.GreaterEq,
			actual*scenario.DemandSurgeFactor*DemandFloorRatio, supply...)
		m.AddConstraint("shortage["+p.SKU+"]", solver.GreaterEq, actual,
			solver.T(vars.Shortage[i], 1), solver.T(vars.Inv[i], 1))
		m.AddConstraint("balance["+p.SKU+"]", solver.Equal,
			float64(p.CurrentStock)-SurgedDemand(p, scenario.DemandSurgeFactor), balance...)
	}

	return m, vars
}

// OptimizeProductionInventory solves the production/inventory program for
// the scenario. Solver failures are reported through the result status.
func (o *ProductionOptimizer) OptimizeProductionInventory(
	ctx context.Context,
	products []domain.Product,
	factories []domain.ProductionConstraint,
	scenario domain.Scenario,
) (*ProductionResult, error) {
	if err := domain.ValidateProducts(products); err != nil {
		return nil, err
	}
	if err := domain.ValidateFactories(factories); err != nil {
		return nil, err
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}

	m, vars := BuildProductionModel(products, factories, scenario)
	sol, err := o.runner.Run(ctx, m)
	status := solver.StatusOf(sol, err)

	result := &ProductionResult{
		Status:           status,
		ProductionPlan:   []ProductionLine{},
		InventoryPlan:    []InventoryLine{},
		Recommendations:  []string{},
		ScenarioAnalysis: AnalyzeScenario(scenario),
	}
	if status != domain.SolveOptimal {
		result.Message = "Optimization failed"
		if err != nil {
			result.Message = fmt.Sprintf("Optimization failed: %v", err)
		}
		o.log.Warn().
			Str("status", string(status)).
			Str("scenario", scenario.Name).
			Msg("Production optimization not optimal")
		return result, nil
	}

	total := 0
	var prodCost, holdCost, shortCost []float64
	for i, p := range products {
		line := ProductionLine{SKU: p.SKU, FactoryAllocations: make(map[string]int, len(factories))}
		for j, f := range factories {
			q := sol.IntValue(vars.Prod[i][j])
			line.FactoryAllocations[f.FactoryLocation] = q
			line.TotalProduction += q
			prodCost = append(prodCost, float64(q)*f.ProductionCostPerUnit)
		}
		total += line.TotalProduction
		result.ProductionPlan = append(result.ProductionPlan, line)

		optimal := sol.IntValue(vars.Inv[i])
		shortage := sol.IntValue(vars.Shortage[i])
		holdCost = append(holdCost, float64(optimal)*p.UnitCost*p.HoldingCostRate)
		shortCost = append(shortCost, float64(shortage)*p.StockoutPenalty)
		action := ActionDecrease
		if optimal > p.CurrentStock {
			action = ActionIncrease
		}
		result.InventoryPlan = append(result.InventoryPlan, InventoryLine{
			SKU:              p.SKU,
			CurrentStock:     p.CurrentStock,
			OptimalInventory: optimal,
			Shortage:         shortage,
			Recommendation:   action,
		})
	}

	result.TotalCost = formulas.RoundMoney(sol.Objective)
	result.Costs = CostBreakdown{
		Production: formulas.SumMoney(prodCost...),
		Holding:    formulas.SumMoney(holdCost...),
		Shortage:   formulas.SumMoney(shortCost...),
	}
	result.Recommendations = ProductionRecommendations(total, result.InventoryPlan, scenario)
	result.KPIs = ComputeKPIs(products, result.ProductionPlan, result.InventoryPlan)

	o.log.Debug().
		Int("products", len(products)).
		Int("factories", len(factories)).
		Int("total_production", total).
		Float64("total_cost", result.TotalCost).
		Msg("Production plan optimized")

	return result, nil
}
