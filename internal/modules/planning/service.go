// Package planning composes the statistics, forecasting, optimization, risk
// and analysis engines into whole-snapshot planning operations.
package planning

import (
	"context"
	"fmt"

	"github.com/aristath/supplyopt/internal/config"
	"github.com/aristath/supplyopt/internal/domain"
	"github.com/aristath/supplyopt/internal/modules/analysis"
	"github.com/aristath/supplyopt/internal/modules/forecasting"
	"github.com/aristath/supplyopt/internal/modules/materials"
	"github.com/aristath/supplyopt/internal/modules/optimization"
	"github.com/aristath/supplyopt/internal/modules/risk"
	"github.com/aristath/supplyopt/internal/modules/statistics"
	"github.com/aristath/supplyopt/internal/solver"
	"github.com/aristath/supplyopt/internal/tables"
	"github.com/aristath/supplyopt/pkg/formulas"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Service runs planning operations over a snapshot. It holds no per-request
// state and is safe for concurrent use.
type Service struct {
	safety      *statistics.Engine
	forecaster  *forecasting.Engine
	translator  *materials.Translator
	production  *optimization.ProductionOptimizer
	procurement *optimization.ProcurementOptimizer
	scorer      *risk.Scorer
	analyzer    *analysis.Analyzer
	log         zerolog.Logger
}

// NewService wires every engine from the configuration and lookup tables.
func NewService(cfg *config.Config, tbl *tables.Tables, log zerolog.Logger) (*Service, error) {
	forecaster, err := forecasting.NewEngine(tbl, cfg.Planning.CurrentQuarter, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create forecast engine: %w", err)
	}
	runner := solver.NewRunner(solver.Config{
		Timeout:  cfg.Solver.Timeout,
		MaxNodes: cfg.Solver.MaxNodes,
	}, log)
	translator := materials.NewTranslator(tbl)

	return &Service{
		safety:      statistics.NewEngine(log),
		forecaster:  forecaster,
		translator:  translator,
		production:  optimization.NewProductionOptimizer(runner, log),
		procurement: optimization.NewProcurementOptimizer(runner, translator, log),
		scorer:      risk.NewScorer(log),
		analyzer:    analysis.NewAnalyzer(log),
		log:         log.With().Str("module", "planning").Logger(),
	}, nil
}

// ComputeSafetyStock computes safety stock and reorder points.
func (s *Service) ComputeSafetyStock(products []domain.Product, serviceLevel float64) (*statistics.Report, error) {
	return s.safety.ComputeSafetyStock(products, serviceLevel)
}

// ForecastDemand produces the ensemble demand forecast.
func (s *Service) ForecastDemand(products []domain.Product, festivalMultiplier float64) (*forecasting.Report, error) {
	return s.forecaster.ForecastDemand(products, festivalMultiplier)
}

// OptimizeProductionInventory solves the production/inventory program.
func (s *Service) OptimizeProductionInventory(ctx context.Context, products []domain.Product, factories []domain.ProductionConstraint, scenario domain.Scenario) (*optimization.ProductionResult, error) {
	return s.production.OptimizeProductionInventory(ctx, products, factories, scenario)
}

// OptimizeProcurement solves the procurement program.
func (s *Service) OptimizeProcurement(ctx context.Context, suppliers []domain.Supplier, products []domain.Product, emergency bool) (*optimization.ProcurementResult, error) {
	return s.procurement.OptimizeProcurement(ctx, suppliers, products, emergency)
}

// AllocateCapacity splits demand across factories by capacity.
func (s *Service) AllocateCapacity(products []domain.Product, factories []domain.ProductionConstraint, utilization float64) (*optimization.CapacityAllocation, error) {
	return optimization.AllocateCapacity(products, factories, utilization)
}

// SupplyChainAnalysis is the descriptive picture of a snapshot
type SupplyChainAnalysis struct {
	SnapshotID          string                      `json:"snapshotId"`
	Inventory           *analysis.InventoryAnalysis `json:"inventoryAnalysis"`
	SupplierPerformance *analysis.SupplierReport    `json:"supplierPerformance"`
	SupplierRisk        *risk.Assessment            `json:"supplierRisk"`
	DemandForecast      *forecasting.Report         `json:"demandForecast"`
	SafetyStock         *statistics.Report          `json:"safetyStockRecommendations"`
	Capacity            analysis.CapacityReport     `json:"capacityAnalysis"`
	Risk                analysis.SupplyRisk         `json:"riskAssessment"`
}

// AnalyzeSupplyChain runs the inventory, supplier, forecast and safety stock
// passes concurrently. The first failing pass cancels the rest.
func (s *Service) AnalyzeSupplyChain(ctx context.Context, snap domain.Snapshot) (*SupplyChainAnalysis, error) {
	if err := validateSnapshot(snap); err != nil {
		return nil, err
	}
	id, err := SnapshotID(snap)
	if err != nil {
		return nil, err
	}

	out := &SupplyChainAnalysis{SnapshotID: id}
	g, gctx := errgroup.WithContext(ctx)
	pass := func(fn func() error) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn()
		})
	}

	pass(func() (err error) {
		out.Inventory, err = s.analyzer.Analyze(snap.Products)
		return err
	})
	pass(func() (err error) {
		out.SupplierPerformance, err = s.analyzer.Suppliers(snap.Suppliers)
		return err
	})
	pass(func() (err error) {
		if len(snap.Suppliers) > 0 {
			out.SupplierRisk, err = s.scorer.Assess(snap.Suppliers)
		}
		return err
	})
	pass(func() (err error) {
		out.DemandForecast, err = s.forecaster.ForecastDemand(snap.Products, snap.FestivalMultiplier)
		return err
	})
	pass(func() (err error) {
		out.SafetyStock, err = s.safety.ComputeSafetyStock(snap.Products, snap.ServiceLevel)
		return err
	})
	pass(func() error {
		out.Capacity = s.analyzer.Capacity(snap.Factories)
		out.Risk = analysis.SupplyRisks(snap.Products, snap.Suppliers)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("snapshot_id", id).
		Int("products", len(snap.Products)).
		Int("suppliers", len(snap.Suppliers)).
		Msg("Supply chain analyzed")

	return out, nil
}

// CostAnalysis totals the cost of an optimized snapshot
type CostAnalysis struct {
	Production  float64 `json:"productionCost"`
	Holding     float64 `json:"holdingCost"`
	Shortage    float64 `json:"shortagePenalty"`
	Procurement float64 `json:"procurementCost"`
	Total       float64 `json:"totalCost"`
}

// SupplyChainOptimization is the optimized plan for a snapshot
type SupplyChainOptimization struct {
	SnapshotID         string                           `json:"snapshotId"`
	Scenario           domain.Scenario                  `json:"scenario"`
	CapacityAllocation *optimization.CapacityAllocation `json:"productionAllocation"`
	Production         *optimization.ProductionResult   `json:"inventoryOptimization"`
	Procurement        *optimization.ProcurementResult  `json:"procurementPlan"`
	CostAnalysis       CostAnalysis                     `json:"costAnalysis"`
	KPIs               optimization.KPIs                `json:"performanceMetrics"`
	Recommendations    []string                         `json:"recommendations"`
}

// OptimizeSupplyChain runs the capacity split and the production and
// procurement solves concurrently. Procurement is skipped when the snapshot
// has no suppliers.
func (s *Service) OptimizeSupplyChain(ctx context.Context, snap domain.Snapshot, scenario domain.Scenario) (*SupplyChainOptimization, error) {
	if err := validateSnapshot(snap); err != nil {
		return nil, err
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	id, err := SnapshotID(snap)
	if err != nil {
		return nil, err
	}

	out := &SupplyChainOptimization{SnapshotID: id, Scenario: scenario}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.CapacityAllocation, err = optimization.AllocateCapacity(snap.Products, snap.Factories, scenario.CapacityUtilizationTarget)
		return err
	})
	g.Go(func() (err error) {
		out.Production, err = s.production.OptimizeProductionInventory(gctx, snap.Products, snap.Factories, scenario)
		return err
	})
	if len(snap.Suppliers) > 0 {
		g.Go(func() (err error) {
			out.Procurement, err = s.procurement.OptimizeProcurement(gctx, snap.Suppliers, snap.Products, scenario.EmergencyProcurement)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.CostAnalysis = costAnalysis(out.Production, out.Procurement)
	out.KPIs = out.Production.KPIs
	out.Recommendations = strategicRecommendations(out, snap, scenario)

	s.log.Info().
		Str("snapshot_id", id).
		Str("scenario", scenario.Name).
		Str("production_status", string(out.Production.Status)).
		Float64("total_cost", out.CostAnalysis.Total).
		Msg("Supply chain optimized")

	return out, nil
}

// ProcurementPlan combines the procurement solve with supplier ranking,
// MOQ analysis and supplier risk
type ProcurementPlan struct {
	SnapshotID      string                          `json:"snapshotId"`
	Plan            *optimization.ProcurementResult `json:"procurementPlan"`
	Ranking         *risk.Ranking                   `json:"supplierRanking"`
	MOQ             *optimization.MOQAnalysis       `json:"moqAnalysis"`
	Risk            *risk.Assessment                `json:"riskAssessment"`
	Recommendations []string                        `json:"recommendations"`
}

// ProcurementReport solves procurement for the snapshot and adds the
// advisory supplier analyses.
func (s *Service) ProcurementReport(ctx context.Context, snap domain.Snapshot, emergency bool) (*ProcurementPlan, error) {
	if err := validateSnapshot(snap); err != nil {
		return nil, err
	}
	id, err := SnapshotID(snap)
	if err != nil {
		return nil, err
	}
	plan, err := s.procurement.OptimizeProcurement(ctx, snap.Suppliers, snap.Products, emergency)
	if err != nil {
		return nil, err
	}
	ranking, err := s.scorer.Rank(snap.Suppliers)
	if err != nil {
		return nil, err
	}
	assessment, err := s.scorer.Assess(snap.Suppliers)
	if err != nil {
		return nil, err
	}

	return &ProcurementPlan{
		SnapshotID:      id,
		Plan:            plan,
		Ranking:         ranking,
		MOQ:             optimization.AnalyzeMOQ(snap.Suppliers, s.translator.Requirements(snap.Products)),
		Risk:            assessment,
		Recommendations: optimization.ProcurementRecommendations(snap.Suppliers, emergency),
	}, nil
}

// validateSnapshot checks the lists that every snapshot operation reads.
// Factories are checked individually; callers that need them enforce a
// non-empty list.
func validateSnapshot(snap domain.Snapshot) error {
	if err := domain.ValidateProducts(snap.Products); err != nil {
		return err
	}
	if err := domain.ValidateSuppliers(snap.Suppliers); err != nil {
		return err
	}
	for _, f := range snap.Factories {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func costAnalysis(production *optimization.ProductionResult, procurement *optimization.ProcurementResult) CostAnalysis {
	c := CostAnalysis{
		Production: production.Costs.Production,
		Holding:    production.Costs.Holding,
		Shortage:   production.Costs.Shortage,
	}
	if procurement != nil {
		c.Procurement = procurement.TotalCost
	}
	c.Total = formulas.SumMoney(production.TotalCost, c.Procurement)
	return c
}

func strategicRecommendations(out *SupplyChainOptimization, snap domain.Snapshot, scenario domain.Scenario) []string {
	recs := make([]string, 0)
	seen := make(map[string]struct{})
	add := func(list []string) {
		for _, r := range list {
			if _, dup := seen[r]; dup {
				continue
			}
			seen[r] = struct{}{}
			recs = append(recs, r)
		}
	}

	add(out.Production.Recommendations)
	if out.CapacityAllocation != nil {
		add(out.CapacityAllocation.Recommendations)
	}
	if out.Procurement != nil {
		if len(out.Procurement.UncoveredMaterials) > 0 {
			add([]string{fmt.Sprintf("Source suppliers for %d materials with no supplier", len(out.Procurement.UncoveredMaterials))})
		}
		add(optimization.ProcurementRecommendations(snap.Suppliers, scenario.EmergencyProcurement))
	}
	return recs
}
