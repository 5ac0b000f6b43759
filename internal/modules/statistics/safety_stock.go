// Package statistics computes safety stock, reorder points and stock status.
package statistics

import (
	"fmt"
	"math"

	"github.com/aristath/supplyopt/internal/domain"
	"github.com/aristath/supplyopt/pkg/formulas"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat/distuv"
)

// SafetyStock is the buffer and reorder point computed for one product
type SafetyStock struct {
	SKU               string             `json:"sku"`
	Warehouse         string             `json:"warehouse"`
	CurrentStock      int                `json:"currentStock"`
	SafetyStockLevel  float64            `json:"safetyStockLevel"`
	ReorderPoint      float64            `json:"reorderPoint"`
	DemandStd         float64            `json:"demandStd"`
	LeadTimeDays      int                `json:"leadTimeDays"`
	ServiceLevel      float64            `json:"serviceLevel"`
	Status            domain.StockStatus `json:"stockStatus"`
	RecommendedAction string             `json:"recommendedAction"`
}

// Report is the safety stock analysis of a product list
type Report struct {
	Levels           []SafetyStock              `json:"safetyStockLevels"`
	TotalSafetyStock float64                    `json:"totalSafetyStock"`
	CriticalItems    int                        `json:"criticalItems"`
	StatusCounts     map[domain.StockStatus]int `json:"statusCounts"`
	ServiceLevel     float64                    `json:"serviceLevel"`
	ZScore           float64                    `json:"zScore"`
	AverageLeadTime  float64                    `json:"averageLeadTime"`
	Recommendations  []string                   `json:"recommendations"`
}

// Engine computes safety stock reports
type Engine struct {
	log zerolog.Logger
}

// NewEngine creates a statistics engine.
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{log: log.With().Str("component", "statistics").Logger()}
}

// ZScore returns the standard normal quantile of p.
func ZScore(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

// Levels holds the unrounded safety stock figures of one product
type Levels struct {
	DemandStd      float64
	LeadTimeFactor float64
	SafetyStock    float64
	ReorderPoint   float64
}

// ComputeLevels applies the safety stock formula to one product:
// SS = z·max(1, |actual − forecast|)·sqrt(lead/7) and ROP = actual·lead/7 + SS.
func ComputeLevels(p domain.Product, z float64) Levels {
	std := math.Max(1, math.Abs(float64(p.ActualDemand-p.ForecastDemand)))
	weeks := float64(p.LeadTimeDays) / 7
	ltf := math.Sqrt(weeks)
	ss := z * std * ltf
	return Levels{
		DemandStd:      std,
		LeadTimeFactor: ltf,
		SafetyStock:    ss,
		ReorderPoint:   float64(p.ActualDemand)*weeks + ss,
	}
}

// Classify places stock in exactly one status band.
func Classify(stock, safetyStock, reorderPoint float64) domain.StockStatus {
	switch {
	case stock <= safetyStock:
		return domain.StockCritical
	case stock <= reorderPoint:
		return domain.StockReorder
	case stock <= reorderPoint*1.5:
		return domain.StockNormal
	default:
		return domain.StockExcess
	}
}

// Recommendation returns the action text for a stock status.
func Recommendation(status domain.StockStatus) string {
	switch status {
	case domain.StockCritical:
		return "URGENT: Emergency replenishment required"
	case domain.StockReorder:
		return "Place order immediately"
	case domain.StockNormal:
		return "Monitor closely"
	default:
		return "Consider reducing stock levels"
	}
}

// ComputeSafetyStock computes safety stock, reorder point and status for every
// product at the given service level. serviceLevel must lie in [0.8, 1.0).
func (e *Engine) ComputeSafetyStock(products []domain.Product, serviceLevel float64) (*Report, error) {
	if err := domain.ValidateServiceLevel(serviceLevel); err != nil {
		return nil, err
	}
	if err := domain.ValidateProducts(products); err != nil {
		return nil, err
	}

	z := ZScore(serviceLevel)
	if math.IsNaN(z) || math.IsInf(z, 0) {
		return nil, fmt.Errorf("z-score for service level %g is not finite", serviceLevel)
	}

	report := &Report{
		Levels:       make([]SafetyStock, 0, len(products)),
		StatusCounts: make(map[domain.StockStatus]int, 4),
		ServiceLevel: serviceLevel,
		ZScore:       formulas.Round(z, 4),
	}
	for _, s := range []domain.StockStatus{domain.StockCritical, domain.StockReorder, domain.StockNormal, domain.StockExcess} {
		report.StatusCounts[s] = 0
	}

	leadTimes := make([]float64, 0, len(products))
	for _, p := range products {
		lv := ComputeLevels(p, z)
		status := Classify(float64(p.CurrentStock), lv.SafetyStock, lv.ReorderPoint)

		item := SafetyStock{
			SKU:               p.SKU,
			Warehouse:         p.Warehouse,
			CurrentStock:      p.CurrentStock,
			SafetyStockLevel:  formulas.RoundUnits(lv.SafetyStock),
			ReorderPoint:      formulas.RoundUnits(lv.ReorderPoint),
			DemandStd:         formulas.Round(lv.DemandStd, 2),
			LeadTimeDays:      p.LeadTimeDays,
			ServiceLevel:      serviceLevel,
			Status:            status,
			RecommendedAction: Recommendation(status),
		}
		report.Levels = append(report.Levels, item)
		report.StatusCounts[status]++
		report.TotalSafetyStock += item.SafetyStockLevel
		leadTimes = append(leadTimes, float64(p.LeadTimeDays))
	}

	report.CriticalItems = report.StatusCounts[domain.StockCritical]
	report.AverageLeadTime = formulas.Round(formulas.Mean(leadTimes), 2)
	report.Recommendations = recommendations(report.StatusCounts, len(products))

	e.log.Debug().
		Int("products", len(products)).
		Float64("service_level", serviceLevel).
		Int("critical", report.CriticalItems).
		Msg("Computed safety stock")

	return report, nil
}

func recommendations(counts map[domain.StockStatus]int, total int) []string {
	var recs []string
	if n := counts[domain.StockCritical]; n > 0 {
		recs = append(recs, fmt.Sprintf("URGENT: %d items below safety stock - initiate emergency procurement", n))
	}
	if n := counts[domain.StockReorder]; n > 0 {
		recs = append(recs, fmt.Sprintf("%d items need reordering - place orders this week", n))
	}
	if float64(counts[domain.StockExcess]) > float64(total)*0.3 {
		recs = append(recs, "High excess inventory detected - review demand forecasts and reorder policies")
	}
	return append(recs,
		"Implement automated reorder point monitoring",
		"Review safety stock levels quarterly",
		"Consider vendor-managed inventory for high-volume items",
	)
}
