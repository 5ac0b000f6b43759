// Package analysis produces descriptive inventory, supplier and capacity
// analytics over a snapshot.
package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/aristath/supplyopt/internal/domain"
	"github.com/aristath/supplyopt/pkg/formulas"
	"github.com/rs/zerolog"
)

// Inventory thresholds
const (
	criticalStockRatio = 0.2
	excessStockRatio   = 2.0
	stockoutRiskRatio  = 0.5
	highVariability    = 0.3
	lowVariability     = 0.1
	slowMovingDays     = 180
	abcClassALimit     = 80.0
	abcClassBLimit     = 95.0
	abcUnitValue       = 100.0
)

// StockPosition is a product flagged as short or in excess
type StockPosition struct {
	SKU          string `json:"sku"`
	Warehouse    string `json:"warehouse"`
	CurrentStock int    `json:"currentStock"`
	ActualDemand int    `json:"actualDemand"`
}

// WarehouseStats aggregates the products held in one warehouse
type WarehouseStats struct {
	Warehouse        string  `json:"warehouse"`
	CurrentStock     int     `json:"currentStock"`
	ForecastDemand   int     `json:"forecastDemand"`
	ActualDemand     int     `json:"actualDemand"`
	ForecastError    int     `json:"forecastError"`
	StockCoverage    float64 `json:"stockCoverage"`
	ForecastAccuracy float64 `json:"forecastAccuracy"`
}

// CategoryStats aggregates the products of one category
type CategoryStats struct {
	Category            string  `json:"productCategory"`
	CurrentStock        int     `json:"currentStock"`
	ForecastDemand      int     `json:"forecastDemand"`
	ActualDemand        int     `json:"actualDemand"`
	ProductionCapacity  int     `json:"productionCapacity"`
	CapacityUtilization float64 `json:"capacityUtilization"`
}

// Variability summarises forecast deviation per product
type Variability struct {
	Average         float64  `json:"averageVariability"`
	HighVariability []string `json:"highVariabilityProducts"`
	Stable          []string `json:"stableProducts"`
}

// ABCItem is the class of one product
type ABCItem struct {
	SKU                  string  `json:"sku"`
	Class                string  `json:"abcClass"`
	CumulativePercentage float64 `json:"cumulativePercentage"`
}

// ABCSummary totals one class
type ABCSummary struct {
	Class       string  `json:"abcClass"`
	Count       int     `json:"count"`
	DemandValue float64 `json:"demandValue"`
}

// ABCClassification ranks products by demand value
type ABCClassification struct {
	Items   []ABCItem    `json:"classification"`
	Summary []ABCSummary `json:"summary"`
}

// ServiceLevels is the mean stock fill rate, capped at 100%
type ServiceLevels struct {
	ByWarehouse map[string]float64 `json:"byWarehouse"`
	ByCategory  map[string]float64 `json:"byCategory"`
	Overall     float64            `json:"overall"`
}

// StockRotation describes how fast stock turns over
type StockRotation struct {
	AverageStockTurns  float64  `json:"averageStockTurns"`
	AverageDaysOfStock float64  `json:"averageDaysOfStock"`
	SlowMoving         []string `json:"slowMovingProducts"`
}

// CapacityUtilization compares demand with product-level capacity
type CapacityUtilization struct {
	Overall             float64  `json:"overallUtilization"`
	UnderUtilized       int      `json:"underUtilizedCapacity"`
	CapacityConstrained []string `json:"capacityConstraints"`
}

// InventoryAnalysis is the descriptive picture of a product list
type InventoryAnalysis struct {
	TotalForecastDemand int                 `json:"totalForecastDemand"`
	TotalActualDemand   int                 `json:"totalActualDemand"`
	TotalStock          int                 `json:"totalStock"`
	ForecastAccuracy    float64             `json:"forecastAccuracy"`
	CriticalShortages   []StockPosition     `json:"criticalShortages"`
	ExcessInventory     []StockPosition     `json:"excessInventory"`
	Warehouses          []WarehouseStats    `json:"warehousePerformance"`
	Categories          []CategoryStats     `json:"categoryAnalysis"`
	Variability         Variability         `json:"demandVariability"`
	ABC                 ABCClassification   `json:"abcClassification"`
	ServiceLevels       ServiceLevels       `json:"serviceLevels"`
	StockRotation       StockRotation       `json:"stockRotation"`
	CapacityUtilization CapacityUtilization `json:"capacityUtilization"`
	Insights            []string            `json:"insight"`
}

// Analyzer computes descriptive analytics
type Analyzer struct {
	log zerolog.Logger
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(log zerolog.Logger) *Analyzer {
	return &Analyzer{log: log.With().Str("component", "inventory_analyzer").Logger()}
}

// Analyze summarises stock, demand and forecast quality across products.
func (a *Analyzer) Analyze(products []domain.Product) (*InventoryAnalysis, error) {
	if err := domain.ValidateProducts(products); err != nil {
		return nil, err
	}

	out := &InventoryAnalysis{
		CriticalShortages: []StockPosition{},
		ExcessInventory:   []StockPosition{},
	}
	forecastError := 0
	for _, p := range products {
		out.TotalForecastDemand += p.ForecastDemand
		out.TotalActualDemand += p.ActualDemand
		out.TotalStock += p.CurrentStock
		forecastError += absInt(p.ForecastDemand - p.ActualDemand)

		pos := StockPosition{SKU: p.SKU, Warehouse: p.Warehouse, CurrentStock: p.CurrentStock, ActualDemand: p.ActualDemand}
		stock, demand := float64(p.CurrentStock), float64(p.ActualDemand)
		if stock < demand*criticalStockRatio {
			out.CriticalShortages = append(out.CriticalShortages, pos)
		}
		if stock > demand*excessStockRatio {
			out.ExcessInventory = append(out.ExcessInventory, pos)
		}
	}

	out.ForecastAccuracy = ForecastAccuracy(out.TotalForecastDemand, forecastError)
	out.Warehouses = warehouseStats(products)
	out.Categories = categoryStats(products)
	out.Variability = demandVariability(products)
	out.ABC = classifyABC(products)
	out.ServiceLevels = serviceLevels(products)
	out.StockRotation = stockRotation(products)
	out.CapacityUtilization = capacityUtilization(products)
	out.Insights = insights(products, out.ForecastAccuracy)

	a.log.Debug().
		Int("products", len(products)).
		Int("critical", len(out.CriticalShortages)).
		Int("excess", len(out.ExcessInventory)).
		Float64("forecast_accuracy", out.ForecastAccuracy).
		Msg("Analyzed inventory")

	return out, nil
}

// ForecastAccuracy is 100·(1 − Σ|error| / Σforecast), or 100 when nothing was forecast.
func ForecastAccuracy(totalForecast, totalError int) float64 {
	if totalForecast <= 0 {
		return 100
	}
	return formulas.Round(100*(1-float64(totalError)/float64(totalForecast)), 2)
}

// FillRate is min(stock/demand, 1)·100. Zero demand is fully served.
func FillRate(stock, demand int) float64 {
	if demand <= 0 {
		return 100
	}
	return math.Min(float64(stock)/float64(demand), 1) * 100
}

func warehouseStats(products []domain.Product) []WarehouseStats {
	index := make(map[string]int)
	var out []WarehouseStats
	for _, p := range products {
		i, ok := index[p.Warehouse]
		if !ok {
			i = len(out)
			index[p.Warehouse] = i
			out = append(out, WarehouseStats{Warehouse: p.Warehouse})
		}
		w := &out[i]
		w.CurrentStock += p.CurrentStock
		w.ForecastDemand += p.ForecastDemand
		w.ActualDemand += p.ActualDemand
		w.ForecastError += absInt(p.ForecastDemand - p.ActualDemand)
	}
	for i := range out {
		w := &out[i]
		w.StockCoverage = formulas.Round(formulas.SafeDiv(float64(w.CurrentStock), float64(w.ActualDemand), 0), 2)
		w.ForecastAccuracy = ForecastAccuracy(w.ForecastDemand, w.ForecastError)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Warehouse < out[j].Warehouse })
	return out
}

func categoryStats(products []domain.Product) []CategoryStats {
	index := make(map[string]int)
	var out []CategoryStats
	for _, p := range products {
		i, ok := index[p.Category]
		if !ok {
			i = len(out)
			index[p.Category] = i
			out = append(out, CategoryStats{Category: p.Category})
		}
		c := &out[i]
		c.CurrentStock += p.CurrentStock
		c.ForecastDemand += p.ForecastDemand
		c.ActualDemand += p.ActualDemand
		c.ProductionCapacity += p.ProductionCapacity
	}
	for i := range out {
		c := &out[i]
		c.CapacityUtilization = formulas.Round(formulas.SafeDiv(float64(c.ActualDemand), float64(c.ProductionCapacity), 0)*100, 2)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

func demandVariability(products []domain.Product) Variability {
	v := Variability{HighVariability: []string{}, Stable: []string{}}
	cvs := make([]float64, len(products))
	for i, p := range products {
		cv := formulas.SafeDiv(math.Abs(float64(p.ForecastDemand-p.ActualDemand)), float64(p.ForecastDemand), 0)
		cvs[i] = cv
		switch {
		case cv > highVariability:
			v.HighVariability = append(v.HighVariability, p.SKU)
		case cv < lowVariability:
			v.Stable = append(v.Stable, p.SKU)
		}
	}
	v.Average = formulas.Round(formulas.Mean(cvs), 4)
	return v
}

func classifyABC(products []domain.Product) ABCClassification {
	type valued struct {
		sku   string
		value float64
	}
	items := make([]valued, len(products))
	total := 0.0
	for i, p := range products {
		items[i] = valued{sku: p.SKU, value: float64(p.ActualDemand) * abcUnitValue}
		total += items[i].value
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].value > items[j].value })

	out := ABCClassification{Items: make([]ABCItem, 0, len(items))}
	summary := make(map[string]*ABCSummary)
	cumulative := 0.0
	for _, it := range items {
		cumulative += it.value
		pct := formulas.Round(formulas.SafeDiv(cumulative, total, 0)*100, 2)
		class := "C"
		switch {
		case pct <= abcClassALimit:
			class = "A"
		case pct <= abcClassBLimit:
			class = "B"
		}
		out.Items = append(out.Items, ABCItem{SKU: it.sku, Class: class, CumulativePercentage: pct})

		s, ok := summary[class]
		if !ok {
			s = &ABCSummary{Class: class}
			summary[class] = s
		}
		s.Count++
		s.DemandValue += it.value
	}
	for _, class := range []string{"A", "B", "C"} {
		if s, ok := summary[class]; ok {
			out.Summary = append(out.Summary, *s)
		}
	}
	return out
}

func serviceLevels(products []domain.Product) ServiceLevels {
	byWarehouse := make(map[string][]float64)
	byCategory := make(map[string][]float64)
	all := make([]float64, len(products))
	for i, p := range products {
		rate := FillRate(p.CurrentStock, p.ActualDemand)
		all[i] = rate
		byWarehouse[p.Warehouse] = append(byWarehouse[p.Warehouse], rate)
		byCategory[p.Category] = append(byCategory[p.Category], rate)
	}
	return ServiceLevels{
		ByWarehouse: meanByKey(byWarehouse),
		ByCategory:  meanByKey(byCategory),
		Overall:     formulas.Round(formulas.Mean(all), 2),
	}
}

// stockRotation treats zero stock as zero turns. A product with stock but
// no demand never turns over and counts as slow moving.
func stockRotation(products []domain.Product) StockRotation {
	r := StockRotation{SlowMoving: []string{}}
	turns := make([]float64, len(products))
	days := make([]float64, len(products))
	for i, p := range products {
		stock, demand := float64(p.CurrentStock), float64(p.ActualDemand)
		turns[i] = formulas.SafeDiv(demand, stock, 0)
		days[i] = formulas.SafeDiv(365*stock, demand, 0)
		if days[i] > slowMovingDays || (demand == 0 && stock > 0) {
			r.SlowMoving = append(r.SlowMoving, p.SKU)
		}
	}
	r.AverageStockTurns = formulas.Round(formulas.Mean(turns), 2)
	r.AverageDaysOfStock = formulas.RoundUnits(formulas.Mean(days))
	return r
}

func capacityUtilization(products []domain.Product) CapacityUtilization {
	c := CapacityUtilization{CapacityConstrained: []string{}}
	capacity, demand := 0, 0
	for _, p := range products {
		capacity += p.ProductionCapacity
		demand += p.ActualDemand
		if p.ActualDemand > p.ProductionCapacity {
			c.CapacityConstrained = append(c.CapacityConstrained, p.SKU)
		}
	}
	c.Overall = formulas.Round(formulas.SafeDiv(float64(demand), float64(capacity), 0)*100, 2)
	c.UnderUtilized = max(0, capacity-demand)
	return c
}

func insights(products []domain.Product, accuracy float64) []string {
	out := []string{}
	switch {
	case accuracy < 70:
		out = append(out, "Poor forecast accuracy detected. Consider implementing advanced forecasting methods.")
	case accuracy > 90:
		out = append(out, "Excellent forecast accuracy. Current forecasting methods are performing well.")
	}

	constrained, atRisk := 0, 0
	warehouseShort := make(map[string]bool)
	for _, p := range products {
		if p.ActualDemand > p.ProductionCapacity {
			constrained++
		}
		if float64(p.CurrentStock) < float64(p.ActualDemand)*stockoutRiskRatio {
			atRisk++
		}
		if p.CurrentStock < p.ActualDemand {
			warehouseShort[p.Warehouse] = true
		}
	}
	if constrained > 0 {
		out = append(out, fmt.Sprintf("%d products facing capacity constraints. Consider production optimization.", constrained))
	}
	if atRisk > 0 {
		out = append(out, fmt.Sprintf("%d products at risk of stockout. Implement safety stock policies.", atRisk))
	}
	warehouses := make([]string, 0, len(warehouseShort))
	for w := range warehouseShort {
		warehouses = append(warehouses, w)
	}
	sort.Strings(warehouses)
	for _, w := range warehouses {
		out = append(out, fmt.Sprintf("%s warehouse showing stock shortage patterns. Consider inventory redistribution.", w))
	}
	return out
}

func meanByKey(groups map[string][]float64) map[string]float64 {
	out := make(map[string]float64, len(groups))
	for k, v := range groups {
		out[k] = formulas.Round(formulas.Mean(v), 2)
	}
	return out
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
