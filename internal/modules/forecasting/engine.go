// Package forecasting produces per-product demand forecasts: a trend-smoothed
// base, a festival-adjusted series, a learned regression series and their
// weighted ensemble, with confidence bands and accuracy metrics.
package forecasting

import (
	"fmt"
	"math"

	"github.com/aristath/supplyopt/internal/domain"
	"github.com/aristath/supplyopt/internal/tables"
	"github.com/aristath/supplyopt/pkg/formulas"
	"github.com/rs/zerolog"
)

// nonFestivalSurge is the uplift applied to products that are not festival sensitive.
const nonFestivalSurge = 1.1

// Weights blends the three component forecasts into the ensemble
type Weights struct {
	Base     float64 `json:"baseWeight"`
	Festival float64 `json:"festivalWeight"`
	Learned  float64 `json:"mlWeight"`
}

// DefaultWeights returns 0.3 base, 0.4 festival, 0.3 learned.
func DefaultWeights() Weights {
	return Weights{Base: 0.3, Festival: 0.4, Learned: 0.3}
}

// Validate requires non-negative weights that sum to 1.
func (w Weights) Validate() error {
	if w.Base < 0 || w.Festival < 0 || w.Learned < 0 {
		return fmt.Errorf("ensemble weights must be non-negative: %+v", w)
	}
	if sum := w.Base + w.Festival + w.Learned; math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("ensemble weights must sum to 1, got %g", sum)
	}
	return nil
}

// BaseForecast is the trend-smoothed forecast of one product
type BaseForecast struct {
	SKU                string  `json:"sku"`
	Warehouse          string  `json:"warehouse"`
	BaseForecast       float64 `json:"baseForecast"`
	TrendFactor        float64 `json:"trendFactor"`
	NextPeriodForecast float64 `json:"nextPeriodForecast"`
}

// FestivalForecast is the base forecast lifted by the festival surge
type FestivalForecast struct {
	SKU                 string  `json:"sku"`
	Warehouse           string  `json:"warehouse"`
	FestivalForecast    float64 `json:"festivalForecast"`
	SurgeFactor         float64 `json:"surgeFactor"`
	IsFestivalSensitive bool    `json:"isFestivalSensitive"`
	BaseForecast        float64 `json:"baseForecast"`
}

// EnsembleForecast is the weighted blend of the three component forecasts
type EnsembleForecast struct {
	SKU              string     `json:"sku"`
	Warehouse        string     `json:"warehouse"`
	EnsembleForecast float64    `json:"ensembleForecast"`
	Weights          Weights    `json:"weights"`
	Components       Components `json:"components"`
}

// Components are the inputs of one ensemble value
type Components struct {
	Base     float64 `json:"base"`
	Festival float64 `json:"festival"`
	Learned  float64 `json:"ml"`
}

// Report is the full forecast output for a product list
type Report struct {
	CurrentQuarter      domain.Quarter       `json:"currentQuarter"`
	FestivalMultiplier  float64              `json:"festivalMultiplier"`
	Base                []BaseForecast       `json:"baseForecast"`
	Festival            []FestivalForecast   `json:"festivalAdjusted"`
	Learned             []LearnedForecast    `json:"mlForecast"`
	Ensemble            []EnsembleForecast   `json:"ensembleForecast"`
	Seasonal            SeasonalReport       `json:"seasonalPatterns"`
	ConfidenceIntervals []ConfidenceInterval `json:"confidenceIntervals"`
	Accuracy            Accuracy             `json:"forecastAccuracy"`
	Volatility          Volatility           `json:"demandVolatility"`
	Recommendations     []string             `json:"recommendations"`
}

// Engine produces forecast reports
type Engine struct {
	tables       *tables.Tables
	quarter      domain.Quarter
	weights      Weights
	newRegressor func() Regressor
	log          zerolog.Logger
}

// Option customises an Engine
type Option func(*Engine)

// WithWeights overrides the ensemble weights.
func WithWeights(w Weights) Option {
	return func(e *Engine) { e.weights = w }
}

// WithRegressor overrides the learned model. The factory is called once per
// forecast so no fitted state is shared between calls.
func WithRegressor(factory func() Regressor) Option {
	return func(e *Engine) { e.newRegressor = factory }
}

// NewEngine creates a forecast engine for the given quarter.
func NewEngine(tbl *tables.Tables, quarter domain.Quarter, log zerolog.Logger, opts ...Option) (*Engine, error) {
	if tbl == nil {
		return nil, fmt.Errorf("lookup tables are required")
	}
	if !quarter.Valid() {
		return nil, fmt.Errorf("invalid quarter %q", quarter)
	}
	e := &Engine{
		tables:       tbl,
		quarter:      quarter,
		weights:      DefaultWeights(),
		newRegressor: func() Regressor { return NewRidge(DefaultRidgeLambda) },
		log:          log.With().Str("component", "forecasting").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.weights.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Quarter returns the quarter used for seasonal lookups.
func (e *Engine) Quarter() domain.Quarter { return e.quarter }

// ForecastDemand forecasts every product. festivalMultiplier must lie in [1.0, 2.0].
func (e *Engine) ForecastDemand(products []domain.Product, festivalMultiplier float64) (*Report, error) {
	if err := domain.ValidateFestivalMultiplier(festivalMultiplier); err != nil {
		return nil, err
	}
	if err := domain.ValidateProducts(products); err != nil {
		return nil, err
	}

	base := BaseForecasts(products)
	festival := FestivalForecasts(products, base, festivalMultiplier)
	learned := e.learnedForecasts(products)
	ensemble := e.ensemble(base, festival, learned)

	report := &Report{
		CurrentQuarter:      e.quarter,
		FestivalMultiplier:  festivalMultiplier,
		Base:                base,
		Festival:            festival,
		Learned:             learned,
		Ensemble:            ensemble,
		Seasonal:            e.seasonalPatterns(products),
		ConfidenceIntervals: ConfidenceIntervals(products, ensemble),
		Accuracy:            ComputeAccuracy(products),
		Volatility:          ComputeVolatility(products),
		Recommendations:     recommendations(products),
	}

	e.log.Debug().
		Int("products", len(products)).
		Float64("festival_multiplier", festivalMultiplier).
		Str("quarter", string(e.quarter)).
		Msg("Generated demand forecast")

	return report, nil
}

// BaseForecasts computes the trend-smoothed forecast of every product:
// base = round(0.7·actual + 0.3·forecast), trend = actual/forecast (1 when
// forecast is 0), next = round(actual·trend).
func BaseForecasts(products []domain.Product) []BaseForecast {
	out := make([]BaseForecast, 0, len(products))
	for _, p := range products {
		actual := float64(p.ActualDemand)
		trend := formulas.SafeDiv(actual, float64(p.ForecastDemand), 1.0)
		out = append(out, BaseForecast{
			SKU:                p.SKU,
			Warehouse:          p.Warehouse,
			BaseForecast:       formulas.RoundUnits(0.7*actual + 0.3*float64(p.ForecastDemand)),
			TrendFactor:        formulas.Round(trend, 3),
			NextPeriodForecast: formulas.RoundUnits(actual * trend),
		})
	}
	return out
}

// FestivalForecasts lifts each base forecast by the festival multiplier, or by
// 1.1 for products that are not festival sensitive.
func FestivalForecasts(products []domain.Product, base []BaseForecast, multiplier float64) []FestivalForecast {
	out := make([]FestivalForecast, 0, len(products))
	for i, p := range products {
		surge := nonFestivalSurge
		if p.IsFestivalSensitive {
			surge = multiplier
		}
		out = append(out, FestivalForecast{
			SKU:                 p.SKU,
			Warehouse:           p.Warehouse,
			FestivalForecast:    formulas.RoundUnits(base[i].BaseForecast * surge),
			SurgeFactor:         formulas.Round(surge, 2),
			IsFestivalSensitive: p.IsFestivalSensitive,
			BaseForecast:        base[i].BaseForecast,
		})
	}
	return out
}

func (e *Engine) ensemble(base []BaseForecast, festival []FestivalForecast, learned []LearnedForecast) []EnsembleForecast {
	out := make([]EnsembleForecast, 0, len(base))
	for i := range base {
		c := Components{
			Base:     base[i].BaseForecast,
			Festival: festival[i].FestivalForecast,
			Learned:  learned[i].Forecast,
		}
		value := e.weights.Base*c.Base + e.weights.Festival*c.Festival + e.weights.Learned*c.Learned
		out = append(out, EnsembleForecast{
			SKU:              base[i].SKU,
			Warehouse:        base[i].Warehouse,
			EnsembleForecast: formulas.RoundUnits(value),
			Weights:          e.weights,
			Components:       c,
		})
	}
	return out
}
