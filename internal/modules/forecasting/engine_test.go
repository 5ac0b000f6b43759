package forecasting

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/aristath/supplyopt/internal/domain"
	"github.com/aristath/supplyopt/internal/tables"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(sku, warehouse, category string, stock, forecast, actual int, festival bool) domain.Product {
	return domain.Product{
		SKU:                 sku,
		Warehouse:           warehouse,
		Category:            category,
		CurrentStock:        stock,
		ForecastDemand:      forecast,
		ActualDemand:        actual,
		UnitCost:            10,
		HoldingCostRate:     domain.DefaultHoldingCostRate,
		StockoutPenalty:     domain.DefaultStockoutPenalty,
		LeadTimeDays:        domain.DefaultLeadTimeDays,
		ShelfLifeDays:       domain.DefaultShelfLifeDays,
		IsFestivalSensitive: festival,
	}
}

func sampleProducts() []domain.Product {
	return []domain.Product{
		product("SNK-1", "Delhi", "Snacks", 120, 100, 110, true),
		product("SNK-2", "Mumbai", "Snacks", 80, 90, 70, true),
		product("BEV-1", "Delhi", "Beverages", 300, 250, 260, false),
		product("BEV-2", "Chennai", "Beverages", 40, 60, 95, false),
		product("MISC-1", "Mumbai", "Toys", 10, 0, 15, false),
	}
}

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(tables.Default(), domain.Q3, zerolog.Nop(), opts...)
	require.NoError(t, err)
	return e
}

type failingRegressor struct{}

func (failingRegressor) Fit([][]float64, []float64) error { return errors.New("boom") }
func (failingRegressor) Predict(X [][]float64) ([]float64, error) {
	return nil, errors.New("not fitted")
}

type panickingRegressor struct{}

func (panickingRegressor) Fit([][]float64, []float64) error { panic("bad data") }
func (panickingRegressor) Predict([][]float64) ([]float64, error) {
	return nil, nil
}

func TestNewEngine_Validation(t *testing.T) {
	_, err := NewEngine(nil, domain.Q3, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewEngine(tables.Default(), domain.Quarter("Q7"), zerolog.Nop())
	assert.Error(t, err)

	_, err = NewEngine(tables.Default(), domain.Q1, zerolog.Nop(), WithWeights(Weights{Base: 0.5, Festival: 0.5, Learned: 0.5}))
	assert.Error(t, err)

	_, err = NewEngine(tables.Default(), domain.Q1, zerolog.Nop(), WithWeights(Weights{Base: -0.2, Festival: 0.6, Learned: 0.6}))
	assert.Error(t, err)
}

func TestForecastDemand_RejectsBadMultiplier(t *testing.T) {
	_, err := newEngine(t).ForecastDemand(sampleProducts(), 2.5)
	assert.True(t, domain.IsValidationError(err))
}

func TestBaseForecasts(t *testing.T) {
	base := BaseForecasts([]domain.Product{
		product("A", "Delhi", "Snacks", 0, 80, 100, false),
		product("B", "Delhi", "Snacks", 0, 0, 40, false),
	})

	assert.Equal(t, 94.0, base[0].BaseForecast) // 0.7*100 + 0.3*80
	assert.Equal(t, 1.25, base[0].TrendFactor)
	assert.Equal(t, 125.0, base[0].NextPeriodForecast)

	assert.Equal(t, 1.0, base[1].TrendFactor)
	assert.Equal(t, 28.0, base[1].BaseForecast)
	assert.Equal(t, 40.0, base[1].NextPeriodForecast)
}

func TestBaseForecasts_FixedPointWhenForecastMatchesActual(t *testing.T) {
	for _, d := range []int{1, 7, 100, 12345} {
		base := BaseForecasts([]domain.Product{product("A", "Delhi", "Snacks", 0, d, d, false)})
		assert.Equal(t, 1.0, base[0].TrendFactor)
		assert.Equal(t, float64(d), base[0].BaseForecast)
		assert.Equal(t, float64(d), base[0].NextPeriodForecast)
	}
}

func TestFestivalForecasts(t *testing.T) {
	products := []domain.Product{
		product("A", "Delhi", "Snacks", 0, 100, 100, true),
		product("B", "Delhi", "Snacks", 0, 100, 100, false),
	}
	festival := FestivalForecasts(products, BaseForecasts(products), 1.45)

	assert.Equal(t, 145.0, festival[0].FestivalForecast)
	assert.Equal(t, 1.45, festival[0].SurgeFactor)
	assert.Equal(t, 110.0, festival[1].FestivalForecast)
	assert.Equal(t, 1.1, festival[1].SurgeFactor)
}

func TestForecastDemand_EnsembleWithinComponentBounds(t *testing.T) {
	report, err := newEngine(t).ForecastDemand(sampleProducts(), 1.45)
	require.NoError(t, err)
	require.Len(t, report.Ensemble, 5)

	for _, ef := range report.Ensemble {
		lo := math.Min(ef.Components.Base, math.Min(ef.Components.Festival, ef.Components.Learned))
		hi := math.Max(ef.Components.Base, math.Max(ef.Components.Festival, ef.Components.Learned))
		assert.GreaterOrEqual(t, ef.EnsembleForecast, lo, ef.SKU)
		assert.LessOrEqual(t, ef.EnsembleForecast, hi, ef.SKU)
		assert.Equal(t, DefaultWeights(), ef.Weights)
	}
}

func TestForecastDemand_EnsembleBoundsHoldForCustomWeights(t *testing.T) {
	for _, w := range []Weights{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {0.2, 0.2, 0.6}} {
		report, err := newEngine(t, WithWeights(w)).ForecastDemand(sampleProducts(), 2.0)
		require.NoError(t, err)
		for _, ef := range report.Ensemble {
			lo := math.Min(ef.Components.Base, math.Min(ef.Components.Festival, ef.Components.Learned))
			hi := math.Max(ef.Components.Base, math.Max(ef.Components.Festival, ef.Components.Learned))
			assert.True(t, ef.EnsembleForecast >= lo && ef.EnsembleForecast <= hi, fmt.Sprintf("%+v %s", w, ef.SKU))
		}
	}
}

func TestForecastDemand_LearnedFallbacks(t *testing.T) {
	products := sampleProducts()

	report, err := newEngine(t).ForecastDemand(products[:2], 1.45)
	require.NoError(t, err)
	for i, lf := range report.Learned {
		assert.Equal(t, float64(products[i].ActualDemand), lf.Forecast)
		assert.Equal(t, 0.7, lf.Confidence)
		assert.Equal(t, FallbackInsufficientSamples, lf.Fallback)
	}

	for _, factory := range []func() Regressor{
		func() Regressor { return failingRegressor{} },
		func() Regressor { return panickingRegressor{} },
	} {
		report, err = newEngine(t, WithRegressor(factory)).ForecastDemand(products, 1.45)
		require.NoError(t, err)
		for i, lf := range report.Learned {
			assert.Equal(t, float64(products[i].ActualDemand), lf.Forecast)
			assert.Equal(t, 0.5, lf.Confidence)
			assert.Equal(t, FallbackTrainingFailed, lf.Fallback)
		}
	}
}

func TestForecastDemand_LearnedModel(t *testing.T) {
	report, err := newEngine(t).ForecastDemand(sampleProducts(), 1.45)
	require.NoError(t, err)

	for _, lf := range report.Learned {
		assert.Empty(t, lf.Fallback)
		assert.GreaterOrEqual(t, lf.Forecast, 0.0)
		assert.GreaterOrEqual(t, lf.Confidence, 0.6)
		assert.LessOrEqual(t, lf.Confidence, 0.95)
		assert.Equal(t, math.Round(lf.Forecast), lf.Forecast)
	}
}

func TestForecastDemand_SeasonalUsesConfiguredQuarter(t *testing.T) {
	e, err := NewEngine(tables.Default(), domain.Q4, zerolog.Nop())
	require.NoError(t, err)

	report, err := e.ForecastDemand(sampleProducts(), 1.45)
	require.NoError(t, err)

	assert.Equal(t, domain.Q4, report.Seasonal.CurrentQuarter)
	assert.Equal(t, 0.8, report.Seasonal.Categories["Snacks"].CurrentSeasonality)
	assert.Equal(t, 0.5, report.Seasonal.Categories["Beverages"].CurrentSeasonality)
	assert.Equal(t, 1.0, report.Seasonal.Categories["Toys"].CurrentSeasonality)
	assert.Equal(t, 1.3, report.Seasonal.Categories["Toys"].FestivalImpact)
}

func TestRidge_RecoversLinearRelation(t *testing.T) {
	X := [][]float64{{1, 5}, {2, 5}, {3, 5}, {4, 5}, {5, 5}, {6, 5}}
	y := []float64{3, 5, 7, 9, 11, 13}

	r := NewRidge(1e-6)
	require.NoError(t, r.Fit(X, y))
	preds, err := r.Predict(X)
	require.NoError(t, err)
	for i := range y {
		assert.InDelta(t, y[i], preds[i], 1e-3)
	}
}

func TestRidge_Errors(t *testing.T) {
	_, err := NewRidge(1).Predict([][]float64{{1}})
	assert.Error(t, err)

	assert.Error(t, NewRidge(1).Fit(nil, nil))
	assert.Error(t, NewRidge(0).Fit([][]float64{{1}, {2}}, []float64{1, 2}))
	assert.Error(t, NewRidge(1).Fit([][]float64{{1, 2}, {2}}, []float64{1, 2}))
}

func TestDictionary_StableCodes(t *testing.T) {
	d := NewDictionary([]string{"Mumbai", "Delhi", "Mumbai", "Chennai"})
	assert.Equal(t, 3, d.Len())
	assert.Equal(t, 0, d.Code("Chennai"))
	assert.Equal(t, 1, d.Code("Delhi"))
	assert.Equal(t, 2, d.Code("Mumbai"))
	assert.Equal(t, -1, d.Code("Pune"))
}

func TestLearnedConfidence(t *testing.T) {
	assert.Equal(t, 0.95, LearnedConfidence(100, 100))
	assert.Equal(t, 0.6, LearnedConfidence(0, 100))
	assert.InDelta(t, 0.9, LearnedConfidence(90, 100), 1e-9)
}
