package forecasting

import (
	"fmt"
	"math"

	"github.com/aristath/supplyopt/internal/domain"
	"github.com/aristath/supplyopt/pkg/formulas"
)

// ConfidenceInterval is the 95% band around one ensemble forecast
type ConfidenceInterval struct {
	SKU             string  `json:"sku"`
	Forecast        float64 `json:"forecast"`
	UpperBound      float64 `json:"upperBound"`
	LowerBound      float64 `json:"lowerBound"`
	ConfidenceLevel float64 `json:"confidenceLevel"`
	MAPE            float64 `json:"mape"`
}

// Accuracy holds the global forecast error metrics
type Accuracy struct {
	Valid    bool    `json:"valid"`
	Message  string  `json:"message,omitempty"`
	MAE      float64 `json:"mae"`
	MAPE     float64 `json:"mape"`
	RMSE     float64 `json:"rmse"`
	Bias     float64 `json:"bias"`
	Accuracy float64 `json:"accuracy"`
	Quality  string  `json:"forecastQuality,omitempty"`
}

// Volatility summarises the coefficient of variation across products
type Volatility struct {
	Average      float64        `json:"averageVolatility"`
	Max          float64        `json:"maxVolatility"`
	Min          float64        `json:"minVolatility"`
	Volatile     []string       `json:"volatileProducts"`
	Stable       []string       `json:"stableProducts"`
	Distribution map[string]int `json:"volatilityDistribution"`
}

// PercentError is |forecast − actual| / max(actual, 1) · 100. A product
// without a forecast contributes 0.
func PercentError(p domain.Product) float64 {
	if p.ForecastDemand == 0 {
		return 0
	}
	diff := math.Abs(float64(p.ForecastDemand - p.ActualDemand))
	return diff / math.Max(float64(p.ActualDemand), 1) * 100
}

// VariationCoefficient is |forecast − actual| / forecast, 0 without a forecast.
func VariationCoefficient(p domain.Product) float64 {
	if p.ForecastDemand == 0 {
		return 0
	}
	return math.Abs(float64(p.ForecastDemand-p.ActualDemand)) / float64(p.ForecastDemand)
}

// QualityLabel grades a MAPE value.
func QualityLabel(mape float64) string {
	switch {
	case mape < 10:
		return "Excellent"
	case mape < 20:
		return "Good"
	case mape < 30:
		return "Fair"
	default:
		return "Poor"
	}
}

// ConfidenceIntervals computes the 95% band of every ensemble forecast from
// the product's historical percentage error.
func ConfidenceIntervals(products []domain.Product, ensemble []EnsembleForecast) []ConfidenceInterval {
	out := make([]ConfidenceInterval, 0, len(ensemble))
	for i, ef := range ensemble {
		mape := PercentError(products[i])
		margin := ef.EnsembleForecast * (mape / 100) * 1.96
		out = append(out, ConfidenceInterval{
			SKU:             ef.SKU,
			Forecast:        ef.EnsembleForecast,
			UpperBound:      formulas.RoundUnits(ef.EnsembleForecast + margin),
			LowerBound:      formulas.RoundUnits(math.Max(0, ef.EnsembleForecast-margin)),
			ConfidenceLevel: formulas.Round(math.Max(0.5, 1-mape/100), 2),
			MAPE:            formulas.Round(mape, 2),
		})
	}
	return out
}

// ComputeAccuracy reports MAE, MAPE, RMSE and bias of the supplied forecasts.
// When no product carries a forecast the report is marked invalid.
func ComputeAccuracy(products []domain.Product) Accuracy {
	hasForecast := false
	for _, p := range products {
		if p.ForecastDemand != 0 {
			hasForecast = true
			break
		}
	}
	if !hasForecast {
		return Accuracy{Message: "No valid forecast data"}
	}

	forecast := make([]float64, len(products))
	actual := make([]float64, len(products))
	pct := make([]float64, len(products))
	for i, p := range products {
		forecast[i] = float64(p.ForecastDemand)
		actual[i] = float64(p.ActualDemand)
		pct[i] = PercentError(p)
	}

	errs := formulas.ForecastErrors(forecast, actual)
	mape := formulas.Mean(pct)
	return Accuracy{
		Valid:    true,
		MAE:      formulas.Round(errs.MAE, 2),
		MAPE:     formulas.Round(mape, 2),
		RMSE:     formulas.Round(errs.RMSE, 2),
		Bias:     formulas.Round(errs.Bias, 2),
		Accuracy: formulas.Round(math.Max(0, 100-mape), 2),
		Quality:  QualityLabel(mape),
	}
}

// ComputeVolatility classifies products by coefficient of variation:
// low < 0.1 ≤ medium < 0.3 ≤ high.
func ComputeVolatility(products []domain.Product) Volatility {
	cvs := make([]float64, len(products))
	out := Volatility{
		Volatile:     []string{},
		Stable:       []string{},
		Distribution: map[string]int{"low": 0, "medium": 0, "high": 0},
	}
	for i, p := range products {
		cv := VariationCoefficient(p)
		cvs[i] = cv
		switch {
		case cv < 0.1:
			out.Distribution["low"]++
			out.Stable = append(out.Stable, p.SKU)
		case cv < 0.3:
			out.Distribution["medium"]++
		default:
			out.Distribution["high"]++
		}
		if cv > 0.3 {
			out.Volatile = append(out.Volatile, p.SKU)
		}
	}
	out.Average = formulas.Round(formulas.Mean(cvs), 3)
	out.Max = formulas.Round(formulas.Max(cvs), 3)
	out.Min = formulas.Round(formulas.Min(cvs), 3)
	return out
}

func recommendations(products []domain.Product) []string {
	var recs []string
	n := float64(len(products))

	highError, volatile, festival, zeroDemand := 0, 0, 0, 0
	for _, p := range products {
		if p.ForecastDemand != 0 && math.Abs(float64(p.ForecastDemand-p.ActualDemand)) > float64(p.ActualDemand)*0.3 {
			highError++
		}
		if VariationCoefficient(p) > 0.3 {
			volatile++
		}
		if p.IsFestivalSensitive {
			festival++
		}
		if p.ActualDemand == 0 {
			zeroDemand++
		}
	}

	if float64(highError) > n*0.3 {
		recs = append(recs, "Implement advanced forecasting algorithms - high forecast errors detected")
	}
	if volatile > 0 {
		recs = append(recs, fmt.Sprintf("Implement demand sensing for %d high-volatility products", volatile))
	}
	if festival > 0 {
		recs = append(recs, fmt.Sprintf("Activate festival planning for %d sensitive products", festival))
	}
	if zeroDemand > 0 {
		recs = append(recs, "Review data quality - zero demand values detected")
	}
	return append(recs,
		"Implement collaborative forecasting with sales teams",
		"Consider external factors (weather, events) in forecasting",
		"Establish forecast review and adjustment processes",
		"Monitor forecast accuracy KPIs weekly",
	)
}
