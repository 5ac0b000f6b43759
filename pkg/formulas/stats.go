// Package formulas holds the small numeric helpers shared by the planning engines.
// Every helper returns a finite number: empty inputs and zero denominators yield 0.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return Finite(stat.Mean(data, nil))
}

// StdDev calculates the sample standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return Finite(stat.StdDev(data, nil))
}

// Sum adds the values in data.
func Sum(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return Finite(floats.Sum(data))
}

// Max returns the largest value in data, or 0 for an empty slice.
func Max(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return floats.Max(data)
}

// Min returns the smallest value in data, or 0 for an empty slice.
func Min(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return floats.Min(data)
}

// SafeDiv divides num by den and returns fallback when den is zero or the
// result is not finite.
func SafeDiv(num, den, fallback float64) float64 {
	if den == 0 {
		return fallback
	}
	v := num / den
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// Finite replaces NaN and ±Inf with 0.
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// ErrorMetrics summarises the error between paired forecasts and actuals.
type ErrorMetrics struct {
	MAE  float64
	RMSE float64
	Bias float64 // mean(forecast - actual)
}

// ForecastErrors computes MAE, RMSE and bias for paired slices. Mismatched or
// empty inputs produce zero metrics.
func ForecastErrors(forecast, actual []float64) ErrorMetrics {
	if len(forecast) == 0 || len(forecast) != len(actual) {
		return ErrorMetrics{}
	}

	diff := make([]float64, len(forecast))
	abs := make([]float64, len(forecast))
	sq := make([]float64, len(forecast))
	for i := range forecast {
		d := forecast[i] - actual[i]
		diff[i] = d
		abs[i] = math.Abs(d)
		sq[i] = d * d
	}

	return ErrorMetrics{
		MAE:  Mean(abs),
		RMSE: Finite(math.Sqrt(Mean(sq))),
		Bias: Mean(diff),
	}
}
