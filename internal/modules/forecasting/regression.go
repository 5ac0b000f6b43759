package forecasting

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/aristath/supplyopt/internal/domain"
	"github.com/aristath/supplyopt/pkg/formulas"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Learned-model fallbacks.
const (
	minTrainingSamples           = 3
	insufficientSampleConfidence = 0.7
	trainingFailureConfidence    = 0.5

	FallbackInsufficientSamples = "insufficient_samples"
	FallbackTrainingFailed      = "training_failed"
)

// DefaultRidgeLambda is the L2 penalty of the default regressor.
const DefaultRidgeLambda = 1.0

// Regressor is a model refitted from scratch on every forecast call
type Regressor interface {
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) ([]float64, error)
}

// LearnedForecast is the regression forecast of one product
type LearnedForecast struct {
	SKU        string  `json:"sku"`
	Warehouse  string  `json:"warehouse"`
	Forecast   float64 `json:"mlForecast"`
	Confidence float64 `json:"confidence"`
	Fallback   string  `json:"fallback,omitempty"`
}

// Dictionary assigns stable integer codes to categorical values. Codes follow
// the sorted order of the distinct values seen.
type Dictionary struct {
	codes map[string]int
}

// NewDictionary builds a dictionary from the values observed.
func NewDictionary(values []string) Dictionary {
	distinct := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		distinct = append(distinct, v)
	}
	sort.Strings(distinct)

	codes := make(map[string]int, len(distinct))
	for i, v := range distinct {
		codes[v] = i
	}
	return Dictionary{codes: codes}
}

// Code returns the code of v, or -1 when v was not observed.
func (d Dictionary) Code(v string) int {
	if c, ok := d.codes[v]; ok {
		return c
	}
	return -1
}

// Len returns the number of distinct values.
func (d Dictionary) Len() int { return len(d.codes) }

// Features builds the regression design matrix:
// [current_stock, forecast_demand, festival_flag, warehouse_code, category_code].
func Features(products []domain.Product) [][]float64 {
	warehouses := make([]string, len(products))
	categories := make([]string, len(products))
	for i, p := range products {
		warehouses[i] = p.Warehouse
		categories[i] = p.Category
	}
	wd := NewDictionary(warehouses)
	cd := NewDictionary(categories)

	X := make([][]float64, len(products))
	for i, p := range products {
		flag := 0.0
		if p.IsFestivalSensitive {
			flag = 1
		}
		X[i] = []float64{
			float64(p.CurrentStock),
			float64(p.ForecastDemand),
			flag,
			float64(wd.Code(p.Warehouse)),
			float64(cd.Code(p.Category)),
		}
	}
	return X
}

// LearnedConfidence is clamp(1 − |pred − actual|/max(1, actual), 0.6, 0.95).
func LearnedConfidence(pred, actual float64) float64 {
	return formulas.Clamp(1-math.Abs(pred-actual)/math.Max(1, actual), 0.6, 0.95)
}

func (e *Engine) learnedForecasts(products []domain.Product) []LearnedForecast {
	if len(products) < minTrainingSamples {
		e.log.Debug().Int("samples", len(products)).Msg("Too few samples for learned forecast, echoing actual demand")
		return echoActual(products, insufficientSampleConfidence, FallbackInsufficientSamples)
	}

	X := Features(products)
	y := make([]float64, len(products))
	for i, p := range products {
		y[i] = float64(p.ActualDemand)
	}

	preds, err := fitPredict(e.newRegressor(), X, y)
	if err != nil {
		e.log.Warn().Err(err).Int("samples", len(products)).Msg("Learned forecast failed, echoing actual demand")
		return echoActual(products, trainingFailureConfidence, FallbackTrainingFailed)
	}

	out := make([]LearnedForecast, 0, len(products))
	for i, p := range products {
		out = append(out, LearnedForecast{
			SKU:        p.SKU,
			Warehouse:  p.Warehouse,
			Forecast:   formulas.RoundUnits(math.Max(0, preds[i])),
			Confidence: formulas.Round(LearnedConfidence(preds[i], y[i]), 2),
		})
	}
	return out
}

// fitPredict trains r and predicts the training rows. Panics inside the
// regressor are treated as training failures.
func fitPredict(r Regressor, X [][]float64, y []float64) (preds []float64, err error) {
	defer func() {
		if p := recover(); p != nil {
			preds, err = nil, fmt.Errorf("regressor panicked: %v", p)
		}
	}()

	if err := r.Fit(X, y); err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}
	preds, err = r.Predict(X)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	if len(preds) != len(y) {
		return nil, fmt.Errorf("predict returned %d values for %d rows", len(preds), len(y))
	}
	for _, v := range preds {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.New("predict returned a non-finite value")
		}
	}
	return preds, nil
}

func echoActual(products []domain.Product, confidence float64, reason string) []LearnedForecast {
	out := make([]LearnedForecast, 0, len(products))
	for _, p := range products {
		out = append(out, LearnedForecast{
			SKU:        p.SKU,
			Warehouse:  p.Warehouse,
			Forecast:   float64(p.ActualDemand),
			Confidence: confidence,
			Fallback:   reason,
		})
	}
	return out
}

// Ridge is an L2-regularised least-squares regressor on standardised features
type Ridge struct {
	Lambda float64

	means     []float64
	scales    []float64
	intercept float64
	coef      *mat.VecDense
}

// NewRidge creates an unfitted ridge regressor.
func NewRidge(lambda float64) *Ridge {
	return &Ridge{Lambda: lambda}
}

// Fit solves (ZᵀZ + λI)β = Zᵀ(y − ȳ) where Z is the standardised design matrix.
// Constant columns standardise to zero and receive no weight.
func (r *Ridge) Fit(X [][]float64, y []float64) error {
	n := len(X)
	if n == 0 || n != len(y) {
		return fmt.Errorf("need matching non-empty X and y, got %d and %d rows", n, len(y))
	}
	p := len(X[0])
	if p == 0 {
		return errors.New("no features")
	}
	if r.Lambda <= 0 {
		return fmt.Errorf("lambda must be positive, got %g", r.Lambda)
	}

	r.means = make([]float64, p)
	r.scales = make([]float64, p)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		for i := 0; i < n; i++ {
			if len(X[i]) != p {
				return fmt.Errorf("row %d has %d features, want %d", i, len(X[i]), p)
			}
			col[i] = X[i][j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if math.IsNaN(mean) || math.IsInf(mean, 0) {
			return fmt.Errorf("feature %d is not finite", j)
		}
		r.means[j] = mean
		if std > 0 && !math.IsNaN(std) {
			r.scales[j] = std
		}
	}

	Z := r.standardise(X)
	r.intercept = stat.Mean(y, nil)
	yc := make([]float64, n)
	for i, v := range y {
		yc[i] = v - r.intercept
	}

	gram := mat.NewSymDense(p, nil)
	gram.SymOuterK(1, Z.T())
	for j := 0; j < p; j++ {
		gram.SetSym(j, j, gram.At(j, j)+r.Lambda)
	}

	var rhs mat.VecDense
	rhs.MulVec(Z.T(), mat.NewVecDense(n, yc))

	var chol mat.Cholesky
	if ok := chol.Factorize(gram); !ok {
		return errors.New("normal equations are not positive definite")
	}
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &rhs); err != nil {
		return fmt.Errorf("solve normal equations: %w", err)
	}
	r.coef = &beta
	return nil
}

// Predict evaluates the fitted model on X.
func (r *Ridge) Predict(X [][]float64) ([]float64, error) {
	if r.coef == nil {
		return nil, errors.New("ridge regressor is not fitted")
	}
	for i, row := range X {
		if len(row) != len(r.means) {
			return nil, fmt.Errorf("row %d has %d features, want %d", i, len(row), len(r.means))
		}
	}
	if len(X) == 0 {
		return nil, nil
	}

	var pred mat.VecDense
	pred.MulVec(r.standardise(X), r.coef)

	out := make([]float64, len(X))
	for i := range out {
		out[i] = r.intercept + pred.AtVec(i)
	}
	return out, nil
}

func (r *Ridge) standardise(X [][]float64) *mat.Dense {
	n, p := len(X), len(r.means)
	Z := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			if r.scales[j] == 0 {
				continue
			}
			Z.Set(i, j, (X[i][j]-r.means[j])/r.scales[j])
		}
	}
	return Z
}
