package solver

import (
	"errors"
	"fmt"
	"math"

	"github.com/aristath/supplyopt/internal/domain"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const (
	simplexTol  = 1e-10
	coefEpsilon = 1e-12
	feasibleTol = 1e-9
)

// relaxation is the result of one LP relaxation solve
type relaxation struct {
	status    domain.SolveStatus
	x         []float64
	objective float64
}

// stdRow is one row of the standard-form system before it is packed into a matrix
type stdRow struct {
	coefs map[int]float64
	slack float64 // +1 for <=, -1 for >=, 0 for =
	rhs   float64
}

// solveRelaxation solves the continuous relaxation of m restricted to
// lower[j] <= x[j] <= upper[j].
//
// Each variable is shifted by its lower bound, x = lower + y, so only finite
// upper bounds need rows of their own. Variables with lower == upper are
// substituted out. The model is then rewritten as min cᵀy, Ay = b, y >= 0:
// inequality rows get a slack column, rows with negative rhs are negated and
// columns that appear in no constraint are solved directly.
func solveRelaxation(m *Model, lower, upper []float64) (relaxation, error) {
	n := len(m.vars)

	x := make([]float64, n)
	fixed := make([]bool, n)
	for j := 0; j < n; j++ {
		if lower[j] > upper[j]+feasibleTol {
			return relaxation{status: domain.SolveInfeasible}, nil
		}
		x[j] = lower[j]
		fixed[j] = upper[j]-lower[j] <= feasibleTol
	}

	rows := make([]stdRow, 0, len(m.constraints)+n)
	used := make([]bool, n)
	for _, c := range m.constraints {
		rhs := c.RHS
		coefs := make(map[int]float64, len(c.Terms))
		for _, t := range c.Terms {
			rhs -= t.Coef * lower[t.Var]
			if fixed[t.Var] {
				continue
			}
			coefs[t.Var] += t.Coef
		}
		for j, v := range coefs {
			if math.Abs(v) < coefEpsilon {
				delete(coefs, j)
			}
		}
		if len(coefs) == 0 {
			if !satisfied(0, c.Sense, rhs) {
				return relaxation{status: domain.SolveInfeasible}, nil
			}
			continue
		}
		for j := range coefs {
			used[j] = true
		}
		rows = append(rows, stdRow{coefs: coefs, slack: slackSign(c.Sense), rhs: rhs})
	}

	cols := make([]int, 0, n)
	for j := 0; j < n; j++ {
		if fixed[j] {
			continue
		}
		if used[j] {
			cols = append(cols, j)
			if !math.IsInf(upper[j], 1) {
				rows = append(rows, stdRow{coefs: map[int]float64{j: 1}, slack: 1, rhs: upper[j] - lower[j]})
			}
			continue
		}
		if m.vars[j].Cost < 0 {
			if math.IsInf(upper[j], 1) {
				return relaxation{status: domain.SolveUnbounded}, nil
			}
			x[j] = upper[j]
		}
	}

	if len(rows) == 0 {
		return relaxation{status: domain.SolveOptimal, x: x, objective: m.Objective(x)}, nil
	}

	colOf := make(map[int]int, len(cols))
	for k, j := range cols {
		colOf[j] = k
	}
	numSlack := 0
	for _, r := range rows {
		if r.slack != 0 {
			numSlack++
		}
	}
	numRows := len(rows)
	numCols := len(cols) + numSlack
	if numCols < numRows {
		return relaxation{}, fmt.Errorf("model %s: %d rows exceed %d columns", m.Name, numRows, numCols)
	}

	A := mat.NewDense(numRows, numCols, nil)
	b := make([]float64, numRows)
	c := make([]float64, numCols)
	for k, j := range cols {
		c[k] = m.vars[j].Cost
	}

	slackCol := len(cols)
	for i, r := range rows {
		sign := 1.0
		if r.rhs < 0 {
			sign = -1
		}
		for j, v := range r.coefs {
			A.Set(i, colOf[j], sign*v)
		}
		if r.slack != 0 {
			A.Set(i, slackCol, sign*r.slack)
			slackCol++
		}
		b[i] = sign * r.rhs
	}

	_, optX, err := lp.Simplex(c, A, b, simplexTol, nil)
	switch {
	case err == nil:
	case errors.Is(err, lp.ErrInfeasible):
		return relaxation{status: domain.SolveInfeasible}, nil
	case errors.Is(err, lp.ErrUnbounded):
		return relaxation{status: domain.SolveUnbounded}, nil
	case errors.Is(err, lp.ErrSingular), errors.Is(err, lp.ErrLinSolve), errors.Is(err, lp.ErrBland):
		return relaxation{}, fmt.Errorf("%w: simplex on %s: %v", ErrTransient, m.Name, err)
	default:
		return relaxation{}, fmt.Errorf("simplex on %s: %w", m.Name, err)
	}

	for k, j := range cols {
		v := optX[k]
		if v < 0 {
			v = 0
		}
		x[j] = lower[j] + v
	}
	return relaxation{status: domain.SolveOptimal, x: x, objective: m.Objective(x)}, nil
}

func slackSign(s Sense) float64 {
	switch s {
	case LessEq:
		return 1
	case GreaterEq:
		return -1
	default:
		return 0
	}
}

func satisfied(lhs float64, s Sense, rhs float64) bool {
	switch s {
	case LessEq:
		return lhs <= rhs+feasibleTol
	case GreaterEq:
		return lhs >= rhs-feasibleTol
	default:
		return math.Abs(lhs-rhs) <= feasibleTol
	}
}
