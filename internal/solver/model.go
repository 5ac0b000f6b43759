// Package solver builds and solves small mixed-integer linear programs.
//
// Models are minimisation problems over non-negative variables. A model is
// presolved and split into independent blocks; each block's LP relaxations
// are solved with gonum's simplex and integrality is enforced by best-bound
// branch-and-bound.
package solver

import (
	"fmt"
	"math"

	"github.com/aristath/supplyopt/internal/domain"
)

// VarKind selects the domain of a decision variable
type VarKind int

const (
	Continuous VarKind = iota
	Integer
	Binary
)

// Sense is the comparison of a linear constraint
type Sense int

const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	default:
		return "="
	}
}

// Var is one decision variable. Every variable is bounded below by 0.
type Var struct {
	Name  string
	Kind  VarKind
	Cost  float64
	Upper float64 // +Inf when unbounded
}

// Term is a coefficient applied to a variable index
type Term struct {
	Var  int
	Coef float64
}

// T is shorthand for building a Term.
func T(v int, coef float64) Term {
	return Term{Var: v, Coef: coef}
}

// Constraint is a linear row: Σ terms (sense) RHS
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Model is a minimisation MILP
type Model struct {
	Name        string
	vars        []Var
	constraints []Constraint
	index       map[string]int
	offset      float64
}

// NewModel creates an empty model.
func NewModel(name string) *Model {
	return &Model{Name: name, index: make(map[string]int)}
}

// AddVar adds a variable with lower bound 0 and returns its index.
// Binary variables get an upper bound of 1.
func (m *Model) AddVar(name string, kind VarKind, cost float64) int {
	upper := math.Inf(1)
	if kind == Binary {
		upper = 1
	}
	m.vars = append(m.vars, Var{Name: name, Kind: kind, Cost: cost, Upper: upper})
	idx := len(m.vars) - 1
	m.index[name] = idx
	return idx
}

// SetUpper tightens the upper bound of variable v.
func (m *Model) SetUpper(v int, upper float64) {
	if upper < m.vars[v].Upper {
		m.vars[v].Upper = upper
	}
}

// AddConstraint appends a linear constraint.
func (m *Model) AddConstraint(name string, sense Sense, rhs float64, terms ...Term) {
	m.constraints = append(m.constraints, Constraint{Name: name, Terms: terms, Sense: sense, RHS: rhs})
}

// AddObjectiveConstant adds a constant to the objective.
func (m *Model) AddObjectiveConstant(c float64) {
	m.offset += c
}

// Lookup returns the index of the named variable.
func (m *Model) Lookup(name string) (int, bool) {
	i, ok := m.index[name]
	return i, ok
}

// NumVars returns the number of variables.
func (m *Model) NumVars() int { return len(m.vars) }

// NumConstraints returns the number of constraints.
func (m *Model) NumConstraints() int { return len(m.constraints) }

// Vars returns a copy of the variables.
func (m *Model) Vars() []Var {
	out := make([]Var, len(m.vars))
	copy(out, m.vars)
	return out
}

// Validate checks the model for non-finite data and out-of-range indices.
func (m *Model) Validate() error {
	for i, v := range m.vars {
		if math.IsNaN(v.Cost) || math.IsInf(v.Cost, 0) {
			return fmt.Errorf("variable %s has non-finite cost", v.Name)
		}
		if math.IsNaN(v.Upper) || v.Upper < 0 {
			return fmt.Errorf("variable %s has invalid upper bound %g", m.vars[i].Name, v.Upper)
		}
	}
	for _, c := range m.constraints {
		if math.IsNaN(c.RHS) || math.IsInf(c.RHS, 0) {
			return fmt.Errorf("constraint %s has non-finite rhs", c.Name)
		}
		for _, t := range c.Terms {
			if t.Var < 0 || t.Var >= len(m.vars) {
				return fmt.Errorf("constraint %s references unknown variable %d", c.Name, t.Var)
			}
			if math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
				return fmt.Errorf("constraint %s has non-finite coefficient", c.Name)
			}
		}
	}
	return nil
}

// Objective evaluates the objective at x.
func (m *Model) Objective(x []float64) float64 {
	total := m.offset
	for i, v := range m.vars {
		total += v.Cost * x[i]
	}
	return total
}

// Solution is the outcome of a solve
type Solution struct {
	Status    domain.SolveStatus
	Objective float64
	Values    []float64
	Nodes     int
}

// Value returns the value of variable v, or 0 when the solve was not optimal.
func (s Solution) Value(v int) float64 {
	if s.Status != domain.SolveOptimal || v < 0 || v >= len(s.Values) {
		return 0
	}
	return s.Values[v]
}

// IntValue returns the value of variable v rounded to the nearest integer.
func (s Solution) IntValue(v int) int {
	return int(math.Round(s.Value(v)))
}
