package solver

import (
	"fmt"
	"math"
)

// presolve returns a tightened copy of m. Duplicate terms are merged and zero
// coefficients dropped. Integer upper bounds are rounded down. A row whose
// terms are all integer variables with integer coefficients can only take
// integer values, so its rhs is rounded inward: up for >=, down for <=. A
// fractional rhs on such an equality row makes the model infeasible, which
// is reported by ok == false.
func presolve(m *Model) (out *Model, ok bool) {
	out = &Model{
		Name:        m.Name,
		vars:        make([]Var, len(m.vars)),
		constraints: make([]Constraint, 0, len(m.constraints)),
		index:       m.index,
		offset:      m.offset,
	}
	copy(out.vars, m.vars)
	for j, v := range out.vars {
		if v.Kind != Continuous && !math.IsInf(v.Upper, 1) {
			out.vars[j].Upper = math.Floor(v.Upper + integralityTol)
		}
	}

	for _, c := range m.constraints {
		terms := mergeTerms(c.Terms)
		rhs := c.RHS
		if len(terms) == 0 {
			if !satisfied(0, c.Sense, rhs) {
				return nil, false
			}
			continue
		}
		if integralRow(out.vars, terms) {
			switch c.Sense {
			case GreaterEq:
				rhs = math.Ceil(rhs - integralityTol)
			case LessEq:
				rhs = math.Floor(rhs + integralityTol)
			default:
				r := math.Round(rhs)
				if math.Abs(rhs-r) > integralityTol {
					return nil, false
				}
				rhs = r
			}
		}
		out.constraints = append(out.constraints, Constraint{Name: c.Name, Terms: terms, Sense: c.Sense, RHS: rhs})
	}
	return out, true
}

func mergeTerms(terms []Term) []Term {
	pos := make(map[int]int, len(terms))
	merged := make([]Term, 0, len(terms))
	for _, t := range terms {
		if k, ok := pos[t.Var]; ok {
			merged[k].Coef += t.Coef
			continue
		}
		pos[t.Var] = len(merged)
		merged = append(merged, t)
	}
	out := merged[:0]
	for _, t := range merged {
		if math.Abs(t.Coef) >= coefEpsilon {
			out = append(out, t)
		}
	}
	return out
}

func integralRow(vars []Var, terms []Term) bool {
	for _, t := range terms {
		if vars[t.Var].Kind == Continuous || t.Coef != math.Round(t.Coef) {
			return false
		}
	}
	return true
}

// component is an independent block of a model: no constraint links its
// variables to variables outside it.
type component struct {
	model *Model
	vars  []int // index in the parent model of each block variable
}

// decompose splits m into independent blocks. Variables that appear in no
// constraint are returned separately as isolated.
func decompose(m *Model) (parts []component, isolated []int) {
	n := len(m.vars)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	inRow := make([]bool, n)
	for _, c := range m.constraints {
		first := find(c.Terms[0].Var)
		for _, t := range c.Terms {
			inRow[t.Var] = true
			if r := find(t.Var); r != first {
				parent[r] = first
			}
		}
	}

	partOf := make(map[int]int)
	local := make([]int, n)
	for j := 0; j < n; j++ {
		if !inRow[j] {
			isolated = append(isolated, j)
			continue
		}
		root := find(j)
		k, ok := partOf[root]
		if !ok {
			k = len(parts)
			partOf[root] = k
			parts = append(parts, component{model: &Model{
				Name:  fmt.Sprintf("%s/%d", m.Name, k),
				index: make(map[string]int),
			}})
		}
		p := &parts[k]
		local[j] = len(p.vars)
		p.vars = append(p.vars, j)
		p.model.vars = append(p.model.vars, m.vars[j])
		p.model.index[m.vars[j].Name] = local[j]
	}

	for _, c := range m.constraints {
		p := &parts[partOf[find(c.Terms[0].Var)]]
		terms := make([]Term, len(c.Terms))
		for i, t := range c.Terms {
			terms[i] = Term{Var: local[t.Var], Coef: t.Coef}
		}
		p.model.constraints = append(p.model.constraints, Constraint{Name: c.Name, Terms: terms, Sense: c.Sense, RHS: c.RHS})
	}
	return parts, isolated
}
