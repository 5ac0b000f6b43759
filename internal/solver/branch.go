package solver

import (
	"container/heap"
	"context"
	"fmt"
	"math"

	"github.com/aristath/supplyopt/internal/domain"
)

const (
	integralityTol = 1e-6
	pruneTol       = 1e-7
)

type node struct {
	lower []float64
	upper []float64
	bound float64 // relaxation objective of the parent
	depth int
	seq   int
}

func (n node) child(seq int, bound float64) node {
	lower := make([]float64, len(n.lower))
	upper := make([]float64, len(n.upper))
	copy(lower, n.lower)
	copy(upper, n.upper)
	return node{lower: lower, upper: upper, bound: bound, depth: n.depth + 1, seq: seq}
}

// nodeQueue orders open nodes. Until the first incumbent is found it dives
// (deepest, most recently created node first); afterwards it is best-bound.
type nodeQueue struct {
	nodes  []node
	diving bool
}

func (q *nodeQueue) Len() int { return len(q.nodes) }

func (q *nodeQueue) Less(i, j int) bool {
	a, b := q.nodes[i], q.nodes[j]
	if !q.diving && a.bound != b.bound {
		return a.bound < b.bound
	}
	if a.depth != b.depth {
		return a.depth > b.depth
	}
	return a.seq > b.seq
}

func (q *nodeQueue) Swap(i, j int) { q.nodes[i], q.nodes[j] = q.nodes[j], q.nodes[i] }

func (q *nodeQueue) Push(x any) { q.nodes = append(q.nodes, x.(node)) }

func (q *nodeQueue) Pop() any {
	last := q.nodes[len(q.nodes)-1]
	q.nodes = q.nodes[:len(q.nodes)-1]
	return last
}

// solveModel presolves m, splits it into independent blocks and solves each
// block to integrality. maxNodes is shared by all blocks.
func solveModel(ctx context.Context, m *Model, maxNodes int) (Solution, error) {
	pm, ok := presolve(m)
	if !ok {
		return Solution{Status: domain.SolveInfeasible}, nil
	}

	values := make([]float64, len(m.vars))
	parts, isolated := decompose(pm)
	for _, j := range isolated {
		v := pm.vars[j]
		if v.Cost >= 0 {
			continue
		}
		if math.IsInf(v.Upper, 1) {
			return Solution{Status: domain.SolveUnbounded}, nil
		}
		values[j] = v.Upper
	}

	nodes := 0
	unbounded := false
	for _, p := range parts {
		sol, err := branchAndBound(ctx, p.model, maxNodes-nodes)
		nodes += sol.Nodes
		if err != nil {
			return Solution{Status: domain.SolveError, Nodes: nodes}, err
		}
		switch sol.Status {
		case domain.SolveInfeasible:
			return Solution{Status: domain.SolveInfeasible, Nodes: nodes}, nil
		case domain.SolveUnbounded:
			unbounded = true
			continue
		}
		for k, j := range p.vars {
			values[j] = sol.Values[k]
		}
	}
	if unbounded {
		return Solution{Status: domain.SolveUnbounded, Nodes: nodes}, nil
	}

	return Solution{
		Status:    domain.SolveOptimal,
		Objective: m.Objective(values),
		Values:    values,
		Nodes:     nodes,
	}, nil
}

// branchAndBound solves m to integrality over LP relaxations. The search is
// abandoned when ctx is done or maxNodes relaxations have been solved; no
// incumbent is returned in either case.
func branchAndBound(ctx context.Context, m *Model, maxNodes int) (Solution, error) {
	n := len(m.vars)
	root := node{lower: make([]float64, n), upper: make([]float64, n), bound: math.Inf(-1)}
	for j, v := range m.vars {
		root.upper[j] = v.Upper
	}

	q := &nodeQueue{nodes: []node{root}, diving: true}
	var incumbent []float64
	best := math.Inf(1)
	nodes, seq := 0, 0

	for q.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return Solution{Status: domain.SolveError, Nodes: nodes}, fmt.Errorf("%w after %d nodes: %w", ErrTimeout, nodes, err)
		}

		nd := heap.Pop(q).(node)
		if dominated(nd.bound, best) {
			continue
		}
		if nodes >= maxNodes {
			return Solution{Status: domain.SolveError, Nodes: nodes}, fmt.Errorf("%w: %d nodes explored on %s", ErrNodeLimit, nodes, m.Name)
		}
		nodes++

		relax, err := solveRelaxation(m, nd.lower, nd.upper)
		if err != nil {
			return Solution{Status: domain.SolveError, Nodes: nodes}, err
		}
		switch relax.status {
		case domain.SolveInfeasible:
			continue
		case domain.SolveUnbounded:
			return Solution{Status: domain.SolveUnbounded, Nodes: nodes}, nil
		}
		if dominated(relax.objective, best) {
			continue
		}

		j := branchVariable(m, relax.x)
		if j < 0 {
			incumbent = relax.x
			best = relax.objective
			if q.diving {
				q.diving = false
				heap.Init(q)
			}
			continue
		}

		xj := relax.x[j]
		down := nd.child(seq, relax.objective)
		down.upper[j] = math.Floor(xj)
		up := nd.child(seq, relax.objective)
		up.lower[j] = math.Ceil(xj)

		// The side nearer the relaxed value gets the later sequence number,
		// so a dive explores it first.
		if xj-math.Floor(xj) >= 0.5 {
			down.seq, up.seq = seq, seq+1
		} else {
			up.seq, down.seq = seq, seq+1
		}
		seq += 2
		heap.Push(q, down)
		heap.Push(q, up)
	}

	if incumbent == nil {
		return Solution{Status: domain.SolveInfeasible, Nodes: nodes}, nil
	}

	values := make([]float64, n)
	for j, v := range m.vars {
		values[j] = incumbent[j]
		if v.Kind != Continuous {
			values[j] = math.Round(incumbent[j])
		}
	}
	return Solution{
		Status:    domain.SolveOptimal,
		Objective: m.Objective(values),
		Values:    values,
		Nodes:     nodes,
	}, nil
}

// dominated reports whether a relaxation bound cannot improve on best.
func dominated(bound, best float64) bool {
	if math.IsInf(best, 1) {
		return false
	}
	return bound >= best-pruneTol*math.Max(1, math.Abs(best))
}

// branchVariable returns the most fractional binary variable, or the most
// fractional integer variable when every binary is integral, or -1.
func branchVariable(m *Model, x []float64) int {
	if j := mostFractional(m, x, Binary); j >= 0 {
		return j
	}
	return mostFractional(m, x, Integer)
}

func mostFractional(m *Model, x []float64, kind VarKind) int {
	pick := -1
	bestDist := 0.0
	for j, v := range m.vars {
		if v.Kind != kind {
			continue
		}
		frac := x[j] - math.Floor(x[j])
		dist := math.Min(frac, 1-frac)
		if dist <= integralityTol*math.Max(1, math.Abs(x[j])) {
			continue
		}
		if dist > bestDist {
			bestDist = dist
			pick = j
		}
	}
	return pick
}
