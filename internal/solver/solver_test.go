package solver

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aristath/supplyopt/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(maxNodes int) *Runner {
	return NewRunner(Config{Timeout: 5 * time.Second, MaxNodes: maxNodes}, zerolog.Nop())
}

func TestRun_ContinuousLP(t *testing.T) {
	m := NewModel("lp")
	x := m.AddVar("x", Continuous, 1)
	y := m.AddVar("y", Continuous, 2)
	m.AddConstraint("cover", GreaterEq, 3.5, T(x, 1), T(y, 1))

	sol, err := newTestRunner(100).Run(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, domain.SolveOptimal, sol.Status)
	assert.InDelta(t, 3.5, sol.Objective, 1e-6)
	assert.InDelta(t, 3.5, sol.Value(x), 1e-6)
	assert.InDelta(t, 0, sol.Value(y), 1e-6)
}

func TestRun_IntegerRoundsUp(t *testing.T) {
	m := NewModel("int")
	x := m.AddVar("x", Integer, 1)
	m.AddConstraint("cover", GreaterEq, 3, T(x, 2))

	sol, err := newTestRunner(100).Run(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, domain.SolveOptimal, sol.Status)
	assert.Equal(t, 2, sol.IntValue(x))
	assert.InDelta(t, 2, sol.Objective, 1e-9)
}

func TestRun_MinimumOrderLinkage(t *testing.T) {
	m := NewModel("moq")
	order := m.AddVar("order", Integer, 5)
	placed := m.AddVar("placed", Binary, 0)
	m.AddConstraint("demand", GreaterEq, 30, T(order, 1))
	m.AddConstraint("moq", GreaterEq, 0, T(order, 1), T(placed, -100))
	m.AddConstraint("bigm", LessEq, 0, T(order, 1), T(placed, -10000))

	sol, err := newTestRunner(1000).Run(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, domain.SolveOptimal, sol.Status)
	assert.Equal(t, 100, sol.IntValue(order))
	assert.Equal(t, 1, sol.IntValue(placed))
	assert.InDelta(t, 500, sol.Objective, 1e-6)
}

func TestRun_IntegerKnapsack(t *testing.T) {
	// max 5a + 4b s.t. 6a + 4b <= 24, a + 2b <= 6; LP optimum is fractional.
	m := NewModel("knapsack")
	a := m.AddVar("a", Integer, -5)
	b := m.AddVar("b", Integer, -4)
	m.AddConstraint("c1", LessEq, 24, T(a, 6), T(b, 4))
	m.AddConstraint("c2", LessEq, 6, T(a, 1), T(b, 2))

	sol, err := newTestRunner(1000).Run(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, domain.SolveOptimal, sol.Status)
	assert.InDelta(t, -20, sol.Objective, 1e-6)
	assert.Equal(t, 4, sol.IntValue(a))
	assert.Equal(t, 0, sol.IntValue(b))
}

func TestRun_EqualityWithUpperBound(t *testing.T) {
	m := NewModel("eq")
	x := m.AddVar("x", Continuous, -1)
	y := m.AddVar("y", Continuous, 1)
	m.SetUpper(x, 4)
	m.AddConstraint("total", Equal, 10, T(x, 1), T(y, 1))

	sol, err := newTestRunner(10).Run(context.Background(), m)
	require.NoError(t, err)
	assert.InDelta(t, 4, sol.Value(x), 1e-6)
	assert.InDelta(t, 6, sol.Value(y), 1e-6)
	assert.InDelta(t, 2, sol.Objective, 1e-6)
}

func TestRun_Infeasible(t *testing.T) {
	m := NewModel("infeasible")
	x := m.AddVar("x", Integer, 1)
	m.AddConstraint("hi", LessEq, 2, T(x, 1))
	m.AddConstraint("lo", GreaterEq, 5, T(x, 1))

	sol, err := newTestRunner(100).Run(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, domain.SolveInfeasible, sol.Status)
	assert.Equal(t, 0.0, sol.Value(x))
}

func TestRun_EmptyRowInfeasible(t *testing.T) {
	m := NewModel("empty-row")
	m.AddVar("x", Continuous, 1)
	m.AddConstraint("impossible", GreaterEq, 5)

	sol, err := newTestRunner(10).Run(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, domain.SolveInfeasible, sol.Status)
}

func TestRun_Unbounded(t *testing.T) {
	m := NewModel("unbounded")
	x := m.AddVar("x", Continuous, -1)
	m.AddConstraint("floor", GreaterEq, 1, T(x, 1))

	sol, err := newTestRunner(10).Run(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, domain.SolveUnbounded, sol.Status)
}

func TestRun_UnusedVariable(t *testing.T) {
	m := NewModel("unused")
	x := m.AddVar("x", Continuous, 1)
	idle := m.AddVar("idle", Integer, 3)
	m.AddConstraint("floor", GreaterEq, 2, T(x, 1))
	m.AddObjectiveConstant(10)

	sol, err := newTestRunner(10).Run(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, 0, sol.IntValue(idle))
	assert.InDelta(t, 12, sol.Objective, 1e-6)
}

func TestRun_NodeLimit(t *testing.T) {
	m := NewModel("knapsack")
	a := m.AddVar("a", Integer, -5)
	b := m.AddVar("b", Integer, -4)
	m.AddConstraint("c1", LessEq, 24, T(a, 6), T(b, 4))
	m.AddConstraint("c2", LessEq, 6, T(a, 1), T(b, 2))

	sol, err := newTestRunner(1).Run(context.Background(), m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNodeLimit))
	assert.Equal(t, domain.SolveError, sol.Status)
	assert.Equal(t, domain.SolveError, StatusOf(sol, err))
}

func TestRun_CancelledContext(t *testing.T) {
	m := NewModel("cancelled")
	x := m.AddVar("x", Integer, 1)
	m.AddConstraint("cover", GreaterEq, 3, T(x, 2))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sol, err := newTestRunner(100).Run(ctx, m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Equal(t, domain.SolveError, sol.Status)
}

func TestRun_InvalidModel(t *testing.T) {
	m := NewModel("bad")
	m.AddVar("x", Continuous, 1)
	m.AddConstraint("ref", GreaterEq, 1, T(7, 1))

	sol, err := newTestRunner(10).Run(context.Background(), m)
	require.Error(t, err)
	assert.Equal(t, domain.SolveError, sol.Status)
}

func TestModel_Lookup(t *testing.T) {
	m := NewModel("lookup")
	x := m.AddVar("x", Binary, 0)

	idx, ok := m.Lookup("x")
	assert.True(t, ok)
	assert.Equal(t, x, idx)
	assert.Equal(t, 1.0, m.Vars()[x].Upper)

	_, ok = m.Lookup("missing")
	assert.False(t, ok)
}

func TestRun_RetriesTransientFailureOnce(t *testing.T) {
	m := NewModel("flaky")
	x := m.AddVar("x", Integer, 1)
	m.AddConstraint("cover", GreaterEq, 3, T(x, 1))

	r := newTestRunner(100)
	calls := 0
	r.solve = func(ctx context.Context, m *Model, maxNodes int) (Solution, error) {
		calls++
		if calls == 1 {
			return Solution{Status: domain.SolveError}, fmt.Errorf("%w: singular basis", ErrTransient)
		}
		return solveModel(ctx, m, maxNodes)
	}

	sol, err := r.Run(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, domain.SolveOptimal, sol.Status)
	assert.Equal(t, 3, sol.IntValue(x))
}

func TestRun_RetriesRecoveredPanic(t *testing.T) {
	m := NewModel("panicky")
	x := m.AddVar("x", Integer, 1)
	m.AddConstraint("cover", GreaterEq, 2, T(x, 1))

	r := newTestRunner(100)
	calls := 0
	r.solve = func(ctx context.Context, m *Model, maxNodes int) (Solution, error) {
		calls++
		if calls == 1 {
			panic("index out of range")
		}
		return solveModel(ctx, m, maxNodes)
	}

	sol, err := r.Run(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, sol.IntValue(x))
}

func TestRun_SecondTransientFailureIsError(t *testing.T) {
	m := NewModel("broken")
	x := m.AddVar("x", Integer, 1)
	m.AddConstraint("cover", GreaterEq, 3, T(x, 1))

	r := newTestRunner(100)
	calls := 0
	r.solve = func(ctx context.Context, m *Model, maxNodes int) (Solution, error) {
		calls++
		return Solution{Status: domain.SolveError}, fmt.Errorf("%w: singular basis", ErrTransient)
	}

	sol, err := r.Run(context.Background(), m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransient))
	assert.Equal(t, 2, calls)
	assert.Equal(t, domain.SolveError, StatusOf(sol, err))
	assert.Nil(t, sol.Values)
}

func TestRun_NonTransientFailureIsNotRetried(t *testing.T) {
	m := NewModel("limit")
	m.AddVar("x", Integer, 1)

	r := newTestRunner(100)
	calls := 0
	r.solve = func(ctx context.Context, m *Model, maxNodes int) (Solution, error) {
		calls++
		return Solution{Status: domain.SolveError}, ErrNodeLimit
	}

	_, err := r.Run(context.Background(), m)
	require.ErrorIs(t, err, ErrNodeLimit)
	assert.Equal(t, 1, calls)
}

func TestRun_IntegralRowsSolveAtRoot(t *testing.T) {
	// Two factories, three products. Fractional capacities and floors are
	// rounded to whole units, after which the relaxation is integral.
	m := NewModel("transport")
	caps := []float64{10.5, 9.7}
	costs := []float64{1, 2}
	floors := []float64{4.2, 5.1, 6.3}
	prod := make([][]int, len(floors))
	for i := range floors {
		prod[i] = make([]int, len(caps))
		for f := range caps {
			prod[i][f] = m.AddVar(fmt.Sprintf("prod[%d@%d]", i, f), Integer, costs[f])
		}
	}
	for f, c := range caps {
		terms := make([]Term, len(floors))
		for i := range floors {
			terms[i] = T(prod[i][f], 1)
		}
		m.AddConstraint(fmt.Sprintf("cap[%d]", f), LessEq, c, terms...)
	}
	for i, fl := range floors {
		m.AddConstraint(fmt.Sprintf("floor[%d]", i), GreaterEq, fl, T(prod[i][0], 1), T(prod[i][1], 1))
	}

	sol, err := newTestRunner(1).Run(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, domain.SolveOptimal, sol.Status)
	assert.Equal(t, 1, sol.Nodes)
	// 18 units: 10 from the cheap factory, 8 from the other.
	assert.InDelta(t, 26, sol.Objective, 1e-6)
	first := 0
	for i := range floors {
		first += sol.IntValue(prod[i][0])
	}
	assert.Equal(t, 10, first)
}

func TestRun_IndependentBlocks(t *testing.T) {
	m := NewModel("blocks")
	var orders, placed []int
	for i, moq := range []float64{100, 40} {
		o := m.AddVar(fmt.Sprintf("order[%d]", i), Integer, 5)
		p := m.AddVar(fmt.Sprintf("placed[%d]", i), Binary, 0)
		m.AddConstraint(fmt.Sprintf("demand[%d]", i), GreaterEq, 30, T(o, 1))
		m.AddConstraint(fmt.Sprintf("moq[%d]", i), GreaterEq, 0, T(o, 1), T(p, -moq))
		m.AddConstraint(fmt.Sprintf("link[%d]", i), LessEq, 0, T(o, 1), T(p, -moq))
		orders = append(orders, o)
		placed = append(placed, p)
	}
	idle := m.AddVar("idle", Integer, -2)
	m.SetUpper(idle, 3.5)

	sol, err := newTestRunner(100).Run(context.Background(), m)
	require.NoError(t, err)
	require.Equal(t, domain.SolveOptimal, sol.Status)
	assert.Equal(t, 100, sol.IntValue(orders[0]))
	assert.Equal(t, 40, sol.IntValue(orders[1]))
	assert.Equal(t, 1, sol.IntValue(placed[0]))
	assert.Equal(t, 1, sol.IntValue(placed[1]))
	assert.Equal(t, 3, sol.IntValue(idle))
	assert.InDelta(t, 700-6, sol.Objective, 1e-6)
}

func TestRun_InfeasibleBlock(t *testing.T) {
	m := NewModel("one-bad-block")
	x := m.AddVar("x", Continuous, 1)
	y := m.AddVar("y", Integer, 1)
	m.AddConstraint("x", GreaterEq, 1, T(x, 1))
	m.AddConstraint("y", Equal, 2.5, T(y, 2))

	sol, err := newTestRunner(100).Run(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, domain.SolveInfeasible, sol.Status)
}

func TestPresolve(t *testing.T) {
	m := NewModel("presolve")
	a := m.AddVar("a", Integer, 1)
	b := m.AddVar("b", Integer, 1)
	c := m.AddVar("c", Continuous, 1)
	m.SetUpper(a, 7.9)
	m.AddConstraint("ge", GreaterEq, 3.2, T(a, 1), T(b, 2))
	m.AddConstraint("le", LessEq, 9.8, T(a, 1), T(b, 1), T(a, 1))
	m.AddConstraint("mixed", GreaterEq, 3.2, T(a, 1), T(c, 1))
	m.AddConstraint("scaled", GreaterEq, 3.2, T(a, 0.5))
	m.AddConstraint("cancel", LessEq, 1, T(a, 1), T(a, -1))

	out, ok := presolve(m)
	require.True(t, ok)
	assert.Equal(t, 7.0, out.vars[a].Upper)
	assert.Equal(t, 7.9, m.vars[a].Upper)

	rhs := make(map[string]float64)
	for _, con := range out.constraints {
		rhs[con.Name] = con.RHS
	}
	assert.Equal(t, map[string]float64{"ge": 4, "le": 9, "mixed": 3.2, "scaled": 3.2}, rhs)
	assert.Len(t, out.constraints[1].Terms, 2)
	assert.Equal(t, 2.0, out.constraints[1].Terms[0].Coef)

	bad := NewModel("fractional-equality")
	z := bad.AddVar("z", Integer, 1)
	bad.AddConstraint("eq", Equal, 1.5, T(z, 1))
	_, ok = presolve(bad)
	assert.False(t, ok)
}

func TestDecompose(t *testing.T) {
	m := NewModel("split")
	a := m.AddVar("a", Integer, 1)
	b := m.AddVar("b", Integer, 1)
	c := m.AddVar("c", Integer, 1)
	d := m.AddVar("d", Integer, 1)
	m.AddVar("free", Integer, 1)
	m.AddConstraint("ac", GreaterEq, 1, T(a, 1), T(c, 1))
	m.AddConstraint("b", GreaterEq, 1, T(b, 1))
	m.AddConstraint("cd", LessEq, 4, T(c, 1), T(d, 1))

	parts, isolated := decompose(m)
	require.Len(t, parts, 2)
	assert.Equal(t, []int{4}, isolated)
	assert.Equal(t, []int{a, c, d}, parts[0].vars)
	assert.Equal(t, 2, parts[0].model.NumConstraints())
	assert.Equal(t, []int{b}, parts[1].vars)
	assert.Equal(t, 1, parts[1].model.NumConstraints())
}
