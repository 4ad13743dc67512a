package refsolver_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"lopf/internal/solver"
	"lopf/internal/solver/refsolver"
)

func TestSolveMinimizesASimpleBoundedLP(t *testing.T) {
	backend := refsolver.New()
	m := backend.NewModel(solver.KindLP)

	x := m.AddVariable("x", solver.Real, solver.Bounds{Lower: 0, Upper: 20})
	y := m.AddVariable("y", solver.Real, solver.Bounds{Lower: 0, Upper: 20})

	_, err := m.AddLinearConstraint(solver.Expr{}.Add(x, 1).Add(y, 1), solver.GE, 10)
	require.NoError(t, err)

	m.SetObjective(solver.Expr{}.Add(x, 2).Add(y, 3), solver.Min)

	status, err := m.Solve(context.Background())
	require.NoError(t, err)
	require.Equal(t, solver.StatusOptimal, status)

	// Cheaper per unit (x costs 2, y costs 3), so the cheapest way to reach
	// the sum >= 10 floor is to put all 10 units on x.
	require.InDelta(t, 10.0, m.Value(x), 1e-6)
	require.InDelta(t, 0.0, m.Value(y), 1e-6)
	require.InDelta(t, 20.0, m.ObjectiveValue(), 1e-6)
}

func TestSolveDetectsInfeasibility(t *testing.T) {
	backend := refsolver.New()
	m := backend.NewModel(solver.KindLP)

	x := m.AddVariable("x", solver.Real, solver.Bounds{Lower: 0, Upper: 5})
	_, err := m.AddLinearConstraint(solver.Expr{}.Add(x, 1), solver.GE, 10)
	require.NoError(t, err)
	m.SetObjective(solver.Expr{}.Add(x, 1), solver.Min)

	status, err := m.Solve(context.Background())
	require.Error(t, err)
	require.Equal(t, solver.StatusInfeasible, status)
}

func TestSolveDetectsUnboundedness(t *testing.T) {
	backend := refsolver.New()
	m := backend.NewModel(solver.KindLP)

	x := m.AddVariable("x", solver.Real, solver.Bounds{Lower: 0, Upper: 1e15})
	m.SetObjective(solver.Expr{}.Add(x, -1), solver.Min) // minimize -x => unbounded above

	status, err := m.Solve(context.Background())
	require.NoError(t, err)
	require.Equal(t, solver.StatusUnbounded, status)
}

func TestSolveBranchesToTheIntegerOptimum(t *testing.T) {
	backend := refsolver.New()
	m := backend.NewModel(solver.KindMIP)

	x := m.AddVariable("x", solver.Integer, solver.Bounds{Lower: 0, Upper: 10})
	y := m.AddVariable("y", solver.Integer, solver.Bounds{Lower: 0, Upper: 10})

	_, err := m.AddLinearConstraint(solver.Expr{}.Add(x, 1).Add(y, 2), solver.GE, 7)
	require.NoError(t, err)
	m.SetObjective(solver.Expr{}.Add(x, 1).Add(y, 1), solver.Min)

	status, err := m.Solve(context.Background())
	require.NoError(t, err)
	require.Equal(t, solver.StatusOptimal, status)

	// y contributes 2 per unit to the constraint for the same unit cost as
	// x, so the integer optimum leans on y: x+2y>=7 at minimum x+y is 4
	// (e.g. x=1,y=3 or x=0,y=4), strictly better than the all-x LP corner.
	require.InDelta(t, 4.0, m.ObjectiveValue(), 1e-6)

	xv, yv := m.Value(x), m.Value(y)
	require.InDelta(t, xv, float64(int(xv+0.5)), 1e-6)
	require.InDelta(t, yv, float64(int(yv+0.5)), 1e-6)
	require.GreaterOrEqual(t, xv+2*yv, 7.0-1e-6)
}

func TestSolveRoundTripsEqualityConstraint(t *testing.T) {
	backend := refsolver.New()
	m := backend.NewModel(solver.KindLP)

	x := m.AddVariable("x", solver.Real, solver.Bounds{Lower: -1e6, Upper: 1e6})
	_, err := m.AddLinearConstraint(solver.Expr{}.Add(x, 1), solver.EQ, 42)
	require.NoError(t, err)
	m.SetObjective(solver.Expr{}.Add(x, 1), solver.Min)

	status, err := m.Solve(context.Background())
	require.NoError(t, err)
	require.Equal(t, solver.StatusOptimal, status)
	require.InDelta(t, 42.0, m.Value(x), 1e-6)
}

func TestBinaryVariableBoundsAreForcedToZeroOne(t *testing.T) {
	backend := refsolver.New()
	m := backend.NewModel(solver.KindMIP)

	b := m.AddVariable("b", solver.Binary, solver.Bounds{Lower: -5, Upper: 5})
	m.SetObjective(solver.Expr{}.Add(b, -1), solver.Min) // minimizing -b pushes b to its upper bound

	status, err := m.Solve(context.Background())
	require.NoError(t, err)
	require.Equal(t, solver.StatusOptimal, status)
	require.InDelta(t, 1.0, m.Value(b), 1e-6)
}
