package iterative_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"lopf/internal/lopf"
	"lopf/internal/lopf/iterative"
	"lopf/internal/network"
	"lopf/internal/solver"
)

func extendableLineNetwork() *network.Network {
	return &network.Network{
		Buses: []network.Bus{{ID: "bus0", Name: "bus0"}, {ID: "bus1", Name: "bus1"}},
		Lines: []network.Line{
			{
				ID: "line0", Bus0: "bus0", Bus1: "bus1", X: 0.1,
				SNom: 50, SNomMin: 0, SNomMax: 200, SNomExtendable: true,
				NumParallel: 1, SMaxPu: 1,
			},
		},
		Snapshots: []network.Snapshot{{Index: 0, Weighting: 1}},
	}
}

// scriptedSolve feeds a fixed sequence of fake solves to iterative.Run so the
// loop's convergence/trace/reactance-update logic can be exercised without
// depending on the LP solver's numeric behavior.
func scriptedSolve(objectives []float64, sNomOpt []float64) (iterative.Solve, *int) {
	calls := 0
	solve := func(_ context.Context, _ *network.Network, _ solver.Backend, _ lopf.Options) (*lopf.Solution, error) {
		i := calls
		calls++
		return &lopf.Solution{
			ObjectiveValue: objectives[i],
			LNSNomOpt:      map[string]float64{"line0": sNomOpt[i]},
		}, nil
	}
	return solve, &calls
}

func TestRunStopsEarlyWhenObjectiveConverges(t *testing.T) {
	net := extendableLineNetwork()
	// Deltas: |998-1000|=2 (continue), |997.5-998|=0.5 (<=1, stop).
	solve, calls := scriptedSolve([]float64{1000, 998, 997.5, 1, 1}, []float64{50, 50, 50, 50, 50})

	opts := lopf.Options{Formulation: lopf.AnglesLinear, InvestmentType: lopf.Continuous}
	iterOpts := iterative.Options{Iterations: 5}

	res, err := iterative.Run(context.Background(), net, nil, opts, iterOpts, solve)
	require.NoError(t, err)

	require.Equal(t, 3, *calls)
	require.Len(t, res.Trace.Objectives, 3)
	require.Equal(t, []float64{1000, 998, 997.5}, res.Trace.Objectives)
	require.InDelta(t, 997.5, res.Solution.ObjectiveValue, 1e-9)
}

func TestRunUpdatesReactanceInverselyWithResolvedCapacity(t *testing.T) {
	net := extendableLineNetwork()
	// Two iterations so the post-first-solve reactance update is observable;
	// the large gap keeps the loop from early-stopping after one solve.
	solve, calls := scriptedSolve([]float64{1000, 100}, []float64{100, 100})

	opts := lopf.Options{Formulation: lopf.AnglesLinear, InvestmentType: lopf.Continuous}
	iterOpts := iterative.Options{Iterations: 2}

	_, err := iterative.Run(context.Background(), net, nil, opts, iterOpts, solve)
	require.NoError(t, err)
	require.Equal(t, 2, *calls)

	// x0=0.1, s_nom0=50, s_nom_opt=100 => x = 0.1 * 50 / 100 = 0.05.
	require.InDelta(t, 0.05, net.Lines[0].X, 1e-9)
}

func TestRunSetsReactanceSentinelWhenResolvedCapacityIsZero(t *testing.T) {
	net := extendableLineNetwork()
	solve, _ := scriptedSolve([]float64{1000, 100}, []float64{0, 0})

	opts := lopf.Options{Formulation: lopf.AnglesLinear, InvestmentType: lopf.Continuous}
	iterOpts := iterative.Options{Iterations: 2}

	_, err := iterative.Run(context.Background(), net, nil, opts, iterOpts, solve)
	require.NoError(t, err)
	require.Equal(t, network.ReactanceSentinel, net.Lines[0].X)
}

func TestRunPostDiscretizationPicksTheLowerObjectiveThreshold(t *testing.T) {
	net := extendableLineNetwork()
	// Call 0 (main loop): s_nom_opt=112.5 => (112.5/50-1)*1=1.25, which
	// rounds to 2 parallel circuits at tau=0.2 (frac 0.25>=0.2) but only 1
	// at tau=0.3 (frac 0.25<0.3) - the two default thresholds diverge.
	// Call 1 (tau=0.2, cap=50+2*50=150) scores worse than call 2
	// (tau=0.3, cap=50+1*50=100), so tau=0.3 should win.
	solve, calls := scriptedSolve([]float64{1000, 2000, 1500}, []float64{112.5, 0, 0})

	opts := lopf.Options{Formulation: lopf.AnglesLinear, InvestmentType: lopf.Continuous}
	iterOpts := iterative.Options{Iterations: 1, PostDiscretization: true}

	res, err := iterative.Run(context.Background(), net, nil, opts, iterOpts, solve)
	require.NoError(t, err)
	require.Equal(t, 3, *calls)

	require.InDelta(t, 1500.0, res.Solution.ObjectiveValue, 1e-9)
	require.InDelta(t, 100.0, net.Lines[0].SNom, 1e-9)
	require.InDelta(t, 100.0, net.Lines[0].SNomOpt, 1e-9)
	require.True(t, net.Lines[0].SNomExtendable, "extendability must be restored after discretization")
}

func TestRunUsesDefaultIterationsWhenUnset(t *testing.T) {
	net := extendableLineNetwork()
	objectives := make([]float64, iterative.DefaultOptions().Iterations)
	sNoms := make([]float64, len(objectives))
	for i := range objectives {
		objectives[i] = 1000 - float64(i)*10 // never converges within the default budget
		sNoms[i] = 50
	}
	solve, calls := scriptedSolve(objectives, sNoms)

	opts := lopf.Options{Formulation: lopf.AnglesLinear, InvestmentType: lopf.Continuous}
	_, err := iterative.Run(context.Background(), net, nil, opts, iterative.Options{}, solve)
	require.NoError(t, err)
	require.Equal(t, iterative.DefaultOptions().Iterations, *calls)
}
