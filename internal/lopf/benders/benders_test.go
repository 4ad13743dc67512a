package benders_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"lopf/internal/lopf"
	"lopf/internal/lopf/benders"
	"lopf/internal/network"
	"lopf/internal/solver/refsolver"
)

// fixedCapacityMeritOrderNetwork has no extendable assets: the master
// carries only its per-group ALPHA scalar(s), so every cut is a pure
// optimality cut driven by the (identical every round) slave dispatch, with
// no feasibility-cut pathway involved.
func fixedCapacityMeritOrderNetwork() *network.Network {
	return &network.Network{
		Buses: []network.Bus{{ID: "bus0", Name: "bus0"}},
		Generators: []network.Generator{
			{ID: "cheap", Bus: "bus0", PNom: 30, MarginalCost: 10, PMinPu: []float64{0}, PMaxPu: []float64{1}},
			{ID: "expensive", Bus: "bus0", PNom: 1000, MarginalCost: 50, PMinPu: []float64{0}, PMaxPu: []float64{1}},
		},
		Loads:     []network.Load{{ID: "load0", Bus: "bus0", P: []float64{50}}},
		Snapshots: []network.Snapshot{{Index: 0, Weighting: 1}},
	}
}

// With nothing extendable, the slave's dispatch is the same 1300 every
// round (30*10 + 20*50, see the equivalent monolithic test), so the first
// optimality cut pins ALPHA >= 1300 directly and the second master solve
// accepts it exactly - no tolerance slack needed.
func TestBendersMatchesMonolithicWhenNothingIsExtendable(t *testing.T) {
	net := fixedCapacityMeritOrderNetwork()
	opts := lopf.Options{Formulation: lopf.AnglesLinear, InvestmentType: lopf.Continuous}

	res, err := benders.Run(context.Background(), net, refsolver.New(), opts, benders.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, "optimal", res.Status.String())
	require.InDelta(t, 1300.0, res.ObjectiveValue, 1e-6)
}

func TestBendersDefaultOptionsFillsInZeroTolerance(t *testing.T) {
	net := fixedCapacityMeritOrderNetwork()
	opts := lopf.Options{Formulation: lopf.AnglesLinear, InvestmentType: lopf.Continuous}

	res, err := benders.Run(context.Background(), net, refsolver.New(), opts, benders.Options{})
	require.NoError(t, err)
	require.InDelta(t, 1300.0, res.ObjectiveValue, benders.DefaultOptions().Tolerance+1e-6)
}

func TestBendersRejectsNilNetwork(t *testing.T) {
	opts := lopf.Options{Formulation: lopf.AnglesLinear, InvestmentType: lopf.Continuous}
	_, err := benders.Run(context.Background(), nil, refsolver.New(), opts, benders.DefaultOptions())
	require.Error(t, err)
}
