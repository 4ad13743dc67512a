package network_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"lopf/internal/network"
)

func ringNetwork() *network.Network {
	return &network.Network{
		Buses: []network.Bus{
			{ID: "b0", Name: "b0"}, {ID: "b1", Name: "b1"},
			{ID: "b2", Name: "b2"}, {ID: "b3", Name: "b3"},
		},
		Lines: []network.Line{
			{ID: "l0", Bus0: "b0", Bus1: "b1", X: 0.1, SNom: 100, NumParallel: 1, SMaxPu: 1},
			{ID: "l1", Bus0: "b1", Bus1: "b2", X: 0.1, SNom: 100, NumParallel: 1, SMaxPu: 1},
			{ID: "l2", Bus0: "b2", Bus1: "b3", X: 0.1, SNom: 100, NumParallel: 1, SMaxPu: 1},
			{ID: "l3", Bus0: "b3", Bus1: "b0", X: 0.1, SNom: 100, NumParallel: 1, SMaxPu: 1},
		},
		Snapshots: []network.Snapshot{{Index: 0, Weighting: 1}},
	}
}

func TestCycleBasisFindsSingleFundamentalCycleInARing(t *testing.T) {
	net := ringNetwork()
	cycles := net.CycleBasis()
	require.Len(t, cycles, 1)
	require.Len(t, cycles[0].Lines, 4)
	require.Len(t, cycles[0].Directions, 4)
}

func TestCycleBasisIsEmptyForATree(t *testing.T) {
	net := ringNetwork()
	net.Lines = net.Lines[:3] // drop the closing edge: b0-b1-b2-b3 is now a tree
	cycles := net.CycleBasis()
	require.Empty(t, cycles)
}

func TestCycleBasisDiscardsParallelLinePairs(t *testing.T) {
	net := &network.Network{
		Buses: []network.Bus{{ID: "b0", Name: "b0"}, {ID: "b1", Name: "b1"}},
		Lines: []network.Line{
			{ID: "l0", Bus0: "b0", Bus1: "b1", X: 0.1, SNom: 100, NumParallel: 1, SMaxPu: 1},
			{ID: "l1", Bus0: "b0", Bus1: "b1", X: 0.1, SNom: 100, NumParallel: 1, SMaxPu: 1},
		},
		Snapshots: []network.Snapshot{{Index: 0, Weighting: 1}},
	}
	// A 2-cycle between the same bus pair is discarded per spec.
	require.Empty(t, net.CycleBasis())
}
