package network_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"lopf/internal/network"
)

func baseValidNetwork() *network.Network {
	return &network.Network{
		Buses: []network.Bus{{ID: "bus0", Name: "bus0"}, {ID: "bus1", Name: "bus1"}},
		Lines: []network.Line{
			{ID: "line0", Bus0: "bus0", Bus1: "bus1", X: 0.1, SNom: 100, NumParallel: 1, SMaxPu: 1},
		},
		Loads:     []network.Load{{ID: "load0", Bus: "bus1", P: []float64{50}}},
		Snapshots: []network.Snapshot{{Index: 0, Weighting: 1}},
	}
}

func TestValidateAcceptsWellFormedNetwork(t *testing.T) {
	require.NoError(t, baseValidNetwork().Validate())
}

func TestValidateRejectsUnknownBus(t *testing.T) {
	net := baseValidNetwork()
	net.Lines[0].Bus1 = "bus-missing"
	require.Error(t, net.Validate())
}

func TestValidateRejectsMismatchedSeriesLength(t *testing.T) {
	net := baseValidNetwork()
	net.Loads[0].P = []float64{1, 2, 3} // T=1, series neither scalar nor length-T
	require.Error(t, net.Validate())
}

func TestValidateAcceptsScalarBroadcastSeries(t *testing.T) {
	net := baseValidNetwork()
	net.Snapshots = []network.Snapshot{{Index: 0, Weighting: 1}, {Index: 1, Weighting: 1}}
	net.Loads[0].P = []float64{50} // length-1 scalar broadcast over T=2
	require.NoError(t, net.Validate())
}

func TestValidateRejectsNoSnapshots(t *testing.T) {
	net := baseValidNetwork()
	net.Snapshots = nil
	require.Error(t, net.Validate())
}

func TestValidateRejectsBadExtendableBounds(t *testing.T) {
	net := baseValidNetwork()
	net.Lines[0].SNomExtendable = true
	net.Lines[0].SNomMin = 100
	net.Lines[0].SNomMax = 10
	require.Error(t, net.Validate())
}

func TestValidateRejectsZeroNumParallel(t *testing.T) {
	net := baseValidNetwork()
	net.Lines[0].NumParallel = 0
	require.Error(t, net.Validate())
}

func TestBusIndex(t *testing.T) {
	net := baseValidNetwork()
	idx := net.BusIndex()
	require.Equal(t, 0, idx["bus0"])
	require.Equal(t, 1, idx["bus1"])
	require.Len(t, idx, 2)
}

func TestTCountsSnapshots(t *testing.T) {
	net := baseValidNetwork()
	require.Equal(t, 1, net.T())
}

func TestXPuDefaultsToOhmsWhenNoVoltageBase(t *testing.T) {
	net := baseValidNetwork()
	// No VNom, no SBase set: z_base collapses to 1, so x_pu == x.
	require.Equal(t, net.Lines[0].X, net.XPu(net.Lines[0]))
}

func TestXPuScalesByVoltageAndSBase(t *testing.T) {
	net := baseValidNetwork()
	net.SBase = 100
	net.Buses[0].VNom = 380
	l := net.Lines[0]
	l.X = 38
	want := l.X / ((380.0 * 380.0) / 100.0)
	require.InDelta(t, want, net.XPu(l), 1e-9)
}

func TestLoadAtBroadcastsScalarSeries(t *testing.T) {
	ld := network.Load{P: []float64{42}}
	require.Equal(t, 42.0, ld.LoadAt(0))
	require.Equal(t, 42.0, ld.LoadAt(5))
}

func TestLoadAtIndexesPerSnapshotSeries(t *testing.T) {
	ld := network.Load{P: []float64{1, 2, 3}}
	require.Equal(t, 2.0, ld.LoadAt(1))
}

func TestPartitionByExtendableOrdersFixedThenExtendable(t *testing.T) {
	extendable := map[int]bool{1: true, 3: true}
	p := network.PartitionByExtendable(4, func(i int) bool { return extendable[i] })
	require.Equal(t, 2, p.NumFixed)
	require.Equal(t, 2, p.NumExtend)
	require.Equal(t, []int{0, 2, 1, 3}, p.Order)
}

func TestBumpTopologyVersionIsSafeToCallRepeatedly(t *testing.T) {
	net := baseValidNetwork()
	net.BumpTopologyVersion()
	net.BumpTopologyVersion()
}
