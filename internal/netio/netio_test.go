package netio_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"lopf/internal/netio"
	"lopf/internal/network"
)

func sampleNetwork() *network.Network {
	return &network.Network{
		SBase: 100,
		Buses: []network.Bus{{ID: "bus0", Name: "bus0", VNom: 380}, {ID: "bus1", Name: "bus1", VNom: 380}},
		Lines: []network.Line{
			{ID: "line0", Bus0: "bus0", Bus1: "bus1", X: 0.1, R: 0.01, SNom: 100, NumParallel: 1, SMaxPu: 1},
		},
		Generators: []network.Generator{
			{ID: "gen0", Bus: "bus0", Carrier: "gas", PNom: 100, MarginalCost: 10, PMinPu: []float64{0}, PMaxPu: []float64{1}},
		},
		Loads:     []network.Load{{ID: "load0", Bus: "bus1", P: []float64{50}}},
		Snapshots: []network.Snapshot{{Index: 0, Weighting: 1}},
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "net.yaml")
	want := sampleNetwork()
	require.NoError(t, netio.Save(path, want))

	got, err := netio.Load(path)
	require.NoError(t, err)

	require.Equal(t, want.SBase, got.SBase)
	require.Equal(t, want.Buses, got.Buses)
	require.Equal(t, want.Lines, got.Lines)
	require.Equal(t, want.Generators, got.Generators)
	require.Equal(t, want.Loads, got.Loads)
	require.Equal(t, want.Snapshots, got.Snapshots)
}

func TestLoadRejectsStructurallyInvalidNetwork(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	bad := sampleNetwork()
	bad.Lines[0].Bus1 = "nowhere"
	require.NoError(t, netio.Save(path, bad))

	_, err := netio.Load(path)
	require.Error(t, err)
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := netio.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
