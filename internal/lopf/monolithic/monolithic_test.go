package monolithic_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"lopf/internal/lopf"
	"lopf/internal/lopf/monolithic"
	"lopf/internal/network"
	"lopf/internal/solver/refsolver"
)

func twoGeneratorMeritOrderNetwork() *network.Network {
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

func TestMonolithicDispatchesCheapestGeneratorFirst(t *testing.T) {
	net := twoGeneratorMeritOrderNetwork()
	opts := lopf.Options{Formulation: lopf.AnglesLinear, InvestmentType: lopf.Continuous}

	res, err := monolithic.Run(context.Background(), net, refsolver.New(), opts)
	require.NoError(t, err)

	require.InDelta(t, 30.0, res.Solution.G["cheap"][0], 1e-6)
	require.InDelta(t, 20.0, res.Solution.G["expensive"][0], 1e-6)
	require.InDelta(t, 1300.0, res.ObjectiveValue, 1e-6)
}

func twoBusLineNetwork() *network.Network {
	return &network.Network{
		Buses: []network.Bus{{ID: "bus0", Name: "bus0"}, {ID: "bus1", Name: "bus1"}},
		Lines: []network.Line{
			{ID: "line0", Bus0: "bus0", Bus1: "bus1", X: 0.1, SNom: 100, NumParallel: 1, SMaxPu: 1},
		},
		Generators: []network.Generator{
			{ID: "gen0", Bus: "bus0", PNom: 100, MarginalCost: 10, PMinPu: []float64{0}, PMaxPu: []float64{1}},
		},
		Loads:     []network.Load{{ID: "load0", Bus: "bus1", P: []float64{50}}},
		Snapshots: []network.Snapshot{{Index: 0, Weighting: 1}},
	}
}

func TestMonolithicCarriesLoadAcrossAFixedLine(t *testing.T) {
	net := twoBusLineNetwork()
	opts := lopf.Options{Formulation: lopf.AnglesLinear, InvestmentType: lopf.Continuous}

	res, err := monolithic.Run(context.Background(), net, refsolver.New(), opts)
	require.NoError(t, err)

	require.InDelta(t, 50.0, res.Solution.G["gen0"][0], 1e-6)
	require.InDelta(t, 50.0, res.Solution.LN["line0"][0], 1e-6)
	require.InDelta(t, 500.0, res.ObjectiveValue, 1e-6)
}

func extendableLineNetwork() *network.Network {
	return &network.Network{
		Buses: []network.Bus{{ID: "bus0", Name: "bus0"}, {ID: "bus1", Name: "bus1"}},
		Lines: []network.Line{
			{
				ID: "line0", Bus0: "bus0", Bus1: "bus1", X: 0.1,
				SNom: 0, SNomMin: 0, SNomMax: 100, SNomExtendable: true,
				NumParallel: 1, SMaxPu: 1, CapitalCost: 1, Length: 1,
			},
		},
		Generators: []network.Generator{
			{ID: "gen0", Bus: "bus0", PNom: 1000, MarginalCost: 10, PMinPu: []float64{0}, PMaxPu: []float64{1}},
		},
		Loads:     []network.Load{{ID: "load0", Bus: "bus1", P: []float64{50}}},
		Snapshots: []network.Snapshot{{Index: 0, Weighting: 1}},
	}
}

func TestMonolithicSizesExtendableLineToTheMinimumNeededCapacity(t *testing.T) {
	net := extendableLineNetwork()
	opts := lopf.Options{Formulation: lopf.AnglesLinear, InvestmentType: lopf.Continuous}

	res, err := monolithic.Run(context.Background(), net, refsolver.New(), opts)
	require.NoError(t, err)

	// capital cost (1 * 1 * 50) + dispatch cost (10 * 50)
	require.InDelta(t, 550.0, res.ObjectiveValue, 1e-6)
	require.InDelta(t, 50.0, res.Solution.LNSNomOpt["line0"], 1e-6)

	// WriteBack should have applied s_nom_opt onto the network in place.
	require.InDelta(t, 50.0, net.Lines[0].SNomOpt, 1e-6)
}

func TestMonolithicRejectsBilinearFormulations(t *testing.T) {
	net := twoBusLineNetwork()
	opts := lopf.Options{Formulation: lopf.AnglesBilinear, InvestmentType: lopf.Continuous}

	_, err := monolithic.Run(context.Background(), net, refsolver.New(), opts)
	require.Error(t, err)

	var cfgErr *lopf.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}
