package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"lopf/internal/lopf"
	"lopf/internal/lopf/benders"
	"lopf/internal/lopf/iterative"
	"lopf/internal/lopf/monolithic"
	"lopf/internal/lopfio"
	"lopf/internal/netio"
	"lopf/internal/network"
	"lopf/internal/solver"
	"lopf/internal/solver/refsolver"
)

// Demo:
//   - Build a small 5-bus AC-DC meshed network in code (an AC ring of 4
//     buses plus one bus reachable only via a DC link, mirroring the shape
//     of PyPSA's ac-dc-meshed example).
//   - Run the monolithic, iterative, and Benders runners back to back on
//     independent copies, and print a comparison of their objectives.
func main() {
	outDir := flag.String("out", "", "Optional directory to write per-runner dispatch CSVs")
	saveNetwork := flag.String("save-network", "", "Optional path to write the demo network as YAML")
	flag.Parse()

	net := buildDemoNetwork()

	if *saveNetwork != "" {
		if err := netio.Save(*saveNetwork, net); err != nil {
			panic(err)
		}
		fmt.Printf("Wrote demo network to %s\n", *saveNetwork)
	}

	ctx := context.Background()
	backend := refsolver.New()
	opts := lopf.Options{
		Formulation:    lopf.AnglesLinear,
		InvestmentType: lopf.Continuous,
	}

	fmt.Println("=== monolithic ===")
	monoRes, err := monolithic.Run(ctx, cloneNetwork(net), backend, opts)
	if err != nil {
		panic(err)
	}
	fmt.Printf("objective=%.2f status=%s\n", monoRes.ObjectiveValue, monoRes.Status)
	writeIfRequested(*outDir, "monolithic.csv", monoRes.Solution)

	fmt.Println("=== iterative ===")
	iterRes, err := iterative.Run(ctx, cloneNetwork(net), backend, opts, iterative.DefaultOptions(), monolithicSolve)
	if err != nil {
		panic(err)
	}
	fmt.Printf("objective=%.2f iterations=%d\n", iterRes.Solution.ObjectiveValue, len(iterRes.Trace.Objectives))
	writeIfRequested(*outDir, "iterative.csv", iterRes.Solution)

	fmt.Println("=== benders ===")
	bendersRes, err := benders.Run(ctx, cloneNetwork(net), backend, opts, benders.DefaultOptions())
	if err != nil {
		panic(err)
	}
	fmt.Printf("objective=%.2f status=%s\n", bendersRes.ObjectiveValue, bendersRes.Status)
	writeIfRequested(*outDir, "benders.csv", bendersRes.Solution)

	fmt.Println("\n=== comparison ===")
	fmt.Printf("monolithic=%.2f  iterative=%.2f  benders=%.2f\n",
		monoRes.ObjectiveValue, iterRes.Solution.ObjectiveValue, bendersRes.ObjectiveValue)
}

func monolithicSolve(ctx context.Context, net *network.Network, backend solver.Backend, opts lopf.Options) (*lopf.Solution, error) {
	res, err := monolithic.Run(ctx, net, backend, opts)
	if err != nil {
		return nil, err
	}
	return res.Solution, nil
}

func writeIfRequested(dir, name string, sol *lopf.Solution) {
	if dir == "" {
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		panic(err)
	}
	if err := lopfio.WriteDispatchCSV(filepath.Join(dir, name), sol); err != nil {
		panic(err)
	}
}

// cloneNetwork deep-copies the slices a runner mutates (lines, generators,
// links, storage) so three runners can each start from the same investment
// baseline.
func cloneNetwork(net *network.Network) *network.Network {
	cp := *net
	cp.Lines = append([]network.Line(nil), net.Lines...)
	cp.Links = append([]network.Link(nil), net.Links...)
	cp.Generators = append([]network.Generator(nil), net.Generators...)
	cp.StorageUnits = append([]network.StorageUnit(nil), net.StorageUnits...)
	cp.Stores = append([]network.Store(nil), net.Stores...)
	return &cp
}

// buildDemoNetwork returns a 5-bus network: bus0-bus1-bus2-bus3 form an AC
// ring with one extendable line (bus2-bus3), and bus4 is reachable only
// through an extendable DC link from bus0.
func buildDemoNetwork() *network.Network {
	const T = 4
	snaps := make([]network.Snapshot, T)
	for t := 0; t < T; t++ {
		snaps[t] = network.Snapshot{Index: t, Weighting: 1}
	}

	return &network.Network{
		SBase: 100,
		Buses: []network.Bus{
			{ID: "bus0", Name: "bus0", VNom: 380},
			{ID: "bus1", Name: "bus1", VNom: 380},
			{ID: "bus2", Name: "bus2", VNom: 380},
			{ID: "bus3", Name: "bus3", VNom: 380},
			{ID: "bus4", Name: "bus4", VNom: 380},
		},
		Lines: []network.Line{
			{ID: "line0", Bus0: "bus0", Bus1: "bus1", X: 0.1, R: 0.01, SNom: 200, NumParallel: 1, SMaxPu: 1},
			{ID: "line1", Bus0: "bus1", Bus1: "bus2", X: 0.1, R: 0.01, SNom: 200, NumParallel: 1, SMaxPu: 1},
			{
				ID: "line2", Bus0: "bus2", Bus1: "bus3", X: 0.1, R: 0.01,
				SNom: 50, SNomMin: 0, SNomMax: 300, SNomExtendable: true, NumParallel: 1,
				SMaxPu: 1, CapitalCost: 100,
			},
			{ID: "line3", Bus0: "bus3", Bus1: "bus0", X: 0.1, R: 0.01, SNom: 200, NumParallel: 1, SMaxPu: 1},
		},
		Links: []network.Link{
			{
				ID: "link0", Bus0: "bus0", Bus1: "bus4",
				PNom: 50, PNomMin: 0, PNomMax: 300, PNomExtendable: true,
				PMinPu: -1, PMaxPu: 1, Efficiency: 0.98, CapitalCost: 80,
			},
		},
		Generators: []network.Generator{
			{ID: "gen_cheap", Bus: "bus0", Carrier: "gas", PNom: 150, MarginalCost: 20, PMaxPu: []float64{1}},
			{ID: "gen_mid", Bus: "bus2", Carrier: "gas", PNom: 100, MarginalCost: 40, PMaxPu: []float64{1}},
			{
				ID: "gen_wind", Bus: "bus4", Carrier: "wind", PNom: 120, MarginalCost: 0,
				PMaxPu: []float64{0.9, 0.4, 0.2, 0.8},
			},
		},
		Loads: []network.Load{
			{ID: "load1", Bus: "bus1", P: []float64{80, 90, 100, 70}},
			{ID: "load3", Bus: "bus3", P: []float64{60, 70, 50, 65}},
			{ID: "load4", Bus: "bus4", P: []float64{30, 25, 35, 40}},
		},
		Carriers: []network.Carrier{
			{Name: "gas", CO2Emissions: 0.4},
			{Name: "wind", CO2Emissions: 0},
		},
		Snapshots: snaps,
	}
}
