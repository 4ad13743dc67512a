package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"lopf/internal/config"
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

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "solve":
		cmdSolve(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli solve --network network.yaml --config config.yaml --out results/dispatch.csv")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - config selects formulation, investment_type, decomposition (\"\" or \"benders\") and iterative options")
	fmt.Println("  - dispatch CSV is a long-format ledger: snapshot,kind,id,value")
}

func cmdSolve(args []string) {
	fs := flag.NewFlagSet("solve", flag.ExitOnError)
	netPath := fs.String("network", "", "Path to network YAML")
	cfgPath := fs.String("config", "", "Path to run config YAML")
	outPath := fs.String("out", "results/dispatch.csv", "Output CSV path")
	_ = fs.Parse(args)

	if *netPath == "" {
		fmt.Println("--network is required")
		os.Exit(2)
	}
	if *cfgPath == "" {
		fmt.Println("--config is required")
		os.Exit(2)
	}

	net, err := netio.Load(*netPath)
	if err != nil {
		panic(err)
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}
	opts, err := cfg.LOPFOptions()
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	backend := refsolver.New()

	var solve iterative.Solve = func(ctx context.Context, net *network.Network, backend solver.Backend, opts lopf.Options) (*lopf.Solution, error) {
		res, err := monolithic.Run(ctx, net, backend, opts)
		if err != nil {
			return nil, err
		}
		return res.Solution, nil
	}
	if cfg.Decomposition == "benders" {
		bOpts := benders.Options{
			SplitSubproblems: cfg.Benders.SplitSubproblems,
			IndividualCuts:   cfg.Benders.IndividualCuts,
			Tolerance:        cfg.Benders.Tolerance,
			MIPGap:           cfg.Benders.MIPGap,
			BigM:             cfg.Benders.BigM,
			UpdateX:          cfg.Benders.UpdateX,
		}
		solve = func(ctx context.Context, net *network.Network, backend solver.Backend, opts lopf.Options) (*lopf.Solution, error) {
			res, err := benders.Run(ctx, net, backend, opts, bOpts)
			if err != nil {
				return nil, err
			}
			return res.Solution, nil
		}
	}

	var sol *lopf.Solution
	if cfg.Iterative.Iterations > 0 || cfg.Iterative.PostDiscretization || cfg.Iterative.SeqDiscretization {
		iterOpts := iterative.Options{
			Iterations:                 cfg.Iterative.Iterations,
			PostDiscretization:         cfg.Iterative.PostDiscretization,
			SeqDiscretization:          cfg.Iterative.SeqDiscretization,
			SeqDiscretizationThreshold: cfg.Iterative.SeqDiscretizationThreshold,
			DiscretizationThresholds:   cfg.Iterative.DiscretizationThresholds,
		}
		res, err := iterative.Run(ctx, net, backend, opts, iterOpts, solve)
		if err != nil {
			panic(err)
		}
		sol = res.Solution
		fmt.Printf("Ran %d iterations, objectives=%v\n", len(res.Trace.Objectives), res.Trace.Objectives)
	} else {
		sol, err = solve(ctx, net, backend, opts)
		if err != nil {
			panic(err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		panic(err)
	}
	if err := lopfio.WriteDispatchCSV(*outPath, sol); err != nil {
		panic(err)
	}

	fmt.Printf("Wrote dispatch ledger to %s\n", *outPath)
	fmt.Printf("Objective=%.2f\n", sol.ObjectiveValue)
}
