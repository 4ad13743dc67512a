// Package iterative runs the fixed-point reactance-update loop spec §4.6
// describes: line reactance is a function of installed capacity in the
// angle/cycle formulations, but a single monolithic solve takes x as fixed
// data, so this runner re-solves with x updated from the previous solution
// until the objective stabilizes.
package iterative

import (
	"context"
	"fmt"
	"math"

	"lopf/internal/lopf"
	"lopf/internal/network"
	"lopf/internal/solver"
)

// Options configures the loop (spec §6 "Iterative").
type Options struct {
	Iterations                 int
	PostDiscretization         bool
	SeqDiscretization          bool
	SeqDiscretizationThreshold float64
	DiscretizationThresholds   []float64
}

// DefaultOptions matches the spec's stated defaults.
func DefaultOptions() Options {
	return Options{
		Iterations:                 10,
		SeqDiscretizationThreshold: 0.3,
		DiscretizationThresholds:   []float64{0.2, 0.3},
	}
}

// Solve is the per-iteration solve call; callers pass an adapter around
// monolithic.Run or benders.Run, chosen by their configured decomposition
// (spec: "Solve LOPF (monolithic or Benders)").
type Solve func(ctx context.Context, net *network.Network, backend solver.Backend, opts lopf.Options) (*lopf.Solution, error)

// Trace records per-iteration history for logging (spec §6 outputs).
type Trace struct {
	Objectives []float64
	Capacities []map[string]float64 // LN_s_nom per iteration
	Reactances []map[string]float64 // x per iteration
}

// Result is the iterative runner's outcome.
type Result struct {
	Solution *lopf.Solution
	Trace    Trace
}

type baseline struct {
	x0           map[string]float64
	sNom0        map[string]float64
	numParallel0 map[string]float64
}

// Run executes the fixed-point loop in place on net, returning the last
// solution and the full trace.
func Run(ctx context.Context, net *network.Network, backend solver.Backend, opts lopf.Options, iterOpts Options, solve Solve) (*Result, error) {
	if net == nil {
		return nil, fmt.Errorf("iterative: network is nil")
	}
	if iterOpts.Iterations <= 0 {
		iterOpts.Iterations = DefaultOptions().Iterations
	}

	base := snapshotBaseline(net)

	var trace Trace
	var lastSol *lopf.Solution
	prevObj := math.Inf(1)

	for k := 1; k <= iterOpts.Iterations; k++ {
		sol, err := solve(ctx, net, backend, opts)
		if err != nil {
			return nil, fmt.Errorf("iterative: iteration %d: %w", k, err)
		}
		lastSol = sol

		trace.Objectives = append(trace.Objectives, sol.ObjectiveValue)
		trace.Capacities = append(trace.Capacities, cloneMap(sol.LNSNomOpt))
		trace.Reactances = append(trace.Reactances, currentReactances(net))

		if k > 1 && math.Abs(sol.ObjectiveValue-prevObj) <= 1 {
			break
		}
		prevObj = sol.ObjectiveValue

		updateReactances(net, base, sol, iterOpts)
	}

	if iterOpts.PostDiscretization {
		sol, err := runPostDiscretization(ctx, net, backend, opts, iterOpts, base, lastSol, solve)
		if err != nil {
			return nil, fmt.Errorf("iterative: post-discretization: %w", err)
		}
		if sol != nil {
			lastSol = sol
		}
	}

	return &Result{Solution: lastSol, Trace: trace}, nil
}

func snapshotBaseline(net *network.Network) baseline {
	b := baseline{
		x0:           map[string]float64{},
		sNom0:        map[string]float64{},
		numParallel0: map[string]float64{},
	}
	for _, l := range net.Lines {
		if !l.SNomExtendable {
			continue
		}
		b.x0[l.ID] = l.X
		b.sNom0[l.ID] = l.SNom
		b.numParallel0[l.ID] = l.NumParallel
	}
	return b
}

func currentReactances(net *network.Network) map[string]float64 {
	m := make(map[string]float64, len(net.Lines))
	for _, l := range net.Lines {
		m[l.ID] = l.X
	}
	return m
}

func cloneMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// updateReactances applies spec §4.6 step 2's per-line rule: zero-capacity
// lines get the numerical sentinel, seq_discretization rounds the extension
// to whole parallel circuits before recomputing x, otherwise x scales
// inversely with the continuous capacity ratio.
func updateReactances(net *network.Network, base baseline, sol *lopf.Solution, iterOpts Options) {
	changed := false
	for i, l := range net.Lines {
		if !l.SNomExtendable {
			continue
		}
		sNomOpt, ok := sol.LNSNomOpt[l.ID]
		if !ok {
			continue
		}
		x0 := base.x0[l.ID]
		sNom0 := base.sNom0[l.ID]
		numParallel0 := base.numParallel0[l.ID]

		switch {
		case sNomOpt == 0:
			net.Lines[i].X = network.ReactanceSentinel
		case iterOpts.SeqDiscretization:
			numParallelExt := roundAtThreshold((sNomOpt/sNom0-1)*numParallel0, iterOpts.SeqDiscretizationThreshold)
			net.Lines[i].X = x0 * numParallel0 / (numParallelExt + numParallel0)
		default:
			net.Lines[i].X = x0 * sNom0 / sNomOpt
		}
		changed = true
	}
	if changed {
		net.BumpTopologyVersion()
	}
}

// roundAtThreshold rounds v to the nearest integer, but only commits to
// rounding up once the fractional part clears tau; below tau it rounds down.
// This is the discrete analogue of a plain round() with a configurable
// midpoint (spec §4.6's "round ... at threshold tau").
func roundAtThreshold(v, tau float64) float64 {
	floor := math.Floor(v)
	frac := v - floor
	if frac >= tau {
		return floor + 1
	}
	return floor
}
