package iterative

import (
	"context"
	"fmt"
	"math"

	"lopf/internal/lopf"
	"lopf/internal/network"
	"lopf/internal/solver"
)

// runPostDiscretization sweeps iterOpts.DiscretizationThresholds (spec
// §4.6 step 3): for each tau, round every extendable line's continuous
// capacity to a whole number of added parallel circuits at that threshold,
// fix the line at that capacity (s_nom_extendable = false) and re-solve.
// The tau with the lowest re-solved objective wins; its rounded capacities
// are written back and every line's original extendability flag is
// restored regardless of which tau won.
func runPostDiscretization(ctx context.Context, net *network.Network, backend solver.Backend, opts lopf.Options, iterOpts Options, base baseline, continuousSol *lopf.Solution, solve Solve) (*lopf.Solution, error) {
	if continuousSol == nil {
		return nil, fmt.Errorf("no converged continuous solution to discretize")
	}

	thresholds := iterOpts.DiscretizationThresholds
	if len(thresholds) == 0 {
		thresholds = DefaultOptions().DiscretizationThresholds
	}

	origExtendable := make(map[string]bool, len(net.Lines))
	for _, l := range net.Lines {
		origExtendable[l.ID] = l.SNomExtendable
	}

	bestObj := math.Inf(1)
	var bestCaps map[string]float64
	var bestSol *lopf.Solution

	for _, tau := range thresholds {
		caps := roundLineExtensions(net, base, continuousSol, tau)
		applyFixedCapacities(net, caps)

		sol, err := solve(ctx, net, backend, opts)
		restoreExtendability(net, origExtendable)
		if err != nil {
			continue // an infeasible rounding at this tau is simply skipped
		}
		if sol.ObjectiveValue < bestObj {
			bestObj = sol.ObjectiveValue
			bestCaps = caps
			bestSol = sol
		}
	}

	if bestCaps == nil {
		return nil, fmt.Errorf("no threshold in %v produced a feasible rounded solve", thresholds)
	}

	applyFixedCapacities(net, bestCaps)
	restoreExtendability(net, origExtendable)
	net.BumpTopologyVersion()

	return bestSol, nil
}

// roundLineExtensions is round_line_extension!(tau): the same
// threshold-rounded parallel-circuit count iteration's updateReactances
// uses, but returning capacities (s_nom) rather than reactances.
func roundLineExtensions(net *network.Network, base baseline, continuousSol *lopf.Solution, tau float64) map[string]float64 {
	caps := make(map[string]float64, len(net.Lines))
	for _, l := range net.Lines {
		if !l.SNomExtendable {
			continue
		}
		sNomOpt, ok := continuousSol.LNSNomOpt[l.ID]
		if !ok {
			continue
		}
		sNom0 := base.sNom0[l.ID]
		numParallel0 := base.numParallel0[l.ID]
		perParallel := sNom0 / numParallel0

		numParallelExt := roundAtThreshold((sNomOpt/sNom0-1)*numParallel0, tau)
		caps[l.ID] = sNom0 + numParallelExt*perParallel
	}
	return caps
}

func applyFixedCapacities(net *network.Network, caps map[string]float64) {
	for i, l := range net.Lines {
		v, ok := caps[l.ID]
		if !ok {
			continue
		}
		net.Lines[i].SNom = v
		net.Lines[i].SNomOpt = v
		net.Lines[i].SNomExtendable = false
	}
	net.BumpTopologyVersion()
}

func restoreExtendability(net *network.Network, orig map[string]bool) {
	for i, l := range net.Lines {
		net.Lines[i].SNomExtendable = orig[l.ID]
	}
}
