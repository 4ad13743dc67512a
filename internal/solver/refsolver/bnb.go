package refsolver

import (
	"context"
	"math"

	"lopf/internal/solver"
)

// bnbResult is the outcome of branch-and-bound: an LP-relaxation-shaped
// result for the best integer-feasible node found.
type bnbResult struct {
	solveLPResult
}

// bnbNode is one branch-and-bound search node: a refinement of variable
// bounds relative to the root model.
type bnbNode struct {
	bounds map[int]solver.Bounds
}

// branchAndBound runs depth-first search with best-bound pruning over the
// LP relaxation, branching on the most-fractional integer/binary variable
// and exploring the floor branch first — a deterministic, reproducible
// order in the spirit of katalvlaran-lvlath/tsp's bbEngine (fixed branch
// order, admissible LP-relaxation lower bound for pruning).
func branchAndBound(ctx context.Context, m *model) bnbResult {
	best := bnbResult{}
	best.feasible = false
	bestObj := math.Inf(1)

	stack := []bnbNode{{bounds: map[int]solver.Bounds{}}}
	nodesExplored := 0
	const maxNodes = 50000

	for len(stack) > 0 {
		select {
		case <-ctx.Done():
			if best.feasible {
				return best
			}
			return bnbResult{solveLPResult: solveLPResult{feasible: false}}
		default:
		}

		nodesExplored++
		if nodesExplored > maxNodes {
			break
		}

		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		lp := m.solveRelaxation(node.bounds)
		if lp.unbounded {
			if !best.feasible {
				return bnbResult{solveLPResult: lp}
			}
			continue
		}
		if !lp.feasible {
			continue
		}
		if lp.obj >= bestObj-1e-9 {
			continue // pruned: cannot improve on the incumbent
		}

		fracVar, fracVal, isFrac := mostFractional(m, lp.x)
		if !isFrac {
			best = bnbResult{solveLPResult: lp}
			bestObj = lp.obj
			continue
		}

		floorBounds := cloneBounds(node.bounds)
		ceilBounds := cloneBounds(node.bounds)
		orig := m.vars[fracVar].bounds
		if b, ok := node.bounds[fracVar]; ok {
			orig = b
		}
		floorBounds[fracVar] = solver.Bounds{Lower: orig.Lower, Upper: math.Floor(fracVal)}
		ceilBounds[fracVar] = solver.Bounds{Lower: math.Ceil(fracVal), Upper: orig.Upper}

		// Push ceil first so floor (typically the more conservative
		// extension choice for investment variables) is explored first.
		stack = append(stack, bnbNode{bounds: ceilBounds}, bnbNode{bounds: floorBounds})
	}

	if !best.feasible {
		return best
	}

	// Re-solve with integer variables pinned to their incumbent values to
	// recover duals on the remaining (continuous) constraints, the same
	// fix-and-resolve technique used to price out Benders cuts.
	pinned := map[int]solver.Bounds{}
	for i, v := range m.vars {
		if v.domain != solver.Real {
			val := math.Round(best.x[i])
			pinned[i] = solver.Bounds{Lower: val, Upper: val}
		}
	}
	final := m.solveRelaxation(pinned)
	if final.feasible {
		final.x = best.x
		best.solveLPResult = final
	}
	return best
}

func mostFractional(m *model, x []float64) (idx int, val float64, found bool) {
	bestFrac := 1e-6
	idx = -1
	for i, v := range m.vars {
		if v.domain == solver.Real {
			continue
		}
		f := x[i] - math.Floor(x[i])
		dist := math.Min(f, 1-f)
		if dist > bestFrac {
			bestFrac = dist
			idx = i
			val = x[i]
			found = true
		}
	}
	return idx, val, found
}

func cloneBounds(b map[int]solver.Bounds) map[int]solver.Bounds {
	out := make(map[int]solver.Bounds, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}
