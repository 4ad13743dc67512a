// Package refsolver is a reference solver.Backend: a dense single-phase
// Big-M simplex for the LP relaxation, wrapped in depth-first
// branch-and-bound for integer/binary variables. It exists to exercise the
// core's solver.Backend interface end to end on the small meshed test
// networks spec §8 describes; it is not a production LP/MIP backend.
package refsolver

import "math"

// tableau is a dense simplex tableau: rows are constraints (normalized to
// rhs >= 0, each with a slack or artificial basis column), with the RHS kept
// in its own slice; the (Big-M-penalized) reduced costs are recomputed from
// cost and basis by reducedCostRow.
type tableau struct {
	rows, cols int
	a          [][]float64 // rows x cols, structural+slack+artificial columns
	rhs        []float64
	cost       []float64 // length cols, true objective coefficients
	basis      []int     // length rows, column index basic in each row
	artificial map[int]bool
}

const bigM = 1e7
const simplexEps = 1e-9

// solveLPResult is the outcome of one LP relaxation solve.
type solveLPResult struct {
	feasible bool
	unbounded bool
	x        []float64 // structural-variable values only (first nStruct columns)
	obj      float64
	duals    []float64 // one per original constraint row, sign per <=/>=/== as given
}

// lpProblem is the canonical-form input: minimize cost^T x subject to
// rows of (coef, relation, rhs), x >= 0. Relations: -1 = LE, 0 = EQ, 1 = GE.
type lpProblem struct {
	nStruct int
	cost    []float64
	rows    [][]float64 // each length nStruct
	rel     []int
	rhs     []float64
}

// rowPlan records how one constraint row was normalized into canonical
// (rhs >= 0) form and which extra columns it needed.
type rowPlan struct {
	sign       float64 // multiply row by this to make rhs >= 0
	needsSlack bool
	slackSign  float64 // +1 for <=, -1 for >=
	needsArtif bool
}

func solveLP(p lpProblem) solveLPResult {
	nRows := len(p.rows)
	// Determine extra columns needed: one slack/surplus per row (unless EQ),
	// one artificial per row that is GE, EQ, or has a negative RHS after
	// sign normalization.
	plans := make([]rowPlan, nRows)
	nSlack, nArtif := 0, 0
	for i := 0; i < nRows; i++ {
		sign := 1.0
		rel := p.rel[i]
		rhs := p.rhs[i]
		if rhs < 0 {
			sign = -1
			rhs = -rhs
			switch rel {
			case -1:
				rel = 1
			case 1:
				rel = -1
			}
		}
		pl := rowPlan{sign: sign}
		switch rel {
		case -1: // LE
			pl.needsSlack = true
			pl.slackSign = 1
			nSlack++
		case 1: // GE
			pl.needsSlack = true
			pl.slackSign = -1
			pl.needsArtif = true
			nSlack++
			nArtif++
		case 0: // EQ
			pl.needsArtif = true
			nArtif++
		}
		plans[i] = pl
	}

	nStruct := p.nStruct
	totalCols := nStruct + nSlack + nArtif
	t := &tableau{
		rows:       nRows,
		cols:       totalCols,
		a:          make([][]float64, nRows),
		rhs:        make([]float64, nRows),
		cost:       make([]float64, totalCols),
		basis:      make([]int, nRows),
		artificial: make(map[int]bool),
	}
	copy(t.cost, p.cost)

	slackCol := nStruct
	artifCol := nStruct + nSlack
	for i := 0; i < nRows; i++ {
		row := make([]float64, totalCols)
		sign := plans[i].sign
		for j := 0; j < nStruct; j++ {
			row[j] = sign * p.rows[i][j]
		}
		rhsVal := sign * p.rhs[i]
		if rhsVal < -simplexEps {
			// numerical guard; should not happen after sign normalization
			rhsVal = 0
		}
		if plans[i].needsSlack {
			row[slackCol] = plans[i].slackSign
			if plans[i].slackSign > 0 {
				t.basis[i] = slackCol
			}
			slackCol++
		}
		if plans[i].needsArtif {
			row[artifCol] = 1
			t.basis[i] = artifCol
			t.artificial[artifCol] = true
			t.cost[artifCol] = bigM
			artifCol++
		}
		t.a[i] = row
		t.rhs[i] = rhsVal
	}

	ok := t.run()
	res := solveLPResult{}
	if !ok {
		res.unbounded = true
		return res
	}

	// Infeasible if any artificial variable remains basic with positive value.
	for i, b := range t.basis {
		if t.artificial[b] && t.rhs[i] > 1e-6 {
			res.feasible = false
			return res
		}
	}

	x := make([]float64, nStruct)
	for i, b := range t.basis {
		if b < nStruct {
			x[b] = t.rhs[i]
		}
	}
	obj := 0.0
	for j := 0; j < nStruct; j++ {
		obj += p.cost[j] * x[j]
	}

	duals := make([]float64, nRows)
	reduced := t.reducedCostRow()
	for i := 0; i < nRows; i++ {
		// dual of row i is -(reduced cost of its slack column)/slackSign, or
		// for an equality row cost - reduced cost of its artificial column,
		// at optimum, undone for the row's sign flip.
		col := slackColFor(plans, i, nStruct, nSlack)
		d := 0.0
		if col >= 0 && plans[i].slackSign != 0 {
			d = -reduced[col] / plans[i].slackSign
		} else if plans[i].needsArtif {
			art := nStruct + nSlack
			for k := 0; k < i; k++ {
				if plans[k].needsArtif {
					art++
				}
			}
			d = t.cost[art] - reduced[art]
		}
		duals[i] = d * plans[i].sign
	}

	res.feasible = true
	res.x = x
	res.obj = obj
	res.duals = duals
	return res
}

// slackColFor recomputes the slack column index for row i without storing
// it separately; cheap given the small problem sizes this solver targets.
func slackColFor(plans []rowPlan, i, nStruct, nSlack int) int {
	col := nStruct
	for k := 0; k < i; k++ {
		if plans[k].needsSlack {
			col++
		}
	}
	if plans[i].needsSlack {
		return col
	}
	return -1
}

// run executes the primal simplex method with Bland's anti-cycling rule
// (lowest-index entering/leaving variable) until optimal or unbounded.
// Returns false only on detected unboundedness.
func (t *tableau) run() bool {
	for iter := 0; iter < 20000; iter++ {
		reduced := t.reducedCostRow()
		enter := -1
		for j := 0; j < t.cols; j++ {
			if reduced[j] < -simplexEps {
				enter = j
				break
			}
		}
		if enter == -1 {
			return true // optimal
		}

		leave := -1
		best := math.Inf(1)
		for i := 0; i < t.rows; i++ {
			if t.a[i][enter] > simplexEps {
				ratio := t.rhs[i] / t.a[i][enter]
				if ratio < best-simplexEps || (ratio < best+simplexEps && (leave == -1 || t.basis[i] < t.basis[leave])) {
					best = ratio
					leave = i
				}
			}
		}
		if leave == -1 {
			return false // unbounded
		}
		t.pivot(leave, enter)
	}
	return true
}

func (t *tableau) pivot(row, col int) {
	pv := t.a[row][col]
	for j := 0; j < t.cols; j++ {
		t.a[row][j] /= pv
	}
	t.rhs[row] /= pv
	for i := 0; i < t.rows; i++ {
		if i == row {
			continue
		}
		factor := t.a[i][col]
		if factor == 0 {
			continue
		}
		for j := 0; j < t.cols; j++ {
			t.a[i][j] -= factor * t.a[row][j]
		}
		t.rhs[i] -= factor * t.rhs[row]
	}
	t.basis[row] = col
}

// reducedCostRow computes c_j - z_j for every column given the current
// basis, i.e. the row simplex tableaus usually track incrementally; here
// it is recomputed each iteration for simplicity (problems are small).
func (t *tableau) reducedCostRow() []float64 {
	cb := make([]float64, t.rows)
	for i, b := range t.basis {
		cb[i] = t.cost[b]
	}
	reduced := make([]float64, t.cols)
	for j := 0; j < t.cols; j++ {
		z := 0.0
		for i := 0; i < t.rows; i++ {
			z += cb[i] * t.a[i][j]
		}
		reduced[j] = t.cost[j] - z
	}
	return reduced
}
