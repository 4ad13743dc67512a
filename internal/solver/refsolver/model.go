package refsolver

import (
	"context"
	"fmt"
	"math"

	"lopf/internal/solver"
)

// noUpperBound is the sentinel used for "no explicit upper bound"; large
// enough never to bind in the small networks this solver targets.
const noUpperBound = 1e15

// Backend is a solver.Backend producing refsolver Models.
type Backend struct{}

// New returns a fresh Backend. Wire as the solver.Factory in tests/cmd.
func New() solver.Backend { return &Backend{} }

func (Backend) NewModel(kind solver.Kind) solver.Model {
	return &model{kind: kind}
}

type variable struct {
	name   string
	domain solver.Domain
	bounds solver.Bounds
}

type constraint struct {
	expr solver.Expr
	rel  solver.Relation
	rhs  float64
}

// model is an in-memory solver.Model. It re-solves the whole problem from
// scratch on every Solve call (no warm start) since the Benders driver only
// calls Solve a handful of times per slave per master incumbent.
type model struct {
	kind  solver.Kind
	vars  []variable
	cons  []constraint
	obj   solver.Expr
	sense solver.Sense
	lazy  []solver.LazyCallback

	status solver.Status
	xVal   []float64
	objVal float64
	duals  []float64
}

func (m *model) AddVariable(name string, domain solver.Domain, bounds solver.Bounds) solver.Var {
	if domain == solver.Binary {
		bounds = solver.Bounds{Lower: 0, Upper: 1}
	}
	m.vars = append(m.vars, variable{name: name, domain: domain, bounds: bounds})
	return solver.NewVar(len(m.vars) - 1)
}

func (m *model) AddLinearConstraint(expr solver.Expr, rel solver.Relation, rhs float64) (solver.Constraint, error) {
	m.cons = append(m.cons, constraint{expr: cloneExpr(expr), rel: rel, rhs: rhs})
	return solver.NewConstraint(len(m.cons) - 1), nil
}

func (m *model) SetObjective(expr solver.Expr, sense solver.Sense) {
	m.obj = cloneExpr(expr)
	m.sense = sense
}

func (m *model) SetRHS(c solver.Constraint, rhs float64) {
	id := c.ID()
	if id < 0 || id >= len(m.cons) {
		return
	}
	m.cons[id].rhs = rhs
}

func (m *model) AddLazyConstraint(cb solver.LazyCallback) error {
	m.lazy = append(m.lazy, cb)
	return nil
}

func cloneExpr(e solver.Expr) solver.Expr {
	out := solver.Expr{Const: e.Const, Terms: make([]solver.Term, len(e.Terms))}
	copy(out.Terms, e.Terms)
	return out
}

func (m *model) Solve(ctx context.Context) (solver.Status, error) {
	hasIntegerVars := false
	for _, v := range m.vars {
		if v.domain != solver.Real {
			hasIntegerVars = true
			break
		}
	}

	var res bnbResult
	if m.kind == solver.KindLP || !hasIntegerVars {
		lpRes := m.solveRelaxation(nil)
		res = bnbResult{solveLPResult: lpRes}
	} else {
		res = branchAndBound(ctx, m)
	}

	if res.unbounded {
		m.status = solver.StatusUnbounded
		return m.status, nil
	}
	if !res.feasible {
		m.status = solver.StatusInfeasible
		return m.status, fmt.Errorf("infeasible")
	}
	select {
	case <-ctx.Done():
		m.status = solver.StatusTimeLimit
	default:
		m.status = solver.StatusOptimal
	}
	m.xVal = res.x
	m.objVal = res.obj
	m.duals = res.duals

	// This reference backend does not hook into branch-and-bound's
	// internal node loop, so lazy callbacks fire once per Solve call, at
	// the final incumbent, rather than at every node's incumbent a true
	// callback-capable MIP backend would offer. Cuts a callback adds via
	// AddCut land in the model immediately; the caller (the Benders
	// driver) is expected to call Solve again to have them enforced, the
	// same shape a real lazy-constraint backend presents at the call site.
	if len(m.lazy) > 0 && allIntegral(m, res.x) {
		for _, cb := range m.lazy {
			if err := cb(&lazyCtx{m: m, x: res.x}); err != nil {
				return solver.StatusError, err
			}
		}
	}

	return m.status, nil
}

func allIntegral(m *model, x []float64) bool {
	for i, v := range m.vars {
		if v.domain == solver.Real {
			continue
		}
		if math.Abs(x[i]-math.Round(x[i])) > 1e-6 {
			return false
		}
	}
	return true
}

// solveRelaxation solves the LP relaxation, optionally with extra fixed
// bounds overriding the model's own (used by branch-and-bound).
func (m *model) solveRelaxation(fixedBounds map[int]solver.Bounds) solveLPResult {
	nStruct := len(m.vars)
	bounds := make([]solver.Bounds, nStruct)
	for i, v := range m.vars {
		bounds[i] = v.bounds
	}
	for i, b := range fixedBounds {
		bounds[i] = b
	}

	// Shift every variable by its lower bound so the canonical LP is over
	// y = x - lower >= 0; re-expand into x when reporting results.
	lower := make([]float64, nStruct)
	for i, b := range bounds {
		lower[i] = b.Lower
	}

	var rows [][]float64
	var rel []int
	var rhs []float64

	addRow := func(coefs []float64, r int, rv float64) {
		rows = append(rows, coefs)
		rel = append(rel, r)
		rhs = append(rhs, rv)
	}

	for _, c := range m.cons {
		coefs := make([]float64, nStruct)
		shiftedRHS := c.rhs - c.expr.Const
		for _, t := range c.expr.Terms {
			idx := t.Var.ID()
			coefs[idx] += t.Coef
			shiftedRHS -= t.Coef * lower[idx]
		}
		addRow(coefs, relCode(c.rel), shiftedRHS)
	}
	for i, b := range bounds {
		if b.Upper < noUpperBound {
			coefs := make([]float64, nStruct)
			coefs[i] = 1
			addRow(coefs, -1, b.Upper-lower[i])
		}
	}

	cost := make([]float64, nStruct)
	for _, t := range m.obj.Terms {
		cost[t.Var.ID()] += t.Coef
	}

	p := lpProblem{nStruct: nStruct, cost: cost, rows: rows, rel: rel, rhs: rhs}
	lp := solveLP(p)
	if !lp.feasible || lp.unbounded {
		return lp
	}
	x := make([]float64, nStruct)
	for i := range x {
		x[i] = lp.x[i] + lower[i]
	}
	lp.x = x
	lp.obj = m.obj.Const
	for _, t := range m.obj.Terms {
		lp.obj += t.Coef * x[t.Var.ID()]
	}
	return lp
}

func relCode(r solver.Relation) int {
	switch r {
	case solver.LE:
		return -1
	case solver.GE:
		return 1
	default:
		return 0
	}
}

func (m *model) Value(v solver.Var) float64 {
	id := v.ID()
	if id < 0 || id >= len(m.xVal) {
		return 0
	}
	return m.xVal[id]
}

func (m *model) ObjectiveValue() float64 { return m.objVal }

func (m *model) Dual(c solver.Constraint) float64 {
	id := c.ID()
	if id < 0 || id >= len(m.duals) {
		return 0
	}
	return m.duals[id]
}

// lazyCtx implements solver.LazyContext against an incumbent's values,
// installing new cuts directly as additional model constraints.
type lazyCtx struct {
	m *model
	x []float64
}

func (l *lazyCtx) Value(v solver.Var) float64 {
	id := v.ID()
	if id < 0 || id >= len(l.x) {
		return 0
	}
	return l.x[id]
}

func (l *lazyCtx) AddCut(expr solver.Expr, rel solver.Relation, rhs float64) error {
	_, err := l.m.AddLinearConstraint(expr, rel, rhs)
	return err
}
