package benders

import (
	"context"
	"math"

	"lopf/internal/lopf"
	"lopf/internal/network"
	"lopf/internal/rescale"
	"lopf/internal/solver"
)

// driver owns the master and its slave(s) and implements the lazy callback
// that mutates slave RHS and emits cuts at every master incumbent (spec
// §4.7).
type driver struct {
	ctx     context.Context
	net     *network.Network
	backend solver.Backend
	opts    lopf.Options
	bOpts   Options

	master  *lopf.Model
	slaves  []*lopf.Model
	nGroups int

	lastAccepted bool
}

// buildSlaves constructs either one slave spanning every snapshot, or T
// single-snapshot slaves when SplitSubproblems is set.
func (d *driver) buildSlaves(_ [][]int) error {
	slaveOpts := d.opts
	slaveOpts.Role = lopf.RoleSlave
	slaveOpts.BigM = d.bOpts.BigM

	if !d.bOpts.SplitSubproblems {
		o := slaveOpts
		o.Snapshots = lopf.AllSnapshots()
		m, err := lopf.Build(d.net, d.backend, o)
		if err != nil {
			return err
		}
		d.slaves = []*lopf.Model{m}
		return nil
	}

	d.slaves = make([]*lopf.Model, 0, d.net.T())
	for t := 0; t < d.net.T(); t++ {
		o := slaveOpts
		o.Snapshots = lopf.SingleSnapshot(t)
		m, err := lopf.Build(d.net, d.backend, o)
		if err != nil {
			return err
		}
		d.slaves = append(d.slaves, m)
	}
	return nil
}

// groupOf maps a slave's snapshot to its cut group (spec §4.7: "g = t if
// individualcuts else g = 1").
func (d *driver) groupOf(t int) int {
	if d.bOpts.IndividualCuts {
		return t
	}
	return 0
}

// onIncumbent is the lazy callback the master's solver.Model invokes at
// every new integer incumbent (spec §4.7 steps 1-7).
func (d *driver) onIncumbent(lctx solver.LazyContext) error {
	master := d.master

	if d.bOpts.UpdateX {
		d.updateReactancesFromIncumbent(lctx)
		if err := d.buildSlaves(nil); err != nil {
			return err
		}
	}

	for _, slave := range d.slaves {
		d.pushCoupledRHS(lctx, slave)
	}

	sumSlaveObj := 0.0
	allOptimal := true
	cutTerms := make(map[int][]solver.Term) // group -> terms
	cutConsts := make(map[int]float64)

	for _, slave := range d.slaves {
		status, err := slave.Solver.Solve(d.ctx)
		if err != nil && status != solver.StatusInfeasible {
			return err
		}
		for _, t := range slave.Snapshots() {
			g := d.groupOf(t)
			switch status {
			case solver.StatusOptimal:
				sumSlaveObj += slave.Solver.ObjectiveValue() / float64(len(slave.Snapshots()))
				terms, constVal := d.optimalityCutTerms(lctx, slave)
				for _, term := range terms {
					term.Coef /= float64(len(slave.Snapshots()))
					cutTerms[g] = append(cutTerms[g], term)
				}
				cutConsts[g] += constVal / float64(len(slave.Snapshots()))
			case solver.StatusInfeasible:
				allOptimal = false
				terms := d.feasibilityCutTerms(lctx, master)
				cutTerms[g] = append(cutTerms[g], terms...)
			default:
				allOptimal = false
			}
		}
	}

	sumAlpha := 0.0
	for _, a := range master.Alpha {
		sumAlpha += lctx.Value(a)
	}

	if !allOptimal {
		for g := 0; g < d.nGroups; g++ {
			terms, ok := cutTerms[g]
			if !ok {
				continue
			}
			expr := solver.Expr{Terms: terms}
			if err := lctx.AddCut(expr, solver.GE, 1e-6); err != nil {
				return err
			}
		}
		d.lastAccepted = false
		return nil
	}

	gap := math.Abs(sumSlaveObj - sumAlpha)
	if gap <= d.bOpts.Tolerance {
		d.lastAccepted = true
		return nil
	}

	for g := 0; g < d.nGroups; g++ {
		terms := cutTerms[g]
		if len(master.Alpha) <= g {
			continue
		}
		expr := solver.Expr{Const: cutConsts[g], Terms: terms}
		expr = expr.Add(master.Alpha[g], -1)
		if err := lctx.AddCut(expr, solver.LE, 0); err != nil {
			return err
		}
	}
	d.lastAccepted = false
	return nil
}

func (d *driver) updateReactancesFromIncumbent(lctx solver.LazyContext) {
	changed := false
	for i, l := range d.net.Lines {
		inv, ok := d.master.LNInv[l.ID]
		if !ok {
			continue
		}
		perParallel := l.SNom / l.NumParallel
		numParallelExt := lctx.Value(inv)
		if d.opts.InvestmentType == lopf.Continuous {
			numParallelExt = lctx.Value(inv) / perParallel
		}
		if l.NumParallel+numParallelExt <= 0 {
			continue
		}
		d.net.Lines[i].X = l.X * l.NumParallel / (l.NumParallel + numParallelExt)
		changed = true
	}
	if changed {
		d.net.BumpTopologyVersion()
	}
}

// pushCoupledRHS implements spec §4.7 step 3: for every coupled family at
// every snapshot the slave owns, set RHS = rescaling * (coefficient *
// master_var_value), clamping values under 1e-4 to zero.
func (d *driver) pushCoupledRHS(lctx solver.LazyContext, slave *lopf.Model) {
	net := d.net
	master := d.master
	clamp := func(v float64) float64 {
		if math.Abs(v) < 1e-4 {
			return 0
		}
		return v
	}

	fG := d.opts.Rescaling.Factor(rescale.BoundsG)
	for _, g := range net.Generators {
		nomVar, ok := master.GPNom[g.ID]
		if !ok {
			continue
		}
		val := lctx.Value(nomVar)
		for _, t := range slave.Snapshots() {
			if c, ok := slave.BoundsGUpper.Get(g.ID, t); ok {
				slave.Solver.SetRHS(c, clamp(fG*g.PMaxPuAt(t)*val))
			}
			if c, ok := slave.BoundsGLower.Get(g.ID, t); ok {
				slave.Solver.SetRHS(c, clamp(fG*g.PMinPuAt(t)*val))
			}
		}
	}

	fLN := d.opts.Rescaling.Factor(rescale.BoundsLN)
	for _, l := range net.Lines {
		nomVar, ok := master.LNSNom[l.ID]
		if !ok {
			continue
		}
		val := lctx.Value(nomVar)
		smaxPu := l.SMaxPu
		if smaxPu == 0 {
			smaxPu = 1
		}
		for _, t := range slave.Snapshots() {
			if c, ok := slave.BoundsLNUpper.Get(l.ID, t); ok {
				slave.Solver.SetRHS(c, clamp(fLN*smaxPu*val))
			}
			if c, ok := slave.BoundsLNLower.Get(l.ID, t); ok {
				slave.Solver.SetRHS(c, clamp(-fLN*smaxPu*val))
			}
		}

		if indicators, ok := master.LNOptBigM[l.ID]; ok {
			for t := range slave.FlowsUpper[l.ID] {
				for c, indVar := range indicators {
					z := lctx.Value(indVar)
					if con, ok := slave.FlowsUpper[l.ID][t][c]; ok {
						slave.Solver.SetRHS(con, clamp(d.bOpts.BigM*z))
					}
					if con, ok := slave.FlowsLower[l.ID][t][c]; ok {
						slave.Solver.SetRHS(con, clamp(-d.bOpts.BigM*z))
					}
				}
			}
		}
	}

	fLK := d.opts.Rescaling.Factor(rescale.BoundsLK)
	for _, lk := range net.Links {
		nomVar, ok := master.LKPNom[lk.ID]
		if !ok {
			continue
		}
		val := lctx.Value(nomVar)
		for _, t := range slave.Snapshots() {
			if c, ok := slave.BoundsLKUpper.Get(lk.ID, t); ok {
				slave.Solver.SetRHS(c, clamp(fLK*lk.PMaxPu*val))
			}
			if c, ok := slave.BoundsLKLower.Get(lk.ID, t); ok {
				slave.Solver.SetRHS(c, clamp(fLK*lk.PMinPu*val))
			}
		}
	}
}

// optimalityCutTerms builds the subgradient form of spec §4.7 step 5:
// ALPHA[g] >= Σ(dual·coefficient)·master_var + const, where const is chosen
// so the cut is tight at the current incumbent (the standard Benders
// sensitivity cut, algebraically equivalent to "Σ dual·rhs over uncoupled
// constraints" since the slave's objective at the optimum equals the dual
// objective by strong duality).
func (d *driver) optimalityCutTerms(lctx solver.LazyContext, slave *lopf.Model) ([]solver.Term, float64) {
	net := d.net
	master := d.master
	var terms []solver.Term
	evalAtIncumbent := 0.0

	fG := d.opts.Rescaling.Factor(rescale.BoundsG)
	for _, g := range net.Generators {
		nomVar, ok := master.GPNom[g.ID]
		if !ok {
			continue
		}
		for _, t := range slave.Snapshots() {
			if c, ok := slave.BoundsGUpper.Get(g.ID, t); ok {
				coef := slave.Solver.Dual(c) * fG * g.PMaxPuAt(t)
				terms = append(terms, solver.Term{Var: nomVar, Coef: coef})
				evalAtIncumbent += coef * lctx.Value(nomVar)
			}
			if c, ok := slave.BoundsGLower.Get(g.ID, t); ok {
				coef := slave.Solver.Dual(c) * fG * g.PMinPuAt(t)
				terms = append(terms, solver.Term{Var: nomVar, Coef: coef})
				evalAtIncumbent += coef * lctx.Value(nomVar)
			}
		}
	}

	fLN := d.opts.Rescaling.Factor(rescale.BoundsLN)
	for _, l := range net.Lines {
		nomVar, ok := master.LNSNom[l.ID]
		if !ok {
			continue
		}
		smaxPu := l.SMaxPu
		if smaxPu == 0 {
			smaxPu = 1
		}
		for _, t := range slave.Snapshots() {
			if c, ok := slave.BoundsLNUpper.Get(l.ID, t); ok {
				coef := slave.Solver.Dual(c) * fLN * smaxPu
				terms = append(terms, solver.Term{Var: nomVar, Coef: coef})
				evalAtIncumbent += coef * lctx.Value(nomVar)
			}
			if c, ok := slave.BoundsLNLower.Get(l.ID, t); ok {
				coef := slave.Solver.Dual(c) * -fLN * smaxPu
				terms = append(terms, solver.Term{Var: nomVar, Coef: coef})
				evalAtIncumbent += coef * lctx.Value(nomVar)
			}
		}
	}

	fLK := d.opts.Rescaling.Factor(rescale.BoundsLK)
	for _, lk := range net.Links {
		nomVar, ok := master.LKPNom[lk.ID]
		if !ok {
			continue
		}
		for _, t := range slave.Snapshots() {
			if c, ok := slave.BoundsLKUpper.Get(lk.ID, t); ok {
				coef := slave.Solver.Dual(c) * fLK * lk.PMaxPu
				terms = append(terms, solver.Term{Var: nomVar, Coef: coef})
				evalAtIncumbent += coef * lctx.Value(nomVar)
			}
			if c, ok := slave.BoundsLKLower.Get(lk.ID, t); ok {
				coef := slave.Solver.Dual(c) * fLK * lk.PMinPu
				terms = append(terms, solver.Term{Var: nomVar, Coef: coef})
				evalAtIncumbent += coef * lctx.Value(nomVar)
			}
		}
	}

	constVal := slave.Solver.ObjectiveValue() - evalAtIncumbent
	return terms, constVal
}

// feasibilityCutTerms builds the fallback cut used for an infeasible slave:
// Σ sign(v)·x >= 1e-6 over the master's generator, line and link capacity
// variables, where v is each variable's incumbent value (sign(0) = +1). The
// reference solver's simplex does not surface a Farkas certificate, so no
// extreme-ray duals are used. The cut excludes the incumbent only when all
// of its coupled values are zero; an incumbent with Σ|v| >= 1e-6 already
// satisfies it.
func (d *driver) feasibilityCutTerms(lctx solver.LazyContext, master *lopf.Model) []solver.Term {
	var terms []solver.Term
	for _, v := range master.GPNom {
		terms = append(terms, solver.Term{Var: v, Coef: sign(lctx.Value(v))})
	}
	for _, v := range master.LNSNom {
		terms = append(terms, solver.Term{Var: v, Coef: sign(lctx.Value(v))})
	}
	for _, v := range master.LKPNom {
		terms = append(terms, solver.Term{Var: v, Coef: sign(lctx.Value(v))})
	}
	return terms
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
