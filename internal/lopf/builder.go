// Package lopf builds and assembles the LP/MIP model described in spec §4:
// investment and operation variables, the flow formulation families, storage
// recurrences, global policy constraints and the role-gated objective. It
// consumes an internal/network.Network and an internal/solver.Backend and
// produces a Model the monolithic/iterative/benders runners drive.
package lopf

import (
	"fmt"
	"log"

	"lopf/internal/network"
	"lopf/internal/rescale"
	"lopf/internal/solver"
)

// Build assembles one LP/MIP model for the given role. Investment families
// are emitted unless Role == RoleSlave; operation families are emitted
// unless Role == RoleMaster (spec §4.4.2), except storage, which only
// RoleMonolithic carries.
func Build(net *network.Network, backend solver.Backend, opts Options) (*Model, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := net.Validate(); err != nil {
		return nil, fmt.Errorf("lopf: invalid network: %w", err)
	}

	kind := solver.KindLP
	if opts.Role != RoleSlave {
		switch opts.InvestmentType {
		case Integer, Binary, IntegerBigM:
			kind = solver.KindMIP
		}
	}

	snaps := resolveSnapshots(net, opts.Snapshots)

	b := &Model{
		Net:       net,
		Solver:    backend.NewModel(kind),
		Opts:      opts,
		snapshots: snaps,

		GPNom:     map[string]solver.Var{},
		LKPNom:    map[string]solver.Var{},
		SUPNom:    map[string]solver.Var{},
		STENom:    map[string]solver.Var{},
		LNSNom:    map[string]solver.Var{},
		LNInv:     map[string]solver.Var{},
		LNOpt:     map[string]solver.Var{},
		LNOptBigM: map[string]map[int]solver.Var{},

		G:          newByAsset[solver.Var](),
		LN:         newByAsset[solver.Var](),
		LK:         newByAsset[solver.Var](),
		Theta:      newByAsset[solver.Var](),
		SUDispatch: newByAsset[solver.Var](),
		SUStore:    newByAsset[solver.Var](),
		SUSOC:      newByAsset[solver.Var](),
		SUSpill:    newByAsset[solver.Var](),
		STDispatch: newByAsset[solver.Var](),
		STStore:    newByAsset[solver.Var](),
		STSOC:      newByAsset[solver.Var](),
		STSpill:    newByAsset[solver.Var](),

		BoundsGLower:  newByAsset[solver.Constraint](),
		BoundsGUpper:  newByAsset[solver.Constraint](),
		BoundsLNLower: newByAsset[solver.Constraint](),
		BoundsLNUpper: newByAsset[solver.Constraint](),
		BoundsLKLower: newByAsset[solver.Constraint](),
		BoundsLKUpper: newByAsset[solver.Constraint](),

		FlowsUpper: map[string]map[int]map[int]solver.Constraint{},
		FlowsLower: map[string]map[int]map[int]solver.Constraint{},

		NodalBalance: newByAsset[solver.Constraint](),
	}

	if opts.Role != RoleSlave {
		if err := b.buildInvestmentVars(); err != nil {
			return nil, err
		}
	}

	if opts.Role != RoleMaster {
		b.buildOperationVars(snaps)
		if err := b.buildBoxBounds(snaps); err != nil {
			return nil, err
		}
		if err := b.buildFlows(snaps); err != nil {
			return nil, err
		}
		if opts.Role == RoleMonolithic {
			b.buildStorage(snaps)
		}
		b.buildNodalBalance(snaps)
	}

	if err := b.buildGlobals(); err != nil {
		return nil, err
	}

	if opts.Role == RoleMaster {
		b.Alpha = make([]solver.Var, opts.NGroups)
		for i := range b.Alpha {
			b.Alpha[i] = b.Solver.AddVariable(fmt.Sprintf("alpha_%d", i), solver.Real, solver.Bounds{Lower: -1e9, Upper: 1e9})
		}
	}

	b.buildObjective()

	return b, nil
}

func resolveSnapshots(net *network.Network, s SnapshotSlice) []int {
	if s.Single {
		return []int{s.SingleAt}
	}
	out := make([]int, net.T())
	for i := range out {
		out[i] = i
	}
	return out
}

// buildInvestmentVars emits G_p_nom, LN_s_nom (per investment_type), LK_p_nom,
// SU_p_nom and ST_e_nom for every extendable asset (spec §4.4.1-.2).
func (b *Model) buildInvestmentVars() error {
	net := b.Net
	s := b.Solver

	for _, g := range net.Generators {
		if !g.PNomExtendable {
			continue
		}
		b.GPNom[g.ID] = s.AddVariable("G_p_nom_"+g.ID, solver.Real, solver.Bounds{Lower: g.PNomMin, Upper: g.PNomMax})
	}

	for _, l := range net.Lines {
		if !l.SNomExtendable {
			continue
		}
		if err := b.buildLineInvestment(l); err != nil {
			return err
		}
	}

	for _, lk := range net.Links {
		if !lk.PNomExtendable {
			continue
		}
		b.LKPNom[lk.ID] = s.AddVariable("LK_p_nom_"+lk.ID, solver.Real, solver.Bounds{Lower: lk.PNomMin, Upper: lk.PNomMax})
	}

	for _, su := range net.StorageUnits {
		if !su.PNomExtendable {
			continue
		}
		b.SUPNom[su.ID] = s.AddVariable("SU_p_nom_"+su.ID, solver.Real, solver.Bounds{Lower: 0, Upper: 1e12})
	}

	for _, st := range net.Stores {
		if !st.ENomExtendable {
			continue
		}
		b.STENom[st.ID] = s.AddVariable("ST_e_nom_"+st.ID, solver.Real, solver.Bounds{Lower: 0, Upper: 1e12})
	}

	return nil
}

// buildLineInvestment emits the line's investment family per
// Opts.InvestmentType and ties the resolved LN_s_nom variable to it with an
// explicit equality, so downstream bound/flow code always reads LNSNom
// without caring which investment representation produced it.
func (b *Model) buildLineInvestment(l network.Line) error {
	s := b.Solver

	switch b.Opts.InvestmentType {
	case Continuous:
		inv := s.AddVariable("LN_inv_"+l.ID, solver.Real, solver.Bounds{Lower: 0, Upper: l.SNomMax - l.SNom})
		b.LNInv[l.ID] = inv
		sNom := s.AddVariable("LN_s_nom_"+l.ID, solver.Real, solver.Bounds{Lower: l.SNomMin, Upper: l.SNomMax})
		b.LNSNom[l.ID] = sNom
		expr := solver.Expr{}.Add(sNom, 1).Add(inv, -1)
		if _, err := s.AddLinearConstraint(expr, solver.EQ, l.SNom); err != nil {
			return err
		}

	case Integer:
		perParallel := l.SNom / l.NumParallel
		maxAdd := 0
		if perParallel > 0 {
			maxAdd = int((l.SNomMax/perParallel - l.NumParallel) + 1e-9)
			if maxAdd < 0 {
				maxAdd = 0
			}
		}
		inv := s.AddVariable("LN_inv_"+l.ID, solver.Integer, solver.Bounds{Lower: 0, Upper: float64(maxAdd)})
		b.LNInv[l.ID] = inv
		sNom := s.AddVariable("LN_s_nom_"+l.ID, solver.Real, solver.Bounds{Lower: l.SNomMin, Upper: l.SNomMax})
		b.LNSNom[l.ID] = sNom
		expr := solver.Expr{}.Add(sNom, 1).Add(inv, -perParallel)
		if _, err := s.AddLinearConstraint(expr, solver.EQ, l.SNom); err != nil {
			return err
		}

	case Binary:
		opt := s.AddVariable("LN_opt_"+l.ID, solver.Binary, solver.Bounds{Lower: 0, Upper: 1})
		b.LNOpt[l.ID] = opt
		sNom := s.AddVariable("LN_s_nom_"+l.ID, solver.Real, solver.Bounds{Lower: l.SNomMin, Upper: l.SNomMax})
		b.LNSNom[l.ID] = sNom
		expr := solver.Expr{}.Add(sNom, 1).Add(opt, -(l.SNomMax - l.SNom))
		if _, err := s.AddLinearConstraint(expr, solver.EQ, l.SNom); err != nil {
			return err
		}

	case IntegerBigM:
		candidates := network.ExtensionCandidates(l)
		indicators := make(map[int]solver.Var, len(candidates))
		selectExpr := solver.Expr{}
		for _, c := range candidates {
			v := s.AddVariable(fmt.Sprintf("LN_opt_%s_%d", l.ID, c), solver.Binary, solver.Bounds{Lower: 0, Upper: 1})
			indicators[c] = v
			selectExpr = selectExpr.Add(v, 1)
		}
		b.LNOptBigM[l.ID] = indicators
		if _, err := s.AddLinearConstraint(selectExpr, solver.EQ, 1); err != nil {
			return err
		}

		sNom := s.AddVariable("LN_s_nom_"+l.ID, solver.Real, solver.Bounds{Lower: l.SNomMin, Upper: l.SNomMax})
		b.LNSNom[l.ID] = sNom
		perParallel := l.SNom / l.NumParallel
		sNomExpr := solver.Expr{}
		for _, c := range candidates {
			sNomExpr = sNomExpr.Add(indicators[c], perParallel*(l.NumParallel+float64(c)))
		}
		eq := solver.Expr{}.Add(sNom, 1)
		for _, t := range sNomExpr.Terms {
			eq = eq.Add(t.Var, -t.Coef)
		}
		if _, err := s.AddLinearConstraint(eq, solver.EQ, 0); err != nil {
			return err
		}
	}
	return nil
}

// buildOperationVars emits G, LN, LK, storage dispatch/store/soc/spill for
// every snapshot (spec §4.4.1); Theta is added separately by buildFlows
// since only the angle formulations need it.
func (b *Model) buildOperationVars(snaps []int) {
	net := b.Net
	s := b.Solver

	for _, g := range net.Generators {
		if g.Commitable {
			log.Printf("lopf: generator %q has commitable=true; unit-commitment on/off logic is not solved, treating as continuous", g.ID)
		}
		for _, t := range snaps {
			v := s.AddVariable(fmt.Sprintf("G_%s_%d", g.ID, t), solver.Real, solver.Bounds{Lower: -1e15, Upper: 1e15})
			b.G.set(g.ID, t, v)
		}
	}
	for _, l := range net.Lines {
		for _, t := range snaps {
			v := s.AddVariable(fmt.Sprintf("LN_%s_%d", l.ID, t), solver.Real, solver.Bounds{Lower: -1e15, Upper: 1e15})
			b.LN.set(l.ID, t, v)
		}
	}
	for _, lk := range net.Links {
		for _, t := range snaps {
			v := s.AddVariable(fmt.Sprintf("LK_%s_%d", lk.ID, t), solver.Real, solver.Bounds{Lower: -1e15, Upper: 1e15})
			b.LK.set(lk.ID, t, v)
		}
	}
	if b.Opts.Role == RoleSlave {
		return
	}
	for _, su := range net.StorageUnits {
		for _, t := range snaps {
			b.SUDispatch.set(su.ID, t, s.AddVariable(fmt.Sprintf("SU_disp_%s_%d", su.ID, t), solver.Real, solver.Bounds{Lower: 0, Upper: 1e15}))
			b.SUStore.set(su.ID, t, s.AddVariable(fmt.Sprintf("SU_store_%s_%d", su.ID, t), solver.Real, solver.Bounds{Lower: 0, Upper: 1e15}))
			b.SUSOC.set(su.ID, t, s.AddVariable(fmt.Sprintf("SU_soc_%s_%d", su.ID, t), solver.Real, solver.Bounds{Lower: 0, Upper: 1e15}))
			b.SUSpill.set(su.ID, t, s.AddVariable(fmt.Sprintf("SU_spill_%s_%d", su.ID, t), solver.Real, solver.Bounds{Lower: 0, Upper: 1e15}))
		}
	}
	for _, st := range net.Stores {
		for _, t := range snaps {
			b.STDispatch.set(st.ID, t, s.AddVariable(fmt.Sprintf("ST_disp_%s_%d", st.ID, t), solver.Real, solver.Bounds{Lower: 0, Upper: 1e15}))
			b.STStore.set(st.ID, t, s.AddVariable(fmt.Sprintf("ST_store_%s_%d", st.ID, t), solver.Real, solver.Bounds{Lower: 0, Upper: 1e15}))
			b.STSOC.set(st.ID, t, s.AddVariable(fmt.Sprintf("ST_soc_%s_%d", st.ID, t), solver.Real, solver.Bounds{Lower: 0, Upper: 1e15}))
			b.STSpill.set(st.ID, t, s.AddVariable(fmt.Sprintf("ST_spill_%s_%d", st.ID, t), solver.Real, solver.Bounds{Lower: 0, Upper: 1e15}))
		}
	}
}

// buildBoxBounds emits the p_min_pu/p_max_pu-style box constraints for
// generators, lines and links (spec §3). For extendable assets in a
// monolithic model the bound couples directly to the investment variable
// (no RHS mutation needed, since both live in the same model); in slave
// role the bound's RHS is a mutable numeric value the Benders driver pushes
// via SetRHS (spec §4.4.3, §4.7).
func (b *Model) buildBoxBounds(snaps []int) error {
	net := b.Net

	for _, g := range net.Generators {
		for _, t := range snaps {
			v, _ := b.G.Get(g.ID, t)
			lo, hi := g.PMinPuAt(t), g.PMaxPuAt(t)
			nomVar, extendable := b.GPNom[g.ID]
			if err := b.boxBound(v, lo, hi, extendable, nomVar, g.PNom, rescale.BoundsG, g.ID, t, b.BoundsGLower, b.BoundsGUpper); err != nil {
				return err
			}
		}
	}
	for _, l := range net.Lines {
		smaxPu := l.SMaxPu
		if smaxPu == 0 {
			smaxPu = 1
		}
		for _, t := range snaps {
			v, _ := b.LN.Get(l.ID, t)
			nomVar, extendable := b.LNSNom[l.ID]
			if err := b.boxBound(v, -smaxPu, smaxPu, extendable, nomVar, l.SNom, rescale.BoundsLN, l.ID, t, b.BoundsLNLower, b.BoundsLNUpper); err != nil {
				return err
			}
		}
	}
	for _, lk := range net.Links {
		for _, t := range snaps {
			v, _ := b.LK.Get(lk.ID, t)
			nomVar, extendable := b.LKPNom[lk.ID]
			if err := b.boxBound(v, lk.PMinPu, lk.PMaxPu, extendable, nomVar, lk.PNom, rescale.BoundsLK, lk.ID, t, b.BoundsLKLower, b.BoundsLKUpper); err != nil {
				return err
			}
		}
	}
	return nil
}

// boxBound adds lo*nom <= v <= hi*nom. When extendable is true and the model
// carries the investment variable (monolithic), the bound is a two-variable
// linear constraint (rhs=0). Otherwise the bound has a numeric RHS built from
// nomVal. A slave model has no investment variables, so callers pass
// extendable=false there and nomVal is the asset's nominal capacity; the
// Benders driver then overwrites that RHS via SetRHS.
func (b *Model) boxBound(v solver.Var, lo, hi float64, extendable bool, nomVar solver.Var, nomVal float64, fam rescale.Family, id string, t int, lowerMap, upperMap byAsset[solver.Constraint]) error {
	s := b.Solver
	f := b.Opts.Rescaling.Factor(fam)

	if extendable && b.Opts.Role == RoleMonolithic {
		upperExpr := solver.Expr{}.Add(v, f).Add(nomVar, -f*hi)
		c, err := s.AddLinearConstraint(upperExpr, solver.LE, 0)
		if err != nil {
			return err
		}
		upperMap.set(id, t, c)

		lowerExpr := solver.Expr{}.Add(v, f).Add(nomVar, -f*lo)
		c, err = s.AddLinearConstraint(lowerExpr, solver.GE, 0)
		if err != nil {
			return err
		}
		lowerMap.set(id, t, c)
		return nil
	}

	// Fixed, or extendable-in-slave (nomVal here is the capacity the driver
	// pushes; the constraint's RHS is mutable).
	upperExpr := solver.Expr{}.Add(v, f)
	c, err := s.AddLinearConstraint(upperExpr, solver.LE, f*hi*nomVal)
	if err != nil {
		return err
	}
	upperMap.set(id, t, c)

	lowerExpr := solver.Expr{}.Add(v, f)
	c, err = s.AddLinearConstraint(lowerExpr, solver.GE, f*lo*nomVal)
	if err != nil {
		return err
	}
	lowerMap.set(id, t, c)
	return nil
}

// injectionExpr builds the net nodal injection (generation - load - storage
// charging, net of discharge) at a bus and snapshot, used by the nodal
// balance constraint and the PTDF formulation alike.
func (b *Model) injectionExpr(bus string, t int) solver.Expr {
	net := b.Net
	expr := solver.Expr{}

	for _, g := range net.Generators {
		if g.Bus != bus {
			continue
		}
		if v, ok := b.G.Get(g.ID, t); ok {
			expr = expr.Add(v, 1)
		}
	}
	for _, ld := range net.Loads {
		if ld.Bus != bus {
			continue
		}
		expr.Const -= ld.LoadAt(t)
	}
	for _, su := range net.StorageUnits {
		if su.Bus != bus {
			continue
		}
		if v, ok := b.SUDispatch.Get(su.ID, t); ok {
			expr = expr.Add(v, 1)
		}
		if v, ok := b.SUStore.Get(su.ID, t); ok {
			expr = expr.Add(v, -1)
		}
	}
	for _, st := range net.Stores {
		if st.Bus != bus {
			continue
		}
		if v, ok := b.STDispatch.Get(st.ID, t); ok {
			expr = expr.Add(v, 1)
		}
		if v, ok := b.STStore.Get(st.ID, t); ok {
			expr = expr.Add(v, -1)
		}
	}
	for _, lk := range net.Links {
		v, ok := b.LK.Get(lk.ID, t)
		if !ok {
			continue
		}
		switch bus {
		case lk.Bus0:
			expr = expr.Add(v, -1)
		case lk.Bus1:
			expr = expr.Add(v, lk.Efficiency)
		}
	}
	return expr
}

// buildNodalBalance enforces injection = branch flows leaving the bus at
// every bus and snapshot (spec §3, §4.1), and keeps the handle for marginal
// price extraction (Solution.Prices).
func (b *Model) buildNodalBalance(snaps []int) {
	net := b.Net
	s := b.Solver

	for _, bus := range net.Buses {
		for _, t := range snaps {
			expr := b.injectionExpr(bus.Name, t)
			for _, l := range net.Lines {
				v, ok := b.LN.Get(l.ID, t)
				if !ok {
					continue
				}
				switch bus.Name {
				case l.Bus0:
					expr = expr.Add(v, -1)
				case l.Bus1:
					expr = expr.Add(v, 1)
				}
			}
			c, err := s.AddLinearConstraint(expr, solver.EQ, 0)
			if err != nil {
				continue
			}
			b.NodalBalance.set(bus.Name, t, c)
		}
	}
}

// buildObjective sums capital costs (role != slave) and marginal costs plus
// storage costs (role != master), plus the master's cut-group ALPHA scalars
// (spec §4.4.2, §4.7).
func (b *Model) buildObjective() {
	net := b.Net
	obj := solver.Expr{}

	if b.Opts.Role != RoleSlave {
		for _, g := range net.Generators {
			if v, ok := b.GPNom[g.ID]; ok {
				obj = obj.Add(v, g.CapitalCost)
			}
		}
		for _, l := range net.Lines {
			if v, ok := b.LNInv[l.ID]; ok {
				perParallel := l.SNom / l.NumParallel
				coef := l.CapitalCost
				if b.Opts.InvestmentType == Integer {
					coef *= perParallel
				}
				obj = obj.Add(v, coef)
			} else if v, ok := b.LNOpt[l.ID]; ok {
				obj = obj.Add(v, l.CapitalCost*(l.SNomMax-l.SNom))
			} else if inds, ok := b.LNOptBigM[l.ID]; ok {
				perParallel := l.SNom / l.NumParallel
				for c, v := range inds {
					added := perParallel * float64(c)
					obj = obj.Add(v, l.CapitalCost*added)
				}
			}
		}
		for _, lk := range net.Links {
			if v, ok := b.LKPNom[lk.ID]; ok {
				obj = obj.Add(v, lk.CapitalCost)
			}
		}
		for _, su := range net.StorageUnits {
			if v, ok := b.SUPNom[su.ID]; ok {
				obj = obj.Add(v, su.CapitalCost)
			}
		}
		for _, st := range net.Stores {
			if v, ok := b.STENom[st.ID]; ok {
				obj = obj.Add(v, st.CapitalCost)
			}
		}
	}

	if b.Opts.Role != RoleMaster {
		for _, t := range b.snapshots {
			w := net.Snapshots[t].Weighting
			for _, g := range net.Generators {
				if v, ok := b.G.Get(g.ID, t); ok {
					obj = obj.Add(v, w*g.MarginalCost)
				}
			}
			for _, su := range net.StorageUnits {
				if v, ok := b.SUDispatch.Get(su.ID, t); ok {
					obj = obj.Add(v, w*su.MarginalCost)
				}
			}
			for _, st := range net.Stores {
				if v, ok := b.STDispatch.Get(st.ID, t); ok {
					obj = obj.Add(v, w*st.MarginalCost)
				}
			}
		}
	}

	if b.Opts.Role == RoleMaster {
		for _, a := range b.Alpha {
			obj = obj.Add(a, 1)
		}
	}

	b.Solver.SetObjective(obj, solver.Min)
}
