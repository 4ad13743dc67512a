package lopf

import (
	"fmt"

	"lopf/internal/network"
	"lopf/internal/rescale"
	"lopf/internal/solver"
)

// buildFlows dispatches to the formulation named in Opts.Formulation (spec
// §4.4.4). Bilinear formulations are already rejected in Options.validate.
func (b *Model) buildFlows(snaps []int) error {
	switch b.Opts.Formulation {
	case AnglesLinear:
		return b.buildFlowsAnglesLinear(snaps, false)
	case AnglesLinearIntegerBigM:
		return b.buildFlowsAnglesLinear(snaps, true)
	case KirchhoffLinear:
		return b.buildFlowsKirchhoff(snaps)
	case PTDF:
		return b.buildFlowsPTDF(snaps)
	default:
		return &UnsupportedFeatureError{Reason: fmt.Sprintf("formulation %q has no builder", b.Opts.Formulation)}
	}
}

// buildTheta creates one voltage-angle variable per bus per snapshot and
// pins bus 0 (the slack) to zero, the reference every angle formulation
// shares (spec §4.1).
func (b *Model) buildTheta(snaps []int) {
	net := b.Net
	s := b.Solver
	for i, bus := range net.Buses {
		for _, t := range snaps {
			v := s.AddVariable(fmt.Sprintf("theta_%s_%d", bus.Name, t), solver.Real, solver.Bounds{Lower: -1e6, Upper: 1e6})
			b.Theta.set(bus.Name, t, v)
			if i == 0 {
				s.AddLinearConstraint(solver.Expr{}.Add(v, 1), solver.EQ, 0)
			}
		}
	}
}

// buildFlowsAnglesLinear ties LN[l,t] to b_l*(theta0-theta1) (spec §4.1). In
// the big-M variant, a fixed capacity line's flow equation is the usual
// equality; an extendable line instead gets one disjunctive pair of
// inequalities per capacity candidate, active only when that candidate's
// binary indicator is 1 (spec §4.4.4, REDESIGN FLAGS).
func (b *Model) buildFlowsAnglesLinear(snaps []int, bigM bool) error {
	b.buildTheta(snaps)
	net := b.Net
	s := b.Solver
	f := b.Opts.Rescaling.Factor(rescale.Flows)
	bigMConst := b.Opts.BigM
	if bigMConst == 0 {
		bigMConst = 1e12
	}

	for _, l := range net.Lines {
		xpu := net.XPu(l)
		if xpu == 0 {
			xpu = network.ReactanceSentinel
		}
		bline := 1.0 / xpu

		indicators, isBigM := b.LNOptBigM[l.ID]
		for _, t := range snaps {
			lnVar, _ := b.LN.Get(l.ID, t)
			th0, _ := b.Theta.Get(l.Bus0, t)
			th1, _ := b.Theta.Get(l.Bus1, t)

			if !bigM || !isBigM {
				expr := solver.Expr{}.Add(lnVar, f).Add(th0, -f*bline).Add(th1, f*bline)
				if _, err := s.AddLinearConstraint(expr, solver.EQ, 0); err != nil {
					return err
				}
				continue
			}

			if b.FlowsUpper[l.ID] == nil {
				b.FlowsUpper[l.ID] = map[int]map[int]solver.Constraint{}
				b.FlowsLower[l.ID] = map[int]map[int]solver.Constraint{}
			}
			b.FlowsUpper[l.ID][t] = map[int]solver.Constraint{}
			b.FlowsLower[l.ID][t] = map[int]solver.Constraint{}

			for c, ind := range indicators {
				// LN - b*(th0-th1) <= M*(1-z_c); LN - b*(th0-th1) >= -M*(1-z_c)
				upper := solver.Expr{}.Add(lnVar, f).Add(th0, -f*bline).Add(th1, f*bline).Add(ind, f*bigMConst)
				cu, err := s.AddLinearConstraint(upper, solver.LE, f*bigMConst)
				if err != nil {
					return err
				}
				b.FlowsUpper[l.ID][t][c] = cu

				lower := solver.Expr{}.Add(lnVar, f).Add(th0, -f*bline).Add(th1, f*bline).Add(ind, -f*bigMConst)
				cl, err := s.AddLinearConstraint(lower, solver.GE, -f*bigMConst)
				if err != nil {
					return err
				}
				b.FlowsLower[l.ID][t][c] = cl
			}
		}
	}
	return nil
}

// buildFlowsKirchhoff enforces sum of x_pu*direction*flow = 0 around every
// fundamental cycle, the angle-free equivalent of the DC power-flow
// equations (spec §4.1).
func (b *Model) buildFlowsKirchhoff(snaps []int) error {
	net := b.Net
	s := b.Solver
	xpu := net.XPuAll()
	f := b.Opts.Rescaling.Factor(rescale.Flows)

	for _, cyc := range net.CycleBasisCached() {
		for _, t := range snaps {
			expr := solver.Expr{}
			for k, li := range cyc.Lines {
				v, ok := b.LN.Get(net.Lines[li].ID, t)
				if !ok {
					continue
				}
				x := xpu[li]
				if x == 0 {
					x = network.ReactanceSentinel
				}
				expr = expr.Add(v, f*x*cyc.Directions[k])
			}
			if _, err := s.AddLinearConstraint(expr, solver.EQ, 0); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildFlowsPTDF expresses every line's flow as a linear combination of
// nodal injections via the cached PTDF matrix, skipping the slack bus column
// (spec §4.1). This formulation assumes a fixed topology: extendable lines
// are rejected here since the PTDF matrix is a function of line reactances
// alone and would need re-derivation mid-solve for them (left to the
// iterative runner's fixed-point loop instead, spec §4.6).
func (b *Model) buildFlowsPTDF(snaps []int) error {
	net := b.Net
	s := b.Solver
	f := b.Opts.Rescaling.Factor(rescale.Flows)

	for _, l := range net.Lines {
		if l.SNomExtendable {
			return &UnsupportedFeatureError{Reason: "ptdf formulation does not support extendable lines; use angles_linear or kirchhoff_linear for transmission expansion"}
		}
	}

	ptdf := net.PTDF()
	busIdx := net.BusIndex()

	for li, l := range net.Lines {
		for _, t := range snaps {
			lnVar, ok := b.LN.Get(l.ID, t)
			if !ok {
				continue
			}
			expr := solver.Expr{}.Add(lnVar, f)
			for _, bus := range net.Buses {
				coef := ptdf.At(li, busIdx[bus.Name])
				if coef == 0 {
					continue
				}
				inj := b.injectionExpr(bus.Name, t)
				expr.Const -= f * coef * inj.Const
				for _, term := range inj.Terms {
					expr = expr.Add(term.Var, -f*coef*term.Coef)
				}
			}
			if _, err := s.AddLinearConstraint(expr, solver.EQ, 0); err != nil {
				return err
			}
		}
	}
	return nil
}
