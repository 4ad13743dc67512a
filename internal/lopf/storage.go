package lopf

import (
	"lopf/internal/solver"
)

// buildStorage emits the state-of-charge recurrence for storage units and
// stores (spec §3): soc[t] = soc[t-1] + inflow[t] + store[t]*eff_store -
// dispatch[t]/eff_dispatch - spill[t], with either a cyclic wraparound or a
// fixed initial condition, and an energy-capacity upper bound that couples
// to the investment variable when extendable.
//
// Benders slave models never carry storage (DESIGN.md: storage/store support
// in Benders is explicitly out of scope, spec's Open Questions), so this is
// only ever called for RoleMonolithic.
func (b *Model) buildStorage(snaps []int) {
	net := b.Net
	s := b.Solver

	for _, su := range net.StorageUnits {
		energyCap := su.PNom * su.MaxHours
		nomVar, extendable := b.SUPNom[su.ID]

		for idx, t := range snaps {
			soc, _ := b.SUSOC.Get(su.ID, t)
			disp, _ := b.SUDispatch.Get(su.ID, t)
			store, _ := b.SUStore.Get(su.ID, t)
			spill, _ := b.SUSpill.Get(su.ID, t)

			expr := solver.Expr{}.Add(soc, 1).
				Add(disp, 1.0/nonZero(su.EfficiencyDispatch)).
				Add(store, -su.EfficiencyStore).
				Add(spill, 1)
			expr.Const -= su.InflowAt(t)

			var prevVal float64
			switch {
			case idx > 0:
				prevSOC, _ := b.SUSOC.Get(su.ID, snaps[idx-1])
				expr = expr.Add(prevSOC, -1)
			case su.CyclicStateOfCharge:
				lastSOC, ok := b.SUSOC.Get(su.ID, snaps[len(snaps)-1])
				if ok {
					expr = expr.Add(lastSOC, -1)
				}
			default:
				prevVal = su.StateOfChargeInitial * energyCap
			}

			s.AddLinearConstraint(expr, solver.EQ, prevVal)

			if extendable {
				capExpr := solver.Expr{}.Add(soc, 1).Add(nomVar, -su.MaxHours)
				s.AddLinearConstraint(capExpr, solver.LE, 0)
			} else {
				s.AddLinearConstraint(solver.Expr{}.Add(soc, 1), solver.LE, energyCap)
			}
		}
	}

	for _, st := range net.Stores {
		nomVar, extendable := b.STENom[st.ID]

		for idx, t := range snaps {
			soc, _ := b.STSOC.Get(st.ID, t)
			disp, _ := b.STDispatch.Get(st.ID, t)
			store, _ := b.STStore.Get(st.ID, t)
			spill, _ := b.STSpill.Get(st.ID, t)

			expr := solver.Expr{}.Add(soc, 1).
				Add(disp, 1.0/nonZero(st.EfficiencyDispatch)).
				Add(store, -st.EfficiencyStore).
				Add(spill, 1)
			expr.Const -= st.InflowAt(t)

			var prevVal float64
			switch {
			case idx > 0:
				prevSOC, _ := b.STSOC.Get(st.ID, snaps[idx-1])
				expr = expr.Add(prevSOC, -1)
			case st.CyclicStateOfCharge:
				lastSOC, ok := b.STSOC.Get(st.ID, snaps[len(snaps)-1])
				if ok {
					expr = expr.Add(lastSOC, -1)
				}
			default:
				prevVal = st.StateOfChargeInitial * st.ENom
			}

			s.AddLinearConstraint(expr, solver.EQ, prevVal)

			if extendable {
				capExpr := solver.Expr{}.Add(soc, 1).Add(nomVar, -1)
				s.AddLinearConstraint(capExpr, solver.LE, 0)
			} else {
				s.AddLinearConstraint(solver.Expr{}.Add(soc, 1), solver.LE, st.ENom)
			}
		}
	}
}

func nonZero(x float64) float64 {
	if x == 0 {
		return 1
	}
	return x
}
