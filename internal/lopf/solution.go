package lopf

import "lopf/internal/solver"

// Solution is the builder's readout after a successful Solve: resolved
// investment decisions and per-snapshot operation values, in a shape the
// runners write back onto the Network (spec §4.4, "*_nom_opt").
type Solution struct {
	GPNomOpt  map[string]float64
	LNSNomOpt map[string]float64
	LKPNomOpt map[string]float64
	SUPNomOpt map[string]float64
	STENomOpt map[string]float64

	G   map[string]map[int]float64
	LN  map[string]map[int]float64
	LK  map[string]map[int]float64
	SOC map[string]map[int]float64 // storage units and stores share this, keyed by asset ID

	// Prices are nodal marginal prices: the dual of the nodal balance
	// constraint at each bus and snapshot.
	Prices map[string]map[int]float64

	ObjectiveValue float64
}

// ExtractSolution reads variable/dual values off a solved Model into a
// Solution. Call only after Solver.Solve has returned solver.StatusOptimal
// (or StatusTimeLimit with an incumbent); values are whatever the backend
// last reported otherwise.
func (b *Model) ExtractSolution() *Solution {
	sol := &Solution{
		GPNomOpt:  map[string]float64{},
		LNSNomOpt: map[string]float64{},
		LKPNomOpt: map[string]float64{},
		SUPNomOpt: map[string]float64{},
		STENomOpt: map[string]float64{},
		G:         map[string]map[int]float64{},
		LN:        map[string]map[int]float64{},
		LK:        map[string]map[int]float64{},
		SOC:       map[string]map[int]float64{},
		Prices:    map[string]map[int]float64{},
	}

	for id, v := range b.GPNom {
		sol.GPNomOpt[id] = b.Solver.Value(v)
	}
	for id, v := range b.LNSNom {
		sol.LNSNomOpt[id] = b.Solver.Value(v)
	}
	for id, v := range b.LKPNom {
		sol.LKPNomOpt[id] = b.Solver.Value(v)
	}
	for id, v := range b.SUPNom {
		sol.SUPNomOpt[id] = b.Solver.Value(v)
	}
	for id, v := range b.STENom {
		sol.STENomOpt[id] = b.Solver.Value(v)
	}

	flatten(sol.G, b.G, b.Solver)
	flatten(sol.LN, b.LN, b.Solver)
	flatten(sol.LK, b.LK, b.Solver)
	flatten(sol.SOC, b.SUSOC, b.Solver)
	flattenMerge(sol.SOC, b.STSOC, b.Solver)

	for bus, byT := range b.NodalBalance {
		sol.Prices[bus] = map[int]float64{}
		for t, c := range byT {
			sol.Prices[bus][t] = b.Solver.Dual(c)
		}
	}

	sol.ObjectiveValue = b.Solver.ObjectiveValue()
	return sol
}

func flatten(dst map[string]map[int]float64, src byAsset[solver.Var], s solver.Model) {
	for id, byT := range src {
		m := make(map[int]float64, len(byT))
		for t, v := range byT {
			m[t] = s.Value(v)
		}
		dst[id] = m
	}
}

func flattenMerge(dst map[string]map[int]float64, src byAsset[solver.Var], s solver.Model) {
	for id, byT := range src {
		m, ok := dst[id]
		if !ok {
			m = map[int]float64{}
			dst[id] = m
		}
		for t, v := range byT {
			m[t] = s.Value(v)
		}
	}
}

// WriteBack applies the resolved investment decisions to the network in
// place (the "*_nom_opt" fields, spec §4.4) and bumps the topology version so
// cached PTDF/cycle-basis results are recomputed on next use. Operation
// values (dispatch, flows, SOC, prices) are left on the Solution itself;
// callers that need a persisted dispatch record use the CSV ledger instead.
func (b *Model) WriteBack(sol *Solution) {
	net := b.Net
	for i, g := range net.Generators {
		if v, ok := sol.GPNomOpt[g.ID]; ok {
			net.Generators[i].PNomOpt = v
		}
	}
	for i, l := range net.Lines {
		if v, ok := sol.LNSNomOpt[l.ID]; ok {
			net.Lines[i].SNomOpt = v
		}
	}
	for i, lk := range net.Links {
		if v, ok := sol.LKPNomOpt[lk.ID]; ok {
			net.Links[i].PNomOpt = v
		}
	}
	for i, su := range net.StorageUnits {
		if v, ok := sol.SUPNomOpt[su.ID]; ok {
			net.StorageUnits[i].PNomOpt = v
		}
	}
	for i, st := range net.Stores {
		if v, ok := sol.STENomOpt[st.ID]; ok {
			net.Stores[i].ENomOpt = v
		}
	}
	net.BumpTopologyVersion()
}
