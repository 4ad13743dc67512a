package lopf

import (
	"fmt"

	"lopf/internal/network"
	"lopf/internal/rescale"
	"lopf/internal/solver"
)

// buildGlobals emits the system-wide policy constraints named on the
// network (spec §3, §4.5). co2_limit and restarget need operation
// variables and so are unsupported for RoleMaster; approx_restarget and
// mwkm_limit need only investment variables and so are unsupported for
// RoleSlave. A requested constraint this role cannot express is an error,
// not a silent skip (spec's own phrasing: "a feature the caller asked for
// that this path genuinely cannot honor").
func (b *Model) buildGlobals() error {
	for _, gc := range b.Net.GlobalConstraints {
		var err error
		switch gc.Kind {
		case network.GlobalConstraintCO2Limit:
			err = b.buildCO2Limit(gc)
		case network.GlobalConstraintRESTarget:
			err = b.buildRESTarget(gc)
		case network.GlobalConstraintMWKmLimit:
			err = b.buildMWKmLimit(gc)
		case network.GlobalConstraintApproxRESTarget:
			err = b.buildApproxRESTarget(gc)
		default:
			err = &UnsupportedFeatureError{Reason: fmt.Sprintf("unknown global constraint kind %q", gc.Kind)}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *Model) carrierCO2(name string) float64 {
	for _, c := range b.Net.Carriers {
		if c.Name == name {
			return c.CO2Emissions
		}
	}
	return 0
}

// buildCO2Limit: sum_t weighting[t] * sum_{g emitting} (1/efficiency_g) *
// G[g,t] * co2_emissions[carrier(g)] <= limit (spec line 139).
func (b *Model) buildCO2Limit(gc network.GlobalConstraint) error {
	if b.Opts.Role == RoleMaster {
		return &UnsupportedFeatureError{Reason: "co2_limit needs operation variables, not available to a Benders master"}
	}
	expr := solver.Expr{}
	for _, t := range b.snapshots {
		w := b.Net.Snapshots[t].Weighting
		for _, g := range b.Net.Generators {
			co2 := b.carrierCO2(g.Carrier)
			if co2 == 0 {
				continue
			}
			v, ok := b.G.Get(g.ID, t)
			if !ok {
				continue
			}
			eff := nonZero(g.Efficiency)
			expr = expr.Add(v, w*co2/eff)
		}
	}
	_, err := b.Solver.AddLinearConstraint(expr, solver.LE, gc.Constant)
	return err
}

// buildRESTarget: sum_t weighting*sum_{g zero-co2} G[g,t] >= target * sum_t
// weighting*sum(loads) (spec line 141).
func (b *Model) buildRESTarget(gc network.GlobalConstraint) error {
	if b.Opts.Role == RoleMaster {
		return &UnsupportedFeatureError{Reason: "restarget needs operation variables, not available to a Benders master"}
	}
	expr := solver.Expr{}
	totalLoad := 0.0
	for _, t := range b.snapshots {
		w := b.Net.Snapshots[t].Weighting
		for _, g := range b.Net.Generators {
			if b.carrierCO2(g.Carrier) != 0 {
				continue
			}
			if v, ok := b.G.Get(g.ID, t); ok {
				expr = expr.Add(v, w)
			}
		}
		for _, ld := range b.Net.Loads {
			totalLoad += w * ld.LoadAt(t)
		}
	}
	_, err := b.Solver.AddLinearConstraint(expr, solver.GE, gc.Constant*totalLoad)
	return err
}

// buildMWKmLimit: sum_l LN_s_nom[l]*length[l] <= limit * sum_l
// s_nom[l]*length[l] (spec line 140), an investment-side constraint that
// needs no operation variables and so is available to master as well.
func (b *Model) buildMWKmLimit(gc network.GlobalConstraint) error {
	if b.Opts.Role == RoleSlave {
		return &UnsupportedFeatureError{Reason: "mwkm_limit needs investment variables, not available to a Benders slave"}
	}
	expr := solver.Expr{}
	baseline := 0.0
	for _, l := range b.Net.Lines {
		baseline += l.SNom * l.Length
		if v, ok := b.LNSNom[l.ID]; ok {
			expr = expr.Add(v, l.Length)
		} else {
			expr.Const += l.SNom * l.Length
		}
	}
	_, err := b.Solver.AddLinearConstraint(expr, solver.LE, gc.Constant*baseline)
	return err
}

// buildApproxRESTarget: uses maximum renewable availability (weighting *
// p_max_pu * p_nom, summed over zero-co2 carriers) as a generation proxy
// instead of actual dispatch, with its own rescaling factor (spec line
// 142). Like mwkm_limit, this needs only investment/nameplate data and so
// is available to the master.
func (b *Model) buildApproxRESTarget(gc network.GlobalConstraint) error {
	if b.Opts.Role == RoleSlave {
		return &UnsupportedFeatureError{Reason: "approx_restarget needs investment variables, not available to a Benders slave"}
	}
	f := b.Opts.Rescaling.Factor(rescale.ApproxRESTarget)
	expr := solver.Expr{}
	totalLoad := 0.0
	for _, g := range b.Net.Generators {
		if b.carrierCO2(g.Carrier) != 0 {
			continue
		}
		avail := 0.0
		for _, t := range b.snapshots {
			avail += b.Net.Snapshots[t].Weighting * g.PMaxPuAt(t)
		}
		if v, ok := b.GPNom[g.ID]; ok {
			expr = expr.Add(v, f*avail)
		} else {
			expr.Const += f * avail * g.PNom
		}
	}
	for _, t := range b.snapshots {
		w := b.Net.Snapshots[t].Weighting
		for _, ld := range b.Net.Loads {
			totalLoad += w * ld.LoadAt(t)
		}
	}
	_, err := b.Solver.AddLinearConstraint(expr, solver.GE, f*gc.Constant*totalLoad)
	return err
}
