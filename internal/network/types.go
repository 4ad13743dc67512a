// Package network is the in-memory power-system data model: buses, branches,
// controllable assets and the time horizon they are dispatched over. It also
// derives the per-unit and topological quantities (reactances, cycle basis,
// PTDF) the model builder needs but that are functions of topology alone.
package network

// Bus is a topology node. Buses are created at load time and are read-only
// during a solve.
type Bus struct {
	ID   string
	Name string
	// VNom is the nominal voltage in kV, used to convert line reactance to
	// per-unit via x_pu = x / (v_nom^2 / s_base).
	VNom float64
}

// Line is an AC transmission branch. x, s_nom, s_nom_extendable and
// s_nom_opt are mutated in place by the iterative and discretization
// runners between solves.
type Line struct {
	ID   string
	Bus0 string
	Bus1 string

	X float64 // reactance, ohms
	R float64 // resistance, ohms

	SNom           float64 // nominal capacity, MVA
	SNomMin        float64
	SNomMax        float64
	SNomExtendable bool
	SNomExtMin     float64 // minimum increment when investing (s_nom_ext_min)
	NumParallel    float64
	SMaxPu         float64 // per-snapshot or scalar derating; here a scalar default
	Length         float64 // km
	CapitalCost    float64 // $ / MVA / year, annualized

	// SNomOpt is the solved/installed capacity, written back after a solve.
	SNomOpt float64
}

// Link is a controllable DC branch (HVDC, sector-coupling converter, ...).
type Link struct {
	ID   string
	Bus0 string
	Bus1 string

	PNom           float64
	PNomMin        float64
	PNomMax        float64
	PNomExtendable bool
	PMinPu         float64
	PMaxPu         float64
	Efficiency     float64
	CapitalCost    float64

	PNomOpt float64
}

// Generator is a dispatchable or renewable production unit attached to one
// bus. PMinPu/PMaxPu may vary per snapshot (e.g. renewable availability);
// a single-element slice is broadcast as a scalar by PMinPuAt/PMaxPuAt.
type Generator struct {
	ID      string
	Bus     string
	Carrier string

	PNom           float64
	PNomMin        float64
	PNomMax        float64
	PNomExtendable bool
	Commitable     bool // unit-commitment flag; core only warns, never solves on/off logic

	PMinPu []float64
	PMaxPu []float64

	MarginalCost float64
	CapitalCost  float64
	Efficiency   float64

	PNomOpt float64
}

// PMinPuAt and PMaxPuAt broadcast a scalar series (length 1) across T
// snapshots, matching the spec's "scalar or snapshot-indexed" wording.
func (g Generator) PMinPuAt(t int) float64 { return atPu(g.PMinPu, t) }
func (g Generator) PMaxPuAt(t int) float64 { return atPu(g.PMaxPu, t) }

func atPu(series []float64, t int) float64 {
	if len(series) == 0 {
		return 1
	}
	if len(series) == 1 {
		return series[0]
	}
	return series[t]
}

// StorageUnit is a single-variable (power + implicit energy via max_hours)
// storage asset: dispatch/store/state-of-charge/spill per snapshot.
type StorageUnit struct {
	ID  string
	Bus string

	PNom                float64
	PMinPu              float64 // -1 typically; dispatch/store direction limit
	PMaxPu              float64
	MaxHours            float64 // energy capacity = p_nom * max_hours
	CyclicStateOfCharge bool
	StateOfChargeInitial float64
	EfficiencyStore      float64
	EfficiencyDispatch   float64
	Inflow               []float64 // length T, MW

	MarginalCost   float64
	CapitalCost    float64
	PNomExtendable bool

	PNomOpt float64
}

// Store is a pure-energy asset (decoupled power/energy): dispatch/store/
// state-of-charge/spill per snapshot, with its own extendable energy
// capacity e_nom.
type Store struct {
	ID  string
	Bus string

	ENom                 float64
	EMinPu               float64
	EMaxPu               float64
	MaxHours             float64
	CyclicStateOfCharge  bool
	StateOfChargeInitial float64
	EfficiencyStore      float64
	EfficiencyDispatch   float64
	Inflow               []float64

	MarginalCost   float64
	CapitalCost    float64
	ENomExtendable bool

	ENomOpt float64
}

// Load is an inelastic demand series at a bus.
type Load struct {
	ID  string
	Bus string
	P   []float64 // length T, MW
}

// Carrier groups generators by fuel/technology and carries its emissions
// factor for the co2_limit global constraint.
type Carrier struct {
	Name         string
	CO2Emissions float64 // tonnes CO2 / MWh_thermal
}

// GlobalConstraintKind enumerates the supported policy constraint families.
type GlobalConstraintKind string

const (
	GlobalConstraintCO2Limit        GlobalConstraintKind = "co2_limit"
	GlobalConstraintMWKmLimit       GlobalConstraintKind = "mwkm_limit"
	GlobalConstraintRESTarget       GlobalConstraintKind = "restarget"
	GlobalConstraintApproxRESTarget GlobalConstraintKind = "approx_restarget"
)

// GlobalConstraint is a single system-wide policy constraint.
type GlobalConstraint struct {
	Name     string
	Kind     GlobalConstraintKind
	Constant float64
}

// Snapshot is one time slice of the horizon with its representative
// weighting (e.g. hours represented by this slice).
type Snapshot struct {
	Index     int
	Weighting float64
}
