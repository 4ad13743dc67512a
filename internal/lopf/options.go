package lopf

import "lopf/internal/rescale"

// Formulation selects the power-flow coupling the builder emits (spec
// §4.4.4).
type Formulation string

const (
	AnglesLinear            Formulation = "angles_linear"
	AnglesLinearIntegerBigM Formulation = "angles_linear_integer_bigm"
	AnglesBilinear          Formulation = "angles_bilinear"
	KirchhoffLinear         Formulation = "kirchhoff_linear"
	KirchhoffBilinear       Formulation = "kirchhoff_bilinear"
	PTDF                    Formulation = "ptdf"
)

// InvestmentType selects how line investment is represented (spec §4.4.2).
type InvestmentType string

const (
	Continuous  InvestmentType = "continuous"
	Integer     InvestmentType = "integer"
	Binary      InvestmentType = "binary"
	IntegerBigM InvestmentType = "integer_bigm"
)

// Role gates which variable/constraint families the builder emits (spec
// §4.4.2): a monolithic model has both investment and operation; a master
// has investment only; a slave has operation only.
type Role string

const (
	RoleMonolithic Role = "monolithic"
	RoleMaster     Role = "master"
	RoleSlave      Role = "slave"
)

// SnapshotSlice selects whether the model spans every snapshot or a single
// one (used by split_subproblems Benders slaves).
type SnapshotSlice struct {
	Single     bool
	SingleAt   int
}

// AllSnapshots returns the "every snapshot" slice.
func AllSnapshots() SnapshotSlice { return SnapshotSlice{} }

// SingleSnapshot returns a slice pinned to one snapshot index.
func SingleSnapshot(t int) SnapshotSlice { return SnapshotSlice{Single: true, SingleAt: t} }

// Options parameterizes one call to Build (spec §4.4): everything the
// model depends on besides the Network itself.
type Options struct {
	Formulation    Formulation
	InvestmentType InvestmentType
	Role           Role
	Snapshots      SnapshotSlice

	Rescaling rescale.Table

	// NGroups is the number of Benders ALPHA scalars a master model
	// carries; spec's Open Question resolves NGroups = (individualcuts ? T : 1)
	// at every call site (see DESIGN.md).
	NGroups int

	BigM float64 // Benders / integer big-M constant; default 1e12 per spec §6
}

// Validate exposes validate to callers outside this package (e.g.
// internal/config, which checks a loaded config is buildable before handing
// it to any runner).
func (o Options) Validate() error { return o.validate() }

// validate checks the incompatible-option combinations named in spec §7
// before any variable is created.
func (o Options) validate() error {
	if o.InvestmentType == IntegerBigM && o.Formulation != AnglesLinearIntegerBigM {
		return configErr("investment_type=integer_bigm requires formulation=angles_linear_integer_bigm, got %s", o.Formulation)
	}
	if o.Formulation == AnglesLinearIntegerBigM && o.InvestmentType != IntegerBigM {
		return configErr("formulation=angles_linear_integer_bigm requires investment_type=integer_bigm, got %s", o.InvestmentType)
	}
	if o.Formulation == AnglesBilinear || o.Formulation == KirchhoffBilinear {
		return configErr("formulation=%s requires a nonlinear backend, which this core does not provide", o.Formulation)
	}
	if o.Snapshots.Single && o.Role != RoleSlave {
		return configErr("a single-snapshot slice is only valid for role=slave, got role=%s", o.Role)
	}
	return nil
}
