// Package solver defines the abstract LP/MIP backend the model builder
// targets (spec §4.3). It deliberately stops at the interface: concrete
// solver-vendor adapters are an external collaborator's concern (spec §1).
// internal/solver/refsolver ships one concrete, dependency-free
// implementation for tests and small networks.
package solver

import "context"

// Domain is the admissible value set of a decision variable.
type Domain int

const (
	Real Domain = iota
	Integer
	Binary
)

// Relation is the sense of a linear constraint.
type Relation int

const (
	LE Relation = iota
	GE
	EQ
)

// Sense is the optimization direction. The core only ever minimizes.
type Sense int

const (
	Min Sense = iota
)

// Kind selects the backend flavor a Model needs.
type Kind int

const (
	KindLP Kind = iota
	KindMIP
	KindBlock
)

// Status is the outcome of a Solve call.
type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusUnbounded
	StatusTimeLimit
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	case StatusTimeLimit:
		return "time_limit"
	default:
		return "error"
	}
}

// Var is an opaque handle to a decision variable, stable for the lifetime
// of its owning Model. Backends construct handles via NewVar and read them
// back via ID; callers should treat the value as opaque.
type Var struct{ id int }

// NewVar constructs a Var handle wrapping a backend-assigned index. Backend
// implementations use this; callers should not need to.
func NewVar(id int) Var { return Var{id: id} }

// ID returns the backend-assigned index wrapped by this handle.
func (v Var) ID() int { return v.id }

// Constraint is an opaque handle to a linear constraint, stable for the
// lifetime of its owning Model; RHS is mutable via Model.SetRHS (used by
// the Benders driver to push master values into slave RHS).
type Constraint struct{ id int }

// NewConstraint constructs a Constraint handle wrapping a backend-assigned
// index. Backend implementations use this; callers should not need to.
func NewConstraint(id int) Constraint { return Constraint{id: id} }

// ID returns the backend-assigned index wrapped by this handle.
func (c Constraint) ID() int { return c.id }

// Term is one var*coefficient summand of a linear expression.
type Term struct {
	Var   Var
	Coef  float64
}

// Expr is a linear expression: const + sum(coef*var).
type Expr struct {
	Const float64
	Terms []Term
}

// Add appends a term and returns the expression for chaining.
func (e Expr) Add(v Var, coef float64) Expr {
	if coef == 0 {
		return e
	}
	e.Terms = append(e.Terms, Term{Var: v, Coef: coef})
	return e
}

// Bounds is a variable's feasible range; Binary variables ignore Bounds and
// are always in [0,1].
type Bounds struct {
	Lower float64
	Upper float64
}

// LazyContext is passed to a lazy-constraint callback at each new master
// incumbent (spec §4.3, §4.7). Reads are the current incumbent's values;
// AddCut installs an additional linear constraint on the master before
// branch-and-bound resumes.
type LazyContext interface {
	Value(v Var) float64
	AddCut(expr Expr, rel Relation, rhs float64) error
}

// LazyCallback is invoked synchronously on each new integer incumbent of the
// master. It must behave as a pure function of the current incumbent (spec
// §5): read once, decide, emit cuts, return.
type LazyCallback func(ctx LazyContext) error

// Model is one LP/MIP problem instance: a declarative bag of variables,
// constraints and an objective, plus the solve/query operations spec §4.3
// requires of a backend.
type Model interface {
	AddVariable(name string, domain Domain, bounds Bounds) Var
	AddLinearConstraint(expr Expr, rel Relation, rhs float64) (Constraint, error)
	SetObjective(expr Expr, sense Sense)
	SetRHS(c Constraint, rhs float64)
	AddLazyConstraint(cb LazyCallback) error

	Solve(ctx context.Context) (Status, error)

	Value(v Var) float64
	ObjectiveValue() float64
	Dual(c Constraint) float64
}

// Backend is an opaque solver factory: something that can produce fresh
// Model instances of a given Kind. A simplex/barrier LP for continuous
// problems, a branch-and-cut MIP for integer formulations, or a
// lazy-constraint-capable MIP for Benders are all acceptable (spec §4.3).
type Backend interface {
	NewModel(kind Kind) Model
}

// Factory constructs a Backend; it is the "solver factory" collaborator
// input named in spec §6.
type Factory func() Backend
