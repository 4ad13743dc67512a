package lopf

import (
	"lopf/internal/network"
	"lopf/internal/solver"
)

// byAsset indexes a per-snapshot variable or constraint handle by asset ID
// then snapshot index; this is the "per-family 2D array" DESIGN NOTES asks
// for so Benders RHS pushes and cut generation are simple lookups.
type byAsset[H any] map[string]map[int]H

func newByAsset[H any]() byAsset[H] { return make(byAsset[H]) }

func (b byAsset[H]) set(id string, t int, h H) {
	m, ok := b[id]
	if !ok {
		m = make(map[int]H)
		b[id] = m
	}
	m[t] = h
}

// Get looks up a handle by asset ID and snapshot. Exported so runners
// outside this package (e.g. the Benders driver) can read the bound and
// flow constraint handles they need to mutate between cut iterations.
func (b byAsset[H]) Get(id string, t int) (H, bool) {
	m, ok := b[id]
	if !ok {
		var zero H
		return zero, false
	}
	h, ok := m[t]
	return h, ok
}

// Model is the builder's output: a solver.Model plus every variable and
// constraint handle the runners need, organized per spec §4.4's role-gated
// families. Exactly which maps are populated depends on Opts.Role.
type Model struct {
	Net    *network.Network
	Solver solver.Model
	Opts   Options

	// Investment (role != slave).
	GPNom  map[string]solver.Var // extendable generators only
	LKPNom map[string]solver.Var // extendable links only
	SUPNom map[string]solver.Var // extendable storage units only
	STENom map[string]solver.Var // extendable stores only

	LNSNom    map[string]solver.Var            // extendable lines: resolved s_nom variable
	LNInv     map[string]solver.Var            // continuous/integer/binary investment companion
	LNOpt     map[string]solver.Var            // binary investment_type switch
	LNOptBigM map[string]map[int]solver.Var    // integer_bigm: line -> candidate -> indicator

	Alpha []solver.Var // master-only: one per cut group

	// Operation (role != master), indexed by asset ID then snapshot.
	G           byAsset[solver.Var]
	LN          byAsset[solver.Var]
	LK          byAsset[solver.Var]
	Theta       byAsset[solver.Var] // bus name -> t; angle formulations only
	SUDispatch  byAsset[solver.Var]
	SUStore     byAsset[solver.Var]
	SUSOC       byAsset[solver.Var]
	SUSpill     byAsset[solver.Var]
	STDispatch  byAsset[solver.Var]
	STStore     byAsset[solver.Var]
	STSOC       byAsset[solver.Var]
	STSpill     byAsset[solver.Var]

	// Coupled-constraint families, mutable in slave role (spec §4.4.3, §4.7).
	BoundsGLower  byAsset[solver.Constraint]
	BoundsGUpper  byAsset[solver.Constraint]
	BoundsLNLower byAsset[solver.Constraint]
	BoundsLNUpper byAsset[solver.Constraint]
	BoundsLKLower byAsset[solver.Constraint]
	BoundsLKUpper byAsset[solver.Constraint]

	// integer_bigm flow (in)equalities, line -> t -> candidate -> constraint.
	FlowsUpper map[string]map[int]map[int]solver.Constraint
	FlowsLower map[string]map[int]map[int]solver.Constraint

	// Nodal balance, for marginal-price extraction.
	NodalBalance byAsset[solver.Constraint]

	snapshots []int // resolved snapshot indices this model spans
}

// Snapshots returns the resolved snapshot indices this model spans (either
// all of Net.Snapshots, or the single pinned index).
func (m *Model) Snapshots() []int { return m.snapshots }
