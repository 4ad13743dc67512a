// Package benders implements the Benders decomposition driver (spec §4.7):
// one master model carrying investment variables and per-group ALPHA
// scalars, one or T slave models carrying operation variables, coupled
// through a lazy callback fired at every master incumbent.
package benders

import (
	"context"
	"fmt"

	"lopf/internal/lopf"
	"lopf/internal/network"
	"lopf/internal/solver"
)

// Options configures the driver (spec §6 "Benders").
type Options struct {
	SplitSubproblems bool
	IndividualCuts   bool
	Tolerance        float64
	MIPGap           float64
	BigM             float64
	UpdateX          bool
}

// DefaultOptions matches the spec's stated defaults.
func DefaultOptions() Options {
	return Options{Tolerance: 100.0, MIPGap: 1e-8, BigM: 1e12}
}

// Result is the driver's outcome after the master's final solve.
type Result struct {
	Status         solver.Status
	ObjectiveValue float64
	Solution       *lopf.Solution
}

// Run builds the master and slave(s) and drives the master to a provably
// optimal (within Tolerance) incumbent via the lazy cut callback (spec
// §4.7).
func Run(ctx context.Context, net *network.Network, backend solver.Backend, opts lopf.Options, bendersOpts Options) (*Result, error) {
	if net == nil {
		return nil, fmt.Errorf("benders: network is nil")
	}
	if bendersOpts.Tolerance == 0 {
		bendersOpts = DefaultOptions()
	}

	nGroups := 1
	if bendersOpts.IndividualCuts {
		nGroups = net.T()
	}

	masterOpts := opts
	masterOpts.Role = lopf.RoleMaster
	masterOpts.Snapshots = lopf.AllSnapshots()
	masterOpts.NGroups = nGroups
	masterOpts.BigM = bendersOpts.BigM

	master, err := lopf.Build(net, backend, masterOpts)
	if err != nil {
		return nil, fmt.Errorf("benders: build master: %w", err)
	}

	slaveSnaps := [][]int{allSnapshots(net)}
	if bendersOpts.SplitSubproblems {
		slaveSnaps = perSnapshot(net)
	}

	drv := &driver{
		ctx:     ctx,
		net:     net,
		backend: backend,
		opts:    opts,
		bOpts:   bendersOpts,
		master:  master,
		nGroups: nGroups,
	}
	if err := drv.buildSlaves(slaveSnaps); err != nil {
		return nil, fmt.Errorf("benders: build slaves: %w", err)
	}

	if err := master.Solver.AddLazyConstraint(drv.onIncumbent); err != nil {
		return nil, fmt.Errorf("benders: register callback: %w", err)
	}

	var status solver.Status
	for round := 0; ; round++ {
		status, err = master.Solver.Solve(ctx)
		if err != nil {
			return nil, fmt.Errorf("benders: master solve: %w", err)
		}
		if status != solver.StatusOptimal {
			break
		}
		if drv.lastAccepted {
			break
		}
		if round > maxMasterRounds {
			return nil, fmt.Errorf("benders: exceeded %d master re-solves without accepting an incumbent", maxMasterRounds)
		}
	}

	sol := master.ExtractSolution()
	master.WriteBack(sol)

	return &Result{Status: status, ObjectiveValue: sol.ObjectiveValue, Solution: sol}, nil
}

// maxMasterRounds bounds the outer re-solve loop the refsolver backend's
// once-per-Solve lazy callback semantics require (see
// internal/solver/refsolver/model.go): each round either accepts the
// incumbent or adds at least one new cut, so this is a generous backstop,
// not a tuning knob.
const maxMasterRounds = 500

func allSnapshots(net *network.Network) []int {
	out := make([]int, net.T())
	for i := range out {
		out[i] = i
	}
	return out
}

func perSnapshot(net *network.Network) [][]int {
	out := make([][]int, net.T())
	for i := range out {
		out[i] = []int{i}
	}
	return out
}
