// Package monolithic runs the LOPF model as a single solve: build once over
// every snapshot with both investment and operation variables, solve, write
// back (spec §4.5).
package monolithic

import (
	"context"
	"fmt"

	"lopf/internal/lopf"
	"lopf/internal/network"
	"lopf/internal/solver"
)

// Result is the monolithic runner's outcome.
type Result struct {
	Status         solver.Status
	ObjectiveValue float64
	Solution       *lopf.Solution
}

// Run builds, solves and writes back one monolithic model.
func Run(ctx context.Context, net *network.Network, backend solver.Backend, opts lopf.Options) (*Result, error) {
	if net == nil {
		return nil, fmt.Errorf("monolithic: network is nil")
	}
	if backend == nil {
		return nil, fmt.Errorf("monolithic: backend is nil")
	}
	opts.Role = lopf.RoleMonolithic
	opts.Snapshots = lopf.AllSnapshots()

	m, err := lopf.Build(net, backend, opts)
	if err != nil {
		return nil, fmt.Errorf("monolithic: build: %w", err)
	}

	status, err := m.Solver.Solve(ctx)
	if err != nil {
		return nil, fmt.Errorf("monolithic: solve: %w", err)
	}
	if status != solver.StatusOptimal && status != solver.StatusTimeLimit {
		return &Result{Status: status}, fmt.Errorf("monolithic: solver returned status %s", status)
	}

	sol := m.ExtractSolution()
	m.WriteBack(sol)

	return &Result{
		Status:         status,
		ObjectiveValue: sol.ObjectiveValue,
		Solution:       sol,
	}, nil
}
