package network

import (
	"fmt"
	"sync"
)

// Network is the in-memory value the core consumes and writes results back
// into. It is owned by the runner; the Builder holds only references into
// its metadata. SBase is the system MVA base used for per-unit conversion.
type Network struct {
	SBase float64 // MVA, default 1.0 if zero

	Buses             []Bus
	Lines             []Line
	Links             []Link
	Generators        []Generator
	StorageUnits      []StorageUnit
	Stores            []Store
	Loads             []Load
	Carriers          []Carrier
	GlobalConstraints []GlobalConstraint
	Snapshots         []Snapshot

	mu           sync.Mutex
	topoVersion  uint64
	derivedCache *derivedQuantities
}

// BusIndex returns a bus name->position map for O(1) lookups used throughout
// the builder. It builds a new map on every call; it is not part of the
// cache that BumpTopologyVersion invalidates, since bus identity never
// changes mid-solve.
func (n *Network) BusIndex() map[string]int {
	m := make(map[string]int, len(n.Buses))
	for i, b := range n.Buses {
		m[b.Name] = i
	}
	return m
}

// T is the number of snapshots in the horizon.
func (n *Network) T() int { return len(n.Snapshots) }

// sBase returns the configured system base, defaulting to 1.0 MVA.
func (n *Network) sBase() float64 {
	if n.SBase == 0 {
		return 1.0
	}
	return n.SBase
}

// BumpTopologyVersion invalidates the PTDF/cycle-basis cache. Call after
// mutating any line's X, SNom, SNomExtendable or NumParallel outside of a
// solve (the iterative and discretization runners do this between solves).
func (n *Network) BumpTopologyVersion() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.topoVersion++
	n.derivedCache = nil
}

// Validate checks the structural invariants from spec §3 before any model
// is built: bus references resolve, snapshot-indexed series have length 0,
// 1 (broadcast as a scalar) or T, the horizon is non-empty, and extendable
// line/link/generator nom bounds are sane. It does not compare p_min_pu with
// p_max_pu, and does not check solve-time feasibility (that's the solver's
// job).
func (n *Network) Validate() error {
	busIdx := n.BusIndex()
	T := n.T()

	checkBus := func(owner, name string) error {
		if _, ok := busIdx[name]; !ok {
			return fmt.Errorf("%s references unknown bus %q", owner, name)
		}
		return nil
	}
	checkSeries := func(owner string, series []float64) error {
		if len(series) != 0 && len(series) != 1 && len(series) != T {
			return fmt.Errorf("%s: series length %d does not match T=%d (nor scalar length 1)", owner, len(series), T)
		}
		return nil
	}

	for _, l := range n.Lines {
		if err := checkBus("line "+l.ID, l.Bus0); err != nil {
			return err
		}
		if err := checkBus("line "+l.ID, l.Bus1); err != nil {
			return err
		}
		if l.SNomExtendable && l.SNomMin > l.SNomMax {
			return fmt.Errorf("line %s: s_nom_min > s_nom_max", l.ID)
		}
		if l.NumParallel <= 0 {
			return fmt.Errorf("line %s: num_parallel must be > 0", l.ID)
		}
	}
	for _, lk := range n.Links {
		if err := checkBus("link "+lk.ID, lk.Bus0); err != nil {
			return err
		}
		if err := checkBus("link "+lk.ID, lk.Bus1); err != nil {
			return err
		}
		if lk.PNomExtendable && lk.PNomMin > lk.PNomMax {
			return fmt.Errorf("link %s: p_nom_min > p_nom_max", lk.ID)
		}
	}
	for _, g := range n.Generators {
		if err := checkBus("generator "+g.ID, g.Bus); err != nil {
			return err
		}
		if err := checkSeries("generator "+g.ID+" p_min_pu", g.PMinPu); err != nil {
			return err
		}
		if err := checkSeries("generator "+g.ID+" p_max_pu", g.PMaxPu); err != nil {
			return err
		}
		if g.PNomExtendable && g.PNomMin > g.PNomMax {
			return fmt.Errorf("generator %s: p_nom_min > p_nom_max", g.ID)
		}
	}
	for _, su := range n.StorageUnits {
		if err := checkBus("storage_unit "+su.ID, su.Bus); err != nil {
			return err
		}
		if err := checkSeries("storage_unit "+su.ID+" inflow", su.Inflow); err != nil {
			return err
		}
	}
	for _, st := range n.Stores {
		if err := checkBus("store "+st.ID, st.Bus); err != nil {
			return err
		}
		if err := checkSeries("store "+st.ID+" inflow", st.Inflow); err != nil {
			return err
		}
	}
	for _, ld := range n.Loads {
		if err := checkBus("load "+ld.ID, ld.Bus); err != nil {
			return err
		}
		if err := checkSeries("load "+ld.ID+" p", ld.P); err != nil {
			return err
		}
	}
	if T == 0 {
		return fmt.Errorf("network has no snapshots")
	}
	return nil
}

// LoadAt broadcasts a load's per-snapshot series, treating a length-1 series
// as constant across the horizon (mirrors Generator.PMinPuAt/PMaxPuAt).
func (l Load) LoadAt(t int) float64 { return atPu(l.P, t) }

// InflowAt broadcasts a storage/store inflow series the same way.
func (su StorageUnit) InflowAt(t int) float64 { return atPu(su.Inflow, t) }
func (st Store) InflowAt(t int) float64       { return atPu(st.Inflow, t) }
