package network

import (
	"gonum.org/v1/gonum/mat"
)

// derivedQuantities caches topology-derived results keyed by the network's
// topoVersion, per DESIGN NOTES' PTDF-caching guidance: the matrix is a
// function of (bus order, line endpoints, x_pu vector) alone, so it is
// invalidated only when BumpTopologyVersion is called, not on every solve.
type derivedQuantities struct {
	version uint64
	ptdf    *mat.Dense
	cycles  []Cycle
}

// PTDF returns the Power Transfer Distribution Factor matrix (L x N): flow
// on line l induced by a unit net injection at bus n, holding bus 0 as the
// slack (spec §4.1). It uses the cached value when the topology hasn't
// changed since the last computation.
func (n *Network) PTDF() *mat.Dense {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.derivedCache != nil && n.derivedCache.version == n.topoVersion && n.derivedCache.ptdf != nil {
		return n.derivedCache.ptdf
	}
	p := n.computePTDF()
	n.cacheLocked(p, nil)
	return p
}

// CycleBasisCached is CycleBasis with the same topoVersion-keyed cache.
func (n *Network) CycleBasisCached() []Cycle {
	n.mu.Lock()
	if n.derivedCache != nil && n.derivedCache.version == n.topoVersion && n.derivedCache.cycles != nil {
		defer n.mu.Unlock()
		return n.derivedCache.cycles
	}
	n.mu.Unlock()

	c := n.CycleBasis()

	n.mu.Lock()
	defer n.mu.Unlock()
	n.cacheLocked(nil, c)
	return c
}

func (n *Network) cacheLocked(ptdf *mat.Dense, cycles []Cycle) {
	if n.derivedCache == nil || n.derivedCache.version != n.topoVersion {
		n.derivedCache = &derivedQuantities{version: n.topoVersion}
	}
	if ptdf != nil {
		n.derivedCache.ptdf = ptdf
	}
	if cycles != nil {
		n.derivedCache.cycles = cycles
	}
}

func (n *Network) computePTDF() *mat.Dense {
	busIdx := n.BusIndex()
	N := len(n.Buses)
	L := len(n.Lines)
	xpu := n.XPuAll()

	bLine := mat.NewDense(L, N, nil)
	bBus := mat.NewDense(N, N, nil)

	for li, l := range n.Lines {
		b0, ok0 := busIdx[l.Bus0]
		b1, ok1 := busIdx[l.Bus1]
		if !ok0 || !ok1 || xpu[li] == 0 {
			continue
		}
		b := 1.0 / xpu[li]
		bLine.Set(li, b0, b)
		bLine.Set(li, b1, -b)

		bBus.Set(b0, b0, bBus.At(b0, b0)+b)
		bBus.Set(b1, b1, bBus.At(b1, b1)+b)
		bBus.Set(b0, b1, bBus.At(b0, b1)-b)
		bBus.Set(b1, b0, bBus.At(b1, b0)-b)
	}

	slack := 0
	if N > 0 {
		for i := 0; i < N; i++ {
			bBus.Set(slack, i, 0)
			bBus.Set(i, slack, 0)
		}
	}

	bBusPinv := pseudoInverse(bBus)

	ptdf := mat.NewDense(L, N, nil)
	ptdf.Mul(bLine, bBusPinv)
	return ptdf
}

// pseudoInverse computes the Moore-Penrose pseudoinverse via SVD, used
// because the slack-zeroed nodal susceptance matrix is singular by
// construction (rank N-1).
func pseudoInverse(a *mat.Dense) *mat.Dense {
	var svd mat.SVD
	ok := svd.Factorize(a, mat.SVDFull)
	r, c := a.Dims()
	out := mat.NewDense(r, c, nil)
	if !ok {
		return out
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	values := svd.Values(nil)

	const tol = 1e-10
	sigmaPlus := mat.NewDense(c, r, nil)
	for i, s := range values {
		if s > tol {
			sigmaPlus.Set(i, i, 1.0/s)
		}
	}

	var tmp mat.Dense
	tmp.Mul(&v, sigmaPlus)
	out.Mul(&tmp, u.T())
	return out
}
