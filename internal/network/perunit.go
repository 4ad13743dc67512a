package network

// ReactanceSentinel is the numerical stand-in for infinite reactance used
// when a zero-capacity extendable line is temporarily dropped from the
// angle/cycle formulations by the iterative runner (spec §4.6, §7
// NumericalWarning). It is large enough to make the line's flow negligible
// without actually being infinite.
const ReactanceSentinel = 1e7

// XPu returns the per-unit reactance of a line: x_pu = x / (v_nom^2 / s_base),
// using bus0's nominal voltage as the base (both ends of an AC line share a
// voltage level in this model).
func (n *Network) XPu(l Line) float64 {
	busIdx := n.BusIndex()
	vNom := 1.0
	if i, ok := busIdx[l.Bus0]; ok && n.Buses[i].VNom > 0 {
		vNom = n.Buses[i].VNom
	}
	zBase := (vNom * vNom) / n.sBase()
	if zBase == 0 {
		return l.X
	}
	return l.X / zBase
}

// XPuAll returns x_pu for every line, in line order.
func (n *Network) XPuAll() []float64 {
	out := make([]float64, len(n.Lines))
	for i, l := range n.Lines {
		out[i] = n.XPu(l)
	}
	return out
}

// Partition describes a fixed/extendable split of a component list, with the
// re-sorted order (fixed assets first, then extendable). The builder does
// not use it: it keys its variables by asset ID.
type Partition struct {
	Order      []int // Order[newIndex] = oldIndex
	NumFixed   int
	NumExtend  int
}

// PartitionByExtendable computes a fixed-first Partition from an
// extendability predicate, without mutating the caller's slice order.
func PartitionByExtendable(n int, extendable func(i int) bool) Partition {
	fixed := make([]int, 0, n)
	ext := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if extendable(i) {
			ext = append(ext, i)
		} else {
			fixed = append(fixed, i)
		}
	}
	order := make([]int, 0, n)
	order = append(order, fixed...)
	order = append(order, ext...)
	return Partition{Order: order, NumFixed: len(fixed), NumExtend: len(ext)}
}
