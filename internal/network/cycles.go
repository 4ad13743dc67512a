package network

import "sort"

// Cycle is one fundamental cycle of the transmission graph: an ordered list
// of line indices together with a parallel +1/-1 direction relative to each
// line's stored (Bus0 -> Bus1) orientation, as walked around the loop.
type Cycle struct {
	Lines      []int
	Directions []float64
}

// CycleBasis builds the undirected graph of lines, computes a spanning
// forest, and for every non-tree edge closes exactly one fundamental cycle
// (spec §4.1). Cycles of length <= 2 (parallel lines between the same bus
// pair) are discarded, matching the spec. Bus indices are taken from
// BusIndex(); lines referencing unknown buses are skipped (Validate should
// already have rejected them by the time this runs).
func (n *Network) CycleBasis() []Cycle {
	busIdx := n.BusIndex()
	nb := len(n.Buses)

	uf := newUnionFind(nb)
	// parentEdge[b] = (otherBus, lineIdx, dirFromOtherToB) once b is attached
	// to the spanning forest; used to walk tree paths when closing a cycle.
	parentBus := make([]int, nb)
	parentLine := make([]int, nb)
	parentDir := make([]float64, nb)
	attached := make([]bool, nb)
	for i := range parentBus {
		parentBus[i] = -1
		parentLine[i] = -1
	}

	adj := make([][]treeEdge, nb)

	var cycles []Cycle

	for li, l := range n.Lines {
		b0, ok0 := busIdx[l.Bus0]
		b1, ok1 := busIdx[l.Bus1]
		if !ok0 || !ok1 {
			continue
		}
		if uf.find(b0) != uf.find(b1) {
			uf.union(b0, b1)
			adj[b0] = append(adj[b0], treeEdge{to: b1, line: li, dir: 1})
			adj[b1] = append(adj[b1], treeEdge{to: b0, line: li, dir: -1})
			continue
		}
		// Non-tree edge: closes a fundamental cycle. Re-root the forest
		// component via BFS from b0, so every bus joined so far has a
		// parent path, including buses joined after an earlier cycle.
		for i := range attached {
			attached[i] = false
			parentBus[i] = -1
			parentLine[i] = -1
		}
		rootTree(adj, b0, attached, parentBus, parentLine, parentDir)
		cyc := closeCycle(b0, b1, li, parentBus, parentLine, parentDir)
		if len(cyc.Lines) > 2 {
			cycles = append(cycles, cyc)
		}
	}

	sort.Slice(cycles, func(i, j int) bool {
		if len(cycles[i].Lines) != len(cycles[j].Lines) {
			return len(cycles[i].Lines) < len(cycles[j].Lines)
		}
		for k := range cycles[i].Lines {
			if cycles[i].Lines[k] != cycles[j].Lines[k] {
				return cycles[i].Lines[k] < cycles[j].Lines[k]
			}
		}
		return false
	})
	return cycles
}

type treeEdge struct {
	to   int
	line int
	dir  float64
}

// rootTree runs a BFS from root over the spanning-forest adjacency already
// built, recording each visited bus's parent bus/line/direction so that
// closeCycle can walk root-to-leaf paths.
func rootTree(adj [][]treeEdge, root int, attached []bool, parentBus, parentLine []int, parentDir []float64) {
	queue := []int{root}
	attached[root] = true
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, e := range adj[u] {
			if attached[e.to] {
				continue
			}
			attached[e.to] = true
			parentBus[e.to] = u
			parentLine[e.to] = e.line
			parentDir[e.to] = e.dir
			queue = append(queue, e.to)
		}
	}
}

// closeCycle walks from b0 and b1 up to their lowest common ancestor in the
// spanning tree, then stitches the two root-paths together with the closing
// non-tree edge (b0,b1,closingLine) to form the ordered cycle.
func closeCycle(b0, b1, closingLine int, parentBus, parentLine []int, parentDir []float64) Cycle {
	pathToRoot := func(b int) ([]int, []int, []float64) {
		var buses []int
		var lines []int
		var dirs []float64
		for b != -1 {
			buses = append(buses, b)
			if parentBus[b] != -1 {
				lines = append(lines, parentLine[b])
				dirs = append(dirs, parentDir[b])
			}
			b = parentBus[b]
		}
		return buses, lines, dirs
	}

	buses0, lines0, dirs0 := pathToRoot(b0)
	buses1, lines1, dirs1 := pathToRoot(b1)

	depth0 := make(map[int]int, len(buses0))
	for i, b := range buses0 {
		depth0[b] = i
	}
	lca := -1
	lcaDepth1 := 0
	for i, b := range buses1 {
		if d0, ok := depth0[b]; ok {
			lca = b
			lcaDepth1 = i
			_ = d0
			break
		}
	}

	var cycLines []int
	var cycDirs []float64

	// b0 -> lca along its tree path.
	for i, b := range buses0 {
		if b == lca {
			break
		}
		cycLines = append(cycLines, lines0[i])
		cycDirs = append(cycDirs, -dirs0[i]) // walking bus->parent reverses stored dir
	}
	// lca -> b1 along its tree path, reversed (we want b1 -> lca reversed to lca -> b1).
	for i := lcaDepth1 - 1; i >= 0; i-- {
		cycLines = append(cycLines, lines1[i])
		cycDirs = append(cycDirs, dirs1[i])
	}
	// closing edge walked b1 -> b0, against its stored b0 -> b1 orientation.
	cycLines = append(cycLines, closingLine)
	cycDirs = append(cycDirs, -1)

	return Cycle{Lines: cycLines, Directions: cycDirs}
}

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFind{parent: p, rank: make([]int, n)}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.rank[ra] < u.rank[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
}
