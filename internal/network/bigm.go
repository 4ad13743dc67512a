package network

import "math"

// ExtensionCandidates returns the ordered finite set {0, 1, ..., C_l} of
// integer parallel-circuit additions for an integer big-M extendable line,
// bounded by s_nom_max / s_nom_per_parallel (spec §4.1).
func ExtensionCandidates(l Line) []int {
	if !l.SNomExtendable || l.NumParallel <= 0 {
		return []int{0}
	}
	sNomPerParallel := l.SNom / l.NumParallel
	if sNomPerParallel <= 0 {
		return []int{0}
	}
	maxAdd := int(math.Floor(l.SNomMax/sNomPerParallel - l.NumParallel + 1e-9))
	if maxAdd < 0 {
		maxAdd = 0
	}
	candidates := make([]int, maxAdd+1)
	for c := 0; c <= maxAdd; c++ {
		candidates[c] = c
	}
	return candidates
}
