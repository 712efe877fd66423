package solver

import "github.com/bits-and-blooms/bitset"

// search is the exact-partition backtracking state for one candidate check.
// Groups are persistent: a branch clones the one group it extends, so a failed
// branch leaves its parent's groups untouched and no undo step exists.
type search struct {
	constraints []constraint
	nodes       int
}

// admits reports whether every group is compatible with every constraint.
func (s *search) admits(groups []*bitset.BitSet) bool {
	for _, c := range s.constraints {
		for _, g := range groups {
			if !c.admits(g) {
				return false
			}
		}
	}
	return true
}

// run tries to place every remaining word index into groups of at most
// GroupSize members so that all constraints hold. The state is re-checked at
// every depth so violating branches are cut before they grow.
func (s *search) run(groups []*bitset.BitSet, remaining []uint) bool {
	s.nodes++
	if !s.admits(groups) {
		return false
	}
	if len(remaining) == 0 {
		return true
	}

	w := remaining[len(remaining)-1]
	rest := remaining[:len(remaining)-1]

	// Empty groups are interchangeable; offering w to more than one of them
	// would only repeat the same subtree.
	triedEmpty := false
	for i, g := range groups {
		size := g.Count()
		if size >= GroupSize {
			continue
		}
		if size == 0 {
			if triedEmpty {
				continue
			}
			triedEmpty = true
		}
		next := make([]*bitset.BitSet, len(groups))
		copy(next, groups)
		next[i] = g.Clone().Set(w)
		if s.run(next, rest) {
			return true
		}
	}
	return false
}
