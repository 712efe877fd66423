// apps/go-server/internal/solver/engine.go
//
// Compatibility engine for the grouping puzzle.
// Responsibilities:
//   - Decide whether a candidate word can join the current selection in some
//     partition of the unresolved words that agrees with every past guess.
//   - Enumerate the candidates for which no such partition exists.
//
// Notes:
//   - Every call is a pure function of its arguments; nothing is cached between
//     calls and inputs are never mutated, so concurrent calls over immutable
//     snapshots need no locking.
//   - Words are mapped to bit indices once per call; group hypotheses and guess
//     word sets are bitsets over that index.

package solver

import (
	"time"

	"github.com/bits-and-blooms/bitset"
)

// Analysis is the outcome of one invalid-candidate enumeration.
type Analysis struct {
	Invalid  []Word        // unresolved, unselected words that cannot join the selection
	Checked  int           // candidates tested
	Nodes    int           // search nodes visited across all candidates
	Duration time.Duration // wall time for the enumeration
}

// universe maps words to bit positions for a single call.
type universe struct {
	index map[Word]uint
	words []Word
}

func newUniverse(size int) *universe {
	return &universe{index: make(map[Word]uint, size), words: make([]Word, 0, size)}
}

// add registers w if unseen and returns its position.
func (u *universe) add(w Word) uint {
	if i, ok := u.index[w]; ok {
		return i
	}
	i := uint(len(u.words))
	u.index[w] = i
	u.words = append(u.words, w)
	return i
}

// set builds a bitset of the known words; unknown words are skipped since no
// hypothetical group can contain them.
func (u *universe) set(words ...Word) *bitset.BitSet {
	b := bitset.New(uint(len(u.words)))
	for _, w := range words {
		if i, ok := u.index[w]; ok {
			b.Set(i)
		}
	}
	return b
}

// compile turns the history into bitset constraints. GroupFound records are
// dropped: their words have already left the unresolved set.
func (u *universe) compile(history []GuessRecord) []constraint {
	out := make([]constraint, 0, len(history))
	for _, g := range history {
		if g.Result != NoMatches && g.Result != ThreeFound {
			continue
		}
		out = append(out, constraint{result: g.Result, words: u.set(g.Words[:]...)})
	}
	return out
}

// checker holds the per-call state shared by every candidate test.
type checker struct {
	u           *universe
	unresolved  []uint
	constraints []constraint
	numGroups   int
	nodes       int
}

func newChecker(selection, unresolved []Word, extra Word, history []GuessRecord) *checker {
	u := newUniverse(len(unresolved) + len(selection) + 1)
	seen := make(map[uint]struct{}, len(unresolved))
	idx := make([]uint, 0, len(unresolved))
	for _, w := range unresolved {
		i := u.add(w)
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		idx = append(idx, i)
	}
	for _, w := range selection {
		u.add(w)
	}
	if extra != "" {
		u.add(extra)
	}
	numGroups := len(unresolved) / GroupSize
	if numGroups < 1 {
		numGroups = 1
	}
	return &checker{
		u:           u,
		unresolved:  idx,
		constraints: u.compile(history),
		numGroups:   numGroups,
	}
}

// valid seeds the first group with selection ∪ {candidate} and searches for a
// completion of the remaining words.
func (c *checker) valid(selection []Word, candidate Word) bool {
	if len(selection) >= GroupSize {
		return false
	}
	seed := c.u.set(append(append(make([]Word, 0, len(selection)+1), selection...), candidate)...)

	groups := make([]*bitset.BitSet, c.numGroups)
	groups[0] = seed
	for i := 1; i < c.numGroups; i++ {
		groups[i] = bitset.New(uint(len(c.u.words)))
	}

	remaining := make([]uint, 0, len(c.unresolved))
	for _, i := range c.unresolved {
		if !seed.Test(i) {
			remaining = append(remaining, i)
		}
	}

	s := &search{constraints: c.constraints}
	ok := s.run(groups, remaining)
	c.nodes += s.nodes
	return ok
}

// IsCandidateValid reports whether some partition of unresolved into groups
// of four places candidate together with selection and agrees with history.
// A selection that already holds four words admits no candidate.
func IsCandidateValid(selection []Word, candidate Word, unresolved []Word, history []GuessRecord) bool {
	if len(selection) >= GroupSize {
		return false
	}
	return newChecker(selection, unresolved, candidate, history).valid(selection, candidate)
}

// Analyze tests every unresolved word outside the selection and collects the
// ones that cannot join it. An empty selection constrains nothing.
func Analyze(selection, unresolved []Word, history []GuessRecord) Analysis {
	start := time.Now()
	if len(selection) == 0 {
		return Analysis{Invalid: []Word{}, Duration: time.Since(start)}
	}

	selected := make(map[Word]struct{}, len(selection))
	for _, w := range selection {
		selected[w] = struct{}{}
	}

	c := newChecker(selection, unresolved, "", history)
	invalid := []Word{}
	checked := 0
	for _, w := range unresolved {
		if _, ok := selected[w]; ok {
			continue
		}
		checked++
		if !c.valid(selection, w) {
			invalid = append(invalid, w)
		}
	}
	return Analysis{Invalid: invalid, Checked: checked, Nodes: c.nodes, Duration: time.Since(start)}
}

// ComputeInvalidWords returns the unresolved, unselected words that cannot
// complete a consistent partition together with selection, in the order they
// appear in unresolved.
func ComputeInvalidWords(selection, unresolved []Word, history []GuessRecord) []Word {
	return Analyze(selection, unresolved, history).Invalid
}

// InvalidSet is ComputeInvalidWords as a membership set.
func InvalidSet(selection, unresolved []Word, history []GuessRecord) map[Word]struct{} {
	invalid := ComputeInvalidWords(selection, unresolved, history)
	out := make(map[Word]struct{}, len(invalid))
	for _, w := range invalid {
		out[w] = struct{}{}
	}
	return out
}
