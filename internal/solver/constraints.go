package solver

import "github.com/bits-and-blooms/bitset"

// overlap counts how many of the guess words are members of group.
func overlap(group map[Word]struct{}, guess GuessRecord) int {
	n := 0
	for _, w := range guess.Words {
		if _, ok := group[w]; ok {
			n++
		}
	}
	return n
}

// CompatibleNoMatches reports whether group can coexist with a NoMatches
// guess: no true group shares more than two words with it.
func CompatibleNoMatches(group map[Word]struct{}, guess GuessRecord) bool {
	return overlap(group, guess) <= 2
}

// CompatibleThreeFound reports whether group can coexist with a ThreeFound
// guess. Groups still being built are always compatible; a complete group
// must share exactly three words with the guess, or at most one.
func CompatibleThreeFound(group map[Word]struct{}, guess GuessRecord) bool {
	if len(group) < GroupSize {
		return true
	}
	n := overlap(group, guess)
	return n == 3 || n <= 1
}

// Compatible dispatches on the record's result. GroupFound and unrecognized
// tags impose nothing.
func Compatible(group map[Word]struct{}, guess GuessRecord) bool {
	switch guess.Result {
	case NoMatches:
		return CompatibleNoMatches(group, guess)
	case ThreeFound:
		return CompatibleThreeFound(group, guess)
	}
	return true
}

// constraint is a GuessRecord compiled against a word index.
type constraint struct {
	result GuessResult
	words  *bitset.BitSet
}

// admits is the bitset form of Compatible used inside the search.
func (c constraint) admits(group *bitset.BitSet) bool {
	n := group.IntersectionCardinality(c.words)
	switch c.result {
	case NoMatches:
		return n <= 2
	case ThreeFound:
		if group.Count() < GroupSize {
			return true
		}
		return n == 3 || n <= 1
	}
	return true
}
