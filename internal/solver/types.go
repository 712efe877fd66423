// apps/go-server/internal/solver/types.go
//
// Core type definitions for the grouping-puzzle helper.
// Defines:
//   - Word: a case-normalized board token.
//   - GuessResult: feedback tag revealed after a four-word guess.
//   - GuessRecord: one judged guess (four words + feedback).

package solver

import (
	"errors"
	"strings"
)

// Word is an opaque, case-normalized token. Equality is exact string match.
type Word = string

// GuessResult is the feedback tag for a submitted guess.
// Possible values:
//   - "no_matches":  at most two of the guessed words share a true group.
//   - "three_found": exactly three of the guessed words share one true group.
//   - "group_found": the four guessed words are exactly one true group.
type GuessResult string

const (
	NoMatches  GuessResult = "no_matches"
	ThreeFound GuessResult = "three_found"
	GroupFound GuessResult = "group_found"
)

// GroupSize is the number of words in every true group.
const GroupSize = 4

var ErrUnknownResult = errors.New("unknown guess result")

var labelSeps = strings.NewReplacer("-", "_", " ", "_")

// ParseGuessResult maps a client-supplied tag onto a GuessResult.
// Case, dashes, spaces, and the label's "!" are tolerated, so both
// "Three-Found" and "Group Found!" parse.
func ParseGuessResult(s string) (GuessResult, error) {
	s = strings.TrimRight(strings.ToLower(strings.TrimSpace(s)), "!")
	r := GuessResult(labelSeps.Replace(s))
	switch r {
	case NoMatches, ThreeFound, GroupFound:
		return r, nil
	}
	return "", ErrUnknownResult
}

// Label is the human-readable form shown next to a past guess.
func (r GuessResult) Label() string {
	switch r {
	case NoMatches:
		return "No Matches"
	case ThreeFound:
		return "Three Found"
	case GroupFound:
		return "Group Found!"
	}
	return "Unknown"
}

// GuessRecord is an immutable judged guess.
type GuessRecord struct {
	Words  [GroupSize]Word `json:"words"`
	Result GuessResult     `json:"result"`
}
