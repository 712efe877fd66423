// apps/go-server/internal/game/types.go
//
// Core type definitions for a player's board.
// Defines:
//   - State: the caller-owned board state the engine reads (words, found
//     words, selection, guess history) plus ownership metadata.
//   - View: a State together with the derived invalid set.

package game

import (
	"errors"
	"time"

	"github.com/robalobadob/connections/apps/go-server/internal/solver"
)

var (
	ErrDuplicateWord    = errors.New("word already on board")
	ErrUnknownWord      = errors.New("word not on board")
	ErrWordFound        = errors.New("word already in a found group")
	ErrSelectionFull    = errors.New("selection already has four words")
	ErrIncompatible     = errors.New("word cannot join the current selection")
	ErrNeedFourSelected = errors.New("a guess needs exactly four selected words")
	ErrDailyLocked      = errors.New("daily boards cannot be edited")
)

// State holds everything persisted about a board. Selected is transient and
// is never written to the database.
type State struct {
	ID          string               `json:"id"`
	UserID      string               `json:"-"`
	AnonymousID string               `json:"-"`
	DailyDate   string               `json:"dailyDate,omitempty"` // "YYYY-MM-DD" for daily boards
	Words       []solver.Word        `json:"words"`
	Found       []solver.Word        `json:"found"`
	Selected    []solver.Word        `json:"selected"`
	Guesses     []solver.GuessRecord `json:"guesses"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

// GuessView is a past guess as rendered to clients.
type GuessView struct {
	Words  [solver.GroupSize]solver.Word `json:"words"`
	Result solver.GuessResult            `json:"result"`
	Label  string                        `json:"label"`
}

// View is the client-facing board: state plus what the engine derived from it.
type View struct {
	ID        string        `json:"id"`
	DailyDate string        `json:"dailyDate,omitempty"`
	Words     []solver.Word `json:"words"`
	Found     []solver.Word `json:"found"`
	Selected  []solver.Word `json:"selected"`
	Invalid   []solver.Word `json:"invalid"`
	Guesses   []GuessView   `json:"guesses"`
	Ready     bool          `json:"ready"`  // unresolved count divisible by four
	Solved    bool          `json:"solved"` // every word found
	Mistakes  int           `json:"mistakes"`
}
