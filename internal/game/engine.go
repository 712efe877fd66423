// apps/go-server/internal/game/engine.go
//
// Board state machine for a single puzzle session.
// Responsibilities:
//   - Manage the word list (add, remove, clear) with normalized, unique words.
//   - Toggle the player's selection (at most four words, never an invalid one).
//   - Record judged guesses; a GroupFound guess moves its words to Found.
//   - Derive the invalid-candidate set from an immutable snapshot.
//
// Notes:
//   - All mutation happens under the board mutex, and every engine call runs
//     over a deep copy, so searches never observe a half-applied change.
//   - randomID() is a compact hex identifier for correlating server state.
package game

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/robalobadob/connections/apps/go-server/internal/solver"
	"github.com/robalobadob/connections/apps/go-server/internal/words"
)

// Board is a mutable, concurrency-safe board.
type Board struct {
	mu sync.Mutex
	st State
}

// New constructs a board with the given words. Words are normalized; empty
// and duplicate entries are rejected.
func New(initial []string) (*Board, error) {
	now := time.Now().UTC()
	b := &Board{st: State{
		ID:        randomID(),
		Words:     []solver.Word{},
		Found:     []solver.Word{},
		Selected:  []solver.Word{},
		Guesses:   []solver.GuessRecord{},
		CreatedAt: now,
		UpdatedAt: now,
	}}
	for _, w := range initial {
		if err := b.addWord(w); err != nil {
			return nil, fmt.Errorf("word %q: %w", w, err)
		}
	}
	return b, nil
}

// FromState rebuilds a board from a stored state.
func FromState(st State) *Board {
	return &Board{st: st.clone()}
}

// ID returns the board identifier.
func (b *Board) ID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.st.ID
}

// SetOwner records who the board belongs to.
func (b *Board) SetOwner(userID, anonymousID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.st.UserID, b.st.AnonymousID = userID, anonymousID
}

// SetDaily marks the board as the daily puzzle for date.
func (b *Board) SetDaily(date string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.st.DailyDate = date
}

// Snapshot returns a deep copy of the current state.
func (b *Board) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.st.clone()
}

// View returns the client-facing board with the invalid set computed.
func (b *Board) View() View {
	return b.Snapshot().View()
}

// AddWord appends a normalized word to the board.
func (b *Board) AddWord(w string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.st.DailyDate != "" {
		return ErrDailyLocked
	}
	if err := b.addWord(w); err != nil {
		return err
	}
	b.touch()
	return nil
}

func (b *Board) addWord(raw string) error {
	w, err := words.Normalize(raw)
	if err != nil {
		return err
	}
	if slices.Contains(b.st.Words, w) {
		return ErrDuplicateWord
	}
	b.st.Words = append(b.st.Words, w)
	return nil
}

// RemoveWord deletes a word that is not part of a found group. It also
// leaves the selection if it was selected.
func (b *Board) RemoveWord(raw string) error {
	w, err := words.Normalize(raw)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.st.DailyDate != "" {
		return ErrDailyLocked
	}
	if !slices.Contains(b.st.Words, w) {
		return ErrUnknownWord
	}
	if slices.Contains(b.st.Found, w) {
		return ErrWordFound
	}
	b.st.Words = remove(b.st.Words, w)
	b.st.Selected = remove(b.st.Selected, w)
	b.touch()
	return nil
}

// Toggle selects or deselects w. Deselecting always succeeds. Selecting
// requires room in the selection and a word the engine has not ruled out.
// It returns whether w is selected afterwards.
func (b *Board) Toggle(raw string) (bool, error) {
	w, err := words.Normalize(raw)
	if err != nil {
		return false, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !slices.Contains(b.st.Words, w) {
		return false, ErrUnknownWord
	}
	if slices.Contains(b.st.Found, w) {
		return false, ErrWordFound
	}
	if slices.Contains(b.st.Selected, w) {
		b.st.Selected = remove(b.st.Selected, w)
		return false, nil
	}
	if len(b.st.Selected) >= solver.GroupSize {
		return false, ErrSelectionFull
	}
	// The search runs while the lock is held so no mutation can interleave.
	if _, bad := b.st.invalidSet()[w]; bad {
		return false, ErrIncompatible
	}
	b.st.Selected = append(b.st.Selected, w)
	return true, nil
}

// ApplyGuess records the feedback for the four selected words.
//
// State transitions:
//   - The guess is appended to the history.
//   - On GroupFound its words become found and leave the unresolved set.
//   - The selection is cleared.
func (b *Board) ApplyGuess(result solver.GuessResult) (solver.GuessRecord, error) {
	switch result {
	case solver.NoMatches, solver.ThreeFound, solver.GroupFound:
	default:
		return solver.GuessRecord{}, solver.ErrUnknownResult
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.st.Selected) != solver.GroupSize {
		return solver.GuessRecord{}, ErrNeedFourSelected
	}
	var rec solver.GuessRecord
	copy(rec.Words[:], b.st.Selected)
	rec.Result = result

	b.st.Guesses = append(b.st.Guesses, rec)
	if result == solver.GroupFound {
		b.st.Found = append(b.st.Found, rec.Words[:]...)
	}
	b.st.Selected = []solver.Word{}
	b.touch()
	return rec, nil
}

// ClearWords empties the word list, found words, and selection. The guess
// history is kept.
func (b *Board) ClearWords() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.st.DailyDate != "" {
		return ErrDailyLocked
	}
	b.st.Words = []solver.Word{}
	b.st.Found = []solver.Word{}
	b.st.Selected = []solver.Word{}
	b.touch()
	return nil
}

// ClearGuesses forgets the guess history and the groups it found, keeping
// the word list. Daily boards keep their history so mistakes stay counted.
func (b *Board) ClearGuesses() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.st.DailyDate != "" {
		return ErrDailyLocked
	}
	b.st.Guesses = []solver.GuessRecord{}
	b.st.Found = []solver.Word{}
	b.st.Selected = []solver.Word{}
	b.touch()
	return nil
}

func (b *Board) touch() { b.st.UpdatedAt = time.Now().UTC() }

// Unresolved returns the words not yet in a found group, in board order.
func (s State) Unresolved() []solver.Word {
	out := make([]solver.Word, 0, len(s.Words))
	for _, w := range s.Words {
		if !slices.Contains(s.Found, w) {
			out = append(out, w)
		}
	}
	return out
}

// Ready reports whether the unresolved words split into groups of four.
// The engine is only consulted on ready boards.
func (s State) Ready() bool {
	return len(s.Unresolved())%solver.GroupSize == 0
}

// Solved reports whether every word on a non-empty board has been found.
func (s State) Solved() bool {
	return len(s.Words) > 0 && len(s.Unresolved()) == 0
}

// Mistakes counts guesses that did not find a group.
func (s State) Mistakes() int {
	n := 0
	for _, g := range s.Guesses {
		if g.Result != solver.GroupFound {
			n++
		}
	}
	return n
}

// Analyze runs the engine over the state. Boards that are not ready, and
// empty selections, yield an empty result.
func (s State) Analyze() solver.Analysis {
	if len(s.Selected) == 0 || !s.Ready() {
		return solver.Analysis{Invalid: []solver.Word{}}
	}
	return solver.Analyze(s.Selected, s.Unresolved(), s.Guesses)
}

func (s State) invalidSet() map[solver.Word]struct{} {
	inv := s.Analyze().Invalid
	out := make(map[solver.Word]struct{}, len(inv))
	for _, w := range inv {
		out[w] = struct{}{}
	}
	return out
}

// View derives the client-facing board.
func (s State) View() View {
	v, _ := s.Render()
	return v
}

// Render derives the client-facing board and also returns the engine run
// behind its invalid set.
func (s State) Render() (View, solver.Analysis) {
	a := s.Analyze()
	guesses := make([]GuessView, 0, len(s.Guesses))
	for _, g := range s.Guesses {
		guesses = append(guesses, GuessView{Words: g.Words, Result: g.Result, Label: g.Result.Label()})
	}
	return View{
		ID:        s.ID,
		DailyDate: s.DailyDate,
		Words:     s.Words,
		Found:     s.Found,
		Selected:  s.Selected,
		Invalid:   a.Invalid,
		Guesses:   guesses,
		Ready:     s.Ready(),
		Solved:    s.Solved(),
		Mistakes:  s.Mistakes(),
	}, a
}

func (s State) clone() State {
	out := s
	out.Words = append([]solver.Word{}, s.Words...)
	out.Found = append([]solver.Word{}, s.Found...)
	out.Selected = append([]solver.Word{}, s.Selected...)
	out.Guesses = append([]solver.GuessRecord{}, s.Guesses...)
	return out
}

// remove returns list without w, preserving order.
func remove(list []solver.Word, w solver.Word) []solver.Word {
	out := make([]solver.Word, 0, len(list))
	for _, x := range list {
		if x != w {
			out = append(out, x)
		}
	}
	return out
}

// randomID returns a compact 16‑hex‑char identifier.
// Collisions are extremely unlikely given crypto/rand entropy.
func randomID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
