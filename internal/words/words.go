// apps/go-server/internal/words/words.go
//
// Word handling and the puzzle catalogue.
//
// Responsibilities:
//   - Normalize user-entered words (trim + lowercase) the way the board stores them.
//   - Load the puzzle catalogue from a file or fall back to the embedded default.
//   - Supply lookups: Puzzles, PuzzleAt, RandomPuzzle, Stats.
//
// Catalogue format (one puzzle per line):
//   [title:] w1, w2, ..., w16
// Blank lines and lines starting with '#' are ignored.
//
// Constraints:
//   • Every puzzle has exactly 16 distinct, non-empty words.
//   • Initialization is run once (sync.Once).

package words

import (
	"bufio"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
	"sync"

	"github.com/robalobadob/connections/apps/go-server/assets"
)

// PuzzleSize is the number of words on a full board.
const PuzzleSize = 16

var (
	ErrEmptyWord   = errors.New("empty word")
	ErrPuzzleShape = errors.New("puzzle must have 16 distinct words")
)

// Puzzle is one catalogue entry.
type Puzzle struct {
	Index int      `json:"index"`
	Title string   `json:"title,omitempty"`
	Words []string `json:"words"`
}

var (
	initOnce   sync.Once
	puzzles    []Puzzle
	initialErr error
)

// Normalize trims and lowercases w. It returns ErrEmptyWord when nothing is left.
func Normalize(w string) (string, error) {
	w = strings.ToLower(strings.TrimSpace(w))
	if w == "" {
		return "", ErrEmptyWord
	}
	return w, nil
}

// ParsePuzzle parses one catalogue line.
func ParsePuzzle(line string) (Puzzle, error) {
	var p Puzzle
	body := line
	if i := strings.Index(line, ":"); i >= 0 {
		p.Title = strings.TrimSpace(line[:i])
		body = line[i+1:]
	}
	seen := make(map[string]struct{}, PuzzleSize)
	for _, raw := range strings.Split(body, ",") {
		w, err := Normalize(raw)
		if err != nil {
			return Puzzle{}, fmt.Errorf("%w: %q", ErrPuzzleShape, line)
		}
		if _, dup := seen[w]; dup {
			return Puzzle{}, fmt.Errorf("%w: duplicate %q", ErrPuzzleShape, w)
		}
		seen[w] = struct{}{}
		p.Words = append(p.Words, w)
	}
	if len(p.Words) != PuzzleSize {
		return Puzzle{}, fmt.Errorf("%w: got %d", ErrPuzzleShape, len(p.Words))
	}
	return p, nil
}

// Init loads the catalogue exactly once. An empty path selects the embedded
// default. Returns an error if the catalogue ends up empty.
func Init(path string) error {
	initOnce.Do(func() {
		puzzles, initialErr = load(path)
	})
	return initialErr
}

func load(path string) ([]Puzzle, error) {
	var lines []string
	var err error
	if path != "" {
		lines, err = readLines(path)
	} else {
		lines, err = assets.PuzzleLines()
	}
	if err != nil {
		return nil, fmt.Errorf("read puzzles: %w", err)
	}
	return parseAll(lines)
}

func parseAll(lines []string) ([]Puzzle, error) {
	out := make([]Puzzle, 0, len(lines))
	for _, l := range lines {
		p, err := ParsePuzzle(l)
		if err != nil {
			return nil, err
		}
		p.Index = len(out)
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, errors.New("words: puzzle catalogue is empty")
	}
	return out, nil
}

// readLines loads the non-blank, non-comment lines of a file.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

// Puzzles returns the loaded catalogue.
func Puzzles() []Puzzle { return puzzles }

// PuzzleAt returns the i-th puzzle.
func PuzzleAt(i int) (Puzzle, bool) {
	if i < 0 || i >= len(puzzles) {
		return Puzzle{}, false
	}
	return puzzles[i], true
}

// RandomPuzzle returns a cryptographically random catalogue entry.
func RandomPuzzle() (Puzzle, bool) {
	if len(puzzles) == 0 {
		return Puzzle{}, false
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(puzzles))))
	if err != nil {
		return puzzles[0], true
	}
	return puzzles[n.Int64()], true
}

// Stats returns the number of loaded puzzles.
func Stats() int { return len(puzzles) }
