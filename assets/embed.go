// apps/go-server/assets/embed.go
//
// Embedded data shipped with the binary:
//   - puzzles.txt: the default puzzle catalogue (one board of 16 words per line).
//   - sql/*.sql:   schema migrations, applied in lexical order.

package assets

import (
	"bufio"
	"embed"
	"io/fs"
	"strings"
)

//go:embed puzzles.txt sql/*.sql
var FS embed.FS

// readLines returns the trimmed, non-empty, non-comment lines of an embedded file.
func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
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

// PuzzleLines returns the raw catalogue lines.
func PuzzleLines() ([]string, error) {
	return readLines("puzzles.txt")
}

// Migrations exposes the sql directory as its own file system root.
func Migrations() fs.FS {
	sub, err := fs.Sub(FS, "sql")
	if err != nil {
		// Only fails for an invalid path, which "sql" is not.
		panic(err)
	}
	return sub
}
