// apps/go-server/internal/daily/daily.go
//
// Daily puzzle selection.
// Responsibilities:
//   - DateKey: the UTC "YYYY-MM-DD" key results and boards are filed under.
//   - PuzzleIndex: a deterministic catalogue index per date, keyed by a
//     server-side salt so the schedule cannot be predicted from the catalogue.

package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// PuzzleIndex returns a deterministic catalogue index for a date using
// HMAC(salt, YYYY-MM-DD) % n.
func PuzzleIndex(date time.Time, salt string, n int) int {
	if n <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	// take first 8 bytes to uint64 for modulus distribution
	v := binary.BigEndian.Uint64(sum[:8])
	return int(v % uint64(n))
}
