// apps/go-server/internal/daily/store.go
//
// Daily results persistence (table daily_results).
// Responsibilities:
//   - One result per player per date (UNIQUE constraint, INSERT OR IGNORE).
//   - Leaderboard ordered by mistakes, guesses, then elapsed time.

package daily

import (
	"context"
	"database/sql"
)

// Result is one player's solved daily board.
type Result struct {
	UserID      string `json:"userId"`
	Date        string `json:"date"`
	PuzzleIndex int    `json:"puzzleIndex"`
	Guesses     int    `json:"guesses"`
	Mistakes    int    `json:"mistakes"`
	ElapsedMs   int    `json:"elapsedMs"`
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// AlreadyPlayed reports whether userID has a recorded result for date.
func (s *Store) AlreadyPlayed(ctx context.Context, userID, date string) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM daily_results WHERE user_id=? AND date=?`,
		userID, date,
	).Scan(&cnt)
	return cnt > 0, err
}

// InsertResult records r. A second result for the same user and date is ignored.
func (s *Store) InsertResult(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT OR IGNORE INTO daily_results (user_id, date, puzzle_idx, guesses, mistakes, elapsed_ms)
        VALUES (?, ?, ?, ?, ?, ?)`,
		r.UserID, r.Date, r.PuzzleIndex, r.Guesses, r.Mistakes, r.ElapsedMs,
	)
	return err
}

// LBRow is one leaderboard entry.
type LBRow struct {
	UserID    string `json:"userId"`
	Mistakes  int    `json:"mistakes"`
	Guesses   int    `json:"guesses"`
	ElapsedMs int    `json:"elapsedMs"`
}

// Leaderboard returns the best results for date: fewest mistakes, then
// fewest guesses, then fastest, then earliest.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT user_id, mistakes, guesses, elapsed_ms
        FROM daily_results
        WHERE date=?
        ORDER BY mistakes ASC, guesses ASC, elapsed_ms ASC, created_at ASC
        LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]LBRow, 0, limit)
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.UserID, &r.Mistakes, &r.Guesses, &r.ElapsedMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
