// apps/go-server/internal/store/sqlite.go
//
// SQLite-backed Store.
// Responsibilities:
//   - Persist word lists, found flags, and guess history (tables boards,
//     board_words, guesses); the selection stays in memory only.
//   - Keep live boards cached so a player's selection survives between requests.
//   - Rebuild boards from the database after a restart.
//
// Save rewrites a board's rows inside one transaction. Saves and cache fills
// for the same board are serialized, so the last commit carries the newest
// snapshot and concurrent misses share one *game.Board.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/connections/apps/go-server/internal/game"
	"github.com/robalobadob/connections/apps/go-server/internal/solver"
)

type sqliteStore struct {
	db    *sql.DB
	cache *memory
	locks sync.Map // board ID -> *sync.Mutex
}

// NewSQLiteStore returns a Store that writes through to db. The schema must
// already be migrated.
func NewSQLiteStore(db *sql.DB) Store {
	return &sqliteStore{db: db, cache: newMemory()}
}

// lock serializes work on one board and returns the unlock func.
func (s *sqliteStore) lock(id string) func() {
	m, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *sqliteStore) Save(ctx context.Context, b *game.Board) error {
	defer s.lock(b.ID())()
	st := b.Snapshot()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
        INSERT INTO boards (id, user_id, anonymous_id, daily_date, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            user_id=excluded.user_id,
            anonymous_id=excluded.anonymous_id,
            daily_date=excluded.daily_date,
            updated_at=excluded.updated_at`,
		st.ID, nullable(st.UserID), nullable(st.AnonymousID), st.DailyDate,
		st.CreatedAt.Format(time.RFC3339Nano), st.UpdatedAt.Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("upsert board %s: %w", st.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM board_words WHERE board_id=?`, st.ID); err != nil {
		return fmt.Errorf("clear words: %w", err)
	}
	found := make(map[solver.Word]struct{}, len(st.Found))
	for _, w := range st.Found {
		found[w] = struct{}{}
	}
	for i, w := range st.Words {
		_, isFound := found[w]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO board_words (board_id, pos, word, found) VALUES (?, ?, ?, ?)`,
			st.ID, i, w, isFound,
		); err != nil {
			return fmt.Errorf("insert word %q: %w", w, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM guesses WHERE board_id=?`, st.ID); err != nil {
		return fmt.Errorf("clear guesses: %w", err)
	}
	for i, g := range st.Guesses {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO guesses (board_id, seq, w1, w2, w3, w4, result) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			st.ID, i, g.Words[0], g.Words[1], g.Words[2], g.Words[3], string(g.Result),
		); err != nil {
			return fmt.Errorf("insert guess %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", st.ID, err)
	}
	return s.cache.Save(ctx, b)
}

func (s *sqliteStore) Get(ctx context.Context, id string) (*game.Board, error) {
	if b, err := s.cache.Get(ctx, id); err == nil {
		return b, nil
	}
	defer s.lock(id)()
	// Another request may have filled the cache while we waited.
	if b, err := s.cache.Get(ctx, id); err == nil {
		return b, nil
	}
	st, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	b := game.FromState(st)
	_ = s.cache.Save(ctx, b)
	log.Debug().Str("boardId", id).Msg("board loaded from db")
	return b, nil
}

func (s *sqliteStore) load(ctx context.Context, id string) (game.State, error) {
	st := game.State{
		ID:       id,
		Words:    []solver.Word{},
		Found:    []solver.Word{},
		Selected: []solver.Word{},
		Guesses:  []solver.GuessRecord{},
	}
	var userID, anonID sql.NullString
	var created, updated string
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, anonymous_id, daily_date, created_at, updated_at FROM boards WHERE id=?`, id,
	).Scan(&userID, &anonID, &st.DailyDate, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return game.State{}, ErrNotFound
	}
	if err != nil {
		return game.State{}, fmt.Errorf("load board %s: %w", id, err)
	}
	st.UserID, st.AnonymousID = userID.String, anonID.String
	st.CreatedAt = parseTime(created)
	st.UpdatedAt = parseTime(updated)

	rows, err := s.db.QueryContext(ctx,
		`SELECT word, found FROM board_words WHERE board_id=? ORDER BY pos`, id)
	if err != nil {
		return game.State{}, fmt.Errorf("load words: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var w string
		var found bool
		if err := rows.Scan(&w, &found); err != nil {
			return game.State{}, err
		}
		st.Words = append(st.Words, w)
		if found {
			st.Found = append(st.Found, w)
		}
	}
	if err := rows.Err(); err != nil {
		return game.State{}, err
	}

	grows, err := s.db.QueryContext(ctx,
		`SELECT w1, w2, w3, w4, result FROM guesses WHERE board_id=? ORDER BY seq`, id)
	if err != nil {
		return game.State{}, fmt.Errorf("load guesses: %w", err)
	}
	defer grows.Close()
	for grows.Next() {
		var g solver.GuessRecord
		var result string
		if err := grows.Scan(&g.Words[0], &g.Words[1], &g.Words[2], &g.Words[3], &result); err != nil {
			return game.State{}, err
		}
		g.Result = solver.GuessResult(result)
		st.Guesses = append(st.Guesses, g)
	}
	return st, grows.Err()
}

func (s *sqliteStore) ListByUser(ctx context.Context, userID string, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT b.id, b.daily_date, b.updated_at,
               (SELECT COUNT(1) FROM board_words w WHERE w.board_id=b.id),
               (SELECT COUNT(1) FROM board_words w WHERE w.board_id=b.id AND w.found=1),
               (SELECT COUNT(1) FROM guesses g WHERE g.board_id=b.id)
        FROM boards b
        WHERE b.user_id=?
        ORDER BY b.updated_at DESC
        LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var sm Summary
		var updated string
		if err := rows.Scan(&sm.ID, &sm.DailyDate, &updated, &sm.Words, &sm.Found, &sm.Guesses); err != nil {
			return nil, err
		}
		sm.UpdatedAt = parseTime(updated)
		sm.Solved = sm.Words > 0 && sm.Words == sm.Found
		out = append(out, sm)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Claim(ctx context.Context, anonymousID, userID string) error {
	if anonymousID == "" || userID == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE boards SET user_id=?, anonymous_id=NULL WHERE anonymous_id=?`, userID, anonymousID,
	); err != nil {
		return fmt.Errorf("claim boards: %w", err)
	}
	return s.cache.Claim(ctx, anonymousID, userID)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// parseTime parses RFC3339 timestamps; on error returns zero time.
func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
