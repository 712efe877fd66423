// apps/go-server/internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Challenge" mode.
// Exposes two endpoints under /daily:
//   - POST /daily/new         → start today's daily board (creates or reuses it)
//   - GET  /daily/leaderboard → fetch top 20 results for today (or a given date)
//
// Play happens through the regular /board/{id} routes; a solved daily board
// is recorded via recordSolve. Each player gets one result per day (enforced
// by the UNIQUE constraint plus the AlreadyPlayed check).
// The puzzle is picked deterministically from date + salt.

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/connections/apps/go-server/internal/daily"
	"github.com/robalobadob/connections/apps/go-server/internal/game"
	"github.com/robalobadob/connections/apps/go-server/internal/words"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	store    *daily.Store
	salt     string
	sessions map[string]string // board ID keyed by owner|date
	mu       sync.Mutex        // guards sessions
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	dd := &dailyServer{
		srv:      s,
		store:    daily.NewStore(s.db),
		salt:     s.cfg.DailySalt,
		sessions: make(map[string]string),
	}
	s.daily = dd
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", dd.handleNew)
		r.Get("/leaderboard", dd.handleLeaderboard)
	})
}

// puzzleFor returns the date key and catalogue entry for t.
func (d *dailyServer) puzzleFor(t time.Time) (string, words.Puzzle, bool) {
	date := daily.DateKey(t)
	all := words.Puzzles()
	if len(all) == 0 {
		return date, words.Puzzle{}, false
	}
	return date, all[daily.PuzzleIndex(t, d.salt, len(all))], true
}

// ownerKey is the identity results are recorded under.
func ownerKey(userID, anonID string) string {
	if userID != "" {
		return userID
	}
	return anonID
}

// -----------------------------------------------------------------------------
// /daily/new

// dailyNewRes is returned by /daily/new.
type dailyNewRes struct {
	Date   string     `json:"date"`
	Played bool       `json:"played"`
	Board  *game.View `json:"board,omitempty"`
}

// handleNew creates or reuses today's board for the caller.
// - If the caller already has a result for today → Played=true, no board.
// - Otherwise reuse the session board if it is still loadable, or create one.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	userID, anonID := d.srv.owner(w, r)
	uid := ownerKey(userID, anonID)
	date, puzzle, ok := d.puzzleFor(time.Now().UTC())
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no puzzles loaded")
		return
	}

	played, err := d.store.AlreadyPlayed(r.Context(), uid, date)
	if err != nil {
		log.Error().Err(err).Msg("daily lookup")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if played {
		_ = json.NewEncoder(w).Encode(dailyNewRes{Date: date, Played: true})
		return
	}

	key := uid + "|" + date
	d.mu.Lock()
	id, ok := d.sessions[key]
	d.mu.Unlock()
	if ok {
		if b, err := d.srv.store.Get(r.Context(), id); err == nil {
			v := b.View()
			_ = json.NewEncoder(w).Encode(dailyNewRes{Date: date, Board: &v})
			return
		}
	}

	b, err := game.New(puzzle.Words)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	b.SetOwner(userID, anonID)
	b.SetDaily(date)
	if err := d.srv.store.Save(r.Context(), b); err != nil {
		log.Error().Err(err).Str("boardId", b.ID()).Msg("save daily board")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	d.mu.Lock()
	d.sessions[key] = b.ID()
	d.mu.Unlock()

	log.Info().Str("date", date).Int("puzzle", puzzle.Index).Str("boardId", b.ID()).Msg("daily board created")
	v := b.View()
	writeJSON(w, http.StatusCreated, dailyNewRes{Date: date, Board: &v})
}

// recordSolve persists the result of a solved daily board.
func (d *dailyServer) recordSolve(ctx context.Context, st game.State) {
	uid := ownerKey(st.UserID, st.AnonymousID)
	if uid == "" {
		return
	}
	idx := -1
	if t, err := time.Parse("2006-01-02", st.DailyDate); err == nil {
		if n := len(words.Puzzles()); n > 0 {
			idx = daily.PuzzleIndex(t, d.salt, n)
		}
	}
	res := daily.Result{
		UserID:      uid,
		Date:        st.DailyDate,
		PuzzleIndex: idx,
		Guesses:     len(st.Guesses),
		Mistakes:    st.Mistakes(),
		ElapsedMs:   int(st.UpdatedAt.Sub(st.CreatedAt).Milliseconds()),
	}
	if err := d.store.InsertResult(ctx, res); err != nil {
		log.Warn().Err(err).Str("date", st.DailyDate).Msg("record daily result")
		return
	}
	d.mu.Lock()
	delete(d.sessions, uid+"|"+st.DailyDate)
	d.mu.Unlock()
}

// -----------------------------------------------------------------------------
// /daily/leaderboard

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(time.Now())
	}
	rows, err := d.store.Leaderboard(r.Context(), date, 20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	_ = json.NewEncoder(w).Encode(lbRes{Date: date, Top: rows})
}
