// apps/go-server/internal/httpserver/server.go
//
// HTTP server wiring for the grouping-puzzle helper.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/debug/puzzles".
//   - Board endpoints (optional auth): /board/new, /board/{id}/...
//   - Stateless engine endpoint: POST /analyze.
//   - Daily puzzle endpoints (optional auth): mounted under /daily.
//   - Auth + profile endpoints: /auth/*, /stats/me, /boards/mine (auth.go).
//
// Notes:
//   - Every board response carries the engine's invalid set for the current
//     selection, recomputed from a snapshot after each change.
//   - Persistence is best effort from the player's point of view: a failed
//     save is reported, the in-memory board keeps the change.

package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/connections/apps/go-server/internal/config"
	"github.com/robalobadob/connections/apps/go-server/internal/game"
	"github.com/robalobadob/connections/apps/go-server/internal/solver"
	"github.com/robalobadob/connections/apps/go-server/internal/store"
	"github.com/robalobadob/connections/apps/go-server/internal/words"
)

// Server bundles router, board store, and DB handle.
type Server struct {
	r     *chi.Mux
	cfg   config.Config
	store store.Store
	db    *sql.DB
	daily *dailyServer
}

// New constructs a Server, installs middleware, and registers routes.
// db must be migrated; it backs users and daily results.
func New(cfg config.Config, st store.Store, db *sql.DB) *Server {
	s := &Server{r: chi.NewRouter(), cfg: cfg, store: st, db: db}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                   // add X-Request-ID
	s.r.Use(chimw.RealIP)                      // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                   // recover from panics
	s.r.Use(chimw.Timeout(cfg.RequestTimeout)) // bound handler time
	s.r.Use(jsonContentType)                   // default JSON responses
	s.r.Use(corsFor(cfg.ClientOrigin))         // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"connections-go","endpoints":["/health","POST /board/new","POST /analyze","/daily/*","/auth/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/debug/puzzles", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]int{"puzzles": words.Stats()})
	})

	// Stateless engine access
	s.r.Post("/analyze", s.handleAnalyze)

	// Boards: OPTIONAL AUTH (guests can play)
	s.r.Group(func(r chi.Router) {
		r.Use(s.withOptionalAuth())
		r.Post("/board/new", s.handleNewBoard)
		r.Route("/board/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetBoard)
			r.Post("/words", s.handleAddWord)
			r.Delete("/words", s.handleClearWords)
			r.Delete("/words/{word}", s.handleRemoveWord)
			r.Delete("/guesses", s.handleClearGuesses)
			r.Post("/select", s.handleSelect)
			r.Post("/guess", s.handleGuess)
		})
	})

	// Daily puzzle: OPTIONAL AUTH (guests can play; results persisted on solve)
	s.mountDaily(s.r.With(s.withOptionalAuth()))

	// Auth + profile/stats (require auth)
	s.mountAuthRoutes()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFor enables credentialed CORS for a single origin.
func corsFor(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ------------------------------ helpers ------------------------------------

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, game.ErrUnknownWord):
		return http.StatusNotFound
	case errors.Is(err, game.ErrDuplicateWord),
		errors.Is(err, game.ErrSelectionFull),
		errors.Is(err, game.ErrIncompatible),
		errors.Is(err, game.ErrWordFound),
		errors.Is(err, game.ErrDailyLocked):
		return http.StatusConflict
	case errors.Is(err, words.ErrEmptyWord),
		errors.Is(err, words.ErrPuzzleShape),
		errors.Is(err, solver.ErrUnknownResult),
		errors.Is(err, game.ErrNeedFourSelected):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeDomainError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
		writeError(w, code, "server_error")
		return
	}
	writeError(w, code, err.Error())
}

// ------------------------------ BOARDS -------------------------------------

// newBoardReq is the payload for POST /board/new. With no fields set the
// board starts empty; Puzzle selects a catalogue entry; Random picks one.
type newBoardReq struct {
	Words  []string `json:"words"`
	Puzzle *int     `json:"puzzle"`
	Random bool     `json:"random"`
}

// handleNewBoard creates a board owned by the current user or anonymous cookie.
func (s *Server) handleNewBoard(w http.ResponseWriter, r *http.Request) {
	var req newBoardReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}

	initial := req.Words
	switch {
	case req.Puzzle != nil:
		p, ok := words.PuzzleAt(*req.Puzzle)
		if !ok {
			writeError(w, http.StatusNotFound, "unknown puzzle")
			return
		}
		initial = p.Words
	case req.Random:
		p, ok := words.RandomPuzzle()
		if !ok {
			writeError(w, http.StatusNotFound, "no puzzles loaded")
			return
		}
		initial = p.Words
	}

	b, err := game.New(initial)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	userID, anonID := s.owner(w, r)
	b.SetOwner(userID, anonID)
	if err := s.store.Save(r.Context(), b); err != nil {
		log.Error().Err(err).Str("boardId", b.ID()).Msg("save board")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	log.Info().Str("boardId", b.ID()).Int("words", len(initial)).Msg("board created")
	s.respondBoard(w, r, http.StatusCreated, b)
}

// loadBoard fetches the board named in the URL. Boards belonging to someone
// else are reported as missing.
func (s *Server) loadBoard(w http.ResponseWriter, r *http.Request) (*game.Board, bool) {
	b, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	if !s.ownsBoard(r, b.Snapshot()) {
		log.Debug().Str("boardId", b.ID()).Msg("board owner mismatch")
		writeDomainError(w, store.ErrNotFound)
		return nil, false
	}
	return b, true
}

// respondBoard renders the board with its invalid set.
func (s *Server) respondBoard(w http.ResponseWriter, r *http.Request, code int, b *game.Board) {
	v, a := b.Snapshot().Render()
	if len(v.Selected) > 0 {
		log.Debug().
			Str("boardId", v.ID).
			Int("selected", len(v.Selected)).
			Int("invalid", len(a.Invalid)).
			Int("nodes", a.Nodes).
			Dur("dur", a.Duration).
			Msg("invalid candidates")
	}
	writeJSON(w, code, v)
}

// persist saves b after a mutation; failure is logged and reported.
func (s *Server) persist(w http.ResponseWriter, r *http.Request, b *game.Board) bool {
	if err := s.store.Save(r.Context(), b); err != nil {
		log.Warn().Err(err).Str("boardId", b.ID()).Msg("save board")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return false
	}
	return true
}

func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBoard(w, r)
	if !ok {
		return
	}
	s.respondBoard(w, r, http.StatusOK, b)
}

type wordReq struct {
	Word string `json:"word"`
}

func (s *Server) handleAddWord(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBoard(w, r)
	if !ok {
		return
	}
	var req wordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	if err := b.AddWord(req.Word); err != nil {
		writeDomainError(w, err)
		return
	}
	if s.persist(w, r, b) {
		s.respondBoard(w, r, http.StatusOK, b)
	}
}

func (s *Server) handleRemoveWord(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBoard(w, r)
	if !ok {
		return
	}
	if err := b.RemoveWord(chi.URLParam(r, "word")); err != nil {
		writeDomainError(w, err)
		return
	}
	if s.persist(w, r, b) {
		s.respondBoard(w, r, http.StatusOK, b)
	}
}

func (s *Server) handleClearWords(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBoard(w, r)
	if !ok {
		return
	}
	if err := b.ClearWords(); err != nil {
		writeDomainError(w, err)
		return
	}
	if s.persist(w, r, b) {
		s.respondBoard(w, r, http.StatusOK, b)
	}
}

func (s *Server) handleClearGuesses(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBoard(w, r)
	if !ok {
		return
	}
	if err := b.ClearGuesses(); err != nil {
		writeDomainError(w, err)
		return
	}
	if s.persist(w, r, b) {
		s.respondBoard(w, r, http.StatusOK, b)
	}
}

// handleSelect toggles one word in the selection. The selection is not
// persisted, so no save happens here.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBoard(w, r)
	if !ok {
		return
	}
	var req wordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	if _, err := b.Toggle(req.Word); err != nil {
		writeDomainError(w, err)
		return
	}
	s.respondBoard(w, r, http.StatusOK, b)
}

type guessReq struct {
	Result string `json:"result"`
}

// handleGuess records the judged outcome for the four selected words, then
// persists the board and, for solved boards, the owner's stats.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBoard(w, r)
	if !ok {
		return
	}
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	result, err := solver.ParseGuessResult(req.Result)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	rec, err := b.ApplyGuess(result)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !s.persist(w, r, b) {
		return
	}

	st := b.Snapshot()
	log.Info().Str("boardId", st.ID).Str("result", string(rec.Result)).Int("guesses", len(st.Guesses)).Msg("guess recorded")
	if rec.Result == solver.GroupFound && st.Solved() {
		s.onSolved(r, st)
	}
	s.respondBoard(w, r, http.StatusOK, b)
}

// onSolved updates per-user stats and daily results for a freshly solved board.
func (s *Server) onSolved(r *http.Request, st game.State) {
	if st.UserID != "" {
		if err := s.bumpSolved(r.Context(), st.UserID); err != nil {
			log.Warn().Err(err).Str("user", st.UserID).Msg("bump stats")
		}
	}
	if st.DailyDate != "" {
		s.daily.recordSolve(r.Context(), st)
	}
}

// ------------------------------ ANALYZE ------------------------------------

// analyzeReq carries a full board snapshot for a one-off engine call.
type analyzeReq struct {
	Unresolved []string       `json:"unresolved"`
	Selected   []string       `json:"selected"`
	Guesses    []analyzeGuess `json:"guesses"`
}

// analyzeGuess is decoded loosely so a wrong word count is reported, not truncated.
type analyzeGuess struct {
	Words  []string `json:"words"`
	Result string   `json:"result"`
}

type analyzeRes struct {
	Invalid []solver.Word `json:"invalid"`
	Checked int           `json:"checked"`
	Nodes   int           `json:"nodes"`
	Micros  int64         `json:"micros"`
}

// handleAnalyze runs the engine over a caller-supplied board. The board must
// be well formed: unresolved count divisible by four, at most four selected
// words, all of them unresolved.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	unresolved, err := normalizeAll(req.Unresolved)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	selected, err := normalizeAll(req.Selected)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if len(unresolved)%solver.GroupSize != 0 {
		writeError(w, http.StatusBadRequest, "unresolved word count must be a multiple of 4")
		return
	}
	if len(selected) > solver.GroupSize {
		writeError(w, http.StatusBadRequest, game.ErrSelectionFull.Error())
		return
	}
	set := make(map[string]struct{}, len(unresolved))
	for _, u := range unresolved {
		if _, dup := set[u]; dup {
			writeError(w, http.StatusBadRequest, "duplicate word "+u)
			return
		}
		set[u] = struct{}{}
	}
	for _, sw := range selected {
		if _, ok := set[sw]; !ok {
			writeError(w, http.StatusBadRequest, "selected word not unresolved: "+sw)
			return
		}
	}
	history := make([]solver.GuessRecord, 0, len(req.Guesses))
	for _, g := range req.Guesses {
		if len(g.Words) != solver.GroupSize {
			writeError(w, http.StatusBadRequest, "each guess needs exactly 4 words")
			return
		}
		res, err := solver.ParseGuessResult(g.Result)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		gw, err := normalizeAll(g.Words)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		rec := solver.GuessRecord{Result: res}
		copy(rec.Words[:], gw)
		history = append(history, rec)
	}

	start := time.Now()
	a := solver.Analyze(selected, unresolved, history)
	writeJSON(w, http.StatusOK, analyzeRes{
		Invalid: a.Invalid,
		Checked: a.Checked,
		Nodes:   a.Nodes,
		Micros:  time.Since(start).Microseconds(),
	})
}

func normalizeAll(in []string) ([]solver.Word, error) {
	out := make([]solver.Word, 0, len(in))
	for _, raw := range in {
		w, err := words.Normalize(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}
