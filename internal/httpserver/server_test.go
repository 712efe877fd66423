package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/connections/apps/go-server/assets"
	"github.com/robalobadob/connections/apps/go-server/internal/config"
	"github.com/robalobadob/connections/apps/go-server/internal/daily"
	"github.com/robalobadob/connections/apps/go-server/internal/game"
	"github.com/robalobadob/connections/apps/go-server/internal/solver"
	"github.com/robalobadob/connections/apps/go-server/internal/store"
	"github.com/robalobadob/connections/apps/go-server/internal/words"
)

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func newTestClient(t *testing.T) *client {
	t.Helper()
	require.NoError(t, words.Init(""))

	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db, assets.Migrations()))

	cfg := config.Config{
		JWTSecret:      "test_secret",
		JWTExpiresDays: 1,
		CookieName:     "connections_token",
		ClientOrigin:   "http://localhost:5173",
		DailySalt:      "test_salt",
		RequestTimeout: 5 * time.Second,
	}
	ts := httptest.NewServer(New(cfg, store.NewSQLiteStore(db), db).Router())
	t.Cleanup(ts.Close)

	return newClient(t, ts.URL)
}

func newClient(t *testing.T, base string) *client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: base, http: &http.Client{Jar: jar}}
}

// stranger is a second caller on the same server with its own cookies.
func (c *client) stranger() *client {
	return newClient(c.t, c.base)
}

// do sends body as JSON and decodes the response into out when non-nil.
func (c *client) do(method, path string, body, out any) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	res, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer res.Body.Close()
	if out != nil {
		require.NoError(c.t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func (c *client) newBoard(ws ...string) game.View {
	c.t.Helper()
	var v game.View
	require.Equal(c.t, http.StatusCreated, c.do(http.MethodPost, "/board/new", map[string]any{"words": ws}, &v))
	return v
}

func (c *client) selectWords(id string, ws ...string) game.View {
	c.t.Helper()
	var v game.View
	for _, w := range ws {
		require.Equal(c.t, http.StatusOK, c.do(http.MethodPost, "/board/"+id+"/select", wordReq{Word: w}, &v), w)
	}
	return v
}

func (c *client) guess(id, result string) game.View {
	c.t.Helper()
	var v game.View
	require.Equal(c.t, http.StatusOK, c.do(http.MethodPost, "/board/"+id+"/guess", guessReq{Result: result}, &v))
	return v
}

var eight = []string{"a", "b", "c", "d", "e", "f", "g", "h"}

func TestHealth(t *testing.T) {
	c := newTestClient(t)
	var body map[string]bool
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/health", nil, &body))
	assert.True(t, body["ok"])

	var nf map[string]string
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/nope", nil, &nf))
	assert.Equal(t, "/nope", nf["path"])
}

func TestBoard_PlayToSolved(t *testing.T) {
	c := newTestClient(t)
	v := c.newBoard(eight...)
	assert.Equal(t, solver.Word("a"), v.Words[0])
	assert.True(t, v.Ready)

	v = c.selectWords(v.ID, "a", "b", "c", "d")
	assert.Len(t, v.Selected, 4)
	v = c.guess(v.ID, "group_found")
	assert.ElementsMatch(t, []solver.Word{"a", "b", "c", "d"}, v.Found)
	assert.Empty(t, v.Selected)
	assert.False(t, v.Solved)

	var errBody map[string]string
	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, "/board/"+v.ID+"/select", wordReq{Word: "a"}, &errBody))

	c.selectWords(v.ID, "e", "f", "g", "h")
	v = c.guess(v.ID, "Group Found")
	assert.True(t, v.Solved)
	assert.Equal(t, 0, v.Mistakes)
	require.Len(t, v.Guesses, 2)
	assert.Equal(t, "Group Found!", v.Guesses[1].Label)

	var got game.View
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/board/"+v.ID+"/", nil, &got))
	assert.Equal(t, v.Found, got.Found)
}

func TestBoard_InvalidCandidatesBlockSelection(t *testing.T) {
	c := newTestClient(t)
	v := c.newBoard(eight...)
	c.selectWords(v.ID, "a", "b", "e", "f")
	v = c.guess(v.ID, "no_matches")
	assert.Equal(t, 1, v.Mistakes)

	v = c.selectWords(v.ID, "a", "b")
	assert.ElementsMatch(t, []solver.Word{"e", "f"}, v.Invalid)

	var errBody map[string]string
	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, "/board/"+v.ID+"/select", wordReq{Word: "e"}, &errBody))
	assert.Equal(t, game.ErrIncompatible.Error(), errBody["error"])

	// Deselecting is always allowed.
	v = c.selectWords(v.ID, "b")
	assert.Equal(t, []solver.Word{"a"}, v.Selected)
}

func TestBoard_EditWords(t *testing.T) {
	c := newTestClient(t)
	v := c.newBoard()
	assert.Empty(t, v.Words)

	var errBody map[string]string
	assert.Equal(t, http.StatusOK, c.do(http.MethodPost, "/board/"+v.ID+"/words", wordReq{Word: " Bass "}, &v))
	assert.Equal(t, []solver.Word{"bass"}, v.Words)
	assert.False(t, v.Ready)
	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, "/board/"+v.ID+"/words", wordReq{Word: "bass"}, &errBody))
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/board/"+v.ID+"/words", wordReq{Word: "  "}, &errBody))

	assert.Equal(t, http.StatusOK, c.do(http.MethodDelete, "/board/"+v.ID+"/words/bass", nil, &v))
	assert.Empty(t, v.Words)
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodDelete, "/board/"+v.ID+"/words/bass", nil, &errBody))

	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/board/missing/", nil, &errBody))
}

func TestBoard_ClearGuesses(t *testing.T) {
	c := newTestClient(t)
	v := c.newBoard(eight...)
	c.selectWords(v.ID, "a", "b", "c", "d")
	c.guess(v.ID, "group_found")

	assert.Equal(t, http.StatusOK, c.do(http.MethodDelete, "/board/"+v.ID+"/guesses", nil, &v))
	assert.Empty(t, v.Guesses)
	assert.Empty(t, v.Found)
	assert.Len(t, v.Words, 8)

	assert.Equal(t, http.StatusOK, c.do(http.MethodDelete, "/board/"+v.ID+"/words", nil, &v))
	assert.Empty(t, v.Words)
}

func TestBoard_FromCatalogue(t *testing.T) {
	c := newTestClient(t)
	var v game.View
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/board/new", map[string]any{"puzzle": 0}, &v))
	assert.Len(t, v.Words, words.PuzzleSize)
	assert.Equal(t, solver.Word("bass"), v.Words[0])

	var errBody map[string]string
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodPost, "/board/new", map[string]any{"puzzle": 999}, &errBody))
	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, "/board/new", map[string]any{"words": []string{"x", "x"}}, &errBody))
}

func TestGuess_NeedsFourSelected(t *testing.T) {
	c := newTestClient(t)
	v := c.newBoard(eight...)
	c.selectWords(v.ID, "a")

	var errBody map[string]string
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/board/"+v.ID+"/guess", guessReq{Result: "no_matches"}, &errBody))
	c.selectWords(v.ID, "b", "c", "d")
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/board/"+v.ID+"/guess", guessReq{Result: "maybe"}, &errBody))
}

func TestAnalyze(t *testing.T) {
	c := newTestClient(t)

	req := analyzeReq{
		Unresolved: eight,
		Selected:   []string{"A", "b"},
		Guesses: []analyzeGuess{
			{Words: []string{"a", "b", "e", "f"}, Result: "No Matches"},
		},
	}
	var res analyzeRes
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/analyze", req, &res))
	assert.ElementsMatch(t, []solver.Word{"e", "f"}, res.Invalid)
	assert.Equal(t, 6, res.Checked)

	var errBody map[string]string
	bad := analyzeReq{Unresolved: eight[:7]}
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/analyze", bad, &errBody))
	bad = analyzeReq{Unresolved: eight, Selected: []string{"z"}}
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/analyze", bad, &errBody))

	// A guess is exactly four words; extras are not silently dropped.
	for _, ws := range [][]string{{"a", "b", "e", "f", "g"}, {"a", "b", "e"}} {
		bad = analyzeReq{
			Unresolved: eight,
			Selected:   []string{"a"},
			Guesses:    []analyzeGuess{{Words: ws, Result: "no_matches"}},
		}
		assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/analyze", bad, &errBody), ws)
	}
}

func TestBoard_OnlyOwnerCanUseIt(t *testing.T) {
	c := newTestClient(t)
	v := c.newBoard(eight...)
	c.selectWords(v.ID, "a", "b", "c", "d")
	c.guess(v.ID, "group_found")
	c.selectWords(v.ID, "e")

	other := c.stranger()
	var errBody map[string]string
	for _, tc := range []struct {
		method, path string
		body         any
	}{
		{http.MethodGet, "/board/" + v.ID + "/", nil},
		{http.MethodPost, "/board/" + v.ID + "/words", wordReq{Word: "z"}},
		{http.MethodDelete, "/board/" + v.ID + "/words/e", nil},
		{http.MethodDelete, "/board/" + v.ID + "/words", nil},
		{http.MethodDelete, "/board/" + v.ID + "/guesses", nil},
		{http.MethodPost, "/board/" + v.ID + "/select", wordReq{Word: "e"}},
		{http.MethodPost, "/board/" + v.ID + "/guess", guessReq{Result: "no_matches"}},
	} {
		assert.Equal(t, http.StatusNotFound, other.do(tc.method, tc.path, tc.body, &errBody), tc.method+" "+tc.path)
	}

	// A signed-in stranger is refused as well.
	var u map[string]any
	require.Equal(t, http.StatusCreated, other.do(http.MethodPost, "/auth/signup",
		credentialsReq{Username: "mallory", Password: "password123"}, &u))
	assert.Equal(t, http.StatusNotFound, other.do(http.MethodDelete, "/board/"+v.ID+"/guesses", nil, &errBody))

	var got game.View
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/board/"+v.ID+"/", nil, &got))
	assert.Len(t, got.Words, 8)
	assert.Len(t, got.Guesses, 1)
	assert.Len(t, got.Found, 4)
	assert.Equal(t, []solver.Word{"e"}, got.Selected)
}

func TestAuth_SignupClaimsGuestBoards(t *testing.T) {
	c := newTestClient(t)
	v := c.newBoard(eight...)

	var errBody map[string]string
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/auth/me", nil, &errBody))

	creds := credentialsReq{Username: "alice", Password: "correct horse"}
	var u map[string]any
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/auth/signup", creds, &u))
	assert.Equal(t, "alice", u["username"])
	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, "/auth/signup", creds, &errBody))

	var me authUser
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/auth/me", nil, &me))
	assert.Equal(t, "alice", me.Username)

	var mine []store.Summary
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/boards/mine", nil, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, v.ID, mine[0].ID)

	c.selectWords(v.ID, "a", "b", "c", "d")
	c.guess(v.ID, "group_found")
	c.selectWords(v.ID, "e", "f", "g", "h")
	c.guess(v.ID, "group_found")

	var stats map[string]any
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/stats/me", nil, &stats))
	assert.EqualValues(t, 1, stats["boardsSolved"])

	var ok map[string]bool
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/auth/logout", nil, &ok))
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/auth/me", nil, &errBody))

	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodPost, "/auth/login",
		credentialsReq{Username: "alice", Password: "wrong password"}, &errBody))
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/auth/login", creds, &u))
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/auth/me", nil, &me))
}

func TestValidateSignup(t *testing.T) {
	assert.NoError(t, validateSignup("bob_42", "password1"))
	assert.Error(t, validateSignup("bo", "password1"))
	assert.Error(t, validateSignup("bob!", "password1"))
	assert.Error(t, validateSignup("bob", "short"))
}

func TestDaily_PlayOncePerDay(t *testing.T) {
	c := newTestClient(t)

	var first dailyNewRes
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/daily/new", nil, &first))
	require.NotNil(t, first.Board)
	assert.Equal(t, daily.DateKey(time.Now()), first.Date)
	assert.Equal(t, first.Date, first.Board.DailyDate)
	require.Len(t, first.Board.Words, words.PuzzleSize)

	var again dailyNewRes
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/daily/new", nil, &again))
	require.NotNil(t, again.Board)
	assert.Equal(t, first.Board.ID, again.Board.ID)

	// The daily word list and history cannot be rewritten.
	var errBody map[string]string
	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, "/board/"+first.Board.ID+"/words", wordReq{Word: "cod"}, &errBody))
	assert.Equal(t, game.ErrDailyLocked.Error(), errBody["error"])
	assert.Equal(t, http.StatusConflict, c.do(http.MethodDelete, "/board/"+first.Board.ID+"/words", nil, &errBody))
	assert.Equal(t, http.StatusConflict, c.do(http.MethodDelete, "/board/"+first.Board.ID+"/words/"+first.Board.Words[0], nil, &errBody))
	assert.Equal(t, http.StatusConflict, c.do(http.MethodDelete, "/board/"+first.Board.ID+"/guesses", nil, &errBody))

	// Catalogue lines list each group's four words together.
	id := first.Board.ID
	for g := 0; g < 4; g++ {
		c.selectWords(id, first.Board.Words[g*4:g*4+4]...)
		c.guess(id, "group_found")
	}

	var lb lbRes
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/daily/leaderboard", nil, &lb))
	require.Len(t, lb.Top, 1)
	assert.Equal(t, 4, lb.Top[0].Guesses)
	assert.Equal(t, 0, lb.Top[0].Mistakes)

	var done dailyNewRes
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/daily/new", nil, &done))
	assert.True(t, done.Played)
	assert.Nil(t, done.Board)
}
