// apps/go-server/internal/store/store.go
//
// Persistence interface for boards.
// Implementations:
//   - memory: map-based, process lifetime only (memory.go).
//   - sqlite: write-through to SQLite with an in-memory cache of live boards (sqlite.go).

package store

import (
	"context"
	"errors"
	"time"

	"github.com/robalobadob/connections/apps/go-server/internal/game"
)

var ErrNotFound = errors.New("not found")

// Summary is a lightweight listing entry for a board.
type Summary struct {
	ID        string    `json:"id"`
	DailyDate string    `json:"dailyDate,omitempty"`
	Words     int       `json:"words"`
	Found     int       `json:"found"`
	Guesses   int       `json:"guesses"`
	Solved    bool      `json:"solved"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store defines the persistence interface for boards.
type Store interface {
	// Save persists or updates a board.
	Save(ctx context.Context, b *game.Board) error

	// Get retrieves a board by ID. Returns ErrNotFound if missing.
	Get(ctx context.Context, id string) (*game.Board, error)

	// ListByUser returns the user's boards, most recently updated first.
	ListByUser(ctx context.Context, userID string, limit int) ([]Summary, error)

	// Claim moves every board owned by anonymousID to userID.
	Claim(ctx context.Context, anonymousID, userID string) error
}

func summarize(st game.State) Summary {
	return Summary{
		ID:        st.ID,
		DailyDate: st.DailyDate,
		Words:     len(st.Words),
		Found:     len(st.Found),
		Guesses:   len(st.Guesses),
		Solved:    st.Solved(),
		UpdatedAt: st.UpdatedAt,
	}
}
