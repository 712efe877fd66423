// apps/go-server/internal/store/memory.go
//
// In-memory implementation of the Store interface.
// This is a lightweight persistence layer used for ephemeral boards,
// primarily in development/testing, or when durability is not required.
//
// Characteristics:
//   - Stores *game.Board objects keyed by ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/robalobadob/connections/apps/go-server/internal/game"
)

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu     sync.RWMutex           // guards boards map
	boards map[string]*game.Board // keyed by board ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return newMemory()
}

func newMemory() *memory {
	return &memory{boards: make(map[string]*game.Board)}
}

// Save adds or updates the board in the map.
func (m *memory) Save(ctx context.Context, b *game.Board) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boards[b.ID()] = b
	return nil
}

// Get looks up a board by ID.
func (m *memory) Get(ctx context.Context, id string) (*game.Board, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.boards[id]; ok {
		return b, nil
	}
	return nil, ErrNotFound
}

func (m *memory) ListByUser(ctx context.Context, userID string, limit int) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Summary{}
	for _, b := range m.boards {
		st := b.Snapshot()
		if userID != "" && st.UserID == userID {
			out = append(out, summarize(st))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memory) Claim(ctx context.Context, anonymousID, userID string) error {
	if anonymousID == "" || userID == "" {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.boards {
		if b.Snapshot().AnonymousID == anonymousID {
			b.SetOwner(userID, "")
		}
	}
	return nil
}
