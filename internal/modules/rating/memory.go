// README: In-memory rating store.
package rating

import (
	"context"
	"sync"

	"zonetaxi/internal/types"
)

type MemoryStore struct {
	mu      sync.Mutex
	ratings []Rating
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Create(_ context.Context, r *Rating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.ratings {
		if existing.RequestID == r.RequestID && existing.Direction == r.Direction {
			return ErrAlreadyRated
		}
	}
	r.ID = int64(len(m.ratings) + 1)
	m.ratings = append(m.ratings, *r)
	return nil
}

func (m *MemoryStore) Scores(_ context.Context, rateeID types.ID, d Direction) ([]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []float64
	for _, r := range m.ratings {
		if r.RateeID == rateeID && r.Direction == d {
			out = append(out, float64(r.Score))
		}
	}
	return out, nil
}

func (m *MemoryStore) ListByRequest(_ context.Context, requestID types.ID) ([]Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Rating
	for _, r := range m.ratings {
		if r.RequestID == requestID {
			out = append(out, r)
		}
	}
	return out, nil
}
