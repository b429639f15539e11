// README: In-process position store for single-node runs without Redis.
package location

import (
	"context"
	"sync"

	"zonetaxi/internal/types"
)

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Position
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]Position)}
}

func (m *MemoryStore) SetPosition(_ context.Context, p Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[positionKey(p.UserType, p.UserID)] = p
	return nil
}

func (m *MemoryStore) GetPosition(_ context.Context, userType string, id types.ID) (Position, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.data[positionKey(userType, id)]
	return p, ok, nil
}
