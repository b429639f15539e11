// README: In-memory dispatch bookkeeping for tests and Redis-less deployments.
package dispatch

import (
	"context"
	"sync"
	"time"

	"zonetaxi/internal/types"
)

type MemoryStore struct {
	mu           sync.Mutex
	dispatchedAt map[types.ID]time.Time
	notified     map[types.ID]map[types.ID]bool
	broadcast    map[types.ID]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		dispatchedAt: make(map[types.ID]time.Time),
		notified:     make(map[types.ID]map[types.ID]bool),
		broadcast:    make(map[types.ID]bool),
	}
}

func (m *MemoryStore) RecordDispatch(_ context.Context, requestID types.ID, driverIDs []types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.dispatchedAt[requestID]; !ok {
		m.dispatchedAt[requestID] = time.Now().UTC()
	}
	set, ok := m.notified[requestID]
	if !ok {
		set = make(map[types.ID]bool)
		m.notified[requestID] = set
	}
	for _, d := range driverIDs {
		set[d] = true
	}
	return nil
}

func (m *MemoryStore) GetDispatchedAt(_ context.Context, requestID types.ID) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.dispatchedAt[requestID]
	return t, ok, nil
}

func (m *MemoryStore) Notified(_ context.Context, requestID types.ID) ([]types.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.ID, 0, len(m.notified[requestID]))
	for d := range m.notified[requestID] {
		out = append(out, d)
	}
	return out, nil
}

func (m *MemoryStore) MarkBroadcast(_ context.Context, requestID types.ID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.broadcast[requestID] {
		return false, nil
	}
	m.broadcast[requestID] = true
	return true, nil
}

func (m *MemoryStore) IsBroadcast(_ context.Context, requestID types.ID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.broadcast[requestID], nil
}
