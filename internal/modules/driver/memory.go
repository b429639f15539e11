// README: In-memory driver store for tests and single-process runs.
package driver

import (
	"context"
	"sync"
	"time"

	"zonetaxi/internal/types"
)

type MemoryStore struct {
	mu      sync.Mutex
	drivers map[types.ID]*Driver
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drivers: make(map[types.ID]*Driver)}
}

func (m *MemoryStore) Create(_ context.Context, d *Driver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drivers[d.ID]; ok {
		return ErrAlreadyRegistered
	}
	m.drivers[d.ID] = clone(d)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id types.ID) (*Driver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(d), nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, id types.ID, status Status) error {
	return m.update(id, func(d *Driver) { d.Status = status })
}

func (m *MemoryStore) UpdateVehicles(_ context.Context, id types.ID, vehicles []string) error {
	return m.update(id, func(d *Driver) { d.Vehicles = append([]string(nil), vehicles...) })
}

func (m *MemoryStore) SetDeviceToken(_ context.Context, id types.ID, token string) error {
	return m.update(id, func(d *Driver) { d.DeviceToken = token })
}

func (m *MemoryStore) RecordTrip(_ context.Context, id types.ID, earnings types.Money) error {
	return m.update(id, func(d *Driver) {
		d.TotalTrips++
		d.TotalEarnings.Amount += earnings.Amount
		if d.TotalEarnings.Currency == "" {
			d.TotalEarnings.Currency = earnings.Currency
		}
	})
}

func (m *MemoryStore) UpdateRating(_ context.Context, id types.ID, rating float64) error {
	return m.update(id, func(d *Driver) { d.Rating = rating })
}

func (m *MemoryStore) ListAvailable(_ context.Context, communityID, vehicleType string) ([]*Driver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Driver
	for _, d := range m.drivers {
		if d.CommunityID == communityID && d.Status == StatusAvailable && d.Owns(vehicleType) {
			out = append(out, clone(d))
		}
	}
	SortForDispatch(out)
	return out, nil
}

func (m *MemoryStore) CountByStatus(_ context.Context, communityID string) (map[Status]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[Status]int)
	for _, d := range m.drivers {
		if d.CommunityID == communityID {
			out[d.Status]++
		}
	}
	return out, nil
}

func (m *MemoryStore) update(id types.ID, fn func(d *Driver)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[id]
	if !ok {
		return ErrNotFound
	}
	fn(d)
	d.UpdatedAt = time.Now()
	return nil
}

func clone(d *Driver) *Driver {
	cp := *d
	cp.Vehicles = append([]string(nil), d.Vehicles...)
	return &cp
}
