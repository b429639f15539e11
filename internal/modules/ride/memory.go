// README: In-memory ride request store; one lock covers every invariant check.
package ride

import (
	"context"
	"sort"
	"sync"
	"time"

	"zonetaxi/internal/types"
)

type MemoryStore struct {
	mu       sync.Mutex
	requests map[types.ID]*Request
	events   []Event
	nextID   int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{requests: make(map[types.ID]*Request)}
}

func (m *MemoryStore) Create(_ context.Context, r *Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.requests {
		if existing.PassengerID == r.PassengerID && existing.Status.Active() {
			return ErrActiveRequestExists
		}
	}
	m.requests[r.ID] = cloneRequest(r)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id types.ID) (*Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRequest(r), nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, t Transition) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[t.RequestID]
	if !ok || r.Status != t.From || r.StatusVersion != t.Version {
		return false, nil
	}
	if t.DriverID != nil && (t.To == StatusAccepted || t.To == StatusInProgress) {
		for _, other := range m.requests {
			if other.ID != r.ID && other.AssignedTo(*t.DriverID) &&
				(other.Status == StatusAccepted || other.Status == StatusInProgress) {
				return false, ErrDriverUnavailable
			}
		}
	}

	r.Status = t.To
	r.StatusVersion++
	if t.DriverID != nil {
		d := *t.DriverID
		r.DriverID = &d
	}
	if t.FinalCost != nil {
		c := *t.FinalCost
		r.FinalCost = &c
	}
	if t.Reason != nil {
		reason := *t.Reason
		r.CancelReason = &reason
	}
	at := t.At
	switch t.To {
	case StatusAccepted:
		r.AcceptedAt = &at
	case StatusInProgress:
		r.StartedAt = &at
	case StatusCompleted:
		r.CompletedAt = &at
	case StatusCancelled:
		r.CancelledAt = &at
	}
	return true, nil
}

func (m *MemoryStore) HasActiveByPassenger(_ context.Context, passengerID types.ID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if r.PassengerID == passengerID && r.Status.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) ActiveByAccount(_ context.Context, accountID types.ID) (*Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *Request
	for _, r := range m.requests {
		asPassenger := r.PassengerID == accountID && r.Status.Active()
		asDriver := r.AssignedTo(accountID) && (r.Status == StatusAccepted || r.Status == StatusInProgress)
		if (asPassenger || asDriver) && (found == nil || r.CreatedAt.After(found.CreatedAt)) {
			found = r
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return cloneRequest(found), nil
}

func (m *MemoryStore) ListPending(_ context.Context, f PendingFilter) ([]*Request, error) {
	allowed := make(map[string]bool, len(f.VehicleTypes))
	for _, v := range f.VehicleTypes {
		allowed[v] = true
	}
	return m.pending(limitOrDefault(f.Limit), func(r *Request) bool {
		if f.CommunityID != "" && r.CommunityID != f.CommunityID {
			return false
		}
		if len(allowed) > 0 && !allowed[r.VehicleType] {
			return false
		}
		return r.PassengerID != f.ExcludePassenger
	}), nil
}

func (m *MemoryStore) ListPendingBefore(_ context.Context, before time.Time, limit int) ([]*Request, error) {
	return m.pending(limitOrDefault(limit), func(r *Request) bool {
		return r.CreatedAt.Before(before)
	}), nil
}

func (m *MemoryStore) AppendEvent(_ context.Context, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	e.ID = m.nextID
	m.events = append(m.events, *e)
	return nil
}

func (m *MemoryStore) Events(_ context.Context, requestID types.ID) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, e := range m.events {
		if e.RequestID == requestID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemoryStore) Stats(_ context.Context, communityID string) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Stats{CommunityID: communityID, Requests: make(map[Status]int), Revenue: types.Money{Currency: types.DefaultCurrency}}
	for _, r := range m.requests {
		if r.CommunityID != communityID {
			continue
		}
		st.Requests[r.Status]++
		if r.Status == StatusCompleted && r.FinalCost != nil {
			st.Revenue.Amount += r.FinalCost.Amount
		}
	}
	return st, nil
}

func (m *MemoryStore) pending(limit int, keep func(r *Request) bool) []*Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Request
	for _, r := range m.requests {
		if r.Status == StatusPending && keep(r) {
			out = append(out, cloneRequest(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func cloneRequest(r *Request) *Request {
	c := *r
	if r.DriverID != nil {
		d := *r.DriverID
		c.DriverID = &d
	}
	if r.DistanceKm != nil {
		km := *r.DistanceKm
		c.DistanceKm = &km
	}
	if r.EstimatedCost != nil {
		e := *r.EstimatedCost
		c.EstimatedCost = &e
	}
	if r.FinalCost != nil {
		f := *r.FinalCost
		c.FinalCost = &f
	}
	if r.CancelReason != nil {
		reason := *r.CancelReason
		c.CancelReason = &reason
	}
	return &c
}
