// README: Location service resolves coordinates to zones and records reported positions.
package location

import (
	"context"
	"errors"
	"time"

	"zonetaxi/internal/modules/zone"
	"zonetaxi/internal/types"
)

var ErrBadRequest = errors.New("bad location update")

type PositionStore interface {
	SetPosition(ctx context.Context, p Position) error
	GetPosition(ctx context.Context, userType string, id types.ID) (Position, bool, error)
}

type Service struct {
	store PositionStore
	zones *zone.Registry
	now   func() time.Time
}

func NewService(store PositionStore, zones *zone.Registry) *Service {
	return &Service{store: store, zones: zones, now: time.Now}
}

type Update struct {
	UserID   types.ID
	UserType string
	X        float64
	Y        float64
}

// Resolve maps world coordinates to the nearest zone and its cell label.
func (s *Service) Resolve(x, y float64) Resolution {
	res := Resolution{Zone: s.zones.Nearest(x, y)}
	if c, ok := zone.CellAt(x, y); ok {
		res.Cell = c.Label()
	}
	return res
}

// Route resolves both ends and returns the grid distance between them.
func (s *Service) Route(fromID, toID string) (Route, error) {
	from, err := s.zones.Get(fromID)
	if err != nil {
		return Route{}, err
	}
	to, err := s.zones.Get(toID)
	if err != nil {
		return Route{}, err
	}
	return Route{From: from, To: to, DistanceKm: Distance(from, to)}, nil
}

func (s *Service) Update(ctx context.Context, u Update) (Resolution, error) {
	if u.UserID == "" || (u.UserType != UserTypeDriver && u.UserType != UserTypePassenger) {
		return Resolution{}, ErrBadRequest
	}
	if _, ok := zone.CellAt(u.X, u.Y); !ok {
		return Resolution{}, ErrBadRequest
	}
	res := s.Resolve(u.X, u.Y)
	err := s.store.SetPosition(ctx, Position{
		UserID:     u.UserID,
		UserType:   u.UserType,
		X:          u.X,
		Y:          u.Y,
		ZoneID:     res.Zone.ID,
		RecordedAt: s.now(),
	})
	if err != nil {
		return Resolution{}, err
	}
	return res, nil
}

// LastKnownZone returns the zone of the latest reported position.
func (s *Service) LastKnownZone(ctx context.Context, userType string, id types.ID) (zone.Zone, error) {
	p, ok, err := s.store.GetPosition(ctx, userType, id)
	if err != nil {
		return zone.Zone{}, err
	}
	if !ok {
		return zone.Zone{}, zone.ErrNotFound
	}
	return s.zones.Nearest(p.X, p.Y), nil
}
