// README: Driver service handles registration, availability and vehicle fleet updates.
package driver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"zonetaxi/internal/types"
)

// InitialRating is what a driver shows before receiving any rating.
const InitialRating = 5.0

type Repository interface {
	Create(ctx context.Context, d *Driver) error
	Get(ctx context.Context, id types.ID) (*Driver, error)
	UpdateStatus(ctx context.Context, id types.ID, status Status) error
	UpdateVehicles(ctx context.Context, id types.ID, vehicles []string) error
	SetDeviceToken(ctx context.Context, id types.ID, token string) error
	RecordTrip(ctx context.Context, id types.ID, earnings types.Money) error
	UpdateRating(ctx context.Context, id types.ID, rating float64) error
	ListAvailable(ctx context.Context, communityID, vehicleType string) ([]*Driver, error)
	CountByStatus(ctx context.Context, communityID string) (map[Status]int, error)
}

type VehicleCatalog interface {
	Known(ids []string) error
}

type Service struct {
	repo     Repository
	vehicles VehicleCatalog
}

func NewService(repo Repository, vehicles VehicleCatalog) *Service {
	return &Service{repo: repo, vehicles: vehicles}
}

type RegisterCommand struct {
	DriverID    types.ID
	CommunityID string
	DisplayName string
	Vehicles    []string
	DeviceToken string
}

func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (*Driver, error) {
	if cmd.DriverID == "" || strings.TrimSpace(cmd.CommunityID) == "" {
		return nil, ErrBadRequest
	}
	vehicles, err := s.checkVehicles(cmd.Vehicles)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	d := &Driver{
		ID:            cmd.DriverID,
		CommunityID:   cmd.CommunityID,
		DisplayName:   cmd.DisplayName,
		Vehicles:      vehicles,
		Status:        StatusOffline,
		TotalEarnings: types.Money{Currency: types.DefaultCurrency},
		Rating:        InitialRating,
		DeviceToken:   cmd.DeviceToken,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Driver, error) {
	return s.repo.Get(ctx, id)
}

// SetStatus changes availability. Status is never changed implicitly by
// trip transitions; drivers toggle it themselves.
func (s *Service) SetStatus(ctx context.Context, id types.ID, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrBadRequest, status)
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

func (s *Service) SetVehicles(ctx context.Context, id types.ID, vehicles []string) error {
	v, err := s.checkVehicles(vehicles)
	if err != nil {
		return err
	}
	return s.repo.UpdateVehicles(ctx, id, v)
}

func (s *Service) SetDeviceToken(ctx context.Context, id types.ID, token string) error {
	return s.repo.SetDeviceToken(ctx, id, strings.TrimSpace(token))
}

func (s *Service) RecordTrip(ctx context.Context, id types.ID, earnings types.Money) error {
	return s.repo.RecordTrip(ctx, id, earnings)
}

func (s *Service) UpdateRating(ctx context.Context, id types.ID, rating float64) error {
	return s.repo.UpdateRating(ctx, id, rating)
}

// Eligible lists available drivers of a community owning vehicleType, in
// dispatch order.
func (s *Service) Eligible(ctx context.Context, communityID, vehicleType string) ([]*Driver, error) {
	ds, err := s.repo.ListAvailable(ctx, communityID, vehicleType)
	if err != nil {
		return nil, err
	}
	SortForDispatch(ds)
	return ds, nil
}

func (s *Service) CountByStatus(ctx context.Context, communityID string) (map[Status]int, error) {
	return s.repo.CountByStatus(ctx, communityID)
}

func (s *Service) checkVehicles(in []string) ([]string, error) {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: at least one vehicle type is required", ErrBadRequest)
	}
	if s.vehicles != nil {
		if err := s.vehicles.Known(out); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
	}
	return out, nil
}
