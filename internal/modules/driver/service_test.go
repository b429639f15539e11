package driver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zonetaxi/internal/modules/vehicle"
	"zonetaxi/internal/types"
)

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()
	cat, err := vehicle.NewCatalog(nil)
	require.NoError(t, err)
	store := NewMemoryStore()
	return NewService(store, cat), store
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	d, err := svc.Register(ctx, RegisterCommand{
		DriverID: "d1", CommunityID: "guild-1", Vehicles: []string{"auto", " moto", "auto"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"auto", "moto"}, d.Vehicles)
	assert.Equal(t, StatusOffline, d.Status)
	assert.Equal(t, InitialRating, d.Rating)

	_, err = svc.Register(ctx, RegisterCommand{DriverID: "d1", CommunityID: "guild-1", Vehicles: []string{"auto"}})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	_, err = svc.Register(ctx, RegisterCommand{DriverID: "d2", CommunityID: "guild-1"})
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = svc.Register(ctx, RegisterCommand{DriverID: "d3", CommunityID: "guild-1", Vehicles: []string{"ufo"}})
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestSetStatusAndVehicles(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	_, err := svc.Register(ctx, RegisterCommand{DriverID: "d1", CommunityID: "g", Vehicles: []string{"auto"}})
	require.NoError(t, err)

	require.NoError(t, svc.SetStatus(ctx, "d1", StatusAvailable))
	assert.ErrorIs(t, svc.SetStatus(ctx, "d1", "napping"), ErrBadRequest)
	assert.ErrorIs(t, svc.SetStatus(ctx, "ghost", StatusBusy), ErrNotFound)

	require.NoError(t, svc.SetVehicles(ctx, "d1", []string{"barco"}))
	d, err := svc.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, d.Status)
	assert.True(t, d.Owns("barco"))
	assert.False(t, d.Owns("auto"))
}

func TestEligible_OrderAndScope(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	seed := []*Driver{
		{ID: "low", CommunityID: "g1", Vehicles: []string{"auto"}, Status: StatusAvailable, Rating: 4.1, TotalTrips: 300},
		{ID: "top", CommunityID: "g1", Vehicles: []string{"auto", "moto"}, Status: StatusAvailable, Rating: 4.9, TotalTrips: 10},
		{ID: "tie_more_trips", CommunityID: "g1", Vehicles: []string{"auto"}, Status: StatusAvailable, Rating: 4.5, TotalTrips: 80},
		{ID: "tie_fewer_trips", CommunityID: "g1", Vehicles: []string{"auto"}, Status: StatusAvailable, Rating: 4.5, TotalTrips: 20},
		{ID: "busy", CommunityID: "g1", Vehicles: []string{"auto"}, Status: StatusBusy, Rating: 5},
		{ID: "other_guild", CommunityID: "g2", Vehicles: []string{"auto"}, Status: StatusAvailable, Rating: 5},
		{ID: "boat_only", CommunityID: "g1", Vehicles: []string{"barco"}, Status: StatusAvailable, Rating: 5},
	}
	for _, d := range seed {
		require.NoError(t, store.Create(ctx, d))
	}

	got, err := svc.Eligible(ctx, "g1", "auto")
	require.NoError(t, err)
	ids := make([]types.ID, len(got))
	for i, d := range got {
		ids[i] = d.ID
	}
	assert.Equal(t, []types.ID{"top", "tie_more_trips", "tie_fewer_trips", "low"}, ids)
}

func TestRecordTripAndCounts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	_, err := svc.Register(ctx, RegisterCommand{DriverID: "d1", CommunityID: "g", Vehicles: []string{"auto"}})
	require.NoError(t, err)

	require.NoError(t, svc.RecordTrip(ctx, "d1", types.Money{Amount: 1200, Currency: "CR"}))
	require.NoError(t, svc.RecordTrip(ctx, "d1", types.Money{Amount: 300, Currency: "CR"}))
	d, err := svc.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, 2, d.TotalTrips)
	assert.Equal(t, int64(1500), d.TotalEarnings.Amount)

	err = svc.RecordTrip(ctx, "ghost", types.Money{Amount: 1})
	assert.True(t, errors.Is(err, ErrNotFound))

	counts, err := svc.CountByStatus(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, 1, counts[StatusOffline])
}
