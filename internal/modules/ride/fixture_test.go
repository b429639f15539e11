package ride

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"zonetaxi/internal/modules/compat"
	"zonetaxi/internal/modules/driver"
	"zonetaxi/internal/modules/ledger"
	"zonetaxi/internal/modules/pricing"
	"zonetaxi/internal/modules/settlement"
	"zonetaxi/internal/modules/vehicle"
	"zonetaxi/internal/modules/zone"
	"zonetaxi/internal/types"
)

const community = "guild-1"

func testZones() []zone.Zone {
	return []zone.Zone{
		{
			ID: "central_city", Kind: zone.KindZone, Name: "Central City",
			Grid: "B2", Pad: 5, Category: zone.CategoryCity, Restriction: zone.RestrictionSafe,
			Access: zone.AccessSet{zone.AccessLand, zone.AccessRoad},
		},
		{
			ID: "east_town", Kind: zone.KindZone, Name: "East Town",
			Grid: "C2", Pad: 5, Category: zone.CategoryTown, Restriction: zone.RestrictionNeutral,
			Access: zone.AccessSet{zone.AccessLand, zone.AccessRoad},
		},
		{
			ID: "military_base", Kind: zone.KindZone, Name: "Military Base",
			Grid: "B2", Pad: 2, Category: zone.CategoryMilitary, Restriction: zone.RestrictionNoTaxi,
			Access: zone.AccessSet{zone.AccessLand},
		},
		{
			ID: "front_line", Kind: zone.KindZone, Name: "Front Line",
			Grid: "D1", Pad: 5, Category: zone.CategoryNormal, Restriction: zone.RestrictionCombat,
			Access: zone.AccessSet{zone.AccessLand, zone.AccessRoad},
		},
		{
			ID: "main_airport", Kind: zone.KindZone, Name: "Main Airport",
			Grid: "B4", Pad: 1, Category: zone.CategoryAirport, Restriction: zone.RestrictionNeutral,
			Access: zone.AccessSet{zone.AccessLand, zone.AccessAir, zone.AccessAirstrip},
		},
		{
			ID: "north_airstrip", Kind: zone.KindZone, Name: "North Airstrip",
			Grid: "Z3", Pad: 3, Category: zone.CategoryAirstrip, Restriction: zone.RestrictionNeutral,
			Access: zone.AccessSet{zone.AccessLand, zone.AccessAirstrip},
		},
	}
}

type recordingDispatcher struct {
	mu        sync.Mutex
	announced []types.ID
}

func (d *recordingDispatcher) Announce(_ context.Context, r *Request) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.announced = append(d.announced, r.ID)
}

func (d *recordingDispatcher) ids() []types.ID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]types.ID(nil), d.announced...)
}

type fixture struct {
	svc      *Service
	repo     Repository
	drivers  *driver.Service
	ledger   *ledger.Memory
	dispatch *recordingDispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithRepo(t, NewMemoryStore())
}

func newFixtureWithRepo(t *testing.T, repo Repository) *fixture {
	t.Helper()
	zones, err := zone.NewRegistry(testZones(), zone.Options{})
	require.NoError(t, err)
	fleet, err := vehicle.NewCatalog(nil)
	require.NoError(t, err)

	drivers := driver.NewService(driver.NewMemoryStore(), fleet)
	l := ledger.NewMemory("")
	dispatch := &recordingDispatcher{}
	svc := NewService(Deps{
		Repo:      repo,
		Drivers:   drivers,
		Zones:     zones,
		Vehicles:  fleet,
		Validator: compat.NewValidator(zones),
		Pricing:   pricing.NewService(nil, pricing.DefaultRates()),
		Dispatch:  dispatch,
		Settle:    settlement.NewHook(l, settlement.Options{PlatformAccount: "platform"}),
	}, Options{})
	return &fixture{svc: svc, repo: repo, drivers: drivers, ledger: l, dispatch: dispatch}
}

// addDriver registers an available driver of the test community.
func (f *fixture) addDriver(t *testing.T, id types.ID, vehicles ...string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.drivers.Register(ctx, driver.RegisterCommand{DriverID: id, CommunityID: community, Vehicles: vehicles})
	require.NoError(t, err)
	require.NoError(t, f.drivers.SetStatus(ctx, id, driver.StatusAvailable))
}

func (f *fixture) create(t *testing.T, passenger types.ID, pickup, dest, vt string) *Request {
	t.Helper()
	r, err := f.svc.Create(context.Background(), CreateCommand{
		CommunityID:       community,
		PassengerID:       passenger,
		PickupZoneID:      pickup,
		DestinationZoneID: dest,
		VehicleType:       vt,
	})
	require.NoError(t, err)
	return r
}

func cr(amount int64) types.Money {
	return types.Money{Amount: amount, Currency: types.DefaultCurrency}
}
