package zone

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntries() []Zone {
	return []Zone{
		{
			ID: "central_city", Kind: KindZone, Name: "Central City", Aliases: []string{"downtown"},
			Grid: "B2", Pad: 5, Category: CategoryCity, Restriction: RestrictionSafe,
			Access: AccessSet{AccessLand, AccessRoad}, AllowedVehicles: []string{"auto", "moto"},
		},
		{
			ID: "central_military_base", Kind: KindZone, Name: "Central Military Base",
			Grid: "B2", Pad: 2, Category: CategoryMilitary, Restriction: RestrictionNoTaxi,
			Access: AccessSet{AccessLand},
		},
		{
			ID: "east_port", Kind: KindZone, Name: "East Port",
			Grid: "C0", Pad: 4, Category: CategoryPort, Restriction: RestrictionSafe,
			Access: AccessSet{AccessLand, AccessWater, AccessPort},
		},
		{
			ID: "main_airport", Kind: KindZone, Name: "Main Airport",
			Grid: "B4", Pad: 1, Category: CategoryAirport, Restriction: RestrictionNeutral,
			Access: AccessSet{AccessLand, AccessAir, AccessAirstrip},
		},
		{
			ID: "b2_city", Kind: KindStop, Name: "City Taxi Stand",
			Grid: "B2", Pad: 7, Category: CategoryStop, Restriction: RestrictionSafe,
			Access: AccessSet{AccessLand, AccessRoad},
		},
		{
			ID: "b4_airport", Kind: KindStop, Name: "Airport Stop",
			Grid: "B4", Pad: 1, Category: CategoryStop, Restriction: RestrictionNeutral,
			Access: AccessSet{AccessLand, AccessAir, AccessAirstrip},
		},
	}
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(testEntries(), Options{})
	require.NoError(t, err)
	return r
}

func TestRegistry_Get(t *testing.T) {
	r := newTestRegistry(t)

	z, err := r.Get("east_port")
	require.NoError(t, err)
	assert.Equal(t, "East Port", z.Name)

	_, err = r.Get("atlantis")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_FindPriority(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		query  string
		wantID string
	}{
		{"Central City", "central_city"},
		{"  central city ", "central_city"},
		{"downtown", "central_city"},
		{"b2_city", "b2_city"},
		{"military", "central_military_base"},
		// zones are searched before stops
		{"airport", "main_airport"},
		{"Airport Stop", "b4_airport"},
		{"C0-4", "east_port"},
		{"c0 4", "east_port"},
		{"B4-1", "main_airport"},
		{"C0", "east_port"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			z, err := r.Find(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, z.ID)
		})
	}

	_, err := r.Find("atlantis")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.Find("   ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_NearestPrefersStops(t *testing.T) {
	r := newTestRegistry(t)

	// B4-1 holds both a zone and a stop at the same pad.
	c, err := ParseCell("B4", 1)
	require.NoError(t, err)
	x, y := c.Center()
	assert.Equal(t, "b4_airport", r.Nearest(x, y).ID)

	// 400m from the city center, beyond the stop tolerance of the taxi stand.
	c, err = ParseCell("B2", 5)
	require.NoError(t, err)
	x, y = c.Center()
	assert.Equal(t, "central_city", r.Nearest(x, y+400).ID)
}

func TestRegistry_NearestFallsBackToOpenCountry(t *testing.T) {
	r := newTestRegistry(t)

	z := r.Nearest(500, 500)
	assert.True(t, z.Synthetic)
	assert.Equal(t, "normal", z.ID)
	assert.Equal(t, RestrictionNeutral, z.Restriction)
	assert.Equal(t, "Z0-1", z.Label())

	outside := r.Nearest(-10, 99999)
	assert.True(t, outside.Synthetic)
	assert.Equal(t, "", outside.Label())
}

func TestRegistry_RejectsMalformedEntries(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(z *Zone)
	}{
		{"bad grid row", func(z *Zone) { z.Grid = "E2" }},
		{"bad grid column", func(z *Zone) { z.Grid = "B7" }},
		{"bad pad", func(z *Zone) { z.Pad = 10 }},
		{"unknown restriction", func(z *Zone) { z.Restriction = "war_zone" }},
		{"unknown category", func(z *Zone) { z.Category = "volcano" }},
		{"unknown access", func(z *Zone) { z.Access = AccessSet{"teleport"} }},
		{"missing access", func(z *Zone) { z.Access = nil }},
		{"missing name", func(z *Zone) { z.Name = "" }},
		{"unknown kind", func(z *Zone) { z.Kind = "area" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := testEntries()
			tt.mutate(&entries[0])
			_, err := NewRegistry(entries, Options{})
			assert.ErrorIs(t, err, ErrInvalidZone)
		})
	}

	entries := append(testEntries(), testEntries()[0])
	_, err := NewRegistry(entries, Options{})
	assert.True(t, errors.Is(err, ErrInvalidZone), "duplicate ids must be rejected")
}

func TestRegistry_ReloadKeepsSnapshotOnError(t *testing.T) {
	r := newTestRegistry(t)
	before := r.Len()

	bad := testEntries()
	bad[1].Pad = 0
	require.Error(t, r.Reload(bad, nil))
	assert.Equal(t, before, r.Len())

	require.NoError(t, r.Reload(testEntries()[:2], nil))
	assert.Equal(t, 2, r.Len())
	_, err := r.Get("east_port")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_Policies(t *testing.T) {
	r, err := NewRegistry(testEntries(), Options{Policies: PolicyTable{
		RestrictionTrade: {PickupAllowed: false, DropoffAllowed: true, Message: "trade only"},
	}})
	require.NoError(t, err)

	assert.False(t, r.Policy(RestrictionNoTaxi).PickupAllowed)
	assert.False(t, r.Policy(RestrictionNoTaxi).DropoffAllowed)
	assert.True(t, r.Policy(RestrictionCombat).PickupAllowed)
	assert.False(t, r.Policy(RestrictionCombat).DropoffAllowed)
	assert.True(t, r.Policy(RestrictionSafe).DropoffAllowed)
	assert.False(t, r.Policy(RestrictionTrade).PickupAllowed)
	assert.False(t, r.Policy("unheard_of").PickupAllowed)
}
