package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zonetaxi/internal/modules/location"
	"zonetaxi/internal/modules/vehicle"
	"zonetaxi/internal/modules/zone"
)

func TestLoadCatalog_Shipped(t *testing.T) {
	cat, err := LoadCatalog("../../configs/catalog.yaml")
	require.NoError(t, err)

	reg, err := zone.NewRegistry(cat.Zones, zone.Options{Policies: cat.Policies})
	require.NoError(t, err)
	assert.Equal(t, len(cat.Zones), reg.Len())

	city, err := reg.Get("central_city")
	require.NoError(t, err)
	assert.Equal(t, "B2-5", city.Label())
	assert.Equal(t, zone.KindZone, city.Kind)

	stop, err := reg.Get("b2_city")
	require.NoError(t, err)
	assert.Equal(t, zone.KindStop, stop.Kind)
	assert.Equal(t, zone.CategoryStop, stop.Category)
	assert.Equal(t, zone.RestrictionNeutral, stop.Restriction)

	base, err := reg.Find("base")
	require.NoError(t, err)
	assert.False(t, reg.Policy(base.Restriction).PickupAllowed)

	airport, err := reg.Get("main_airport")
	require.NoError(t, err)
	assert.Greater(t, location.Distance(city, airport), 0.0)

	vc, err := vehicle.NewCatalog(cat.Vehicles)
	require.NoError(t, err)
	assert.Equal(t, 3.5, vc.CostMultiplier("avion"))
}

func TestBuildCatalog_Rejects(t *testing.T) {
	valid := zoneRecord{ID: "z", Name: "Z", Grid: "B2", Pad: 5, Category: "city", Restriction: "safe_zone", Access: []string{"land"}}
	cases := []struct {
		name string
		mut  func(*catalogFile)
	}{
		{"bad grid", func(c *catalogFile) { c.Zones[0].Grid = "Q9" }},
		{"bad pad", func(c *catalogFile) { c.Zones[0].Pad = 10 }},
		{"unknown restriction", func(c *catalogFile) { c.Zones[0].Restriction = "war" }},
		{"unknown category", func(c *catalogFile) { c.Zones[0].Category = "moon" }},
		{"unknown access", func(c *catalogFile) { c.Zones[0].Access = []string{"teleport"} }},
		{"duplicate id", func(c *catalogFile) { c.Stops = []zoneRecord{valid} }},
		{"unknown allowed vehicle", func(c *catalogFile) { c.Zones[0].AllowedVehicles = []string{"tank"} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := catalogFile{Zones: []zoneRecord{valid}}
			tc.mut(&raw)
			_, err := buildCatalog(raw)
			assert.ErrorIs(t, err, zone.ErrInvalidZone)
		})
	}
}

func TestBuildCatalog_Vehicles(t *testing.T) {
	raw := catalogFile{Vehicles: []vehicleRecord{{ID: "Cart", Class: "ground", Capacity: 1, SpeedMultiplier: 1, CostMultiplier: 1, Access: []string{"road"}}}}
	cat, err := buildCatalog(raw)
	require.NoError(t, err)
	require.Len(t, cat.Vehicles, 1)
	assert.Equal(t, "cart", cat.Vehicles[0].ID)

	raw.Vehicles[0].Class = "hover"
	_, err = buildCatalog(raw)
	assert.ErrorIs(t, err, vehicle.ErrInvalidType)

	cat, err = buildCatalog(catalogFile{})
	require.NoError(t, err)
	assert.Len(t, cat.Vehicles, len(vehicle.Builtin()))
}

func TestBuildCatalog_PolicyOverride(t *testing.T) {
	raw := catalogFile{Policies: map[string]policyRecord{"Combat_Zone": {Pickup: false, Dropoff: false, Message: "closed"}}}
	cat, err := buildCatalog(raw)
	require.NoError(t, err)
	assert.Equal(t, "closed", cat.Policies[zone.RestrictionCombat].Message)
}
