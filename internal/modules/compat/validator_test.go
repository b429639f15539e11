package compat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zonetaxi/internal/modules/vehicle"
	"zonetaxi/internal/modules/zone"
)

var (
	city = zone.Zone{
		ID: "central_city", Name: "Central City", Category: zone.CategoryCity,
		Restriction: zone.RestrictionSafe, Access: zone.AccessSet{zone.AccessLand, zone.AccessRoad},
		AllowedVehicles: []string{"auto", "moto"},
	}
	airport = zone.Zone{
		ID: "main_airport", Name: "Main Airport", Category: zone.CategoryAirport,
		Restriction: zone.RestrictionNeutral, Access: zone.AccessSet{zone.AccessLand, zone.AccessAir, zone.AccessAirstrip},
	}
	seaport = zone.Zone{
		ID: "seaport_south", Name: "South Seaport", Category: zone.CategorySeaport,
		Restriction: zone.RestrictionSafe, Access: zone.AccessSet{zone.AccessWater, zone.AccessPort},
	}
	mine = zone.Zone{
		ID: "mining", Name: "Mining Camp", Category: zone.CategoryMining,
		Restriction: zone.RestrictionNeutral, Access: zone.AccessSet{zone.AccessLand, zone.AccessOffroad},
	}
	base = zone.Zone{
		ID: "base", Name: "Military Base", Category: zone.CategoryMilitary,
		Restriction: zone.RestrictionNoTaxi, Access: zone.AccessSet{zone.AccessLand},
	}
	field = zone.Zone{
		ID: "old_field", Name: "Old Field", Category: zone.CategoryMilitary,
		Restriction: zone.RestrictionNeutral, Access: zone.AccessSet{zone.AccessLand, zone.AccessAirstrip},
	}
	bunker = zone.Zone{
		ID: "bunker", Name: "Bunker D1", Category: zone.CategoryBunker,
		Restriction: zone.RestrictionCombat, Access: zone.AccessSet{zone.AccessLand},
	}
)

func fleet(t *testing.T) map[string]vehicle.Type {
	t.Helper()
	c, err := vehicle.NewCatalog(nil)
	require.NoError(t, err)
	out := make(map[string]vehicle.Type)
	for _, v := range c.All() {
		out[v.ID] = v
	}
	return out
}

func TestCanAccessZone(t *testing.T) {
	v := fleet(t)

	tests := []struct {
		name string
		z    zone.Zone
		v    string
		want bool
	}{
		{"car in city", city, "auto", true},
		{"plane in city", city, "avion", false},
		{"boat in city", city, "barco", false},
		{"plane at airport", airport, "avion", true},
		{"car at airport", airport, "auto", true},
		{"boat at airport", airport, "barco", false},
		{"seaplane at airport", airport, "hidroavion", true},
		{"boat at seaport", seaport, "barco", true},
		{"seaplane at seaport", seaport, "hidroavion", true},
		{"car at seaport", seaport, "auto", false},
		{"moto at mine", mine, "moto", true},
		{"car at mine", mine, "auto", true},
		{"plane at mine", mine, "avion", false},
		{"plane at military strip without air access", field, "avion", false},
		{"car at military strip", field, "auto", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAccessZone(tt.z, v[tt.v]))
		})
	}
}

func TestCanAccessZone_AllowListOverrides(t *testing.T) {
	v := fleet(t)
	heliPad := city
	heliPad.AllowedVehicles = []string{"avion"}
	assert.True(t, CanAccessZone(heliPad, v["avion"]))
}

func TestValidator_RestrictionPolicies(t *testing.T) {
	reg, err := zone.NewRegistry(nil, zone.Options{})
	require.NoError(t, err)
	val := NewValidator(reg)
	car := fleet(t)["auto"]

	assert.ErrorIs(t, val.CheckRoute(base, nil, car), ErrZoneRestricted)
	assert.ErrorIs(t, val.CheckRoute(city, &base, car), ErrZoneRestricted)

	// combat zones allow emergency pickups but no dropoffs
	assert.NoError(t, val.CheckRoute(bunker, &city, car))
	assert.ErrorIs(t, val.CheckRoute(city, &bunker, car), ErrZoneRestricted)

	assert.NoError(t, val.CheckRoute(city, nil, car))
}

func TestValidator_CheckRouteVehicleAccess(t *testing.T) {
	reg, err := zone.NewRegistry(nil, zone.Options{})
	require.NoError(t, err)
	val := NewValidator(reg)
	v := fleet(t)

	assert.NoError(t, val.CheckRoute(city, &airport, v["auto"]))
	assert.ErrorIs(t, val.CheckRoute(city, &airport, v["avion"]), ErrIncompatibleVehicle)
	assert.ErrorIs(t, val.CheckRoute(city, &seaport, v["auto"]), ErrIncompatibleVehicle)
}

func TestValidator_CheckDriver(t *testing.T) {
	reg, err := zone.NewRegistry(nil, zone.Options{})
	require.NoError(t, err)
	val := NewValidator(reg)
	v := fleet(t)

	// a moto-only driver cannot take a plane request
	err = val.CheckDriver([]string{"moto"}, v["avion"], airport, nil)
	assert.ErrorIs(t, err, ErrIncompatibleVehicle)

	assert.NoError(t, val.CheckDriver([]string{"moto", "avion"}, v["avion"], airport, nil))
	assert.NoError(t, val.CheckDriver([]string{"moto"}, v["moto"], city, &mine))
}
