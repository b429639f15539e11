// README: Vehicle type catalog (capacity, multipliers, access capabilities).
package vehicle

import (
	"errors"
	"fmt"
	"strings"

	"zonetaxi/internal/modules/zone"
)

var (
	ErrUnknownType = errors.New("unknown vehicle type")
	ErrInvalidType = errors.New("invalid vehicle type definition")
)

// Class drives the terrain rules applied on top of access-tag matching.
type Class string

const (
	ClassGround     Class = "ground"
	ClassAir        Class = "air"
	ClassWater      Class = "water"
	ClassAmphibious Class = "amphibious"
)

type Type struct {
	ID                  string
	Name                string
	Emoji               string
	Description         string
	Capacity            int
	SpeedMultiplier     float64
	CostMultiplier      float64
	Class               Class
	Access              zone.AccessSet
	ForbiddenCategories []zone.Category
}

func (t Type) Forbids(c zone.Category) bool {
	for _, f := range t.ForbiddenCategories {
		if f == c {
			return true
		}
	}
	return false
}

func (t Type) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidType)
	}
	switch t.Class {
	case ClassGround, ClassAir, ClassWater, ClassAmphibious:
	default:
		return fmt.Errorf("%w: %s: unknown class %q", ErrInvalidType, t.ID, t.Class)
	}
	if t.Capacity <= 0 {
		return fmt.Errorf("%w: %s: capacity must be positive", ErrInvalidType, t.ID)
	}
	if t.CostMultiplier <= 0 || t.SpeedMultiplier <= 0 {
		return fmt.Errorf("%w: %s: multipliers must be positive", ErrInvalidType, t.ID)
	}
	if len(t.Access) == 0 {
		return fmt.Errorf("%w: %s: no access types", ErrInvalidType, t.ID)
	}
	return nil
}

// Builtin returns the stock fleet used when a catalog defines no vehicles.
func Builtin() []Type {
	return []Type{
		{
			ID: "auto", Name: "Car", Emoji: "🚗", Description: "Standard car for land transport",
			Capacity: 4, SpeedMultiplier: 1.0, CostMultiplier: 1.0, Class: ClassGround,
			Access:              zone.AccessSet{zone.AccessLand, zone.AccessRoad},
			ForbiddenCategories: []zone.Category{zone.CategorySeaport},
		},
		{
			ID: "moto", Name: "Motorcycle", Emoji: "🏍️", Description: "Fast motorcycle, handles rough terrain",
			Capacity: 2, SpeedMultiplier: 1.3, CostMultiplier: 0.8, Class: ClassGround,
			Access:              zone.AccessSet{zone.AccessLand, zone.AccessRoad, zone.AccessOffroad},
			ForbiddenCategories: []zone.Category{zone.CategorySeaport},
		},
		{
			ID: "avion", Name: "Plane", Emoji: "✈️", Description: "Plane for long distance air travel",
			Capacity: 2, SpeedMultiplier: 3.0, CostMultiplier: 3.5, Class: ClassAir,
			Access:              zone.AccessSet{zone.AccessAir, zone.AccessAirstrip},
			ForbiddenCategories: []zone.Category{zone.CategorySeaport},
		},
		{
			ID: "hidroavion", Name: "Seaplane", Emoji: "🛩️", Description: "Seaplane, lands on water and airstrips",
			Capacity: 2, SpeedMultiplier: 2.5, CostMultiplier: 3.0, Class: ClassAmphibious,
			Access: zone.AccessSet{zone.AccessAir, zone.AccessWater, zone.AccessSeaplane},
		},
		{
			ID: "barco", Name: "Boat", Emoji: "🚤", Description: "Boat for water transport",
			Capacity: 4, SpeedMultiplier: 0.8, CostMultiplier: 4.5, Class: ClassWater,
			Access:              zone.AccessSet{zone.AccessWater, zone.AccessPort},
			ForbiddenCategories: []zone.Category{zone.CategoryAirport, zone.CategoryAirstrip},
		},
	}
}
