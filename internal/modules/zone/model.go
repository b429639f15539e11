// README: Zone and stop definitions with restriction and access classification.
package zone

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound    = errors.New("zone not found")
	ErrInvalidZone = errors.New("invalid zone definition")
)

type Kind string

const (
	KindZone Kind = "zone"
	KindStop Kind = "stop"
)

type Category string

const (
	CategoryCity       Category = "city"
	CategoryTown       Category = "town"
	CategoryPort       Category = "port"
	CategorySeaport    Category = "seaport"
	CategoryAirport    Category = "airport"
	CategoryAirstrip   Category = "airstrip"
	CategoryMilitary   Category = "military"
	CategoryBunker     Category = "bunker"
	CategoryIndustrial Category = "industrial"
	CategoryMining     Category = "mining"
	CategoryForest     Category = "forest"
	CategoryIsland     Category = "island"
	CategoryResource   Category = "resource"
	CategoryStop       Category = "stop"
	CategoryNormal     Category = "normal"
)

var knownCategories = map[Category]bool{
	CategoryCity: true, CategoryTown: true, CategoryPort: true, CategorySeaport: true,
	CategoryAirport: true, CategoryAirstrip: true, CategoryMilitary: true, CategoryBunker: true,
	CategoryIndustrial: true, CategoryMining: true, CategoryForest: true, CategoryIsland: true,
	CategoryResource: true, CategoryStop: true, CategoryNormal: true,
}

type Restriction string

const (
	RestrictionSafe    Restriction = "safe_zone"
	RestrictionNeutral Restriction = "neutral"
	RestrictionCombat  Restriction = "combat_zone"
	RestrictionNoTaxi  Restriction = "no_taxi"
	RestrictionTrade   Restriction = "trade_zone"
)

type Access string

const (
	AccessLand     Access = "land"
	AccessRoad     Access = "road"
	AccessWater    Access = "water"
	AccessAir      Access = "air"
	AccessAirstrip Access = "airstrip"
	AccessPort     Access = "port"
	AccessOffroad  Access = "offroad"
	AccessSeaplane Access = "seaplane"
)

var knownAccess = map[Access]bool{
	AccessLand: true, AccessRoad: true, AccessWater: true, AccessAir: true,
	AccessAirstrip: true, AccessPort: true, AccessOffroad: true, AccessSeaplane: true,
}

// AccessSet is a small unordered set of access tags.
type AccessSet []Access

func (s AccessSet) Has(a Access) bool {
	for _, v := range s {
		if v == a {
			return true
		}
	}
	return false
}

func (s AccessSet) HasAny(as ...Access) bool {
	for _, a := range as {
		if s.Has(a) {
			return true
		}
	}
	return false
}

func (s AccessSet) Intersects(o AccessSet) bool {
	return s.HasAny(o...)
}

func ParseAccess(v string) (Access, error) {
	a := Access(strings.ToLower(strings.TrimSpace(v)))
	if !knownAccess[a] {
		return "", fmt.Errorf("%w: unknown access type %q", ErrInvalidZone, v)
	}
	return a, nil
}

type Zone struct {
	ID              string
	Kind            Kind
	Name            string
	Aliases         []string
	Grid            string
	Pad             int
	Category        Category
	Restriction     Restriction
	Access          AccessSet
	AllowedVehicles []string
	Description     string
	Landmarks       []string
	// Synthetic marks the fallback zone returned for open country.
	Synthetic bool
}

func (z Zone) Cell() (Cell, error) {
	return ParseCell(z.Grid, z.Pad)
}

// Label returns the "B2-5" coordinate label, or "" when the zone has no valid cell.
func (z Zone) Label() string {
	c, err := z.Cell()
	if err != nil {
		return ""
	}
	return c.Label()
}

func (z Zone) Allows(vehicleType string) bool {
	for _, v := range z.AllowedVehicles {
		if v == vehicleType {
			return true
		}
	}
	return false
}

// Validate rejects entries a registry must never hold.
func (z Zone) Validate(policies PolicyTable) error {
	if strings.TrimSpace(z.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidZone)
	}
	if strings.TrimSpace(z.Name) == "" {
		return fmt.Errorf("%w: %s: empty name", ErrInvalidZone, z.ID)
	}
	if z.Kind != KindZone && z.Kind != KindStop {
		return fmt.Errorf("%w: %s: unknown kind %q", ErrInvalidZone, z.ID, z.Kind)
	}
	if _, err := z.Cell(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidZone, z.ID, err)
	}
	if !knownCategories[z.Category] {
		return fmt.Errorf("%w: %s: unknown category %q", ErrInvalidZone, z.ID, z.Category)
	}
	if _, ok := policies[z.Restriction]; !ok {
		return fmt.Errorf("%w: %s: unknown restriction %q", ErrInvalidZone, z.ID, z.Restriction)
	}
	if len(z.Access) == 0 {
		return fmt.Errorf("%w: %s: no access types", ErrInvalidZone, z.ID)
	}
	for _, a := range z.Access {
		if !knownAccess[a] {
			return fmt.Errorf("%w: %s: unknown access type %q", ErrInvalidZone, z.ID, a)
		}
	}
	return nil
}
