// README: Catalog loader: zones, stops, vehicle types and restriction policies from YAML/JSON.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"zonetaxi/internal/modules/vehicle"
	"zonetaxi/internal/modules/zone"
)

// Catalog is the validated, typed content of a catalog file.
type Catalog struct {
	Zones    []zone.Zone
	Vehicles []vehicle.Type
	Policies zone.PolicyTable
}

type catalogFile struct {
	Zones    []zoneRecord            `json:"zones"`
	Stops    []zoneRecord            `json:"stops"`
	Vehicles []vehicleRecord         `json:"vehicles"`
	Policies map[string]policyRecord `json:"policies"`
}

type zoneRecord struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Aliases         []string `json:"aliases"`
	Grid            string   `json:"grid"`
	Pad             int      `json:"pad"`
	Category        string   `json:"category"`
	Restriction     string   `json:"restriction"`
	Access          []string `json:"access"`
	AllowedVehicles []string `json:"allowed_vehicles"`
	Description     string   `json:"description"`
	Landmarks       []string `json:"landmarks"`
}

type vehicleRecord struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Emoji               string   `json:"emoji"`
	Description         string   `json:"description"`
	Capacity            int      `json:"capacity"`
	SpeedMultiplier     float64  `json:"speed_multiplier"`
	CostMultiplier      float64  `json:"cost_multiplier"`
	Class               string   `json:"class"`
	Access              []string `json:"access"`
	ForbiddenCategories []string `json:"forbidden_categories"`
}

type policyRecord struct {
	Pickup  bool   `json:"pickup"`
	Dropoff bool   `json:"dropoff"`
	Message string `json:"message"`
}

// LoadCatalog parses and validates the catalog at path. Any malformed entry
// fails the whole load. A catalog without vehicles gets the builtin fleet.
func LoadCatalog(path string) (*Catalog, error) {
	parser, err := parserFor(path)
	if err != nil {
		return nil, err
	}
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	var raw catalogFile
	if err := k.UnmarshalWithConf("", &raw, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	return buildCatalog(raw)
}

func buildCatalog(raw catalogFile) (*Catalog, error) {
	out := &Catalog{Policies: zone.PolicyTable{}}
	for name, p := range raw.Policies {
		out.Policies[zone.Restriction(strings.ToLower(name))] = zone.Policy{
			PickupAllowed:  p.Pickup,
			DropoffAllowed: p.Dropoff,
			Message:        p.Message,
		}
	}
	table := zone.DefaultPolicies().Merge(out.Policies)

	for _, v := range raw.Vehicles {
		t, err := v.toType()
		if err != nil {
			return nil, err
		}
		out.Vehicles = append(out.Vehicles, t)
	}
	if len(out.Vehicles) == 0 {
		out.Vehicles = vehicle.Builtin()
	}
	known := make(map[string]bool, len(out.Vehicles))
	for _, t := range out.Vehicles {
		known[t.ID] = true
	}

	seen := map[string]bool{}
	add := func(rec zoneRecord, kind zone.Kind) error {
		z, err := rec.toZone(kind)
		if err != nil {
			return err
		}
		if err := z.Validate(table); err != nil {
			return err
		}
		if seen[z.ID] {
			return fmt.Errorf("%w: duplicate id %q", zone.ErrInvalidZone, z.ID)
		}
		for _, vt := range z.AllowedVehicles {
			if !known[vt] {
				return fmt.Errorf("%w: %s: allowed vehicle %q is not in the catalog", zone.ErrInvalidZone, z.ID, vt)
			}
		}
		seen[z.ID] = true
		out.Zones = append(out.Zones, z)
		return nil
	}
	for _, rec := range raw.Zones {
		if err := add(rec, zone.KindZone); err != nil {
			return nil, err
		}
	}
	for _, rec := range raw.Stops {
		if err := add(rec, zone.KindStop); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r zoneRecord) toZone(kind zone.Kind) (zone.Zone, error) {
	z := zone.Zone{
		ID:          strings.TrimSpace(r.ID),
		Kind:        kind,
		Name:        r.Name,
		Aliases:     r.Aliases,
		Grid:        r.Grid,
		Pad:         r.Pad,
		Category:    zone.Category(strings.ToLower(r.Category)),
		Restriction: zone.Restriction(strings.ToLower(r.Restriction)),
		Description: r.Description,
		Landmarks:   r.Landmarks,
	}
	if z.Category == "" && kind == zone.KindStop {
		z.Category = zone.CategoryStop
	}
	if z.Restriction == "" {
		z.Restriction = zone.RestrictionNeutral
	}
	for _, a := range r.Access {
		acc, err := zone.ParseAccess(a)
		if err != nil {
			return zone.Zone{}, fmt.Errorf("%s: %w", r.ID, err)
		}
		z.Access = append(z.Access, acc)
	}
	for _, v := range r.AllowedVehicles {
		z.AllowedVehicles = append(z.AllowedVehicles, strings.ToLower(strings.TrimSpace(v)))
	}
	return z, nil
}

func (r vehicleRecord) toType() (vehicle.Type, error) {
	t := vehicle.Type{
		ID:              strings.ToLower(strings.TrimSpace(r.ID)),
		Name:            r.Name,
		Emoji:           r.Emoji,
		Description:     r.Description,
		Capacity:        r.Capacity,
		SpeedMultiplier: r.SpeedMultiplier,
		CostMultiplier:  r.CostMultiplier,
		Class:           vehicle.Class(strings.ToLower(r.Class)),
	}
	for _, a := range r.Access {
		acc, err := zone.ParseAccess(a)
		if err != nil {
			return vehicle.Type{}, fmt.Errorf("%w: %s: %v", vehicle.ErrInvalidType, r.ID, err)
		}
		t.Access = append(t.Access, acc)
	}
	for _, c := range r.ForbiddenCategories {
		t.ForbiddenCategories = append(t.ForbiddenCategories, zone.Category(strings.ToLower(c)))
	}
	if err := t.Validate(); err != nil {
		return vehicle.Type{}, err
	}
	return t, nil
}
