// README: Vehicle/zone compatibility and restriction-policy checks.
package compat

import (
	"errors"
	"fmt"

	"zonetaxi/internal/modules/vehicle"
	"zonetaxi/internal/modules/zone"
)

var (
	ErrZoneRestricted      = errors.New("zone restricted")
	ErrIncompatibleVehicle = errors.New("incompatible vehicle")
)

type PolicySource interface {
	Policy(r zone.Restriction) zone.Policy
}

type Validator struct {
	policies PolicySource
}

func NewValidator(policies PolicySource) *Validator {
	return &Validator{policies: policies}
}

// CanAccessZone reports whether v can serve z. An allow-list hit always
// wins; otherwise access tags must overlap, the category must not be
// forbidden and the vehicle class terrain rule must hold.
func CanAccessZone(z zone.Zone, v vehicle.Type) bool {
	if z.Allows(v.ID) {
		return true
	}
	if !z.Access.Intersects(v.Access) || v.Forbids(z.Category) {
		return false
	}
	switch v.Class {
	case vehicle.ClassAir:
		return z.Category == zone.CategoryAirport || z.Category == zone.CategoryAirstrip ||
			z.Access.Has(zone.AccessAir)
	case vehicle.ClassWater:
		return z.Access.HasAny(zone.AccessWater, zone.AccessPort)
	case vehicle.ClassAmphibious:
		return z.Access.HasAny(zone.AccessWater, zone.AccessAir, zone.AccessSeaplane)
	default:
		return true
	}
}

func (v *Validator) CheckPickup(z zone.Zone) error {
	p := v.policies.Policy(z.Restriction)
	if !p.PickupAllowed {
		return fmt.Errorf("%w: pickup at %s: %s", ErrZoneRestricted, z.Name, p.Message)
	}
	return nil
}

func (v *Validator) CheckDropoff(z zone.Zone) error {
	p := v.policies.Policy(z.Restriction)
	if !p.DropoffAllowed {
		return fmt.Errorf("%w: dropoff at %s: %s", ErrZoneRestricted, z.Name, p.Message)
	}
	return nil
}

// CheckRoute validates a request before it is stored. dest may be nil.
func (v *Validator) CheckRoute(pickup zone.Zone, dest *zone.Zone, vt vehicle.Type) error {
	if err := v.CheckPickup(pickup); err != nil {
		return err
	}
	if dest != nil {
		if err := v.CheckDropoff(*dest); err != nil {
			return err
		}
	}
	return checkAccess(pickup, dest, vt)
}

// CheckDriver re-evaluates a request against the vehicles a driver owns.
func (v *Validator) CheckDriver(owned []string, vt vehicle.Type, pickup zone.Zone, dest *zone.Zone) error {
	if !contains(owned, vt.ID) {
		return fmt.Errorf("%w: driver has no %s", ErrIncompatibleVehicle, vt.ID)
	}
	return v.CheckRoute(pickup, dest, vt)
}

func checkAccess(pickup zone.Zone, dest *zone.Zone, vt vehicle.Type) error {
	if !CanAccessZone(pickup, vt) {
		return fmt.Errorf("%w: %s cannot reach %s", ErrIncompatibleVehicle, vt.ID, pickup.Name)
	}
	if dest != nil && !CanAccessZone(*dest, vt) {
		return fmt.Errorf("%w: %s cannot reach %s", ErrIncompatibleVehicle, vt.ID, dest.Name)
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
