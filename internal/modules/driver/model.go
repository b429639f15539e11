// README: Driver aggregate, availability status and dispatch ordering.
package driver

import (
	"errors"
	"sort"
	"time"

	"zonetaxi/internal/types"
)

var (
	ErrNotFound          = errors.New("driver not found")
	ErrAlreadyRegistered = errors.New("driver already registered")
	ErrBadRequest        = errors.New("bad driver request")
)

type Status string

const (
	StatusAvailable Status = "available"
	StatusBusy      Status = "busy"
	StatusOffline   Status = "offline"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusBusy, StatusOffline:
		return true
	}
	return false
}

type Driver struct {
	ID            types.ID
	CommunityID   string
	DisplayName   string
	Vehicles      []string
	Status        Status
	TotalTrips    int
	TotalEarnings types.Money
	Rating        float64
	DeviceToken   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (d *Driver) Owns(vehicleType string) bool {
	for _, v := range d.Vehicles {
		if v == vehicleType {
			return true
		}
	}
	return false
}

func (d *Driver) Level() Level {
	return LevelFor(d.TotalTrips)
}

// SortForDispatch orders by rating desc, then completed trips desc, then id.
func SortForDispatch(ds []*Driver) {
	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].Rating != ds[j].Rating {
			return ds[i].Rating > ds[j].Rating
		}
		if ds[i].TotalTrips != ds[j].TotalTrips {
			return ds[i].TotalTrips > ds[j].TotalTrips
		}
		return ds[i].ID < ds[j].ID
	})
}
