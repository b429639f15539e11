// README: Reported player positions and their resolved zones.
package location

import (
	"time"

	"zonetaxi/internal/modules/zone"
	"zonetaxi/internal/types"
)

const (
	UserTypeDriver    = "driver"
	UserTypePassenger = "passenger"
)

type Position struct {
	UserID     types.ID
	UserType   string
	X          float64
	Y          float64
	ZoneID     string
	RecordedAt time.Time
}

type Resolution struct {
	Zone zone.Zone
	Cell string
}

type Route struct {
	From       zone.Zone
	To         zone.Zone
	DistanceKm float64
}
