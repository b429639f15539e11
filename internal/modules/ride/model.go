// README: Ride request aggregate, status definitions and transition table.
package ride

import (
	"time"

	"zonetaxi/internal/types"
)

type Status string

const (
	StatusNone       Status = "none"
	StatusPending    Status = "pending"
	StatusAccepted   Status = "accepted"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Active reports whether a request in this status blocks its passenger from
// opening another one.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusAccepted || s == StatusInProgress
}

const (
	ActorPassenger = "passenger"
	ActorDriver    = "driver"
	ActorSystem    = "system"
	ActorAdmin     = "admin"
)

const ReasonExpired = "expired"

type Request struct {
	ID                types.ID
	CommunityID       string
	PassengerID       types.ID
	DriverID          *types.ID
	PickupZoneID      string
	DestinationZoneID string
	VehicleType       string
	Instructions      string
	DistanceKm        *float64
	EstimatedCost     *types.Money
	FinalCost         *types.Money
	Status            Status
	StatusVersion     int
	CreatedAt         time.Time
	AcceptedAt        *time.Time
	StartedAt         *time.Time
	CompletedAt       *time.Time
	CancelledAt       *time.Time
	CancelReason      *string
}

func (r *Request) HasDestination() bool {
	return r.DestinationZoneID != ""
}

func (r *Request) AssignedTo(driverID types.ID) bool {
	return r.DriverID != nil && *r.DriverID == driverID
}

type Event struct {
	ID          int64
	RequestID   types.ID
	CommunityID string
	FromStatus  Status
	ToStatus    Status
	ActorType   string
	ActorID     *types.ID
	Reason      string
	CreatedAt   time.Time
}

// Transition is a conditional status change: it applies only while the row
// still has status From at version Version.
type Transition struct {
	RequestID types.ID
	From      Status
	To        Status
	Version   int
	DriverID  *types.ID
	FinalCost *types.Money
	Reason    *string
	At        time.Time
}

type PendingFilter struct {
	CommunityID      string
	VehicleTypes     []string
	ExcludePassenger types.ID
	Limit            int
}

type Stats struct {
	CommunityID      string
	Requests         map[Status]int
	Revenue          types.Money
	AvailableDrivers int
	BusyDrivers      int
}

// AllowedTransitions is the request lifecycle as code.
var AllowedTransitions = map[Status][]Status{
	StatusPending:    {StatusAccepted, StatusCancelled},
	StatusAccepted:   {StatusInProgress, StatusCompleted, StatusCancelled},
	StatusInProgress: {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}
