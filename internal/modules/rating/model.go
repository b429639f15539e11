// README: Trip ratings between passengers and drivers.
package rating

import (
	"errors"
	"time"

	"zonetaxi/internal/types"
)

var (
	ErrBadRequest     = errors.New("bad rating request")
	ErrAlreadyRated   = errors.New("trip already rated in this direction")
	ErrNotCompleted   = errors.New("only completed trips can be rated")
	ErrNotParticipant = errors.New("rater did not take part in this trip")
)

type Direction string

const (
	PassengerToDriver Direction = "passenger_to_driver"
	DriverToPassenger Direction = "driver_to_passenger"
)

func (d Direction) Valid() bool {
	return d == PassengerToDriver || d == DriverToPassenger
}

const (
	MinScore = 1
	MaxScore = 5
)

type Rating struct {
	ID        int64
	RequestID types.ID
	Direction Direction
	RaterID   types.ID
	RateeID   types.ID
	Score     int
	Comment   string
	CreatedAt time.Time
}

// Summary aggregates the scores an account received in one direction.
type Summary struct {
	AccountID types.ID
	Direction Direction
	Count     int
	Average   float64
	StdDev    float64
}
