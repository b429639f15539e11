// README: Driver notification contract and composite/log notifiers.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"zonetaxi/internal/logger"
	"zonetaxi/internal/types"
)

var (
	ErrNoSession     = errors.New("no live session for driver")
	ErrNoDeviceToken = errors.New("driver has no device token")
)

type Recipient struct {
	DriverID    types.ID
	DeviceToken string
}

// Offer is the payload a driver receives for a pending request.
type Offer struct {
	RequestID     types.ID  `json:"request_id"`
	CommunityID   string    `json:"community_id"`
	PickupZoneID  string    `json:"pickup_zone_id"`
	PickupLabel   string    `json:"pickup_label,omitempty"`
	DestinationID string    `json:"destination_zone_id,omitempty"`
	VehicleType   string    `json:"vehicle_type"`
	DistanceKm    *float64  `json:"distance_km,omitempty"`
	EstimatedCost *float64  `json:"estimated_cost,omitempty"`
	Currency      string    `json:"currency,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	Rebroadcast   bool      `json:"rebroadcast,omitempty"`
}

func (o Offer) Summary() string {
	s := fmt.Sprintf("%s pickup at %s", o.VehicleType, o.PickupZoneID)
	if o.PickupLabel != "" {
		s += " (" + o.PickupLabel + ")"
	}
	if o.EstimatedCost != nil {
		s += fmt.Sprintf(", est. %.2f %s", *o.EstimatedCost, o.Currency)
	}
	return s
}

type Notifier interface {
	Notify(ctx context.Context, to Recipient, offer Offer) error
}

// Multi tries each channel in order and stops at the first delivery.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, to Recipient, offer Offer) error {
	if len(m) == 0 {
		return nil
	}
	var errs []error
	for _, n := range m {
		err := n.Notify(ctx, to, offer)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Log writes offers to the log only. Used when no channel is configured.
type Log struct {
	L logger.Logger
}

func (n Log) Notify(_ context.Context, to Recipient, offer Offer) error {
	logger.OrNop(n.L).Infof("offer %s to driver %s: %s", offer.RequestID, to.DriverID, offer.Summary())
	return nil
}
