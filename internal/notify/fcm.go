// README: Firebase Cloud Messaging push notifier for drivers' devices.
package notify

import (
	"context"
	"fmt"
	"strconv"

	"firebase.google.com/go/v4/messaging"

	"zonetaxi/internal/logger"
)

type messageSender interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
}

type FCM struct {
	client messageSender
	log    logger.Logger
}

func NewFCM(client *messaging.Client, log logger.Logger) *FCM {
	return &FCM{client: client, log: logger.OrNop(log)}
}

// Notify sends a data message to the driver's registered device.
func (f *FCM) Notify(ctx context.Context, to Recipient, offer Offer) error {
	if to.DeviceToken == "" {
		return ErrNoDeviceToken
	}
	msg := &messaging.Message{
		Token: to.DeviceToken,
		Data:  offerData(offer),
		Notification: &messaging.Notification{
			Title: "New ride request",
			Body:  offer.Summary(),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	}
	messageID, err := f.client.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("sending FCM to driver %s: %w", to.DriverID, err)
	}
	f.log.Debugf("FCM sent for request %s, message_id=%s", offer.RequestID, messageID)
	return nil
}

func offerData(o Offer) map[string]string {
	data := map[string]string{
		"type":           "ride_offer",
		"request_id":     o.RequestID.String(),
		"community_id":   o.CommunityID,
		"pickup_zone_id": o.PickupZoneID,
		"vehicle_type":   o.VehicleType,
	}
	if o.DestinationID != "" {
		data["destination_zone_id"] = o.DestinationID
	}
	if o.DistanceKm != nil {
		data["distance_km"] = strconv.FormatFloat(*o.DistanceKm, 'f', 2, 64)
	}
	if o.EstimatedCost != nil {
		data["estimated_cost"] = strconv.FormatFloat(*o.EstimatedCost, 'f', 2, 64)
	}
	return data
}
