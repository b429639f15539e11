// README: JSON views of domain records.
package handlers

import (
	"time"

	"zonetaxi/internal/modules/driver"
	"zonetaxi/internal/modules/rating"
	"zonetaxi/internal/modules/ride"
	"zonetaxi/internal/modules/vehicle"
	"zonetaxi/internal/modules/zone"
	"zonetaxi/internal/types"
)

type moneyView struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

func money(m types.Money) moneyView {
	return moneyView{Amount: m.Float(), Currency: m.Currency}
}

func moneyPtr(m *types.Money) *moneyView {
	if m == nil {
		return nil
	}
	v := money(*m)
	return &v
}

type requestView struct {
	ID                types.ID    `json:"id"`
	CommunityID       string      `json:"community_id"`
	PassengerID       types.ID    `json:"passenger_id"`
	DriverID          *types.ID   `json:"driver_id,omitempty"`
	PickupZoneID      string      `json:"pickup_zone_id"`
	DestinationZoneID string      `json:"destination_zone_id,omitempty"`
	VehicleType       string      `json:"vehicle_type"`
	Instructions      string      `json:"instructions,omitempty"`
	DistanceKm        *float64    `json:"distance_km,omitempty"`
	EstimatedCost     *moneyView  `json:"estimated_cost,omitempty"`
	FinalCost         *moneyView  `json:"final_cost,omitempty"`
	Status            ride.Status `json:"status"`
	CreatedAt         time.Time   `json:"created_at"`
	AcceptedAt        *time.Time  `json:"accepted_at,omitempty"`
	StartedAt         *time.Time  `json:"started_at,omitempty"`
	CompletedAt       *time.Time  `json:"completed_at,omitempty"`
	CancelledAt       *time.Time  `json:"cancelled_at,omitempty"`
	CancelReason      *string     `json:"cancel_reason,omitempty"`
}

func requestOf(r *ride.Request) requestView {
	return requestView{
		ID:                r.ID,
		CommunityID:       r.CommunityID,
		PassengerID:       r.PassengerID,
		DriverID:          r.DriverID,
		PickupZoneID:      r.PickupZoneID,
		DestinationZoneID: r.DestinationZoneID,
		VehicleType:       r.VehicleType,
		Instructions:      r.Instructions,
		DistanceKm:        r.DistanceKm,
		EstimatedCost:     moneyPtr(r.EstimatedCost),
		FinalCost:         moneyPtr(r.FinalCost),
		Status:            r.Status,
		CreatedAt:         r.CreatedAt,
		AcceptedAt:        r.AcceptedAt,
		StartedAt:         r.StartedAt,
		CompletedAt:       r.CompletedAt,
		CancelledAt:       r.CancelledAt,
		CancelReason:      r.CancelReason,
	}
}

func requestsOf(rs []*ride.Request) []requestView {
	out := make([]requestView, 0, len(rs))
	for _, r := range rs {
		out = append(out, requestOf(r))
	}
	return out
}

type eventView struct {
	ID         int64       `json:"id"`
	FromStatus ride.Status `json:"from_status"`
	ToStatus   ride.Status `json:"to_status"`
	ActorType  string      `json:"actor_type"`
	ActorID    *types.ID   `json:"actor_id,omitempty"`
	Reason     string      `json:"reason,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

func eventsOf(es []ride.Event) []eventView {
	out := make([]eventView, 0, len(es))
	for _, e := range es {
		out = append(out, eventView{
			ID: e.ID, FromStatus: e.FromStatus, ToStatus: e.ToStatus,
			ActorType: e.ActorType, ActorID: e.ActorID, Reason: e.Reason, CreatedAt: e.CreatedAt,
		})
	}
	return out
}

type driverView struct {
	ID            types.ID      `json:"id"`
	CommunityID   string        `json:"community_id"`
	DisplayName   string        `json:"display_name"`
	Vehicles      []string      `json:"vehicles"`
	Status        driver.Status `json:"status"`
	TotalTrips    int           `json:"total_trips"`
	TotalEarnings moneyView     `json:"total_earnings"`
	Rating        float64       `json:"rating"`
	Level         int           `json:"level"`
	LevelName     string        `json:"level_name"`
	BonusRate     float64       `json:"bonus_rate"`
}

func driverOf(d *driver.Driver) driverView {
	lvl := d.Level()
	return driverView{
		ID:            d.ID,
		CommunityID:   d.CommunityID,
		DisplayName:   d.DisplayName,
		Vehicles:      d.Vehicles,
		Status:        d.Status,
		TotalTrips:    d.TotalTrips,
		TotalEarnings: money(d.TotalEarnings),
		Rating:        d.Rating,
		Level:         lvl.Number,
		LevelName:     lvl.Name,
		BonusRate:     driver.BonusRate(d.TotalTrips, d.Rating),
	}
}

type zoneView struct {
	ID              string   `json:"id"`
	Kind            string   `json:"kind"`
	Name            string   `json:"name"`
	Coordinates     string   `json:"coordinates,omitempty"`
	Category        string   `json:"category"`
	Restriction     string   `json:"restriction"`
	PickupAllowed   bool     `json:"pickup_allowed"`
	DropoffAllowed  bool     `json:"dropoff_allowed"`
	PolicyMessage   string   `json:"policy_message"`
	Access          []string `json:"access"`
	AllowedVehicles []string `json:"allowed_vehicles,omitempty"`
	Description     string   `json:"description,omitempty"`
	Landmarks       []string `json:"landmarks,omitempty"`
}

func zoneOf(z zone.Zone, p zone.Policy) zoneView {
	access := make([]string, 0, len(z.Access))
	for _, a := range z.Access {
		access = append(access, string(a))
	}
	return zoneView{
		ID:              z.ID,
		Kind:            string(z.Kind),
		Name:            z.Name,
		Coordinates:     z.Label(),
		Category:        string(z.Category),
		Restriction:     string(z.Restriction),
		PickupAllowed:   p.PickupAllowed,
		DropoffAllowed:  p.DropoffAllowed,
		PolicyMessage:   p.Message,
		Access:          access,
		AllowedVehicles: z.AllowedVehicles,
		Description:     z.Description,
		Landmarks:       z.Landmarks,
	}
}

type vehicleView struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Emoji           string  `json:"emoji,omitempty"`
	Description     string  `json:"description,omitempty"`
	Capacity        int     `json:"capacity"`
	SpeedMultiplier float64 `json:"speed_multiplier"`
	CostMultiplier  float64 `json:"cost_multiplier"`
	Class           string  `json:"class"`
}

func vehicleOf(t vehicle.Type) vehicleView {
	return vehicleView{
		ID: t.ID, Name: t.Name, Emoji: t.Emoji, Description: t.Description,
		Capacity: t.Capacity, SpeedMultiplier: t.SpeedMultiplier, CostMultiplier: t.CostMultiplier,
		Class: string(t.Class),
	}
}

type ratingView struct {
	ID        int64            `json:"id"`
	RequestID types.ID         `json:"request_id"`
	Direction rating.Direction `json:"direction"`
	RaterID   types.ID         `json:"rater_id"`
	RateeID   types.ID         `json:"ratee_id"`
	Score     int              `json:"score"`
	Comment   string           `json:"comment,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

func ratingOf(r rating.Rating) ratingView {
	return ratingView{
		ID: r.ID, RequestID: r.RequestID, Direction: r.Direction, RaterID: r.RaterID,
		RateeID: r.RateeID, Score: r.Score, Comment: r.Comment, CreatedAt: r.CreatedAt,
	}
}
