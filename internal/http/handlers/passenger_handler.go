// README: Passenger handlers: request a ride, look up the caller's open ride.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"zonetaxi/internal/modules/ride"
	"zonetaxi/internal/types"
)

type PassengerHandler struct {
	rides *ride.Service
}

func NewPassengerHandler(rides *ride.Service) *PassengerHandler {
	return &PassengerHandler{rides: rides}
}

type requestRideReq struct {
	CommunityID       string `json:"community_id"`
	PassengerID       string `json:"passenger_id"`
	PickupZoneID      string `json:"pickup_zone_id"`
	DestinationZoneID string `json:"destination_zone_id"`
	VehicleType       string `json:"vehicle_type"`
	Instructions      string `json:"instructions"`
}

func (h *PassengerHandler) RequestRide(c *gin.Context) {
	var req requestRideReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	uid := caller(c)
	if req.PassengerID != "" && types.ID(req.PassengerID) != uid {
		writeError(c, http.StatusForbidden, "cannot request a ride for another passenger")
		return
	}
	if req.CommunityID == "" || req.PickupZoneID == "" || req.VehicleType == "" {
		writeError(c, http.StatusBadRequest, "missing fields")
		return
	}
	r, err := h.rides.Create(c.Request.Context(), ride.CreateCommand{
		CommunityID:       req.CommunityID,
		PassengerID:       uid,
		PickupZoneID:      req.PickupZoneID,
		DestinationZoneID: req.DestinationZoneID,
		VehicleType:       req.VehicleType,
		Instructions:      req.Instructions,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, requestOf(r))
}

// Active returns the caller's open request as passenger or as driver.
func (h *PassengerHandler) Active(c *gin.Context) {
	r, err := h.rides.GetActive(c.Request.Context(), caller(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, requestOf(r))
}
