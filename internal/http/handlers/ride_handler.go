// README: Ride handlers shared by both parties: get, event log, cancel, dispatch status.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"zonetaxi/internal/http/middleware"
	"zonetaxi/internal/modules/dispatch"
	"zonetaxi/internal/modules/ride"
)

type RideHandler struct {
	rides    *ride.Service
	dispatch *dispatch.Service
}

func NewRideHandler(rides *ride.Service, dispatchSvc *dispatch.Service) *RideHandler {
	return &RideHandler{rides: rides, dispatch: dispatchSvc}
}

// Get shows a request to its passenger, its driver, any driver while it is
// still pending, and admins.
func (h *RideHandler) Get(c *gin.Context) {
	r, ok := h.load(c)
	if !ok {
		return
	}
	writeJSON(c, http.StatusOK, requestOf(r))
}

func (h *RideHandler) Events(c *gin.Context) {
	r, ok := h.load(c)
	if !ok {
		return
	}
	events, err := h.rides.Events(c.Request.Context(), r.ID)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"events": eventsOf(events)})
}

type cancelReq struct {
	Reason string `json:"reason"`
}

func (h *RideHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req cancelReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid json")
			return
		}
	}
	cmd := ride.CancelCommand{RequestID: id, ActorID: caller(c), Reason: req.Reason}
	switch middleware.CallerRole(c) {
	case middleware.RoleAdmin:
		cmd.ActorType = ride.ActorAdmin
	case middleware.RoleDriver:
		cmd.ActorType = ride.ActorDriver
		// A driver may also cancel a ride they booked as a passenger.
		if r, err := h.rides.Get(c.Request.Context(), id); err == nil && r.PassengerID == cmd.ActorID {
			cmd.ActorType = ride.ActorPassenger
		}
	default:
		cmd.ActorType = ride.ActorPassenger
	}
	r, err := h.rides.Cancel(c.Request.Context(), cmd)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, requestOf(r))
}

func (h *RideHandler) DispatchStatus(c *gin.Context) {
	r, ok := h.load(c)
	if !ok {
		return
	}
	st, err := h.dispatch.Status(c.Request.Context(), r.ID)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, st)
}

func (h *RideHandler) load(c *gin.Context) (*ride.Request, bool) {
	id, ok := pathID(c)
	if !ok {
		return nil, false
	}
	r, err := h.rides.Get(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return nil, false
	}
	uid := caller(c)
	visible := isAdmin(c) || r.PassengerID == uid || r.AssignedTo(uid) ||
		(r.Status == ride.StatusPending && middleware.CallerRole(c) == middleware.RoleDriver)
	if !visible {
		writeError(c, http.StatusForbidden, ride.ErrForbidden.Error())
		return nil, false
	}
	return r, true
}
