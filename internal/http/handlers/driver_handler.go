// README: Driver handlers: profile, availability, pending list, accept/start/complete.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"zonetaxi/internal/modules/driver"
	"zonetaxi/internal/modules/ride"
	"zonetaxi/internal/types"
)

type DriverHandler struct {
	drivers *driver.Service
	rides   *ride.Service
}

func NewDriverHandler(drivers *driver.Service, rides *ride.Service) *DriverHandler {
	return &DriverHandler{drivers: drivers, rides: rides}
}

type registerDriverReq struct {
	CommunityID string   `json:"community_id"`
	DisplayName string   `json:"display_name"`
	Vehicles    []string `json:"vehicles"`
	DeviceToken string   `json:"device_token"`
}

func (h *DriverHandler) Register(c *gin.Context) {
	var req registerDriverReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	d, err := h.drivers.Register(c.Request.Context(), driver.RegisterCommand{
		DriverID:    caller(c),
		CommunityID: req.CommunityID,
		DisplayName: req.DisplayName,
		Vehicles:    req.Vehicles,
		DeviceToken: req.DeviceToken,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, driverOf(d))
}

func (h *DriverHandler) Me(c *gin.Context) {
	d, err := h.drivers.Get(c.Request.Context(), caller(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, driverOf(d))
}

type statusReq struct {
	Status string `json:"status"`
}

func (h *DriverHandler) SetStatus(c *gin.Context) {
	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.drivers.SetStatus(c.Request.Context(), caller(c), driver.Status(req.Status)); err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": req.Status})
}

type vehiclesReq struct {
	Vehicles []string `json:"vehicles"`
}

func (h *DriverHandler) SetVehicles(c *gin.Context) {
	var req vehiclesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.drivers.SetVehicles(c.Request.Context(), caller(c), req.Vehicles); err != nil {
		writeDomainError(c, err)
		return
	}
	h.Me(c)
}

type deviceTokenReq struct {
	Token string `json:"token"`
}

func (h *DriverHandler) SetDeviceToken(c *gin.Context) {
	var req deviceTokenReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.drivers.SetDeviceToken(c.Request.Context(), caller(c), req.Token); err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DriverHandler) ListPending(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	rs, err := h.rides.ListPending(c.Request.Context(), caller(c), limit)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"requests": requestsOf(rs)})
}

func (h *DriverHandler) Accept(c *gin.Context) {
	id, driverID, ok := h.driverAction(c)
	if !ok {
		return
	}
	r, err := h.rides.Accept(c.Request.Context(), ride.AcceptCommand{RequestID: id, DriverID: driverID})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, requestOf(r))
}

func (h *DriverHandler) Start(c *gin.Context) {
	id, driverID, ok := h.driverAction(c)
	if !ok {
		return
	}
	r, err := h.rides.Start(c.Request.Context(), ride.StartCommand{RequestID: id, DriverID: driverID})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, requestOf(r))
}

type completeReq struct {
	FinalCost *float64 `json:"final_cost"`
}

func (h *DriverHandler) Complete(c *gin.Context) {
	id, driverID, ok := h.driverAction(c)
	if !ok {
		return
	}
	var req completeReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid json")
			return
		}
	}
	rc, err := h.rides.Complete(c.Request.Context(), ride.CompleteCommand{
		RequestID: id,
		DriverID:  driverID,
		FinalCost: req.FinalCost,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"request": requestOf(rc.Request),
		"split": gin.H{
			"fare":     money(rc.Split.Fare),
			"driver":   money(rc.Split.Driver),
			"bonus":    money(rc.Split.Bonus),
			"platform": money(rc.Split.Platform),
		},
		"settlement": rc.Settlement,
	})
}

// driverAction resolves the request id and the acting driver. A driver_id
// query parameter, when given, must name the caller.
func (h *DriverHandler) driverAction(c *gin.Context) (types.ID, types.ID, bool) {
	id, ok := pathID(c)
	if !ok {
		return "", "", false
	}
	uid := caller(c)
	if q := c.Query("driver_id"); q != "" && types.ID(q) != uid {
		writeError(c, http.StatusForbidden, "cannot act for another driver")
		return "", "", false
	}
	return id, uid, true
}
