// README: Base handler utilities (JSON helpers, caller identity, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"zonetaxi/internal/http/middleware"
	"zonetaxi/internal/modules/driver"
	"zonetaxi/internal/modules/location"
	"zonetaxi/internal/modules/pricing"
	"zonetaxi/internal/modules/rating"
	"zonetaxi/internal/modules/ride"
	"zonetaxi/internal/modules/zone"
	"zonetaxi/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

// isValidID accepts uuids and provider uids: alphanumerics plus '-' and '_', at most 128 chars.
func isValidID(v string) bool {
	if v == "" || len(v) > 128 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || c == '_' {
			continue
		}
		return false
	}
	return true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func caller(c *gin.Context) types.ID {
	return types.ID(middleware.CallerUID(c))
}

func isAdmin(c *gin.Context) bool {
	return middleware.CallerRole(c) == middleware.RoleAdmin
}

// pathID reads and validates the :id parameter, writing 400 on failure.
func pathID(c *gin.Context) (types.ID, bool) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid id")
		return "", false
	}
	return types.ID(id), true
}

// writeDomainError maps module sentinels to HTTP statuses.
func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ride.ErrBadRequest),
		errors.Is(err, ride.ErrUnknownVehicle),
		errors.Is(err, driver.ErrBadRequest),
		errors.Is(err, rating.ErrBadRequest),
		errors.Is(err, location.ErrBadRequest),
		errors.Is(err, pricing.ErrInvalidRates):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ride.ErrForbidden),
		errors.Is(err, rating.ErrNotParticipant):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, ride.ErrNotFound),
		errors.Is(err, ride.ErrZoneNotFound),
		errors.Is(err, ride.ErrDriverNotFound),
		errors.Is(err, driver.ErrNotFound),
		errors.Is(err, zone.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ride.ErrActiveRequestExists),
		errors.Is(err, ride.ErrNotPending),
		errors.Is(err, ride.ErrNotActive),
		errors.Is(err, ride.ErrConflictingState),
		errors.Is(err, driver.ErrAlreadyRegistered),
		errors.Is(err, rating.ErrAlreadyRated),
		errors.Is(err, rating.ErrNotCompleted):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, ride.ErrZoneRestricted),
		errors.Is(err, ride.ErrIncompatibleVehicle):
		writeError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ride.ErrDriverUnavailable):
		writeError(c, http.StatusLocked, err.Error())
	case errors.Is(err, pricing.ErrNoRateStore):
		writeError(c, http.StatusNotImplemented, err.Error())
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
