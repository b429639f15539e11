// README: Location handlers: zone and vehicle catalog lookups, position reports, fare quotes.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"zonetaxi/internal/http/middleware"
	"zonetaxi/internal/modules/compat"
	"zonetaxi/internal/modules/location"
	"zonetaxi/internal/modules/pricing"
	"zonetaxi/internal/modules/vehicle"
	"zonetaxi/internal/modules/zone"
	"zonetaxi/internal/types"
)

type LocationHandler struct {
	zones     *zone.Registry
	vehicles  *vehicle.Catalog
	location  *location.Service
	pricing   *pricing.Service
	validator *compat.Validator
}

func NewLocationHandler(zones *zone.Registry, vehicles *vehicle.Catalog, loc *location.Service, pricingSvc *pricing.Service, validator *compat.Validator) *LocationHandler {
	return &LocationHandler{zones: zones, vehicles: vehicles, location: loc, pricing: pricingSvc, validator: validator}
}

func (h *LocationHandler) ListZones(c *gin.Context) {
	kind := c.Query("kind")
	all := h.zones.All()
	out := make([]zoneView, 0, len(all))
	for _, z := range all {
		if kind != "" && string(z.Kind) != kind {
			continue
		}
		out = append(out, zoneOf(z, h.zones.Policy(z.Restriction)))
	}
	writeJSON(c, http.StatusOK, gin.H{"zones": out})
}

func (h *LocationHandler) GetZone(c *gin.Context) {
	z, err := h.zones.Get(c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, zoneOf(z, h.zones.Policy(z.Restriction)))
}

// FindZone resolves free text such as "airport" or "B2-5".
func (h *LocationHandler) FindZone(c *gin.Context) {
	z, err := h.zones.Find(c.Query("q"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, zoneOf(z, h.zones.Policy(z.Restriction)))
}

func (h *LocationHandler) ZoneAt(c *gin.Context) {
	x, errX := strconv.ParseFloat(c.Query("x"), 64)
	y, errY := strconv.ParseFloat(c.Query("y"), 64)
	if errX != nil || errY != nil {
		writeError(c, http.StatusBadRequest, "x and y are required")
		return
	}
	res := h.location.Resolve(x, y)
	writeJSON(c, http.StatusOK, gin.H{
		"cell":      res.Cell,
		"synthetic": res.Zone.Synthetic,
		"zone":      zoneOf(res.Zone, h.zones.Policy(res.Zone.Restriction)),
	})
}

type positionReq struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// UpdatePosition records the caller's position; drivers report as drivers.
func (h *LocationHandler) UpdatePosition(c *gin.Context) {
	var req positionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	userType := location.UserTypePassenger
	if middleware.CallerRole(c) == middleware.RoleDriver {
		userType = location.UserTypeDriver
	}
	res, err := h.location.Update(c.Request.Context(), location.Update{
		UserID:   caller(c),
		UserType: userType,
		X:        req.X,
		Y:        req.Y,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"cell": res.Cell,
		"zone": zoneOf(res.Zone, h.zones.Policy(res.Zone.Restriction)),
	})
}

func (h *LocationHandler) Vehicles(c *gin.Context) {
	all := h.vehicles.All()
	out := make([]vehicleView, 0, len(all))
	for _, t := range all {
		out = append(out, vehicleOf(t))
	}
	writeJSON(c, http.StatusOK, gin.H{"vehicles": out})
}

// EstimateFare quotes a trip without creating it. Incompatible routes are
// still quoted and flagged.
func (h *LocationHandler) EstimateFare(c *gin.Context) {
	vt, err := h.vehicles.Get(c.Query("vehicle_type"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	route, err := h.location.Route(c.Query("from"), c.Query("to"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	quote, err := h.pricing.Estimate(c.Request.Context(), c.Query("community_id"), pricing.PricingRequest{
		DistanceKm:     route.DistanceKm,
		CostMultiplier: vt.CostMultiplier,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	resp := gin.H{
		"from":         route.From.ID,
		"to":           route.To.ID,
		"vehicle_type": vt.ID,
		"distance_km":  route.DistanceKm,
		"total":        money(quote.Total),
		"breakdown":    breakdown(quote, quote.Total.Currency),
		"allowed":      true,
	}
	if err := h.validator.CheckRoute(route.From, &route.To, vt); err != nil {
		resp["allowed"] = false
		resp["reason"] = err.Error()
	}
	writeJSON(c, http.StatusOK, resp)
}

func breakdown(q pricing.PricingResult, currency string) map[string]moneyView {
	out := make(map[string]moneyView, len(q.Breakdown))
	for k, v := range q.Breakdown {
		out[k] = money(types.Money{Amount: v, Currency: currency})
	}
	return out
}
