// README: Community admin handlers: statistics, rate overrides and ledger accounts.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"zonetaxi/internal/modules/pricing"
	"zonetaxi/internal/modules/ride"
	"zonetaxi/internal/modules/settlement"
	"zonetaxi/internal/types"
)

type CommunityHandler struct {
	rides   *ride.Service
	pricing *pricing.Service
	ledger  settlement.Ledger
}

// NewCommunityHandler accepts a nil ledger; account routes then answer 501.
func NewCommunityHandler(rides *ride.Service, pricingSvc *pricing.Service, l settlement.Ledger) *CommunityHandler {
	return &CommunityHandler{rides: rides, pricing: pricingSvc, ledger: l}
}

func (h *CommunityHandler) Stats(c *gin.Context) {
	st, err := h.rides.Stats(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	counts := make(map[string]int, len(st.Requests))
	for s, n := range st.Requests {
		counts[string(s)] = n
	}
	writeJSON(c, http.StatusOK, gin.H{
		"community_id":      st.CommunityID,
		"requests":          counts,
		"revenue":           money(st.Revenue),
		"available_drivers": st.AvailableDrivers,
		"busy_drivers":      st.BusyDrivers,
	})
}

func (h *CommunityHandler) Rates(c *gin.Context) {
	calc, err := h.pricing.CalculatorFor(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, ratesView(calc.Rates()))
}

type ratesReq struct {
	Enabled          *bool   `json:"enabled"`
	BaseRate         float64 `json:"base_rate"`
	PerKmRate        float64 `json:"per_km_rate"`
	WaitRate         float64 `json:"wait_rate"`
	DriverCommission float64 `json:"driver_commission"`
	Currency         string  `json:"currency"`
}

func (h *CommunityHandler) SetRates(c *gin.Context) {
	var req ratesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	r := pricing.Rates{
		Enabled:          req.Enabled == nil || *req.Enabled,
		BaseRate:         req.BaseRate,
		PerKmRate:        req.PerKmRate,
		WaitRate:         req.WaitRate,
		DriverCommission: req.DriverCommission,
		Currency:         strings.ToUpper(req.Currency),
	}
	if err := h.pricing.SetRates(c.Request.Context(), c.Param("id"), r); err != nil {
		writeDomainError(c, err)
		return
	}
	h.Rates(c)
}

func ratesView(r pricing.Rates) gin.H {
	return gin.H{
		"enabled":           r.Enabled,
		"base_rate":         r.BaseRate,
		"per_km_rate":       r.PerKmRate,
		"wait_rate":         r.WaitRate,
		"driver_commission": r.DriverCommission,
		"currency":          r.Currency,
	}
}

// Balance answers for the caller, or for any account when the caller is an admin.
func (h *CommunityHandler) Balance(c *gin.Context) {
	if h.ledger == nil {
		writeError(c, http.StatusNotImplemented, "no ledger configured")
		return
	}
	account := caller(c)
	if id := c.Param("id"); id != "" && id != "me" {
		if !isAdmin(c) && types.ID(id) != account {
			writeError(c, http.StatusForbidden, "forbidden")
			return
		}
		account = types.ID(id)
	}
	bal, err := h.ledger.Balance(c.Request.Context(), account)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"account_id": account, "balance": money(bal)})
}

type creditReq struct {
	Amount    float64 `json:"amount"`
	Reference string  `json:"reference"`
}

// Credit tops up an account. Admin only.
func (h *CommunityHandler) Credit(c *gin.Context) {
	if h.ledger == nil {
		writeError(c, http.StatusNotImplemented, "no ledger configured")
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req creditReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 || !types.ValidAmount(req.Amount) {
		writeError(c, http.StatusBadRequest, "amount out of range")
		return
	}
	bal, err := h.ledger.Balance(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	ref := req.Reference
	if ref == "" {
		ref = "admin:" + string(caller(c))
	}
	if err := h.ledger.Credit(c.Request.Context(), id, types.MoneyFromFloat(req.Amount, bal.Currency), ref); err != nil {
		writeDomainError(c, err)
		return
	}
	h.Balance(c)
}
