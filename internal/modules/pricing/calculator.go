// README: Fare calculator; pure functions over a rate snapshot.
package pricing

import (
	"math"

	"zonetaxi/internal/types"
)

type Calculator struct {
	rates Rates
}

func NewCalculator(r Rates) Calculator {
	if r.Currency == "" {
		r.Currency = types.DefaultCurrency
	}
	return Calculator{rates: r}
}

func (c Calculator) Rates() Rates {
	return c.rates
}

// Fare returns round2((base + km*perKm) * multiplier). Disabled dispatch
// yields zero; negative distances count as zero.
func (c Calculator) Fare(distanceKm, multiplier float64) types.Money {
	return c.Estimate(PricingRequest{DistanceKm: distanceKm, CostMultiplier: multiplier}).Total
}

func (c Calculator) Estimate(req PricingRequest) PricingResult {
	if !c.rates.Enabled {
		return PricingResult{Total: types.Money{Currency: c.rates.Currency}, Breakdown: map[string]int64{}}
	}
	km := math.Max(req.DistanceKm, 0)
	mult := req.CostMultiplier
	if mult <= 0 {
		mult = 1.0
	}
	base := c.rates.BaseRate
	distance := km * c.rates.PerKmRate
	total := types.MoneyFromFloat((base+distance)*mult, c.rates.Currency)
	baseMinor := types.MoneyFromFloat(base, c.rates.Currency).Amount
	distMinor := types.MoneyFromFloat(distance, c.rates.Currency).Amount
	return PricingResult{
		Total: total,
		Breakdown: map[string]int64{
			"base":       baseMinor,
			"distance":   distMinor,
			"multiplier": total.Amount - baseMinor - distMinor,
		},
	}
}

// Split gives the driver fare*commission*(1+bonusRate), capped at the fare.
// The platform keeps the remainder.
func (c Calculator) Split(fare types.Money, bonusRate float64) Split {
	if fare.Amount <= 0 {
		zero := types.Money{Currency: fare.Currency}
		return Split{Fare: fare, Driver: zero, Bonus: zero, Platform: zero}
	}
	share := math.Round(float64(fare.Amount) * c.rates.DriverCommission)
	bonus := math.Round(share * math.Max(bonusRate, 0))
	if share+bonus > float64(fare.Amount) {
		bonus = float64(fare.Amount) - share
	}
	driver := int64(share + bonus)
	return Split{
		Fare:     fare,
		Driver:   types.Money{Amount: driver, Currency: fare.Currency},
		Bonus:    types.Money{Amount: int64(bonus), Currency: fare.Currency},
		Platform: types.Money{Amount: fare.Amount - driver, Currency: fare.Currency},
	}
}
