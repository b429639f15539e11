// README: Pricing rates per community and fare breakdown types.
package pricing

import (
	"errors"
	"fmt"

	"zonetaxi/internal/types"
)

var ErrInvalidRates = errors.New("invalid pricing rates")

type Rates struct {
	Enabled          bool
	BaseRate         float64
	PerKmRate        float64
	WaitRate         float64
	DriverCommission float64
	Currency         string
}

func DefaultRates() Rates {
	return Rates{
		Enabled:          true,
		BaseRate:         500.0,
		PerKmRate:        20.5,
		WaitRate:         2.0,
		DriverCommission: 0.85,
		Currency:         types.DefaultCurrency,
	}
}

func (r Rates) Validate() error {
	if r.BaseRate < 0 || r.PerKmRate < 0 || r.WaitRate < 0 {
		return fmt.Errorf("%w: rates must be non-negative", ErrInvalidRates)
	}
	if r.DriverCommission < 0 || r.DriverCommission > 1 {
		return fmt.Errorf("%w: driver commission must be within [0,1]", ErrInvalidRates)
	}
	return nil
}

type PricingRequest struct {
	DistanceKm     float64
	CostMultiplier float64
}

type PricingResult struct {
	Total     types.Money
	Breakdown map[string]int64
}

// Split divides a final fare between driver and platform.
type Split struct {
	Fare     types.Money
	Driver   types.Money
	Bonus    types.Money
	Platform types.Money
}
