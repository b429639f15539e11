// README: Common money value object used across modules.
package types

import (
	"fmt"
	"math"
)

// DefaultCurrency is the in-game credit unit.
const DefaultCurrency = "CR"

// MaxAmount bounds amounts accepted from callers, in whole credits. Larger
// values would overflow minor units.
const MaxAmount = 1e13

// Money is held in minor units (hundredths of a credit).
type Money struct {
	Amount   int64
	Currency string
}

// MoneyFromFloat rounds v to two decimals.
func MoneyFromFloat(v float64, currency string) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{Amount: int64(math.Round(v * 100)), Currency: currency}
}

// ValidAmount reports whether v is a finite amount in [0, MaxAmount].
func ValidAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v <= MaxAmount
}

func (m Money) Float() float64 {
	return float64(m.Amount) / 100
}

func (m Money) IsZero() bool {
	return m.Amount == 0
}

func (m Money) Add(o Money) Money {
	return Money{Amount: m.Amount + o.Amount, Currency: m.currency(o)}
}

func (m Money) Sub(o Money) Money {
	return Money{Amount: m.Amount - o.Amount, Currency: m.currency(o)}
}

func (m Money) String() string {
	return fmt.Sprintf("%.2f %s", m.Float(), m.Currency)
}

func (m Money) currency(o Money) string {
	if m.Currency != "" {
		return m.Currency
	}
	return o.Currency
}
