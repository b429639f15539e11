// README: Account ledger contract shared by the Postgres and in-memory implementations.
package ledger

import (
	"errors"
	"time"

	"zonetaxi/internal/types"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid ledger amount")
)

type Entry struct {
	AccountID types.ID
	Delta     types.Money
	Reference string
	CreatedAt time.Time
}

func checkAmount(account types.ID, amount types.Money) error {
	if account == "" || amount.Amount < 0 {
		return ErrInvalidAmount
	}
	return nil
}
