// README: In-memory ledger for tests and single-process deployments.
package ledger

import (
	"context"
	"sync"
	"time"

	"zonetaxi/internal/types"
)

type Memory struct {
	mu       sync.Mutex
	currency string
	balances map[types.ID]int64
	entries  []Entry
}

func NewMemory(currency string) *Memory {
	if currency == "" {
		currency = types.DefaultCurrency
	}
	return &Memory{currency: currency, balances: make(map[types.ID]int64)}
}

// Seed sets an opening balance without writing an entry.
func (m *Memory) Seed(account types.ID, amount types.Money) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[account] = amount.Amount
}

func (m *Memory) Balance(_ context.Context, account types.ID) (types.Money, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return types.Money{Amount: m.balances[account], Currency: m.currency}, nil
}

func (m *Memory) Debit(_ context.Context, account types.ID, amount types.Money, ref string) error {
	if err := checkAmount(account, amount); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances[account] < amount.Amount {
		return ErrInsufficientFunds
	}
	m.balances[account] -= amount.Amount
	m.record(account, -amount.Amount, ref)
	return nil
}

func (m *Memory) Credit(_ context.Context, account types.ID, amount types.Money, ref string) error {
	if err := checkAmount(account, amount); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[account] += amount.Amount
	m.record(account, amount.Amount, ref)
	return nil
}

func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

func (m *Memory) record(account types.ID, delta int64, ref string) {
	m.entries = append(m.entries, Entry{
		AccountID: account,
		Delta:     types.Money{Amount: delta, Currency: m.currency},
		Reference: ref,
		CreatedAt: time.Now(),
	})
}
