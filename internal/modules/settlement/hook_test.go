package settlement

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zonetaxi/internal/modules/ledger"
	"zonetaxi/internal/types"
)

func cr(amount int64) types.Money {
	return types.Money{Amount: amount, Currency: types.DefaultCurrency}
}

type failingCredit struct {
	*ledger.Memory
	failFor types.ID
}

func (f *failingCredit) Credit(ctx context.Context, account types.ID, amount types.Money, ref string) error {
	if account == f.failFor {
		return errors.New("credit unavailable")
	}
	return f.Memory.Credit(ctx, account, amount, ref)
}

type countingMetrics struct{ statuses []string }

func (c *countingMetrics) RecordSettlement(status string) { c.statuses = append(c.statuses, status) }

func trip() Trip {
	return Trip{
		RequestID:   "r1",
		PassengerID: "p1",
		DriverID:    "d1",
		Fare:        cr(58610),
		DriverShare: cr(49819),
		PlatformFee: cr(8791),
	}
}

func TestSettle_MovesFare(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemory("")
	l.Seed("p1", cr(100000))
	m := &countingMetrics{}
	h := NewHook(l, Options{PlatformAccount: "platform", Metrics: m})

	out := h.Settle(ctx, trip())
	assert.Equal(t, StatusSettled, out.Status)

	for account, want := range map[types.ID]int64{"p1": 41390, "d1": 49819, "platform": 8791} {
		bal, err := l.Balance(ctx, account)
		require.NoError(t, err)
		assert.Equal(t, want, bal.Amount, account)
	}
	assert.Equal(t, []string{"settled"}, m.statuses)
}

func TestSettle_InsufficientFundsIsSoft(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemory("")
	l.Seed("p1", cr(100))
	h := NewHook(l, Options{})

	out := h.Settle(ctx, trip())
	assert.Equal(t, StatusSkipped, out.Status)
	assert.Contains(t, out.Reason, "insufficient funds")
	assert.Empty(t, l.Entries())
}

func TestSettle_StrictPolicyFails(t *testing.T) {
	l := ledger.NewMemory("")
	h := NewHook(l, Options{Policy: func(error) Decision { return DecisionFail }})

	out := h.Settle(context.Background(), trip())
	assert.Equal(t, StatusFailed, out.Status)
}

func TestSettle_RefundsWhenDriverCreditFails(t *testing.T) {
	ctx := context.Background()
	mem := ledger.NewMemory("")
	mem.Seed("p1", cr(100000))
	h := NewHook(&failingCredit{Memory: mem, failFor: "d1"}, Options{})

	out := h.Settle(ctx, trip())
	assert.Equal(t, StatusFailed, out.Status)
	bal, _ := mem.Balance(ctx, "p1")
	assert.Equal(t, int64(100000), bal.Amount)
}

func TestSettle_NothingDue(t *testing.T) {
	h := NewHook(ledger.NewMemory(""), Options{})
	tr := trip()
	tr.Fare = cr(0)
	assert.Equal(t, StatusNothingDue, h.Settle(context.Background(), tr).Status)
	assert.Equal(t, StatusNothingDue, NewHook(nil, Options{}).Settle(context.Background(), trip()).Status)
}
