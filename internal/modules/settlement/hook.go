// README: Settlement hook moves a completed trip's fare through the ledger.
package settlement

import (
	"context"
	"errors"

	"zonetaxi/internal/logger"
	"zonetaxi/internal/modules/ledger"
	"zonetaxi/internal/types"
)

type Ledger interface {
	Balance(ctx context.Context, account types.ID) (types.Money, error)
	Debit(ctx context.Context, account types.ID, amount types.Money, ref string) error
	Credit(ctx context.Context, account types.ID, amount types.Money, ref string) error
}

type Metrics interface {
	RecordSettlement(status string)
}

type Status string

const (
	StatusSettled    Status = "settled"
	StatusSkipped    Status = "skipped"
	StatusFailed     Status = "failed"
	StatusNothingDue Status = "nothing_due"
)

type Trip struct {
	RequestID   types.ID
	PassengerID types.ID
	DriverID    types.ID
	Fare        types.Money
	DriverShare types.Money
	PlatformFee types.Money
}

type Outcome struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type Decision int

const (
	DecisionSkip Decision = iota
	DecisionFail
)

// Policy decides what a failed passenger debit means for the trip.
type Policy func(err error) Decision

// SoftFail skips settlement when the passenger cannot pay; every other
// ledger error fails it.
func SoftFail(err error) Decision {
	if errors.Is(err, ledger.ErrInsufficientFunds) {
		return DecisionSkip
	}
	return DecisionFail
}

type Options struct {
	Policy          Policy
	PlatformAccount types.ID
	Log             logger.Logger
	Metrics         Metrics
}

type Hook struct {
	ledger   Ledger
	policy   Policy
	platform types.ID
	log      logger.Logger
	metrics  Metrics
}

func NewHook(l Ledger, opts Options) *Hook {
	if opts.Policy == nil {
		opts.Policy = SoftFail
	}
	return &Hook{
		ledger:   l,
		policy:   opts.Policy,
		platform: opts.PlatformAccount,
		log:      logger.OrNop(opts.Log),
		metrics:  opts.Metrics,
	}
}

// Settle never returns an error; the ride is already completed when it
// runs, so failures are reported in the outcome and logged.
func (h *Hook) Settle(ctx context.Context, t Trip) Outcome {
	out := h.settle(ctx, t)
	if h.metrics != nil {
		h.metrics.RecordSettlement(string(out.Status))
	}
	return out
}

func (h *Hook) settle(ctx context.Context, t Trip) Outcome {
	if h.ledger == nil || t.Fare.Amount <= 0 {
		return Outcome{Status: StatusNothingDue}
	}
	ref := "ride:" + t.RequestID.String()

	if err := h.ledger.Debit(ctx, t.PassengerID, t.Fare, ref); err != nil {
		if h.policy(err) == DecisionSkip {
			h.log.Warnf("settlement skipped for %s: passenger %s: %v", t.RequestID, t.PassengerID, err)
			return Outcome{Status: StatusSkipped, Reason: err.Error()}
		}
		h.log.Errorf("settlement debit failed for %s: %v", t.RequestID, err)
		return Outcome{Status: StatusFailed, Reason: err.Error()}
	}

	if t.DriverShare.Amount > 0 {
		if err := h.ledger.Credit(ctx, t.DriverID, t.DriverShare, ref); err != nil {
			h.log.Errorf("settlement credit to driver %s failed for %s: %v", t.DriverID, t.RequestID, err)
			if rerr := h.ledger.Credit(ctx, t.PassengerID, t.Fare, ref+":refund"); rerr != nil {
				h.log.Errorf("refund to passenger %s failed for %s: %v", t.PassengerID, t.RequestID, rerr)
			}
			return Outcome{Status: StatusFailed, Reason: err.Error()}
		}
	}

	if h.platform != "" && t.PlatformFee.Amount > 0 {
		if err := h.ledger.Credit(ctx, h.platform, t.PlatformFee, ref); err != nil {
			h.log.Errorf("platform fee for %s not recorded: %v", t.RequestID, err)
			return Outcome{Status: StatusSettled, Reason: "platform fee not recorded"}
		}
	}
	return Outcome{Status: StatusSettled}
}
