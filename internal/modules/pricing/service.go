// README: Pricing service resolves effective rates per community and computes quotes.
package pricing

import (
	"context"
	"errors"
	"fmt"
)

var ErrNoRateStore = errors.New("no rate store configured")

type RateStore interface {
	GetRates(ctx context.Context, communityID string) (Rates, bool, error)
	UpsertRates(ctx context.Context, communityID string, r Rates) error
}

type Service struct {
	store    RateStore
	defaults Rates
}

// NewService accepts a nil store; every community then uses defaults.
func NewService(store RateStore, defaults Rates) *Service {
	return &Service{store: store, defaults: defaults}
}

func (s *Service) CalculatorFor(ctx context.Context, communityID string) (Calculator, error) {
	if s.store == nil || communityID == "" {
		return NewCalculator(s.defaults), nil
	}
	r, ok, err := s.store.GetRates(ctx, communityID)
	if err != nil {
		return Calculator{}, fmt.Errorf("load rates for %s: %w", communityID, err)
	}
	if !ok {
		return NewCalculator(s.defaults), nil
	}
	return NewCalculator(r), nil
}

func (s *Service) Estimate(ctx context.Context, communityID string, req PricingRequest) (PricingResult, error) {
	calc, err := s.CalculatorFor(ctx, communityID)
	if err != nil {
		return PricingResult{}, err
	}
	return calc.Estimate(req), nil
}

func (s *Service) SetRates(ctx context.Context, communityID string, r Rates) error {
	if s.store == nil {
		return ErrNoRateStore
	}
	if communityID == "" {
		return fmt.Errorf("%w: empty community", ErrInvalidRates)
	}
	if err := r.Validate(); err != nil {
		return err
	}
	if r.Currency == "" {
		r.Currency = s.defaults.Currency
	}
	return s.store.UpsertRates(ctx, communityID, r)
}
