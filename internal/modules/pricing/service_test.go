package pricing

import (
	"context"
	"errors"
	"sync"
	"testing"

	"zonetaxi/internal/types"
)

func TestCalculator_Fare(t *testing.T) {
	calc := NewCalculator(DefaultRates())

	tests := []struct {
		name       string
		distanceKm float64
		multiplier float64
		wantMinor  int64
	}{
		{
			name:       "Base Fare Only (0 km)",
			distanceKm: 0,
			multiplier: 1.0,
			wantMinor:  50000,
		},
		{
			name:       "Grid Trip (4.2 km, car)",
			distanceKm: 4.2,
			multiplier: 1.0,
			// 500 + 4.2*20.5 = 586.10
			wantMinor: 58610,
		},
		{
			name:       "Motorcycle Discount (4.2 km, x0.8)",
			distanceKm: 4.2,
			multiplier: 0.8,
			// 586.10 * 0.8 = 468.88
			wantMinor: 46888,
		},
		{
			name:       "Plane Premium (10 km, x3.5)",
			distanceKm: 10,
			multiplier: 3.5,
			// (500 + 205) * 3.5 = 2467.50
			wantMinor: 246750,
		},
		{
			name:       "Unknown Multiplier Defaults To 1.0",
			distanceKm: 1,
			multiplier: 0,
			wantMinor:  52050,
		},
		{
			name:       "Negative Distance Clamped",
			distanceKm: -3,
			multiplier: 1.0,
			wantMinor:  50000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.Fare(tt.distanceKm, tt.multiplier)
			if got.Amount != tt.wantMinor {
				t.Errorf("Fare() = %d, want %d", got.Amount, tt.wantMinor)
			}
			if got.Currency != types.DefaultCurrency {
				t.Errorf("unexpected currency %q", got.Currency)
			}
		})
	}
}

func TestCalculator_FareMonotonicAndNonNegative(t *testing.T) {
	calc := NewCalculator(DefaultRates())
	prev := int64(-1)
	for km := 0.0; km <= 60; km += 1.4 {
		f := calc.Fare(km, 1.3)
		if f.Amount < 0 {
			t.Fatalf("negative fare at %.1f km", km)
		}
		if f.Amount < prev {
			t.Fatalf("fare decreased at %.1f km: %d < %d", km, f.Amount, prev)
		}
		prev = f.Amount
	}
}

func TestCalculator_Disabled(t *testing.T) {
	r := DefaultRates()
	r.Enabled = false
	calc := NewCalculator(r)
	if got := calc.Fare(12, 3.5); got.Amount != 0 {
		t.Fatalf("expected zero fare when disabled, got %d", got.Amount)
	}
}

func TestCalculator_BreakdownSumsToTotal(t *testing.T) {
	calc := NewCalculator(DefaultRates())
	res := calc.Estimate(PricingRequest{DistanceKm: 7.3, CostMultiplier: 4.5})
	var sum int64
	for _, v := range res.Breakdown {
		sum += v
	}
	if sum != res.Total.Amount {
		t.Fatalf("breakdown sum %d != total %d", sum, res.Total.Amount)
	}
}

func TestCalculator_Split(t *testing.T) {
	calc := NewCalculator(DefaultRates())
	fare := types.Money{Amount: 60000, Currency: "CR"}

	tests := []struct {
		name         string
		bonusRate    float64
		wantDriver   int64
		wantPlatform int64
	}{
		{"no bonus", 0, 51000, 9000},
		{"10% bonus", 0.10, 56100, 3900},
		{"bonus capped at fare", 0.5, 60000, 0},
		{"negative bonus ignored", -0.2, 51000, 9000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := calc.Split(fare, tt.bonusRate)
			if s.Driver.Amount != tt.wantDriver || s.Platform.Amount != tt.wantPlatform {
				t.Fatalf("Split() driver=%d platform=%d, want %d/%d",
					s.Driver.Amount, s.Platform.Amount, tt.wantDriver, tt.wantPlatform)
			}
			if s.Driver.Amount+s.Platform.Amount != fare.Amount {
				t.Fatalf("split does not add up to fare")
			}
		})
	}

	zero := calc.Split(types.Money{Currency: "CR"}, 0.2)
	if zero.Driver.Amount != 0 || zero.Platform.Amount != 0 {
		t.Fatalf("expected zero split for zero fare: %+v", zero)
	}
}

type memoryRates struct {
	mu    sync.Mutex
	rates map[string]Rates
	err   error
}

func (m *memoryRates) GetRates(_ context.Context, communityID string) (Rates, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return Rates{}, false, m.err
	}
	r, ok := m.rates[communityID]
	return r, ok, nil
}

func (m *memoryRates) UpsertRates(_ context.Context, communityID string, r Rates) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates[communityID] = r
	return nil
}

func TestService_CommunityOverrides(t *testing.T) {
	ctx := context.Background()
	store := &memoryRates{rates: map[string]Rates{}}
	s := NewService(store, DefaultRates())

	override := DefaultRates()
	override.BaseRate = 100
	override.PerKmRate = 10
	if err := s.SetRates(ctx, "guild-1", override); err != nil {
		t.Fatalf("set rates: %v", err)
	}

	got, err := s.Estimate(ctx, "guild-1", PricingRequest{DistanceKm: 2, CostMultiplier: 1})
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if got.Total.Amount != 12000 {
		t.Fatalf("expected override fare 120.00, got %d", got.Total.Amount)
	}

	got, err = s.Estimate(ctx, "guild-2", PricingRequest{DistanceKm: 2, CostMultiplier: 1})
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if got.Total.Amount != 54100 {
		t.Fatalf("expected default fare 541.00, got %d", got.Total.Amount)
	}

	bad := DefaultRates()
	bad.DriverCommission = 1.5
	if err := s.SetRates(ctx, "guild-1", bad); !errors.Is(err, ErrInvalidRates) {
		t.Fatalf("expected ErrInvalidRates, got %v", err)
	}

	store.err = errors.New("db down")
	if _, err := s.CalculatorFor(ctx, "guild-1"); err == nil {
		t.Fatal("expected store error to propagate")
	}
}

func TestService_NilStoreUsesDefaults(t *testing.T) {
	s := NewService(nil, DefaultRates()) // Store not needed for default pricing
	calc, err := s.CalculatorFor(context.Background(), "any")
	if err != nil {
		t.Fatalf("calculator: %v", err)
	}
	if calc.Rates().BaseRate != 500 {
		t.Fatalf("expected default base rate, got %v", calc.Rates().BaseRate)
	}
	if err := s.SetRates(context.Background(), "any", DefaultRates()); err == nil {
		t.Fatal("expected error without a store")
	}
}
