// README: Per-community rate overrides backed by PostgreSQL.
package pricing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// GetRates returns ok=false when the community uses the defaults.
func (s *Store) GetRates(ctx context.Context, communityID string) (Rates, bool, error) {
	var r Rates
	err := s.db.QueryRow(ctx, `
		SELECT enabled, base_rate, per_km_rate, wait_rate, driver_commission, currency
		FROM community_rates
		WHERE community_id = $1`, communityID,
	).Scan(&r.Enabled, &r.BaseRate, &r.PerKmRate, &r.WaitRate, &r.DriverCommission, &r.Currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return Rates{}, false, nil
	}
	if err != nil {
		return Rates{}, false, err
	}
	return r, true, nil
}

func (s *Store) UpsertRates(ctx context.Context, communityID string, r Rates) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO community_rates (
			community_id, enabled, base_rate, per_km_rate, wait_rate, driver_commission, currency, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (community_id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			base_rate = EXCLUDED.base_rate,
			per_km_rate = EXCLUDED.per_km_rate,
			wait_rate = EXCLUDED.wait_rate,
			driver_commission = EXCLUDED.driver_commission,
			currency = EXCLUDED.currency,
			updated_at = NOW()`,
		communityID, r.Enabled, r.BaseRate, r.PerKmRate, r.WaitRate, r.DriverCommission, r.Currency,
	)
	return err
}
