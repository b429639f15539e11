// README: Driver store backed by PostgreSQL.
package driver

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"zonetaxi/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const driverColumns = `
	id, community_id, display_name, vehicle_types, status,
	total_trips, total_earnings, currency, rating, device_token,
	created_at, updated_at`

func (s *Store) Create(ctx context.Context, d *Driver) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO drivers (`+driverColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		string(d.ID), d.CommunityID, d.DisplayName, d.Vehicles, string(d.Status),
		d.TotalTrips, d.TotalEarnings.Amount, d.TotalEarnings.Currency, d.Rating, d.DeviceToken,
		d.CreatedAt, d.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyRegistered
	}
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Driver, error) {
	row := s.db.QueryRow(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = $1`, string(id))
	d, err := scanDriver(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

func (s *Store) UpdateStatus(ctx context.Context, id types.ID, status Status) error {
	return s.exec(ctx, `UPDATE drivers SET status = $2, updated_at = NOW() WHERE id = $1`, string(id), string(status))
}

func (s *Store) UpdateVehicles(ctx context.Context, id types.ID, vehicles []string) error {
	return s.exec(ctx, `UPDATE drivers SET vehicle_types = $2, updated_at = NOW() WHERE id = $1`, string(id), vehicles)
}

func (s *Store) SetDeviceToken(ctx context.Context, id types.ID, token string) error {
	return s.exec(ctx, `UPDATE drivers SET device_token = $2, updated_at = NOW() WHERE id = $1`, string(id), token)
}

// RecordTrip increments trip count and earnings in one statement.
func (s *Store) RecordTrip(ctx context.Context, id types.ID, earnings types.Money) error {
	return s.exec(ctx, `
		UPDATE drivers
		SET total_trips = total_trips + 1,
			total_earnings = total_earnings + $2,
			updated_at = NOW()
		WHERE id = $1`, string(id), earnings.Amount)
}

// UpdateRating sets the driver's rating to the average of their committed
// passenger ratings, computed inside the UPDATE. rating applies only while
// the driver has none.
func (s *Store) UpdateRating(ctx context.Context, id types.ID, rating float64) error {
	return s.exec(ctx, `
		UPDATE drivers
		SET rating = COALESCE((
				SELECT ROUND(AVG(score)::numeric, 2)::double precision
				FROM ratings
				WHERE ratee_id = $1 AND direction = 'passenger_to_driver'
			), $2),
			updated_at = NOW()
		WHERE id = $1`, string(id), rating)
}

func (s *Store) ListAvailable(ctx context.Context, communityID, vehicleType string) ([]*Driver, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+driverColumns+`
		FROM drivers
		WHERE community_id = $1
		  AND status = 'available'
		  AND $2 = ANY(vehicle_types)
		ORDER BY rating DESC, total_trips DESC`, communityID, vehicleType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) CountByStatus(ctx context.Context, communityID string) (map[Status]int, error) {
	rows, err := s.db.Query(ctx, `
		SELECT status, COUNT(*) FROM drivers WHERE community_id = $1 GROUP BY status`, communityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[Status]int)
	for rows.Next() {
		var st string
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		out[Status(st)] = n
	}
	return out, rows.Err()
}

func (s *Store) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDriver(row pgx.Row) (*Driver, error) {
	var d Driver
	var id, status string
	err := row.Scan(
		&id, &d.CommunityID, &d.DisplayName, &d.Vehicles, &status,
		&d.TotalTrips, &d.TotalEarnings.Amount, &d.TotalEarnings.Currency, &d.Rating, &d.DeviceToken,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.ID = types.ID(id)
	d.Status = Status(status)
	return &d, nil
}
