// README: Ride request store backed by PostgreSQL.
package ride

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"zonetaxi/internal/types"
)

// Partial unique indexes from migrations/0001_init.sql.
const (
	activePassengerIndex = "ride_requests_active_passenger_idx"
	activeDriverIndex    = "ride_requests_active_driver_idx"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const requestColumns = `
	id, community_id, passenger_id, driver_id, pickup_zone_id, destination_zone_id,
	vehicle_type, instructions, distance_km, estimated_cost, final_cost, currency,
	status, status_version, created_at, accepted_at, started_at, completed_at,
	cancelled_at, cancellation_reason`

func (s *Store) Create(ctx context.Context, r *Request) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO ride_requests (
			id, community_id, passenger_id, driver_id, pickup_zone_id, destination_zone_id,
			vehicle_type, instructions, distance_km, estimated_cost, final_cost, currency,
			status, status_version, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12,
			$13, $14, $15
		)`,
		string(r.ID), r.CommunityID, string(r.PassengerID), toStringPtr(r.DriverID),
		r.PickupZoneID, nullIfEmpty(r.DestinationZoneID),
		r.VehicleType, r.Instructions, r.DistanceKm, toIntPtr(r.EstimatedCost), toIntPtr(r.FinalCost),
		currencyOf(r),
		string(r.Status), r.StatusVersion, r.CreatedAt,
	)
	return mapUniqueViolation(err)
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Request, error) {
	row := s.db.QueryRow(ctx, `SELECT `+requestColumns+` FROM ride_requests WHERE id = $1`, string(id))
	r, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

func (s *Store) UpdateStatus(ctx context.Context, t Transition) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE ride_requests
		SET status = $1,
			status_version = status_version + 1,
			driver_id = COALESCE($2, driver_id),
			final_cost = COALESCE($3, final_cost),
			cancellation_reason = COALESCE($4, cancellation_reason),
			accepted_at = CASE WHEN $1 = 'accepted' THEN $5::timestamptz ELSE accepted_at END,
			started_at = CASE WHEN $1 = 'in_progress' THEN $5::timestamptz ELSE started_at END,
			completed_at = CASE WHEN $1 = 'completed' THEN $5::timestamptz ELSE completed_at END,
			cancelled_at = CASE WHEN $1 = 'cancelled' THEN $5::timestamptz ELSE cancelled_at END
		WHERE id = $6 AND status = $7 AND status_version = $8`,
		string(t.To),
		toStringPtr(t.DriverID),
		toIntPtr(t.FinalCost),
		t.Reason,
		t.At,
		string(t.RequestID),
		string(t.From),
		t.Version,
	)
	if err != nil {
		return false, mapUniqueViolation(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) HasActiveByPassenger(ctx context.Context, passengerID types.ID) (bool, error) {
	row := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM ride_requests
			WHERE passenger_id = $1
			  AND status IN ('pending','accepted','in_progress')
		)`, string(passengerID),
	)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ActiveByAccount finds the open request where the account is the passenger
// or the assigned driver.
func (s *Store) ActiveByAccount(ctx context.Context, accountID types.ID) (*Request, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+requestColumns+`
		FROM ride_requests
		WHERE (passenger_id = $1 AND status IN ('pending','accepted','in_progress'))
		   OR (driver_id = $1 AND status IN ('accepted','in_progress'))
		ORDER BY created_at DESC
		LIMIT 1`, string(accountID))
	r, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

func (s *Store) ListPending(ctx context.Context, f PendingFilter) ([]*Request, error) {
	vehicles := f.VehicleTypes
	if vehicles == nil {
		vehicles = []string{}
	}
	return s.list(ctx, `
		SELECT `+requestColumns+`
		FROM ride_requests
		WHERE status = 'pending'
		  AND ($1 = '' OR community_id = $1)
		  AND (cardinality($2::text[]) = 0 OR vehicle_type = ANY($2::text[]))
		  AND passenger_id <> $3
		ORDER BY created_at ASC
		LIMIT $4`, f.CommunityID, vehicles, string(f.ExcludePassenger), limitOrDefault(f.Limit))
}

func (s *Store) ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]*Request, error) {
	return s.list(ctx, `
		SELECT `+requestColumns+`
		FROM ride_requests
		WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2`, before, limitOrDefault(limit))
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO ride_request_events (
			request_id, from_status, to_status, actor_type, actor_id, reason, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(e.RequestID),
		string(e.FromStatus),
		string(e.ToStatus),
		e.ActorType,
		toStringPtr(e.ActorID),
		nullIfEmpty(e.Reason),
		e.CreatedAt,
	)
	return err
}

func (s *Store) Events(ctx context.Context, requestID types.ID) ([]Event, error) {
	rows, err := s.db.Query(ctx, `
		SELECT e.id, e.request_id, r.community_id, e.from_status, e.to_status,
		       e.actor_type, e.actor_id, COALESCE(e.reason, ''), e.created_at
		FROM ride_request_events e
		JOIN ride_requests r ON r.id = e.request_id
		WHERE e.request_id = $1
		ORDER BY e.id ASC`, string(requestID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var reqID, from, to string
		var actor *string
		if err := rows.Scan(&e.ID, &reqID, &e.CommunityID, &from, &to, &e.ActorType, &actor, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.RequestID = types.ID(reqID)
		e.FromStatus = Status(from)
		e.ToStatus = Status(to)
		if actor != nil {
			id := types.ID(*actor)
			e.ActorID = &id
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Stats(ctx context.Context, communityID string) (Stats, error) {
	rows, err := s.db.Query(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(final_cost) FILTER (WHERE status = 'completed'), 0)
		FROM ride_requests
		WHERE community_id = $1
		GROUP BY status`, communityID)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()

	st := Stats{CommunityID: communityID, Requests: make(map[Status]int), Revenue: types.Money{Currency: types.DefaultCurrency}}
	for rows.Next() {
		var status string
		var n int
		var revenue int64
		if err := rows.Scan(&status, &n, &revenue); err != nil {
			return Stats{}, err
		}
		st.Requests[Status(status)] = n
		st.Revenue.Amount += revenue
	}
	return st, rows.Err()
}

func (s *Store) list(ctx context.Context, sql string, args ...any) ([]*Request, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRequest(row pgx.Row) (*Request, error) {
	var r Request
	var id, passengerID, status, currency string
	var driverID, destination *string
	var estimated, final *int64

	err := row.Scan(
		&id, &r.CommunityID, &passengerID, &driverID, &r.PickupZoneID, &destination,
		&r.VehicleType, &r.Instructions, &r.DistanceKm, &estimated, &final, &currency,
		&status, &r.StatusVersion, &r.CreatedAt, &r.AcceptedAt, &r.StartedAt, &r.CompletedAt,
		&r.CancelledAt, &r.CancelReason,
	)
	if err != nil {
		return nil, err
	}
	r.ID = types.ID(id)
	r.PassengerID = types.ID(passengerID)
	r.Status = Status(status)
	if driverID != nil {
		d := types.ID(*driverID)
		r.DriverID = &d
	}
	if destination != nil {
		r.DestinationZoneID = *destination
	}
	if estimated != nil {
		r.EstimatedCost = &types.Money{Amount: *estimated, Currency: currency}
	}
	if final != nil {
		r.FinalCost = &types.Money{Amount: *final, Currency: currency}
	}
	return &r, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	switch pgErr.ConstraintName {
	case activePassengerIndex:
		return ErrActiveRequestExists
	case activeDriverIndex:
		return ErrDriverUnavailable
	}
	return err
}

func currencyOf(r *Request) string {
	if r.EstimatedCost != nil && r.EstimatedCost.Currency != "" {
		return r.EstimatedCost.Currency
	}
	return types.DefaultCurrency
}

func limitOrDefault(n int) int {
	if n <= 0 {
		return 50
	}
	return n
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toIntPtr(v *types.Money) *int64 {
	if v == nil {
		return nil
	}
	n := v.Amount
	return &n
}
