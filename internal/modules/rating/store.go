// README: Rating store backed by PostgreSQL.
package rating

import (
	"context"
	"errors"

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

func (s *Store) Create(ctx context.Context, r *Rating) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO ratings (request_id, direction, rater_id, ratee_id, score, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		string(r.RequestID), string(r.Direction), string(r.RaterID), string(r.RateeID),
		r.Score, r.Comment, r.CreatedAt,
	).Scan(&r.ID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyRated
	}
	return err
}

func (s *Store) Scores(ctx context.Context, rateeID types.ID, d Direction) ([]float64, error) {
	rows, err := s.db.Query(ctx, `
		SELECT score FROM ratings WHERE ratee_id = $1 AND direction = $2`, string(rateeID), string(d))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var score int
		if err := rows.Scan(&score); err != nil {
			return nil, err
		}
		out = append(out, float64(score))
	}
	return out, rows.Err()
}

func (s *Store) ListByRequest(ctx context.Context, requestID types.ID) ([]Rating, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, request_id, direction, rater_id, ratee_id, score, comment, created_at
		FROM ratings
		WHERE request_id = $1
		ORDER BY id ASC`, string(requestID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rating
	for rows.Next() {
		var r Rating
		var reqID, dir, rater, ratee string
		if err := rows.Scan(&r.ID, &reqID, &dir, &rater, &ratee, &r.Score, &r.Comment, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.RequestID = types.ID(reqID)
		r.Direction = Direction(dir)
		r.RaterID = types.ID(rater)
		r.RateeID = types.ID(ratee)
		out = append(out, r)
	}
	return out, rows.Err()
}
