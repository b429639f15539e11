// README: Last-known position store backed by Redis hashes.
package location

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"zonetaxi/internal/types"
)

// positions older than this are dropped by Redis
const positionTTL = 30 * time.Minute

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

func (s *Store) SetPosition(ctx context.Context, p Position) error {
	key := positionKey(p.UserType, p.UserID)
	pipe := s.redis.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"x":    strconv.FormatFloat(p.X, 'f', 2, 64),
		"y":    strconv.FormatFloat(p.Y, 'f', 2, 64),
		"zone": p.ZoneID,
		"ts":   p.RecordedAt.UTC().Format(time.RFC3339),
	})
	pipe.Expire(ctx, key, positionTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// GetPosition returns ok=false when nothing was reported recently.
func (s *Store) GetPosition(ctx context.Context, userType string, id types.ID) (Position, bool, error) {
	vals, err := s.redis.HGetAll(ctx, positionKey(userType, id)).Result()
	if err != nil {
		return Position{}, false, err
	}
	if len(vals) == 0 {
		return Position{}, false, nil
	}
	p := Position{UserID: id, UserType: userType, ZoneID: vals["zone"]}
	if p.X, err = strconv.ParseFloat(vals["x"], 64); err != nil {
		return Position{}, false, err
	}
	if p.Y, err = strconv.ParseFloat(vals["y"], 64); err != nil {
		return Position{}, false, err
	}
	if p.RecordedAt, err = time.Parse(time.RFC3339, vals["ts"]); err != nil {
		return Position{}, false, err
	}
	return p, true, nil
}

func positionKey(userType string, id types.ID) string {
	return fmt.Sprintf("location:%s:%s", userType, string(id))
}
