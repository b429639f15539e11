// README: Dispatch bookkeeping backed by Redis (dispatch time, notified drivers, broadcast flag).
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"zonetaxi/internal/types"
)

const (
	dispatchKeyPrefix  = "dispatch:request:%s:dispatched_at"
	notifiedKeyPrefix  = "dispatch:request:%s:notified"
	broadcastKeyPrefix = "dispatch:request:%s:broadcast"
	// requests resolve well within 7 days
	keyTTL = 7 * 24 * time.Hour
)

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

// RecordDispatch keeps the first dispatch timestamp and adds to the notified set.
func (s *Store) RecordDispatch(ctx context.Context, requestID types.ID, driverIDs []types.ID) error {
	pipe := s.redis.Pipeline()
	pipe.SetNX(ctx, dispatchedAtKey(requestID), time.Now().UTC().Format(time.RFC3339Nano), keyTTL)
	if len(driverIDs) > 0 {
		members := make([]interface{}, len(driverIDs))
		for i, d := range driverIDs {
			members[i] = string(d)
		}
		pipe.SAdd(ctx, notifiedKey(requestID), members...)
		pipe.Expire(ctx, notifiedKey(requestID), keyTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// GetDispatchedAt returns when the request was first dispatched, and whether it has been dispatched.
func (s *Store) GetDispatchedAt(ctx context.Context, requestID types.ID) (time.Time, bool, error) {
	val, err := s.redis.Get(ctx, dispatchedAtKey(requestID)).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

func (s *Store) Notified(ctx context.Context, requestID types.ID) ([]types.ID, error) {
	members, err := s.redis.SMembers(ctx, notifiedKey(requestID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]types.ID, len(members))
	for i, m := range members {
		out[i] = types.ID(m)
	}
	return out, nil
}

// MarkBroadcast sets the broadcast flag and reports whether this call set it.
func (s *Store) MarkBroadcast(ctx context.Context, requestID types.ID) (bool, error) {
	return s.redis.SetNX(ctx, broadcastKey(requestID), "1", keyTTL).Result()
}

// IsBroadcast reports whether a request has been re-broadcast.
func (s *Store) IsBroadcast(ctx context.Context, requestID types.ID) (bool, error) {
	val, err := s.redis.Get(ctx, broadcastKey(requestID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return val == "1", nil
}

func dispatchedAtKey(requestID types.ID) string {
	return fmt.Sprintf(dispatchKeyPrefix, string(requestID))
}

func notifiedKey(requestID types.ID) string {
	return fmt.Sprintf(notifiedKeyPrefix, string(requestID))
}

func broadcastKey(requestID types.ID) string {
	return fmt.Sprintf(broadcastKeyPrefix, string(requestID))
}
