package rating

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zonetaxi/internal/modules/ride"
	"zonetaxi/internal/types"
)

type recordedRatings map[types.ID]float64

func (r recordedRatings) UpdateRating(_ context.Context, id types.ID, rating float64) error {
	r[id] = rating
	return nil
}

func seedTrip(t *testing.T, repo *ride.MemoryStore, id, passenger, driverID types.ID, status ride.Status) {
	t.Helper()
	r := &ride.Request{
		ID: id, CommunityID: "guild-1", PassengerID: passenger,
		PickupZoneID: "central_city", VehicleType: "auto",
		Status: status, CreatedAt: time.Now(),
	}
	if driverID != "" {
		r.DriverID = &driverID
	}
	require.NoError(t, repo.Create(context.Background(), r))
}

func newTestService(t *testing.T) (*Service, recordedRatings) {
	t.Helper()
	trips := ride.NewMemoryStore()
	seedTrip(t, trips, "r1", "p1", "d1", ride.StatusCompleted)
	seedTrip(t, trips, "r2", "p2", "d1", ride.StatusCompleted)
	seedTrip(t, trips, "r3", "p3", "d1", ride.StatusCompleted)
	seedTrip(t, trips, "r4", "p4", "d2", ride.StatusAccepted)
	drivers := recordedRatings{}
	return NewService(NewMemoryStore(), trips, drivers, nil), drivers
}

func TestRate_UpdatesDriverAverage(t *testing.T) {
	ctx := context.Background()
	svc, drivers := newTestService(t)

	for _, tc := range []struct {
		req       types.ID
		passenger types.ID
		score     int
		want      float64
	}{
		{"r1", "p1", 5, 5.0},
		{"r2", "p2", 4, 4.5},
		{"r3", "p3", 4, 4.33},
	} {
		rt, err := svc.Rate(ctx, RateCommand{RequestID: tc.req, RaterID: tc.passenger, Direction: PassengerToDriver, Score: tc.score})
		require.NoError(t, err)
		assert.Equal(t, types.ID("d1"), rt.RateeID)
		assert.InDelta(t, tc.want, drivers["d1"], 1e-9)
	}

	sum, err := svc.Summary(ctx, "d1", PassengerToDriver)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Count)
	assert.InDelta(t, 4.33, sum.Average, 1e-9)
	assert.Greater(t, sum.StdDev, 0.0)
}

// slowScores widens the window between reading scores and writing the
// average. Readers that saw fewer scores sleep longer.
type slowScores struct {
	*MemoryStore
	max int
}

func (s slowScores) Scores(ctx context.Context, rateeID types.ID, d Direction) ([]float64, error) {
	out, err := s.MemoryStore.Scores(ctx, rateeID, d)
	time.Sleep(time.Duration(s.max-len(out)) * time.Millisecond)
	return out, err
}

type lockedRatings struct {
	mu     sync.Mutex
	writes int
	last   map[types.ID]float64
}

func (r *lockedRatings) UpdateRating(_ context.Context, id types.ID, rating float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	r.last[id] = rating
	return nil
}

func TestRate_ConcurrentRatingsKeepAverage(t *testing.T) {
	ctx := context.Background()
	const n = 8
	trips := ride.NewMemoryStore()
	for i := 0; i < n; i++ {
		seedTrip(t, trips, types.ID(fmt.Sprintf("c%d", i)), types.ID(fmt.Sprintf("cp%d", i)), "d1", ride.StatusCompleted)
	}
	drivers := &lockedRatings{last: map[types.ID]float64{}}
	svc := NewService(slowScores{MemoryStore: NewMemoryStore(), max: n}, trips, drivers, nil)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			score := 1 + i%5
			_, err := svc.Rate(ctx, RateCommand{
				RequestID: types.ID(fmt.Sprintf("c%d", i)),
				RaterID:   types.ID(fmt.Sprintf("cp%d", i)),
				Direction: PassengerToDriver,
				Score:     score,
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	sum, err := svc.Summary(ctx, "d1", PassengerToDriver)
	require.NoError(t, err)
	assert.Equal(t, n, sum.Count)
	assert.Equal(t, n, drivers.writes)
	assert.InDelta(t, sum.Average, drivers.last["d1"], 1e-9)
}

func TestRate_DriverRatesPassenger(t *testing.T) {
	ctx := context.Background()
	svc, drivers := newTestService(t)

	rt, err := svc.Rate(ctx, RateCommand{RequestID: "r1", RaterID: "d1", Direction: DriverToPassenger, Score: 3, Comment: "  late  "})
	require.NoError(t, err)
	assert.Equal(t, types.ID("p1"), rt.RateeID)
	assert.Equal(t, "late", rt.Comment)
	assert.Empty(t, drivers)

	list, err := svc.ListByRequest(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRate_Rejections(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	_, err := svc.Rate(ctx, RateCommand{RequestID: "r1", RaterID: "p1", Direction: PassengerToDriver, Score: 5})
	require.NoError(t, err)

	tests := []struct {
		name string
		cmd  RateCommand
		want error
	}{
		{"score too low", RateCommand{RequestID: "r2", RaterID: "p2", Direction: PassengerToDriver, Score: 0}, ErrBadRequest},
		{"score too high", RateCommand{RequestID: "r2", RaterID: "p2", Direction: PassengerToDriver, Score: 6}, ErrBadRequest},
		{"unknown direction", RateCommand{RequestID: "r2", RaterID: "p2", Direction: "sideways", Score: 3}, ErrBadRequest},
		{"unknown trip", RateCommand{RequestID: "nope", RaterID: "p2", Direction: PassengerToDriver, Score: 3}, ride.ErrNotFound},
		{"trip not completed", RateCommand{RequestID: "r4", RaterID: "p4", Direction: PassengerToDriver, Score: 3}, ErrNotCompleted},
		{"stranger", RateCommand{RequestID: "r2", RaterID: "p9", Direction: PassengerToDriver, Score: 3}, ErrNotParticipant},
		{"wrong driver", RateCommand{RequestID: "r2", RaterID: "d2", Direction: DriverToPassenger, Score: 3}, ErrNotParticipant},
		{"second rating", RateCommand{RequestID: "r1", RaterID: "p1", Direction: PassengerToDriver, Score: 1}, ErrAlreadyRated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Rate(ctx, tt.cmd)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSummary_Empty(t *testing.T) {
	svc, _ := newTestService(t)
	sum, err := svc.Summary(context.Background(), "nobody", PassengerToDriver)
	require.NoError(t, err)
	assert.Zero(t, sum.Count)
	assert.Zero(t, sum.Average)
}
