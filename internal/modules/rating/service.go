// README: Rating service validates trip ratings and keeps driver averages current.
package rating

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"zonetaxi/internal/logger"
	"zonetaxi/internal/modules/ride"
	"zonetaxi/internal/types"
)

type Repository interface {
	Create(ctx context.Context, r *Rating) error
	Scores(ctx context.Context, rateeID types.ID, d Direction) ([]float64, error)
	ListByRequest(ctx context.Context, requestID types.ID) ([]Rating, error)
}

type Requests interface {
	Get(ctx context.Context, id types.ID) (*ride.Request, error)
}

type DriverRatings interface {
	UpdateRating(ctx context.Context, id types.ID, rating float64) error
}

type Service struct {
	repo     Repository
	requests Requests
	drivers  DriverRatings
	log      logger.Logger

	mu    sync.Mutex
	locks map[types.ID]*sync.Mutex
}

func NewService(repo Repository, requests Requests, drivers DriverRatings, log logger.Logger) *Service {
	return &Service{
		repo:     repo,
		requests: requests,
		drivers:  drivers,
		log:      logger.OrNop(log),
		locks:    make(map[types.ID]*sync.Mutex),
	}
}

// lockRatee serializes rating writes per ratee so the stored average always
// reflects every committed score.
func (s *Service) lockRatee(id types.ID) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

type RateCommand struct {
	RequestID types.ID
	RaterID   types.ID
	Direction Direction
	Score     int
	Comment   string
}

// Rate records one rating per trip and direction. A passenger's rating of
// the driver recomputes the driver's average.
func (s *Service) Rate(ctx context.Context, cmd RateCommand) (*Rating, error) {
	if cmd.RequestID == "" || cmd.RaterID == "" || !cmd.Direction.Valid() {
		return nil, ErrBadRequest
	}
	if cmd.Score < MinScore || cmd.Score > MaxScore {
		return nil, fmt.Errorf("%w: score must be between %d and %d", ErrBadRequest, MinScore, MaxScore)
	}
	r, err := s.requests.Get(ctx, cmd.RequestID)
	if err != nil {
		return nil, err
	}
	if r.Status != ride.StatusCompleted || r.DriverID == nil {
		return nil, ErrNotCompleted
	}

	var ratee types.ID
	switch cmd.Direction {
	case PassengerToDriver:
		if cmd.RaterID != r.PassengerID {
			return nil, ErrNotParticipant
		}
		ratee = *r.DriverID
	case DriverToPassenger:
		if !r.AssignedTo(cmd.RaterID) {
			return nil, ErrNotParticipant
		}
		ratee = r.PassengerID
	}

	rt := &Rating{
		RequestID: r.ID,
		Direction: cmd.Direction,
		RaterID:   cmd.RaterID,
		RateeID:   ratee,
		Score:     cmd.Score,
		Comment:   strings.TrimSpace(cmd.Comment),
		CreatedAt: time.Now(),
	}
	if cmd.Direction == PassengerToDriver && s.drivers != nil {
		defer s.lockRatee(ratee)()
	}
	if err := s.repo.Create(ctx, rt); err != nil {
		return nil, err
	}

	if cmd.Direction == PassengerToDriver && s.drivers != nil {
		sum, err := s.Summary(ctx, ratee, PassengerToDriver)
		if err != nil {
			s.log.Warnf("rating %s: summarize driver %s: %v", r.ID, ratee, err)
			return rt, nil
		}
		if err := s.drivers.UpdateRating(ctx, ratee, sum.Average); err != nil {
			s.log.Warnf("rating %s: update driver %s: %v", r.ID, ratee, err)
		}
	}
	return rt, nil
}

func (s *Service) Summary(ctx context.Context, accountID types.ID, d Direction) (Summary, error) {
	scores, err := s.repo.Scores(ctx, accountID, d)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{AccountID: accountID, Direction: d, Count: len(scores)}
	if len(scores) == 0 {
		return sum, nil
	}
	mean, std := stat.MeanStdDev(scores, nil)
	sum.Average = round2(mean)
	if len(scores) > 1 {
		sum.StdDev = round2(std)
	}
	return sum, nil
}

func (s *Service) ListByRequest(ctx context.Context, requestID types.ID) ([]Rating, error) {
	return s.repo.ListByRequest(ctx, requestID)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
