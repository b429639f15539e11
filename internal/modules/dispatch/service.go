// README: Dispatch service fans pending requests out to eligible drivers and re-broadcasts stale ones.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"zonetaxi/internal/logger"
	"zonetaxi/internal/modules/driver"
	"zonetaxi/internal/modules/ride"
	"zonetaxi/internal/modules/zone"
	"zonetaxi/internal/notify"
	"zonetaxi/internal/types"
)

type Drivers interface {
	Eligible(ctx context.Context, communityID, vehicleType string) ([]*driver.Driver, error)
}

type Pending interface {
	ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]*ride.Request, error)
}

type Bookkeeper interface {
	RecordDispatch(ctx context.Context, requestID types.ID, driverIDs []types.ID) error
	GetDispatchedAt(ctx context.Context, requestID types.ID) (time.Time, bool, error)
	Notified(ctx context.Context, requestID types.ID) ([]types.ID, error)
	MarkBroadcast(ctx context.Context, requestID types.ID) (bool, error)
	IsBroadcast(ctx context.Context, requestID types.ID) (bool, error)
}

type Zones interface {
	Get(id string) (zone.Zone, error)
}

type Metrics interface {
	RecordDelivery(outcome string)
	ObserveFanout(d time.Duration)
}

type Deps struct {
	Drivers  Drivers
	Pending  Pending
	Book     Bookkeeper
	Notifier notify.Notifier
	Zones    Zones
	Metrics  Metrics
	Log      logger.Logger
}

type Config struct {
	// MaxRecipients caps one fan-out; zero notifies every eligible driver.
	MaxRecipients int
	Concurrency   int
	// RebroadcastAfter enables the scheduler; zero disables it.
	RebroadcastAfter time.Duration
	TickInterval     time.Duration
	BatchSize        int
}

type Result struct {
	Eligible  int
	Delivered []types.ID
	Failed    int
}

type Status struct {
	RequestID    types.ID   `json:"request_id"`
	Dispatched   bool       `json:"dispatched"`
	DispatchedAt *time.Time `json:"dispatched_at,omitempty"`
	Notified     []types.ID `json:"notified"`
	Rebroadcast  bool       `json:"rebroadcast"`
}

type Service struct {
	drivers  Drivers
	pending  Pending
	book     Bookkeeper
	notifier notify.Notifier
	zones    Zones
	metrics  Metrics
	log      logger.Logger
	cfg      Config
	now      func() time.Time
}

func NewService(d Deps, cfg Config) *Service {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 15 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if d.Book == nil {
		d.Book = NewMemoryStore()
	}
	if d.Notifier == nil {
		d.Notifier = notify.Log{L: d.Log}
	}
	return &Service{
		drivers:  d.Drivers,
		pending:  d.Pending,
		book:     d.Book,
		notifier: d.Notifier,
		zones:    d.Zones,
		metrics:  d.Metrics,
		log:      logger.OrNop(d.Log),
		cfg:      cfg,
		now:      time.Now,
	}
}

// Announce notifies eligible drivers of a new request. Failures are logged;
// the request stays pending either way.
func (s *Service) Announce(ctx context.Context, r *ride.Request) {
	res, err := s.NotifyEligibleDrivers(ctx, r)
	if err != nil {
		s.log.Errorf("dispatch %s: %v", r.ID, err)
		return
	}
	s.log.Infof("dispatch %s: notified %d/%d drivers (%d failed)", r.ID, len(res.Delivered), res.Eligible, res.Failed)
}

// NotifyEligibleDrivers sends the offer to every available driver of the
// request's community owning its vehicle type, except the passenger.
// Per-driver failures are counted, never returned.
func (s *Service) NotifyEligibleDrivers(ctx context.Context, r *ride.Request) (Result, error) {
	return s.fanout(ctx, r, false)
}

func (s *Service) fanout(ctx context.Context, r *ride.Request, rebroadcast bool) (Result, error) {
	start := s.now()
	ds, err := s.drivers.Eligible(ctx, r.CommunityID, r.VehicleType)
	if err != nil {
		return Result{}, fmt.Errorf("eligible drivers: %w", err)
	}
	candidates := make([]*driver.Driver, 0, len(ds))
	for _, d := range ds {
		if d.ID != r.PassengerID {
			candidates = append(candidates, d)
		}
	}
	if s.cfg.MaxRecipients > 0 && len(candidates) > s.cfg.MaxRecipients {
		candidates = candidates[:s.cfg.MaxRecipients]
	}

	offer := s.offerFor(r, rebroadcast)
	errs := make([]error, len(candidates))
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, d := range candidates {
		g.Go(func() error {
			errs[i] = s.notifier.Notify(ctx, notify.Recipient{DriverID: d.ID, DeviceToken: d.DeviceToken}, offer)
			return nil
		})
	}
	_ = g.Wait()

	res := Result{Eligible: len(candidates)}
	for i, err := range errs {
		if err != nil {
			res.Failed++
			s.log.Warnf("dispatch %s: driver %s: %v", r.ID, candidates[i].ID, err)
			s.recordDelivery("failed")
			continue
		}
		res.Delivered = append(res.Delivered, candidates[i].ID)
		s.recordDelivery("delivered")
	}

	if err := s.book.RecordDispatch(ctx, r.ID, res.Delivered); err != nil {
		s.log.Warnf("dispatch %s: record dispatch: %v", r.ID, err)
	}
	if s.metrics != nil {
		s.metrics.ObserveFanout(s.now().Sub(start))
	}
	return res, nil
}

func (s *Service) Status(ctx context.Context, requestID types.ID) (Status, error) {
	st := Status{RequestID: requestID, Notified: []types.ID{}}
	at, ok, err := s.book.GetDispatchedAt(ctx, requestID)
	if err != nil {
		return Status{}, err
	}
	if ok {
		st.Dispatched = true
		st.DispatchedAt = &at
	}
	notified, err := s.book.Notified(ctx, requestID)
	if err != nil {
		return Status{}, err
	}
	if len(notified) > 0 {
		st.Notified = notified
	}
	if st.Rebroadcast, err = s.book.IsBroadcast(ctx, requestID); err != nil {
		return Status{}, err
	}
	return st, nil
}

// RunScheduler re-broadcasts stale pending requests until ctx is done. It
// returns immediately when re-broadcasting is disabled.
func (s *Service) RunScheduler(ctx context.Context) {
	if s.cfg.RebroadcastAfter <= 0 || s.pending == nil {
		return
	}
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.tickRebroadcast(ctx); err != nil {
				s.log.Errorf("rebroadcast tick: %v", err)
			}
		}
	}
}

// tickRebroadcast sends each request pending longer than RebroadcastAfter
// one more time. The broadcast flag is claimed first so a request is
// re-broadcast at most once across instances.
func (s *Service) tickRebroadcast(ctx context.Context) (int, error) {
	stale, err := s.pending.ListPendingBefore(ctx, s.now().Add(-s.cfg.RebroadcastAfter), s.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, r := range stale {
		claimed, err := s.book.MarkBroadcast(ctx, r.ID)
		if err != nil {
			s.log.Warnf("rebroadcast %s: %v", r.ID, err)
			continue
		}
		if !claimed {
			continue
		}
		res, err := s.fanout(ctx, r, true)
		if err != nil {
			s.log.Warnf("rebroadcast %s: %v", r.ID, err)
			continue
		}
		s.log.Infof("rebroadcast %s: notified %d/%d drivers", r.ID, len(res.Delivered), res.Eligible)
		sent++
	}
	return sent, nil
}

func (s *Service) offerFor(r *ride.Request, rebroadcast bool) notify.Offer {
	o := notify.Offer{
		RequestID:     r.ID,
		CommunityID:   r.CommunityID,
		PickupZoneID:  r.PickupZoneID,
		DestinationID: r.DestinationZoneID,
		VehicleType:   r.VehicleType,
		DistanceKm:    r.DistanceKm,
		CreatedAt:     r.CreatedAt,
		Rebroadcast:   rebroadcast,
	}
	if r.EstimatedCost != nil {
		v := r.EstimatedCost.Float()
		o.EstimatedCost = &v
		o.Currency = r.EstimatedCost.Currency
	}
	if s.zones != nil {
		if z, err := s.zones.Get(r.PickupZoneID); err == nil {
			o.PickupLabel = z.Label()
		}
	}
	return o
}

func (s *Service) recordDelivery(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordDelivery(outcome)
	}
}
