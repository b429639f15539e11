// README: Ride service implements request creation, state transitions and completion.
package ride

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"zonetaxi/internal/logger"
	"zonetaxi/internal/modules/compat"
	"zonetaxi/internal/modules/driver"
	"zonetaxi/internal/modules/location"
	"zonetaxi/internal/modules/pricing"
	"zonetaxi/internal/modules/settlement"
	"zonetaxi/internal/modules/vehicle"
	"zonetaxi/internal/modules/zone"
	"zonetaxi/internal/types"
)

var (
	ErrBadRequest          = errors.New("bad request")
	ErrNotFound            = errors.New("ride request not found")
	ErrActiveRequestExists = errors.New("passenger already has an active request")
	ErrZoneNotFound        = errors.New("zone not found")
	ErrZoneRestricted      = compat.ErrZoneRestricted
	ErrUnknownVehicle      = vehicle.ErrUnknownType
	ErrIncompatibleVehicle = compat.ErrIncompatibleVehicle
	ErrNotPending          = errors.New("request is no longer pending")
	ErrDriverNotFound      = errors.New("driver not found")
	ErrDriverUnavailable   = errors.New("driver unavailable")
	ErrNotActive           = errors.New("request is not active")
	ErrConflictingState    = errors.New("conflicting request state")
	ErrForbidden           = errors.New("not a participant of this request")
)

type Repository interface {
	Create(ctx context.Context, r *Request) error
	Get(ctx context.Context, id types.ID) (*Request, error)
	UpdateStatus(ctx context.Context, t Transition) (bool, error)
	HasActiveByPassenger(ctx context.Context, passengerID types.ID) (bool, error)
	ActiveByAccount(ctx context.Context, accountID types.ID) (*Request, error)
	ListPending(ctx context.Context, f PendingFilter) ([]*Request, error)
	ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]*Request, error)
	AppendEvent(ctx context.Context, e *Event) error
	Events(ctx context.Context, requestID types.ID) ([]Event, error)
	Stats(ctx context.Context, communityID string) (Stats, error)
}

type Drivers interface {
	Get(ctx context.Context, id types.ID) (*driver.Driver, error)
	RecordTrip(ctx context.Context, id types.ID, earnings types.Money) error
	CountByStatus(ctx context.Context, communityID string) (map[driver.Status]int, error)
}

type Zones interface {
	Get(id string) (zone.Zone, error)
}

type Vehicles interface {
	Get(id string) (vehicle.Type, error)
}

type Validator interface {
	CheckRoute(pickup zone.Zone, dest *zone.Zone, vt vehicle.Type) error
	CheckDriver(owned []string, vt vehicle.Type, pickup zone.Zone, dest *zone.Zone) error
}

type Pricing interface {
	CalculatorFor(ctx context.Context, communityID string) (pricing.Calculator, error)
}

type Dispatcher interface {
	Announce(ctx context.Context, r *Request)
}

type Settler interface {
	Settle(ctx context.Context, t settlement.Trip) settlement.Outcome
}

type EventSink interface {
	Publish(ctx context.Context, e Event) error
}

type Metrics interface {
	RecordTransition(from, to string)
	RecordRejection(reason string)
}

// Deps wires the service. Dispatch, Settle, Events, Metrics and Log are
// optional.
type Deps struct {
	Repo      Repository
	Drivers   Drivers
	Zones     Zones
	Vehicles  Vehicles
	Validator Validator
	Pricing   Pricing
	Dispatch  Dispatcher
	Settle    Settler
	Events    EventSink
	Metrics   Metrics
	Log       logger.Logger
}

type Options struct {
	// PendingTTL cancels pending requests older than this; zero disables it.
	PendingTTL    time.Duration
	SweepInterval time.Duration
	NotifyTimeout time.Duration
	PageSize      int
}

type Service struct {
	repo      Repository
	drivers   Drivers
	zones     Zones
	vehicles  Vehicles
	validator Validator
	pricing   Pricing
	dispatch  Dispatcher
	settle    Settler
	events    EventSink
	metrics   Metrics
	log       logger.Logger
	opts      Options

	bg  sync.WaitGroup
	now func() time.Time
}

func NewService(d Deps, opts Options) *Service {
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 30 * time.Second
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = 10 * time.Second
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}
	return &Service{
		repo:      d.Repo,
		drivers:   d.Drivers,
		zones:     d.Zones,
		vehicles:  d.Vehicles,
		validator: d.Validator,
		pricing:   d.Pricing,
		dispatch:  d.Dispatch,
		settle:    d.Settle,
		events:    d.Events,
		metrics:   d.Metrics,
		log:       logger.OrNop(d.Log),
		opts:      opts,
		now:       time.Now,
	}
}

type CreateCommand struct {
	CommunityID       string
	PassengerID       types.ID
	PickupZoneID      string
	DestinationZoneID string
	VehicleType       string
	Instructions      string
}

type AcceptCommand struct {
	RequestID types.ID
	DriverID  types.ID
}

type StartCommand struct {
	RequestID types.ID
	DriverID  types.ID
}

type CompleteCommand struct {
	RequestID types.ID
	DriverID  types.ID
	// FinalCost overrides the estimate, in whole currency units.
	FinalCost *float64
}

type CancelCommand struct {
	RequestID types.ID
	ActorType string
	ActorID   types.ID
	Reason    string
}

type Receipt struct {
	Request    *Request
	Split      pricing.Split
	Settlement settlement.Outcome
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Request, error) {
	cmd.CommunityID = strings.TrimSpace(cmd.CommunityID)
	cmd.PickupZoneID = strings.TrimSpace(cmd.PickupZoneID)
	cmd.DestinationZoneID = strings.TrimSpace(cmd.DestinationZoneID)
	cmd.VehicleType = strings.TrimSpace(cmd.VehicleType)
	if cmd.PassengerID == "" || cmd.CommunityID == "" || cmd.PickupZoneID == "" || cmd.VehicleType == "" {
		return nil, s.reject("bad_request", ErrBadRequest)
	}

	active, err := s.repo.HasActiveByPassenger(ctx, cmd.PassengerID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, s.reject("active_request", ErrActiveRequestExists)
	}

	pickup, dest, err := s.resolveZones(cmd.PickupZoneID, cmd.DestinationZoneID)
	if err != nil {
		return nil, s.reject("zone_not_found", err)
	}
	vt, err := s.vehicles.Get(cmd.VehicleType)
	if err != nil {
		return nil, s.reject("unknown_vehicle", err)
	}
	if err := s.validator.CheckRoute(pickup, dest, vt); err != nil {
		return nil, s.reject(rejectionReason(err), err)
	}

	now := s.now()
	r := &Request{
		ID:                types.NewID(),
		CommunityID:       cmd.CommunityID,
		PassengerID:       cmd.PassengerID,
		PickupZoneID:      pickup.ID,
		DestinationZoneID: cmd.DestinationZoneID,
		VehicleType:       vt.ID,
		Instructions:      strings.TrimSpace(cmd.Instructions),
		Status:            StatusPending,
		StatusVersion:     0,
		CreatedAt:         now,
	}
	if dest != nil {
		r.DestinationZoneID = dest.ID
		calc, err := s.pricing.CalculatorFor(ctx, cmd.CommunityID)
		if err != nil {
			return nil, err
		}
		km := location.Distance(pickup, *dest)
		fare := calc.Fare(km, vt.CostMultiplier)
		r.DistanceKm = &km
		r.EstimatedCost = &fare
	}

	if err := s.repo.Create(ctx, r); err != nil {
		if errors.Is(err, ErrActiveRequestExists) {
			return nil, s.reject("active_request", err)
		}
		return nil, err
	}
	s.record(ctx, r, StatusNone, StatusPending, ActorPassenger, &cmd.PassengerID, "")
	s.announce(r)
	return r, nil
}

func (s *Service) Accept(ctx context.Context, cmd AcceptCommand) (*Request, error) {
	if cmd.RequestID == "" || cmd.DriverID == "" {
		return nil, ErrBadRequest
	}
	r, err := s.repo.Get(ctx, cmd.RequestID)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusPending {
		return nil, ErrNotPending
	}
	if r.PassengerID == cmd.DriverID {
		return nil, fmt.Errorf("%w: cannot accept your own request", ErrBadRequest)
	}

	d, err := s.drivers.Get(ctx, cmd.DriverID)
	if errors.Is(err, driver.ErrNotFound) {
		return nil, ErrDriverNotFound
	}
	if err != nil {
		return nil, err
	}
	if d.CommunityID != r.CommunityID {
		return nil, fmt.Errorf("%w: driver belongs to another community", ErrDriverUnavailable)
	}
	if d.Status != driver.StatusAvailable {
		return nil, fmt.Errorf("%w: status %s", ErrDriverUnavailable, d.Status)
	}

	pickup, dest, err := s.resolveZones(r.PickupZoneID, r.DestinationZoneID)
	if err != nil {
		return nil, err
	}
	vt, err := s.vehicles.Get(r.VehicleType)
	if err != nil {
		return nil, err
	}
	if err := s.validator.CheckDriver(d.Vehicles, vt, pickup, dest); err != nil {
		return nil, err
	}

	now := s.now()
	ok, err := s.repo.UpdateStatus(ctx, Transition{
		RequestID: r.ID,
		From:      StatusPending,
		To:        StatusAccepted,
		Version:   r.StatusVersion,
		DriverID:  &cmd.DriverID,
		At:        now,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotPending
	}
	r.Status = StatusAccepted
	r.StatusVersion++
	r.DriverID = &cmd.DriverID
	r.AcceptedAt = &now
	s.record(ctx, r, StatusPending, StatusAccepted, ActorDriver, &cmd.DriverID, "")
	return r, nil
}

func (s *Service) Start(ctx context.Context, cmd StartCommand) (*Request, error) {
	r, err := s.repo.Get(ctx, cmd.RequestID)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusAccepted {
		return nil, fmt.Errorf("%w: cannot start a %s request", ErrConflictingState, r.Status)
	}
	if cmd.DriverID != "" && !r.AssignedTo(cmd.DriverID) {
		return nil, ErrForbidden
	}
	now := s.now()
	ok, err := s.repo.UpdateStatus(ctx, Transition{
		RequestID: r.ID,
		From:      StatusAccepted,
		To:        StatusInProgress,
		Version:   r.StatusVersion,
		At:        now,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflictingState
	}
	r.Status = StatusInProgress
	r.StatusVersion++
	r.StartedAt = &now
	s.record(ctx, r, StatusAccepted, StatusInProgress, ActorDriver, r.DriverID, "")
	return r, nil
}

// Complete finalizes the fare, updates the driver's aggregates and hands the
// trip to the settlement hook. Settlement problems never undo completion.
func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) (*Receipt, error) {
	r, err := s.repo.Get(ctx, cmd.RequestID)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusAccepted && r.Status != StatusInProgress {
		return nil, ErrNotActive
	}
	if cmd.DriverID != "" && !r.AssignedTo(cmd.DriverID) {
		return nil, ErrForbidden
	}
	if cmd.FinalCost != nil && !types.ValidAmount(*cmd.FinalCost) {
		return nil, fmt.Errorf("%w: final cost must be between 0 and %.0f", ErrBadRequest, types.MaxAmount)
	}

	calc, err := s.pricing.CalculatorFor(ctx, r.CommunityID)
	if err != nil {
		return nil, err
	}
	final := s.finalCost(calc, r, cmd.FinalCost)

	now := s.now()
	from := r.Status
	ok, err := s.repo.UpdateStatus(ctx, Transition{
		RequestID: r.ID,
		From:      from,
		To:        StatusCompleted,
		Version:   r.StatusVersion,
		FinalCost: &final,
		At:        now,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.conflictAfterRace(ctx, r.ID)
	}
	r.Status = StatusCompleted
	r.StatusVersion++
	r.FinalCost = &final
	r.CompletedAt = &now
	s.record(ctx, r, from, StatusCompleted, ActorDriver, r.DriverID, "")

	receipt := &Receipt{Request: r, Split: calc.Split(final, 0)}
	if r.DriverID == nil {
		return receipt, nil
	}
	driverID := *r.DriverID
	if d, err := s.drivers.Get(ctx, driverID); err == nil {
		receipt.Split = calc.Split(final, driver.BonusRate(d.TotalTrips, d.Rating))
	} else {
		s.log.Warnf("complete %s: load driver %s: %v", r.ID, driverID, err)
	}
	if err := s.drivers.RecordTrip(ctx, driverID, receipt.Split.Driver); err != nil {
		s.log.Errorf("complete %s: record trip for %s: %v", r.ID, driverID, err)
	}
	if s.settle != nil {
		receipt.Settlement = s.settle.Settle(ctx, settlement.Trip{
			RequestID:   r.ID,
			PassengerID: r.PassengerID,
			DriverID:    driverID,
			Fare:        final,
			DriverShare: receipt.Split.Driver,
			PlatformFee: receipt.Split.Platform,
		})
	}
	return receipt, nil
}

func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) (*Request, error) {
	r, err := s.repo.Get(ctx, cmd.RequestID)
	if err != nil {
		return nil, err
	}
	if err := authorizeCancel(r, cmd); err != nil {
		return nil, err
	}
	switch {
	case r.Status.Terminal():
		return nil, ErrNotActive
	case !CanTransition(r.Status, StatusCancelled):
		return nil, fmt.Errorf("%w: cannot cancel a %s request", ErrConflictingState, r.Status)
	}

	reason := strings.TrimSpace(cmd.Reason)
	if reason == "" {
		reason = cmd.ActorType + "_cancel"
	}
	now := s.now()
	from := r.Status
	ok, err := s.repo.UpdateStatus(ctx, Transition{
		RequestID: r.ID,
		From:      from,
		To:        StatusCancelled,
		Version:   r.StatusVersion,
		Reason:    &reason,
		At:        now,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.conflictAfterRace(ctx, r.ID)
	}
	r.Status = StatusCancelled
	r.StatusVersion++
	r.CancelReason = &reason
	r.CancelledAt = &now

	var actor *types.ID
	if cmd.ActorID != "" {
		actor = &cmd.ActorID
	}
	s.record(ctx, r, from, StatusCancelled, cmd.ActorType, actor, reason)
	return r, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Request, error) {
	return s.repo.Get(ctx, id)
}

// GetActive returns the open request of an account, as passenger or as
// assigned driver.
func (s *Service) GetActive(ctx context.Context, accountID types.ID) (*Request, error) {
	if accountID == "" {
		return nil, ErrBadRequest
	}
	return s.repo.ActiveByAccount(ctx, accountID)
}

func (s *Service) Events(ctx context.Context, id types.ID) ([]Event, error) {
	return s.repo.Events(ctx, id)
}

// ListPending shows a driver the pending requests of their community that one
// of their vehicles could serve, oldest first.
func (s *Service) ListPending(ctx context.Context, driverID types.ID, limit int) ([]*Request, error) {
	d, err := s.drivers.Get(ctx, driverID)
	if errors.Is(err, driver.ErrNotFound) {
		return nil, ErrDriverNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(d.Vehicles) == 0 {
		return nil, nil
	}
	if limit <= 0 || limit > s.opts.PageSize {
		limit = s.opts.PageSize
	}
	return s.repo.ListPending(ctx, PendingFilter{
		CommunityID:      d.CommunityID,
		VehicleTypes:     d.Vehicles,
		ExcludePassenger: d.ID,
		Limit:            limit,
	})
}

// ListPendingBefore feeds the dispatch scheduler.
func (s *Service) ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]*Request, error) {
	return s.repo.ListPendingBefore(ctx, before, limit)
}

func (s *Service) Stats(ctx context.Context, communityID string) (Stats, error) {
	if strings.TrimSpace(communityID) == "" {
		return Stats{}, ErrBadRequest
	}
	st, err := s.repo.Stats(ctx, communityID)
	if err != nil {
		return Stats{}, err
	}
	counts, err := s.drivers.CountByStatus(ctx, communityID)
	if err != nil {
		return Stats{}, err
	}
	st.AvailableDrivers = counts[driver.StatusAvailable]
	st.BusyDrivers = counts[driver.StatusBusy]
	return st, nil
}

// ExpirePending cancels pending requests created more than olderThan ago.
// Requests that changed state meanwhile are skipped.
func (s *Service) ExpirePending(ctx context.Context, olderThan time.Duration) (int, error) {
	if olderThan <= 0 {
		return 0, nil
	}
	stale, err := s.repo.ListPendingBefore(ctx, s.now().Add(-olderThan), s.opts.PageSize)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, r := range stale {
		_, err := s.Cancel(ctx, CancelCommand{RequestID: r.ID, ActorType: ActorSystem, Reason: ReasonExpired})
		switch {
		case err == nil:
			expired++
		case errors.Is(err, ErrNotActive), errors.Is(err, ErrConflictingState):
		default:
			s.log.Warnf("expire %s: %v", r.ID, err)
		}
	}
	return expired, nil
}

// RunTimeoutMonitor sweeps stale pending requests until ctx is done. It
// returns immediately when no TTL is configured.
func (s *Service) RunTimeoutMonitor(ctx context.Context) {
	if s.opts.PendingTTL <= 0 {
		return
	}
	ticker := time.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.ExpirePending(ctx, s.opts.PendingTTL)
			if err != nil {
				s.log.Errorf("pending sweep: %v", err)
				continue
			}
			if n > 0 {
				s.log.Infof("expired %d pending requests", n)
			}
		}
	}
}

// Wait blocks until background notifications and event publishing finish.
func (s *Service) Wait() {
	s.bg.Wait()
}

func (s *Service) resolveZones(pickupID, destID string) (zone.Zone, *zone.Zone, error) {
	pickup, err := s.zones.Get(pickupID)
	if err != nil {
		return zone.Zone{}, nil, fmt.Errorf("%w: %s", ErrZoneNotFound, pickupID)
	}
	if destID == "" {
		return pickup, nil, nil
	}
	dest, err := s.zones.Get(destID)
	if err != nil {
		return zone.Zone{}, nil, fmt.Errorf("%w: %s", ErrZoneNotFound, destID)
	}
	return pickup, &dest, nil
}

func (s *Service) finalCost(calc pricing.Calculator, r *Request, explicit *float64) types.Money {
	currency := calc.Rates().Currency
	if explicit != nil {
		return types.MoneyFromFloat(*explicit, currency)
	}
	if r.EstimatedCost != nil {
		return *r.EstimatedCost
	}
	mult := 1.0
	if vt, err := s.vehicles.Get(r.VehicleType); err == nil {
		mult = vt.CostMultiplier
	}
	return calc.Fare(0, mult)
}

// conflictAfterRace classifies a lost conditional update by re-reading the row.
func (s *Service) conflictAfterRace(ctx context.Context, id types.ID) error {
	cur, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if cur.Status.Terminal() {
		return ErrNotActive
	}
	return ErrConflictingState
}

func (s *Service) record(ctx context.Context, r *Request, from, to Status, actorType string, actorID *types.ID, reason string) {
	e := Event{
		RequestID:   r.ID,
		CommunityID: r.CommunityID,
		FromStatus:  from,
		ToStatus:    to,
		ActorType:   actorType,
		ActorID:     actorID,
		Reason:      reason,
		CreatedAt:   s.now(),
	}
	if err := s.repo.AppendEvent(ctx, &e); err != nil {
		s.log.Warnf("append event %s %s->%s: %v", r.ID, from, to, err)
	}
	if s.metrics != nil {
		s.metrics.RecordTransition(string(from), string(to))
	}
	if s.events != nil {
		s.background(func(ctx context.Context) {
			if err := s.events.Publish(ctx, e); err != nil {
				s.log.Warnf("publish event %s %s->%s: %v", r.ID, from, to, err)
			}
		})
	}
}

func (s *Service) announce(r *Request) {
	if s.dispatch == nil {
		return
	}
	snapshot := cloneRequest(r)
	s.background(func(ctx context.Context) {
		s.dispatch.Announce(ctx, snapshot)
	})
}

// background runs fn detached from the caller's context with the notify
// timeout.
func (s *Service) background(fn func(ctx context.Context)) {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.NotifyTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (s *Service) reject(reason string, err error) error {
	if s.metrics != nil {
		s.metrics.RecordRejection(reason)
	}
	return err
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrZoneRestricted):
		return "zone_restricted"
	case errors.Is(err, ErrIncompatibleVehicle):
		return "incompatible_vehicle"
	}
	return "invalid"
}

func authorizeCancel(r *Request, cmd CancelCommand) error {
	switch cmd.ActorType {
	case ActorPassenger:
		if cmd.ActorID != r.PassengerID {
			return ErrForbidden
		}
	case ActorDriver:
		if !r.AssignedTo(cmd.ActorID) {
			return ErrForbidden
		}
	case ActorSystem, ActorAdmin:
	default:
		return fmt.Errorf("%w: unknown actor %q", ErrBadRequest, cmd.ActorType)
	}
	return nil
}
