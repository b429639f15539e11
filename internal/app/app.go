// README: Builds the service graph from config; Postgres and Redis are used when configured, memory otherwise.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"zonetaxi/internal/config"
	"zonetaxi/internal/events"
	httptransport "zonetaxi/internal/http"
	"zonetaxi/internal/infra"
	"zonetaxi/internal/logger"
	"zonetaxi/internal/metrics"
	"zonetaxi/internal/modules/compat"
	"zonetaxi/internal/modules/dispatch"
	"zonetaxi/internal/modules/driver"
	"zonetaxi/internal/modules/ledger"
	"zonetaxi/internal/modules/location"
	"zonetaxi/internal/modules/pricing"
	"zonetaxi/internal/modules/rating"
	"zonetaxi/internal/modules/ride"
	"zonetaxi/internal/modules/settlement"
	"zonetaxi/internal/modules/vehicle"
	"zonetaxi/internal/modules/zone"
	"zonetaxi/internal/notify"
	"zonetaxi/internal/types"
)

// App owns every long-lived component. Close releases connections.
type App struct {
	Config    *config.Config
	Log       logger.Logger
	DB        *pgxpool.Pool
	Redis     *redis.Client
	Zones     *zone.Registry
	Vehicles  *vehicle.Catalog
	Validator *compat.Validator
	Pricing   *pricing.Service
	Drivers   *driver.Service
	Rides     *ride.Service
	Dispatch  *dispatch.Service
	Ratings   *rating.Service
	Locations *location.Service
	Ledger    settlement.Ledger
	Hub       *notify.Hub
	Metrics   *metrics.PromSink
	Registry  *prometheus.Registry
	Verifier  infra.TokenVerifier

	closers []func()
}

// New wires the graph. Every external dependency is optional except the
// ones the config names: a configured DSN that cannot be reached fails.
func New(ctx context.Context, cfg *config.Config, cat *config.Catalog) (a *App, err error) {
	logger.SetLevel(cfg.Logging.Level)
	a = &App{Config: cfg, Log: logger.New("app"), Registry: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if a.Metrics, err = metrics.NewPromSink(a.Registry); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	if a.Zones, err = zone.NewRegistry(cat.Zones, zone.Options{
		StopToleranceM: cfg.Lookup.StopToleranceM,
		ZoneToleranceM: cfg.Lookup.ZoneToleranceM,
		Policies:       cat.Policies,
	}); err != nil {
		return nil, fmt.Errorf("zones: %w", err)
	}
	if a.Vehicles, err = vehicle.NewCatalog(cat.Vehicles); err != nil {
		return nil, fmt.Errorf("vehicles: %w", err)
	}
	a.Validator = compat.NewValidator(a.Zones)

	if cfg.DB.DSN != "" {
		if a.DB, err = infra.NewDB(ctx, cfg.DB.DSN); err != nil {
			return nil, err
		}
		a.closers = append(a.closers, a.DB.Close)
	}
	if cfg.Redis.Addr != "" {
		if a.Redis, err = infra.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = a.Redis.Close() })
	}
	if a.Verifier, err = a.verifier(ctx); err != nil {
		return nil, err
	}

	rates := cfg.Pricing.Rates()
	var (
		rideRepo   ride.Repository
		driverRepo driver.Repository
		ratingRepo rating.Repository
		rateStore  pricing.RateStore
		book       dispatch.Bookkeeper
		positions  location.PositionStore
	)
	if a.DB != nil {
		rideRepo = ride.NewStore(a.DB)
		driverRepo = driver.NewStore(a.DB)
		ratingRepo = rating.NewStore(a.DB)
		rateStore = pricing.NewStore(a.DB)
		a.Ledger = ledger.NewStore(a.DB, rates.Currency)
	} else {
		a.Log.Warnf("no database configured; rides, drivers and balances live in memory")
		rideRepo = ride.NewMemoryStore()
		driverRepo = driver.NewMemoryStore()
		ratingRepo = rating.NewMemoryStore()
		a.Ledger = ledger.NewMemory(rates.Currency)
	}
	if a.Redis != nil {
		book = dispatch.NewStore(a.Redis)
		positions = location.NewStore(a.Redis)
	} else {
		book = dispatch.NewMemoryStore()
		positions = location.NewMemoryStore()
	}

	a.Pricing = pricing.NewService(rateStore, rates)
	a.Drivers = driver.NewService(driverRepo, a.Vehicles)
	a.Locations = location.NewService(positions, a.Zones)

	notifier, err := a.notifier(ctx)
	if err != nil {
		return nil, err
	}
	a.Dispatch = dispatch.NewService(dispatch.Deps{
		Drivers:  a.Drivers,
		Pending:  rideRepo,
		Book:     book,
		Notifier: notifier,
		Zones:    a.Zones,
		Metrics:  a.Metrics,
		Log:      logger.New("dispatch"),
	}, dispatch.Config{
		MaxRecipients:    cfg.Dispatch.MaxRecipients,
		Concurrency:      cfg.Dispatch.Concurrency,
		RebroadcastAfter: cfg.Dispatch.RebroadcastAfter(),
		TickInterval:     cfg.Dispatch.Tick(),
		BatchSize:        cfg.Dispatch.BatchSize,
	})

	policy := settlement.SoftFail
	if cfg.Ledger.StrictSettlement {
		policy = func(error) settlement.Decision { return settlement.DecisionFail }
	}
	settler := settlement.NewHook(a.Ledger, settlement.Options{
		Policy:          policy,
		PlatformAccount: types.ID(cfg.Ledger.PlatformAccount),
		Log:             logger.New("settlement"),
		Metrics:         a.Metrics,
	})

	var sink ride.EventSink
	if len(cfg.Events.Brokers) > 0 {
		pub := events.NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.Topic)
		a.closers = append(a.closers, func() { _ = pub.Close() })
		sink = pub
	}

	a.Rides = ride.NewService(ride.Deps{
		Repo:      rideRepo,
		Drivers:   a.Drivers,
		Zones:     a.Zones,
		Vehicles:  a.Vehicles,
		Validator: a.Validator,
		Pricing:   a.Pricing,
		Dispatch:  a.Dispatch,
		Settle:    settler,
		Events:    sink,
		Metrics:   a.Metrics,
		Log:       logger.New("ride"),
	}, ride.Options{
		PendingTTL:    cfg.Dispatch.PendingTTL(),
		SweepInterval: cfg.Dispatch.Sweep(),
		NotifyTimeout: cfg.Dispatch.NotifyTimeout(),
	})
	a.Ratings = rating.NewService(ratingRepo, a.Rides, a.Drivers, logger.New("rating"))
	return a, nil
}

func (a *App) verifier(ctx context.Context) (infra.TokenVerifier, error) {
	switch a.Config.Auth.Mode {
	case config.AuthFirebase:
		app, err := infra.NewFirebaseApp(ctx, a.Config.Auth.FirebaseProjectID, a.Config.Auth.FirebaseCredentials)
		if err != nil {
			return nil, err
		}
		return infra.NewFirebaseVerifier(ctx, app)
	case config.AuthJWT:
		return infra.NewJWTVerifier(a.Config.Auth.JWTSecret, a.Config.Auth.JWTIssuer), nil
	default:
		a.Log.Warnf("auth mode dev: bearer tokens are trusted as uid[:role]")
		return infra.NewDevVerifier(), nil
	}
}

// notifier stacks the configured channels; the first one that delivers wins.
func (a *App) notifier(ctx context.Context) (notify.Notifier, error) {
	cfg := a.Config.Notify
	log := logger.New("notify")
	var chain notify.Multi
	if cfg.Websocket {
		a.Hub = notify.NewHub(log)
		chain = append(chain, a.Hub)
	}
	if cfg.FCM {
		if a.Config.Auth.FirebaseProjectID == "" {
			return nil, errors.New("notify.fcm needs auth.firebase_project_id")
		}
		app, err := infra.NewFirebaseApp(ctx, a.Config.Auth.FirebaseProjectID, a.Config.Auth.FirebaseCredentials)
		if err != nil {
			return nil, err
		}
		client, err := infra.NewMessagingClient(ctx, app)
		if err != nil {
			return nil, err
		}
		chain = append(chain, notify.NewFCM(client, log))
	}
	if cfg.AMQPURL != "" {
		conn, ch, err := notify.DialAMQP(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPAttempts, log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() {
			_ = ch.Close()
			_ = conn.Close()
		})
		chain = append(chain, notify.NewAMQP(ch, cfg.AMQPExchange))
	}
	if len(chain) == 0 {
		return notify.Log{L: log}, nil
	}
	return chain, nil
}

// HTTPDeps exposes the graph to the router.
func (a *App) HTTPDeps() httptransport.Deps {
	return httptransport.Deps{
		Verifier:  a.Verifier,
		Zones:     a.Zones,
		Vehicles:  a.Vehicles,
		Validator: a.Validator,
		Locations: a.Locations,
		Pricing:   a.Pricing,
		Drivers:   a.Drivers,
		Rides:     a.Rides,
		Dispatch:  a.Dispatch,
		Ratings:   a.Ratings,
		Ledger:    a.Ledger,
		Hub:       a.Hub,
		Gatherer:  a.Registry,
		Log:       logger.New("http"),
	}
}

// Run serves HTTP and the background loops until ctx is done, then waits
// for in-flight notifications.
func (a *App) Run(ctx context.Context) error {
	server := httptransport.NewServer(a.Config.HTTP.Addr, time.Duration(a.Config.HTTP.ShutdownSeconds)*time.Second, a.HTTPDeps())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Dispatch.RunScheduler(gctx)
		return nil
	})
	g.Go(func() error {
		a.Rides.RunTimeoutMonitor(gctx)
		return nil
	})
	g.Go(func() error {
		return server.Run(gctx)
	})
	err := g.Wait()
	a.Rides.Wait()
	return err
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
