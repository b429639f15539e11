// README: API gateway; wires module services into the router and runs the HTTP server.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"zonetaxi/internal/infra"
	"zonetaxi/internal/logger"
	"zonetaxi/internal/modules/compat"
	"zonetaxi/internal/modules/dispatch"
	"zonetaxi/internal/modules/driver"
	"zonetaxi/internal/modules/location"
	"zonetaxi/internal/modules/pricing"
	"zonetaxi/internal/modules/rating"
	"zonetaxi/internal/modules/ride"
	"zonetaxi/internal/modules/settlement"
	"zonetaxi/internal/modules/vehicle"
	"zonetaxi/internal/modules/zone"
	"zonetaxi/internal/notify"
)

// Deps lists what the router serves. Hub, Ledger and Gatherer are optional.
type Deps struct {
	Verifier  infra.TokenVerifier
	Zones     *zone.Registry
	Vehicles  *vehicle.Catalog
	Validator *compat.Validator
	Locations *location.Service
	Pricing   *pricing.Service
	Drivers   *driver.Service
	Rides     *ride.Service
	Dispatch  *dispatch.Service
	Ratings   *rating.Service
	Ledger    settlement.Ledger
	Hub       *notify.Hub
	Gatherer  prometheus.Gatherer
	Log       logger.Logger
}

type Server struct {
	srv             *http.Server
	shutdownTimeout time.Duration
	log             logger.Logger
}

func NewServer(addr string, shutdownTimeout time.Duration, d Deps) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(d),
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: shutdownTimeout,
		log:             logger.OrNop(d.Log),
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.srv.Addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Infof("http server stopped")
	return nil
}
