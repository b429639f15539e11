// README: Prometheus sink for ride transitions, dispatch fan-out and settlement outcomes.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PromSink implements the metrics hooks of the ride, dispatch and
// settlement services.
type PromSink struct {
	transitions *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	deliveries  *prometheus.CounterVec
	settlements *prometheus.CounterVec
	fanout      prometheus.Histogram
}

// NewPromSink registers the collectors on reg, or on the default registerer
// when reg is nil. Already registered collectors are reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	transitions, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ride_transitions_total",
		Help: "Ride request status transitions",
	}, []string{"from", "to"}))
	if err != nil {
		return nil, err
	}
	rejections, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ride_create_rejections_total",
		Help: "Ride requests rejected at creation",
	}, []string{"reason"}))
	if err != nil {
		return nil, err
	}
	deliveries, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_deliveries_total",
		Help: "Driver notifications by outcome",
	}, []string{"outcome"}))
	if err != nil {
		return nil, err
	}
	settlements, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlements_total",
		Help: "Trip settlements by outcome",
	}, []string{"status"}))
	if err != nil {
		return nil, err
	}
	fanout, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dispatch_fanout_seconds",
		Help:    "Time to notify all eligible drivers of a request",
		Buckets: prometheus.DefBuckets,
	}))
	if err != nil {
		return nil, err
	}
	return &PromSink{
		transitions: transitions,
		rejections:  rejections,
		deliveries:  deliveries,
		settlements: settlements,
		fanout:      fanout,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (s *PromSink) RecordTransition(from, to string) {
	s.transitions.WithLabelValues(from, to).Inc()
}

func (s *PromSink) RecordRejection(reason string) {
	s.rejections.WithLabelValues(reason).Inc()
}

func (s *PromSink) RecordDelivery(outcome string) {
	s.deliveries.WithLabelValues(outcome).Inc()
}

func (s *PromSink) ObserveFanout(d time.Duration) {
	s.fanout.Observe(d.Seconds())
}

func (s *PromSink) RecordSettlement(status string) {
	s.settlements.WithLabelValues(status).Inc()
}
