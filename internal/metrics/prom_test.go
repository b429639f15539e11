package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPromSink_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSink(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	sink.RecordTransition("pending", "accepted")
	sink.RecordTransition("pending", "accepted")
	sink.RecordRejection("zone_restricted")
	sink.RecordDelivery("delivered")
	sink.RecordSettlement("skipped")
	sink.ObserveFanout(120 * time.Millisecond)

	expected := `
# HELP ride_transitions_total Ride request status transitions
# TYPE ride_transitions_total counter
ride_transitions_total{from="pending",to="accepted"} 2
`
	if err := testutil.CollectAndCompare(sink.transitions, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
	if v := testutil.ToFloat64(sink.rejections.WithLabelValues("zone_restricted")); v != 1 {
		t.Errorf("rejections = %v, want 1", v)
	}
	if v := testutil.ToFloat64(sink.settlements.WithLabelValues("skipped")); v != 1 {
		t.Errorf("settlements = %v, want 1", v)
	}
	if c := testutil.CollectAndCount(sink.fanout); c == 0 {
		t.Errorf("fanout not recorded")
	}
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSink(reg)
	if err != nil {
		t.Fatalf("first sink: %v", err)
	}
	second, err := NewPromSink(reg)
	if err != nil {
		t.Fatalf("second sink: %v", err)
	}
	first.RecordDelivery("failed")
	if v := testutil.ToFloat64(second.deliveries.WithLabelValues("failed")); v != 1 {
		t.Errorf("second sink should share collectors, got %v", v)
	}
}
