package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/rescuegrid/firedispatch/core/metrics"
	"github.com/rescuegrid/firedispatch/core/model"
)

type recordSink struct {
	dispatches int
	readiness  int
	poolSizes  []int
}

func (r *recordSink) RecordDispatch(coremetrics.DispatchEvent) error {
	r.dispatches++
	return nil
}

func (r *recordSink) RecordReadiness(coremetrics.ReadinessEvent) error {
	r.readiness++
	return nil
}

func (r *recordSink) RecordReadyStations(count int) error {
	r.poolSizes = append(r.poolSizes, count)
	return nil
}

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	m := NewMultiSink(s1, s2, coremetrics.NopSink{})
	if err := m.RecordDispatch(coremetrics.DispatchEvent{}); err != nil {
		t.Fatalf("record dispatch: %v", err)
	}
	if err := m.RecordReadiness(coremetrics.ReadinessEvent{}); err != nil {
		t.Fatalf("record readiness: %v", err)
	}
	if err := m.RecordReadyStations(3); err != nil {
		t.Fatalf("record ready stations: %v", err)
	}
	if s1.dispatches != 1 || s2.dispatches != 1 {
		t.Fatalf("dispatch not forwarded")
	}
	if s1.readiness != 1 || s2.readiness != 1 {
		t.Fatalf("readiness not forwarded")
	}
	if len(s1.poolSizes) != 1 || s1.poolSizes[0] != 3 {
		t.Fatalf("pool size not forwarded: %v", s1.poolSizes)
	}
}

func TestPromSink(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}

	ev := coremetrics.DispatchEvent{
		AlarmID:    "a1",
		StationID:  "st1",
		AlarmLevel: model.Alarm2,
		DistanceKm: 1.6,
		Time:       time.Now(),
	}
	if err := sink.RecordDispatch(ev); err != nil {
		t.Fatalf("record dispatch: %v", err)
	}
	if err := sink.RecordReadiness(coremetrics.ReadinessEvent{
		StationID: "st1", Status: model.ReadinessPartiallyReady, Percentage: 60, Ready: true,
	}); err != nil {
		t.Fatalf("record readiness: %v", err)
	}
	if err := sink.RecordReadyStations(4); err != nil {
		t.Fatalf("record ready stations: %v", err)
	}
	if err := sink.RecordNotificationFailure("websocket"); err != nil {
		t.Fatalf("record notification failure: %v", err)
	}

	if got := testutil.ToFloat64(sink.incidents.WithLabelValues(string(model.Alarm2), "false")); got != 1 {
		t.Fatalf("incidents counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(sink.readyStations); got != 4 {
		t.Fatalf("ready stations gauge = %v, want 4", got)
	}
	if got := testutil.ToFloat64(sink.submissions.WithLabelValues(string(model.ReadinessPartiallyReady))); got != 1 {
		t.Fatalf("submissions counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(sink.notifyFails.WithLabelValues("websocket")); got != 1 {
		t.Fatalf("notification failures counter = %v, want 1", got)
	}
}

func TestPromSink_DoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg); err != nil {
		t.Fatalf("second registration: %v", err)
	}
}
