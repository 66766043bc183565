// Package metrics defines the observability contract of the dispatch core.
// Sinks are implemented in infra/metrics.
package metrics

import (
	"time"

	"github.com/rescuegrid/firedispatch/core/model"
)

// DispatchEvent captures one dispatch decision for recording.
type DispatchEvent struct {
	AlarmID        string
	StationID      string
	AlarmLevel     model.AlarmLevel
	DistanceKm     float64
	Forced         bool
	WithinCoverage bool
	Candidates     int
	Time           time.Time
}

// Sink records dispatch decisions.
type Sink interface {
	RecordDispatch(ev DispatchEvent) error
}

// ReadinessEvent captures one readiness submission.
type ReadinessEvent struct {
	StationID  string
	Status     model.ReadinessStatus
	Percentage int
	Ready      bool
	Time       time.Time
}

// ReadinessRecorder records readiness submissions. Sinks implement it
// optionally; callers type-assert.
type ReadinessRecorder interface {
	RecordReadiness(ev ReadinessEvent) error
}

// ReadyCountRecorder records the current size of the candidate pool.
type ReadyCountRecorder interface {
	RecordReadyStations(count int) error
}

// NotificationFailureRecorder counts notification fan-out failures per sink.
type NotificationFailureRecorder interface {
	RecordNotificationFailure(sink string) error
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) RecordDispatch(DispatchEvent) error { return nil }
