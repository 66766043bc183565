package metrics

import coremetrics "github.com/rescuegrid/firedispatch/core/metrics"

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordDispatch forwards the event to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordDispatch(ev coremetrics.DispatchEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordDispatch(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordReadiness forwards readiness events to sinks that support them.
func (m *MultiSink) RecordReadiness(ev coremetrics.ReadinessEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.ReadinessRecorder); ok {
			if err := rec.RecordReadiness(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordReadyStations forwards the pool size to sinks that support it.
func (m *MultiSink) RecordReadyStations(count int) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.ReadyCountRecorder); ok {
			if err := rec.RecordReadyStations(count); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordNotificationFailure forwards delivery failures to sinks that count them.
func (m *MultiSink) RecordNotificationFailure(sink string) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.NotificationFailureRecorder); ok {
			if err := rec.RecordNotificationFailure(sink); err != nil {
				return err
			}
		}
	}
	return nil
}
