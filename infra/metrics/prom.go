// Package metrics provides the metric sink implementations: Prometheus,
// InfluxDB and a fan-out combinator.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/rescuegrid/firedispatch/core/metrics"
)

// PromSink records dispatch and readiness activity in Prometheus metrics.
type PromSink struct {
	incidents     *prometheus.CounterVec
	distance      prometheus.Histogram
	readyStations prometheus.Gauge
	submissions   *prometheus.CounterVec
	notifyFails   *prometheus.CounterVec
}

// NewPromSink registers the metrics on the default Prometheus registerer.
// The Prometheus server is started separately on cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	incidents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "incidents_created_total",
		Help: "Total number of incidents created, by alarm level and dispatch mode",
	}, []string{"alarm_level", "forced"})
	distance := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dispatch_distance_km",
		Help:    "Distance between caller and dispatched station in kilometers",
		Buckets: []float64{0.5, 1, 2, 5, 10, 15, 25, 50, 100},
	})
	readyStations := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ready_stations",
		Help: "Number of stations currently in the dispatch candidate pool",
	})
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "readiness_submissions_total",
		Help: "Total number of readiness submissions, by reported status",
	}, []string{"status"})
	notifyFails := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_failures_total",
		Help: "Total number of failed notification deliveries, by sink",
	}, []string{"sink"})

	if err := reg.Register(incidents); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			incidents = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(distance); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			distance = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(readyStations); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			readyStations = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(submissions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			submissions = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(notifyFails); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			notifyFails = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{
		incidents:     incidents,
		distance:      distance,
		readyStations: readyStations,
		submissions:   submissions,
		notifyFails:   notifyFails,
	}, nil
}

// RecordDispatch increments the incident counter and observes the dispatch
// distance.
func (s *PromSink) RecordDispatch(ev coremetrics.DispatchEvent) error {
	s.incidents.WithLabelValues(string(ev.AlarmLevel), strconv.FormatBool(ev.Forced)).Inc()
	s.distance.Observe(ev.DistanceKm)
	return nil
}

// RecordReadiness counts a submission by status.
func (s *PromSink) RecordReadiness(ev coremetrics.ReadinessEvent) error {
	s.submissions.WithLabelValues(string(ev.Status)).Inc()
	return nil
}

// RecordReadyStations sets the candidate pool gauge.
func (s *PromSink) RecordReadyStations(count int) error {
	s.readyStations.Set(float64(count))
	return nil
}

// RecordNotificationFailure counts a failed delivery for the named sink.
func (s *PromSink) RecordNotificationFailure(sink string) error {
	s.notifyFails.WithLabelValues(sink).Inc()
	return nil
}
