// Package readinesswatch periodically sweeps the station registry: it warns
// about stations whose latest readiness submission has gone stale and keeps
// the candidate-pool gauge current.
package readinesswatch

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rescuegrid/firedispatch/core/logger"
	"github.com/rescuegrid/firedispatch/core/metrics"
	"github.com/rescuegrid/firedispatch/core/readiness"
)

// Watcher runs the sweep on a cron schedule.
type Watcher struct {
	registry   *readiness.Registry
	sink       metrics.Sink
	staleAfter time.Duration
	log        logger.Logger
	cron       *cron.Cron
	now        func() time.Time
}

// New creates a Watcher. sink may be nil.
func New(registry *readiness.Registry, sink metrics.Sink, staleAfter time.Duration, log logger.Logger) *Watcher {
	return &Watcher{
		registry:   registry,
		sink:       sink,
		staleAfter: staleAfter,
		log:        log,
		now:        time.Now,
	}
}

// Start schedules the sweep with the given cron expression and runs one sweep
// immediately so gauges are populated at boot.
func (w *Watcher) Start(schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		w.Sweep(context.Background())
	}); err != nil {
		return err
	}
	w.cron = c
	c.Start()
	w.Sweep(context.Background())
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (w *Watcher) Stop() {
	if w.cron != nil {
		<-w.cron.Stop().Done()
	}
}

// Sweep checks every station's latest submission age and refreshes the
// ready-station gauge. Failures are logged; the sweep never takes the service
// down.
func (w *Watcher) Sweep(ctx context.Context) {
	rows, err := w.registry.Overview(ctx)
	if err != nil {
		w.log.Errorf("readiness sweep: %v", err)
		return
	}
	cutoff := w.now().Add(-w.staleAfter)
	ready := 0
	for _, row := range rows {
		if row.IsReady {
			ready++
		}
		switch {
		case row.LastUpdate.IsZero():
			w.log.Warnf("station %s (%s) has never submitted readiness", row.Name, row.StationID)
		case row.LastUpdate.Before(cutoff):
			w.log.Warnf("station %s (%s) readiness is stale: last submission %s",
				row.Name, row.StationID, row.LastUpdate.Format(time.RFC3339))
		}
	}
	if w.sink != nil {
		if rec, ok := w.sink.(metrics.ReadyCountRecorder); ok {
			if err := rec.RecordReadyStations(ready); err != nil {
				w.log.Errorf("ready station gauge: %v", err)
			}
		}
	}
}
