// Package notify defines the contract between the dispatch core and the
// notification fan-out layer. Notification failures are side effects: callers
// log them and never fail the primary operation on their account.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/rescuegrid/firedispatch/core/metrics"
	"github.com/rescuegrid/firedispatch/core/model"
)

// EventType names the notification event kinds emitted by the core.
type EventType string

const (
	// EventIncidentCreated is the broadcast variant kept for legacy
	// cross-station visibility.
	EventIncidentCreated EventType = "incident-created"
	// EventIncidentDispatched targets the dispatched station's channel.
	EventIncidentDispatched EventType = "incident-dispatched"
	EventStatusChanged      EventType = "incident-status-changed"
	EventAlarmLevelChanged  EventType = "incident-alarm-level-changed"
	EventReadinessChanged   EventType = "station-readiness-changed"
)

// Event is the payload pushed to connected clients.
type Event struct {
	Type       EventType             `json:"type"`
	AlarmID    string                `json:"alarm_id,omitempty"`
	StationID  string                `json:"station_id,omitempty"`
	Latitude   float64               `json:"latitude,omitempty"`
	Longitude  float64               `json:"longitude,omitempty"`
	AlarmLevel model.AlarmLevel      `json:"alarm_level,omitempty"`
	Status     model.IncidentStatus  `json:"status,omitempty"`
	Readiness  model.ReadinessStatus `json:"readiness,omitempty"`
	Time       time.Time             `json:"time"`
}

// StationRoom names the per-station notification channel.
func StationRoom(stationID string) string {
	return "station-" + stationID
}

// Notifier delivers events to connected clients. Broadcast reaches every
// listener; ToStation reaches only the named station's room.
type Notifier interface {
	Broadcast(ctx context.Context, ev Event) error
	ToStation(ctx context.Context, stationID string, ev Event) error
	Close() error
}

// Nop is a Notifier that discards everything.
type Nop struct{}

func (Nop) Broadcast(context.Context, Event) error         { return nil }
func (Nop) ToStation(context.Context, string, Event) error { return nil }
func (Nop) Close() error                                   { return nil }

// Instrument wraps n so delivery failures are counted under the given sink
// name. A nil recorder returns n unchanged.
func Instrument(n Notifier, name string, rec metrics.NotificationFailureRecorder) Notifier {
	if rec == nil {
		return n
	}
	return &instrumented{next: n, name: name, rec: rec}
}

type instrumented struct {
	next Notifier
	name string
	rec  metrics.NotificationFailureRecorder
}

func (i *instrumented) Broadcast(ctx context.Context, ev Event) error {
	err := i.next.Broadcast(ctx, ev)
	if err != nil {
		_ = i.rec.RecordNotificationFailure(i.name)
	}
	return err
}

func (i *instrumented) ToStation(ctx context.Context, stationID string, ev Event) error {
	err := i.next.ToStation(ctx, stationID, ev)
	if err != nil {
		_ = i.rec.RecordNotificationFailure(i.name)
	}
	return err
}

func (i *instrumented) Close() error { return i.next.Close() }

// Multi fans events out to several notifiers, collecting errors.
type Multi []Notifier

func (m Multi) Broadcast(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Broadcast(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) ToStation(ctx context.Context, stationID string, ev Event) error {
	var errs []error
	for _, n := range m {
		if err := n.ToStation(ctx, stationID, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, n := range m {
		if err := n.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
