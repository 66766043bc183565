// Package incident implements the incident ("alarm") lifecycle: creation
// with synchronous dispatch selection, status and alarm-level transitions,
// and the append-only response log.
package incident

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rescuegrid/firedispatch/core/dispatch"
	"github.com/rescuegrid/firedispatch/core/dispatch/auditlog"
	"github.com/rescuegrid/firedispatch/core/logger"
	"github.com/rescuegrid/firedispatch/core/metrics"
	"github.com/rescuegrid/firedispatch/core/model"
	"github.com/rescuegrid/firedispatch/core/notify"
)

// ErrInvalidTransition is returned when a status update does not follow the
// response flow.
var ErrInvalidTransition = errors.New("incident: invalid status transition")

// StationSelector is the slice of the dispatch selector the service needs.
type StationSelector interface {
	Select(ctx context.Context, req dispatch.SelectionRequest) (dispatch.Selection, error)
}

// Service orchestrates incident creation and lifecycle transitions.
//
// Error policy: validation, selection and primary-row write failures abort
// the operation and propagate. Response-log appends, audit appends, metrics
// and notifications are side effects: their failures are logged and
// swallowed, so an incident is real even when its audit trail or push
// notification is momentarily incomplete.
type Service struct {
	store    Store
	selector StationSelector
	audit    auditlog.Store
	notifier notify.Notifier
	sink     metrics.Sink
	log      logger.Logger
	now      func() time.Time
}

// NewService creates a Service. audit, notifier and sink may be nil.
func NewService(store Store, selector StationSelector, audit auditlog.Store, notifier notify.Notifier, sink metrics.Sink, log logger.Logger) *Service {
	if audit == nil {
		audit = auditlog.NopStore{}
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Service{
		store:    store,
		selector: selector,
		audit:    audit,
		notifier: notifier,
		sink:     sink,
		log:      log,
		now:      time.Now,
	}
}

// SetClock overrides the service clock. Used in tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// CreateRequest carries an incident report from a caller or admin.
type CreateRequest struct {
	ReporterID      string           `json:"end_user_id"`
	Latitude        float64          `json:"latitude"`
	Longitude       float64          `json:"longitude"`
	AlarmLevel      model.AlarmLevel `json:"alarm_level"`
	Details         string           `json:"details,omitempty"`
	ForcedStationID string           `json:"forced_station_id,omitempty"`
}

// CreateResult is the outcome of a successful incident creation.
type CreateResult struct {
	Incident  model.Incident     `json:"incident"`
	Selection dispatch.Selection `json:"selection"`
}

// Create runs the dispatch selector synchronously and persists the incident.
// Selection failure aborts the creation: no incident exists without a
// resolved station. The dispatched station is fixed here and never changes.
func (s *Service) Create(ctx context.Context, req CreateRequest) (CreateResult, error) {
	if !req.AlarmLevel.Valid() {
		return CreateResult{}, model.NewValidationError("alarm_level", "missing or unknown level")
	}

	sel, err := s.selector.Select(ctx, dispatch.SelectionRequest{
		CallerLat:       req.Latitude,
		CallerLon:       req.Longitude,
		ForcedStationID: req.ForcedStationID,
	})
	if err != nil {
		return CreateResult{}, err
	}

	now := s.now().UTC()
	inc := model.Incident{
		AlarmID:             uuid.NewString(),
		ReporterID:          req.ReporterID,
		Latitude:            req.Latitude,
		Longitude:           req.Longitude,
		InitialAlarmLevel:   req.AlarmLevel,
		CurrentAlarmLevel:   req.AlarmLevel,
		Status:              model.StatusPendingDispatch,
		CallTime:            now,
		DispatchedStationID: sel.StationID,
		Details:             req.Details,
	}
	if err := s.store.CreateIncident(ctx, inc); err != nil {
		return CreateResult{}, fmt.Errorf("persist incident: %w", err)
	}
	s.log.Infof("alarm %s dispatched to station %s (%.2f km, %d candidates)",
		inc.AlarmID, sel.StationID, sel.DistanceKm, len(sel.Candidates))

	s.appendLog(ctx, model.ResponseLogEntry{
		AlarmID:    inc.AlarmID,
		ActionType: model.ActionInitialDispatch,
		Details: fmt.Sprintf("Dispatched to station %s at %.2f km (%d candidates considered)",
			sel.StationID, sel.DistanceKm, len(sel.Candidates)),
		PerformedBy: req.ReporterID,
		Timestamp:   now,
	})
	if err := s.audit.Append(ctx, auditlog.Record{
		Timestamp:      now,
		AlarmID:        inc.AlarmID,
		CallerLat:      req.Latitude,
		CallerLon:      req.Longitude,
		Forced:         sel.Forced,
		StationID:      sel.StationID,
		DistanceKm:     sel.DistanceKm,
		WithinCoverage: sel.WithinCoverage,
		Candidates:     sel.Candidates,
		Stats:          sel.Stats,
	}); err != nil {
		s.log.Errorf("dispatch audit append for %s: %v", inc.AlarmID, err)
	}
	if s.sink != nil {
		if err := s.sink.RecordDispatch(metrics.DispatchEvent{
			AlarmID:        inc.AlarmID,
			StationID:      sel.StationID,
			AlarmLevel:     inc.CurrentAlarmLevel,
			DistanceKm:     sel.DistanceKm,
			Forced:         sel.Forced,
			WithinCoverage: sel.WithinCoverage,
			Candidates:     len(sel.Candidates),
			Time:           now,
		}); err != nil {
			s.log.Errorf("dispatch metrics for %s: %v", inc.AlarmID, err)
		}
	}

	ev := notify.Event{
		AlarmID:    inc.AlarmID,
		StationID:  sel.StationID,
		Latitude:   inc.Latitude,
		Longitude:  inc.Longitude,
		AlarmLevel: inc.CurrentAlarmLevel,
		Status:     inc.Status,
		Time:       now,
	}
	ev.Type = notify.EventIncidentDispatched
	if err := s.notifier.ToStation(ctx, sel.StationID, ev); err != nil {
		s.log.Errorf("notify station %s: %v", sel.StationID, err)
	}
	ev.Type = notify.EventIncidentCreated
	if err := s.notifier.Broadcast(ctx, ev); err != nil {
		s.log.Errorf("broadcast incident %s: %v", inc.AlarmID, err)
	}

	return CreateResult{Incident: inc, Selection: sel}, nil
}

// UpdateStatus advances an incident along the response flow. Re-applying the
// current status is a no-op. Entering Dispatch On the Way stamps the dispatch
// time and records an optional truck assignment; Resolved and Cancelled stamp
// the resolve time.
func (s *Service) UpdateStatus(ctx context.Context, alarmID string, status model.IncidentStatus, performedBy, truckID string) (model.Incident, error) {
	if !ValidStatus(status) {
		return model.Incident{}, model.NewValidationError("status", "unknown status")
	}
	inc, err := s.store.GetIncident(ctx, alarmID)
	if err != nil {
		return model.Incident{}, err
	}
	if inc.Status == status {
		return inc, nil
	}
	if !CanTransition(inc.Status, status) {
		return model.Incident{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, inc.Status, status)
	}

	now := s.now().UTC()
	prev := inc.Status
	inc.Status = status
	switch status {
	case model.StatusDispatchOnTheWay:
		inc.DispatchTime = now
		if truckID != "" {
			inc.DispatchedTruckID = truckID
		}
	case model.StatusResolved, model.StatusCancelled:
		inc.ResolveTime = now
	}
	if err := s.store.UpdateIncident(ctx, inc); err != nil {
		return model.Incident{}, fmt.Errorf("update incident: %w", err)
	}

	s.appendLog(ctx, model.ResponseLogEntry{
		AlarmID:     alarmID,
		ActionType:  model.ActionStatusChange,
		Details:     fmt.Sprintf("Status changed from %s to %s", prev, status),
		PerformedBy: performedBy,
		Timestamp:   now,
	})
	if err := s.notifier.Broadcast(ctx, notify.Event{
		Type:      notify.EventStatusChanged,
		AlarmID:   alarmID,
		StationID: inc.DispatchedStationID,
		Status:    status,
		Time:      now,
	}); err != nil {
		s.log.Errorf("broadcast status change for %s: %v", alarmID, err)
	}
	return inc, nil
}

// UpdateAlarmLevel changes the current severity. The initial level is a
// historical record and never changes. Re-applying the current level is a
// no-op.
func (s *Service) UpdateAlarmLevel(ctx context.Context, alarmID string, level model.AlarmLevel, performedBy string) (model.Incident, error) {
	if !level.Valid() {
		return model.Incident{}, model.NewValidationError("alarm_level", "missing or unknown level")
	}
	inc, err := s.store.GetIncident(ctx, alarmID)
	if err != nil {
		return model.Incident{}, err
	}
	if inc.CurrentAlarmLevel == level {
		return inc, nil
	}

	now := s.now().UTC()
	prev := inc.CurrentAlarmLevel
	inc.CurrentAlarmLevel = level
	if err := s.store.UpdateIncident(ctx, inc); err != nil {
		return model.Incident{}, fmt.Errorf("update incident: %w", err)
	}

	s.appendLog(ctx, model.ResponseLogEntry{
		AlarmID:     alarmID,
		ActionType:  model.ActionAlarmLevelChange,
		Details:     fmt.Sprintf("Alarm level changed from %s to %s", prev, level),
		PerformedBy: performedBy,
		Timestamp:   now,
	})
	if err := s.notifier.Broadcast(ctx, notify.Event{
		Type:       notify.EventAlarmLevelChanged,
		AlarmID:    alarmID,
		StationID:  inc.DispatchedStationID,
		AlarmLevel: level,
		Status:     inc.Status,
		Time:       now,
	}); err != nil {
		s.log.Errorf("broadcast alarm level change for %s: %v", alarmID, err)
	}
	return inc, nil
}

// Get returns an incident by alarm id.
func (s *Service) Get(ctx context.Context, alarmID string) (model.Incident, error) {
	return s.store.GetIncident(ctx, alarmID)
}

// List returns incidents matching the filter.
func (s *Service) List(ctx context.Context, f Filter) ([]model.Incident, error) {
	return s.store.ListIncidents(ctx, f)
}

// ResponseLog returns the incident's response timeline.
func (s *Service) ResponseLog(ctx context.Context, alarmID string) ([]model.ResponseLogEntry, error) {
	if _, err := s.store.GetIncident(ctx, alarmID); err != nil {
		return nil, err
	}
	return s.store.ListLogEntries(ctx, alarmID)
}

// appendLog is a best-effort append to the response timeline.
func (s *Service) appendLog(ctx context.Context, entry model.ResponseLogEntry) {
	if _, err := s.store.AppendLogEntry(ctx, entry); err != nil {
		s.log.Errorf("response log append for %s: %v", entry.AlarmID, err)
	}
}
