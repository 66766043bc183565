// Package readiness implements the station readiness registry: an append-only
// submission log per station with a single derivation rule producing the
// dispatch candidate pool.
package readiness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rescuegrid/firedispatch/core/logger"
	"github.com/rescuegrid/firedispatch/core/metrics"
	"github.com/rescuegrid/firedispatch/core/model"
	"github.com/rescuegrid/firedispatch/core/notify"
	"github.com/rescuegrid/firedispatch/internal/eventbus"
)

// ErrUnauthorized is returned when the submitter is not the station's
// assigned admin.
var ErrUnauthorized = errors.New("readiness: submitter is not the station admin")

// ErrMainStationExists is returned when creating a second Main station.
var ErrMainStationExists = errors.New("readiness: a Main station already exists")

// Registry owns station records and their readiness submissions. IsReady is
// derived exclusively from each station's own latest submission; nothing else
// mutates it.
type Registry struct {
	store Store
	log   logger.Logger
	bus   eventbus.EventBus
	sink  metrics.Sink
	now   func() time.Time
}

// NewRegistry creates a Registry. bus and sink may be nil.
func NewRegistry(store Store, log logger.Logger, bus eventbus.EventBus, sink metrics.Sink) *Registry {
	return &Registry{store: store, log: log, bus: bus, sink: sink, now: time.Now}
}

// SetClock overrides the registry clock. Used in tests.
func (r *Registry) SetClock(now func() time.Time) { r.now = now }

// CreateStationRequest carries the fields of an admin station-creation call.
type CreateStationRequest struct {
	Name        string            `json:"name"`
	Latitude    float64           `json:"latitude"`
	Longitude   float64           `json:"longitude"`
	Type        model.StationType `json:"station_type"`
	AdminUserID string            `json:"admin_user_id"`
}

// CreateStation registers a new station. At most one station of type Main may
// exist; the rule is enforced here rather than by a database constraint.
func (r *Registry) CreateStation(ctx context.Context, req CreateStationRequest) (model.Station, error) {
	st := model.Station{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Type:        req.Type,
		AdminUserID: req.AdminUserID,
	}
	if err := st.Validate(); err != nil {
		return model.Station{}, err
	}
	if st.Type == model.StationMain {
		existing, err := r.store.ListStations(ctx)
		if err != nil {
			return model.Station{}, fmt.Errorf("list stations: %w", err)
		}
		for _, other := range existing {
			if other.Type == model.StationMain {
				return model.Station{}, ErrMainStationExists
			}
		}
	}
	if err := r.store.CreateStation(ctx, st); err != nil {
		return model.Station{}, fmt.Errorf("create station: %w", err)
	}
	r.log.Infof("station %s (%s) created at %.4f,%.4f", st.Name, st.ID, st.Latitude, st.Longitude)
	return st, nil
}

// GetStation returns a station by id.
func (r *Registry) GetStation(ctx context.Context, id string) (model.Station, error) {
	return r.store.GetStation(ctx, id)
}

// ListStations returns all stations.
func (r *Registry) ListStations(ctx context.Context) ([]model.Station, error) {
	return r.store.ListStations(ctx)
}

// ListReadyStations returns the dispatch candidate pool. The result always
// reflects the latest submission per station; no caching layer sits in front
// of the store.
func (r *Registry) ListReadyStations(ctx context.Context) ([]model.Station, error) {
	return r.store.ListReadyStations(ctx)
}

// SubmissionRequest carries one readiness submission from a station admin.
type SubmissionRequest struct {
	StationID   string                `json:"station_id"`
	SubmittedBy string                `json:"submitted_by_user_id"`
	Status      model.ReadinessStatus `json:"status"`
	Percentage  int                   `json:"readiness_percentage"`
	Checklist   json.RawMessage       `json:"equipment_checklist,omitempty"`
}

// SubmitReadiness appends a submission to the station's log and updates the
// derived IsReady flag: true iff the latest status is READY or
// PARTIALLY_READY. Only the station's assigned admin may submit.
func (r *Registry) SubmitReadiness(ctx context.Context, req SubmissionRequest) (model.ReadinessSubmission, error) {
	sub := model.ReadinessSubmission{
		StationID:   req.StationID,
		SubmittedBy: req.SubmittedBy,
		Status:      req.Status,
		Percentage:  req.Percentage,
		Checklist:   req.Checklist,
		SubmittedAt: r.now().UTC(),
	}
	if err := sub.Validate(); err != nil {
		return model.ReadinessSubmission{}, err
	}
	if sub.SubmittedBy == "" {
		return model.ReadinessSubmission{}, model.NewValidationError("submitted_by_user_id", "must not be empty")
	}

	st, err := r.store.GetStation(ctx, sub.StationID)
	if err != nil {
		return model.ReadinessSubmission{}, err
	}
	if st.AdminUserID != sub.SubmittedBy {
		return model.ReadinessSubmission{}, ErrUnauthorized
	}

	stored, err := r.store.AppendSubmission(ctx, sub)
	if err != nil {
		return model.ReadinessSubmission{}, fmt.Errorf("append submission: %w", err)
	}
	ready := stored.Status.Dispatchable()
	if err := r.store.SetStationReady(ctx, stored.StationID, ready, stored.SubmittedAt); err != nil {
		return model.ReadinessSubmission{}, fmt.Errorf("update station readiness: %w", err)
	}
	r.log.Debugw("readiness submitted", map[string]any{
		"station_id": stored.StationID,
		"status":     string(stored.Status),
		"percentage": stored.Percentage,
		"ready":      ready,
	})

	if r.sink != nil {
		if rr, ok := r.sink.(metrics.ReadinessRecorder); ok {
			ev := metrics.ReadinessEvent{
				StationID:  stored.StationID,
				Status:     stored.Status,
				Percentage: stored.Percentage,
				Ready:      ready,
				Time:       stored.SubmittedAt,
			}
			if err := rr.RecordReadiness(ev); err != nil {
				r.log.Errorf("readiness metrics: %v", err)
			}
		}
	}
	if r.bus != nil {
		r.bus.Publish(notify.Event{
			Type:      notify.EventReadinessChanged,
			StationID: stored.StationID,
			Readiness: stored.Status,
			Time:      stored.SubmittedAt,
		})
	}
	return stored, nil
}

// Latest returns the station's most recent submission. ErrNoSubmission when
// the log is empty for that station.
func (r *Registry) Latest(ctx context.Context, stationID string) (model.ReadinessSubmission, error) {
	if _, err := r.store.GetStation(ctx, stationID); err != nil {
		return model.ReadinessSubmission{}, err
	}
	return r.store.LatestSubmission(ctx, stationID)
}

// StationOverview is the read-only aggregate shown on the admin consoles:
// each station joined to its most recent submission only.
type StationOverview struct {
	StationID        string                `json:"station_id"`
	Name             string                `json:"name"`
	IsReady          bool                  `json:"is_ready"`
	LatestStatus     model.ReadinessStatus `json:"latest_status,omitempty"`
	LatestPercentage int                   `json:"latest_percentage"`
	LastSubmittedBy  string                `json:"last_submitted_by,omitempty"`
	LastUpdate       time.Time             `json:"last_update,omitempty"`
}

// Overview returns one row per station. Stations without submissions report
// IsReady false and empty latest fields.
func (r *Registry) Overview(ctx context.Context) ([]StationOverview, error) {
	stations, err := r.store.ListStations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	res := make([]StationOverview, 0, len(stations))
	for _, st := range stations {
		row := StationOverview{StationID: st.ID, Name: st.Name, IsReady: st.IsReady}
		latest, err := r.store.LatestSubmission(ctx, st.ID)
		switch {
		case errors.Is(err, ErrNoSubmission):
			// no submission yet; derived readiness stays false
		case err != nil:
			return nil, fmt.Errorf("latest submission for %s: %w", st.ID, err)
		default:
			row.LatestStatus = latest.Status
			row.LatestPercentage = latest.Percentage
			row.LastSubmittedBy = latest.SubmittedBy
			row.LastUpdate = latest.SubmittedAt
		}
		res = append(res, row)
	}
	return res, nil
}
