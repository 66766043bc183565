// Package auditlog persists dispatch decisions - winner, distance and the
// full candidate list - for operator review and debugging.
package auditlog

import (
	"context"
	"time"

	"github.com/rescuegrid/firedispatch/core/dispatch"
)

// Record captures one dispatch decision.
type Record struct {
	Timestamp      time.Time              `json:"timestamp"`
	AlarmID        string                 `json:"alarm_id"`
	CallerLat      float64                `json:"caller_lat"`
	CallerLon      float64                `json:"caller_lon"`
	Forced         bool                   `json:"forced"`
	StationID      string                 `json:"station_id"`
	DistanceKm     float64                `json:"distance_km"`
	WithinCoverage bool                   `json:"within_coverage"`
	Candidates     []dispatch.Candidate   `json:"candidates"`
	Stats          dispatch.DistanceStats `json:"stats"`
}

// Query defines filters for retrieving records.
type Query struct {
	Start     time.Time
	End       time.Time
	StationID string
}

// matches reports whether the record passes the query filters. The station
// filter matches the winner or any candidate.
func (q Query) matches(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.StationID != "" {
		if r.StationID == q.StationID {
			return true
		}
		for _, c := range r.Candidates {
			if c.StationID == q.StationID {
				return true
			}
		}
		return false
	}
	return true
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore discards records. Used when auditing is disabled.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }
