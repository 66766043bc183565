// Package dispatch implements nearest-ready-station selection. The station
// set is small (tens, not thousands), so selection is a linear scan over the
// candidate pool; keep it that way unless the station count grows by orders
// of magnitude.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/rescuegrid/firedispatch/core/geo"
	"github.com/rescuegrid/firedispatch/core/logger"
	"github.com/rescuegrid/firedispatch/core/model"
	"github.com/rescuegrid/firedispatch/core/readiness"
)

// StationDirectory is the view of the readiness registry the selector needs.
type StationDirectory interface {
	ListReadyStations(ctx context.Context) ([]model.Station, error)
	GetStation(ctx context.Context, id string) (model.Station, error)
}

// SelectionRequest carries the caller coordinate and an optional operator
// override.
type SelectionRequest struct {
	CallerLat       float64
	CallerLon       float64
	ForcedStationID string
}

// Candidate is one ready station with its distance to the caller.
type Candidate struct {
	StationID  string  `json:"station_id"`
	DistanceKm float64 `json:"distance_km"`
}

// DistanceStats summarises the candidate distances for the audit record.
type DistanceStats struct {
	MinKm  float64 `json:"min_km"`
	MaxKm  float64 `json:"max_km"`
	MeanKm float64 `json:"mean_km"`
}

// Selection is the outcome of a dispatch decision: the winning station, its
// distance, and the full candidate list for auditability.
type Selection struct {
	StationID      string        `json:"station_id"`
	DistanceKm     float64       `json:"distance_km"`
	WithinCoverage bool          `json:"within_coverage"`
	Forced         bool          `json:"forced"`
	Candidates     []Candidate   `json:"candidates"`
	Stats          DistanceStats `json:"stats"`
}

// Selector picks the responding station for a caller coordinate.
type Selector struct {
	stations StationDirectory
	cfg      Config
	log      logger.Logger
}

// NewSelector creates a Selector over the given station directory.
func NewSelector(stations StationDirectory, cfg Config, log logger.Logger) *Selector {
	cfg.SetDefaults()
	return &Selector{stations: stations, cfg: cfg, log: log}
}

// Select validates the caller coordinate and returns the dispatch decision.
// With a forced station id, the station must exist and be ready or the call
// fails with ErrStationUnavailable. Otherwise the nearest station from the
// ready pool wins; ties go to the first candidate encountered in enumeration
// order. An empty pool fails with ErrNoStationsAvailable.
func (s *Selector) Select(ctx context.Context, req SelectionRequest) (Selection, error) {
	if !model.FiniteCoordinate(req.CallerLat, req.CallerLon) {
		return Selection{}, model.NewValidationError("caller coordinates", "must be finite numbers")
	}
	if req.CallerLat < -90 || req.CallerLat > 90 {
		return Selection{}, model.NewValidationError("caller latitude", "out of range")
	}
	if req.CallerLon < -180 || req.CallerLon > 180 {
		return Selection{}, model.NewValidationError("caller longitude", "out of range")
	}

	if req.ForcedStationID != "" {
		return s.selectForced(ctx, req)
	}

	pool, err := s.stations.ListReadyStations(ctx)
	if err != nil {
		return Selection{}, fmt.Errorf("fetch candidate pool: %w", err)
	}
	if len(pool) == 0 {
		return Selection{}, ErrNoStationsAvailable
	}

	candidates := make([]Candidate, len(pool))
	distances := make([]float64, len(pool))
	best := 0
	for i, st := range pool {
		d := geo.DistanceKm(req.CallerLat, req.CallerLon, st.Latitude, st.Longitude)
		candidates[i] = Candidate{StationID: st.ID, DistanceKm: d}
		distances[i] = d
		// strict comparison keeps the first-encountered winner on ties
		if d < distances[best] {
			best = i
		}
	}

	sel := Selection{
		StationID:      candidates[best].StationID,
		DistanceKm:     candidates[best].DistanceKm,
		WithinCoverage: candidates[best].DistanceKm <= s.cfg.CoverageRadiusKm,
		Candidates:     candidates,
		Stats:          distanceStats(distances),
	}
	s.log.Debugw("station selected", map[string]any{
		"station_id":  sel.StationID,
		"distance_km": sel.DistanceKm,
		"candidates":  len(candidates),
		"in_coverage": sel.WithinCoverage,
	})
	return sel, nil
}

// selectForced honors an operator override. The forced station is the only
// candidate on the audit record.
func (s *Selector) selectForced(ctx context.Context, req SelectionRequest) (Selection, error) {
	st, err := s.stations.GetStation(ctx, req.ForcedStationID)
	if errors.Is(err, readiness.ErrStationNotFound) {
		return Selection{}, fmt.Errorf("%w: %s", ErrStationUnavailable, req.ForcedStationID)
	}
	if err != nil {
		return Selection{}, fmt.Errorf("fetch forced station: %w", err)
	}
	if !st.IsReady {
		return Selection{}, fmt.Errorf("%w: %s is not ready", ErrStationUnavailable, st.ID)
	}
	d := geo.DistanceKm(req.CallerLat, req.CallerLon, st.Latitude, st.Longitude)
	s.log.Infof("forced dispatch to station %s at %.2f km", st.ID, d)
	return Selection{
		StationID:      st.ID,
		DistanceKm:     d,
		WithinCoverage: d <= s.cfg.CoverageRadiusKm,
		Forced:         true,
		Candidates:     []Candidate{{StationID: st.ID, DistanceKm: d}},
		Stats:          DistanceStats{MinKm: d, MaxKm: d, MeanKm: d},
	}, nil
}

func distanceStats(distances []float64) DistanceStats {
	if len(distances) == 0 {
		return DistanceStats{}
	}
	return DistanceStats{
		MinKm:  floats.Min(distances),
		MaxKm:  floats.Max(distances),
		MeanKm: stat.Mean(distances, nil),
	}
}
