package model

import (
	"math"
	"time"
)

// StationType distinguishes the central station from substations.
type StationType string

const (
	StationMain StationType = "Main"
	StationSub  StationType = "Substation"
)

// Valid reports whether the station type is a known value.
func (t StationType) Valid() bool {
	return t == StationMain || t == StationSub
}

// Station is a fire station able to receive dispatches. IsReady is derived
// from the latest readiness submission and is only mutated through the
// readiness registry.
type Station struct {
	ID               string      `json:"station_id"`
	Name             string      `json:"name"`
	Latitude         float64     `json:"latitude"`
	Longitude        float64     `json:"longitude"`
	Type             StationType `json:"station_type"`
	AdminUserID      string      `json:"admin_user_id"`
	IsReady          bool        `json:"is_ready"`
	LastStatusUpdate time.Time   `json:"last_status_update"`
}

// Validate checks that the station definition is sound.
func (s Station) Validate() error {
	if s.Name == "" {
		return NewValidationError("name", "must not be empty")
	}
	if !s.Type.Valid() {
		return NewValidationError("station_type", "unknown type")
	}
	if !FiniteCoordinate(s.Latitude, s.Longitude) {
		return NewValidationError("coordinates", "must be finite decimal degrees")
	}
	if s.Latitude < -90 || s.Latitude > 90 {
		return NewValidationError("latitude", "out of range")
	}
	if s.Longitude < -180 || s.Longitude > 180 {
		return NewValidationError("longitude", "out of range")
	}
	return nil
}

// FiniteCoordinate reports whether both values are finite numbers. The
// distance function yields NaN on non-finite input, so callers validate
// coordinates before dispatching.
func FiniteCoordinate(lat, lon float64) bool {
	return !math.IsNaN(lat) && !math.IsInf(lat, 0) &&
		!math.IsNaN(lon) && !math.IsInf(lon, 0)
}
