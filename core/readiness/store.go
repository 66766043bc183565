package readiness

import (
	"context"
	"errors"
	"time"

	"github.com/rescuegrid/firedispatch/core/model"
)

// ErrStationNotFound is returned when the referenced station does not exist.
var ErrStationNotFound = errors.New("readiness: station not found")

// ErrNoSubmission is returned when a station has no readiness submission yet.
var ErrNoSubmission = errors.New("readiness: no submission for station")

// Store persists stations and their append-only readiness submission log.
// Implementations live in infra/store; MemoryStore backs tests.
type Store interface {
	CreateStation(ctx context.Context, st model.Station) error
	GetStation(ctx context.Context, id string) (model.Station, error)
	ListStations(ctx context.Context) ([]model.Station, error)
	// ListReadyStations returns only stations whose derived IsReady flag is
	// true, reflecting the latest submission per station.
	ListReadyStations(ctx context.Context) ([]model.Station, error)
	// AppendSubmission stores the submission and returns it with its
	// store-assigned ID.
	AppendSubmission(ctx context.Context, sub model.ReadinessSubmission) (model.ReadinessSubmission, error)
	// LatestSubmission returns the most recent submission for the station,
	// latest SubmittedAt first, ties broken by highest ID. Returns
	// ErrNoSubmission when the log is empty for that station.
	LatestSubmission(ctx context.Context, stationID string) (model.ReadinessSubmission, error)
	// SetStationReady updates the station's derived readiness flag and the
	// last-update timestamp.
	SetStationReady(ctx context.Context, stationID string, ready bool, at time.Time) error
}
