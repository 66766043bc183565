package incident

import (
	"context"
	"errors"

	"github.com/rescuegrid/firedispatch/core/model"
)

// ErrIncidentNotFound is returned when the referenced incident does not
// exist.
var ErrIncidentNotFound = errors.New("incident: not found")

// Filter narrows incident listings.
type Filter struct {
	Status    model.IncidentStatus
	StationID string
}

// Store persists incidents and their response log. Incidents are never
// deleted; the response log is append-only.
type Store interface {
	CreateIncident(ctx context.Context, inc model.Incident) error
	GetIncident(ctx context.Context, alarmID string) (model.Incident, error)
	ListIncidents(ctx context.Context, f Filter) ([]model.Incident, error)
	// UpdateIncident rewrites the mutable fields of an existing incident:
	// status, current alarm level, timeline timestamps and truck assignment.
	// The dispatched station is immutable by service contract.
	UpdateIncident(ctx context.Context, inc model.Incident) error
	// AppendLogEntry stores the entry and returns it with its assigned ID.
	AppendLogEntry(ctx context.Context, entry model.ResponseLogEntry) (model.ResponseLogEntry, error)
	ListLogEntries(ctx context.Context, alarmID string) ([]model.ResponseLogEntry, error)
}
