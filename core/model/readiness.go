package model

import (
	"encoding/json"
	"time"
)

// ReadinessStatus is a station's self-reported operational capacity.
type ReadinessStatus string

const (
	ReadinessReady          ReadinessStatus = "READY"
	ReadinessPartiallyReady ReadinessStatus = "PARTIALLY_READY"
	ReadinessNotReady       ReadinessStatus = "NOT_READY"
)

// Valid reports whether the status is a known value.
func (s ReadinessStatus) Valid() bool {
	switch s {
	case ReadinessReady, ReadinessPartiallyReady, ReadinessNotReady:
		return true
	}
	return false
}

// Dispatchable reports whether a station with this latest status belongs in
// the dispatch candidate pool. READY and PARTIALLY_READY both qualify.
func (s ReadinessStatus) Dispatchable() bool {
	return s == ReadinessReady || s == ReadinessPartiallyReady
}

// ReadinessSubmission is one entry of a station's append-only readiness log.
// IDs are assigned by the store in submission order, so the highest ID is the
// most recent among submissions sharing a timestamp.
type ReadinessSubmission struct {
	ID          int64           `json:"readiness_id"`
	StationID   string          `json:"station_id"`
	SubmittedBy string          `json:"submitted_by_user_id"`
	Status      ReadinessStatus `json:"status"`
	Percentage  int             `json:"readiness_percentage"`
	Checklist   json.RawMessage `json:"equipment_checklist,omitempty"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

// Validate checks the submission fields against the registry rules.
func (r ReadinessSubmission) Validate() error {
	if r.StationID == "" {
		return NewValidationError("station_id", "must not be empty")
	}
	if !r.Status.Valid() {
		return NewValidationError("status", "must be READY, PARTIALLY_READY or NOT_READY")
	}
	if r.Percentage < 0 || r.Percentage > 100 {
		return NewValidationError("readiness_percentage", "must be between 0 and 100")
	}
	return nil
}
