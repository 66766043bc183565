package model

import "time"

// AlarmLevel classifies incident severity, following the fire-service
// escalation ladder.
type AlarmLevel string

const (
	Alarm1           AlarmLevel = "Alarm 1"
	Alarm2           AlarmLevel = "Alarm 2"
	Alarm3           AlarmLevel = "Alarm 3"
	Alarm4           AlarmLevel = "Alarm 4"
	Alarm5           AlarmLevel = "Alarm 5"
	TaskForceAlpha   AlarmLevel = "Task Force Alpha"
	TaskForceBravo   AlarmLevel = "Task Force Bravo"
	TaskForceCharlie AlarmLevel = "Task Force Charlie"
	TaskForceDelta   AlarmLevel = "Task Force Delta"
	GeneralAlarm     AlarmLevel = "General Alarm"
)

var alarmLevels = map[AlarmLevel]struct{}{
	Alarm1: {}, Alarm2: {}, Alarm3: {}, Alarm4: {}, Alarm5: {},
	TaskForceAlpha: {}, TaskForceBravo: {}, TaskForceCharlie: {},
	TaskForceDelta: {}, GeneralAlarm: {},
}

// Valid reports whether the level is part of the escalation ladder.
func (l AlarmLevel) Valid() bool {
	_, ok := alarmLevels[l]
	return ok
}

// IncidentStatus tracks an incident through its response lifecycle.
type IncidentStatus string

const (
	StatusPendingDispatch  IncidentStatus = "Pending Dispatch"
	StatusDispatchOnTheWay IncidentStatus = "Dispatch On the Way"
	StatusOngoingResponse  IncidentStatus = "Ongoing Response"
	StatusFireUnderControl IncidentStatus = "Fire Under Control"
	StatusResolved         IncidentStatus = "Resolved"
	StatusCancelled        IncidentStatus = "Cancelled"
)

// Incident is a reported emergency ("alarm") with its dispatch outcome.
// DispatchedStationID is fixed by the selector at creation time and never
// changes afterwards; re-dispatch is not supported. InitialAlarmLevel is the
// level at filing time and is kept as a historical record.
type Incident struct {
	AlarmID             string         `json:"alarm_id"`
	ReporterID          string         `json:"end_user_id"`
	Latitude            float64        `json:"user_latitude"`
	Longitude           float64        `json:"user_longitude"`
	InitialAlarmLevel   AlarmLevel     `json:"initial_alarm_level"`
	CurrentAlarmLevel   AlarmLevel     `json:"current_alarm_level"`
	Status              IncidentStatus `json:"status"`
	CallTime            time.Time      `json:"call_time"`
	DispatchTime        time.Time      `json:"dispatch_time,omitempty"`
	ResolveTime         time.Time      `json:"resolve_time,omitempty"`
	DispatchedStationID string         `json:"dispatched_station_id"`
	DispatchedTruckID   string         `json:"dispatched_truck_id,omitempty"`
	Details             string         `json:"details,omitempty"`
}

// Response log action types. ActionType is free-form; these are the values
// the core itself writes.
const (
	ActionInitialDispatch  = "Initial Dispatch"
	ActionAlarmLevelChange = "Alarm Level Change"
	ActionStatusChange     = "Status Change"
)

// ResponseLogEntry is one row of an incident's append-only response timeline.
// PerformedBy is empty for system or anonymous actions.
type ResponseLogEntry struct {
	ID          int64     `json:"log_id"`
	AlarmID     string    `json:"alarm_id"`
	ActionType  string    `json:"action_type"`
	Details     string    `json:"details"`
	PerformedBy string    `json:"performed_by_user_id,omitempty"`
	Timestamp   time.Time `json:"action_timestamp"`
}
