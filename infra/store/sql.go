// Package store provides the SQL-backed persistence layer for stations,
// readiness submissions, incidents and response logs. SQLite serves single
// node deployments; PostgreSQL serves shared ones. Timestamps are stored as
// Unix epoch seconds.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rescuegrid/firedispatch/core/incident"
	"github.com/rescuegrid/firedispatch/core/model"
	"github.com/rescuegrid/firedispatch/core/readiness"
)

// SQLStore implements readiness.Store and incident.Store on a database/sql
// handle. The two backends differ only in schema DDL and placeholder syntax.
type SQLStore struct {
	db     *sql.DB
	rebind func(string) string
}

func passthrough(q string) string { return q }

// rebindDollar rewrites ? placeholders into $1..$n for PostgreSQL.
func rebindDollar(q string) string {
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(q), args...)
}

func (s *SQLStore) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(q), args...)
}

func (s *SQLStore) queryRow(ctx context.Context, q string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(q), args...)
}

// Close closes the underlying database.
func (s *SQLStore) Close() error { return s.db.Close() }

func epoch(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func fromEpoch(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// CreateStation inserts a station row.
func (s *SQLStore) CreateStation(ctx context.Context, st model.Station) error {
	_, err := s.exec(ctx, `INSERT INTO stations
		(id, name, latitude, longitude, type, admin_user_id, is_ready, last_status_update)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.Name, st.Latitude, st.Longitude, string(st.Type),
		st.AdminUserID, st.IsReady, epoch(st.LastStatusUpdate))
	return err
}

func scanStation(scan func(...any) error) (model.Station, error) {
	var st model.Station
	var typ string
	var updated int64
	if err := scan(&st.ID, &st.Name, &st.Latitude, &st.Longitude, &typ,
		&st.AdminUserID, &st.IsReady, &updated); err != nil {
		return model.Station{}, err
	}
	st.Type = model.StationType(typ)
	st.LastStatusUpdate = fromEpoch(updated)
	return st, nil
}

const stationColumns = `id, name, latitude, longitude, type, admin_user_id, is_ready, last_status_update`

// GetStation returns a station by id.
func (s *SQLStore) GetStation(ctx context.Context, id string) (model.Station, error) {
	row := s.queryRow(ctx, `SELECT `+stationColumns+` FROM stations WHERE id = ?`, id)
	st, err := scanStation(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Station{}, readiness.ErrStationNotFound
	}
	return st, err
}

func (s *SQLStore) listStations(ctx context.Context, where string, args ...any) ([]model.Station, error) {
	rows, err := s.query(ctx, `SELECT `+stationColumns+` FROM stations `+where+` ORDER BY name, id`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.Station
	for rows.Next() {
		st, err := scanStation(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, st)
	}
	return res, rows.Err()
}

// ListStations returns all stations ordered by name.
func (s *SQLStore) ListStations(ctx context.Context) ([]model.Station, error) {
	return s.listStations(ctx, ``)
}

// ListReadyStations returns the dispatch candidate pool.
func (s *SQLStore) ListReadyStations(ctx context.Context) ([]model.Station, error) {
	return s.listStations(ctx, `WHERE is_ready`)
}

// SetStationReady updates the derived readiness flag.
func (s *SQLStore) SetStationReady(ctx context.Context, stationID string, ready bool, at time.Time) error {
	res, err := s.exec(ctx, `UPDATE stations SET is_ready = ?, last_status_update = ? WHERE id = ?`,
		ready, epoch(at), stationID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return readiness.ErrStationNotFound
	}
	return nil
}

// AppendSubmission stores one readiness submission and returns it with the
// assigned id.
func (s *SQLStore) AppendSubmission(ctx context.Context, sub model.ReadinessSubmission) (model.ReadinessSubmission, error) {
	checklist := string(sub.Checklist)
	row := s.queryRow(ctx, `INSERT INTO readiness_submissions
		(station_id, submitted_by, status, percentage, checklist, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		sub.StationID, sub.SubmittedBy, string(sub.Status), sub.Percentage,
		checklist, epoch(sub.SubmittedAt))
	if err := row.Scan(&sub.ID); err != nil {
		return model.ReadinessSubmission{}, fmt.Errorf("append submission: %w", err)
	}
	return sub, nil
}

// LatestSubmission returns the station's most recent submission, ties on
// submitted_at broken by the higher id.
func (s *SQLStore) LatestSubmission(ctx context.Context, stationID string) (model.ReadinessSubmission, error) {
	row := s.queryRow(ctx, `SELECT id, station_id, submitted_by, status, percentage, checklist, submitted_at
		FROM readiness_submissions WHERE station_id = ?
		ORDER BY submitted_at DESC, id DESC LIMIT 1`, stationID)
	var sub model.ReadinessSubmission
	var status, checklist string
	var at int64
	err := row.Scan(&sub.ID, &sub.StationID, &sub.SubmittedBy, &status,
		&sub.Percentage, &checklist, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ReadinessSubmission{}, readiness.ErrNoSubmission
	}
	if err != nil {
		return model.ReadinessSubmission{}, err
	}
	sub.Status = model.ReadinessStatus(status)
	if checklist != "" {
		sub.Checklist = []byte(checklist)
	}
	sub.SubmittedAt = fromEpoch(at)
	return sub, nil
}

const incidentColumns = `alarm_id, reporter_id, latitude, longitude, initial_alarm_level,
	current_alarm_level, status, call_time, dispatch_time, resolve_time,
	dispatched_station_id, dispatched_truck_id, details`

// CreateIncident inserts an incident row.
func (s *SQLStore) CreateIncident(ctx context.Context, inc model.Incident) error {
	_, err := s.exec(ctx, `INSERT INTO incidents (`+incidentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inc.AlarmID, inc.ReporterID, inc.Latitude, inc.Longitude,
		string(inc.InitialAlarmLevel), string(inc.CurrentAlarmLevel), string(inc.Status),
		epoch(inc.CallTime), epoch(inc.DispatchTime), epoch(inc.ResolveTime),
		inc.DispatchedStationID, inc.DispatchedTruckID, inc.Details)
	return err
}

func scanIncident(scan func(...any) error) (model.Incident, error) {
	var inc model.Incident
	var initial, current, status string
	var call, dispatch, resolve int64
	if err := scan(&inc.AlarmID, &inc.ReporterID, &inc.Latitude, &inc.Longitude,
		&initial, &current, &status, &call, &dispatch, &resolve,
		&inc.DispatchedStationID, &inc.DispatchedTruckID, &inc.Details); err != nil {
		return model.Incident{}, err
	}
	inc.InitialAlarmLevel = model.AlarmLevel(initial)
	inc.CurrentAlarmLevel = model.AlarmLevel(current)
	inc.Status = model.IncidentStatus(status)
	inc.CallTime = fromEpoch(call)
	inc.DispatchTime = fromEpoch(dispatch)
	inc.ResolveTime = fromEpoch(resolve)
	return inc, nil
}

// GetIncident returns an incident by alarm id.
func (s *SQLStore) GetIncident(ctx context.Context, alarmID string) (model.Incident, error) {
	row := s.queryRow(ctx, `SELECT `+incidentColumns+` FROM incidents WHERE alarm_id = ?`, alarmID)
	inc, err := scanIncident(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Incident{}, incident.ErrIncidentNotFound
	}
	return inc, err
}

// ListIncidents returns incidents matching the filter, most recent call first.
func (s *SQLStore) ListIncidents(ctx context.Context, f incident.Filter) ([]model.Incident, error) {
	q := `SELECT ` + incidentColumns + ` FROM incidents`
	var conds []string
	var args []any
	if f.Status != "" {
		conds = append(conds, `status = ?`)
		args = append(args, string(f.Status))
	}
	if f.StationID != "" {
		conds = append(conds, `dispatched_station_id = ?`)
		args = append(args, f.StationID)
	}
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	q += ` ORDER BY call_time DESC, alarm_id DESC`
	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.Incident
	for rows.Next() {
		inc, err := scanIncident(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, inc)
	}
	return res, rows.Err()
}

// UpdateIncident rewrites the mutable incident fields.
func (s *SQLStore) UpdateIncident(ctx context.Context, inc model.Incident) error {
	res, err := s.exec(ctx, `UPDATE incidents SET
		current_alarm_level = ?, status = ?, dispatch_time = ?, resolve_time = ?,
		dispatched_truck_id = ?, details = ?
		WHERE alarm_id = ?`,
		string(inc.CurrentAlarmLevel), string(inc.Status),
		epoch(inc.DispatchTime), epoch(inc.ResolveTime),
		inc.DispatchedTruckID, inc.Details, inc.AlarmID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return incident.ErrIncidentNotFound
	}
	return nil
}

// AppendLogEntry stores one response log row and returns it with the assigned
// id.
func (s *SQLStore) AppendLogEntry(ctx context.Context, entry model.ResponseLogEntry) (model.ResponseLogEntry, error) {
	row := s.queryRow(ctx, `INSERT INTO response_log
		(alarm_id, action_type, details, performed_by, at)
		VALUES (?, ?, ?, ?, ?) RETURNING id`,
		entry.AlarmID, entry.ActionType, entry.Details, entry.PerformedBy, epoch(entry.Timestamp))
	if err := row.Scan(&entry.ID); err != nil {
		return model.ResponseLogEntry{}, fmt.Errorf("append log entry: %w", err)
	}
	return entry, nil
}

// ListLogEntries returns the incident's timeline in insertion order.
func (s *SQLStore) ListLogEntries(ctx context.Context, alarmID string) ([]model.ResponseLogEntry, error) {
	rows, err := s.query(ctx, `SELECT id, alarm_id, action_type, details, performed_by, at
		FROM response_log WHERE alarm_id = ? ORDER BY id`, alarmID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.ResponseLogEntry
	for rows.Next() {
		var e model.ResponseLogEntry
		var at int64
		if err := rows.Scan(&e.ID, &e.AlarmID, &e.ActionType, &e.Details, &e.PerformedBy, &at); err != nil {
			return nil, err
		}
		e.Timestamp = fromEpoch(at)
		res = append(res, e)
	}
	return res, rows.Err()
}
