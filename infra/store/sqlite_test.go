package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescuegrid/firedispatch/core/incident"
	"github.com/rescuegrid/firedispatch/core/model"
	"github.com/rescuegrid/firedispatch/core/readiness"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "fd.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStationRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	st := model.Station{
		ID: "st1", Name: "East", Latitude: 7.49, Longitude: 122.01,
		Type: model.StationSub, AdminUserID: "east-admin",
	}
	require.NoError(t, s.CreateStation(ctx, st))

	got, err := s.GetStation(ctx, "st1")
	require.NoError(t, err)
	assert.Equal(t, st, got)

	_, err = s.GetStation(ctx, "ghost")
	assert.ErrorIs(t, err, readiness.ErrStationNotFound)
}

func TestReadyStationsFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateStation(ctx, model.Station{
		ID: "a", Name: "Alpha", Type: model.StationSub, AdminUserID: "u1",
	}))
	require.NoError(t, s.CreateStation(ctx, model.Station{
		ID: "b", Name: "Bravo", Type: model.StationSub, AdminUserID: "u2",
	}))

	at := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)
	require.NoError(t, s.SetStationReady(ctx, "b", true, at))

	ready, err := s.ListReadyStations(ctx)
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, "b", ready[0].ID)
	assert.Equal(t, at, ready[0].LastStatusUpdate)

	all, err := s.ListStations(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	assert.ErrorIs(t, s.SetStationReady(ctx, "ghost", true, at), readiness.ErrStationNotFound)
}

func TestSubmissionLog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateStation(ctx, model.Station{
		ID: "st1", Name: "East", Type: model.StationSub, AdminUserID: "east-admin",
	}))

	_, err := s.LatestSubmission(ctx, "st1")
	assert.ErrorIs(t, err, readiness.ErrNoSubmission)

	base := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)
	first, err := s.AppendSubmission(ctx, model.ReadinessSubmission{
		StationID: "st1", SubmittedBy: "east-admin",
		Status: model.ReadinessNotReady, Percentage: 20,
		Checklist: []byte(`{"pump":"down"}`), SubmittedAt: base,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)

	second, err := s.AppendSubmission(ctx, model.ReadinessSubmission{
		StationID: "st1", SubmittedBy: "east-admin",
		Status: model.ReadinessReady, Percentage: 95,
		SubmittedAt: base.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.ID)

	latest, err := s.LatestSubmission(ctx, "st1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, model.ReadinessReady, latest.Status)
	assert.Empty(t, latest.Checklist)
}

func TestSubmissionTieBrokenByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateStation(ctx, model.Station{
		ID: "st1", Name: "East", Type: model.StationSub, AdminUserID: "east-admin",
	}))

	at := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)
	for _, status := range []model.ReadinessStatus{model.ReadinessNotReady, model.ReadinessPartiallyReady} {
		_, err := s.AppendSubmission(ctx, model.ReadinessSubmission{
			StationID: "st1", SubmittedBy: "east-admin", Status: status, SubmittedAt: at,
		})
		require.NoError(t, err)
	}

	latest, err := s.LatestSubmission(ctx, "st1")
	require.NoError(t, err)
	assert.Equal(t, model.ReadinessPartiallyReady, latest.Status)
}

func TestIncidentRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	call := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	inc := model.Incident{
		AlarmID: "alarm-1", ReporterID: "caller-7",
		Latitude: 6.91, Longitude: 122.08,
		InitialAlarmLevel: model.Alarm1, CurrentAlarmLevel: model.Alarm1,
		Status: model.StatusPendingDispatch, CallTime: call,
		DispatchedStationID: "st1", Details: "kitchen fire",
	}
	require.NoError(t, s.CreateIncident(ctx, inc))

	got, err := s.GetIncident(ctx, "alarm-1")
	require.NoError(t, err)
	assert.Equal(t, inc, got)

	got.Status = model.StatusDispatchOnTheWay
	got.CurrentAlarmLevel = model.Alarm2
	got.DispatchTime = call.Add(2 * time.Minute)
	got.DispatchedTruckID = "truck-9"
	require.NoError(t, s.UpdateIncident(ctx, got))

	again, err := s.GetIncident(ctx, "alarm-1")
	require.NoError(t, err)
	assert.Equal(t, got, again)

	_, err = s.GetIncident(ctx, "ghost")
	assert.ErrorIs(t, err, incident.ErrIncidentNotFound)
	assert.ErrorIs(t, s.UpdateIncident(ctx, model.Incident{AlarmID: "ghost"}), incident.ErrIncidentNotFound)
}

func TestListIncidentsFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

	seed := []model.Incident{
		{AlarmID: "a1", ReporterID: "r", InitialAlarmLevel: model.Alarm1, CurrentAlarmLevel: model.Alarm1,
			Status: model.StatusPendingDispatch, CallTime: base, DispatchedStationID: "east"},
		{AlarmID: "a2", ReporterID: "r", InitialAlarmLevel: model.Alarm1, CurrentAlarmLevel: model.Alarm1,
			Status: model.StatusResolved, CallTime: base.Add(time.Hour), DispatchedStationID: "east"},
		{AlarmID: "a3", ReporterID: "r", InitialAlarmLevel: model.Alarm1, CurrentAlarmLevel: model.Alarm1,
			Status: model.StatusPendingDispatch, CallTime: base.Add(2 * time.Hour), DispatchedStationID: "west"},
	}
	for _, inc := range seed {
		require.NoError(t, s.CreateIncident(ctx, inc))
	}

	all, err := s.ListIncidents(ctx, incident.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// most recent call first
	assert.Equal(t, "a3", all[0].AlarmID)

	pending, err := s.ListIncidents(ctx, incident.Filter{Status: model.StatusPendingDispatch})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	east, err := s.ListIncidents(ctx, incident.Filter{StationID: "east", Status: model.StatusResolved})
	require.NoError(t, err)
	require.Len(t, east, 1)
	assert.Equal(t, "a2", east[0].AlarmID)
}

func TestResponseLogAppendOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	call := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.CreateIncident(ctx, model.Incident{
		AlarmID: "alarm-1", ReporterID: "r", InitialAlarmLevel: model.Alarm1,
		CurrentAlarmLevel: model.Alarm1, Status: model.StatusPendingDispatch,
		CallTime: call, DispatchedStationID: "east",
	}))

	first, err := s.AppendLogEntry(ctx, model.ResponseLogEntry{
		AlarmID: "alarm-1", ActionType: model.ActionInitialDispatch,
		Details: "Dispatched to East", Timestamp: call,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)

	_, err = s.AppendLogEntry(ctx, model.ResponseLogEntry{
		AlarmID: "alarm-1", ActionType: model.ActionStatusChange,
		Details: "Status changed", PerformedBy: "east-admin", Timestamp: call.Add(time.Minute),
	})
	require.NoError(t, err)

	entries, err := s.ListLogEntries(ctx, "alarm-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.ActionInitialDispatch, entries[0].ActionType)
	assert.Equal(t, "east-admin", entries[1].PerformedBy)
	assert.True(t, entries[0].ID < entries[1].ID)
}

func TestRebindDollar(t *testing.T) {
	got := rebindDollar(`INSERT INTO t (a, b) VALUES (?, ?) RETURNING id`)
	assert.Equal(t, `INSERT INTO t (a, b) VALUES ($1, $2) RETURNING id`, got)
}
