package incident

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescuegrid/firedispatch/core/dispatch"
	"github.com/rescuegrid/firedispatch/core/model"
	"github.com/rescuegrid/firedispatch/core/notify"
	"github.com/rescuegrid/firedispatch/infra/logger"
)

type fakeSelector struct {
	sel   dispatch.Selection
	err   error
	calls int
}

func (f *fakeSelector) Select(context.Context, dispatch.SelectionRequest) (dispatch.Selection, error) {
	f.calls++
	if f.err != nil {
		return dispatch.Selection{}, f.err
	}
	return f.sel, nil
}

type fakeNotifier struct {
	broadcasts []notify.Event
	rooms      map[string][]notify.Event
	fail       bool
}

func (f *fakeNotifier) Broadcast(_ context.Context, ev notify.Event) error {
	if f.fail {
		return errors.New("socket layer down")
	}
	f.broadcasts = append(f.broadcasts, ev)
	return nil
}

func (f *fakeNotifier) ToStation(_ context.Context, id string, ev notify.Event) error {
	if f.fail {
		return errors.New("socket layer down")
	}
	if f.rooms == nil {
		f.rooms = map[string][]notify.Event{}
	}
	f.rooms[id] = append(f.rooms[id], ev)
	return nil
}

func (f *fakeNotifier) Close() error { return nil }

// failingLogStore wraps MemoryStore to make response-log appends fail.
type failingLogStore struct {
	*MemoryStore
}

func (f *failingLogStore) AppendLogEntry(context.Context, model.ResponseLogEntry) (model.ResponseLogEntry, error) {
	return model.ResponseLogEntry{}, errors.New("log table unavailable")
}

func okSelection() dispatch.Selection {
	return dispatch.Selection{
		StationID:      "st-1",
		DistanceKm:     1.6,
		WithinCoverage: true,
		Candidates: []dispatch.Candidate{
			{StationID: "st-1", DistanceKm: 1.6},
			{StationID: "st-2", DistanceKm: 66.2},
		},
	}
}

func newTestService(store Store, sel StationSelector, n notify.Notifier) *Service {
	svc := NewService(store, sel, nil, n, nil, logger.NopLogger{})
	base := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return base })
	return svc
}

func TestCreate_PersistsIncidentAndTimeline(t *testing.T) {
	store := NewMemoryStore()
	notifier := &fakeNotifier{}
	svc := newTestService(store, &fakeSelector{sel: okSelection()}, notifier)

	res, err := svc.Create(context.Background(), CreateRequest{
		ReporterID: "user-9",
		Latitude:   6.91,
		Longitude:  122.08,
		AlarmLevel: model.Alarm1,
		Details:    "smoke on the second floor",
	})
	require.NoError(t, err)

	inc := res.Incident
	assert.NotEmpty(t, inc.AlarmID)
	assert.Equal(t, "st-1", inc.DispatchedStationID)
	assert.Equal(t, model.StatusPendingDispatch, inc.Status)
	assert.Equal(t, model.Alarm1, inc.InitialAlarmLevel)
	assert.Equal(t, model.Alarm1, inc.CurrentAlarmLevel)
	assert.False(t, inc.CallTime.IsZero())
	assert.True(t, inc.DispatchTime.IsZero())

	entries, err := svc.ResponseLog(context.Background(), inc.AlarmID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.ActionInitialDispatch, entries[0].ActionType)

	require.Len(t, notifier.rooms["st-1"], 1)
	assert.Equal(t, notify.EventIncidentDispatched, notifier.rooms["st-1"][0].Type)
	require.Len(t, notifier.broadcasts, 1)
	assert.Equal(t, notify.EventIncidentCreated, notifier.broadcasts[0].Type)
}

func TestCreate_SelectionFailureAbortsCreation(t *testing.T) {
	store := NewMemoryStore()
	svc := newTestService(store, &fakeSelector{err: dispatch.ErrNoStationsAvailable}, &fakeNotifier{})

	_, err := svc.Create(context.Background(), CreateRequest{
		Latitude: 7.49, Longitude: 122.01, AlarmLevel: model.Alarm1,
	})
	assert.ErrorIs(t, err, dispatch.ErrNoStationsAvailable)

	incidents, lerr := store.ListIncidents(context.Background(), Filter{})
	require.NoError(t, lerr)
	assert.Empty(t, incidents, "no incident row may exist without a resolved station")
}

func TestCreate_ForcedUnavailablePerformsNoWrite(t *testing.T) {
	store := NewMemoryStore()
	svc := newTestService(store, &fakeSelector{err: dispatch.ErrStationUnavailable}, &fakeNotifier{})

	_, err := svc.Create(context.Background(), CreateRequest{
		Latitude: 7.49, Longitude: 122.01, AlarmLevel: model.Alarm2, ForcedStationID: "st-offline",
	})
	assert.ErrorIs(t, err, dispatch.ErrStationUnavailable)

	incidents, _ := store.ListIncidents(context.Background(), Filter{})
	assert.Empty(t, incidents)
}

func TestCreate_MissingAlarmLevelRejectedBeforeSelection(t *testing.T) {
	sel := &fakeSelector{sel: okSelection()}
	svc := newTestService(NewMemoryStore(), sel, &fakeNotifier{})

	_, err := svc.Create(context.Background(), CreateRequest{Latitude: 7.49, Longitude: 122.01})
	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Zero(t, sel.calls)
}

func TestCreate_NotifierFailureDoesNotFailCreation(t *testing.T) {
	store := NewMemoryStore()
	svc := newTestService(store, &fakeSelector{sel: okSelection()}, &fakeNotifier{fail: true})

	res, err := svc.Create(context.Background(), CreateRequest{
		Latitude: 6.91, Longitude: 122.08, AlarmLevel: model.Alarm3,
	})
	require.NoError(t, err)

	got, err := store.GetIncident(context.Background(), res.Incident.AlarmID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingDispatch, got.Status)
}

func TestCreate_LogAppendFailureDoesNotFailCreation(t *testing.T) {
	store := &failingLogStore{NewMemoryStore()}
	svc := newTestService(store, &fakeSelector{sel: okSelection()}, &fakeNotifier{})

	res, err := svc.Create(context.Background(), CreateRequest{
		Latitude: 6.91, Longitude: 122.08, AlarmLevel: model.Alarm1,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Incident.AlarmID)
}

func TestUpdateStatus_AdvancesAndStampsTimes(t *testing.T) {
	store := NewMemoryStore()
	notifier := &fakeNotifier{}
	svc := newTestService(store, &fakeSelector{sel: okSelection()}, notifier)

	res, err := svc.Create(context.Background(), CreateRequest{
		Latitude: 6.91, Longitude: 122.08, AlarmLevel: model.Alarm1,
	})
	require.NoError(t, err)
	id := res.Incident.AlarmID

	inc, err := svc.UpdateStatus(context.Background(), id, model.StatusDispatchOnTheWay, "admin-1", "truck-7")
	require.NoError(t, err)
	assert.False(t, inc.DispatchTime.IsZero())
	assert.Equal(t, "truck-7", inc.DispatchedTruckID)

	inc, err = svc.UpdateStatus(context.Background(), id, model.StatusResolved, "admin-1", "")
	require.NoError(t, err)
	assert.False(t, inc.ResolveTime.IsZero())

	entries, err := svc.ResponseLog(context.Background(), id)
	require.NoError(t, err)
	// initial dispatch + two status changes
	require.Len(t, entries, 3)
	assert.Equal(t, model.ActionStatusChange, entries[1].ActionType)
	assert.Equal(t, model.ActionStatusChange, entries[2].ActionType)
}

func TestUpdateStatus_ReapplySameStatusIsNoOp(t *testing.T) {
	store := NewMemoryStore()
	svc := newTestService(store, &fakeSelector{sel: okSelection()}, &fakeNotifier{})

	res, err := svc.Create(context.Background(), CreateRequest{
		Latitude: 6.91, Longitude: 122.08, AlarmLevel: model.Alarm1,
	})
	require.NoError(t, err)
	id := res.Incident.AlarmID

	_, err = svc.UpdateStatus(context.Background(), id, model.StatusPendingDispatch, "admin-1", "")
	require.NoError(t, err)

	entries, err := svc.ResponseLog(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no-op transition must not add a timeline entry")
}

func TestUpdateStatus_RejectsBackwardTransition(t *testing.T) {
	store := NewMemoryStore()
	svc := newTestService(store, &fakeSelector{sel: okSelection()}, &fakeNotifier{})

	res, err := svc.Create(context.Background(), CreateRequest{
		Latitude: 6.91, Longitude: 122.08, AlarmLevel: model.Alarm1,
	})
	require.NoError(t, err)
	id := res.Incident.AlarmID

	_, err = svc.UpdateStatus(context.Background(), id, model.StatusOngoingResponse, "admin-1", "")
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), id, model.StatusDispatchOnTheWay, "admin-1", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateStatus_CancelFromNonTerminal(t *testing.T) {
	store := NewMemoryStore()
	svc := newTestService(store, &fakeSelector{sel: okSelection()}, &fakeNotifier{})

	res, err := svc.Create(context.Background(), CreateRequest{
		Latitude: 6.91, Longitude: 122.08, AlarmLevel: model.Alarm1,
	})
	require.NoError(t, err)

	inc, err := svc.UpdateStatus(context.Background(), res.Incident.AlarmID, model.StatusCancelled, "admin-1", "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, inc.Status)
	assert.False(t, inc.ResolveTime.IsZero())

	_, err = svc.UpdateStatus(context.Background(), res.Incident.AlarmID, model.StatusOngoingResponse, "admin-1", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateAlarmLevel_PreservesInitialLevel(t *testing.T) {
	store := NewMemoryStore()
	svc := newTestService(store, &fakeSelector{sel: okSelection()}, &fakeNotifier{})

	res, err := svc.Create(context.Background(), CreateRequest{
		Latitude: 6.91, Longitude: 122.08, AlarmLevel: model.Alarm1,
	})
	require.NoError(t, err)
	id := res.Incident.AlarmID

	_, err = svc.UpdateAlarmLevel(context.Background(), id, model.Alarm2, "admin-1")
	require.NoError(t, err)
	inc, err := svc.UpdateAlarmLevel(context.Background(), id, model.Alarm3, "admin-1")
	require.NoError(t, err)

	assert.Equal(t, model.Alarm1, inc.InitialAlarmLevel)
	assert.Equal(t, model.Alarm3, inc.CurrentAlarmLevel)

	entries, err := svc.ResponseLog(context.Background(), id)
	require.NoError(t, err)
	var levelChanges int
	for _, e := range entries {
		if e.ActionType == model.ActionAlarmLevelChange {
			levelChanges++
		}
	}
	assert.Equal(t, 2, levelChanges)
}

func TestUpdateAlarmLevel_SameLevelIsNoOp(t *testing.T) {
	store := NewMemoryStore()
	svc := newTestService(store, &fakeSelector{sel: okSelection()}, &fakeNotifier{})

	res, err := svc.Create(context.Background(), CreateRequest{
		Latitude: 6.91, Longitude: 122.08, AlarmLevel: model.Alarm1,
	})
	require.NoError(t, err)

	_, err = svc.UpdateAlarmLevel(context.Background(), res.Incident.AlarmID, model.Alarm1, "admin-1")
	require.NoError(t, err)

	entries, err := svc.ResponseLog(context.Background(), res.Incident.AlarmID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDispatchedStationImmutableAcrossTransitions(t *testing.T) {
	store := NewMemoryStore()
	svc := newTestService(store, &fakeSelector{sel: okSelection()}, &fakeNotifier{})

	res, err := svc.Create(context.Background(), CreateRequest{
		Latitude: 6.91, Longitude: 122.08, AlarmLevel: model.Alarm1,
	})
	require.NoError(t, err)
	id := res.Incident.AlarmID

	_, err = svc.UpdateStatus(context.Background(), id, model.StatusDispatchOnTheWay, "admin-1", "")
	require.NoError(t, err)
	_, err = svc.UpdateAlarmLevel(context.Background(), id, model.Alarm4, "admin-1")
	require.NoError(t, err)

	inc, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "st-1", inc.DispatchedStationID)
}

func TestGet_UnknownIncident(t *testing.T) {
	svc := newTestService(NewMemoryStore(), &fakeSelector{sel: okSelection()}, &fakeNotifier{})
	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrIncidentNotFound)
}
