package readiness

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rescuegrid/firedispatch/core/model"
)

// MemoryStore is an in-memory Store used by tests and the report command.
type MemoryStore struct {
	mu          sync.RWMutex
	stations    map[string]model.Station
	order       []string
	submissions []model.ReadinessSubmission
	nextSubID   int64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{stations: map[string]model.Station{}, nextSubID: 1}
}

func (s *MemoryStore) CreateStation(_ context.Context, st model.Station) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stations[st.ID]; !ok {
		s.order = append(s.order, st.ID)
	}
	s.stations[st.ID] = st
	return nil
}

func (s *MemoryStore) GetStation(_ context.Context, id string) (model.Station, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stations[id]
	if !ok {
		return model.Station{}, ErrStationNotFound
	}
	return st, nil
}

func (s *MemoryStore) ListStations(_ context.Context) ([]model.Station, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]model.Station, 0, len(s.order))
	for _, id := range s.order {
		res = append(res, s.stations[id])
	}
	return res, nil
}

func (s *MemoryStore) ListReadyStations(ctx context.Context) ([]model.Station, error) {
	all, err := s.ListStations(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]model.Station, 0, len(all))
	for _, st := range all {
		if st.IsReady {
			res = append(res, st)
		}
	}
	return res, nil
}

func (s *MemoryStore) AppendSubmission(_ context.Context, sub model.ReadinessSubmission) (model.ReadinessSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stations[sub.StationID]; !ok {
		return model.ReadinessSubmission{}, ErrStationNotFound
	}
	sub.ID = s.nextSubID
	s.nextSubID++
	s.submissions = append(s.submissions, sub)
	return sub, nil
}

func (s *MemoryStore) LatestSubmission(_ context.Context, stationID string) (model.ReadinessSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var own []model.ReadinessSubmission
	for _, sub := range s.submissions {
		if sub.StationID == stationID {
			own = append(own, sub)
		}
	}
	if len(own) == 0 {
		return model.ReadinessSubmission{}, ErrNoSubmission
	}
	sort.SliceStable(own, func(i, j int) bool {
		if own[i].SubmittedAt.Equal(own[j].SubmittedAt) {
			return own[i].ID > own[j].ID
		}
		return own[i].SubmittedAt.After(own[j].SubmittedAt)
	})
	return own[0], nil
}

func (s *MemoryStore) SetStationReady(_ context.Context, stationID string, ready bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stations[stationID]
	if !ok {
		return ErrStationNotFound
	}
	st.IsReady = ready
	st.LastStatusUpdate = at
	s.stations[stationID] = st
	return nil
}
