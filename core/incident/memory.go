package incident

import (
	"context"
	"sync"

	"github.com/rescuegrid/firedispatch/core/model"
)

// MemoryStore is an in-memory Store used by tests and the report command.
type MemoryStore struct {
	mu        sync.RWMutex
	incidents map[string]model.Incident
	order     []string
	log       []model.ResponseLogEntry
	nextLogID int64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{incidents: map[string]model.Incident{}, nextLogID: 1}
}

func (s *MemoryStore) CreateIncident(_ context.Context, inc model.Incident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.incidents[inc.AlarmID]; !ok {
		s.order = append(s.order, inc.AlarmID)
	}
	s.incidents[inc.AlarmID] = inc
	return nil
}

func (s *MemoryStore) GetIncident(_ context.Context, alarmID string) (model.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inc, ok := s.incidents[alarmID]
	if !ok {
		return model.Incident{}, ErrIncidentNotFound
	}
	return inc, nil
}

func (s *MemoryStore) ListIncidents(_ context.Context, f Filter) ([]model.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]model.Incident, 0, len(s.order))
	for _, id := range s.order {
		inc := s.incidents[id]
		if f.Status != "" && inc.Status != f.Status {
			continue
		}
		if f.StationID != "" && inc.DispatchedStationID != f.StationID {
			continue
		}
		res = append(res, inc)
	}
	return res, nil
}

func (s *MemoryStore) UpdateIncident(_ context.Context, inc model.Incident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.incidents[inc.AlarmID]; !ok {
		return ErrIncidentNotFound
	}
	s.incidents[inc.AlarmID] = inc
	return nil
}

func (s *MemoryStore) AppendLogEntry(_ context.Context, entry model.ResponseLogEntry) (model.ResponseLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = s.nextLogID
	s.nextLogID++
	s.log = append(s.log, entry)
	return entry, nil
}

func (s *MemoryStore) ListLogEntries(_ context.Context, alarmID string) ([]model.ResponseLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []model.ResponseLogEntry
	for _, e := range s.log {
		if e.AlarmID == alarmID {
			res = append(res, e)
		}
	}
	return res, nil
}
