package journal

import (
	"sync"
	"time"
)

// InMemoryStore is a simple, goroutine-safe Store backed by maps. It is the
// default store for tests and single-session use; history is lost when the
// process exits.
type InMemoryStore struct {
	mu        sync.RWMutex
	runs      map[string]*RunRecord
	operators map[string][]*OperatorRecord
	order     []string // run IDs in insertion order
}

// NewInMemoryStore creates a new InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		runs:      make(map[string]*RunRecord),
		operators: make(map[string][]*OperatorRecord),
	}
}

// Ensure InMemoryStore implements Store.
var _ Store = (*InMemoryStore)(nil)

func (s *InMemoryStore) SaveRun(rec *RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *rec
	s.runs[rec.ID] = &copied
	s.order = append(s.order, rec.ID)
	return nil
}

func (s *InMemoryStore) FinishRun(id string, status Status, finishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.runs[id]
	if !ok {
		return ErrRunNotFound
	}

	rec.Status = status
	rec.FinishedAt = finishedAt
	return nil
}

func (s *InMemoryStore) AppendOperator(rec *OperatorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *rec
	s.operators[rec.RunID] = append(s.operators[rec.RunID], &copied)
	return nil
}

func (s *InMemoryStore) GetRun(id string) (*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}

	copied := *rec
	return &copied, nil
}

func (s *InMemoryStore) ListRuns(filter RunFilter) ([]*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*RunRecord

	for _, id := range s.order {
		rec := s.runs[id]
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		copied := *rec
		result = append(result, &copied)
	}

	return result, nil
}

func (s *InMemoryStore) ListOperators(runID string) ([]*OperatorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.operators[runID]
	result := make([]*OperatorRecord, 0, len(recs))
	for _, rec := range recs {
		copied := *rec
		result = append(result, &copied)
	}

	return result, nil
}
