package storage

import "sync"

// MockRepository is an in-memory Repository for tests and dry runs.
type MockRepository struct {
	mu   sync.Mutex
	runs map[string]*Run
	// SaveErr, when set, is returned by SaveRun.
	SaveErr error
}

var _ Repository = (*MockRepository)(nil)

func NewMockRepository() *MockRepository {
	return &MockRepository{runs: make(map[string]*Run)}
}

func (m *MockRepository) SaveRun(run *Run) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *run
	m.runs[run.ID] = &clone
	return nil
}

func (m *MockRepository) GetRun(id string) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, nil
	}
	clone := *run
	return &clone, nil
}

func (m *MockRepository) ListRuns(limit int) ([]Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var runs []Run
	for _, run := range m.runs {
		runs = append(runs, *run)
		if limit > 0 && len(runs) >= limit {
			break
		}
	}
	return runs, nil
}

func (m *MockRepository) GetStats() (*Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &Stats{TotalRuns: len(m.runs)}
	for _, run := range m.runs {
		stats.TotalResultRow += run.ResultRows
		if stats.LastRunAt == nil || run.StartedAt.After(*stats.LastRunAt) {
			t := run.StartedAt
			stats.LastRunAt = &t
		}
	}
	return stats, nil
}

func (m *MockRepository) Close() error { return nil }
