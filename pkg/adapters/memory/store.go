package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/mender/pkg/domain"
)

// Store implements ports.ReportStore in memory.
// Reports are kept in their JSON form so stored and loaded values never alias.
// Safe for concurrent use.
type Store struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

// Save persists the report in memory.
func (s *Store) Save(ctx context.Context, runID string, report *domain.RunReport) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[runID] = raw
	return nil
}

// Load retrieves the report from memory.
func (s *Store) Load(ctx context.Context, runID string) (*domain.RunReport, error) {
	s.mu.RLock()
	raw, ok := s.data[runID]
	s.mu.RUnlock()

	if !ok {
		return nil, domain.ErrReportNotFound
	}

	var report domain.RunReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}

// Delete removes the report.
func (s *Store) Delete(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, runID)
	return nil
}

// List returns archived run IDs in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]string, 0, len(s.data))
	for id := range s.data {
		runs = append(runs, id)
	}
	sort.Strings(runs)
	return runs, nil
}
