package records

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// MemoryStore is an in-process [Store], used in "--dev" mode and in tests.
type MemoryStore struct {
	mu      sync.Mutex
	reports []Report
	nextID  int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Create(_ context.Context, reports []Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range reports {
		s.nextID++
		r.ID = fmt.Sprintf("rec%05d", s.nextID)
		r.ResolvedBy = slices.Clone(r.ResolvedBy)
		s.reports = append(s.reports, r)
	}
	return nil
}

func (s *MemoryStore) BySubject(_ context.Context, userID string) ([]Report, error) {
	reports := s.filter(func(r Report) bool { return r.Subject == userID })
	SortNewestFirst(reports)
	return reports, nil
}

func (s *MemoryStore) DueExpirations(_ context.Context, date string) ([]Report, error) {
	reports := s.filter(func(r Report) bool { return r.Until == date })
	SortNewestFirst(reports)
	return reports, nil
}

// All returns a copy of all the stored reports, in insertion order.
func (s *MemoryStore) All() []Report {
	return s.filter(func(Report) bool { return true })
}

func (s *MemoryStore) filter(keep func(Report) bool) []Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reports []Report
	for _, r := range s.reports {
		if keep(r) {
			reports = append(reports, r)
		}
	}
	return reports
}
