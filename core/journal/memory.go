package journal

import (
	"context"
	"sync"
)

// MemoryStore keeps records in memory, bounded to the most recent Max
// entries when Max is positive.
type MemoryStore struct {
	mu   sync.Mutex
	recs []Record
	Max  int
}

// NewMemoryStore creates a store retaining at most max records.
func NewMemoryStore(max int) *MemoryStore { return &MemoryStore{Max: max} }

func (s *MemoryStore) Append(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	if s.Max > 0 && len(s.recs) > s.Max {
		s.recs = append(s.recs[:0:0], s.recs[len(s.recs)-s.Max:]...)
	}
	return nil
}

func (s *MemoryStore) Query(_ context.Context, q Query) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return q.apply(s.recs), nil
}

func (s *MemoryStore) Close() error { return nil }
