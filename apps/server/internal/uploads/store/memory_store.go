// Package store implements uploads.HistoryStore backends.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/tilsley/repopush/apps/server/internal/uploads"
)

// Compile-time check: *MemoryStore implements uploads.HistoryStore.
var _ uploads.HistoryStore = (*MemoryStore)(nil)

// MemoryStore keeps upload history in process memory, bounded to max entries.
type MemoryStore struct {
	mu      sync.Mutex
	max     int
	records []uploads.Record
}

// NewMemoryStore creates a MemoryStore holding at most max records
// (oldest dropped first). max <= 0 means unbounded.
func NewMemoryStore(max int) *MemoryStore {
	return &MemoryStore{max: max}
}

// Save appends a record.
func (s *MemoryStore) Save(_ context.Context, r uploads.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	if s.max > 0 && len(s.records) > s.max {
		s.records = s.records[len(s.records)-s.max:]
	}
	return nil
}

// List returns up to limit records, newest first.
func (s *MemoryStore) List(_ context.Context, limit int) ([]uploads.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uploads.Record, 0, len(s.records))
	for i := len(s.records) - 1; i >= 0; i-- {
		out = append(out, s.records[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
