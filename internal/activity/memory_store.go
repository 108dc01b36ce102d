package activity

import (
	"context"
	"slices"
	"sort"
	"sync"
)

// MemoryStore implements Store in memory. When more than max entries are
// held, the oldest are discarded.
type MemoryStore struct {
	mu      sync.RWMutex
	max     int
	entries []Entry
}

// NewMemoryStore creates an empty store holding at most max entries.
// A max below one selects 10000.
func NewMemoryStore(max int) *MemoryStore {
	if max < 1 {
		max = 10000
	}
	return &MemoryStore{max: max}
}

func (s *MemoryStore) WriteEntries(_ context.Context, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
	if over := len(s.entries) - s.max; over > 0 {
		s.entries = append([]Entry(nil), s.entries[over:]...)
	}
	return nil
}

func (s *MemoryStore) QueryBySubject(_ context.Context, kind, id string, opts QueryOptions) ([]Entry, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Entry
	for _, e := range s.entries {
		if e.SubjectKind != kind || e.SubjectID != id {
			continue
		}
		if opts.Since != nil && e.OccurredAt.Before(*opts.Since) {
			continue
		}
		if len(opts.Categories) > 0 && !slices.Contains(opts.Categories, e.Category) {
			continue
		}
		matched = append(matched, e)
	}

	// Newest first; entries written together keep their write order reversed.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].OccurredAt.After(matched[j].OccurredAt)
	})

	total := len(matched)
	limit := opts.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}
