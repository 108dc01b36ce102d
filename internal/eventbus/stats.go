package eventbus

import (
	"context"
	"sync"

	"github.com/matthewbaird/dtobuddy/internal/event"
)

// Stats counts events by type and by outcome.
type Stats struct {
	mu        sync.Mutex
	byType    map[string]int
	byOutcome map[string]int
}

// StatsSnapshot is a copy of the counters at one moment.
type StatsSnapshot struct {
	Total     int            `json:"total"`
	ByType    map[string]int `json:"by_type"`
	ByOutcome map[string]int `json:"by_outcome"`
	Dropped   int            `json:"dropped"`
}

func NewStats() *Stats {
	return &Stats{byType: map[string]int{}, byOutcome: map[string]int{}}
}

func (s *Stats) HandleEvent(_ context.Context, evt event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byType[evt.EventType]++
	s.byOutcome[evt.Outcome]++
	return nil
}

// Snapshot returns the current counts.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := StatsSnapshot{
		ByType:    make(map[string]int, len(s.byType)),
		ByOutcome: make(map[string]int, len(s.byOutcome)),
	}
	for k, v := range s.byType {
		snap.ByType[k] = v
		snap.Total += v
	}
	for k, v := range s.byOutcome {
		snap.ByOutcome[k] = v
	}
	return snap
}
