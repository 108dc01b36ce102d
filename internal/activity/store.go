// Package activity keeps a queryable history of domain events, indexed by
// the sessions, schemas and fields they concern.
package activity

import (
	"context"
	"time"
)

// Entry is one event as seen from one of its subjects. An event about a
// field in a session is stored twice: once under the field and once under
// the session.
type Entry struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	OccurredAt  time.Time `json:"occurred_at"`
	SubjectKind string    `json:"subject_kind"`
	SubjectID   string    `json:"subject_id"`
	Role        string    `json:"role"`
	Summary     string    `json:"summary"`
	Category    string    `json:"category"`
	Outcome     string    `json:"outcome"`
}

// QueryOptions filters QueryBySubject.
type QueryOptions struct {
	Categories []string
	Since      *time.Time
	Limit      int
}

// DefaultQueryOptions returns the options used when a caller sets none.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{Limit: 50}
}

// Store reads and writes activity entries.
type Store interface {
	WriteEntries(ctx context.Context, entries []Entry) error
	QueryBySubject(ctx context.Context, kind, id string, opts QueryOptions) (entries []Entry, totalCount int, err error)
}
