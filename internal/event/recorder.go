// Package event defines the domain events raised while editing, generating
// and assisting, and records them. Each event is fanned out into one
// activity entry per subject and then published for downstream consumers.
package event

import (
	"context"

	"github.com/matthewbaird/dtobuddy/internal/activity"
)

// Recorder writes domain events.
type Recorder interface {
	Record(ctx context.Context, evt DomainEvent) error
}

// Publisher sends domain events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, evt DomainEvent)
}

// ActivityRecorder implements Recorder on top of an activity.Store. If a
// Publisher is set, the event is published after the store write succeeds.
type ActivityRecorder struct {
	store activity.Store
	bus   Publisher
}

func NewActivityRecorder(store activity.Store) *ActivityRecorder {
	return &ActivityRecorder{store: store}
}

// SetPublisher attaches an event bus.
func (r *ActivityRecorder) SetPublisher(p Publisher) {
	r.bus = p
}

func (r *ActivityRecorder) Record(ctx context.Context, evt DomainEvent) error {
	entries := make([]activity.Entry, 0, len(evt.Subjects))
	for _, ref := range evt.Subjects {
		entries = append(entries, activity.Entry{
			EventID:     evt.ID,
			EventType:   evt.EventType,
			OccurredAt:  evt.OccurredAt,
			SubjectKind: ref.Kind,
			SubjectID:   ref.ID,
			Role:        ref.Role,
			Summary:     evt.Summary,
			Category:    evt.Category,
			Outcome:     evt.Outcome,
		})
	}
	if err := r.store.WriteEntries(ctx, entries); err != nil {
		return err
	}
	if r.bus != nil {
		r.bus.Publish(ctx, evt)
	}
	return nil
}

// Discard is a Recorder that drops every event.
var Discard Recorder = discard{}

type discard struct{}

func (discard) Record(context.Context, DomainEvent) error { return nil }
