package eventbus

import (
	"context"
	"log"

	"github.com/matthewbaird/dtobuddy/internal/event"
)

// LogConsumer logs all domain events.
type LogConsumer struct {
	logger *log.Logger
}

// NewLogConsumer logs to l, or to the standard logger when l is nil.
func NewLogConsumer(l *log.Logger) *LogConsumer {
	if l == nil {
		l = log.Default()
	}
	return &LogConsumer{logger: l}
}

func (c *LogConsumer) HandleEvent(_ context.Context, evt event.DomainEvent) error {
	subjects := make([]string, len(evt.Subjects))
	for i, ref := range evt.Subjects {
		id := ref.ID
		if len(id) > 8 {
			id = id[:8]
		}
		subjects[i] = ref.Kind + ":" + id
	}
	c.logger.Printf("event: %s [%s/%s] %s subjects=%v",
		evt.EventType, evt.Category, evt.Outcome, evt.Summary, subjects)
	return nil
}
