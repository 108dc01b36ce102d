// Package worker contains event consumers that maintain derived data.
package worker

import (
	"context"
	"log"

	"github.com/matthewbaird/dtobuddy/internal/artifact"
	"github.com/matthewbaird/dtobuddy/internal/event"
	"github.com/matthewbaird/dtobuddy/internal/types"
)

// SchemaLookup returns the current schema of an editing session.
type SchemaLookup func(sessionID string) (types.Schema, bool)

// ExportWorker keeps generated files on disk in step with editing sessions:
// after every edit it rewrites the session's artifacts.
type ExportWorker struct {
	lookup SchemaLookup
	writer *artifact.Writer
}

// NewExportWorker creates an export worker writing through w.
func NewExportWorker(lookup SchemaLookup, w *artifact.Writer) *ExportWorker {
	return &ExportWorker{lookup: lookup, writer: w}
}

// HandleEvent regenerates the artifacts of the event's session.
func (w *ExportWorker) HandleEvent(_ context.Context, evt event.DomainEvent) error {
	switch evt.EventType {
	case "field_added", "field_updated", "field_removed", "schema_replaced":
	default:
		return nil
	}
	id := evt.SessionID()
	if id == "" {
		return nil
	}
	s, ok := w.lookup(id)
	if !ok || s.Name == "" {
		return nil
	}
	out, err := w.writer.Write(s)
	if err != nil {
		return err
	}
	log.Printf("export: %s -> %s, %s", s.Name, out.DTOPath, out.ModelPath)
	return nil
}
