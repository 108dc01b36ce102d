package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DomainEvent carries the canonical shape of every event raised by the
// editor, the generator and the assistant.
type DomainEvent struct {
	ID         string          `json:"id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Subjects   []Ref           `json:"subjects"`
	Summary    string          `json:"summary"`
	Category   string          `json:"category"` // "editor", "generate", "assist"
	Outcome    string          `json:"outcome"`  // "ok", "failed"
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Ref names something an event is about.
type Ref struct {
	Kind string `json:"kind"` // "session", "schema", "field"
	ID   string `json:"id"`
	Role string `json:"role"` // "subject", "context"
}

// SessionID returns the id of the event's session ref, if any.
func (e DomainEvent) SessionID() string {
	for _, r := range e.Subjects {
		if r.Kind == "session" {
			return r.ID
		}
	}
	return ""
}

var now = time.Now

func newID() string { return uuid.New().String() }

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func newEvent(eventType, category, summary string, refs []Ref, payload any) DomainEvent {
	return DomainEvent{
		ID:         newID(),
		EventType:  eventType,
		OccurredAt: now(),
		Subjects:   refs,
		Summary:    summary,
		Category:   category,
		Outcome:    "ok",
		Payload:    mustJSON(payload),
	}
}

func sessionRef(id string) Ref { return Ref{Kind: "session", ID: id, Role: "context"} }

// ── Editor events ────────────────────────────────────────────────────────────

// SessionOpenedPayload carries event-specific data for SessionOpened.
type SessionOpenedPayload struct {
	SessionID  string `json:"session_id"`
	SchemaName string `json:"schema_name"`
}

func NewSessionOpened(p SessionOpenedPayload) DomainEvent {
	return newEvent("session_opened", "editor",
		fmt.Sprintf("Editing session %s opened for %q", short(p.SessionID), p.SchemaName),
		[]Ref{{Kind: "session", ID: p.SessionID, Role: "subject"}}, p)
}

// FieldChangedPayload carries event-specific data for FieldAdded,
// FieldUpdated and FieldRemoved.
type FieldChangedPayload struct {
	SessionID string   `json:"session_id"`
	FieldID   string   `json:"field_id"`
	FieldName string   `json:"field_name"`
	Path      []string `json:"path,omitempty"`
}

func fieldEvent(eventType, verb string, p FieldChangedPayload) DomainEvent {
	return newEvent(eventType, "editor",
		fmt.Sprintf("Field %q %s", p.FieldName, verb),
		[]Ref{{Kind: "field", ID: p.FieldID, Role: "subject"}, sessionRef(p.SessionID)}, p)
}

func NewFieldAdded(p FieldChangedPayload) DomainEvent {
	return fieldEvent("field_added", "added", p)
}

func NewFieldUpdated(p FieldChangedPayload) DomainEvent {
	return fieldEvent("field_updated", "updated", p)
}

func NewFieldRemoved(p FieldChangedPayload) DomainEvent {
	return fieldEvent("field_removed", "removed", p)
}

// SchemaReplacedPayload carries event-specific data for SchemaReplaced.
type SchemaReplacedPayload struct {
	SessionID  string `json:"session_id"`
	SchemaName string `json:"schema_name"`
	FieldCount int    `json:"field_count"`
	Source     string `json:"source"` // "client", "assist"
}

func NewSchemaReplaced(p SchemaReplacedPayload) DomainEvent {
	return newEvent("schema_replaced", "editor",
		fmt.Sprintf("Schema %q replaced from %s (%d fields)", p.SchemaName, p.Source, p.FieldCount),
		[]Ref{{Kind: "schema", ID: p.SchemaName, Role: "subject"}, sessionRef(p.SessionID)}, p)
}

// ── Generation events ────────────────────────────────────────────────────────

// ArtifactsGeneratedPayload carries event-specific data for
// ArtifactsGenerated.
type ArtifactsGeneratedPayload struct {
	SessionID  string `json:"session_id,omitempty"`
	SchemaName string `json:"schema_name"`
	DTOFile    string `json:"dto_file"`
	ModelFile  string `json:"model_file"`
	DTOBytes   int    `json:"dto_bytes"`
	ModelBytes int    `json:"model_bytes"`
}

func NewArtifactsGenerated(p ArtifactsGeneratedPayload) DomainEvent {
	refs := []Ref{{Kind: "schema", ID: p.SchemaName, Role: "subject"}}
	if p.SessionID != "" {
		refs = append(refs, sessionRef(p.SessionID))
	}
	return newEvent("artifacts_generated", "generate",
		fmt.Sprintf("Generated %s and %s", p.DTOFile, p.ModelFile), refs, p)
}

// ── Assistant events ─────────────────────────────────────────────────────────

// AssistPayload carries event-specific data for AssistCompleted and
// AssistFailed.
type AssistPayload struct {
	SessionID  string `json:"session_id,omitempty"`
	Mode       string `json:"mode"`
	SchemaName string `json:"schema_name,omitempty"`
	FieldCount int    `json:"field_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

func assistRefs(p AssistPayload) []Ref {
	var refs []Ref
	if p.SchemaName != "" {
		refs = append(refs, Ref{Kind: "schema", ID: p.SchemaName, Role: "subject"})
	}
	if p.SessionID != "" {
		refs = append(refs, sessionRef(p.SessionID))
	}
	return refs
}

func NewAssistCompleted(p AssistPayload) DomainEvent {
	return newEvent("assist_completed", "assist",
		fmt.Sprintf("Assistant %s returned %q with %d fields", p.Mode, p.SchemaName, p.FieldCount),
		assistRefs(p), p)
}

func NewAssistFailed(p AssistPayload) DomainEvent {
	evt := newEvent("assist_failed", "assist",
		fmt.Sprintf("Assistant %s failed: %s", p.Mode, p.Error), assistRefs(p), p)
	evt.Outcome = "failed"
	return evt
}
