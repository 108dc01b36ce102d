package editor

import (
	"encoding/json"

	"github.com/matthewbaird/dtobuddy/internal/assist"
	"github.com/matthewbaird/dtobuddy/internal/codegen"
	"github.com/matthewbaird/dtobuddy/internal/fieldtree"
	"github.com/matthewbaird/dtobuddy/internal/types"
)

// ── Client → Server messages ────────────────────────────────────────────────

// ClientMessage is the envelope for all client-to-server WebSocket messages.
type ClientMessage struct {
	Type string          `json:"type"` // "set_schema", "add_field", "update_field", "remove_field", "expand_all", "generate", "assist", "ping"
	ID   string          `json:"id"`   // Client-assigned request ID
	Data json.RawMessage `json:"data,omitempty"`
}

// The payload of "set_schema" is a types.Schema.

// AddFieldData is the payload for "add_field". An empty parent path adds a
// top-level field.
type AddFieldData struct {
	ParentPath []string `json:"parentPath,omitempty"`
}

// UpdateFieldData is the payload for "update_field".
type UpdateFieldData struct {
	ID    string          `json:"id"`
	Patch fieldtree.Patch `json:"patch"`
}

// RemoveFieldData is the payload for "remove_field".
type RemoveFieldData struct {
	ID         string   `json:"id"`
	ParentPath []string `json:"parentPath,omitempty"`
}

// ExpandAllData is the payload for "expand_all".
type ExpandAllData struct {
	Expanded bool `json:"expanded"`
}

// AssistData is the payload for "assist". Prompt is used by the generate
// mode only.
type AssistData struct {
	Mode   assist.Mode `json:"mode"`
	Prompt string      `json:"prompt,omitempty"`
}

// ── Server → Client messages ────────────────────────────────────────────────

// ServerMessage is the envelope for all server-to-client WebSocket messages.
type ServerMessage struct {
	Type      string `json:"type"`                 // "session", "schema", "preview", "error", "pong"
	RequestID string `json:"request_id,omitempty"` // Echoes client ID
	Data      any    `json:"data,omitempty"`
}

// SessionData carries session information.
type SessionData struct {
	SessionID string       `json:"session_id"`
	Schema    types.Schema `json:"schema"`
}

// SchemaData carries the schema after an edit. Changed is false when the
// edit addressed nothing; Field is the field the edit touched, if any.
type SchemaData struct {
	Schema  types.Schema `json:"schema"`
	Changed bool         `json:"changed"`
	Field   *types.Field `json:"field,omitempty"`
}

// PreviewData carries the generated artifacts.
type PreviewData = codegen.Artifacts

// ErrorData carries an error message.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
