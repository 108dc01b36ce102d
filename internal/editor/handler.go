package editor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/matthewbaird/dtobuddy/internal/assist"
	"github.com/matthewbaird/dtobuddy/internal/event"
	"github.com/matthewbaird/dtobuddy/internal/fieldtree"
	"github.com/matthewbaird/dtobuddy/internal/types"
)

// Assistant runs one assistant request against a schema.
type Assistant interface {
	Run(ctx context.Context, mode assist.Mode, prompt string, current types.Schema) (types.Schema, error)
}

// Handler manages WebSocket connections for editing sessions.
type Handler struct {
	sessions  *Manager
	assistant Assistant
	recorder  event.Recorder
}

// NewHandler creates a WebSocket handler. A nil assistant makes "assist"
// messages fail with assist_unavailable; a nil recorder drops events.
func NewHandler(sessions *Manager, a Assistant, rec event.Recorder) *Handler {
	if rec == nil {
		rec = event.Discard
	}
	return &Handler{sessions: sessions, assistant: a, recorder: rec}
}

// ServeHTTP upgrades to WebSocket and runs the message loop. The query
// parameter "session" resumes an existing session; without it a new one is
// created.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Printf("editor: websocket accept: %v", err)
		return
	}
	defer conn.CloseNow()
	ctx := r.Context()

	var sess *Session
	if id := r.URL.Query().Get("session"); id != "" {
		if sess = h.sessions.Get(id); sess == nil {
			h.sendError(ctx, conn, "", "session_not_found", fmt.Sprintf("no session %s", id))
			conn.Close(websocket.StatusPolicyViolation, "unknown session")
			return
		}
	} else {
		sess, _ = h.sessions.Create(types.NewSchema(""))
		h.record(ctx, event.NewSessionOpened(event.SessionOpenedPayload{SessionID: sess.ID}))
	}

	h.send(ctx, conn, ServerMessage{
		Type: "session",
		Data: SessionData{SessionID: sess.ID, Schema: sess.Schema()},
	})

	for {
		var msg ClientMessage
		err := wsjson.Read(ctx, conn, &msg)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				log.Printf("editor: connection closed: %v", websocket.CloseStatus(err))
			}
			return
		}
		h.handle(ctx, conn, sess, msg)
	}
}

func (h *Handler) handle(ctx context.Context, conn *websocket.Conn, sess *Session, msg ClientMessage) {
	switch msg.Type {
	case "set_schema":
		h.handleSetSchema(ctx, conn, sess, msg)
	case "add_field":
		h.handleAddField(ctx, conn, sess, msg)
	case "update_field":
		h.handleUpdateField(ctx, conn, sess, msg)
	case "remove_field":
		h.handleRemoveField(ctx, conn, sess, msg)
	case "expand_all":
		var data ExpandAllData
		if !h.decode(ctx, conn, msg, &data) {
			return
		}
		sess.ExpandAll(data.Expanded)
		h.sendSchema(ctx, conn, msg.ID, sess, true, nil)
	case "generate":
		h.handleGenerate(ctx, conn, sess, msg)
	case "assist":
		h.handleAssist(ctx, conn, sess, msg)
	case "ping":
		sess.Touch()
		h.send(ctx, conn, ServerMessage{Type: "pong", RequestID: msg.ID})
	default:
		h.sendError(ctx, conn, msg.ID, "unknown_type", fmt.Sprintf("unknown message type: %s", msg.Type))
	}
}

func (h *Handler) handleSetSchema(ctx context.Context, conn *websocket.Conn, sess *Session, msg ClientMessage) {
	data := types.NewSchema("")
	if !h.decode(ctx, conn, msg, &data) {
		return
	}
	s, err := sess.SetSchema(data)
	if err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_schema", err.Error())
		return
	}
	h.record(ctx, event.NewSchemaReplaced(event.SchemaReplacedPayload{
		SessionID: sess.ID, SchemaName: s.Name, FieldCount: len(s.Fields), Source: "client",
	}))
	h.send(ctx, conn, ServerMessage{Type: "schema", RequestID: msg.ID, Data: SchemaData{Schema: s, Changed: true}})
}

func (h *Handler) handleAddField(ctx context.Context, conn *websocket.Conn, sess *Session, msg ClientMessage) {
	var data AddFieldData
	if !h.decode(ctx, conn, msg, &data) {
		return
	}
	f, ok := sess.AddField(data.ParentPath)
	if ok {
		h.record(ctx, event.NewFieldAdded(event.FieldChangedPayload{
			SessionID: sess.ID, FieldID: f.ID, FieldName: f.Name, Path: data.ParentPath,
		}))
		h.sendSchema(ctx, conn, msg.ID, sess, true, &f)
		return
	}
	h.sendSchema(ctx, conn, msg.ID, sess, false, nil)
}

func (h *Handler) handleUpdateField(ctx context.Context, conn *websocket.Conn, sess *Session, msg ClientMessage) {
	var data UpdateFieldData
	if !h.decode(ctx, conn, msg, &data) {
		return
	}
	f, ok := sess.UpdateField(data.ID, data.Patch)
	if ok {
		path, _ := fieldtree.PathOf(sess.Schema().Fields, f.ID)
		h.record(ctx, event.NewFieldUpdated(event.FieldChangedPayload{
			SessionID: sess.ID, FieldID: f.ID, FieldName: f.Name, Path: path,
		}))
		h.sendSchema(ctx, conn, msg.ID, sess, true, &f)
		return
	}
	h.sendSchema(ctx, conn, msg.ID, sess, false, nil)
}

func (h *Handler) handleRemoveField(ctx context.Context, conn *websocket.Conn, sess *Session, msg ClientMessage) {
	var data RemoveFieldData
	if !h.decode(ctx, conn, msg, &data) {
		return
	}
	f, ok := sess.RemoveField(data.ID, data.ParentPath)
	if ok {
		h.record(ctx, event.NewFieldRemoved(event.FieldChangedPayload{
			SessionID: sess.ID, FieldID: f.ID, FieldName: f.Name, Path: data.ParentPath,
		}))
		h.sendSchema(ctx, conn, msg.ID, sess, true, &f)
		return
	}
	h.sendSchema(ctx, conn, msg.ID, sess, false, nil)
}

func (h *Handler) handleGenerate(ctx context.Context, conn *websocket.Conn, sess *Session, msg ClientMessage) {
	s := sess.Schema()
	out := sess.Preview()
	h.record(ctx, event.NewArtifactsGenerated(event.ArtifactsGeneratedPayload{
		SessionID: sess.ID, SchemaName: s.Name,
		DTOFile: out.DTOFile, ModelFile: out.ModelFile,
		DTOBytes: len(out.DTO), ModelBytes: len(out.Model),
	}))
	h.send(ctx, conn, ServerMessage{Type: "preview", RequestID: msg.ID, Data: PreviewData(out)})
}

func (h *Handler) handleAssist(ctx context.Context, conn *websocket.Conn, sess *Session, msg ClientMessage) {
	var data AssistData
	if !h.decode(ctx, conn, msg, &data) {
		return
	}
	if h.assistant == nil {
		h.sendError(ctx, conn, msg.ID, "assist_unavailable", "assistant is not configured")
		return
	}

	s, err := h.assistant.Run(ctx, data.Mode, data.Prompt, sess.Schema())
	if err == nil {
		s, err = sess.SetSchema(s)
	}
	if err != nil {
		h.record(ctx, event.NewAssistFailed(event.AssistPayload{
			SessionID: sess.ID, Mode: string(data.Mode), Error: err.Error(),
		}))
		h.sendError(ctx, conn, msg.ID, "assist_failed", err.Error())
		return
	}

	h.record(ctx, event.NewAssistCompleted(event.AssistPayload{
		SessionID: sess.ID, Mode: string(data.Mode), SchemaName: s.Name, FieldCount: len(s.Fields),
	}))
	h.record(ctx, event.NewSchemaReplaced(event.SchemaReplacedPayload{
		SessionID: sess.ID, SchemaName: s.Name, FieldCount: len(s.Fields), Source: "assist",
	}))
	h.send(ctx, conn, ServerMessage{Type: "schema", RequestID: msg.ID, Data: SchemaData{Schema: s, Changed: true}})
}

func (h *Handler) decode(ctx context.Context, conn *websocket.Conn, msg ClientMessage, v any) bool {
	if len(msg.Data) == 0 {
		return true
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_data", fmt.Sprintf("invalid %s data: %v", msg.Type, err))
		return false
	}
	return true
}

func (h *Handler) record(ctx context.Context, evt event.DomainEvent) {
	if err := h.recorder.Record(ctx, evt); err != nil {
		log.Printf("editor: recording %s: %v", evt.EventType, err)
	}
}

func (h *Handler) sendSchema(ctx context.Context, conn *websocket.Conn, requestID string, sess *Session, changed bool, f *types.Field) {
	h.send(ctx, conn, ServerMessage{
		Type:      "schema",
		RequestID: requestID,
		Data:      SchemaData{Schema: sess.Schema(), Changed: changed, Field: f},
	})
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, msg ServerMessage) {
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		log.Printf("editor: write error: %v", err)
	}
}

func (h *Handler) sendError(ctx context.Context, conn *websocket.Conn, requestID, code, message string) {
	h.send(ctx, conn, ServerMessage{
		Type:      "error",
		RequestID: requestID,
		Data: ErrorData{
			Code:    code,
			Message: message,
		},
	})
}
