package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/dtobuddy/internal/activity"
	"github.com/matthewbaird/dtobuddy/internal/assist"
	"github.com/matthewbaird/dtobuddy/internal/event"
	"github.com/matthewbaird/dtobuddy/internal/types"
)

type fakeAssistant struct {
	reply types.Schema
	err   error
}

func (f fakeAssistant) Run(_ context.Context, _ assist.Mode, _ string, _ types.Schema) (types.Schema, error) {
	return f.reply, f.err
}

type testServer struct {
	srv      *httptest.Server
	sessions *Manager
	history  *activity.MemoryStore
}

func newTestServer(t *testing.T, a Assistant) *testServer {
	t.Helper()
	history := activity.NewMemoryStore(0)
	sessions := newTestManager()
	h := NewHandler(sessions, a, event.NewActivityRecorder(history))

	r := chi.NewRouter()
	RegisterRoutes(r, h, history)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, sessions: sessions, history: history}
}

func (ts *testServer) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/v1/editor/ws" + query
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

// reply is a ServerMessage whose data is left raw for the test to decode.
type reply struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}

func roundTrip(t *testing.T, conn *websocket.Conn, msgType, id string, data any) reply {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msg := map[string]any{"type": msgType, "id": id}
	if data != nil {
		msg["data"] = data
	}
	require.NoError(t, wsjson.Write(ctx, conn, msg))
	return read(t, conn)
}

func read(t *testing.T, conn *websocket.Conn) reply {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var r reply
	require.NoError(t, wsjson.Read(ctx, conn, &r))
	return r
}

func decodeSchema(t *testing.T, r reply) SchemaData {
	t.Helper()
	require.Equal(t, "schema", r.Type, string(r.Data))
	var data SchemaData
	require.NoError(t, json.Unmarshal(r.Data, &data))
	return data
}

func TestWebSocket_EditAndPreview(t *testing.T) {
	ts := newTestServer(t, nil)
	conn := ts.dial(t, "")

	hello := read(t, conn)
	require.Equal(t, "session", hello.Type)
	var sd SessionData
	require.NoError(t, json.Unmarshal(hello.Data, &sd))
	require.NotEmpty(t, sd.SessionID)

	set := decodeSchema(t, roundTrip(t, conn, "set_schema", "1", map[string]any{"name": "User"}))
	assert.Equal(t, "User", set.Schema.Name)
	assert.True(t, set.Schema.Options.Timestamps)

	added := decodeSchema(t, roundTrip(t, conn, "add_field", "2", nil))
	require.True(t, added.Changed)
	require.NotNil(t, added.Field)
	id := added.Field.ID

	updated := decodeSchema(t, roundTrip(t, conn, "update_field", "3", map[string]any{
		"id":    id,
		"patch": map[string]any{"name": "email", "required": true},
	}))
	assert.True(t, updated.Changed)
	assert.Equal(t, "email", updated.Schema.Fields[0].Name)

	miss := decodeSchema(t, roundTrip(t, conn, "update_field", "4", map[string]any{"id": "nope", "patch": map[string]any{}}))
	assert.False(t, miss.Changed)

	preview := roundTrip(t, conn, "generate", "5", nil)
	require.Equal(t, "preview", preview.Type)
	assert.Equal(t, "5", preview.RequestID)
	var out PreviewData
	require.NoError(t, json.Unmarshal(preview.Data, &out))
	assert.Contains(t, out.DTO, "  email: string;")
	assert.Equal(t, "user.model.ts", out.ModelFile)

	removed := decodeSchema(t, roundTrip(t, conn, "remove_field", "6", map[string]any{"id": id}))
	assert.True(t, removed.Changed)
	assert.Empty(t, removed.Schema.Fields)

	pong := roundTrip(t, conn, "ping", "7", nil)
	assert.Equal(t, "pong", pong.Type)

	unknown := roundTrip(t, conn, "rename", "8", nil)
	assert.Equal(t, "error", unknown.Type)

	bad := roundTrip(t, conn, "update_field", "9", "not an object")
	require.Equal(t, "error", bad.Type)
	var ed ErrorData
	require.NoError(t, json.Unmarshal(bad.Data, &ed))
	assert.Equal(t, "invalid_data", ed.Code)

	entries, total, err := ts.history.QueryBySubject(context.Background(), "session", sd.SessionID, activity.QueryOptions{Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	seen := make(map[string]bool)
	for _, e := range entries {
		seen[e.EventType] = true
	}
	for _, want := range []string{"session_opened", "schema_replaced", "field_added", "field_updated", "artifacts_generated", "field_removed"} {
		assert.True(t, seen[want], want)
	}
}

func TestWebSocket_Assist(t *testing.T) {
	reply := types.NewSchema("Pet")
	reply.Fields = []types.Field{{ID: "p1", Name: "age", Type: types.FieldNumber}}
	ts := newTestServer(t, fakeAssistant{reply: reply})
	conn := ts.dial(t, "")
	read(t, conn)

	got := decodeSchema(t, roundTrip(t, conn, "assist", "1", map[string]any{"mode": "generate", "prompt": "a pet"}))
	assert.Equal(t, "Pet", got.Schema.Name)
	require.Len(t, got.Schema.Fields, 1)
	assert.Equal(t, "age", got.Schema.Fields[0].Name)
}

func TestWebSocket_AssistFailures(t *testing.T) {
	ts := newTestServer(t, nil)
	conn := ts.dial(t, "")
	read(t, conn)
	r := roundTrip(t, conn, "assist", "1", map[string]any{"mode": "improve"})
	require.Equal(t, "error", r.Type)
	assert.Contains(t, string(r.Data), "assist_unavailable")

	ts = newTestServer(t, fakeAssistant{err: errors.New("failed to improve schema: boom")})
	conn = ts.dial(t, "")
	read(t, conn)
	r = roundTrip(t, conn, "assist", "1", map[string]any{"mode": "improve"})
	require.Equal(t, "error", r.Type)
	var ed ErrorData
	require.NoError(t, json.Unmarshal(r.Data, &ed))
	assert.Equal(t, "assist_failed", ed.Code)
	assert.Equal(t, "failed to improve schema: boom", ed.Message)
}

func TestREST_SessionLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)

	body := bytes.NewBufferString(`{"name": "Book", "fields": [{"name": "title", "type": "string"}]}`)
	resp, err := http.Post(ts.srv.URL+"/v1/editor/session", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var info Info
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, "Book", info.Schema.Name)
	require.Len(t, info.Schema.Fields, 1)
	assert.NotEmpty(t, info.Schema.Fields[0].ID)

	// resume it over WebSocket
	conn := ts.dial(t, "?session="+info.ID)
	hello := read(t, conn)
	var sd SessionData
	require.NoError(t, json.Unmarshal(hello.Data, &sd))
	assert.Equal(t, info.ID, sd.SessionID)
	assert.Equal(t, "Book", sd.Schema.Name)
	conn.Close(websocket.StatusNormalClosure, "")

	resp2, err := http.Get(ts.srv.URL + "/v1/editor/session/" + info.ID + "/events")
	require.NoError(t, err)
	defer resp2.Body.Close()
	var events struct {
		Entries []activity.Entry `json:"entries"`
		Total   int              `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&events))
	assert.Equal(t, 1, events.Total)
	assert.Equal(t, "session_opened", events.Entries[0].EventType)

	req, _ := http.NewRequest(http.MethodDelete, ts.srv.URL+"/v1/editor/session/"+info.ID, nil)
	resp3, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp3.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp3.StatusCode)

	resp4, err := http.Get(ts.srv.URL + "/v1/editor/session/" + info.ID)
	require.NoError(t, err)
	resp4.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp4.StatusCode)
}

func TestREST_EmptyBodyAndBadBody(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Post(ts.srv.URL+"/v1/editor/session", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Post(ts.srv.URL+"/v1/editor/session", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebSocket_UnknownSession(t *testing.T) {
	ts := newTestServer(t, nil)
	conn := ts.dial(t, "?session=missing")
	r := read(t, conn)
	assert.Equal(t, "error", r.Type)
	assert.Contains(t, string(r.Data), "session_not_found")
}
