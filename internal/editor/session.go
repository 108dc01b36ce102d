// Package editor holds live schema-editing sessions and serves them over
// WebSocket. A session owns one schema; every edit replaces it with a new
// tree built by the fieldtree operations.
package editor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/dtobuddy/internal/codegen"
	"github.com/matthewbaird/dtobuddy/internal/fieldtree"
	"github.com/matthewbaird/dtobuddy/internal/types"
)

// Session holds per-editor state.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu           sync.Mutex
	lastActiveAt time.Time
	schema       types.Schema
	gen          fieldtree.IDGenerator
}

// Info is the JSON view of a session.
type Info struct {
	ID           string       `json:"id"`
	CreatedAt    time.Time    `json:"created_at"`
	LastActiveAt time.Time    `json:"last_active_at"`
	Schema       types.Schema `json:"schema"`
}

func newSession(s types.Schema, gen fieldtree.IDGenerator) *Session {
	now := time.Now()
	return &Session{
		ID:           uuid.New().String(),
		CreatedAt:    now,
		lastActiveAt: now,
		schema:       s,
		gen:          gen,
	}
}

// Info returns a snapshot of the session.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{ID: s.ID, CreatedAt: s.CreatedAt, LastActiveAt: s.lastActiveAt, Schema: s.schema.Clone()}
}

// Schema returns a copy of the current schema.
func (s *Session) Schema() types.Schema {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schema.Clone()
}

// SetSchema replaces the schema. Fields without an id get one; duplicate
// ids are rejected.
func (s *Session) SetSchema(next types.Schema) (types.Schema, error) {
	next = next.Normalize()
	next.Fields = fieldtree.AssignIDs(next.Fields, s.gen)
	if dups := fieldtree.DuplicateIDs(next.Fields); len(dups) > 0 {
		return types.Schema{}, fmt.Errorf("duplicate field ids: %s", strings.Join(dups, ", "))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schema = next
	s.touch()
	return next.Clone(), nil
}

// AddField appends a new default field to the list addressed by parentPath,
// the ids from the top level down to the parent. It reports false, and
// changes nothing, when the path does not resolve.
func (s *Session) AddField(parentPath []string) (types.Field, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	f := fieldtree.NewField(s.gen)
	next := fieldtree.AppendToSchema(s.schema, f, parentPath...)
	if _, ok := fieldtree.Find(next.Fields, f.ID); !ok {
		return types.Field{}, false
	}
	s.schema = next
	return f, true
}

// UpdateField applies p to the field with the given id and returns the
// updated field. Unknown ids change nothing.
func (s *Session) UpdateField(id string, p fieldtree.Patch) (types.Field, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if _, ok := fieldtree.Find(s.schema.Fields, id); !ok {
		return types.Field{}, false
	}
	s.schema = fieldtree.UpdateSchema(s.schema, id, p)
	f, _ := fieldtree.Find(s.schema.Fields, id)
	return f, true
}

// RemoveField removes the field with the given id from the sibling list
// addressed by parentPath and returns what was removed.
func (s *Session) RemoveField(id string, parentPath []string) (types.Field, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	f, ok := fieldtree.Find(s.schema.Fields, id)
	if !ok {
		return types.Field{}, false
	}
	next := fieldtree.RemoveFromSchema(s.schema, id, parentPath...)
	if _, still := fieldtree.Find(next.Fields, id); still {
		return types.Field{}, false
	}
	s.schema = next
	return f, true
}

// ExpandAll sets the expansion flag of every top-level field.
func (s *Session) ExpandAll(expanded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.schema.Fields = fieldtree.SetExpanded(s.schema.Fields, expanded)
}

// Preview renders both artifacts for the current schema.
func (s *Session) Preview() codegen.Artifacts {
	return codegen.Generate(s.Schema())
}

// Touch updates the last activity timestamp.
func (s *Session) Touch() {
	s.mu.Lock()
	s.touch()
	s.mu.Unlock()
}

func (s *Session) touch() { s.lastActiveAt = time.Now() }

func (s *Session) expired(maxAge, idleTimeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.CreatedAt) > maxAge || time.Since(s.lastActiveAt) > idleTimeout
}

// ── Manager ─────────────────────────────────────────────────────────────────

// Manager handles session creation, lookup, and cleanup.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	gen         fieldtree.IDGenerator
	maxAge      time.Duration
	idleTimeout time.Duration
}

// NewManager creates a session manager with the given timeouts. Field ids
// in every session come from gen.
func NewManager(gen fieldtree.IDGenerator, maxAge, idleTimeout time.Duration) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		gen:         gen,
		maxAge:      maxAge,
		idleTimeout: idleTimeout,
	}
}

// Create starts a session editing s.
func (m *Manager) Create(s types.Schema) (*Session, error) {
	sess := newSession(types.NewSchema(""), m.gen)
	if _, err := sess.SetSchema(s); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	return sess, nil
}

// Get retrieves a session by ID. Returns nil if not found or expired.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	if s.expired(m.maxAge, m.idleTimeout) {
		m.Remove(id)
		return nil
	}
	return s
}

// Remove deletes a session.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Cleanup removes all expired and idle sessions.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.expired(m.maxAge, m.idleTimeout) {
			delete(m.sessions, id)
		}
	}
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (m *Manager) RunCleanup(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Cleanup()
		}
	}
}
