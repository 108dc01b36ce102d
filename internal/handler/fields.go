package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/matthewbaird/dtobuddy/internal/fieldtree"
	"github.com/matthewbaird/dtobuddy/internal/types"
)

// FieldHandler applies field-tree edits to a schema carried in the request.
// It keeps no state; misses return the schema unchanged.
type FieldHandler struct {
	gen fieldtree.IDGenerator
}

func NewFieldHandler(gen fieldtree.IDGenerator) *FieldHandler {
	return &FieldHandler{gen: gen}
}

type addFieldRequest struct {
	Schema     *types.Schema `json:"schema,omitempty"`
	ParentPath []string      `json:"parentPath,omitempty"`
}

type updateFieldRequest struct {
	Schema types.Schema    `json:"schema"`
	ID     string          `json:"id"`
	Patch  fieldtree.Patch `json:"patch"`
}

type removeFieldRequest struct {
	Schema     types.Schema `json:"schema"`
	ID         string       `json:"id"`
	ParentPath []string     `json:"parentPath,omitempty"`
}

// NewField returns a new default field. When the body carries a schema, the
// field is appended at parentPath and the updated schema is returned instead.
func (h *FieldHandler) NewField(w http.ResponseWriter, r *http.Request) {
	var req addFieldRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		badJSON(w, err)
		return
	}
	f := fieldtree.NewField(h.gen)
	if req.Schema == nil {
		writeJSON(w, http.StatusCreated, f)
		return
	}
	writeJSON(w, http.StatusOK, fieldtree.AppendToSchema(req.Schema.Normalize(), f, req.ParentPath...))
}

// UpdateField applies a patch to the identified field.
func (h *FieldHandler) UpdateField(w http.ResponseWriter, r *http.Request) {
	req := updateFieldRequest{Schema: types.NewSchema("")}
	if err := decodeJSON(w, r, &req); err != nil {
		badJSON(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fieldtree.UpdateSchema(req.Schema.Normalize(), req.ID, req.Patch))
}

// RemoveField removes the identified field from the list at parentPath.
func (h *FieldHandler) RemoveField(w http.ResponseWriter, r *http.Request) {
	req := removeFieldRequest{Schema: types.NewSchema("")}
	if err := decodeJSON(w, r, &req); err != nil {
		badJSON(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fieldtree.RemoveFromSchema(req.Schema.Normalize(), req.ID, req.ParentPath...))
}
