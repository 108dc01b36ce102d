// Package fieldtree implements the editing operations on a schema's field
// tree. Every operation is pure: the input slice is never modified and a new
// slice is returned. Subtrees that an operation does not touch keep their
// original backing arrays. Addressing misses are no-ops, never errors.
package fieldtree

import (
	"github.com/matthewbaird/dtobuddy/internal/types"
)

// NewField returns a fresh unnamed string field with an id from gen.
func NewField(gen IDGenerator) types.Field {
	return types.Field{
		ID:         gen.NewID(),
		Name:       "",
		Type:       types.FieldString,
		IsExpanded: true,
	}
}

// Update merges p into the field with the given id, wherever it sits in the
// tree. If no field has that id the input is returned unchanged.
func Update(fields []types.Field, id string, p Patch) []types.Field {
	out, _ := update(fields, id, p)
	return out
}

func update(fields []types.Field, id string, p Patch) ([]types.Field, bool) {
	for i, f := range fields {
		if f.ID == id {
			out := append([]types.Field(nil), fields...)
			out[i] = p.Apply(f)
			return out, true
		}
		if f.NestedFields == nil {
			continue
		}
		if nested, ok := update(f.NestedFields, id, p); ok {
			out := append([]types.Field(nil), fields...)
			f.NestedFields = nested
			out[i] = f
			return out, true
		}
	}
	return fields, false
}

// Remove deletes the field with the given id from the sibling list addressed
// by parentPath, the ids of its ancestors from the top level down to the
// direct parent. An empty path addresses the top-level list. If the path does
// not resolve or the list has no such field, the input is returned unchanged.
func Remove(fields []types.Field, id string, parentPath ...string) []types.Field {
	out, _ := remove(fields, id, parentPath)
	return out
}

func remove(fields []types.Field, id string, path []string) ([]types.Field, bool) {
	if len(path) == 0 {
		return filter(fields, id)
	}
	for i, f := range fields {
		if f.ID != path[0] {
			continue
		}
		nested, ok := remove(f.NestedFields, id, path[1:])
		if !ok {
			return fields, false
		}
		out := append([]types.Field(nil), fields...)
		f.NestedFields = nested
		out[i] = f
		return out, true
	}
	return fields, false
}

func filter(fields []types.Field, id string) ([]types.Field, bool) {
	found := false
	for _, f := range fields {
		if f.ID == id {
			found = true
			break
		}
	}
	if !found {
		return fields, false
	}
	out := make([]types.Field, 0, len(fields))
	for _, f := range fields {
		if f.ID != id {
			out = append(out, f)
		}
	}
	return out, true
}

// Append adds f to the end of the sibling list addressed by parentPath.
// An unresolvable path leaves the tree unchanged.
func Append(fields []types.Field, f types.Field, parentPath ...string) []types.Field {
	out, _ := appendAt(fields, f, parentPath)
	return out
}

func appendAt(fields []types.Field, f types.Field, path []string) ([]types.Field, bool) {
	if len(path) == 0 {
		out := make([]types.Field, 0, len(fields)+1)
		out = append(out, fields...)
		return append(out, f), true
	}
	for i, parent := range fields {
		if parent.ID != path[0] {
			continue
		}
		nested, ok := appendAt(parent.NestedFields, f, path[1:])
		if !ok {
			return fields, false
		}
		out := append([]types.Field(nil), fields...)
		parent.NestedFields = nested
		out[i] = parent
		return out, true
	}
	return fields, false
}

// Find returns the field with the given id anywhere in the tree.
func Find(fields []types.Field, id string) (types.Field, bool) {
	for _, f := range fields {
		if f.ID == id {
			return f, true
		}
		if found, ok := Find(f.NestedFields, id); ok {
			return found, true
		}
	}
	return types.Field{}, false
}

// PathOf returns the ancestor ids of the field with the given id, from the
// top level down to its direct parent. Top-level fields have an empty path.
func PathOf(fields []types.Field, id string) ([]string, bool) {
	for _, f := range fields {
		if f.ID == id {
			return []string{}, true
		}
		if sub, ok := PathOf(f.NestedFields, id); ok {
			return append([]string{f.ID}, sub...), true
		}
	}
	return nil, false
}

// SetExpanded sets IsExpanded on every top-level field.
func SetExpanded(fields []types.Field, expanded bool) []types.Field {
	if fields == nil {
		return nil
	}
	out := make([]types.Field, len(fields))
	for i, f := range fields {
		f.IsExpanded = expanded
		out[i] = f
	}
	return out
}

// AssignIDs gives every field without an id a fresh one from gen, at every
// depth. Fields that already have an id keep it.
func AssignIDs(fields []types.Field, gen IDGenerator) []types.Field {
	if fields == nil {
		return nil
	}
	out := make([]types.Field, len(fields))
	for i, f := range fields {
		if f.ID == "" {
			f.ID = gen.NewID()
		}
		f.NestedFields = AssignIDs(f.NestedFields, gen)
		out[i] = f
	}
	return out
}

// DuplicateIDs returns ids that occur more than once in the tree, in the
// order their second occurrence is found. Empty ids are ignored.
func DuplicateIDs(fields []types.Field) []string {
	seen := map[string]int{}
	var dups []string
	var walk func([]types.Field)
	walk = func(list []types.Field) {
		for _, f := range list {
			if f.ID != "" {
				seen[f.ID]++
				if seen[f.ID] == 2 {
					dups = append(dups, f.ID)
				}
			}
			walk(f.NestedFields)
		}
	}
	walk(fields)
	return dups
}

// UpdateSchema applies Update to the schema's field tree.
func UpdateSchema(s types.Schema, id string, p Patch) types.Schema {
	s.Fields = Update(s.Fields, id, p)
	return s
}

// RemoveFromSchema applies Remove to the schema's field tree.
func RemoveFromSchema(s types.Schema, id string, parentPath ...string) types.Schema {
	s.Fields = Remove(s.Fields, id, parentPath...)
	return s
}

// AppendToSchema applies Append to the schema's field tree.
func AppendToSchema(s types.Schema, f types.Field, parentPath ...string) types.Schema {
	s.Fields = Append(s.Fields, f, parentPath...)
	return s
}
