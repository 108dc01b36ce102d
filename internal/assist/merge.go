package assist

import (
	"encoding/json"
	"fmt"

	"github.com/matthewbaird/dtobuddy/internal/fieldtree"
	"github.com/matthewbaird/dtobuddy/internal/types"
)

// The merges below never decode into values that already hold data:
// encoding/json reuses existing slice elements, which would leak stale
// attributes into the result. Overlays are done on raw JSON objects instead.

// MergeGenerated decodes a freshly generated schema. Every field gets an id,
// keeping the proposed one only when it is non-empty and not yet used, and
// starts expanded.
func MergeGenerated(raw []byte, gen fieldtree.IDGenerator) (types.Schema, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return types.Schema{}, fmt.Errorf("decoding schema: %w", err)
	}
	s := types.NewSchema("")
	if err := decodeWithout(top, &s, "fields"); err != nil {
		return types.Schema{}, err
	}
	fields, err := rawList(top["fields"])
	if err != nil {
		return types.Schema{}, err
	}
	ids := idSet{gen: gen, used: map[string]bool{}}
	s.Fields, err = backfill(fields, &ids)
	if err != nil {
		return types.Schema{}, err
	}
	return s.Normalize(), nil
}

func backfill(raw []json.RawMessage, ids *idSet) ([]types.Field, error) {
	out := make([]types.Field, 0, len(raw))
	for _, r := range raw {
		var f types.Field
		nested, err := decodeField(r, &f)
		if err != nil {
			return nil, err
		}
		f.ID = ids.claim(f.ID)
		f.IsExpanded = true
		if nested != nil {
			if f.NestedFields, err = backfill(nested, ids); err != nil {
				return nil, err
			}
		}
		out = append(out, f)
	}
	return out, nil
}

// MergeImproved decodes an improved schema. Schema-level attributes overlay
// current. Incoming fields are matched to existing siblings by name: a match
// lends its id, expansion state and, when the incoming field has none, its
// nested fields. Unmatched fields get a fresh id and start expanded.
func MergeImproved(raw []byte, current types.Schema, gen fieldtree.IDGenerator) (types.Schema, error) {
	return mergeMatched(raw, current, gen, false)
}

// MergeValidations decodes a validation-enriched schema. It behaves like
// MergeImproved except that each incoming field is overlaid onto its
// matched existing field, so attributes the response omits are kept.
func MergeValidations(raw []byte, current types.Schema, gen fieldtree.IDGenerator) (types.Schema, error) {
	return mergeMatched(raw, current, gen, true)
}

func mergeMatched(raw []byte, current types.Schema, gen fieldtree.IDGenerator, overlay bool) (types.Schema, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return types.Schema{}, fmt.Errorf("decoding schema: %w", err)
	}

	base, err := objectOf(current.Normalize())
	if err != nil {
		return types.Schema{}, err
	}
	for k, v := range top {
		base[k] = v
	}
	s := types.NewSchema("")
	if err := decodeWithout(base, &s, "fields"); err != nil {
		return types.Schema{}, err
	}

	fields, err := rawList(top["fields"])
	if err != nil {
		return types.Schema{}, err
	}
	ids := idSet{gen: gen, used: map[string]bool{}}
	s.Fields, err = preserve(fields, current.Fields, &ids, overlay)
	if err != nil {
		return types.Schema{}, err
	}
	return s.Normalize(), nil
}

func preserve(raw []json.RawMessage, existing []types.Field, ids *idSet, overlay bool) ([]types.Field, error) {
	out := make([]types.Field, 0, len(raw))
	for _, r := range raw {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(r, &obj); err != nil {
			return nil, fmt.Errorf("decoding field: %w", err)
		}
		var name string
		if n, ok := obj["name"]; ok {
			if err := json.Unmarshal(n, &name); err != nil {
				return nil, fmt.Errorf("decoding field name: %w", err)
			}
		}
		match, found := byName(existing, name)

		var f types.Field
		if overlay && found {
			merged, err := objectOf(match)
			if err != nil {
				return nil, err
			}
			for k, v := range obj {
				merged[k] = v
			}
			obj = merged
		}
		if err := decodeWithout(obj, &f, "nestedFields"); err != nil {
			return nil, err
		}

		if found {
			f.ID = ids.claim(match.ID)
			f.IsExpanded = match.IsExpanded
		} else {
			f.ID = ids.claim("")
			f.IsExpanded = true
		}

		nested, err := rawList(obj["nestedFields"])
		if err != nil {
			return nil, err
		}
		switch {
		case nested != nil:
			if f.NestedFields, err = preserve(nested, match.NestedFields, ids, overlay); err != nil {
				return nil, err
			}
		case found:
			f.NestedFields = types.CloneFields(match.NestedFields)
			ids.reserve(f.NestedFields)
		}
		out = append(out, f)
	}
	return out, nil
}

func byName(fields []types.Field, name string) (types.Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return types.Field{}, false
}

// idSet hands out ids that are unique across one merged tree.
type idSet struct {
	gen  fieldtree.IDGenerator
	used map[string]bool
}

// claim returns want if it is non-empty and unused, otherwise a fresh id.
func (s *idSet) claim(want string) string {
	id := want
	for id == "" || s.used[id] {
		id = s.gen.NewID()
	}
	s.used[id] = true
	return id
}

func (s *idSet) reserve(fields []types.Field) {
	for i := range fields {
		fields[i].ID = s.claim(fields[i].ID)
		s.reserve(fields[i].NestedFields)
	}
}

// decodeField decodes r into f and returns its raw nested field list.
func decodeField(r json.RawMessage, f *types.Field) ([]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(r, &obj); err != nil {
		return nil, fmt.Errorf("decoding field: %w", err)
	}
	if err := decodeWithout(obj, f, "nestedFields"); err != nil {
		return nil, err
	}
	return rawList(obj["nestedFields"])
}

func rawList(r json.RawMessage) ([]json.RawMessage, error) {
	if len(r) == 0 || string(r) == "null" {
		return nil, nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(r, &list); err != nil {
		return nil, fmt.Errorf("decoding field list: %w", err)
	}
	if list == nil {
		list = []json.RawMessage{}
	}
	return list, nil
}

func objectOf(v any) (map[string]json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding: %w", err)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("decoding: %w", err)
	}
	return obj, nil
}

func decodeWithout(obj map[string]json.RawMessage, dst any, skip string) error {
	trimmed := make(map[string]json.RawMessage, len(obj))
	for k, v := range obj {
		if k != skip {
			trimmed[k] = v
		}
	}
	data, err := json.Marshal(trimmed)
	if err != nil {
		return fmt.Errorf("encoding: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decoding: %w", err)
	}
	return nil
}
