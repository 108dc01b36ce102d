package fieldtree

import (
	"testing"
	"time"

	"github.com/matthewbaird/dtobuddy/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleTree builds:
//
//	title (string)
//	address (object)
//	  street (string)
//	  geo (object)
//	    lat (number)
//	tags (array of string)
func sampleTree() []types.Field {
	return []types.Field{
		{ID: "f1", Name: "title", Type: types.FieldString},
		{ID: "f2", Name: "address", Type: types.FieldObject, NestedFields: []types.Field{
			{ID: "f3", Name: "street", Type: types.FieldString},
			{ID: "f4", Name: "geo", Type: types.FieldObject, NestedFields: []types.Field{
				{ID: "f5", Name: "lat", Type: types.FieldNumber},
			}},
		}},
		{ID: "f6", Name: "tags", Type: types.FieldArray, ArrayType: types.FieldString},
	}
}

func TestNewField(t *testing.T) {
	gen := NewSequence("n")
	f := NewField(gen)
	assert.Equal(t, "n1", f.ID)
	assert.Equal(t, "", f.Name)
	assert.Equal(t, types.FieldString, f.Type)
	assert.False(t, f.Required)
	assert.False(t, f.Unique)
	assert.True(t, f.IsExpanded)

	g := NewField(gen)
	assert.NotEqual(t, f.ID, g.ID)
}

func TestUpdate_TopLevel(t *testing.T) {
	tree := sampleTree()
	out := Update(tree, "f1", Patch{Name: Ptr("heading"), Required: Ptr(true)})

	require.Len(t, out, 3)
	assert.Equal(t, "heading", out[0].Name)
	assert.True(t, out[0].Required)
	assert.Equal(t, types.FieldString, out[0].Type)

	// input untouched
	assert.Equal(t, "title", tree[0].Name)
	assert.False(t, tree[0].Required)
}

func TestUpdate_Nested(t *testing.T) {
	tree := sampleTree()
	out := Update(tree, "f5", Patch{Name: Ptr("latitude")})

	got, ok := Find(out, "f5")
	require.True(t, ok)
	assert.Equal(t, "latitude", got.Name)

	orig, _ := Find(tree, "f5")
	assert.Equal(t, "lat", orig.Name)
}

func TestUpdate_UnknownIDIsNoop(t *testing.T) {
	tree := sampleTree()
	out := Update(tree, "missing", Patch{Name: Ptr("x")})
	assert.Equal(t, tree, out)
	assert.Same(t, &tree[0], &out[0])
}

func TestUpdate_EmptyPatch(t *testing.T) {
	for _, id := range []string{"f1", "f2", "f5", "f6"} {
		assert.Equal(t, sampleTree(), Update(sampleTree(), id, Patch{}), id)
	}
}

func TestUpdate_UntouchedSubtreesShareStorage(t *testing.T) {
	tree := sampleTree()
	out := Update(tree, "f1", Patch{Name: Ptr("heading")})
	assert.Same(t, &tree[1].NestedFields[0], &out[1].NestedFields[0])

	out = Update(tree, "f6", Patch{Required: Ptr(true)})
	assert.Same(t, &tree[1].NestedFields[0], &out[1].NestedFields[0])
}

func TestUpdate_ObjectGetsEmptyNestedList(t *testing.T) {
	tree := sampleTree()
	out := Update(tree, "f1", Patch{Type: Ptr(types.FieldObject)})
	require.NotNil(t, out[0].NestedFields)
	assert.Empty(t, out[0].NestedFields)
}

func TestUpdate_ObjectKeepsExistingNestedList(t *testing.T) {
	tree := sampleTree()
	out := Update(tree, "f2", Patch{Type: Ptr(types.FieldObject)})
	assert.Len(t, out[1].NestedFields, 2)
}

func TestUpdate_EnumGetsOneBlankMember(t *testing.T) {
	tree := sampleTree()
	out := Update(tree, "f1", Patch{Type: Ptr(types.FieldEnum)})
	assert.Equal(t, []types.EnumValue{{Key: "", Value: ""}}, out[0].Enum)
}

func TestUpdate_ArrayOfObjectGetsEmptyNestedList(t *testing.T) {
	tree := sampleTree()
	out := Update(tree, "f1", Patch{Type: Ptr(types.FieldArray), ArrayType: Ptr(types.FieldObject)})
	require.NotNil(t, out[0].NestedFields)
	assert.True(t, out[0].HasNestedShape())

	// switching an existing array to object elements works too
	out = Update(tree, "f6", Patch{ArrayType: Ptr(types.FieldObject)})
	require.NotNil(t, out[2].NestedFields)
}

func TestUpdate_DefaultClear(t *testing.T) {
	d := types.Literal("x")
	tree := []types.Field{{ID: "a", Name: "a", Type: types.FieldString, Default: &d}}
	out := Update(tree, "a", Patch{Default: Ptr(types.Literal(""))})
	assert.Nil(t, out[0].Default)
	assert.NotNil(t, tree[0].Default)
}

func TestRemove_TopLevel(t *testing.T) {
	tree := sampleTree()
	out := Remove(tree, "f6")
	require.Len(t, out, 2)
	assert.Equal(t, "f1", out[0].ID)
	assert.Equal(t, "f2", out[1].ID)
	assert.Len(t, tree, 3)
}

func TestRemove_Nested(t *testing.T) {
	tree := sampleTree()
	out := Remove(tree, "f5", "f2", "f4")

	geo, ok := Find(out, "f4")
	require.True(t, ok)
	assert.Empty(t, geo.NestedFields)

	orig, _ := Find(tree, "f4")
	assert.Len(t, orig.NestedFields, 1)
}

func TestRemove_WrongPathIsNoop(t *testing.T) {
	tree := sampleTree()
	assert.Equal(t, tree, Remove(tree, "f5", "f2"))
	assert.Equal(t, tree, Remove(tree, "f5", "nope", "f4"))
	assert.Equal(t, tree, Remove(tree, "f5"))
	assert.Equal(t, tree, Remove(tree, "missing"))
}

func TestAppendThenRemoveRoundTrip(t *testing.T) {
	tree := sampleTree()
	f := NewField(NewSequence("new"))

	out := Remove(Append(tree, f), f.ID)
	assert.Equal(t, tree, out)

	out = Remove(Append(tree, f, "f2", "f4"), f.ID, "f2", "f4")
	assert.Equal(t, tree, out)
}

func TestAppend_UnknownParentIsNoop(t *testing.T) {
	tree := sampleTree()
	out := Append(tree, types.Field{ID: "x"}, "nope")
	assert.Equal(t, tree, out)
}

func TestAppend_DoesNotAliasInput(t *testing.T) {
	tree := make([]types.Field, 1, 4)
	tree[0] = types.Field{ID: "a"}
	out1 := Append(tree, types.Field{ID: "b"})
	out2 := Append(tree, types.Field{ID: "c"})
	assert.Equal(t, "b", out1[1].ID)
	assert.Equal(t, "c", out2[1].ID)
}

func TestPathOf(t *testing.T) {
	tree := sampleTree()

	path, ok := PathOf(tree, "f5")
	require.True(t, ok)
	assert.Equal(t, []string{"f2", "f4"}, path)

	path, ok = PathOf(tree, "f1")
	require.True(t, ok)
	assert.Empty(t, path)

	_, ok = PathOf(tree, "missing")
	assert.False(t, ok)
}

func TestSetExpanded_TopLevelOnly(t *testing.T) {
	tree := sampleTree()
	tree[1].NestedFields[0].IsExpanded = false

	out := SetExpanded(tree, true)
	for _, f := range out {
		assert.True(t, f.IsExpanded, f.Name)
	}
	assert.False(t, out[1].NestedFields[0].IsExpanded)
	assert.False(t, tree[0].IsExpanded)

	out = SetExpanded(out, false)
	for _, f := range out {
		assert.False(t, f.IsExpanded, f.Name)
	}
}

func TestAssignIDs(t *testing.T) {
	tree := []types.Field{
		{Name: "a"},
		{ID: "keep", Name: "b", Type: types.FieldObject, NestedFields: []types.Field{
			{Name: "c"},
		}},
	}
	out := AssignIDs(tree, NewSequence("id"))
	assert.Equal(t, "id1", out[0].ID)
	assert.Equal(t, "keep", out[1].ID)
	assert.Equal(t, "id2", out[1].NestedFields[0].ID)
	assert.Empty(t, tree[0].ID)
	assert.Empty(t, DuplicateIDs(out))
}

func TestDuplicateIDs(t *testing.T) {
	tree := sampleTree()
	tree = append(tree, types.Field{ID: "f3", Name: "dup"})
	assert.Equal(t, []string{"f3"}, DuplicateIDs(tree))
}

func TestSchemaWrappers(t *testing.T) {
	s := types.NewSchema("User")
	s.Fields = sampleTree()

	s2 := AppendToSchema(s, types.Field{ID: "z", Name: "zip"}, "f2")
	addr, _ := Find(s2.Fields, "f2")
	assert.Len(t, addr.NestedFields, 3)
	assert.Equal(t, "User", s2.Name)

	s3 := UpdateSchema(s2, "z", Patch{Name: Ptr("postcode")})
	got, _ := Find(s3.Fields, "z")
	assert.Equal(t, "postcode", got.Name)

	s4 := RemoveFromSchema(s3, "z", "f2")
	assert.Equal(t, s.Fields, s4.Fields)
}

func TestULIDGenerator_Monotonic(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	gen := NewULIDGenerator(func() time.Time { return fixed }, nil)

	prev := gen.NewID()
	assert.Len(t, prev, 26)
	for i := 0; i < 100; i++ {
		id := gen.NewID()
		assert.Greater(t, id, prev)
		prev = id
	}
}
