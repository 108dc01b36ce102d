package assist

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/dtobuddy/internal/fieldtree"
	"github.com/matthewbaird/dtobuddy/internal/types"
)

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"fenced", "Here you go:\n```json\n{\"a\": {\"b\": 2}}\n```\nEnjoy", `{"a": {"b": 2}}`},
		{"braces in strings", `x {"s": "}{", "t": "\"}"} y {"z":1}`, `{"s": "}{", "t": "\"}"}`},
		{"first of two", `{"a":1} and {"b":2}`, `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractJSON(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := ExtractJSON("no json here")
	assert.ErrorIs(t, err, ErrNoJSON)
	_, err = ExtractJSON(`{"unterminated": true`)
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestMergeGenerated(t *testing.T) {
	raw := `{
		"name": "Book",
		"fields": [
			{"id": "unique_id", "name": "title", "type": "string", "required": true},
			{"id": "unique_id", "name": "author", "type": "object", "nestedFields": [
				{"name": "first", "type": "string"}
			]},
			{"name": "pages", "type": "number", "validation": [{"type": "min", "value": 1}]}
		],
		"options": {"timestamps": false}
	}`
	s, err := MergeGenerated([]byte(raw), fieldtree.NewSequence("g"))
	require.NoError(t, err)

	assert.Equal(t, "Book", s.Name)
	require.Len(t, s.Fields, 3)
	assert.Equal(t, "unique_id", s.Fields[0].ID)
	assert.Equal(t, "g1", s.Fields[1].ID)
	assert.Equal(t, "g2", s.Fields[1].NestedFields[0].ID)
	assert.Equal(t, "g3", s.Fields[2].ID)
	assert.Empty(t, fieldtree.DuplicateIDs(s.Fields))

	assert.True(t, s.Fields[0].IsExpanded)
	assert.True(t, s.Fields[1].NestedFields[0].IsExpanded)
	assert.Equal(t, types.Literal("1"), s.Fields[2].Validation[0].Value)
	assert.Nil(t, s.Fields[0].NestedFields)

	assert.False(t, s.Options.Timestamps)
	assert.NotNil(t, s.Hooks.Pre)
	assert.NotNil(t, s.Virtuals)
}

func currentSchema() types.Schema {
	s := types.NewSchema("Book")
	s.Options.Collection = "books"
	s.Methods = []string{"summary"}
	s.Fields = []types.Field{
		{ID: "t", Name: "title", Type: types.FieldString, Required: true, Description: "Book title", IsExpanded: false},
		{ID: "a", Name: "author", Type: types.FieldObject, IsExpanded: true, NestedFields: []types.Field{
			{ID: "af", Name: "first", Type: types.FieldString},
		}},
	}
	return s
}

func TestMergeImproved(t *testing.T) {
	raw := `{
		"name": "Book",
		"fields": [
			{"id": "zzz", "name": "title", "type": "string", "required": true, "unique": true},
			{"name": "author", "type": "object"},
			{"name": "isbn", "type": "string", "required": true}
		],
		"virtuals": ["label"]
	}`
	cur := currentSchema()
	s, err := MergeImproved([]byte(raw), cur, fieldtree.NewSequence("n"))
	require.NoError(t, err)

	require.Len(t, s.Fields, 3)
	title := s.Fields[0]
	assert.Equal(t, "t", title.ID)
	assert.False(t, title.IsExpanded)
	assert.True(t, title.Unique)
	// improve takes incoming attributes only
	assert.Empty(t, title.Description)

	author := s.Fields[1]
	assert.Equal(t, "a", author.ID)
	require.Len(t, author.NestedFields, 1)
	assert.Equal(t, "af", author.NestedFields[0].ID)

	isbn := s.Fields[2]
	assert.Equal(t, "n1", isbn.ID)
	assert.True(t, isbn.IsExpanded)

	// schema-level attributes overlay the current schema
	assert.Equal(t, []string{"label"}, s.Virtuals)
	assert.Equal(t, []string{"summary"}, s.Methods)
	assert.Equal(t, "books", s.Options.Collection)

	// current untouched
	assert.Equal(t, currentSchema(), cur)
}

func TestMergeImproved_NestedReplacement(t *testing.T) {
	raw := `{"fields": [{"name": "author", "type": "object", "nestedFields": [
		{"name": "first", "type": "string", "required": true},
		{"name": "last", "type": "string"}
	]}]}`
	s, err := MergeImproved([]byte(raw), currentSchema(), fieldtree.NewSequence("n"))
	require.NoError(t, err)
	require.Len(t, s.Fields, 1)
	nested := s.Fields[0].NestedFields
	require.Len(t, nested, 2)
	assert.Equal(t, "af", nested[0].ID)
	assert.True(t, nested[0].Required)
	assert.Equal(t, "n1", nested[1].ID)
	assert.Equal(t, "Book", s.Name)
}

func TestMergeImproved_DuplicateNamesGetDistinctIDs(t *testing.T) {
	raw := `{"fields": [{"name": "title", "type": "string"}, {"name": "title", "type": "number"}]}`
	s, err := MergeImproved([]byte(raw), currentSchema(), fieldtree.NewSequence("n"))
	require.NoError(t, err)
	assert.Equal(t, "t", s.Fields[0].ID)
	assert.Equal(t, "n1", s.Fields[1].ID)
}

func TestMergeValidations(t *testing.T) {
	raw := `{
		"fields": [
			{"name": "title", "validation": [{"type": "minLength", "value": 3}, {"type": "maxLength", "value": 200}]},
			{"name": "author", "nestedFields": [
				{"name": "first", "validation": [{"type": "match", "value": "/^[A-Z]/"}]}
			]}
		]
	}`
	s, err := MergeValidations([]byte(raw), currentSchema(), fieldtree.NewSequence("n"))
	require.NoError(t, err)

	title := s.Fields[0]
	assert.Equal(t, "t", title.ID)
	assert.Equal(t, types.FieldString, title.Type)
	assert.True(t, title.Required)
	assert.Equal(t, "Book title", title.Description)
	require.Len(t, title.Validation, 2)
	assert.Equal(t, types.RuleMaxLength, title.Validation[1].Type)

	first := s.Fields[1].NestedFields[0]
	assert.Equal(t, "af", first.ID)
	assert.Equal(t, types.FieldString, first.Type)
	require.Len(t, first.Validation, 1)
	assert.Equal(t, types.Literal("/^[A-Z]/"), first.Validation[0].Value)

	assert.Equal(t, "books", s.Options.Collection)
}

func TestMerge_BadJSON(t *testing.T) {
	_, err := MergeGenerated([]byte(`{"fields": 3}`), fieldtree.NewSequence("n"))
	assert.Error(t, err)
	_, err = MergeImproved([]byte(`[1]`), currentSchema(), fieldtree.NewSequence("n"))
	assert.Error(t, err)
}

func TestMergeMatched_NonStringName(t *testing.T) {
	cur := currentSchema()
	cur.Fields = append(cur.Fields, types.Field{ID: "blank", Type: types.FieldNumber})

	_, err := MergeImproved([]byte(`{"fields": [{"name": 7, "type": "string"}]}`), cur, fieldtree.NewSequence("n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding field name")

	_, err = MergeValidations([]byte(`{"fields": [{"name": {"x": 1}}]}`), cur, fieldtree.NewSequence("n"))
	assert.ErrorContains(t, err, "decoding field name")
}

func fixedReply(reply string) (Completer, *string) {
	var seen string
	return CompleterFunc(func(_ context.Context, prompt string) (string, error) {
		seen = prompt
		return reply, nil
	}), &seen
}

func TestAssistant_Generate(t *testing.T) {
	c, seen := fixedReply("Sure!\n```json\n{\"name\": \"Pet\", \"fields\": [{\"name\": \"age\", \"type\": \"number\"}]}\n```")
	a := New(c, fieldtree.NewSequence("p"))

	s, err := a.Generate(context.Background(), "a pet store animal")
	require.NoError(t, err)
	assert.Equal(t, "Pet", s.Name)
	assert.Equal(t, "p1", s.Fields[0].ID)
	assert.True(t, strings.HasSuffix(*seen, "Generate a DTO schema for: a pet store animal"))
}

func TestAssistant_Improve_SendsSchema(t *testing.T) {
	c, seen := fixedReply(`{"fields": []}`)
	a := New(c, fieldtree.NewSequence("p"))

	s, err := a.Improve(context.Background(), currentSchema())
	require.NoError(t, err)
	assert.Empty(t, s.Fields)
	assert.Contains(t, *seen, "Improve this schema:\n{")
	assert.Contains(t, *seen, `"name": "Book"`)
}

func TestAssistant_Failures(t *testing.T) {
	c, _ := fixedReply("I cannot help with that.")
	a := New(c, fieldtree.NewSequence("p"))

	_, err := a.Generate(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoJSON)
	assert.True(t, strings.HasPrefix(err.Error(), "failed to generate schema"))

	_, err = a.Improve(context.Background(), currentSchema())
	assert.True(t, strings.HasPrefix(err.Error(), "failed to improve schema"))

	_, err = a.AddValidations(context.Background(), currentSchema())
	assert.True(t, strings.HasPrefix(err.Error(), "failed to generate validations"))

	_, err = a.Generate(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyPrompt)

	boom := errors.New("boom")
	a = New(CompleterFunc(func(context.Context, string) (string, error) { return "", boom }), fieldtree.NewSequence("p"))
	_, err = a.Run(context.Background(), ModeValidations, "", currentSchema())
	assert.ErrorIs(t, err, boom)

	_, err = a.Run(context.Background(), Mode("rewrite"), "", currentSchema())
	assert.Error(t, err)
}

func TestGeminiClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))

		var req struct {
			Contents []struct {
				Role  string `json:"role"`
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &req))
		if assert.Len(t, req.Contents, 1) && assert.Len(t, req.Contents[0].Parts, 1) {
			assert.Equal(t, "user", req.Contents[0].Role)
			assert.Equal(t, "hello", req.Contents[0].Parts[0].Text)
		}

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates": [{"content": {"role": "model", "parts": [{"text": "{\"name\":"}, {"text": " \"X\"}"}]}}]}`)
	}))
	defer srv.Close()

	c := NewGeminiClient(GeminiConfig{Endpoint: srv.URL, Model: "test-model", APIKey: "secret"})
	got, err := c.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, `{"name": "X"}`, got)
}

func TestGeminiClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"error": {"code": 403, "message": "API key not valid", "status": "PERMISSION_DENIED"}}`)
	}))
	defer srv.Close()

	c := NewGeminiClient(GeminiConfig{Endpoint: srv.URL, APIKey: "bad"})
	_, err := c.Complete(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not valid")
	assert.True(t, strings.HasPrefix(err.Error(), DefaultModel))

	_, err = NewGeminiClient(GeminiConfig{Endpoint: srv.URL}).Complete(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestGeminiClient_NoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates": []}`)
	}))
	defer srv.Close()

	_, err := NewGeminiClient(GeminiConfig{Endpoint: srv.URL, APIKey: "k"}).Complete(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidates")
}
