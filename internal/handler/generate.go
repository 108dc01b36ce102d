package handler

import (
	"net/http"

	"github.com/matthewbaird/dtobuddy/internal/codegen"
	"github.com/matthewbaird/dtobuddy/internal/event"
	"github.com/matthewbaird/dtobuddy/internal/types"
)

// GenerateHandler renders artifacts for a posted schema.
type GenerateHandler struct{}

func NewGenerateHandler() *GenerateHandler { return &GenerateHandler{} }

// Generate returns both artifacts and their file names.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	s, ok := decodeSchema(w, r)
	if !ok {
		return
	}
	out := codegen.Generate(s)
	recordGenerated(r, s, out)
	writeJSON(w, http.StatusOK, out)
}

// GenerateDTO returns the type-definition text.
func (h *GenerateHandler) GenerateDTO(w http.ResponseWriter, r *http.Request) {
	s, ok := decodeSchema(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Disposition", `inline; filename="`+codegen.DTOFileName(s.Name)+`"`)
	writeText(w, http.StatusOK, codegen.GenerateTypeDefinition(s))
}

// GenerateModel returns the schema-declaration text.
func (h *GenerateHandler) GenerateModel(w http.ResponseWriter, r *http.Request) {
	s, ok := decodeSchema(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Disposition", `inline; filename="`+codegen.ModelFileName(s.Name)+`"`)
	writeText(w, http.StatusOK, codegen.GenerateSchemaDeclaration(s))
}

func recordGenerated(r *http.Request, s types.Schema, out codegen.Artifacts) {
	recordEvent(r.Context(), event.NewArtifactsGenerated(event.ArtifactsGeneratedPayload{
		SchemaName: s.Name,
		DTOFile:    out.DTOFile,
		ModelFile:  out.ModelFile,
		DTOBytes:   len(out.DTO),
		ModelBytes: len(out.Model),
	}))
}
