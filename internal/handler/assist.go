package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/matthewbaird/dtobuddy/internal/assist"
	"github.com/matthewbaird/dtobuddy/internal/event"
	"github.com/matthewbaird/dtobuddy/internal/types"
)

// Assistant runs one assistant request against a schema.
type Assistant interface {
	Run(ctx context.Context, mode assist.Mode, prompt string, current types.Schema) (types.Schema, error)
}

// AssistHandler exposes the assistant over HTTP.
type AssistHandler struct {
	assistant Assistant
}

// NewAssistHandler creates an AssistHandler. A nil assistant answers every
// request with 503.
func NewAssistHandler(a Assistant) *AssistHandler {
	return &AssistHandler{assistant: a}
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

// Generate proposes a schema from a description.
func (h *AssistHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badJSON(w, err)
		return
	}
	h.run(w, r, assist.ModeGenerate, req.Prompt, types.Schema{})
}

// Improve returns an enhanced version of the posted schema.
func (h *AssistHandler) Improve(w http.ResponseWriter, r *http.Request) {
	s, ok := decodeSchema(w, r)
	if !ok {
		return
	}
	h.run(w, r, assist.ModeImprove, "", s)
}

// Validations returns the posted schema with validation rules added.
func (h *AssistHandler) Validations(w http.ResponseWriter, r *http.Request) {
	s, ok := decodeSchema(w, r)
	if !ok {
		return
	}
	h.run(w, r, assist.ModeValidations, "", s)
}

func (h *AssistHandler) run(w http.ResponseWriter, r *http.Request, mode assist.Mode, prompt string, current types.Schema) {
	if h.assistant == nil {
		writeError(w, http.StatusServiceUnavailable, "ASSIST_UNAVAILABLE", "assistant is not configured")
		return
	}
	s, err := h.assistant.Run(r.Context(), mode, prompt, current)
	if err != nil {
		recordEvent(r.Context(), event.NewAssistFailed(event.AssistPayload{
			Mode: string(mode), SchemaName: current.Name, Error: err.Error(),
		}))
		switch {
		case errors.Is(err, assist.ErrEmptyPrompt):
			writeError(w, http.StatusBadRequest, "EMPTY_PROMPT", err.Error())
		case errors.Is(err, assist.ErrNoJSON):
			writeError(w, http.StatusBadGateway, "NO_JSON", err.Error())
		case errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusGatewayTimeout, "ASSIST_TIMEOUT", err.Error())
		default:
			log.Printf("assist %s: %v", mode, err)
			writeError(w, http.StatusBadGateway, "ASSIST_FAILED", err.Error())
		}
		return
	}
	recordEvent(r.Context(), event.NewAssistCompleted(event.AssistPayload{
		Mode: string(mode), SchemaName: s.Name, FieldCount: len(s.Fields),
	}))
	writeJSON(w, http.StatusOK, s)
}
