// Package assist drives the remote generation assistant: it builds prompts,
// calls a Completer, extracts the JSON schema from the reply and merges it
// with the editor's state. Only the Completer performs I/O.
package assist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/matthewbaird/dtobuddy/internal/fieldtree"
	"github.com/matthewbaird/dtobuddy/internal/types"
)

// Completer sends a prompt to a text-generation model and returns its reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Mode names an assistant operation.
type Mode string

const (
	ModeGenerate    Mode = "generate"
	ModeImprove     Mode = "improve"
	ModeValidations Mode = "validations"
)

// ErrEmptyPrompt is returned by Generate for a blank prompt.
var ErrEmptyPrompt = errors.New("prompt is empty")

// Assistant turns assistant replies into schemas.
type Assistant struct {
	c   Completer
	gen fieldtree.IDGenerator
}

// New creates an Assistant. Ids for new fields come from gen.
func New(c Completer, gen fieldtree.IDGenerator) *Assistant {
	return &Assistant{c: c, gen: gen}
}

// Generate proposes a new schema from a natural-language description.
func (a *Assistant) Generate(ctx context.Context, prompt string) (types.Schema, error) {
	if strings.TrimSpace(prompt) == "" {
		return types.Schema{}, fmt.Errorf("failed to generate schema: %w", ErrEmptyPrompt)
	}
	raw, err := a.ask(ctx, generatePrompt+prompt)
	if err != nil {
		return types.Schema{}, fmt.Errorf("failed to generate schema: %w", err)
	}
	s, err := MergeGenerated(raw, a.gen)
	if err != nil {
		return types.Schema{}, fmt.Errorf("failed to generate schema: %w", err)
	}
	return s, nil
}

// Improve asks for an enhanced version of current.
func (a *Assistant) Improve(ctx context.Context, current types.Schema) (types.Schema, error) {
	raw, err := a.askWithSchema(ctx, improvePrompt, current)
	if err != nil {
		return types.Schema{}, fmt.Errorf("failed to improve schema: %w", err)
	}
	s, err := MergeImproved(raw, current, a.gen)
	if err != nil {
		return types.Schema{}, fmt.Errorf("failed to improve schema: %w", err)
	}
	return s, nil
}

// AddValidations asks for validation rules to be added to current.
func (a *Assistant) AddValidations(ctx context.Context, current types.Schema) (types.Schema, error) {
	raw, err := a.askWithSchema(ctx, validationsPrompt, current)
	if err != nil {
		return types.Schema{}, fmt.Errorf("failed to generate validations: %w", err)
	}
	s, err := MergeValidations(raw, current, a.gen)
	if err != nil {
		return types.Schema{}, fmt.Errorf("failed to generate validations: %w", err)
	}
	return s, nil
}

// Run dispatches on mode. Generate uses prompt; the other modes use current.
func (a *Assistant) Run(ctx context.Context, mode Mode, prompt string, current types.Schema) (types.Schema, error) {
	switch mode {
	case ModeGenerate:
		return a.Generate(ctx, prompt)
	case ModeImprove:
		return a.Improve(ctx, current)
	case ModeValidations:
		return a.AddValidations(ctx, current)
	}
	return types.Schema{}, fmt.Errorf("unknown assistant mode %q", mode)
}

func (a *Assistant) askWithSchema(ctx context.Context, preamble string, s types.Schema) ([]byte, error) {
	data, err := json.MarshalIndent(s.Normalize(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding schema: %w", err)
	}
	return a.ask(ctx, preamble+string(data))
}

func (a *Assistant) ask(ctx context.Context, prompt string) ([]byte, error) {
	text, err := a.c.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	obj, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}
	return []byte(obj), nil
}
