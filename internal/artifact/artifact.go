// Package artifact writes generated files to disk.
package artifact

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/matthewbaird/dtobuddy/internal/codegen"
	"github.com/matthewbaird/dtobuddy/internal/types"
)

// Writer places generated artifacts under a base directory. DTO files go to
// <dir>/dtos and model files to <dir>/models, matching the relative import
// the model file uses.
type Writer struct {
	fs  afero.Fs
	dir string
}

// NewWriter creates a Writer rooted at dir.
func NewWriter(fs afero.Fs, dir string) *Writer {
	return &Writer{fs: fs, dir: dir}
}

// Written lists the paths produced by one Write.
type Written struct {
	DTOPath   string
	ModelPath string
}

// Write generates both artifacts for s and writes them.
func (w *Writer) Write(s types.Schema) (Written, error) {
	a := codegen.Generate(s)
	out := Written{
		DTOPath:   filepath.Join(w.dir, "dtos", a.DTOFile),
		ModelPath: filepath.Join(w.dir, "models", a.ModelFile),
	}
	if err := w.writeFile(out.DTOPath, a.DTO); err != nil {
		return Written{}, err
	}
	if err := w.writeFile(out.ModelPath, a.Model); err != nil {
		return Written{}, err
	}
	return out, nil
}

func (w *Writer) writeFile(path, content string) error {
	if err := w.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := afero.WriteFile(w.fs, path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// DriftStatus describes how a file on disk differs from what would be
// generated.
type DriftStatus string

const (
	DriftMissing DriftStatus = "missing"
	DriftStale   DriftStatus = "stale"
)

// Drift is one out-of-date artifact.
type Drift struct {
	Path   string
	Status DriftStatus
}

// Check compares the files Write would produce for s with what is on disk.
// It returns nothing when both are current.
func (w *Writer) Check(s types.Schema) ([]Drift, error) {
	a := codegen.Generate(s)
	var drift []Drift
	for _, f := range []struct{ path, content string }{
		{filepath.Join(w.dir, "dtos", a.DTOFile), a.DTO},
		{filepath.Join(w.dir, "models", a.ModelFile), a.Model},
	} {
		data, err := afero.ReadFile(w.fs, f.path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			drift = append(drift, Drift{Path: f.path, Status: DriftMissing})
		case err != nil:
			return nil, fmt.Errorf("reading %s: %w", f.path, err)
		case !bytes.Equal(data, []byte(f.content)):
			drift = append(drift, Drift{Path: f.path, Status: DriftStale})
		}
	}
	return drift, nil
}
