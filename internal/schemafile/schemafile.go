// Package schemafile reads and writes schema files. Files may be written in
// CUE, JSON or YAML; all three are validated against the embedded #Schema
// definition, which also supplies defaults for omitted options.
package schemafile

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/format"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/matthewbaird/dtobuddy/internal/fieldtree"
	"github.com/matthewbaird/dtobuddy/internal/types"
)

//go:embed schema.cue
var schemaCUE string

// ErrUnsupportedFormat is returned for file extensions other than .cue,
// .json, .yaml and .yml.
var ErrUnsupportedFormat = errors.New("unsupported schema file format")

// Format is a schema file encoding.
type Format string

const (
	FormatCUE  Format = "cue"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf picks the format from a file name's extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return FormatCUE, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
}

// ValidationError carries the CUE diagnostics for a file that does not
// satisfy #Schema.
type ValidationError struct {
	File string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid schema:\n%s", e.File, strings.TrimRight(cueerrors.Details(e.Err, nil), "\n"))
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Loader reads schema files from a filesystem. A cue.Context is not safe
// for concurrent use, so calls are serialized.
type Loader struct {
	fs  afero.Fs
	gen fieldtree.IDGenerator

	mu  sync.Mutex
	ctx *cue.Context
	def cue.Value
}

// NewLoader compiles the embedded definition. Fields read without an id get
// one from gen.
func NewLoader(fs afero.Fs, gen fieldtree.IDGenerator) (*Loader, error) {
	ctx := cuecontext.New()
	root := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if root.Err() != nil {
		return nil, fmt.Errorf("compiling schema definition: %w", root.Err())
	}
	def := root.LookupPath(cue.ParsePath("#Schema"))
	if def.Err() != nil {
		return nil, fmt.Errorf("looking up #Schema: %w", def.Err())
	}
	return &Loader{fs: fs, gen: gen, ctx: ctx, def: def}, nil
}

// Load reads and validates the schema file at path.
func (l *Loader) Load(path string) (types.Schema, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return types.Schema{}, fmt.Errorf("reading schema file: %w", err)
	}
	return l.Parse(path, data)
}

// Parse validates data, named by path, and decodes it into a Schema. The
// extension of path selects the format.
func (l *Loader) Parse(path string, data []byte) (types.Schema, error) {
	f, err := FormatOf(path)
	if err != nil {
		return types.Schema{}, err
	}

	l.mu.Lock()
	out, err := l.export(path, f, data)
	l.mu.Unlock()
	if err != nil {
		return types.Schema{}, err
	}

	s := types.NewSchema("")
	if err := json.Unmarshal(out, &s); err != nil {
		return types.Schema{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	s = s.Normalize()
	s.Fields = fieldtree.AssignIDs(s.Fields, l.gen)
	if dups := fieldtree.DuplicateIDs(s.Fields); len(dups) > 0 {
		return types.Schema{}, fmt.Errorf("%s: duplicate field ids: %s", path, strings.Join(dups, ", "))
	}
	return s, nil
}

// export unifies the input with #Schema and returns the resulting JSON.
func (l *Loader) export(path string, f Format, data []byte) ([]byte, error) {
	var input cue.Value
	switch f {
	case FormatCUE, FormatJSON:
		input = l.ctx.CompileBytes(data, cue.Filename(path))
	case FormatYAML:
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		input = l.ctx.Encode(doc)
	}
	if input.Err() != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, input.Err())
	}

	v := l.def.Unify(input)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, &ValidationError{File: path, Err: err}
	}
	out, err := v.MarshalJSON()
	if err != nil {
		return nil, &ValidationError{File: path, Err: err}
	}
	return out, nil
}

// Encode renders s in format f.
func (l *Loader) Encode(s types.Schema, f Format) ([]byte, error) {
	data, err := json.MarshalIndent(s.Normalize(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding schema: %w", err)
	}
	switch f {
	case FormatJSON:
		return append(data, '\n'), nil
	case FormatYAML:
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("encoding schema: %w", err)
		}
		return yaml.Marshal(doc)
	case FormatCUE:
		l.mu.Lock()
		defer l.mu.Unlock()
		v := l.ctx.CompileBytes(data)
		if v.Err() != nil {
			return nil, fmt.Errorf("encoding schema: %w", v.Err())
		}
		out, err := format.Node(v.Syntax(cue.Concrete(true)))
		if err != nil {
			return nil, fmt.Errorf("formatting schema: %w", err)
		}
		return append(out, '\n'), nil
	}
	return nil, ErrUnsupportedFormat
}

// Save writes s to path in the format its extension names.
func (l *Loader) Save(path string, s types.Schema) error {
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := l.Encode(s, f)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := l.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(l.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("writing schema file: %w", err)
	}
	return nil
}
