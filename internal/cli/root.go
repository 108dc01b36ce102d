// Package cli implements the dtogen command line.
package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/matthewbaird/dtobuddy/internal/assist"
	"github.com/matthewbaird/dtobuddy/internal/config"
	"github.com/matthewbaird/dtobuddy/internal/fieldtree"
	"github.com/matthewbaird/dtobuddy/internal/schemafile"
)

// Options wires the commands to their dependencies. Zero fields select the
// real filesystem, ULID ids, and a Gemini client built from the loaded
// configuration.
type Options struct {
	Fs        afero.Fs
	IDs       fieldtree.IDGenerator
	Completer assist.Completer
	// LoadConfig replaces config.Load.
	LoadConfig func() (*config.Config, error)
}

type app struct {
	opts   Options
	loader *schemafile.Loader
}

// NewRootCmd builds the dtogen command tree.
func NewRootCmd(opts Options) *cobra.Command {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.IDs == nil {
		opts.IDs = fieldtree.NewULIDGenerator(nil, nil)
	}
	if opts.LoadConfig == nil {
		opts.LoadConfig = func() (*config.Config, error) {
			return config.Load(config.Options{Fs: opts.Fs})
		}
	}
	a := &app{opts: opts}

	root := &cobra.Command{
		Use:   "dtogen",
		Short: "Generate TypeScript DTOs and Mongoose models from schema files",
		Long: `dtogen reads a schema file (CUE, JSON or YAML), validates it, and writes
a TypeScript DTO file and a Mongoose model file for it.

It can also ask an assistant to draft a schema, improve one, or add
validation rules.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := schemafile.NewLoader(a.opts.Fs, a.opts.IDs)
			if err != nil {
				return err
			}
			a.loader = l
			return nil
		},
	}

	root.AddCommand(a.generateCmd())
	root.AddCommand(a.validateCmd())
	root.AddCommand(a.checkCmd())
	root.AddCommand(a.convertCmd())
	root.AddCommand(a.fieldCmd())
	root.AddCommand(a.assistCmd())
	return root
}

func (a *app) assistant() (*assist.Assistant, error) {
	if a.opts.Completer != nil {
		return assist.New(a.opts.Completer, a.opts.IDs), nil
	}
	cfg, err := a.opts.LoadConfig()
	if err != nil {
		return nil, err
	}
	c := assist.NewGeminiClient(assist.GeminiConfig{
		Endpoint: cfg.Assist.Endpoint,
		Model:    cfg.Assist.Model,
		APIKey:   cfg.Assist.APIKey,
		Timeout:  cfg.Assist.Timeout,
	})
	return assist.New(c, a.opts.IDs), nil
}

var (
	okMark   = color.New(color.FgGreen).Sprint("✓")
	warnMark = color.New(color.FgYellow).Sprint("!")
)

func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", okMark, fmt.Sprintf(format, args...))
}

func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", warnMark, fmt.Sprintf(format, args...))
}

func stamp() string {
	return color.New(color.Faint).Sprint(time.Now().Format("15:04:05"))
}
