package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matthewbaird/dtobuddy/internal/artifact"
	"github.com/matthewbaird/dtobuddy/internal/codegen"
	"github.com/matthewbaird/dtobuddy/internal/fieldtree"
	"github.com/matthewbaird/dtobuddy/internal/schemafile"
	"github.com/matthewbaird/dtobuddy/internal/watch"
)

func (a *app) generateCmd() *cobra.Command {
	var (
		outDir   string
		toStdout bool
		watching bool
		debounce time.Duration
	)
	cmd := &cobra.Command{
		Use:   "generate <schema-file>",
		Short: "Generate the DTO and model files for a schema",
		Long: `Generate reads a schema file and writes <dir>/dtos/<name>.dto.ts and
<dir>/models/<name>.model.ts. The directory defaults to out_dir from the
configuration.

Examples:
  dtogen generate schemas/user.cue
  dtogen generate schemas/user.yaml --out src
  dtogen generate schemas/user.json --stdout
  dtogen generate schemas/user.cue --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if outDir == "" && !toStdout {
				cfg, err := a.opts.LoadConfig()
				if err != nil {
					return err
				}
				outDir = cfg.OutDir
			}

			run := func() error {
				s, err := a.loader.Load(path)
				if err != nil {
					return err
				}
				if toStdout {
					out := codegen.Generate(s)
					fmt.Fprintf(cmd.OutOrStdout(), "// %s\n%s\n// %s\n%s", out.DTOFile, out.DTO, out.ModelFile, out.Model)
					return nil
				}
				written, err := artifact.NewWriter(a.opts.Fs, outDir).Write(s)
				if err != nil {
					return err
				}
				success(cmd.ErrOrStderr(), "wrote %s", written.DTOPath)
				success(cmd.ErrOrStderr(), "wrote %s", written.ModelPath)
				return nil
			}

			if !watching {
				return run()
			}

			w, err := watch.NewWatcher(path, debounce, func() error {
				err := run()
				if err != nil {
					warn(cmd.ErrOrStderr(), "%s %v", stamp(), err)
				}
				return err
			})
			if err != nil {
				return err
			}
			if err := w.Start(); err != nil {
				return err
			}
			defer w.Stop()
			fmt.Fprintf(cmd.ErrOrStderr(), "watching %s (ctrl-c to stop)\n", path)
			<-cmd.Context().Done()
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory to write dtos/ and models/ under")
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "Print both files instead of writing them")
	cmd.Flags().BoolVarP(&watching, "watch", "w", false, "Regenerate whenever the schema file changes")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before regenerating in watch mode")
	return cmd
}

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <schema-file>...",
		Short: "Check schema files without generating anything",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var failed int
			for _, path := range args {
				s, err := a.loader.Load(path)
				if err != nil {
					warn(cmd.ErrOrStderr(), "%v", err)
					failed++
					continue
				}
				success(cmd.ErrOrStderr(), "%s: %s (%d fields)", path, s.Name, len(s.Fields))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d schema files invalid", failed, len(args))
			}
			return nil
		},
	}
}

func (a *app) checkCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "check <schema-file>...",
		Short: "Fail if generated files are missing or out of date",
		Long: `Check regenerates each schema in memory and compares the result with the
files under the output directory. It exits non-zero when any file is
missing or differs, which makes it suitable for CI.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outDir == "" {
				cfg, err := a.opts.LoadConfig()
				if err != nil {
					return err
				}
				outDir = cfg.OutDir
			}
			w := artifact.NewWriter(a.opts.Fs, outDir)
			var drifted int
			for _, path := range args {
				s, err := a.loader.Load(path)
				if err != nil {
					return err
				}
				drift, err := w.Check(s)
				if err != nil {
					return err
				}
				for _, d := range drift {
					warn(cmd.ErrOrStderr(), "%s: %s", d.Path, d.Status)
				}
				drifted += len(drift)
			}
			if drifted > 0 {
				return fmt.Errorf("%d generated files out of date; run dtogen generate", drifted)
			}
			success(cmd.ErrOrStderr(), "generated files are up to date")
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory holding dtos/ and models/")
	return cmd
}

func (a *app) convertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Rewrite a schema file in the format named by the output extension",
		Long: `Convert validates <in>, fills in defaults and field ids, and writes the
result to <out> as CUE, JSON or YAML.

Example:
  dtogen convert user.json user.cue`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := schemafile.FormatOf(args[1]); err != nil {
				return err
			}
			s, err := a.loader.Load(args[0])
			if err != nil {
				return err
			}
			if err := a.loader.Save(args[1], s); err != nil {
				return err
			}
			success(cmd.ErrOrStderr(), "wrote %s", args[1])
			return nil
		},
	}
}

func (a *app) fieldCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "field",
		Short: "Print new default fields as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			for i := 0; i < count; i++ {
				if err := enc.Encode(fieldtree.NewField(a.opts.IDs)); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of fields to print")
	return cmd
}
