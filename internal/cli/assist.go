package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matthewbaird/dtobuddy/internal/assist"
	"github.com/matthewbaird/dtobuddy/internal/types"
)

func (a *app) assistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assist",
		Short: "Draft or refine schemas with the assistant",
		Long: `Assist sends a description or an existing schema to the assistant and
prints the resulting schema as JSON, or saves it with --save.

The assistant is configured through assist.* settings; the API key is read
from DTOBUDDY_ASSIST_API_KEY or GOOGLE_API_KEY.`,
	}
	cmd.AddCommand(a.assistModeCmd(assist.ModeGenerate, "generate <description>...", "Draft a new schema from a description"))
	cmd.AddCommand(a.assistModeCmd(assist.ModeImprove, "improve <schema-file>", "Improve an existing schema"))
	cmd.AddCommand(a.assistModeCmd(assist.ModeValidations, "validations <schema-file>", "Add validation rules to an existing schema"))
	return cmd
}

func (a *app) assistModeCmd(mode assist.Mode, use, short string) *cobra.Command {
	var save string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				prompt  string
				current types.Schema
			)
			if mode == assist.ModeGenerate {
				prompt = strings.Join(args, " ")
			} else {
				if len(args) != 1 {
					return fmt.Errorf("%s takes exactly one schema file", mode)
				}
				s, err := a.loader.Load(args[0])
				if err != nil {
					return err
				}
				current = s
			}

			assistant, err := a.assistant()
			if err != nil {
				return err
			}
			s, err := assistant.Run(cmd.Context(), mode, prompt, current)
			if err != nil {
				return err
			}

			if save != "" {
				if err := a.loader.Save(save, s); err != nil {
					return err
				}
				success(cmd.ErrOrStderr(), "wrote %s (%d fields)", save, len(s.Fields))
				return nil
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		},
	}
	cmd.Flags().StringVar(&save, "save", "", "Write the schema to this file (.cue, .json, .yaml) instead of stdout")
	return cmd
}
