package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/tsqlgen/config"
	"github.com/satishbabariya/tsqlgen/internal/ui"
	"github.com/satishbabariya/tsqlgen/query/normalize"
)

var ruleHelp = map[string]string{
	normalize.DateLiterals.Name:    "`#1/31/2024#` becomes `'2024-01-31'`",
	normalize.DateFunctions.Name:   "`Now()`, `Date()` and `Time()` become `GETDATE()` forms",
	normalize.InlineIf.Name:        "`IIf(c, a, b)` becomes `(CASE WHEN c THEN a ELSE b END)`",
	normalize.BooleanLiterals.Name: "`True` and `False` become `1` and `0`",
}

func newNormalizeCommand() *cobra.Command {
	var (
		diff  bool
		rules bool
	)

	cmd := &cobra.Command{
		Use:   "normalize [file]",
		Short: "Rewrite legacy SQL into T-SQL",
		Long:  "Apply the legacy rewrite rules to SQL read from a file, or from stdin when no file is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := normalize.Default()
			out := cmd.OutOrStdout()

			if rules {
				var sb strings.Builder
				sb.WriteString("# Rewrite rules\n\nApplied in order:\n\n")
				for i, name := range n.Rules() {
					fmt.Fprintf(&sb, "%d. **%s**: %s\n", i+1, name, ruleHelp[name])
				}
				return ui.Markdown(out, sb.String())
			}

			src, err := readSource(cmd, args)
			if err != nil {
				return err
			}
			normalized, err := n.Apply(src)
			if err != nil {
				return err
			}

			if diff {
				ui.Diff(out, src, normalized)
				return nil
			}
			_, err = io.WriteString(out, normalized)
			return err
		},
	}

	cmd.Flags().BoolVar(&diff, "diff", false, "Show changed lines instead of the rewritten text")
	cmd.Flags().BoolVar(&rules, "rules", false, "List the rewrite rules")
	return cmd
}

func readSource(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := afero.ReadFile(config.AppFs, args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(b), nil
}
