// Package commands implements the tsqlgen developer commands.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/satishbabariya/tsqlgen/internal/debug"
	"github.com/satishbabariya/tsqlgen/internal/ui"
	"github.com/satishbabariya/tsqlgen/internal/version"
)

// options are the persistent flags shared by every command.
type options struct {
	dir     string
	noColor bool
	debug   bool
}

// NewRootCommand creates the tsqlgen command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "tsqlgen",
		Short:         "T-SQL query compiler tools",
		Long:          "Inspect configuration, choose a paging dialect and normalize legacy SQL for the tsqlgen query compiler",
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				ui.DisableColor()
			}
			debug.InitWithWriter(cmd.ErrOrStderr(), opts.debug)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.dir, "dir", ".", "Directory holding .tsqlgen.yaml and .env files")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	flags.BoolVar(&opts.debug, "debug", false, "Write debug logs to stderr")

	cmd.AddCommand(
		newConfigCommand(opts),
		newInitCommand(opts),
		newDialectCommand(),
		newNormalizeCommand(),
		newVersionCommand(),
	)
	return cmd
}

// Execute runs the root command with the process arguments.
func Execute() error {
	return NewRootCommand().Execute()
}
