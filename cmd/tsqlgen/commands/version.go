package commands

import (
	"github.com/spf13/cobra"

	"github.com/satishbabariya/tsqlgen/internal/ui"
	"github.com/satishbabariya/tsqlgen/internal/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ui.Table(cmd.OutOrStdout(), nil, version.Get().Rows())
		},
	}
}
