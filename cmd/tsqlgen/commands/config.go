package commands

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/satishbabariya/tsqlgen/config"
	"github.com/satishbabariya/tsqlgen/internal/ui"
	"github.com/satishbabariya/tsqlgen/query/sqlgen"
)

func newConfigCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the resolved configuration",
		Long:  "Load the configuration file, .env files and TSQLGEN_* environment variables and print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFrom(config.AppFs, opts.dir)
			if err != nil {
				return err
			}
			paging, err := cfg.Paging()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			file := cfg.File
			if file == "" {
				file = "(none)"
			}
			ui.Section(out, "Configuration")
			return ui.Table(out, []string{"Setting", "Value"}, [][]string{
				{"file", file},
				{config.KeyDialect, cfg.Dialect},
				{config.KeyServerVersion, cfg.ServerVersion},
				{"paging", paging.String()},
				{config.KeyParamPrefix, cfg.ParamPrefix},
				{config.KeyColumnTag, cfg.ColumnTag},
				{config.KeyDebug, strconv.FormatBool(cfg.Debug)},
				{config.KeyLegacyNormalize, strconv.FormatBool(cfg.LegacyNormalize)},
				{config.KeyTelemetryEnabled, strconv.FormatBool(cfg.Telemetry.Enabled)},
				{config.KeyTelemetryEndpoint, cfg.Telemetry.Endpoint},
			})
		},
	}
}

func newInitCommand(opts *options) *cobra.Command {
	var (
		dialect       string
		serverVersion string
		force         bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a .tsqlgen.yaml file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			v.SetFs(config.AppFs)

			switch {
			case dialect != "":
				paging, err := sqlgen.ParsePaging(dialect)
				if err != nil {
					return err
				}
				v.Set(config.KeyDialect, paging.String())
			case serverVersion != "":
				if _, err := config.PagingForVersion(serverVersion); err != nil {
					return err
				}
				v.Set(config.KeyServerVersion, serverVersion)
			default:
				v.Set(config.KeyDialect, sqlgen.OffsetFetch.String())
			}
			v.Set(config.KeyParamPrefix, "p")
			v.Set(config.KeyColumnTag, "db")

			path := filepath.Join(opts.dir, config.FileName+".yaml")
			write := v.SafeWriteConfigAs
			if force {
				write = v.WriteConfigAs
			}
			if err := write(path); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}

			ui.Success(cmd.OutOrStdout(), "Created %s", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&dialect, "dialect", "", "Paging dialect: nopaging, rownumber or offsetfetch")
	cmd.Flags().StringVar(&serverVersion, "server-version", "", "SQL Server product version used to pick the dialect")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	cmd.MarkFlagsMutuallyExclusive("dialect", "server-version")
	return cmd
}

func newDialectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dialect <server-version>",
		Short: "Print the paging dialect for a SQL Server version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paging, err := config.PagingForVersion(args[0])
			if err != nil {
				return err
			}
			ui.KeyValue(cmd.OutOrStdout(), args[0], paging.String())
			return nil
		},
	}
}
