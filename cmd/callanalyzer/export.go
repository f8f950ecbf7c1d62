package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/contesa/callanalyzer/internal/config"
	"github.com/contesa/callanalyzer/internal/export"
)

func newExportCommand(cfg *config.Config) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export <table>",
		Short: "Export a table to CSV, JSON or XLSX",
		Long: `Export writes one of the database tables (transcriptions,
analysis_results, analysis_stats) to a file. An existing file at the
destination is backed up first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			path, err := export.Table(cmd.Context(), st, cfg.Export, args[0], format, output)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", args[0], path)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "Output format: csv, json or xlsx")
	cmd.Flags().StringVar(&output, "output", "", "Output file path (default: <export dir>/<table>_<timestamp>.<format>)")

	return cmd
}
