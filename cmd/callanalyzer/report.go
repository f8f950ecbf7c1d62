package main

import (
	"github.com/spf13/cobra"

	"github.com/contesa/callanalyzer/internal/config"
	"github.com/contesa/callanalyzer/internal/report"
)

func newReportCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print summary statistics for the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			return report.Write(cmd.Context(), cmd.OutOrStdout(), st)
		},
	}
}
