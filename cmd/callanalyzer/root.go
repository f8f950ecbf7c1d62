package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/contesa/callanalyzer/internal/config"
	"github.com/contesa/callanalyzer/internal/store"
)

func newRootCommand(cfg *config.Config) *cobra.Command {
	var dbFlag string

	rootCmd := &cobra.Command{
		Use:           "callanalyzer",
		Short:         "Batch analysis of call-center transcripts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if dbFlag != "" {
				cfg.Database.Path = dbFlag
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "Path to the SQLite database file")

	rootCmd.AddCommand(newAnalyzeCommand(cfg))
	rootCmd.AddCommand(newReportCommand(cfg))
	rootCmd.AddCommand(newExportCommand(cfg))
	rootCmd.AddCommand(newImportCSVCommand(cfg))

	return rootCmd
}

func openStore(ctx context.Context, cfg *config.Config) (*store.SQLiteStore, error) {
	return store.Open(ctx, cfg.Database)
}
