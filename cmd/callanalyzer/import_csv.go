package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/contesa/callanalyzer/internal/config"
)

func newImportCSVCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "import-csv <file>",
		Short: "Import call transcriptions from a CSV file",
		Long: `Import-csv loads transcripts from a CSV with file_name and
transcription columns (duration_seconds is optional). Rows whose
transcript is unchanged since the last import are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			summary, err := st.ImportTranscriptionsCSV(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"Imported %d, updated %d, skipped %d, errors %d\n",
				summary.Imported, summary.Updated, summary.Skipped, summary.Errors)
			return nil
		},
	}
}
