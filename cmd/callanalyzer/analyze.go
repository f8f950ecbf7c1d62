package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/contesa/callanalyzer/internal/ai"
	"github.com/contesa/callanalyzer/internal/ai/openai"
	"github.com/contesa/callanalyzer/internal/config"
	"github.com/contesa/callanalyzer/internal/pipeline"
	"github.com/contesa/callanalyzer/pkg/models"
)

func newAnalyzeCommand(cfg *config.Config) *cobra.Command {
	var (
		reanalyze bool
		model     string
		batchSize int
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze pending call transcripts",
		Long: `Analyze selects every transcription without a completed analysis and runs
it through the analysis service, persisting one result row per call.
Interrupting the run (Ctrl-C) finishes the current batch and saves its
results; the next run resumes with whatever is still pending.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.AI.APIKey == "" {
				return fmt.Errorf("OPENAI_API_KEY is not set")
			}
			if model != "" {
				cfg.AI.Model = model
			}
			if batchSize > 0 {
				cfg.Pipeline.BatchSize = batchSize
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			chat := openai.NewClient(cfg.AI.APIKey, cfg.AI.BaseURL)
			client := ai.NewClient(chat, cfg.AI)
			runner := pipeline.NewRunner(st, client, cfg, cmd.OutOrStdout())

			started := time.Now()
			stats, err := runner.Run(ctx, reanalyze)
			if err != nil {
				return err
			}

			printRunSummary(cmd.OutOrStdout(), stats, time.Since(started))
			return nil
		},
	}

	cmd.Flags().BoolVar(&reanalyze, "reanalyze", false, "Re-analyze every transcript, including completed ones")
	cmd.Flags().StringVar(&model, "model", "", "Override the analysis model for this run")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Override the batch size for this run")

	return cmd
}

func printRunSummary(w io.Writer, stats *models.RunStats, elapsed time.Duration) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run summary")
	fmt.Fprintf(w, "  Processed:       %d\n", stats.TotalProcessed)
	fmt.Fprintf(w, "  Successful:      %d\n", stats.Successful)
	fmt.Fprintf(w, "  Failed:          %d\n", stats.Failed)
	if stats.Successful > 0 {
		fmt.Fprintf(w, "  Avg confidence:  %.1f%%\n", stats.AvgConfidence)
	}
	fmt.Fprintf(w, "  Tokens used:     %d\n", stats.TotalTokens)
	fmt.Fprintf(w, "  Estimated cost:  $%.4f\n", stats.TotalCost)
	fmt.Fprintf(w, "  Elapsed:         %s\n", elapsed.Round(time.Second))
}
