// Package pipeline orchestrates batch analysis runs: it selects pending
// transcripts, feeds them through the analysis client and persists every
// outcome, keeping running statistics as it goes.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/contesa/callanalyzer/internal/analysis"
	"github.com/contesa/callanalyzer/internal/config"
	"github.com/contesa/callanalyzer/internal/store"
	"github.com/contesa/callanalyzer/internal/textutil"
	"github.com/contesa/callanalyzer/pkg/models"
)

// Analyzer is the analysis client surface the runner depends on.
type Analyzer interface {
	Analyze(ctx context.Context, callID string, messages []models.ChatMessage) models.AnalysisOutcome
}

// Runner executes one batch-analysis run over the pending transcriptions.
type Runner struct {
	store  store.Store
	client Analyzer
	cfg    *config.Config
	out    io.Writer
}

// NewRunner wires a runner. Progress lines are written to out.
func NewRunner(st store.Store, client Analyzer, cfg *config.Config, out io.Writer) *Runner {
	if out == nil {
		out = io.Discard
	}
	return &Runner{store: st, client: client, cfg: cfg, out: out}
}

// Run processes every pending transcription (all of them when reanalyze is
// set) in batches. Cancellation is honored between batches so that every
// started batch finishes and its results are persisted; an interrupted run
// picks up where it left off next time.
func (r *Runner) Run(ctx context.Context, reanalyze bool) (*models.RunStats, error) {
	runID := uuid.NewString()
	log := slog.With("run_id", runID)

	pending, err := r.store.PendingTranscriptions(ctx, reanalyze, 0)
	if err != nil {
		return nil, fmt.Errorf("select pending transcriptions: %w", err)
	}
	log.Info("starting analysis run",
		"pending", len(pending),
		"batch_size", r.cfg.Pipeline.BatchSize,
		"model", r.cfg.AI.Model,
		"reanalyze", reanalyze,
	)

	stats := &models.RunStats{
		Model:     r.cfg.AI.Model,
		BatchSize: r.cfg.Pipeline.BatchSize,
	}

	batchSize := r.cfg.Pipeline.BatchSize
	for start := 0; start < len(pending); start += batchSize {
		if ctx.Err() != nil {
			log.Warn("run cancelled, stopping before next batch",
				"processed", stats.TotalProcessed,
				"remaining", len(pending)-start,
			)
			break
		}

		end := start + batchSize
		if end > len(pending) {
			end = len(pending)
		}
		log.Info("processing batch",
			"batch", start/batchSize+1,
			"items", end-start,
		)

		for _, rec := range pending[start:end] {
			if err := r.processOne(ctx, log, rec, stats); err != nil {
				// A failing store write likely affects the whole batch;
				// abandon it and try again with the next one.
				log.Error("abandoning batch after store failure", "error", err)
				break
			}
		}
	}

	if stats.TotalProcessed > 0 {
		if err := r.store.SaveRunStats(context.WithoutCancel(ctx), *stats); err != nil {
			log.Error("failed to save run statistics", "error", err)
		}
	}

	log.Info("analysis run finished",
		"processed", stats.TotalProcessed,
		"successful", stats.Successful,
		"failed", stats.Failed,
		"avg_confidence", stats.AvgConfidence,
		"total_cost", stats.TotalCost,
	)
	return stats, nil
}

func (r *Runner) processOne(ctx context.Context, log *slog.Logger, rec models.TranscriptionRecord, stats *models.RunStats) error {
	transcript := strings.TrimSpace(rec.Transcription)
	if transcript == "" || strings.HasPrefix(transcript, "ERROR:") {
		log.Warn("skipping unusable transcript", "call_id", rec.CallID)
		return nil
	}

	prompt, note := r.preparePrompt(transcript)

	started := time.Now()
	outcome := r.client.Analyze(ctx, rec.CallID, prompt)
	elapsed := time.Since(started)

	result := analysis.FormatResult(rec, outcome, r.cfg.AI.Model, elapsed, note)
	// Persist even when the run is being cancelled: a started analysis is
	// paid for and must not be lost.
	if err := r.store.SaveAnalysisResult(context.WithoutCancel(ctx), result); err != nil {
		log.Error("failed to persist analysis result",
			"call_id", rec.CallID,
			"error", err,
		)
		return err
	}

	stats.TotalProcessed++
	if result.AnalysisStatus == models.StatusCompleted {
		stats.Successful++
		n := float64(stats.Successful)
		stats.AvgConfidence = (stats.AvgConfidence*(n-1) + result.ConfidenceScore) / n
	} else {
		stats.Failed++
	}
	n := float64(stats.TotalProcessed)
	stats.AvgProcessingTime = (stats.AvgProcessingTime*(n-1) + result.ProcessingTimeMS) / n
	stats.TotalTokens += outcome.Usage.TotalTokens
	stats.TotalCost += outcome.Cost

	r.printProgress(rec.FileName, result)
	return nil
}

// preparePrompt trims the transcript to the prompt budget, analyzing the
// first sentence-aligned chunk of oversized calls.
func (r *Runner) preparePrompt(transcript string) ([]models.ChatMessage, string) {
	maxChars := r.cfg.Pipeline.MaxPromptChars
	if len(transcript) <= maxChars {
		return analysis.BuildPrompt(transcript, false), ""
	}

	chunks := textutil.ChunkText(transcript, maxChars)
	used := chunks[0]
	note := analysis.TruncationNote(len(used), len(transcript))
	return analysis.BuildPrompt(used, true), note
}

func (r *Runner) printProgress(fileName string, result models.AnalysisResult) {
	switch result.AnalysisStatus {
	case models.StatusCompleted:
		issue := result.SpecificIssue
		if runes := []rune(issue); len(runes) > 40 {
			issue = string(runes[:40])
		}
		fmt.Fprintf(r.out, "OK   %s (confidence: %.1f%%) - %s: %s\n",
			fileName, result.ConfidenceScore, result.PrimaryIssueCategory, issue)
	case models.StatusPartial:
		fmt.Fprintf(r.out, "PART %s - unparsable response kept for review\n", fileName)
	default:
		fmt.Fprintf(r.out, "FAIL %s - %s\n", fileName, result.APIError)
	}
}
