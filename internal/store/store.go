// Package store persists transcriptions, analysis results and run statistics
// in a local SQLite database behind a bounded connection pool.
package store

import (
	"context"
	"errors"

	"github.com/contesa/callanalyzer/pkg/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")

	// ErrPoolTimeout is returned when no connection becomes available
	// within the configured acquire timeout.
	ErrPoolTimeout = errors.New("timed out waiting for a database connection")

	// ErrMissingCallID is returned when a write references a call_id with
	// no transcription row behind it.
	ErrMissingCallID = errors.New("no transcription exists for call_id")
)

// ResultFilter narrows ListAnalysisResults. Zero values mean "no filter".
type ResultFilter struct {
	Status   string
	Category string
	Limit    int
}

// ImportSummary reports what a CSV import did.
type ImportSummary struct {
	Imported int
	Updated  int
	Skipped  int
	Errors   int
}

// Store is the persistence surface the pipeline and CLI depend on.
type Store interface {
	UpsertTranscription(ctx context.Context, rec models.TranscriptionRecord) error
	GetTranscription(ctx context.Context, callID string) (models.TranscriptionRecord, error)
	PendingTranscriptions(ctx context.Context, reanalyze bool, limit int) ([]models.TranscriptionRecord, error)

	SaveAnalysisResult(ctx context.Context, res models.AnalysisResult) error
	GetAnalysisResult(ctx context.Context, callID string) (models.AnalysisResult, error)
	ListAnalysisResults(ctx context.Context, filter ResultFilter) ([]models.AnalysisResult, error)

	SaveRunStats(ctx context.Context, stats models.RunStats) error
	SummaryStatistics(ctx context.Context) (models.SummaryStats, error)

	DumpTable(ctx context.Context, table string) ([]string, [][]string, error)

	Close() error
}
