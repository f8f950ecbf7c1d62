// Package models contains shared data models used across the call analyzer codebase.
package models

// Analysis status values stored in analysis_results.analysis_status.
const (
	StatusCompleted = "completed"
	StatusPartial   = "partial"
	StatusFailed    = "failed"
)

// TranscriptionRecord is one ingested call transcript, keyed by CallID.
// CallID is derived from the source file name and never changes; the row is
// updated in place when the transcript text changes (hash mismatch on import).
type TranscriptionRecord struct {
	ID              int64
	CallID          string
	FileName        string
	CallDate        string
	DurationSeconds int
	Transcription   string
	ImportTimestamp string
	HashValue       string
	Notes           string
}

// AnalysisResult is the flattened, persisted analysis of a single call.
// Exactly one row exists per CallID; re-analysis replaces the row.
type AnalysisResult struct {
	ID                     int64
	CallID                 string
	CallDate               string
	AnalysisStatus         string
	APIError               string
	PrimaryIssueCategory   string
	SpecificIssue          string
	IssueStatus            string
	IssueSeverity          string
	CallerType             string
	ExperienceLevel        string
	CallerIntent           string
	SystemPortal           string
	DeviceInformation      string
	ErrorMessages          string
	FeatureInvolved        string
	IssuePreconditions     string
	ActionSequence         string
	FailurePoint           string
	ExpectedVsActual       string
	IssueFrequency         string
	AttemptedSolutions     string
	ResolutionSteps        string
	KnowledgeGapIdentified string
	IssueDescriptionQuote  string
	ImpactStatementQuote   string
	IssueSummary           string
	RawResponse            string
	ConfidenceScore        float64
	AnalysisTimestamp      string
	ProcessingTimeMS       float64
	Model                  string
	Note                   string
}

// RunStats accumulates pipeline run statistics. One row is appended to
// analysis_stats at the end of each run.
type RunStats struct {
	TotalProcessed    int
	Successful        int
	Failed            int
	AvgConfidence     float64
	AvgProcessingTime float64
	Model             string
	BatchSize         int
	TotalTokens       int
	TotalCost         float64
}

// CategoryCount is a grouped count row in summary statistics.
type CategoryCount struct {
	Name  string
	Count int
}

// SummaryStats is the aggregate view over the whole store, used by reporting.
type SummaryStats struct {
	TotalTranscriptions int
	TotalAnalyzed       int
	CompletedAnalyses   int
	FailedAnalyses      int
	AvgConfidence       float64
	AvgProcessingTime   float64
	IssueCategories     []CategoryCount
	SeverityBreakdown   []CategoryCount
}
