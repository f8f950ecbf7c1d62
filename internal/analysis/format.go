package analysis

import (
	"time"

	"github.com/contesa/callanalyzer/pkg/models"
)

// FormatResult flattens an analysis outcome into the persisted row for a
// call. The analysis status is derived from the outcome:
//
//   - no API error                      → completed
//   - API error but payload or excerpt  → partial
//   - API error and nothing recovered   → failed
func FormatResult(rec models.TranscriptionRecord, out models.AnalysisOutcome, model string, elapsed time.Duration, note string) models.AnalysisResult {
	res := models.AnalysisResult{
		CallID:            rec.CallID,
		CallDate:          rec.CallDate,
		APIError:          out.APIError,
		RawResponse:       out.RawExcerpt,
		AnalysisTimestamp: time.Now().Format("2006-01-02 15:04:05"),
		ProcessingTimeMS:  float64(elapsed.Milliseconds()),
		Model:             model,
		Note:              note,
	}

	switch {
	case out.APIError == "":
		res.AnalysisStatus = models.StatusCompleted
	case out.Payload != nil || out.RawExcerpt != "":
		res.AnalysisStatus = models.StatusPartial
	default:
		res.AnalysisStatus = models.StatusFailed
	}

	if p := out.Payload; p != nil {
		res.PrimaryIssueCategory = p.IssueClassification.PrimaryCategory
		res.SpecificIssue = p.IssueClassification.SpecificIssue
		res.IssueStatus = p.IssueClassification.IssueStatus
		res.IssueSeverity = p.IssueClassification.Severity
		res.CallerType = p.CallerInformation.CallerType
		res.ExperienceLevel = p.CallerInformation.ExperienceLevel
		res.CallerIntent = p.CallerInformation.Intent
		res.SystemPortal = p.TechnicalContext.SystemPortal
		res.DeviceInformation = p.TechnicalContext.DeviceInformation
		res.ErrorMessages = p.TechnicalContext.ErrorMessages
		res.FeatureInvolved = p.TechnicalContext.FeatureInvolved
		res.IssuePreconditions = p.IssueRecreation.Preconditions
		res.ActionSequence = p.IssueRecreation.ActionSequence
		res.FailurePoint = p.IssueRecreation.FailurePoint
		res.ExpectedVsActual = p.IssueRecreation.ExpectedVsActual
		res.IssueFrequency = p.IssueRecreation.Frequency
		res.AttemptedSolutions = p.ResolutionPath.AttemptedSolutions
		res.ResolutionSteps = p.ResolutionPath.ResolutionSteps
		res.KnowledgeGapIdentified = p.ResolutionPath.KnowledgeGapIdentified
		res.IssueDescriptionQuote = p.KeyQuotes.IssueDescription
		res.ImpactStatementQuote = p.KeyQuotes.ImpactStatement
		res.IssueSummary = p.IssueSummary
		res.ConfidenceScore = Score(p)
	} else if out.Summary != "" {
		res.IssueSummary = out.Summary
	}

	return res
}
