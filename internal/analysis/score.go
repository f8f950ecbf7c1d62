// Package analysis turns transcripts into prompts and raw analysis
// outcomes into persisted rows, including the completeness-based
// confidence score.
package analysis

import (
	"strings"

	"github.com/contesa/callanalyzer/pkg/models"
)

const notMentioned = "not mentioned"

// Score rates how complete an analysis payload is, on a 0-100 scale.
// Ten key fields contribute 10 points each when filled with something
// other than "Not mentioned"; detailed summaries, stepwise recreation
// sequences and paired quotes earn small bonuses. The result is capped
// at 100.
func Score(p *models.AnalysisPayload) float64 {
	if p == nil {
		return 0
	}

	indicators := []string{
		p.IssueClassification.PrimaryCategory,
		p.IssueClassification.SpecificIssue,
		p.IssueClassification.Severity,
		p.TechnicalContext.SystemPortal,
		p.TechnicalContext.FeatureInvolved,
		p.IssueRecreation.ActionSequence,
		p.IssueRecreation.FailurePoint,
		p.IssueRecreation.ExpectedVsActual,
		p.KeyQuotes.IssueDescription,
		p.IssueSummary,
	}

	var filled int
	for _, field := range indicators {
		if field != "" && strings.ToLower(field) != notMentioned {
			filled++
		}
	}
	score := float64(filled) / float64(len(indicators)) * 100

	if len(strings.Fields(p.IssueSummary)) > 50 {
		score += 5
	}
	if strings.Contains(strings.ToLower(p.IssueRecreation.ActionSequence), "step") {
		score += 5
	}
	if p.KeyQuotes.IssueDescription != "" && p.KeyQuotes.ImpactStatement != "" {
		score += 5
	}

	if score > 100 {
		score = 100
	}
	return score
}
