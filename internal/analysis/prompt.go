package analysis

import (
	"fmt"
	"strings"

	"github.com/contesa/callanalyzer/pkg/models"
)

const systemPrompt = `You are an expert call-center analyst for a financial services company offering loans against mutual funds. You extract structured, actionable issue reports from customer support call transcripts. You are precise, never guess, and answer only with valid JSON.`

const instructionTemplate = `Analyze the following customer support call transcript and extract:

1. Issue Classification
* primary_category: one of Process Issue, Technical Issue, Communication Gap, Knowledge Gap (closest fit if none apply)
* specific_issue: the exact issue including WHERE in the process flow it occurs
* process_stage: the exact workflow stage where the issue occurs
* issue_status: Resolved During Call, Workaround Provided, Escalated, or Unresolved
* severity: Critical, High, Medium, or Low

2. Caller Information
* caller_type: End Customer (New/Existing), Affiliate Partner, Financial Advisor, Internal Staff, or Other
* experience_level: New User, Intermediate, Experienced, or Expert
* intent: the specific business objective the caller was trying to accomplish

3. Technical Context
* system_portal: the exact system mentioned (Mobile App, Web Portal, Partner Dashboard, Payment System, KYC System, other)
* device_information: browser, OS or device details if mentioned
* error_messages: exact error text in quotes
* feature_involved: the specific feature affected

4. Issue Recreation Path
* preconditions: the state, permissions or data needed to encounter the issue
* action_sequence: numbered steps (1, 2, 3...) in the exact order that led to the issue
* workflow_stage: which process workflow and sub-step is affected
* failure_point: the precise step where the process broke down
* expected_vs_actual: what should have happened vs. what actually occurred
* frequency: First Occurrence, Intermittent, or Recurring

5. Resolution Path
* attempted_solutions: solutions tried before or during the call
* resolution_steps: steps that resolved the issue or recommended next actions
* knowledge_gap_identified: training or documentation needs revealed

6. Key Quotes
* issue_description: the most descriptive quote where the caller explains the issue
* impact_statement: an exact quote showing business impact

7. issue_summary: a detailed paragraph (at least 5 sentences) covering the issue, where it occurs, how to recreate it, its business impact and the recommended next step.

If information is not explicitly mentioned in the transcript, use the literal string "Not mentioned" rather than guessing.

Return a valid JSON object with exactly this structure:
{
  "issue_classification": {"primary_category": "", "specific_issue": "", "process_stage": "", "issue_status": "", "severity": ""},
  "caller_information": {"caller_type": "", "experience_level": "", "intent": ""},
  "technical_context": {"system_portal": "", "device_information": "", "error_messages": "", "feature_involved": ""},
  "issue_recreation": {"preconditions": "", "action_sequence": "", "workflow_stage": "", "failure_point": "", "expected_vs_actual": "", "frequency": ""},
  "resolution_path": {"attempted_solutions": "", "resolution_steps": "", "knowledge_gap_identified": ""},
  "key_quotes": {"issue_description": "", "impact_statement": ""},
  "issue_summary": ""
}`

// BuildPrompt assembles the chat messages for one transcript. When the
// transcript has been truncated to fit the prompt budget, the model is
// told it is looking at the beginning of a longer call.
func BuildPrompt(transcript string, truncated bool) []models.ChatMessage {
	var b strings.Builder
	b.WriteString(instructionTemplate)
	b.WriteString("\n\nTranscript:\n")
	if truncated {
		b.WriteString("(Note: this is the beginning of a longer call; the transcript was truncated.)\n")
	}
	b.WriteString(transcript)

	return []models.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: b.String()},
	}
}

// TruncationNote renders the note stored alongside results produced from a
// partial transcript.
func TruncationNote(usedChars, totalChars int) string {
	return fmt.Sprintf("Analysis based on partial transcription (%d/%d chars)", usedChars, totalChars)
}
