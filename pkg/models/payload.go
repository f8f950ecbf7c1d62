package models

// AnalysisPayload is the JSON object contract the analysis service is
// prompted to return. Sub-fields the model cannot determine are expected to
// hold the literal string "Not mentioned" rather than a guess.
type AnalysisPayload struct {
	IssueClassification IssueClassification `json:"issue_classification"`
	CallerInformation   CallerInformation   `json:"caller_information"`
	TechnicalContext    TechnicalContext    `json:"technical_context"`
	IssueRecreation     IssueRecreation     `json:"issue_recreation"`
	ResolutionPath      ResolutionPath      `json:"resolution_path"`
	KeyQuotes           KeyQuotes           `json:"key_quotes"`
	IssueSummary        string              `json:"issue_summary"`
}

type IssueClassification struct {
	PrimaryCategory string `json:"primary_category"`
	SpecificIssue   string `json:"specific_issue"`
	ProcessStage    string `json:"process_stage"`
	IssueStatus     string `json:"issue_status"`
	Severity        string `json:"severity"`
}

type CallerInformation struct {
	CallerType      string `json:"caller_type"`
	ExperienceLevel string `json:"experience_level"`
	Intent          string `json:"intent"`
}

type TechnicalContext struct {
	SystemPortal      string `json:"system_portal"`
	DeviceInformation string `json:"device_information"`
	ErrorMessages     string `json:"error_messages"`
	FeatureInvolved   string `json:"feature_involved"`
}

type IssueRecreation struct {
	Preconditions    string `json:"preconditions"`
	ActionSequence   string `json:"action_sequence"`
	WorkflowStage    string `json:"workflow_stage"`
	FailurePoint     string `json:"failure_point"`
	ExpectedVsActual string `json:"expected_vs_actual"`
	Frequency        string `json:"frequency"`
}

type ResolutionPath struct {
	AttemptedSolutions     string `json:"attempted_solutions"`
	ResolutionSteps        string `json:"resolution_steps"`
	KnowledgeGapIdentified string `json:"knowledge_gap_identified"`
}

type KeyQuotes struct {
	IssueDescription string `json:"issue_description"`
	ImpactStatement  string `json:"impact_statement"`
}
