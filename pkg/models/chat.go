package models

import "context"

// ChatClient is the transport to the external text-analysis service.
// Callers always work through this interface; the concrete implementation
// is selected once at startup.
type ChatClient interface {
	// Complete sends one chat completion request and returns the raw
	// response content plus token usage.
	Complete(ctx context.Context, req ChatRequest) (ChatResponse, error)
	// Name returns the client identifier (e.g., "openai").
	Name() string
}

// ChatMessage is a single role/content pair in a completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the input to a single completion call.
type ChatRequest struct {
	Model       string
	Messages    []ChatMessage
	Temperature float64
	MaxTokens   int
}

// TokenUsage reports token counters from the remote service, when present.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ChatResponse is the raw outcome of a completion call.
type ChatResponse struct {
	Content string
	Usage   TokenUsage
}

// AnalysisOutcome is what the rate-limited analysis client hands back for
// every item. The client never returns a Go error for a failed analysis:
// APIError carries the failure so the orchestrator can always proceed.
//
//   - APIError == ""                      → the call succeeded, Payload is set.
//   - APIError != "" and Payload != nil   → partial (structure recovered).
//   - APIError != "" and RawExcerpt != "" → partial (unparsable text kept
//     for manual review).
//   - otherwise                           → failed.
type AnalysisOutcome struct {
	CallID     string
	Payload    *AnalysisPayload
	APIError   string
	RawExcerpt string
	Summary    string
	Usage      TokenUsage
	Cost       float64
}
