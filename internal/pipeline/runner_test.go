package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contesa/callanalyzer/internal/ai"
	"github.com/contesa/callanalyzer/internal/ai/mock"
	"github.com/contesa/callanalyzer/internal/config"
	"github.com/contesa/callanalyzer/internal/pipeline"
	"github.com/contesa/callanalyzer/internal/store"
	"github.com/contesa/callanalyzer/pkg/models"
)

const analysisJSON = `{
	"issue_classification": {
		"primary_category": "Technical Issue",
		"specific_issue": "Login fails after password reset",
		"process_stage": "Authentication",
		"issue_status": "Escalated",
		"severity": "High"
	},
	"caller_information": {"caller_type": "End Customer", "experience_level": "New User", "intent": "Log in"},
	"technical_context": {"system_portal": "Web Portal", "device_information": "Not mentioned", "error_messages": "Invalid credentials", "feature_involved": "Login"},
	"issue_recreation": {"preconditions": "Reset password", "action_sequence": "Step 1: reset. Step 2: log in.", "workflow_stage": "Login", "failure_point": "Credential check", "expected_vs_actual": "Should log in, gets rejected", "frequency": "Recurring"},
	"resolution_path": {"attempted_solutions": "Second reset", "resolution_steps": "Escalated", "knowledge_gap_identified": "Not mentioned"},
	"key_quotes": {"issue_description": "I reset my password and still cannot log in", "impact_statement": "I am locked out of my account"},
	"issue_summary": "Caller is locked out after a password reset and the issue was escalated."
}`

func testConfig(t *testing.T, batchSize int) *config.Config {
	t.Helper()
	return &config.Config{
		Database: config.DatabaseConfig{
			Path:           filepath.Join(t.TempDir(), "pipeline.db"),
			MaxConnections: 4,
			AcquireTimeout: 5 * time.Second,
		},
		AI: config.AIConfig{
			Model:             "gpt-4o",
			MaxRetries:        0,
			Timeout:           time.Second,
			RateLimitRPM:      60000,
			RetryBackoffBase:  time.Millisecond,
			ParseRetryBackoff: time.Millisecond,
		},
		Pipeline: config.PipelineConfig{
			BatchSize:      batchSize,
			MaxPromptChars: 8000,
		},
	}
}

func openStore(t *testing.T, cfg *config.Config) *store.SQLiteStore {
	t.Helper()
	s, err := store.Open(context.Background(), cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seed(t *testing.T, s *store.SQLiteStore, callID, transcript string) {
	t.Helper()
	require.NoError(t, s.UpsertTranscription(context.Background(), models.TranscriptionRecord{
		CallID:        callID,
		FileName:      callID + ".mp3",
		Transcription: transcript,
	}))
}

func jsonChat() *mock.ChatClient {
	return &mock.ChatClient{
		CompleteFunc: func(_ context.Context, _ models.ChatRequest) (models.ChatResponse, error) {
			return models.ChatResponse{
				Content: analysisJSON,
				Usage:   models.TokenUsage{PromptTokens: 800, CompletionTokens: 400, TotalTokens: 1200},
			}, nil
		},
	}
}

func TestRun_AnalyzesPendingOnly(t *testing.T) {
	cfg := testConfig(t, 10)
	s := openStore(t, cfg)
	ctx := context.Background()

	seed(t, s, "c1", "Caller cannot log in after resetting the password.")
	seed(t, s, "c2", "Caller asked about withdrawal timelines.")
	seed(t, s, "c3", "Caller reported a missing payment button.")

	// c3 was already analyzed in a previous run.
	require.NoError(t, s.SaveAnalysisResult(ctx, models.AnalysisResult{
		CallID: "c3", AnalysisStatus: models.StatusCompleted, ConfidenceScore: 90,
	}))

	chat := jsonChat()
	runner := pipeline.NewRunner(s, ai.NewClient(chat, cfg.AI), cfg, &bytes.Buffer{})

	stats, err := runner.Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalProcessed)
	assert.Equal(t, 2, stats.Successful)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 2, chat.Calls)
	assert.Equal(t, 2400, stats.TotalTokens)
	assert.Greater(t, stats.TotalCost, 0.0)
	assert.Greater(t, stats.AvgConfidence, 0.0)

	res, err := s.GetAnalysisResult(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, res.AnalysisStatus)
	assert.Equal(t, "Technical Issue", res.PrimaryIssueCategory)

	// Second pass finds nothing to do.
	stats, err = runner.Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalProcessed)

	// Reanalysis covers everything.
	stats, err = runner.Run(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalProcessed)
}

func TestRun_SkipsUnusableTranscripts(t *testing.T) {
	cfg := testConfig(t, 10)
	s := openStore(t, cfg)

	seed(t, s, "c1", "A real transcript.")
	seed(t, s, "c2", "   ")
	seed(t, s, "c3", "ERROR: transcription service unavailable")
	seed(t, s, "c4", "Another real transcript.")

	chat := jsonChat()
	runner := pipeline.NewRunner(s, ai.NewClient(chat, cfg.AI), cfg, &bytes.Buffer{})

	stats, err := runner.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalProcessed)
	assert.Equal(t, 2, chat.Calls)

	_, err = s.GetAnalysisResult(context.Background(), "c2")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRun_FailedAnalysesAreRecorded(t *testing.T) {
	cfg := testConfig(t, 10)
	s := openStore(t, cfg)
	seed(t, s, "c1", "A transcript the service cannot reach.")

	chat := &mock.ChatClient{
		CompleteFunc: func(_ context.Context, _ models.ChatRequest) (models.ChatResponse, error) {
			return models.ChatResponse{}, errors.New("connection refused")
		},
	}
	var out bytes.Buffer
	runner := pipeline.NewRunner(s, ai.NewClient(chat, cfg.AI), cfg, &out)

	stats, err := runner.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalProcessed)
	assert.Equal(t, 1, stats.Failed)
	assert.Contains(t, out.String(), "FAIL")

	res, err := s.GetAnalysisResult(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, res.AnalysisStatus)
	assert.Contains(t, res.APIError, "connection refused")
}

func TestRun_CancellationStopsBetweenBatches(t *testing.T) {
	cfg := testConfig(t, 1)
	s := openStore(t, cfg)
	for _, id := range []string{"c1", "c2", "c3"} {
		seed(t, s, id, "A transcript for "+id+".")
	}

	ctx, cancel := context.WithCancel(context.Background())
	chat := &mock.ChatClient{
		CompleteFunc: func(_ context.Context, _ models.ChatRequest) (models.ChatResponse, error) {
			cancel() // cancel mid-run; the current batch still completes
			return models.ChatResponse{Content: analysisJSON}, nil
		},
	}
	runner := pipeline.NewRunner(s, ai.NewClient(chat, cfg.AI), cfg, &bytes.Buffer{})

	stats, err := runner.Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalProcessed)
	assert.Equal(t, 1, stats.Successful)
}

func TestRun_ProgressLineTruncatesOnRuneBoundaries(t *testing.T) {
	cfg := testConfig(t, 10)
	s := openStore(t, cfg)
	seed(t, s, "c1", "Caller reported an issue in Hindi.")

	// A specific_issue longer than 40 runes, all multibyte.
	issue := strings.Repeat("निकासी", 10)
	content := strings.Replace(analysisJSON,
		"Login fails after password reset", issue, 1)

	chat := &mock.ChatClient{
		CompleteFunc: func(_ context.Context, _ models.ChatRequest) (models.ChatResponse, error) {
			return models.ChatResponse{Content: content}, nil
		},
	}
	var out bytes.Buffer
	runner := pipeline.NewRunner(s, ai.NewClient(chat, cfg.AI), cfg, &out)

	_, err := runner.Run(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(out.String()))
	// 40 runes: six full repeats of the 6-rune word plus its first 4 runes.
	assert.Contains(t, out.String(), strings.Repeat("निकासी", 6)+"निका")
	assert.NotContains(t, out.String(), strings.Repeat("निकासी", 7))
}

func TestRun_TruncatesOversizedTranscripts(t *testing.T) {
	cfg := testConfig(t, 10)
	cfg.Pipeline.MaxPromptChars = 300
	s := openStore(t, cfg)

	sentence := "The caller repeated the same explanation once more. "
	seed(t, s, "c1", strings.Repeat(sentence, 20))

	var promptLen int
	chat := &mock.ChatClient{}
	chat.CompleteFunc = func(_ context.Context, req models.ChatRequest) (models.ChatResponse, error) {
		for _, m := range req.Messages {
			if m.Role == "user" {
				promptLen = len(m.Content)
			}
		}
		return models.ChatResponse{Content: analysisJSON}, nil
	}
	runner := pipeline.NewRunner(s, ai.NewClient(chat, cfg.AI), cfg, &bytes.Buffer{})

	_, err := runner.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Positive(t, promptLen)

	res, err := s.GetAnalysisResult(context.Background(), "c1")
	require.NoError(t, err)
	assert.Contains(t, res.Note, "Analysis based on partial transcription")
}
