package report_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contesa/callanalyzer/internal/config"
	"github.com/contesa/callanalyzer/internal/report"
	"github.com/contesa/callanalyzer/internal/store"
	"github.com/contesa/callanalyzer/pkg/models"
)

func TestWrite(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(ctx, config.DatabaseConfig{
		Path:           filepath.Join(t.TempDir(), "report.db"),
		MaxConnections: 2,
		AcquireTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.UpsertTranscription(ctx, models.TranscriptionRecord{
		CallID: "c1", FileName: "c1.mp3", Transcription: "text",
	}))
	require.NoError(t, s.SaveAnalysisResult(ctx, models.AnalysisResult{
		CallID:               "c1",
		AnalysisStatus:       models.StatusCompleted,
		PrimaryIssueCategory: "Technical Issue",
		IssueSeverity:        "High",
		ConfidenceScore:      88,
	}))

	var buf bytes.Buffer
	require.NoError(t, report.Write(ctx, &buf, s))

	out := buf.String()
	assert.Contains(t, out, "Call Analysis Database Report")
	assert.Contains(t, out, "Transcriptions")
	assert.Contains(t, out, "Technical Issue")
	assert.Contains(t, out, "High")
	assert.Contains(t, out, "88.0%")
}

func TestWrite_EmptyDatabase(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(ctx, config.DatabaseConfig{
		Path:           filepath.Join(t.TempDir(), "empty.db"),
		MaxConnections: 2,
		AcquireTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	defer s.Close()

	var buf bytes.Buffer
	require.NoError(t, report.Write(ctx, &buf, s))
	assert.NotContains(t, buf.String(), "Issues by category")
}
