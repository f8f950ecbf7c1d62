package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contesa/callanalyzer/internal/config"
	"github.com/contesa/callanalyzer/pkg/models"
)

func testCLIConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Database: config.DatabaseConfig{
			Path:           filepath.Join(t.TempDir(), "cli.db"),
			MaxConnections: 2,
			AcquireTimeout: 5 * time.Second,
		},
		AI: config.AIConfig{
			Model:        "gpt-4o",
			RateLimitRPM: 3,
		},
		Pipeline: config.PipelineConfig{BatchSize: 10, MaxPromptChars: 8000},
		Export: config.ExportConfig{
			Dir:        t.TempDir(),
			BackupsDir: t.TempDir(),
		},
	}
}

func TestAnalyze_RequiresAPIKey(t *testing.T) {
	cfg := testCLIConfig(t)
	cmd := newRootCommand(cfg)
	cmd.SetArgs([]string{"analyze"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestDBFlagOverridesConfiguredPath(t *testing.T) {
	cfg := testCLIConfig(t)
	override := filepath.Join(t.TempDir(), "override.db")

	cmd := newRootCommand(cfg)
	cmd.SetArgs([]string{"report", "--db", override})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, override, cfg.Database.Path)
}

func TestReportCommandOnEmptyDatabase(t *testing.T) {
	cfg := testCLIConfig(t)
	var out bytes.Buffer

	cmd := newRootCommand(cfg)
	cmd.SetArgs([]string{"report"})
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Call Analysis Database Report")
}

func TestPrintRunSummary(t *testing.T) {
	var out bytes.Buffer
	printRunSummary(&out, &models.RunStats{
		TotalProcessed: 5,
		Successful:     4,
		Failed:         1,
		AvgConfidence:  82.5,
		TotalTokens:    6000,
		TotalCost:      0.09,
	}, 90*time.Second)

	s := out.String()
	assert.Contains(t, s, "Processed:       5")
	assert.Contains(t, s, "Avg confidence:  82.5%")
	assert.Contains(t, s, "$0.0900")
	assert.Contains(t, s, "1m30s")
}
