// Package report renders database summary statistics for the terminal.
package report

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/contesa/callanalyzer/internal/store"
)

// Write renders the summary report for the store's current contents.
func Write(ctx context.Context, w io.Writer, st store.Store) error {
	stats, err := st.SummaryStatistics(ctx)
	if err != nil {
		return fmt.Errorf("load summary statistics: %w", err)
	}

	fmt.Fprintln(w, "Call Analysis Database Report")
	fmt.Fprintln(w)

	overview := newTable(w)
	overview.AppendHeader(table.Row{"Metric", "Value"})
	overview.AppendRow(table.Row{"Transcriptions", stats.TotalTranscriptions})
	overview.AppendRow(table.Row{"Analyzed", stats.TotalAnalyzed})
	overview.AppendRow(table.Row{"Completed", stats.CompletedAnalyses})
	overview.AppendRow(table.Row{"Failed", stats.FailedAnalyses})
	overview.AppendRow(table.Row{"Avg confidence", fmt.Sprintf("%.1f%%", stats.AvgConfidence)})
	overview.AppendRow(table.Row{"Avg processing time", fmt.Sprintf("%.0f ms", stats.AvgProcessingTime)})
	overview.Render()

	if len(stats.IssueCategories) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Issues by category")
		categories := newTable(w)
		categories.AppendHeader(table.Row{"Category", "Count"})
		for _, c := range stats.IssueCategories {
			categories.AppendRow(table.Row{c.Name, c.Count})
		}
		categories.Render()
	}

	if len(stats.SeverityBreakdown) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Issues by severity")
		severities := newTable(w)
		severities.AppendHeader(table.Row{"Severity", "Count"})
		for _, c := range stats.SeverityBreakdown {
			severities.AppendRow(table.Row{c.Name, c.Count})
		}
		severities.Render()
	}

	return nil
}

func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw
}
