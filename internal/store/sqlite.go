package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/contesa/callanalyzer/internal/config"
	"github.com/contesa/callanalyzer/pkg/models"
)

// SQLiteStore implements Store on top of a local SQLite file.
type SQLiteStore struct {
	db   *sql.DB
	pool *connPool
	path string
}

// Open opens (and creates, if needed) the SQLite database at cfg.Path,
// applies migrations and verifies connectivity.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*SQLiteStore, error) {
	dsn := "file:" + cfg.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConnections)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(cfg.Path); err != nil {
		db.Close()
		return nil, err
	}

	slog.Info("database ready",
		"path", cfg.Path,
		"max_connections", cfg.MaxConnections,
	)

	return &SQLiteStore{
		db:   db,
		pool: newConnPool(db, cfg.MaxConnections, cfg.AcquireTimeout),
		path: cfg.Path,
	}, nil
}

// Close releases the pool and the underlying database handle.
func (s *SQLiteStore) Close() error {
	if err := s.pool.Close(); err != nil {
		return err
	}
	return s.db.Close()
}

// UpsertTranscription inserts the record or, when the call_id already
// exists, overwrites every mutable column with the new values.
func (s *SQLiteStore) UpsertTranscription(ctx context.Context, rec models.TranscriptionRecord) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Release(conn)

	importTS := rec.ImportTimestamp
	if importTS == "" {
		importTS = now()
	}

	_, err = conn.ExecContext(ctx, `
		INSERT INTO transcriptions
			(call_id, file_name, call_date, duration_seconds, transcription,
			 import_timestamp, hash_value, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(call_id) DO UPDATE SET
			file_name        = excluded.file_name,
			call_date        = excluded.call_date,
			duration_seconds = excluded.duration_seconds,
			transcription    = excluded.transcription,
			import_timestamp = excluded.import_timestamp,
			hash_value       = excluded.hash_value,
			notes            = excluded.notes`,
		rec.CallID, rec.FileName, rec.CallDate, rec.DurationSeconds,
		rec.Transcription, importTS, rec.HashValue, rec.Notes,
	)
	if err != nil {
		return fmt.Errorf("upsert transcription %s: %w", rec.CallID, err)
	}
	return nil
}

// GetTranscription fetches a transcription by call_id.
func (s *SQLiteStore) GetTranscription(ctx context.Context, callID string) (models.TranscriptionRecord, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return models.TranscriptionRecord{}, err
	}
	defer s.pool.Release(conn)

	row := conn.QueryRowContext(ctx, `
		SELECT id, call_id, file_name, COALESCE(call_date, ''), COALESCE(duration_seconds, 0),
		       COALESCE(transcription, ''), COALESCE(import_timestamp, ''),
		       COALESCE(hash_value, ''), COALESCE(notes, '')
		FROM transcriptions WHERE call_id = ?`, callID)

	var rec models.TranscriptionRecord
	err = row.Scan(&rec.ID, &rec.CallID, &rec.FileName, &rec.CallDate,
		&rec.DurationSeconds, &rec.Transcription, &rec.ImportTimestamp,
		&rec.HashValue, &rec.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TranscriptionRecord{}, ErrNotFound
	}
	if err != nil {
		return models.TranscriptionRecord{}, fmt.Errorf("get transcription %s: %w", callID, err)
	}
	return rec, nil
}

// PendingTranscriptions returns transcriptions that still need analysis:
// those with no analysis row, or with a non-completed one. With reanalyze
// set, every transcription is returned regardless of analysis state.
// A limit <= 0 means no limit.
func (s *SQLiteStore) PendingTranscriptions(ctx context.Context, reanalyze bool, limit int) ([]models.TranscriptionRecord, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Release(conn)

	query := `
		SELECT t.id, t.call_id, t.file_name, COALESCE(t.call_date, ''),
		       COALESCE(t.duration_seconds, 0), COALESCE(t.transcription, ''),
		       COALESCE(t.import_timestamp, ''), COALESCE(t.hash_value, ''),
		       COALESCE(t.notes, '')
		FROM transcriptions t
		LEFT JOIN analysis_results a ON a.call_id = t.call_id`
	if !reanalyze {
		query += `
		WHERE a.call_id IS NULL OR a.analysis_status != 'completed'`
	}
	query += `
		ORDER BY t.import_timestamp DESC, t.id DESC`

	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pending transcriptions: %w", err)
	}
	defer rows.Close()

	var recs []models.TranscriptionRecord
	for rows.Next() {
		var rec models.TranscriptionRecord
		if err := rows.Scan(&rec.ID, &rec.CallID, &rec.FileName, &rec.CallDate,
			&rec.DurationSeconds, &rec.Transcription, &rec.ImportTimestamp,
			&rec.HashValue, &rec.Notes); err != nil {
			return nil, fmt.Errorf("scan transcription: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transcriptions: %w", err)
	}
	return recs, nil
}

// SaveAnalysisResult writes the analysis row for a call, replacing any
// previous analysis of the same call. The referenced transcription must
// already exist.
func (s *SQLiteStore) SaveAnalysisResult(ctx context.Context, res models.AnalysisResult) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Release(conn)

	var exists int
	err = conn.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM transcriptions WHERE call_id = ?", res.CallID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check transcription %s: %w", res.CallID, err)
	}
	if exists == 0 {
		return fmt.Errorf("save analysis for %s: %w", res.CallID, ErrMissingCallID)
	}

	ts := res.AnalysisTimestamp
	if ts == "" {
		ts = now()
	}

	_, err = conn.ExecContext(ctx, `
		INSERT INTO analysis_results
			(call_id, call_date, analysis_status, api_error,
			 primary_issue_category, specific_issue, issue_status, issue_severity,
			 caller_type, experience_level, caller_intent,
			 system_portal, device_information, error_messages, feature_involved,
			 issue_preconditions, action_sequence, failure_point, expected_vs_actual, issue_frequency,
			 attempted_solutions, resolution_steps, knowledge_gap_identified,
			 issue_description_quote, impact_statement_quote, issue_summary,
			 raw_response, confidence_score, analysis_timestamp, processing_time_ms, model, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(call_id) DO UPDATE SET
			call_date                = excluded.call_date,
			analysis_status          = excluded.analysis_status,
			api_error                = excluded.api_error,
			primary_issue_category   = excluded.primary_issue_category,
			specific_issue           = excluded.specific_issue,
			issue_status             = excluded.issue_status,
			issue_severity           = excluded.issue_severity,
			caller_type              = excluded.caller_type,
			experience_level         = excluded.experience_level,
			caller_intent            = excluded.caller_intent,
			system_portal            = excluded.system_portal,
			device_information       = excluded.device_information,
			error_messages           = excluded.error_messages,
			feature_involved         = excluded.feature_involved,
			issue_preconditions      = excluded.issue_preconditions,
			action_sequence          = excluded.action_sequence,
			failure_point            = excluded.failure_point,
			expected_vs_actual       = excluded.expected_vs_actual,
			issue_frequency          = excluded.issue_frequency,
			attempted_solutions      = excluded.attempted_solutions,
			resolution_steps         = excluded.resolution_steps,
			knowledge_gap_identified = excluded.knowledge_gap_identified,
			issue_description_quote  = excluded.issue_description_quote,
			impact_statement_quote   = excluded.impact_statement_quote,
			issue_summary            = excluded.issue_summary,
			raw_response             = excluded.raw_response,
			confidence_score         = excluded.confidence_score,
			analysis_timestamp       = excluded.analysis_timestamp,
			processing_time_ms       = excluded.processing_time_ms,
			model                    = excluded.model,
			note                     = excluded.note`,
		res.CallID, res.CallDate, res.AnalysisStatus, res.APIError,
		res.PrimaryIssueCategory, res.SpecificIssue, res.IssueStatus, res.IssueSeverity,
		res.CallerType, res.ExperienceLevel, res.CallerIntent,
		res.SystemPortal, res.DeviceInformation, res.ErrorMessages, res.FeatureInvolved,
		res.IssuePreconditions, res.ActionSequence, res.FailurePoint, res.ExpectedVsActual, res.IssueFrequency,
		res.AttemptedSolutions, res.ResolutionSteps, res.KnowledgeGapIdentified,
		res.IssueDescriptionQuote, res.ImpactStatementQuote, res.IssueSummary,
		res.RawResponse, res.ConfidenceScore, ts, res.ProcessingTimeMS, res.Model, res.Note,
	)
	if err != nil {
		return fmt.Errorf("save analysis result %s: %w", res.CallID, err)
	}
	return nil
}

const analysisColumns = `
	id, call_id, COALESCE(call_date, ''), analysis_status, COALESCE(api_error, ''),
	COALESCE(primary_issue_category, ''), COALESCE(specific_issue, ''),
	COALESCE(issue_status, ''), COALESCE(issue_severity, ''),
	COALESCE(caller_type, ''), COALESCE(experience_level, ''), COALESCE(caller_intent, ''),
	COALESCE(system_portal, ''), COALESCE(device_information, ''),
	COALESCE(error_messages, ''), COALESCE(feature_involved, ''),
	COALESCE(issue_preconditions, ''), COALESCE(action_sequence, ''),
	COALESCE(failure_point, ''), COALESCE(expected_vs_actual, ''), COALESCE(issue_frequency, ''),
	COALESCE(attempted_solutions, ''), COALESCE(resolution_steps, ''),
	COALESCE(knowledge_gap_identified, ''),
	COALESCE(issue_description_quote, ''), COALESCE(impact_statement_quote, ''),
	COALESCE(issue_summary, ''), COALESCE(raw_response, ''),
	COALESCE(confidence_score, 0), COALESCE(analysis_timestamp, ''),
	COALESCE(processing_time_ms, 0), COALESCE(model, ''), COALESCE(note, '')`

func scanAnalysisResult(row interface{ Scan(...any) error }) (models.AnalysisResult, error) {
	var res models.AnalysisResult
	err := row.Scan(&res.ID, &res.CallID, &res.CallDate, &res.AnalysisStatus, &res.APIError,
		&res.PrimaryIssueCategory, &res.SpecificIssue,
		&res.IssueStatus, &res.IssueSeverity,
		&res.CallerType, &res.ExperienceLevel, &res.CallerIntent,
		&res.SystemPortal, &res.DeviceInformation,
		&res.ErrorMessages, &res.FeatureInvolved,
		&res.IssuePreconditions, &res.ActionSequence,
		&res.FailurePoint, &res.ExpectedVsActual, &res.IssueFrequency,
		&res.AttemptedSolutions, &res.ResolutionSteps,
		&res.KnowledgeGapIdentified,
		&res.IssueDescriptionQuote, &res.ImpactStatementQuote,
		&res.IssueSummary, &res.RawResponse,
		&res.ConfidenceScore, &res.AnalysisTimestamp,
		&res.ProcessingTimeMS, &res.Model, &res.Note)
	return res, err
}

// GetAnalysisResult fetches the analysis row for a call_id.
func (s *SQLiteStore) GetAnalysisResult(ctx context.Context, callID string) (models.AnalysisResult, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return models.AnalysisResult{}, err
	}
	defer s.pool.Release(conn)

	row := conn.QueryRowContext(ctx,
		"SELECT "+analysisColumns+" FROM analysis_results WHERE call_id = ?", callID)

	res, err := scanAnalysisResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AnalysisResult{}, ErrNotFound
	}
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("get analysis result %s: %w", callID, err)
	}
	return res, nil
}

// ListAnalysisResults returns analysis rows matching the filter, newest first.
func (s *SQLiteStore) ListAnalysisResults(ctx context.Context, filter ResultFilter) ([]models.AnalysisResult, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Release(conn)

	query := "SELECT " + analysisColumns + " FROM analysis_results WHERE 1=1"
	var args []any
	if filter.Status != "" {
		query += " AND analysis_status = ?"
		args = append(args, filter.Status)
	}
	if filter.Category != "" {
		query += " AND primary_issue_category = ?"
		args = append(args, filter.Category)
	}
	query += " ORDER BY analysis_timestamp DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query analysis results: %w", err)
	}
	defer rows.Close()

	var results []models.AnalysisResult
	for rows.Next() {
		res, err := scanAnalysisResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis result: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analysis results: %w", err)
	}
	return results, nil
}

// SaveRunStats appends one row of run statistics.
func (s *SQLiteStore) SaveRunStats(ctx context.Context, stats models.RunStats) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Release(conn)

	_, err = conn.ExecContext(ctx, `
		INSERT INTO analysis_stats
			(run_date, total_processed, successful, failed, avg_confidence,
			 avg_processing_time, model, batch_size, total_tokens, total_cost)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		now(), stats.TotalProcessed, stats.Successful, stats.Failed,
		stats.AvgConfidence, stats.AvgProcessingTime, stats.Model,
		stats.BatchSize, stats.TotalTokens, stats.TotalCost,
	)
	if err != nil {
		return fmt.Errorf("save run stats: %w", err)
	}
	return nil
}

// SummaryStatistics computes the aggregate view used by reporting.
func (s *SQLiteStore) SummaryStatistics(ctx context.Context) (models.SummaryStats, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return models.SummaryStats{}, err
	}
	defer s.pool.Release(conn)

	var stats models.SummaryStats
	err = conn.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM transcriptions),
			(SELECT COUNT(*) FROM analysis_results),
			(SELECT COUNT(*) FROM analysis_results WHERE analysis_status = 'completed'),
			(SELECT COUNT(*) FROM analysis_results WHERE analysis_status = 'failed'),
			(SELECT COALESCE(AVG(confidence_score), 0) FROM analysis_results WHERE analysis_status = 'completed'),
			(SELECT COALESCE(AVG(processing_time_ms), 0) FROM analysis_results WHERE analysis_status = 'completed')`,
	).Scan(&stats.TotalTranscriptions, &stats.TotalAnalyzed,
		&stats.CompletedAnalyses, &stats.FailedAnalyses,
		&stats.AvgConfidence, &stats.AvgProcessingTime)
	if err != nil {
		return models.SummaryStats{}, fmt.Errorf("query summary counts: %w", err)
	}

	stats.IssueCategories, err = s.groupedCounts(ctx, conn, "primary_issue_category")
	if err != nil {
		return models.SummaryStats{}, err
	}
	stats.SeverityBreakdown, err = s.groupedCounts(ctx, conn, "issue_severity")
	if err != nil {
		return models.SummaryStats{}, err
	}
	return stats, nil
}

func (s *SQLiteStore) groupedCounts(ctx context.Context, conn *sql.Conn, column string) ([]models.CategoryCount, error) {
	rows, err := conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s, COUNT(*) FROM analysis_results
		WHERE %s IS NOT NULL AND %s != ''
		GROUP BY %s ORDER BY COUNT(*) DESC`, column, column, column, column))
	if err != nil {
		return nil, fmt.Errorf("group by %s: %w", column, err)
	}
	defer rows.Close()

	var counts []models.CategoryCount
	for rows.Next() {
		var c models.CategoryCount
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, fmt.Errorf("scan %s count: %w", column, err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// exportableTables guards DumpTable against arbitrary table names.
var exportableTables = map[string]bool{
	"transcriptions":   true,
	"analysis_results": true,
	"analysis_stats":   true,
}

// DumpTable returns the column names and all rows of one of the known
// tables, every value rendered as a string.
func (s *SQLiteStore) DumpTable(ctx context.Context, table string) ([]string, [][]string, error) {
	if !exportableTables[table] {
		return nil, nil, fmt.Errorf("unknown table %q", table)
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer s.pool.Release(conn)

	rows, err := conn.QueryContext(ctx, "SELECT * FROM "+table)
	if err != nil {
		return nil, nil, fmt.Errorf("dump %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("columns of %s: %w", table, err)
	}

	var out [][]string
	values := make([]sql.NullString, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("scan %s row: %w", table, err)
		}
		record := make([]string, len(cols))
		for i, v := range values {
			if v.Valid {
				record[i] = v.String
			}
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return cols, out, nil
}

func now() string {
	return time.Now().Format("2006-01-02 15:04:05")
}
