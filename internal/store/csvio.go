package store

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/contesa/callanalyzer/internal/fileutil"
	"github.com/contesa/callanalyzer/internal/textutil"
	"github.com/contesa/callanalyzer/pkg/models"
)

// ImportTranscriptionsCSV loads call transcripts from a CSV with at least a
// file_name and a transcription column. The file name doubles as the call_id.
// Rows with empty or "ERROR:"-prefixed transcripts are skipped, as are rows
// whose transcript hash matches what is already stored.
func (s *SQLiteStore) ImportTranscriptionsCSV(ctx context.Context, path string) (ImportSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return ImportSummary{}, fmt.Errorf("read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	fileCol, ok := col["file_name"]
	if !ok {
		return ImportSummary{}, fmt.Errorf("csv is missing a file_name column")
	}
	textCol, ok := col["transcription"]
	if !ok {
		return ImportSummary{}, fmt.Errorf("csv is missing a transcription column")
	}
	durationCol, hasDuration := col["duration_seconds"]

	var summary ImportSummary
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return summary, fmt.Errorf("read csv row: %w", err)
		}

		field := func(i int) string {
			if i < len(record) {
				return strings.TrimSpace(record[i])
			}
			return ""
		}

		fileName := field(fileCol)
		transcription := field(textCol)
		if fileName == "" || transcription == "" || strings.HasPrefix(transcription, "ERROR:") {
			summary.Skipped++
			continue
		}

		sum := sha256.Sum256([]byte(transcription))
		hashValue := hex.EncodeToString(sum[:])

		existing, err := s.GetTranscription(ctx, fileName)
		switch {
		case err == nil && existing.HashValue == hashValue:
			summary.Skipped++
			continue
		case err != nil && !errors.Is(err, ErrNotFound):
			return summary, err
		}
		updating := err == nil

		duration := 0
		if hasDuration {
			if v, convErr := strconv.Atoi(field(durationCol)); convErr == nil {
				duration = v
			}
		}

		rec := models.TranscriptionRecord{
			CallID:          fileName,
			FileName:        fileName,
			CallDate:        textutil.ExtractDateFromFilename(fileName),
			DurationSeconds: duration,
			Transcription:   transcription,
			HashValue:       hashValue,
		}
		if err := s.UpsertTranscription(ctx, rec); err != nil {
			slog.Warn("failed to import transcription", "call_id", fileName, "error", err)
			summary.Errors++
			continue
		}
		if updating {
			summary.Updated++
		} else {
			summary.Imported++
		}
	}

	slog.Info("csv import finished",
		"file", path,
		"imported", summary.Imported,
		"updated", summary.Updated,
		"skipped", summary.Skipped,
		"errors", summary.Errors,
	)
	return summary, nil
}

// ExportCSV dumps one table to a CSV file. Any existing file at outPath is
// copied into backupDir first, and the new file is written atomically.
func (s *SQLiteStore) ExportCSV(ctx context.Context, table, outPath, backupDir string) error {
	cols, rows, err := s.DumpTable(ctx, table)
	if err != nil {
		return err
	}

	if backupDir != "" {
		backupPath, err := fileutil.BackupExisting(outPath, backupDir)
		if err != nil {
			return err
		}
		if backupPath != "" {
			slog.Info("backed up previous export", "backup", backupPath)
		}
	}

	return fileutil.WriteAtomic(outPath, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(cols); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
		for _, row := range rows {
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
		cw.Flush()
		return cw.Error()
	})
}
