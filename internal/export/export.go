// Package export writes database tables to CSV, JSON or XLSX files.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/contesa/callanalyzer/internal/config"
	"github.com/contesa/callanalyzer/internal/fileutil"
)

// Source is the store surface exports read from.
type Source interface {
	DumpTable(ctx context.Context, table string) ([]string, [][]string, error)
	ExportCSV(ctx context.Context, table, outPath, backupDir string) error
}

// Table exports one table in the given format. When output is empty the
// file lands in cfg.Dir under a timestamped name,
// <table>_<YYYYMMDD_HHMMSS>.<format>. The path written is returned.
func Table(ctx context.Context, src Source, cfg config.ExportConfig, table, format, output string) (string, error) {
	if output == "" {
		output = filepath.Join(cfg.Dir,
			fmt.Sprintf("%s_%s.%s", table, time.Now().Format("20060102_150405"), format))
	}

	switch format {
	case "csv":
		if err := src.ExportCSV(ctx, table, output, cfg.BackupsDir); err != nil {
			return "", err
		}
	case "json":
		if err := writeJSON(ctx, src, cfg, table, output); err != nil {
			return "", err
		}
	case "xlsx":
		if err := writeXLSX(ctx, src, cfg, table, output); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("unsupported export format %q (want csv, json or xlsx)", format)
	}

	slog.Info("table exported", "table", table, "format", format, "output", output)
	return output, nil
}

func writeJSON(ctx context.Context, src Source, cfg config.ExportConfig, table, output string) error {
	cols, rows, err := src.DumpTable(ctx, table)
	if err != nil {
		return err
	}

	records := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		record := make(map[string]string, len(cols))
		for i, col := range cols {
			record[col] = row[i]
		}
		records = append(records, record)
	}

	if _, err := fileutil.BackupExisting(output, cfg.BackupsDir); err != nil {
		return err
	}
	return fileutil.WriteAtomic(output, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	})
}

func writeXLSX(ctx context.Context, src Source, cfg config.ExportConfig, table, output string) error {
	cols, rows, err := src.DumpTable(ctx, table)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	for i, col := range cols {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("write row %d: %w", r+1, err)
			}
		}
	}

	if _, err := fileutil.BackupExisting(output, cfg.BackupsDir); err != nil {
		return err
	}
	return fileutil.WriteAtomic(output, func(w io.Writer) error {
		_, err := f.WriteTo(w)
		return err
	})
}
