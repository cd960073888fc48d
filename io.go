// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 17th 2026
// Project: A Monte Carlo Study of Robust Regression under Heavy-Tailed Noise
// Class: 02-613 at Caregie Mellon University

package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/xuri/excelize/v2"
	_ "modernc.org/sqlite" // SQLite driver
)

// Table formats picked from the file extension
const (
	FormatCSV    = "csv"
	FormatGzip   = "csv.gz"
	FormatZstd   = "csv.zst"
	FormatLZ4    = "csv.lz4"
	FormatSQLite = "sqlite"
	FormatXLSX   = "xlsx"
)

// xlsxSheet is the sheet holding the results in a workbook
const xlsxSheet = "results"

// TableFormat maps a path onto one of the supported formats, CSV by default
func TableFormat(path string) string {
	p := strings.ToLower(path)
	switch {
	case strings.HasSuffix(p, ".gz"):
		return FormatGzip
	case strings.HasSuffix(p, ".zst"):
		return FormatZstd
	case strings.HasSuffix(p, ".lz4"):
		return FormatLZ4
	case strings.HasSuffix(p, ".db"), strings.HasSuffix(p, ".sqlite"), strings.HasSuffix(p, ".sqlite3"):
		return FormatSQLite
	case strings.HasSuffix(p, ".xlsx"):
		return FormatXLSX
	default:
		return FormatCSV
	}
}

// SaveResults persists the table as one file at path.
// Any failure is wrapped in ErrPersist; the table itself is left untouched so
// the caller can retry or dump it elsewhere.
func SaveResults(ctx context.Context, path string, table *ResultTable) error {
	if table == nil {
		return fmt.Errorf("%w: no table to save", ErrPersist)
	}
	if err := saveResults(ctx, path, table); err != nil {
		return fmt.Errorf("%w %s: %w", ErrPersist, path, err)
	}
	return nil
}

func saveResults(ctx context.Context, path string, table *ResultTable) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}

	switch TableFormat(path) {
	case FormatSQLite:
		return saveSQLite(ctx, path, table)
	case FormatXLSX:
		return saveXLSX(path, table)
	default:
		return writeFile(path, func(w io.Writer) error {
			return writeResultsCSV(w, table)
		})
	}
}

// writeFile creates path, wraps it in the compressor its extension asks for
// and hands the writer to fill
func writeFile(path string, fill func(w io.Writer) error) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	w, err := compressWriter(file, TableFormat(path))
	if err != nil {
		return err
	}
	if err := fill(w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// nopWriteCloser lets plain files share the compressed code path
type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func compressWriter(w io.Writer, format string) (io.WriteCloser, error) {
	switch format {
	case FormatGzip:
		return gzip.NewWriter(w), nil
	case FormatZstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	case FormatLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nopWriteCloser{w}, nil
	}
}

func decompressReader(r io.Reader, format string) (io.ReadCloser, error) {
	switch format {
	case FormatGzip:
		return gzip.NewReader(r)
	case FormatZstd:
		dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case FormatLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return io.NopCloser(r), nil
	}
}

// writeResultsCSV writes the header followed by one line per record
func writeResultsCSV(w io.Writer, table *ResultTable) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(RecordHeader()); err != nil {
		return err
	}
	for _, rec := range table.Records {
		if err := writer.Write(rec.Fields()); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// DumpFallback writes the table as plain CSV into the temp directory.
// It is the last resort when the configured output could not be written.
func DumpFallback(table *ResultTable) (string, error) {
	f, err := os.CreateTemp("", "tailsim-results-*.csv")
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := writeResultsCSV(f, table); err != nil {
		return f.Name(), err
	}
	return f.Name(), nil
}

// LoadResults reads a table written by SaveResults.
// For SQLite files the most recent run is returned.
func LoadResults(ctx context.Context, path string) (*ResultTable, error) {
	switch TableFormat(path) {
	case FormatSQLite:
		return loadSQLite(ctx, path)
	case FormatXLSX:
		return loadXLSX(path)
	}

	// 1. Open file
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rc, err := decompressReader(f, TableFormat(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer rc.Close()

	// 2. Read rows
	r := csv.NewReader(rc)
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return tableFromRows(path, rows)
}

// tableFromRows checks the header and parses the remaining rows
func tableFromRows(path string, rows [][]string) (*ResultTable, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty results table in %s", path)
	}
	if !slices.Equal(rows[0], RecordHeader()) {
		return nil, fmt.Errorf("unexpected header in %s: %v", path, rows[0])
	}

	table := &ResultTable{Records: make([]ResultRecord, 0, len(rows)-1)}
	for i, fields := range rows[1:] {
		// Skip completely empty lines
		if len(fields) == 1 && fields[0] == "" {
			continue
		}
		rec, err := parseRecord(fields)
		if err != nil {
			return nil, fmt.Errorf("row %d of %s: %w", i+2, path, err) // +2 for header + 1-based
		}
		table.Append(rec)
	}
	return table, nil
}

// --- SQLite ---

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id     TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	row_count  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS results (
	run_id       TEXT NOT NULL REFERENCES runs(run_id),
	row_id       INTEGER NOT NULL,
	n            INTEGER NOT NULL,
	p            INTEGER NOT NULL,
	gamma        REAL NOT NULL,
	rho          REAL NOT NULL,
	df           REAL NOT NULL,
	snr          REAL NOT NULL,
	replicate_id INTEGER NOT NULL,
	seed         TEXT NOT NULL,
	method       TEXT NOT NULL,
	mse          REAL,
	converged    INTEGER NOT NULL,
	iterations   INTEGER NOT NULL,
	status       TEXT NOT NULL,
	PRIMARY KEY (run_id, row_id)
);`

func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer
	return db, nil
}

// saveSQLite appends the table as a new run
func saveSQLite(ctx context.Context, path string, table *ResultTable) error {
	db, err := openSQLite(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}

	runID := table.RunID
	if runID == "" {
		runID = fmt.Sprintf("run-%d", time.Now().UnixNano())
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, created_at, row_count) VALUES (?, ?, ?)`,
		runID, time.Now().UTC().Format(time.RFC3339Nano), len(table.Records)); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO results
		(run_id, row_id, n, p, gamma, rho, df, snr, replicate_id, seed, method, mse, converged, iterations, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range table.Records {
		var mse sql.NullFloat64
		if !math.IsNaN(rec.MSE) {
			mse = sql.NullFloat64{Float64: rec.MSE, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			runID, i, rec.N, rec.P, rec.Gamma, rec.Rho, rec.DF, rec.SNR,
			rec.Replicate, strconv.FormatUint(rec.Seed, 10), rec.Method, mse,
			rec.Converged, rec.Iterations, rec.Status); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// loadSQLite reads back the most recently saved run
func loadSQLite(ctx context.Context, path string) (*ResultTable, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db, err := openSQLite(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var runID string
	if err := db.QueryRowContext(ctx,
		`SELECT run_id FROM runs ORDER BY rowid DESC LIMIT 1`).Scan(&runID); err != nil {
		return nil, fmt.Errorf("latest run in %s: %w", path, err)
	}

	rows, err := db.QueryContext(ctx, `SELECT
		n, p, gamma, rho, df, snr, replicate_id, seed, method, mse, converged, iterations, status
		FROM results WHERE run_id = ? ORDER BY row_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	table := &ResultTable{RunID: runID}
	for rows.Next() {
		var (
			rec  ResultRecord
			seed string
			mse  sql.NullFloat64
		)
		if err := rows.Scan(&rec.N, &rec.P, &rec.Gamma, &rec.Rho, &rec.DF, &rec.SNR,
			&rec.Replicate, &seed, &rec.Method, &mse, &rec.Converged, &rec.Iterations, &rec.Status); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if rec.Seed, err = strconv.ParseUint(seed, 10, 64); err != nil {
			return nil, fmt.Errorf("seed %q: %w", seed, err)
		}
		rec.MSE = math.NaN()
		if mse.Valid {
			rec.MSE = mse.Float64
		}
		table.Append(rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return table, nil
}

// --- Excel ---

// saveXLSX writes the table to the "results" sheet as text cells, so seeds and
// non-finite values survive the round trip unchanged
func saveXLSX(path string, table *ResultTable) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	writeRow := func(row int, fields []string) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(fields))
		for i, v := range fields {
			values[i] = v
		}
		return f.SetSheetRow(xlsxSheet, cell, &values)
	}

	if err := writeRow(1, RecordHeader()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, rec := range table.Records {
		if err := writeRow(i+2, rec.Fields()); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	return f.SaveAs(path)
}

func loadXLSX(path string) (*ResultTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(xlsxSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", xlsxSheet, err)
	}
	return tableFromRows(path, rows)
}

// --- Summary output ---

// SummaryHeader is the column order of the summary table
func SummaryHeader() []string {
	return []string{
		"method", "gamma", "snr", "df",
		"count", "valid", "not_converged",
		"mean_mse", "median_mse", "lower_mse", "upper_mse", "alpha",
	}
}

// SaveSummary writes summary rows as CSV (compressed if the extension asks for it)
func SaveSummary(path string, rows []SummaryRow) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w %s: %w", ErrPersist, path, err)
		}
	}

	err := writeFile(path, func(w io.Writer) error {
		writer := csv.NewWriter(w)
		if err := writer.Write(SummaryHeader()); err != nil {
			return err
		}
		for _, s := range rows {
			record := []string{
				s.Method,
				formatFloat(s.Gamma),
				formatFloat(s.SNR),
				formatFloat(s.DF),
				strconv.Itoa(s.Count),
				strconv.Itoa(s.Valid),
				strconv.Itoa(s.NotConverg),
				formatFloat(s.MeanMSE),
				formatFloat(s.MedianMSE),
				formatFloat(s.LowerMSE),
				formatFloat(s.UpperMSE),
				formatFloat(s.Alpha),
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
		writer.Flush()
		return writer.Error()
	})
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrPersist, path, err)
	}
	return nil
}

// PrintSummary prints the summary as an aligned table
func PrintSummary(w io.Writer, rows []SummaryRow) {
	fmt.Fprintln(w, "\n=== Mean MSE by cell ===")
	fmt.Fprintf(w, "%-6s %6s %6s %6s | %5s | %12s | %25s\n",
		"Method", "gamma", "snr", "df", "valid", "mean mse", "bootstrap CI")
	fmt.Fprintln(w, strings.Repeat("-", 84))

	for _, s := range rows {
		fmt.Fprintf(w, "%-6s %6s %6s %6s | %5d | %12.6f | [%10.6f, %10.6f]\n",
			s.Method, formatFloat(s.Gamma), formatFloat(s.SNR), formatFloat(s.DF),
			s.Valid, s.MeanMSE, s.LowerMSE, s.UpperMSE)
	}
	fmt.Fprintln(w)
}
