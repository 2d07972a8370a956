// Package facts reads long-form financial facts from joined tab or comma
// separated files: one row per reported number with the columns
//
//	adsh coreg report tag version ddate uom value line negating [stmt]
//
// Missing values (empty, NaN, null) are kept as missing facts. Rows that
// cannot be parsed are collected with their location and skipped, up to a
// configurable limit.
//
// Example usage:
//
//	reader, err := facts.NewReader(facts.DefaultConfig())
//	list, stats, err := reader.ReadFile(ctx, "bs_facts.tsv")
package facts

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang-fact-standardizer/internal/models"
	"golang-fact-standardizer/pkg/errors"
	"golang-fact-standardizer/pkg/logger"
)

// BatchCallback receives facts in batches while streaming
type BatchCallback func(batch []*models.Fact) error

// ReadStats holds statistics about a read operation
type ReadStats struct {
	Lines    int               `json:"lines"`
	Records  int               `json:"records"`
	Facts    int               `json:"facts"`
	Filtered int               `json:"filtered"`
	Skipped  int               `json:"skipped"`
	Errors   []*errors.RowError `json:"-"`
}

// HasErrors returns true if any row was rejected
func (s *ReadStats) HasErrors() bool {
	return len(s.Errors) > 0
}

// String returns a human-readable summary of read statistics
func (s *ReadStats) String() string {
	return fmt.Sprintf("Read %d lines, %d records, %d facts (%d filtered, %d skipped)",
		s.Lines, s.Records, s.Facts, s.Filtered, s.Skipped)
}

// SampleErrors returns up to max error messages for logging
func (s *ReadStats) SampleErrors(max int) []string {
	limit := len(s.Errors)
	if max > 0 && max < limit {
		limit = max
	}
	samples := make([]string, 0, limit)
	for _, err := range s.Errors[:limit] {
		samples = append(samples, err.Error())
	}
	return samples
}

// Reader parses fact files
type Reader struct {
	config *Config
	logger logger.Logger
}

// NewReader creates a new Reader with the given configuration
func NewReader(config *Config) (*Reader, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "facts reader", config, err)
	}
	return &Reader{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("facts_reader"),
	}, nil
}

// WithLogger replaces the component logger
func (r *Reader) WithLogger(l logger.Logger) *Reader {
	r.logger = l.WithComponent("facts_reader")
	return r
}

// ReadFile reads every fact of path into memory
func (r *Reader) ReadFile(ctx context.Context, path string) ([]*models.Fact, *ReadStats, error) {
	file, err := r.open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()
	return r.Read(ctx, file, path)
}

// Read reads every fact of src. name is used for the delimiter choice and
// error locations.
func (r *Reader) Read(ctx context.Context, src io.Reader, name string) ([]*models.Fact, *ReadStats, error) {
	var all []*models.Fact
	stats, err := r.Stream(ctx, src, name, func(batch []*models.Fact) error {
		all = append(all, batch...)
		return nil
	})
	if err != nil {
		return nil, stats, err
	}
	return all, stats, nil
}

// StreamFile streams the facts of path in batches
func (r *Reader) StreamFile(ctx context.Context, path string, callback BatchCallback) (*ReadStats, error) {
	file, err := r.open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return r.Stream(ctx, file, path, callback)
}

// Stream parses src and hands the facts to callback in batches of
// Config.BatchSize.
func (r *Reader) Stream(ctx context.Context, src io.Reader, name string, callback BatchCallback) (*ReadStats, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	stats := &ReadStats{}
	reader := csv.NewReader(src)
	reader.Comma = r.config.delimiterFor(name)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return stats, errors.ValidationError(errors.CodeMissingField, "file_content", "empty", nil).
			WithSuggestion("Ensure the file contains a header row")
	}
	if err != nil {
		return stats, errors.ParseError(errors.CodeInvalidFormat, name, 1, "header", "", err)
	}
	stats.Lines++

	columns := indexColumns(header)
	if missing := missingColumns(columns); len(missing) > 0 {
		rowErr := errors.MissingColumnsError(name, RequiredColumns, header)
		stats.Errors = append(stats.Errors, rowErr)
		r.logger.WithFields(logger.Fields{"file": name, "missing": missing}).Error("Required columns are missing")
		return stats, rowErr.StandardizerError
	}
	if r.config.Statement != "" && columns[ColumnStmt] < 0 {
		return stats, errors.ParseError(errors.CodeMissingColumn, name, 1, ColumnStmt, "", nil).
			WithSuggestion("Statement filtering needs a stmt column; drop the filter or add the column")
	}

	collector := errors.NewRowErrorCollector(r.config.MaxErrors)
	batch := make([]*models.Fact, 0, r.config.BatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := callback(batch); err != nil {
			return err
		}
		stats.Facts += len(batch)
		batch = make([]*models.Fact, 0, r.config.BatchSize)
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return stats, errors.StandardizationError(errors.CodeCancelled, "reading "+name, err)
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		stats.Lines++
		if err != nil {
			rowErr := errors.NewRowError(errors.CodeInvalidFormat, &errors.ParseContext{File: name, Line: stats.Lines}, "malformed record", err)
			stats.Errors = append(stats.Errors, rowErr)
			stats.Skipped++
			if !r.config.SkipInvalidRows || !collector.Add(rowErr) {
				return stats, r.abort(name, collector, rowErr)
			}
			continue
		}
		if isEmptyRecord(record) {
			continue
		}
		stats.Records++

		if r.config.Statement != "" && !strings.EqualFold(field(record, columns, ColumnStmt), r.config.Statement) {
			stats.Filtered++
			continue
		}

		fact, rowErr := r.parseRecord(record, columns, name, stats.Lines)
		if rowErr != nil {
			stats.Errors = append(stats.Errors, rowErr)
			stats.Skipped++
			r.logger.WithError(rowErr).Debug("Skipping invalid row")
			if !r.config.SkipInvalidRows || !collector.Add(rowErr) {
				return stats, r.abort(name, collector, rowErr)
			}
			continue
		}

		batch = append(batch, fact)
		if len(batch) >= r.config.BatchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}
	if err := flush(); err != nil {
		return stats, err
	}

	fields := logger.Fields{
		"file":     name,
		"facts":    stats.Facts,
		"filtered": stats.Filtered,
		"skipped":  stats.Skipped,
	}
	if stats.HasErrors() {
		r.logger.WithFields(fields).WithField("sample_errors", stats.SampleErrors(3)).Warn("Read facts with invalid rows")
	} else {
		r.logger.WithFields(fields).Info("Read facts")
	}
	return stats, nil
}

func (r *Reader) abort(name string, collector *errors.RowErrorCollector, last *errors.RowError) error {
	if !r.config.SkipInvalidRows || !collector.HasErrors() {
		return last.StandardizerError
	}
	summary := collector.Summary()
	return errors.Wrap(summary, errors.CategoryParse, errors.CodeInvalidData,
		fmt.Sprintf("too many invalid rows in %s: %s", name, summary.Error())).
		WithSuggestion("Fix the reported rows or raise the error limit")
}

func (r *Reader) open(path string) (*os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		r.logger.WithError(err).WithField("file_path", path).Error("Failed to open fact file")
		switch {
		case os.IsNotExist(err):
			return nil, errors.FileError(errors.CodeFileNotFound, path, err)
		case os.IsPermission(err):
			return nil, errors.FileError(errors.CodeFilePermission, path, err)
		default:
			return nil, errors.FileError(errors.CodeDirectoryError, path, err)
		}
	}
	return file, nil
}

// parseRecord converts one record into a fact
func (r *Reader) parseRecord(record []string, columns map[string]int, name string, line int) (*models.Fact, *errors.RowError) {
	invalid := func(column, value, expected string) *errors.RowError {
		return errors.InvalidValueError(name, line, column, value, expected)
	}

	adsh := field(record, columns, ColumnAdsh)
	if adsh == "" {
		return nil, invalid(ColumnAdsh, adsh, "a filing id")
	}
	tag := field(record, columns, ColumnTag)
	if tag == "" {
		return nil, invalid(ColumnTag, tag, "a tag name")
	}

	raw := field(record, columns, ColumnReport)
	report, err := strconv.Atoi(raw)
	if err != nil {
		return nil, invalid(ColumnReport, raw, "an integer")
	}

	raw = field(record, columns, ColumnDate)
	date, err := models.ParseDate(raw)
	if err != nil {
		return nil, invalid(ColumnDate, raw, "a YYYYMMDD date")
	}

	raw = field(record, columns, ColumnValue)
	value, err := models.ParseValue(raw)
	if err != nil {
		return nil, invalid(ColumnValue, raw, "a decimal number")
	}

	presentation := 0
	if raw = field(record, columns, ColumnLine); raw != "" {
		if presentation, err = strconv.Atoi(raw); err != nil {
			return nil, invalid(ColumnLine, raw, "an integer")
		}
	}

	raw = field(record, columns, ColumnNegating)
	negating, err := models.ParseBool(raw)
	if err != nil {
		return nil, invalid(ColumnNegating, raw, "a 0/1 flag")
	}

	unit := field(record, columns, ColumnUnit)
	if unit == "" {
		unit = r.config.DefaultUnit
	}

	return &models.Fact{
		Adsh:     adsh,
		Coreg:    field(record, columns, ColumnCoreg),
		Report:   report,
		Tag:      tag,
		Version:  field(record, columns, ColumnVersion),
		Date:     date,
		Unit:     unit,
		Value:    value,
		Line:     presentation,
		Negating: negating,
		Stmt:     field(record, columns, ColumnStmt),
	}, nil
}

// indexColumns maps every known column to its position, -1 when absent
func indexColumns(header []string) map[string]int {
	columns := make(map[string]int, len(Columns))
	for _, c := range Columns {
		columns[c] = -1
	}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, known := columns[name]; known && columns[name] < 0 {
			columns[name] = i
		}
	}
	return columns
}

func missingColumns(columns map[string]int) []string {
	var missing []string
	for _, c := range RequiredColumns {
		if columns[c] < 0 {
			missing = append(missing, c)
		}
	}
	return missing
}

func field(record []string, columns map[string]int, name string) string {
	i := columns[name]
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func isEmptyRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
